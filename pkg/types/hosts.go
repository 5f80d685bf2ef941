package types

import (
	"strings"
)

// HostSet is an ordered sequence of host-name substrings. A hostname is part
// of the set when its uppercased form contains any uppercased entry.
type HostSet []string

// DefaultHosts returns the built-in target hosts. Each call returns a fresh
// slice; callers may modify it freely.
func DefaultHosts() HostSet {
	return HostSet{"MOVITAUTO", "MOVEITXFR", "PYXSFTP"}
}

// ParseHosts splits a comma-separated list into a HostSet, trimming blanks
// and dropping empty entries. It returns nil when s holds no entries.
func ParseHosts(s string) HostSet {
	var out HostSet
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Match reports whether hostname contains any entry of the set, ignoring case.
// An empty hostname never matches.
func (h HostSet) Match(hostname string) bool {
	if hostname == "" {
		return false
	}
	upper := strings.ToUpper(hostname)
	for _, target := range h {
		if target == "" {
			continue
		}
		if strings.Contains(upper, strings.ToUpper(target)) {
			return true
		}
	}
	return false
}

// Clone returns an independent copy of the set.
func (h HostSet) Clone() HostSet {
	if h == nil {
		return nil
	}
	out := make(HostSet, len(h))
	copy(out, h)
	return out
}

// String renders the set as a comma-separated list.
func (h HostSet) String() string {
	return strings.Join(h, ",")
}
