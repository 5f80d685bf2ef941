// Package types defines Go types shared by hostpager-relay and hostpager-setup.
// The main one is HostSet, the ordered list of host-name substrings that decides
// which hosts are paged and which hosts get a Datadog monitor.
package types
