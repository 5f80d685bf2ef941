package history

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// Entry is the last forwarding outcome recorded for one host.
type Entry struct {
	Hostname  string    `json:"hostname"`
	Status    string    `json:"status"` // "success" | "failed" | "error"
	Severity  string    `json:"severity,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	DedupKey  string    `json:"dedup_key,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is a thread-safe in-memory history keyed by uppercased hostname.
type Store struct {
	mu   sync.RWMutex
	data map[string]*Entry
	ttl  time.Duration
	now  func() time.Time // injectable for deterministic tests
}

// New creates a Store with the given TTL.
func New(ttl time.Duration) *Store {
	return &Store{
		data: make(map[string]*Entry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Put records e as the latest outcome for e.Hostname, stamping UpdatedAt.
func (s *Store) Put(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.Hostname = strings.ToUpper(e.Hostname)
	e.UpdatedAt = s.now()
	s.data[e.Hostname] = &e
}

// Get returns a copy of the entry for hostname. The entry may be stale if
// the TTL has elapsed but Run has not evicted it yet.
func (s *Store) Get(hostname string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[strings.ToUpper(hostname)]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// List returns copies of all entries updated within the TTL, newest first.
func (s *Store) List() []Entry {
	s.mu.RLock()
	cutoff := s.now().Add(-s.ttl)
	out := make([]Entry, 0, len(s.data))
	for _, e := range s.data {
		if e.UpdatedAt.After(cutoff) {
			out = append(out, *e)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].Hostname < out[j].Hostname
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// Count returns the number of entries held, including stale ones.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Evict removes entries older than now minus TTL and returns how many were removed.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.ttl)
	removed := 0
	for host, e := range s.data {
		if !e.UpdatedAt.After(cutoff) {
			delete(s.data, host)
			removed++
		}
	}
	return removed
}

// Run starts the eviction loop, ticking at half the TTL (minimum 1 second).
// Run blocks until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("history: evicted stale deliveries", "count", n)
			}
		}
	}
}
