package history

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fixedClock returns a func() time.Time that always returns t.
func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestPutAndGet_CaseInsensitive(t *testing.T) {
	st := New(time.Hour)
	st.Put(Entry{Hostname: "vm-movitauto-01", Status: "success", DedupKey: "k1"})

	e, ok := st.Get("VM-MOVITAUTO-01")
	if !ok {
		t.Fatal("Get: expected entry, got none")
	}
	if e.Hostname != "VM-MOVITAUTO-01" {
		t.Errorf("Hostname: got %q, want uppercased", e.Hostname)
	}
	if e.DedupKey != "k1" {
		t.Errorf("DedupKey: got %q, want k1", e.DedupKey)
	}
	if e.UpdatedAt.IsZero() {
		t.Error("UpdatedAt: not stamped")
	}
}

func TestGet_Missing(t *testing.T) {
	st := New(time.Hour)
	if _, ok := st.Get("unknown"); ok {
		t.Fatal("Get on empty store: expected false, got true")
	}
}

func TestPut_Overwrites(t *testing.T) {
	st := New(time.Hour)
	st.Put(Entry{Hostname: "h", Status: "failed"})
	st.Put(Entry{Hostname: "H", Status: "success"})

	if st.Count() != 1 {
		t.Fatalf("Count: got %d, want 1", st.Count())
	}
	e, _ := st.Get("h")
	if e.Status != "success" {
		t.Errorf("Status: got %q, want success", e.Status)
	}
}

func TestList_ExcludesStaleNewestFirst(t *testing.T) {
	base := time.Now()
	st := New(5 * time.Minute)

	st.now = fixedClock(base.Add(-10 * time.Minute))
	st.Put(Entry{Hostname: "old"})

	st.now = fixedClock(base.Add(-2 * time.Minute))
	st.Put(Entry{Hostname: "older-live"})

	st.now = fixedClock(base)
	st.Put(Entry{Hostname: "newest"})

	entries := st.List()
	if len(entries) != 2 {
		t.Fatalf("List: got %d entries, want 2", len(entries))
	}
	if entries[0].Hostname != "NEWEST" || entries[1].Hostname != "OLDER-LIVE" {
		t.Errorf("List order: got %q, %q", entries[0].Hostname, entries[1].Hostname)
	}
}

func TestEvict_RemovesStale(t *testing.T) {
	base := time.Now()
	st := New(5 * time.Minute)

	st.now = fixedClock(base.Add(-10 * time.Minute))
	st.Put(Entry{Hostname: "old1"})
	st.Put(Entry{Hostname: "old2"})

	st.now = fixedClock(base)
	st.Put(Entry{Hostname: "live"})

	if removed := st.Evict(base); removed != 2 {
		t.Errorf("Evict: removed %d, want 2", removed)
	}
	if st.Count() != 1 {
		t.Errorf("Count after evict: got %d, want 1", st.Count())
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	st := New(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		st.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestConcurrentMixedOps(t *testing.T) {
	st := New(time.Hour)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			st.Put(Entry{Hostname: "pyxsftp", Status: "success"})
		}()
		go func() {
			defer wg.Done()
			st.List()
		}()
	}
	wg.Wait()

	if st.Count() != 1 {
		t.Errorf("Count after concurrent puts: got %d, want 1", st.Count())
	}
}
