package pending

import (
	"sync"
	"testing"
	"time"
)

func TestCreateGetDelete(t *testing.T) {
	r := NewRegistry(nil)
	id := r.Create("https://x/file.zip", "file.zip")
	if id == "" {
		t.Fatal("empty id")
	}
	s, ok := r.Get(id)
	if !ok || s.URL != "https://x/file.zip" || s.Filename != "file.zip" {
		t.Fatalf("got %+v ok=%v", s, ok)
	}
	r.Delete(id)
	if _, ok := r.Get(id); ok {
		t.Fatal("entry survived delete")
	}
	// Deleting again is a no-op.
	r.Delete(id)
	r.Delete("never-existed")
}

func TestTakeConsumesOnce(t *testing.T) {
	r := NewRegistry(nil)
	id := r.Create("https://x/file.zip", "file.zip")

	const workers = 8
	wins := make(chan Selection, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s, ok := r.Take(id); ok {
				wins <- s
			}
		}()
	}
	wg.Wait()
	close(wins)
	var got []Selection
	for s := range wins {
		got = append(got, s)
	}
	if len(got) != 1 || got[0].ID != id {
		t.Fatalf("take won %d times: %+v", len(got), got)
	}
	if _, ok := r.Take(id); ok {
		t.Fatal("second take found the entry")
	}
}

func TestUniqueIDs(t *testing.T) {
	r := NewRegistry(nil)
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := r.Create("u", "f")
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestSweepExpired(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	r := NewRegistry(func() time.Time { return now })

	id := r.Create("https://x/a.bin", "a.bin")

	// Still there just before the cutoff.
	if n := r.SweepExpired(base.Add(299 * time.Second)); n != 0 {
		t.Fatalf("swept %d entries early", n)
	}
	if _, ok := r.Get(id); !ok {
		t.Fatal("entry missing at T+299s")
	}

	// Gone after the cutoff.
	if n := r.SweepExpired(base.Add(301 * time.Second)); n != 1 {
		t.Fatalf("swept %d entries, want 1", n)
	}
	if _, ok := r.Get(id); ok {
		t.Fatal("entry present at T+301s after sweep")
	}
}

func TestSweepKeepsFresh(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	r := NewRegistry(func() time.Time { return now })

	old := r.Create("u1", "f1")
	now = base.Add(4 * time.Minute)
	fresh := r.Create("u2", "f2")

	if n := r.SweepExpired(base.Add(6 * time.Minute)); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}
	if _, ok := r.Get(old); ok {
		t.Fatal("old entry kept")
	}
	if _, ok := r.Get(fresh); !ok {
		t.Fatal("fresh entry removed")
	}
	if r.Len() != 1 {
		t.Fatalf("len %d", r.Len())
	}
}
