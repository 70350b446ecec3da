package dispatch

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestCallInvokesEveryIndexExactlyOnce(t *testing.T) {
	const n = 10_000
	var counts [n]int32

	d := New(8)
	err := d.Call(n, func(_, index int) error {
		atomic.AddInt32(&counts[index], 1)
		return nil
	})
	if err != nil {
		t.Fatalf("Call returned error: %v", err)
	}

	for i, c := range counts {
		if c != 1 {
			t.Fatalf("index %d invoked %d times, want 1", i, c)
		}
	}
}

func TestCallZeroOrNegativeIsNoop(t *testing.T) {
	d := New(4)
	called := false
	if err := d.Call(0, func(_, _ int) error { called = true; return nil }); err != nil {
		t.Fatalf("Call(0, ...) returned error: %v", err)
	}
	if called {
		t.Error("target invoked for n=0")
	}
}

func TestCallPropagatesFirstError(t *testing.T) {
	d := New(4)
	sentinel := errors.New("boom")

	err := d.Call(100, func(_, index int) error {
		if index == 42 {
			return sentinel
		}
		return nil
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("Call returned %v, want %v", err, sentinel)
	}
}

func TestCallNumWorkersNeverExceedsN(t *testing.T) {
	d := New(64)
	seen := make(map[int]bool)
	var mu sync.Mutex

	err := d.Call(3, func(workerID, index int) error {
		mu.Lock()
		seen[index] = true
		if workerID < 0 || workerID >= 3 {
			t.Errorf("workerID = %d, want in [0, 3) for n=3", workerID)
		}
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("Call returned error: %v", err)
	}
	if len(seen) != 3 {
		t.Fatalf("saw %d distinct indices, want 3", len(seen))
	}
}
