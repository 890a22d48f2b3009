package transaction

import (
	"context"
	"errors"
	"testing"
)

// scriptedRand returns queued values, then falls back to the last one.
type scriptedRand struct {
	values []int32
	idx    int
}

func (r *scriptedRand) Int32N(n int32) int32 {
	v := r.values[r.idx]
	if r.idx < len(r.values)-1 {
		r.idx++
	}
	if v >= n {
		v = n - 1
	}
	return v
}

type fakeChecker struct {
	live  map[int32]bool
	err   error
	calls []int32
}

func (f *fakeChecker) TransactionIDExists(ctx context.Context, id int32, correlationID string) (bool, error) {
	f.calls = append(f.calls, id)
	if f.err != nil {
		return false, f.err
	}
	return f.live[id], nil
}

func TestNewIDAllocator_RequiresChecker(t *testing.T) {
	if _, err := NewIDAllocator(nil, nil); err == nil {
		t.Error("expected error for nil checker")
	}
}

func TestAllocate_SkipsLiveIDs(t *testing.T) {
	// Bound draw first, then candidate draws: 41 is live, 42 is free.
	rnd := &scriptedRand{values: []int32{999, 40, 41}}
	checker := &fakeChecker{live: map[int32]bool{41: true}}

	alloc, err := NewIDAllocator(checker, rnd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	id, err := alloc.Allocate(context.Background(), "cid-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 42 {
		t.Errorf("expected id 42, got %d", id)
	}
	// The live candidate must have been checked and rejected first.
	if len(checker.calls) != 2 || checker.calls[0] != 41 {
		t.Errorf("unexpected existence checks: %v", checker.calls)
	}
	if checker.live[id] {
		t.Error("allocator returned an id the store reported live")
	}
}

func TestAllocate_NeverZero(t *testing.T) {
	// Candidate draw of 0 maps into [1, bound).
	rnd := &scriptedRand{values: []int32{100, 0}}
	alloc, _ := NewIDAllocator(&fakeChecker{}, rnd)

	id, err := alloc.Allocate(context.Background(), "cid-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id < 1 {
		t.Errorf("expected positive id, got %d", id)
	}
}

func TestAllocate_ClaimBlocksDuplicate(t *testing.T) {
	// Both allocations draw the same candidate first; the claimed set must
	// force the second one onto the next draw.
	rnd := &scriptedRand{values: []int32{999, 50, 999, 50, 60}}
	checker := &fakeChecker{}
	alloc, _ := NewIDAllocator(checker, rnd)

	first, err := alloc.Allocate(context.Background(), "cid-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := alloc.Allocate(context.Background(), "cid-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first == second {
		t.Errorf("expected distinct ids, both allocations returned %d", first)
	}
}

func TestAllocate_CheckerError(t *testing.T) {
	rnd := &scriptedRand{values: []int32{999, 10}}
	alloc, _ := NewIDAllocator(&fakeChecker{err: errors.New("store down")}, rnd)

	if _, err := alloc.Allocate(context.Background(), "cid-1"); err == nil {
		t.Fatal("expected error, got nil")
	}
	// The failed candidate must not stay claimed.
	if _, loaded := alloc.claimed.Load(11); loaded {
		t.Error("failed candidate left a stale claim")
	}
}

func TestRelease_Idempotent(t *testing.T) {
	rnd := &scriptedRand{values: []int32{999, 10}}
	alloc, _ := NewIDAllocator(&fakeChecker{}, rnd)

	id, err := alloc.Allocate(context.Background(), "cid-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	alloc.Release(id)
	alloc.Release(id)

	if _, loaded := alloc.claimed.Load(id); loaded {
		t.Error("expected claim to be released")
	}
}

func TestAllocate_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rnd := &scriptedRand{values: []int32{999, 10}}
	alloc, _ := NewIDAllocator(&fakeChecker{}, rnd)

	if _, err := alloc.Allocate(ctx, "cid-1"); err == nil {
		t.Fatal("expected context error, got nil")
	}
}
