package lru

import (
	"testing"

	"github.com/IvanBrykalov/segcache/policy"
)

type fakeMeta struct{ releasable bool }

func (m fakeMeta) Releasable() bool { return m.releasable }

func addN(t *testing.T, q *Queue[string], guard *policy.Guard, n int, size uint64) []*Handle[string] {
	t.Helper()
	tok := guard.Lock()
	defer tok.Unlock()

	hs := make([]*Handle[string], 0, n)
	for i := 0; i < n; i++ {
		e := policy.NewEntry(string(rune('a'+i)), 0, size, nil)
		hs = append(hs, q.Add(e, tok))
	}
	return hs
}

func TestQueue_AddAndSize(t *testing.T) {
	t.Parallel()

	guard := policy.NewGuard()
	q := New[string](guard, 100, 10)
	addN(t, q, guard, 3, 10)

	tok := guard.Lock()
	defer tok.Unlock()

	if got := q.Size(tok); got != 30 {
		t.Fatalf("Size() = %d, want 30", got)
	}
	if got := q.ElementsCount(tok); got != 3 {
		t.Fatalf("ElementsCount() = %d, want 3", got)
	}
}

func TestQueue_Add_PanicsOnLimitExceeded(t *testing.T) {
	t.Parallel()

	guard := policy.NewGuard()
	q := New[string](guard, 10, 10)

	tok := guard.Lock()
	defer tok.Unlock()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic when exceeding byte budget")
		}
	}()
	q.Add(policy.NewEntry("x", 0, 20, nil), tok)
}

func TestQueue_Touch_MovesToMRU(t *testing.T) {
	t.Parallel()

	guard := policy.NewGuard()
	q := New[string](guard, 100, 10)
	hs := addN(t, q, guard, 3, 1) // a, b, c; c is MRU, a is LRU

	tok := guard.Lock()
	defer tok.Unlock()

	hits := q.Touch(hs[0], tok) // touch "a", it becomes MRU
	if hits != 1 {
		t.Fatalf("Touch() hits = %d, want 1", hits)
	}

	dump := q.Dump(tok) // MRU-first
	if dump[0].Key() != "a" {
		t.Fatalf("after Touch, MRU = %q, want %q", dump[0].Key(), "a")
	}
}

func TestQueue_CollectCandidates_LRUFirstSkipsNonReleasable(t *testing.T) {
	t.Parallel()

	guard := policy.NewGuard()
	q := New[string](guard, 100, 10)

	tok := guard.Lock()
	e1 := policy.NewEntry("a", 0, 10, fakeMeta{releasable: false}) // LRU, pinned
	e2 := policy.NewEntry("b", 0, 10, nil)                         // releasable
	e3 := policy.NewEntry("c", 0, 10, nil)                         // MRU, releasable
	q.Add(e1, tok)
	q.Add(e2, tok)
	q.Add(e3, tok)

	cands, ok := q.CollectCandidates(10, nil, nil, tok)
	tok.Unlock()

	if !ok {
		t.Fatalf("CollectCandidates() ok = false, want true")
	}
	if len(cands) != 1 || cands[0].Entry.Key() != "b" {
		t.Fatalf("CollectCandidates() = %+v, want single candidate %q", cands, "b")
	}
}

func TestQueue_CollectCandidates_ExcludesReservee(t *testing.T) {
	t.Parallel()

	guard := policy.NewGuard()
	q := New[string](guard, 100, 10)
	hs := addN(t, q, guard, 2, 10) // a (LRU), b (MRU)

	tok := guard.Lock()
	cands, ok := q.CollectCandidates(10, nil, hs[0], tok) // reservee = "a"
	tok.Unlock()

	if !ok {
		t.Fatalf("CollectCandidates() ok = false, want true")
	}
	if len(cands) != 1 || cands[0].Entry.Key() != "b" {
		t.Fatalf("CollectCandidates() = %+v, want single candidate %q (skipping reservee)", cands, "b")
	}
}

func TestQueue_CollectCandidates_InsufficientReturnsFalse(t *testing.T) {
	t.Parallel()

	guard := policy.NewGuard()
	q := New[string](guard, 100, 10)
	addN(t, q, guard, 2, 10)

	tok := guard.Lock()
	cands, ok := q.CollectCandidates(1000, nil, nil, tok)
	tok.Unlock()

	if ok {
		t.Fatalf("CollectCandidates() ok = true, want false (not enough releasable bytes)")
	}
	if len(cands) != 2 {
		t.Fatalf("CollectCandidates() on failure should still report what it found, got %d", len(cands))
	}
}

func TestQueue_Move_TransfersBetweenQueues(t *testing.T) {
	t.Parallel()

	guard := policy.NewGuard()
	src := New[string](guard, 100, 10)
	dst := New[string](guard, 100, 10)
	hs := addN(t, src, guard, 1, 10)

	tok := guard.Lock()
	newH := src.Move(hs[0], dst, tok)
	srcSize := src.Size(tok)
	dstSize := dst.Size(tok)
	tok.Unlock()

	if srcSize != 0 {
		t.Fatalf("source Size() after Move = %d, want 0", srcSize)
	}
	if dstSize != 10 {
		t.Fatalf("destination Size() after Move = %d, want 10", dstSize)
	}
	if newH.Entry().Key() != "a" {
		t.Fatalf("moved handle key = %q, want %q", newH.Entry().Key(), "a")
	}
}

func TestQueue_Remove_InvalidatesHandle(t *testing.T) {
	t.Parallel()

	guard := policy.NewGuard()
	q := New[string](guard, 100, 10)
	hs := addN(t, q, guard, 1, 10)

	tok := guard.Lock()
	q.Remove(hs[0], tok)
	tok.Unlock()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic using a handle after Remove")
		}
	}()
	hs[0].Entry()
}

func TestQueue_CanFit(t *testing.T) {
	t.Parallel()

	guard := policy.NewGuard()
	q := New[string](guard, 10, 1)

	tok := guard.Lock()
	defer tok.Unlock()

	if !q.CanFit(10, true, tok) {
		t.Fatalf("CanFit(10, true) = false, want true (exactly at budget)")
	}
	if q.CanFit(11, true, tok) {
		t.Fatalf("CanFit(11, true) = true, want false (over byte budget)")
	}

	q.Add(policy.NewEntry("a", 0, 5, nil), tok)
	if q.CanFit(0, true, tok) {
		t.Fatalf("CanFit(0, true) = true, want false (over element budget)")
	}
	if !q.CanFit(0, false, tok) {
		t.Fatalf("CanFit(0, false) = false, want true (no new element)")
	}
}
