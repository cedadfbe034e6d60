// Package lru implements a single byte- and count-budgeted LRU tier: the
// ordered queue of Entries that policy/slru composes two of (protected and
// probationary). It owns an intrusive doubly linked list — the same
// prev/next, head-is-MRU/tail-is-LRU shape as shardcache's shard.go — plus
// the running totals and limits that make it a budget, not just an order.
//
// A Queue never proactively evicts: admission that would break a budget
// fails with a logic error, and candidate collection only ever reports
// what could be freed. Deciding whether to act on that report is
// policy/slru's job.
package lru

import (
	"math/rand"

	"github.com/IvanBrykalov/segcache/policy"
)

// node is the intrusive list element. prev points toward MRU (head),
// next points toward LRU (tail) — identical orientation to shardcache's
// node[K,V], so a reader of that package recognizes this shape on sight.
type node[K comparable] struct {
	entry policy.Entry[K]
	prev  *node[K]
	next  *node[K]
}

// Handle is a stable, opaque reference to one resident Entry within a
// single Queue. It does not survive a move to another Queue by itself —
// Move returns a new Handle for the destination queue; policy/slru is
// responsible for rewriting the outer Iterator to point at it.
type Handle[K comparable] struct {
	q *Queue[K]
	n *node[K]
}

// Entry returns the entry this handle refers to. Panics with a logic
// error if the handle has been removed or invalidated.
func (h *Handle[K]) Entry() *policy.Entry[K] {
	h.assertValid()
	return &h.n.entry
}

func (h *Handle[K]) assertValid() {
	if h == nil || h.n == nil {
		panicHandleInvalid()
	}
}

func panicHandleInvalid() {
	panic(policyLogicalInvalidHandle)
}

// Queue is one LRU tier: an ordered sequence of Entries from least to
// most recently used, plus the two scalar budgets and two running
// totals the specification's data model requires.
type Queue[K comparable] struct {
	guard *policy.Guard

	maxBytes    uint64
	maxElements uint64

	curBytes    uint64
	curElements uint64

	head *node[K] // MRU
	tail *node[K] // LRU
}

// New constructs an empty Queue bounded by maxBytes/maxElements, sharing
// guard with whatever other queue and host state the caller's cache-wide
// lock protects.
func New[K comparable](guard *policy.Guard, maxBytes, maxElements uint64) *Queue[K] {
	return &Queue[K]{guard: guard, maxBytes: maxBytes, maxElements: maxElements}
}

// SizeLimit returns the byte budget.
func (q *Queue[K]) SizeLimit() uint64 { return q.maxBytes }

// ElementsLimit returns the count budget.
func (q *Queue[K]) ElementsLimit() uint64 { return q.maxElements }

// Size returns the current total bytes resident in the queue.
func (q *Queue[K]) Size(tok policy.LockToken) uint64 {
	policy.CheckToken(q.guard, tok)
	return q.curBytes
}

// ElementsCount returns the current number of resident entries.
func (q *Queue[K]) ElementsCount(tok policy.LockToken) uint64 {
	policy.CheckToken(q.guard, tok)
	return q.curElements
}

// CanFit reports whether extraBytes more bytes (and, if newElement is
// true, one more element) would still fit within budget. The "+1" on
// the element count is the spec's "omitted when the caller signals a
// size-only grow with no new element".
func (q *Queue[K]) CanFit(extraBytes uint64, newElement bool, tok policy.LockToken) bool {
	policy.CheckToken(q.guard, tok)
	if q.curBytes+extraBytes > q.maxBytes {
		return false
	}
	if newElement && q.curElements+1 > q.maxElements {
		return false
	}
	return true
}

// Add appends entry at the MRU end and returns a Handle to it. The queue
// does not evict to make room — the caller must have already verified
// CanFit; an Add that would break either budget panics with a logic
// error, not an ordinary capacity shortfall, because it means the caller
// skipped the pre-check the protocol requires of it.
func (q *Queue[K]) Add(entry policy.Entry[K], tok policy.LockToken) *Handle[K] {
	policy.CheckToken(q.guard, tok)
	if q.curBytes+entry.Size() > q.maxBytes || q.curElements+1 > q.maxElements {
		panicLimitExceeded(q.curBytes, entry.Size(), q.maxBytes, q.curElements, q.maxElements)
	}

	n := &node[K]{entry: entry}
	q.pushFront(n)
	q.curBytes += entry.Size()
	q.curElements++
	return &Handle[K]{q: q, n: n}
}

// Remove unlinks the referenced entry, decrements totals, and
// invalidates the handle.
func (q *Queue[K]) Remove(h *Handle[K], tok policy.LockToken) {
	policy.CheckToken(q.guard, tok)
	h.assertValid()

	q.unlink(h.n)
	q.curBytes -= h.n.entry.Size()
	q.curElements--
	h.n = nil
}

// Touch moves the referenced entry to the MRU end and increments its
// hit count, returning the new count.
func (q *Queue[K]) Touch(h *Handle[K], tok policy.LockToken) uint64 {
	policy.CheckToken(q.guard, tok)
	h.assertValid()

	q.unlink(h.n)
	q.pushFront(h.n)
	return h.n.entry.Touch()
}

// Resize adjusts the referenced entry's size (and the queue's running
// byte total) by delta. It does not evict — a caller that grows an
// entry past budget here has already broken the protocol elsewhere.
func (q *Queue[K]) Resize(h *Handle[K], delta int64, tok policy.LockToken) {
	policy.CheckToken(q.guard, tok)
	h.assertValid()

	h.n.entry.Resize(delta)
	if delta < 0 {
		dec := uint64(-delta)
		if dec > q.curBytes {
			panicLogicalNegativeTotal()
		}
		q.curBytes -= dec
	} else {
		q.curBytes += uint64(delta)
	}
}

// Candidate is one entry CollectCandidates chose for release: its Entry
// value (for byte/key bookkeeping) and the live Handle a caller uses to
// actually remove or move it.
type Candidate[K comparable] struct {
	Entry  policy.Entry[K]
	Handle *Handle[K]
}

// CollectCandidates walks the queue from LRU toward MRU, collecting
// entries whose release would free at least wantBytes. The reservee's
// own entry, if given, is always skipped. Entries the host's metadata
// marks non-releasable are skipped without aborting the walk. Collection
// stops at the first prefix whose cumulative size covers wantBytes;
// ordering within that prefix is strictly LRU-first.
//
// stat (which may be nil) accumulates releasable bytes/count seen — the
// specification hands the same stat through nested calls across tiers,
// so this never resets it.
//
// The second return is true iff enough releasable bytes were found.
func (q *Queue[K]) CollectCandidates(wantBytes uint64, stat *policy.ReserveStat, reservee *Handle[K], tok policy.LockToken) ([]Candidate[K], bool) {
	policy.CheckToken(q.guard, tok)

	if wantBytes == 0 {
		return nil, true
	}

	var (
		out      []Candidate[K]
		released uint64
		reserveN *node[K]
	)
	if reservee != nil && reservee.n != nil {
		reserveN = reservee.n
	}

	for cur := q.tail; cur != nil; cur = cur.prev {
		if cur == reserveN {
			continue
		}
		if !cur.entry.Releasable() {
			continue
		}

		out = append(out, Candidate[K]{Entry: cur.entry, Handle: &Handle[K]{q: q, n: cur}})
		stat.Add(cur.entry.Size())
		released += cur.entry.Size()
		if released >= wantBytes {
			return out, true
		}
	}
	return out, false
}

// Move atomically unlinks the referenced entry from q and appends it at
// the MRU end of dst, adjusting both queues' running totals, and returns
// a fresh Handle into dst. The source handle is invalidated.
func (q *Queue[K]) Move(h *Handle[K], dst *Queue[K], tok policy.LockToken) *Handle[K] {
	policy.CheckToken(q.guard, tok)
	h.assertValid()

	n := h.n
	q.unlink(n)
	q.curBytes -= n.entry.Size()
	q.curElements--
	h.n = nil

	dst.pushFront(n)
	dst.curBytes += n.entry.Size()
	dst.curElements++
	return &Handle[K]{q: dst, n: n}
}

// Dump returns a snapshot of resident entries, MRU-first.
func (q *Queue[K]) Dump(tok policy.LockToken) []policy.Entry[K] {
	policy.CheckToken(q.guard, tok)
	out := make([]policy.Entry[K], 0, q.curElements)
	for cur := q.head; cur != nil; cur = cur.next {
		out = append(out, cur.entry)
	}
	return out
}

// Shuffle randomizes the queue's order in place; running totals are
// untouched. Intended for fuzz/property tests that want to probe
// candidate collection independent of insertion order.
func (q *Queue[K]) Shuffle(tok policy.LockToken) {
	policy.CheckToken(q.guard, tok)

	nodes := make([]*node[K], 0, q.curElements)
	for cur := q.head; cur != nil; cur = cur.next {
		nodes = append(nodes, cur)
	}
	rand.Shuffle(len(nodes), func(i, j int) { nodes[i], nodes[j] = nodes[j], nodes[i] })

	q.head, q.tail = nil, nil
	for _, n := range nodes {
		n.prev, n.next = nil, nil
		q.pushFront(n)
	}
}

// pushFront inserts n at MRU in O(1). n must not already be linked.
func (q *Queue[K]) pushFront(n *node[K]) {
	n.prev = nil
	n.next = q.head
	if q.head != nil {
		q.head.prev = n
	}
	q.head = n
	if q.tail == nil {
		q.tail = n
	}
}

// unlink detaches n from the list in O(1); it does not touch totals.
func (q *Queue[K]) unlink(n *node[K]) {
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if q.head == n {
		q.head = n.next
	}
	if q.tail == n {
		q.tail = n.prev
	}
	n.prev, n.next = nil, nil
}
