package slru

import (
	"github.com/IvanBrykalov/segcache/policy"
	"github.com/IvanBrykalov/segcache/policy/lru"
)

// Candidate is one entry chosen for eviction: its Entry value (for
// logging/accounting by the host) and the live Iterator that
// EvictionCandidates.Evict removes it through.
type Candidate[K comparable] struct {
	Entry policy.Entry[K]
	it    *Iterator[K]
}

// EvictionCandidates is the set CollectCandidatesForEviction hands back:
// the entries a host should evict (at the storage layer, its own
// concern) before invoking the accompanying Finalize.
type EvictionCandidates[K comparable] []Candidate[K]

// Evict removes every candidate from its queue. This is the "candidates
// must execute candidates.evict() under the lock" step the specification
// calls out as (1) of the two-step eviction-plan protocol; storage-layer
// cleanup is the host's separate responsibility and happens around this
// call, not inside it.
func (c EvictionCandidates[K]) Evict(tok policy.LockToken) {
	for i := range c {
		c[i].it.Remove(tok)
	}
}

// migration is one (iterator, destination tier) record a Finalize will
// apply. Modeling Finalize as a list of these, rather than a captured
// closure, keeps a pending plan inspectable from tests — exactly the
// design note's stated reason for preferring a value type here.
type migration[K comparable] struct {
	it     *Iterator[K]
	dest   policy.Tier
	target *lru.Queue[K]
}

// Finalize is the deferred action an Eviction Plan carries: queue-to-
// queue migrations that must only run after the host has committed the
// evictions in the accompanying EvictionCandidates, under the same lock
// acquisition. Re-entering the policy between Evict and Run is undefined,
// per the specification.
type Finalize[K comparable] struct {
	moves []migration[K]
}

// Empty reports whether this plan requires no migrations — the trivial
// plan returned whenever protected absorbed a request without needing
// to downgrade anything.
func (f *Finalize[K]) Empty() bool { return f == nil || len(f.moves) == 0 }

// Len reports how many migrations this plan carries — the number of
// entries a Run of it will push into their destination tier.
func (f *Finalize[K]) Len() int {
	if f == nil {
		return 0
	}
	return len(f.moves)
}

// Run executes every migration in program order: unlink from the source
// queue, append at the MRU of the destination queue, rewrite the
// Iterator's tier tag in place. Each step completes before the next
// begins, so totals never exceed limits after any individual step.
func (f *Finalize[K]) Run(tok policy.LockToken) {
	if f == nil {
		return
	}
	for _, m := range f.moves {
		if m.it.Tier() == m.dest {
			panicAlreadyQueued(m.dest)
		}
		src := m.it.owner.queueFor(m.it.Tier())
		newInner := src.Move(m.it.inner, m.target, tok)
		m.it.retarget(newInner, m.dest)
	}
}
