// Package slru composes two policy/lru Queues — protected and
// probationary — into the segmented-LRU admission and eviction engine:
// the core of this module. See Policy for the entry points a host calls,
// and Iterator for the stable handle a host holds per resident segment.
package slru

import (
	"github.com/IvanBrykalov/segcache/policy"
	"github.com/IvanBrykalov/segcache/policy/lru"
)

// Iterator is the opaque, stable handle a host keeps for one resident
// segment. Unlike the inner lru.Handle it wraps, an Iterator survives a
// promotion or downgrade across tiers: the engine rewrites its inner
// handle and tier tag in place on every migration, so a host's reference
// to it is never invalidated by a move — only by Remove or Invalidate.
type Iterator[K comparable] struct {
	owner *Policy[K]
	inner *lru.Handle[K]
	tier  policy.Tier
	valid bool
}

func newIterator[K comparable](owner *Policy[K], inner *lru.Handle[K], tier policy.Tier) *Iterator[K] {
	it := &Iterator[K]{owner: owner, inner: inner, tier: tier, valid: true}
	inner.Entry().SetOwner(it)
	return it
}

func (it *Iterator[K]) assertValid() {
	if it == nil || !it.valid {
		panicInvalidIterator()
	}
}

// Entry returns a copy of the entry this iterator currently refers to.
// Panics with a logic error if the iterator was removed or invalidated.
func (it *Iterator[K]) Entry() policy.Entry[K] {
	it.assertValid()
	return *it.inner.Entry()
}

// Tier reports which SLRU tier the entry currently lives in.
func (it *Iterator[K]) Tier() policy.Tier {
	it.assertValid()
	return it.tier
}

// Touch is the sole entry point into increasePriority: it bumps the
// entry's hit count and, if the entry is in the probationary tier, may
// promote it to protected (possibly cascading a downgrade of protected's
// LRU tail). It always returns the new hit count, whether or not
// promotion happened — promotion infeasibility is never an error, per
// the specification's "benign partial failure" clause. The second
// return value is the number of entries a cascading downgrade pushed
// from protected back down to probationary as a side effect of this
// touch (zero when no cascade ran).
func (it *Iterator[K]) Touch(tok policy.LockToken) (hits uint64, demotions int) {
	it.assertValid()
	return it.owner.increasePriority(it, tok)
}

// Resize adjusts the entry's size by delta in place, without changing
// its tier or position.
func (it *Iterator[K]) Resize(delta int64, tok policy.LockToken) {
	it.assertValid()
	it.owner.queueFor(it.tier).Resize(it.inner, delta, tok)
}

// Remove deletes the entry from its current tier and invalidates the
// iterator. Any further method call on it is a logic error.
func (it *Iterator[K]) Remove(tok policy.LockToken) {
	it.assertValid()
	it.owner.queueFor(it.tier).Remove(it.inner, tok)
	it.invalidateLocked()
}

// Invalidate logically destroys the iterator without touching the
// underlying queue: the entry stays resident, and any further method
// call on the iterator is a logic error.
func (it *Iterator[K]) Invalidate() {
	it.assertValid()
	it.invalidateLocked()
}

func (it *Iterator[K]) invalidateLocked() {
	it.valid = false
	it.inner = nil
}

// retarget rewrites the iterator in place after a cross-tier migration.
// This is the mechanism by which an Iterator "survives queue migration":
// the caller's reference never changes, only what it points at.
func (it *Iterator[K]) retarget(inner *lru.Handle[K], tier policy.Tier) {
	it.inner = inner
	it.tier = tier
	inner.Entry().SetOwner(it)
}
