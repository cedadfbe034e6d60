package cache

import (
	"context"

	"github.com/IvanBrykalov/segcache/internal/singleflight"
	"github.com/IvanBrykalov/segcache/policy"
	"github.com/IvanBrykalov/segcache/policy/slru"
)

// FileCache is a thin, single-lock host around the segmented-LRU engine:
// the demonstration "file-segment cache manager" collaborator the
// specification treats as external, built here so the policy can be
// exercised end-to-end. It plays the same role shardcache's Cache[K, V]
// plays for its policy, minus the sharding — spec.md §5 requires one
// cache-wide lock, so FileCache holds exactly one policy.Guard and uses
// it for both the priority engine and its own registry.
type FileCache[K comparable] struct {
	opts Options[K]

	guard *policy.Guard
	pol   *slru.Policy[K]
	reg   *registry[K]

	load singleflight.Group[segmentKey[K], *slru.Iterator[K]]
}

// New constructs a FileCache. Panics if MaxBytes or MaxElements is zero —
// a zero-capacity cache is a construction error, not a runtime condition.
func New[K comparable](opts Options[K]) *FileCache[K] {
	if opts.MaxBytes == 0 || opts.MaxElements == 0 {
		panic("cache: MaxBytes and MaxElements must both be nonzero")
	}
	opts.setDefaults()

	guard := policy.NewGuard()
	return &FileCache[K]{
		opts:  opts,
		guard: guard,
		pol:   slru.New[K](guard, opts.MaxBytes, opts.MaxElements, opts.SizeRatio),
		reg:   newRegistry[K](),
	}
}

// Close releases no resources today — FileCache owns no goroutines or
// file descriptors of its own — but is provided so hosts can defer it
// unconditionally, the way shardcache's Cache.Close is, without caring
// whether a future version of this type grows something to release.
func (c *FileCache[K]) Close() error { return nil }

// segKey builds the registry key for (key, offset).
func segKey[K comparable](key K, offset uint64) segmentKey[K] {
	return segmentKey[K]{key: key, offset: offset}
}

// Add admits a new segment at (key, offset) sized size bytes, evicting
// whatever the priority engine selects to make room first. meta may be
// nil (always releasable). Returns ErrCapacityUnavailable, never a panic,
// if no amount of eviction would make the segment fit — callers see this
// as an ordinary outcome, per the specification's two-error-kind design.
func (c *FileCache[K]) Add(key K, offset, size uint64, meta policy.Metadata) (it *Iterator[K], err error) {
	defer policy.Recover(&err)

	tok := c.guard.Lock()
	defer tok.Unlock()

	k := segKey(key, offset)
	if existing, ok := c.reg.get(k); ok {
		return existing, nil
	}

	if !c.admitLocked(size, nil, tok) {
		c.opts.Metrics.ReservationFailure()
		return nil, ErrCapacityUnavailable
	}

	it = c.pol.Add(key, offset, size, meta, tok)
	c.reg.put(k, it)
	c.opts.Metrics.Admission(size)
	c.reportSizesLocked(tok)
	return it, nil
}

// GetOrAdd returns the existing iterator for (key, offset) if resident,
// or admits a new segment by calling load exactly once across any number
// of concurrent callers racing on the same key — the same coalescing
// shardcache's GetOrLoad performs, via internal/singleflight.
func (c *FileCache[K]) GetOrAdd(ctx context.Context, key K, offset uint64, load func() (size uint64, meta policy.Metadata, err error)) (*Iterator[K], error) {
	tok := c.guard.Lock()
	k := segKey(key, offset)
	if it, ok := c.reg.get(k); ok {
		tok.Unlock()
		return it, nil
	}
	tok.Unlock()

	return c.load.Do(ctx, k, func() (*Iterator[K], error) {
		tok := c.guard.Lock()
		if it, ok := c.reg.get(k); ok {
			tok.Unlock()
			return it, nil
		}
		tok.Unlock()

		size, meta, err := load()
		if err != nil {
			return nil, err
		}
		return c.Add(key, offset, size, meta)
	})
}

// Reserve grows an existing segment by extraBytes, running the full
// eviction-plan protocol (collect candidates, evict them, run the
// deferred migrations) under one lock acquisition. Returns
// ErrCapacityUnavailable if no plan would make the growth fit. it is
// taken directly rather than looked up by key/offset, so an it already
// removed or from a different cache is a caller error: per the
// specification's two-error-kind design that is a LOGICAL_ERROR, raised
// as a panic by the iterator itself and returned by Reserve as an error
// wrapping policy.ErrLogical, not as ErrUnknownSegment.
func (c *FileCache[K]) Reserve(it *Iterator[K], extraBytes uint64) (err error) {
	defer policy.Recover(&err)

	tok := c.guard.Lock()
	defer tok.Unlock()

	stat := &policy.ReserveStat{}
	cands, finalize, ok := c.pol.CollectCandidatesForEviction(extraBytes, stat, it, tok)
	if !ok {
		c.opts.Metrics.ReservationFailure()
		return ErrCapacityUnavailable
	}

	c.evictLocked(cands, tok)
	if finalize != nil && !finalize.Empty() {
		finalize.Run(tok)
		for i := 0; i < finalize.Len(); i++ {
			c.opts.Metrics.Demotion()
		}
	}

	it.Resize(int64(extraBytes), tok)
	c.reportSizesLocked(tok)
	return nil
}

// Touch records access to (key, offset), promoting it toward protected
// when eligible. Returns ErrUnknownSegment if it is not resident.
func (c *FileCache[K]) Touch(key K, offset uint64) (hits uint64, err error) {
	defer policy.Recover(&err)

	tok := c.guard.Lock()
	defer tok.Unlock()

	it, ok := c.reg.get(segKey(key, offset))
	if !ok {
		return 0, ErrUnknownSegment
	}

	tierBefore := it.Tier()
	countBefore := c.pol.ElementsCount(tok)
	var demotions int
	hits, demotions = it.Touch(tok)
	if tierBefore == policy.Probationary && it.Tier() == policy.Protected {
		c.opts.Metrics.Promotion()
	}
	if c.pol.ElementsCount(tok) < countBefore {
		// The promotion's cascade evicted probationary entries to make room;
		// drop their registry entries so they read as not resident.
		resident := make(map[segmentKey[K]]bool)
		for _, e := range c.pol.Dump(tok) {
			resident[segKey(e.Key(), e.Offset())] = true
		}
		for k := range c.reg.entries {
			if !resident[k] {
				c.reg.delete(k)
			}
		}
	}
	for i := 0; i < demotions; i++ {
		c.opts.Metrics.Demotion()
	}
	c.reportSizesLocked(tok)
	return hits, nil
}

// Remove evicts (key, offset) unconditionally, calling OnEvict if set.
// Returns ErrUnknownSegment if it is not resident.
func (c *FileCache[K]) Remove(key K, offset uint64) (err error) {
	defer policy.Recover(&err)

	tok := c.guard.Lock()
	k := segKey(key, offset)
	it, ok := c.reg.get(k)
	if !ok {
		tok.Unlock()
		return ErrUnknownSegment
	}

	entry := it.Entry()
	it.Remove(tok)
	c.reg.delete(k)
	c.reportSizesLocked(tok)
	tok.Unlock()

	c.opts.Metrics.Eviction(entry.Size())
	if c.opts.OnEvict != nil {
		c.opts.OnEvict(key, offset, entry.Size())
	}
	return nil
}

// Size returns the total resident bytes across both tiers.
func (c *FileCache[K]) Size() uint64 {
	tok := c.guard.Lock()
	defer tok.Unlock()
	return c.pol.Size(tok)
}

// Count returns the total resident segment count across both tiers.
func (c *FileCache[K]) Count() uint64 {
	tok := c.guard.Lock()
	defer tok.Unlock()
	return uint64(c.reg.len())
}

// Dump returns a snapshot of every resident entry in a stable,
// fingerprint order — independent of the policy's own MRU/LRU ordering,
// which Shuffle deliberately randomizes, so callers comparing two dumps
// (tests, audits) don't see spurious differences caused only by access
// pattern.
func (c *FileCache[K]) Dump() []policy.Entry[K] {
	tok := c.guard.Lock()
	defer tok.Unlock()

	entries := c.pol.Dump(tok)
	keys := make([]segmentKey[K], len(entries))
	byKey := make(map[segmentKey[K]]policy.Entry[K], len(entries))
	for i, e := range entries {
		k := segKey(e.Key(), e.Offset())
		keys[i] = k
		byKey[k] = e
	}
	sortKeys(keys)

	out := make([]policy.Entry[K], len(keys))
	for i, k := range keys {
		out[i] = byKey[k]
	}
	return out
}

// Shuffle randomizes each tier's internal order independently, for tests
// that want to probe candidate collection independent of insertion
// order.
func (c *FileCache[K]) Shuffle() {
	tok := c.guard.Lock()
	defer tok.Unlock()
	c.pol.Shuffle(tok)
}

// admitLocked ensures size additional bytes fit in probationary (where
// every admission lands), evicting via the engine's own candidate
// collection if not. Must be called under c.guard.
func (c *FileCache[K]) admitLocked(size uint64, reservee *Iterator[K], tok policy.LockToken) bool {
	stat := &policy.ReserveStat{}
	cands, finalize, ok := c.pol.CollectCandidatesForEviction(size, stat, reservee, tok)
	if !ok {
		return false
	}
	c.evictLocked(cands, tok)
	if finalize != nil && !finalize.Empty() {
		finalize.Run(tok)
	}
	return true
}

// evictLocked removes every candidate from both the policy and the
// registry, and reports Eviction for each. Its callers (Add, through
// admitLocked, and Reserve) do not invoke OnEvict for these evictions —
// OnEvict runs only from Remove — so a host that needs storage cleanup on
// eviction triggered by growth should call Remove explicitly beforehand.
func (c *FileCache[K]) evictLocked(cands slru.EvictionCandidates[K], tok policy.LockToken) {
	for i := range cands {
		entry := cands[i].Entry
		c.reg.delete(segKey(entry.Key(), entry.Offset()))
	}
	cands.Evict(tok)
	for i := range cands {
		c.opts.Metrics.Eviction(cands[i].Entry.Size())
	}
}

// reportSizesLocked pushes the current tier sizes to Metrics. Called at
// the end of every mutating operation, still under the lock — Metrics
// implementations must tolerate being called this way.
func (c *FileCache[K]) reportSizesLocked(tok policy.LockToken) {
	c.opts.Metrics.Sizes(
		c.pol.ProtectedSize(tok), c.pol.ProtectedCount(tok),
		c.pol.ProbationarySize(tok), c.pol.ProbationaryCount(tok),
	)
}
