// Package policy defines the shared vocabulary of the segment priority
// engine: the Entry record, the opaque Metadata contract a host implements,
// the lock-witness token every stateful method requires, and the error
// kinds raised when that discipline or an internal invariant is violated.
//
// Nothing in this package decides admission or eviction policy — that is
// policy/lru (a single ordered tier) and policy/slru (the two-tier
// protected/probationary composition), both of which import this package.
package policy

// Tier identifies which SLRU sub-queue an Entry currently lives in.
type Tier uint8

const (
	// Probationary is the cold tier every new segment enters through.
	Probationary Tier = iota
	// Protected is the hot tier reached only by promotion.
	Protected
)

func (t Tier) String() string {
	if t == Protected {
		return "protected"
	}
	return "probationary"
}

// Metadata is the opaque, co-owned handle a host attaches to every Entry.
// The engine never interprets it beyond this one query: whether the
// segment may currently be evicted (e.g. because nothing is reading it).
// A nil Metadata is always treated as releasable.
type Metadata interface {
	Releasable() bool
}

// Entry is the immutable-shape record the engine tracks: a segment's
// identity (Key, Offset), its current size in bytes, the host's opaque
// metadata handle, and a hit counter bumped on every touch. Size is
// mutable only via the engine's resize operation; Hits only via touch.
type Entry[K comparable] struct {
	key      K
	offset   uint64
	size     uint64
	metadata Metadata
	hits     uint64

	// owner is an opaque back-reference set and interpreted only by
	// policy/slru (as *slru.Iterator[K]); policy/lru never dereferences
	// it, it only carries it along as cargo through Add/Move/candidate
	// collection so the SLRU layer can retarget the outer handle that
	// survives a cross-tier migration.
	owner any
}

// NewEntry constructs an Entry. Hosts never need this directly — it is
// exported for policy/lru and policy/slru, which live in sibling packages.
func NewEntry[K comparable](key K, offset, size uint64, metadata Metadata) Entry[K] {
	return Entry[K]{key: key, offset: offset, size: size, metadata: metadata}
}

// These accessors take a value receiver, not a pointer: Iterator.Entry
// returns a copy, and a host chaining straight off that call (e.g.
// it.Entry().Size()) must not need an intermediate variable just to get
// an addressable operand.
func (e Entry[K]) Key() K             { return e.key }
func (e Entry[K]) Offset() uint64     { return e.offset }
func (e Entry[K]) Size() uint64       { return e.size }
func (e Entry[K]) Hits() uint64       { return e.hits }
func (e Entry[K]) Metadata() Metadata { return e.metadata }

// Releasable reports whether the host has marked this entry's segment
// evictable right now. A nil Metadata is always releasable.
func (e Entry[K]) Releasable() bool {
	return e.metadata == nil || e.metadata.Releasable()
}

// Owner returns the opaque back-reference policy/slru attaches to this
// entry. Exported only so sibling packages can round-trip it; a host
// has no business reading it.
func (e Entry[K]) Owner() any { return e.owner }

// SetOwner rewrites the opaque back-reference. See Owner.
func (e *Entry[K]) SetOwner(v any) { e.owner = v }

// Touch bumps the hit counter and returns the new value. Exported so
// policy/lru can drive it from the intrusive list node it owns.
func (e *Entry[K]) Touch() uint64 {
	e.hits++
	return e.hits
}

// Resize adjusts the entry's size by a signed delta, panicking with a
// logic error if that would drive the size negative.
func (e *Entry[K]) Resize(delta int64) {
	if delta < 0 {
		dec := uint64(-delta)
		if dec > e.size {
			panicLogical("policy: resize would drive entry size negative (size=%d delta=%d)", e.size, delta)
		}
		e.size -= dec
	} else {
		e.size += uint64(delta)
	}
}

// ReserveStat accumulates what a candidate walk found releasable. The
// SLRU policy hands it only to probationary collection, whose candidates
// are actual evictions; protected's downgrade walks run with a nil stat.
// Byte accounting is authoritative; ReleasableCount is informational.
type ReserveStat struct {
	ReleasableBytes uint64
	ReleasableCount uint64
}

// Add folds in one more releasable entry.
func (s *ReserveStat) Add(size uint64) {
	if s == nil {
		return
	}
	s.ReleasableBytes += size
	s.ReleasableCount++
}
