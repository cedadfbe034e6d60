package cache

// Metrics receives the SLRU-specific signals FileCache produces: the
// analogue of the teacher's hit/miss/evict/size callbacks, generalized to
// the two-tier engine. Most calls happen while FileCache still holds its
// cache-wide lock — Add, Reserve and Touch report under lock — except the
// Eviction/OnEvict pair Remove fires after releasing it. Implementations
// must not block appreciably.
type Metrics interface {
	// Admission is called once per segment Add newly admits (always into
	// probationary), with the segment's size in bytes.
	Admission(sizeBytes uint64)
	// Promotion is called when Touch moves a segment from probationary
	// to protected.
	Promotion()
	// Demotion is called once per entry moved from protected back down
	// to probationary, by a promotion's cascade in Touch or by a Reserve
	// plan's migrations.
	Demotion()
	// Eviction is called once per entry evicted to satisfy a Reserve or
	// Add call and once per Remove, with the entry's size in bytes.
	// Entries a promotion's cascade evicts inside Touch are not reported.
	Eviction(sizeBytes uint64)
	// ReservationFailure is called when Reserve or Add could not find
	// enough releasable space and returned ErrCapacityUnavailable.
	ReservationFailure()
	// Sizes reports the current resident bytes and element counts of
	// both tiers, called after every mutating operation.
	Sizes(protectedBytes, protectedElements, probationaryBytes, probationaryElements uint64)
}

// NoopMetrics discards every signal. It is the default when
// Options.Metrics is left nil.
type NoopMetrics struct{}

func (NoopMetrics) Admission(uint64)           {}
func (NoopMetrics) Promotion()                 {}
func (NoopMetrics) Demotion()                  {}
func (NoopMetrics) Eviction(uint64)             {}
func (NoopMetrics) ReservationFailure()        {}
func (NoopMetrics) Sizes(uint64, uint64, uint64, uint64) {}
