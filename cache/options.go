package cache

// Options configures a FileCache at construction, in the same shape as
// the teacher's Options[K, V]: zero-value-friendly, with every optional
// field defaulted by New.
type Options[K comparable] struct {
	// MaxBytes and MaxElements are the combined protected+probationary
	// budgets, split between tiers by SizeRatio. Both are required —
	// New panics if either is zero.
	MaxBytes    uint64
	MaxElements uint64

	// SizeRatio is the fraction of MaxBytes/MaxElements reserved for the
	// protected tier. Zero or negative values select the default 0.5, the
	// specification's stated sensible default; values above 1 are clamped
	// to 1.
	SizeRatio float64

	// Metrics receives admission/promotion/demotion/eviction signals.
	// Defaults to NoopMetrics.
	Metrics Metrics

	// OnEvict, if set, is called once per segment removed by Remove,
	// after the cache lock has been released, so it is safe for it to
	// call back into the cache. Intended for a host to release its own
	// storage-layer resources for the segment. Segments evicted to make
	// room in Add or Reserve, or by a promotion in Touch, do not trigger
	// it.
	OnEvict func(key K, offset, size uint64)
}

func (o *Options[K]) setDefaults() {
	if o.SizeRatio <= 0 {
		o.SizeRatio = 0.5
	}
	if o.Metrics == nil {
		o.Metrics = NoopMetrics{}
	}
}
