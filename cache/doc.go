// Package cache wires policy/slru's segmented-LRU engine into a small,
// usable file-segment cache host: FileCache plays the role of the
// "client" the specification describes — a segment cache manager that
// asks the policy to admit, reserve, touch and evict — while staying
// deliberately thin everywhere the specification marks a concern out of
// scope (the on-disk segment store, the real key/offset metadata
// registry, persistence, distributed coordination).
//
// Design
//
//   - Concurrency: unlike shardcache's sharded design, FileCache holds
//     exactly one policy.Guard — the single process-wide cache lock the
//     specification requires — shared between the priority engine and
//     FileCache's own segment registry. There is no per-shard splitting
//     here; splitting the lock would defeat the transactional protocol
//     this module exists to implement.
//
//   - Registry: FileCache keeps a map from (key, offset) to the
//     *slru.Iterator admitted for it. This stands in for the real
//     key/offset metadata registry, which is an external collaborator
//     per the specification — this map is intentionally minimal, with
//     no persistence and no on-disk backing.
//
//   - Admission: GetOrAdd coalesces concurrent first-time admissions of
//     the same segment with internal/singleflight, the same mechanism
//     shardcache uses for GetOrLoad.
//
//   - Reservation: Reserve executes the two-step eviction-plan protocol
//     the specification's Eviction Plan component describes: collect
//     candidates, evict them, then run the deferred migrations — all
//     under one lock acquisition.
//
//   - Metrics: Options.Metrics receives Admission/Promotion/Demotion/
//     Eviction/ReservationFailure/Sizes signals. NoopMetrics is the
//     default; metrics/prom exports them to Prometheus.
//
//   - Configuration: cache/config.go loads MaxBytes/MaxElements/SizeRatio
//     from a YAML file, for cmd/bench and any other host that prefers a
//     config file over flags.
//
// Basic usage
//
//	c := cache.New[string](cache.Options[string]{MaxBytes: 1 << 30, MaxElements: 100_000})
//	defer c.Close()
//
//	_, err := c.Add("segment-a", 0, 4096, nil)
//	if err != nil { ... }
//	_, err = c.Touch("segment-a", 0)
package cache
