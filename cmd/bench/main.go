// Command bench runs a synthetic segment-admission workload against a
// FileCache, serves Prometheus metrics, and optionally exposes pprof.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/IvanBrykalov/segcache/cache"
	pmet "github.com/IvanBrykalov/segcache/metrics/prom"
)

func main() {
	// ---- Flags ----
	var (
		configPath = flag.String("config", "", "YAML config file (overrides -cap/-elements/-ratio if set)")
		capBytes   = flag.Uint64("cap", 512<<20, "cache byte budget")
		elements   = flag.Uint64("elements", 200_000, "cache element budget")
		sizeRatio  = flag.Float64("ratio", 0.5, "protected-tier size ratio [0,1]")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")
		touchPct = flag.Int("touches", 80, "touch (re-access) percentage [0..100]")

		keys       = flag.Int("keys", 1_000_000, "keyspace size")
		segSize    = flag.Uint64("seg_size", 64<<10, "synthetic segment size in bytes")
		zipfS      = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV      = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "random seed")
		preload    = flag.Int("preload", 0, "preload segments (0 = elements/2)")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	metrics := pmet.New(nil, "segcache", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *metricsAddr)
		log.Println(http.ListenAndServe(*metricsAddr, nil))
	}()

	// ---- Build cache ----
	opts := cache.Options[string]{
		MaxBytes:    *capBytes,
		MaxElements: *elements,
		SizeRatio:   *sizeRatio,
		Metrics:     metrics,
	}
	if *configPath != "" {
		cfg, err := cache.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("loading config %q: %v", *configPath, err)
		}
		opts = cache.OptionsFromConfig[string](cfg)
		opts.Metrics = metrics
	}
	c := cache.New[string](opts)
	defer func() { _ = c.Close() }()

	// ---- Preload half capacity to get a realistic promotion rate ----
	pl := *preload
	if pl == 0 {
		pl = int(*elements) / 2
	}
	for i := 0; i < pl; i++ {
		k := "seg:" + strconv.Itoa(i)
		if _, err := c.Add(k, 0, *segSize, nil); err != nil {
			break // capacity exhausted during preload is expected near the limit
		}
	}

	// ---- Snapshot flags for goroutines ----
	touchPctVal := *touchPct
	keysMax := uint64(*keys - 1)
	seedBase := *seed
	zipfSVal := *zipfS
	zipfVVal := *zipfV
	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}

	// ---- Load generation ----
	var admits, touches, promotions, misses, total uint64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(workersN)
	for w := 0; w < workersN; w++ {
		go func(id int) {
			defer wg.Done()

			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			localR := rand.New(rand.NewSource(seedBase + int64(id)*9973))
			localZipf := rand.NewZipf(localR, zipfSVal, zipfVVal, keysMax)

			keyByZipf := func() string {
				return "seg:" + strconv.FormatUint(localZipf.Uint64(), 10)
			}

			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				atomic.AddUint64(&total, 1)
				k := keyByZipf()
				if int(localR.Int31n(100)) < touchPctVal {
					atomic.AddUint64(&touches, 1)
					hitsBefore, err := c.Touch(k, 0)
					if err == cache.ErrUnknownSegment {
						atomic.AddUint64(&misses, 1)
						if _, aerr := c.Add(k, 0, *segSize, nil); aerr == nil {
							atomic.AddUint64(&admits, 1)
						}
						continue
					}
					if hitsBefore > 1 {
						atomic.AddUint64(&promotions, 1)
					}
				} else {
					if _, err := c.Add(k, 0, *segSize, nil); err == nil {
						atomic.AddUint64(&admits, 1)
					}
				}
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	// ---- Report ----
	ops := atomic.LoadUint64(&total)
	touchesN := atomic.LoadUint64(&touches)
	admitsN := atomic.LoadUint64(&admits)
	missesN := atomic.LoadUint64(&misses)

	fmt.Printf("cap=%d elements=%d ratio=%.2f workers=%d keys=%d dur=%v seed=%d\n",
		*capBytes, *elements, *sizeRatio, workersN, *keys, elapsed, seedBase)
	fmt.Printf("ops=%d (%.0f ops/s)  touches=%d  admits=%d  misses=%d\n",
		ops, float64(ops)/elapsed.Seconds(), touchesN, admitsN, missesN)
	fmt.Printf("Size()=%d  Count()=%d\n", c.Size(), c.Count())
}
