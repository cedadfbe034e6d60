package cache

import (
	"context"
	"math/rand"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/segcache/policy"
)

// A mixed workload of concurrent Add/Touch/Remove/Reserve on random
// segments. Should pass under -race without detector reports.
func TestRace_Basic(t *testing.T) {
	c := New[string](Options[string]{MaxBytes: 1 << 20, MaxElements: 8192})
	defer c.Close()

	workers := 4 * runtime.GOMAXPROCS(0)
	keyspace := 2000
	deadline := time.Now().Add(2 * time.Second)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)*9973))
			for time.Now().Before(deadline) {
				key := "k:" + strconv.Itoa(r.Intn(keyspace))
				offset := uint64(r.Intn(4)) * 4096
				switch r.Intn(100) {
				case 0, 1, 2, 3, 4: // ~5% -- Remove
					_ = c.Remove(key, offset)
				case 5, 6, 7, 8, 9: // ~5% -- Reserve
					if it, err := c.Add(key, offset, 64, nil); err == nil {
						_ = c.Reserve(it, uint64(r.Intn(64)))
					}
				case 10, 11, 12, 13, 14, 15, 16, 17, 18, 19: // ~10% -- Add
					_, _ = c.Add(key, offset, uint64(64+r.Intn(256)), nil)
				default: // ~80% -- Touch
					_, _ = c.Touch(key, offset)
				}
			}
		}(w)
	}
	wg.Wait()
}

// One hundred goroutines call GetOrAdd on the same segment concurrently.
// The loader should run at most once (singleflight coalescing).
func TestRace_GetOrAdd(t *testing.T) {
	var calls int64

	c := New[string](Options[string]{MaxBytes: 1 << 20, MaxElements: 1024})
	defer c.Close()

	const goroutines = 100
	key := "same-segment"

	start := make(chan struct{})
	var g errgroup.Group

	for i := 0; i < goroutines; i++ {
		g.Go(func() error {
			<-start
			it, err := c.GetOrAdd(context.Background(), key, 0, func() (uint64, policy.Metadata, error) {
				atomic.AddInt64(&calls, 1)
				time.Sleep(2 * time.Millisecond) // simulate I/O
				return 128, nil, nil
			})
			if err != nil {
				return err
			}
			if it.Entry().Size() != 128 {
				return errMismatch
			}
			return nil
		})
	}

	close(start)
	if err := g.Wait(); err != nil {
		t.Fatalf("GetOrAdd error: %v", err)
	}

	if got := atomic.LoadInt64(&calls); got > 1 {
		t.Fatalf("loader should run at most once, got %d", got)
	}

	// Subsequent call should be a pure registry hit.
	it, err := c.GetOrAdd(context.Background(), key, 0, func() (uint64, policy.Metadata, error) {
		t.Fatal("loader must not run again")
		return 0, nil, nil
	})
	if err != nil || it.Entry().Size() != 128 {
		t.Fatalf("second GetOrAdd failed: it=%v err=%v", it, err)
	}
}

var errMismatch = errUnexpectedSize{}

type errUnexpectedSize struct{}

func (errUnexpectedSize) Error() string { return "unexpected segment size" }
