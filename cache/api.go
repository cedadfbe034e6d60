package cache

import (
	"github.com/pkg/errors"

	"github.com/IvanBrykalov/segcache/policy/slru"
)

// Iterator is the handle a caller holds per resident segment, re-exported
// from policy/slru so callers of this package never need to import it
// directly. See slru.Iterator for the full contract: it survives
// promotion and demotion, and is invalidated by Remove.
type Iterator[K comparable] = slru.Iterator[K]

// ErrCapacityUnavailable is returned by Add and Reserve when the cache
// could not find enough releasable space, distinct from a logic-error
// panic: running out of room is an ordinary outcome, never a bug. It
// wraps no policy error — CollectCandidatesForEviction's "not enough
// space" signal is a plain bool, and this is its cache-boundary form.
var ErrCapacityUnavailable = errors.New("cache: not enough releasable capacity")

// ErrUnknownSegment is returned by Touch and Remove when the given
// key/offset has no resident segment in the registry.
var ErrUnknownSegment = errors.New("cache: unknown segment")
