package lru

import (
	"github.com/pkg/errors"

	"github.com/IvanBrykalov/segcache/policy"
)

// policyLogicalInvalidHandle is reused across every use-after-remove
// panic site so they all share one wrapped error value.
var policyLogicalInvalidHandle = errors.Wrap(policy.ErrInvalidHandle, "lru: attempt to use an invalid handle")

func panicLimitExceeded(curBytes, addBytes, maxBytes, curElements, maxElements uint64) {
	panic(errors.Wrapf(policy.ErrLogical,
		"lru: add would exceed budget (bytes %d+%d > %d, elements %d+1 > %d)",
		curBytes, addBytes, maxBytes, curElements, maxElements))
}

func panicLogicalNegativeTotal() {
	panic(errors.Wrap(policy.ErrLogical, "lru: running byte total would go negative"))
}
