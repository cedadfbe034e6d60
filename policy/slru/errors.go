package slru

import (
	"github.com/pkg/errors"

	"github.com/IvanBrykalov/segcache/policy"
)

var policyLogicalInvalidIterator = errors.Wrap(policy.ErrInvalidHandle, "slru: attempt to use an invalid iterator")

func panicInvalidIterator() {
	panic(policyLogicalInvalidIterator)
}

func panicAlreadyQueued(tier policy.Tier) {
	panic(errors.Wrapf(policy.ErrLogical, "slru: downgrade target is already resident in %s", tier))
}

func panicLogicalMissingOwner() {
	panic(errors.Wrap(policy.ErrLogical, "slru: collected entry has no owning iterator"))
}
