package policy

import "github.com/pkg/errors"

// ErrLogical is the sentinel every logic error in the engine wraps:
// use of an already-removed Iterator, a running total gone negative, a
// downgrade target already queued for its destination. These indicate a
// programmer bug in the caller or a broken invariant in the engine
// itself, never an ordinary capacity shortfall.
var ErrLogical = errors.New("policy: logical error")

// ErrInvalidHandle is returned (wrapped in ErrLogical) when a method is
// called on an Iterator after Remove or Invalidate.
var ErrInvalidHandle = errors.Wrap(ErrLogical, "policy: use of invalid handle")

// logicalError wraps ErrLogical with context, the way crwen-ckv's
// storage engine annotates its own internal errors with github.com/pkg/errors.
func logicalError(format string, args ...any) error {
	return errors.Wrapf(ErrLogical, format, args...)
}

// panicLogical raises a logic error. Logic errors are programmer bugs:
// the engine panics rather than threading an error return through every
// call site, and a host recovers it at its own API boundary with
// Recover. Ordinary capacity shortfalls never panic — they are plain
// bool returns, per the two-error-kind design in the specification.
func panicLogical(format string, args ...any) {
	panic(logicalError(format, args...))
}

// Recover turns a panic raised by panicLogical into an error assigned to
// *errp, and re-panics anything else (including panics unrelated to this
// package). Callers defer it at the top of a host-level operation:
//
//	func (c *FileCache[K]) Reserve(it *Iterator[K], extraBytes uint64) (err error) {
//	    defer policy.Recover(&err)
//	    tok := c.guard.Lock()
//	    defer tok.Unlock()
//	    ...
//	}
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if err, ok := r.(error); ok && errors.Is(err, ErrLogical) {
		*errp = err
		return
	}
	panic(r)
}
