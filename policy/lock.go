package policy

import "sync"

// Guard is the single process-wide cache lock the specification requires
// every stateful method to be called under. A host (the cache package)
// owns exactly one Guard and shares it between the priority engine and
// whatever other state — a key/offset registry, reserve-stat counters —
// it keeps alongside it, the same way ClickHouse threads one
// CacheGuard::Lock through every FileCachePriority call.
//
// Guard itself holds no policy state; it exists only to mint LockToken
// values, so every stateful method signature carries proof, at compile
// time, that its caller is expected to be holding the lock.
type Guard struct {
	mu sync.Mutex
}

// NewGuard constructs an unlocked Guard.
func NewGuard() *Guard { return &Guard{} }

// Lock acquires the guard and returns a witness token. The token must be
// released exactly once via Unlock.
func (g *Guard) Lock() LockToken {
	g.mu.Lock()
	return LockToken{g: g}
}

// LockToken is the lock-witness token threaded through every stateful
// method of policy/lru and policy/slru. It is a marker, not a capability:
// it is never used to re-derive the guard and re-lock it, only to make
// "this method must be called under the cache lock" checkable — methods
// that receive a zero LockToken (one not obtained from a Guard.Lock call)
// raise a logic error instead of silently running unsynchronized.
type LockToken struct {
	g *Guard
}

// Unlock releases the guard that minted this token.
func (t LockToken) Unlock() {
	t.g.mu.Unlock()
}

// valid reports whether t was obtained from some Guard's Lock call.
func (t LockToken) valid() bool { return t.g != nil }

// checkToken panics with a logic error if tok was not obtained from g's
// own Lock call. Every Queue method that takes a token calls this first;
// Policy's methods reach it through the Queue calls they make
// (CollectCandidatesForEviction with size 0 returns before making any).
// It is the "lock-witness token... to make this discipline checkable"
// the specification asks for.
func checkToken(g *Guard, tok LockToken) {
	if !tok.valid() {
		panicLogical("policy: method called without a lock-witness token")
	}
	if g != nil && tok.g != g {
		panicLogical("policy: lock-witness token does not match this instance's guard")
	}
}

// CheckToken is the exported form of checkToken, for policy/lru and
// policy/slru, which live in sibling packages but need the same check.
func CheckToken(g *Guard, tok LockToken) { checkToken(g, tok) }
