package auth

import "sync"

// IsAuthorized reports whether role is a member of allowed.
// A nil role means "not loaded yet" or unauthenticated and is never authorized.
func IsAuthorized(role *Role, allowed RoleSet) bool {
	if role == nil {
		return false
	}
	return allowed.Contains(*role)
}

// GuardState is the state of a role-gated view.
type GuardState int

const (
	GuardLoading GuardState = iota
	GuardAuthorized
	GuardUnauthorized
)

func (s GuardState) String() string {
	switch s {
	case GuardAuthorized:
		return "authorized"
	case GuardUnauthorized:
		return "unauthorized"
	default:
		return "loading"
	}
}

// Decision is the outcome of one Resolve call.
// Redirect is non-empty only on the call that moved the guard into GuardUnauthorized.
type Decision struct {
	State    GuardState
	Redirect string
}

// Guard is a role-gated view: Loading until the role resolves, then terminal.
// It is safe for concurrent use.
type Guard struct {
	allowed  RoleSet
	fallback string

	mu    sync.Mutex
	state GuardState
}

// NewGuard creates a guard that admits allowed roles and sends everyone else to fallback.
func NewGuard(allowed RoleSet, fallback string) *Guard {
	if fallback == "" {
		fallback = "/"
	}
	return &Guard{allowed: allowed, fallback: fallback}
}

// State returns the current state.
func (g *Guard) State() GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Resolve is the single transition function. A nil role leaves the guard in
// GuardLoading. The first non-nil role moves it to a terminal state; once
// terminal, further calls return the same state and never a redirect.
func (g *Guard) Resolve(role *Role) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != GuardLoading || role == nil {
		return Decision{State: g.state}
	}

	if IsAuthorized(role, g.allowed) {
		g.state = GuardAuthorized
		return Decision{State: g.state}
	}
	g.state = GuardUnauthorized
	return Decision{State: g.state, Redirect: g.fallback}
}
