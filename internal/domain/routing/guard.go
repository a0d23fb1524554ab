package routing

import (
	"github.com/kedaara/performance-hub/internal/domain/auth"
	"github.com/kedaara/performance-hub/internal/domain/nav"
)

// State is the authorization state of one navigation.
type State int

const (
	Unauthenticated State = iota
	Authorized
	Unauthorized
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authorized:
		return "authorized"
	case Unauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Outcome is what the shell does with a navigation.
type Outcome int

const (
	Render Outcome = iota
	RedirectLogin
	RedirectDefault
)

func (o Outcome) String() string {
	switch o {
	case Render:
		return "render"
	case RedirectLogin:
		return "redirect_login"
	case RedirectDefault:
		return "redirect_default"
	default:
		return "unknown"
	}
}

// Decision is the guard's verdict for a Principal and a Descriptor.
type Decision struct {
	State   State
	Outcome Outcome
	// Target is the redirect location; empty when Outcome is Render.
	Target string

	path string
	role auth.Role
}

// Redirect reports whether the decision sends the user elsewhere.
func (d Decision) Redirect() bool { return d.Outcome != Render }

// Err describes an unauthorized navigation for logging. Nil otherwise.
func (d Decision) Err() error {
	if d.State != Unauthorized {
		return nil
	}
	return &auth.UnauthorizedNavigationError{Path: d.path, Role: d.role}
}

// Decide evaluates access to d for p. p is nil when nobody is signed in.
// It holds no state and is evaluated afresh on every request.
func Decide(p *auth.Principal, d Descriptor) Decision {
	if d.Access == Public {
		st := Unauthenticated
		if p != nil {
			st = Authorized
		}
		return Decision{State: st, Outcome: Render, path: d.Path}
	}
	if p == nil {
		return Decision{State: Unauthenticated, Outcome: RedirectLogin, Target: PathLogin, path: d.Path}
	}
	if !d.Allows(p.Role) {
		target, ok := nav.DefaultPath(p.Role)
		if !ok {
			target = PathLogin
		}
		return Decision{
			State:   Unauthorized,
			Outcome: RedirectDefault,
			Target:  target,
			path:    d.Path,
			role:    p.Role,
		}
	}
	return Decision{State: Authorized, Outcome: Render, path: d.Path, role: p.Role}
}
