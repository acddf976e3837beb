// Package guard decides, before a page is shown, whether the current auth
// snapshot may see it or must be sent elsewhere.
//
// Routes form a tree. Every node carries an access requirement and an
// ordered list of predicates; a navigation runs the predicates of each
// node on the matched chain from the root down and stops at the first
// redirect. Evaluation is a pure function of the snapshot and the path.
package guard

import (
	"github.com/spec-kit/villa-web/internal/authstate"
	"github.com/spec-kit/villa-web/internal/domain"
)

// Well-known page paths.
const (
	PathHome        = "/"
	PathBrowse      = "/browse"
	PathLogin       = "/login"
	PathProfile     = "/profile"
	PathAdmin       = "/admin"
	PathVillaNew    = "/admin/villas-management/new"
	PathVillaDetail = "/admin/villas-management/:id"
)

// Decision is the result of evaluating a route. The zero value allows.
type Decision struct {
	Redirect string
}

// Allow lets the navigation through.
func Allow() Decision { return Decision{} }

// RedirectTo aborts the navigation in favour of path.
func RedirectTo(path string) Decision { return Decision{Redirect: path} }

// Allowed reports whether the decision lets the navigation through.
func (d Decision) Allowed() bool { return d.Redirect == "" }

func (d Decision) String() string {
	if d.Allowed() {
		return "allow"
	}
	return "redirect:" + d.Redirect
}

// Predicate is one pre-navigation check.
type Predicate func(authstate.Snapshot) Decision

// Requirement is the access level a route node demands.
type Requirement int

const (
	// RequireNone leaves the node public.
	RequireNone Requirement = iota
	// RequireAny demands a credential of any role.
	RequireAny
	RequireUser
	RequireAdmin
)

func (r Requirement) String() string {
	switch r {
	case RequireAny:
		return "any"
	case RequireUser:
		return "user"
	case RequireAdmin:
		return "admin"
	default:
		return "none"
	}
}

// LandingFor returns the page a snapshot with role belongs on.
func LandingFor(role domain.Role) string {
	switch role {
	case domain.RoleAdmin:
		return PathAdmin
	case domain.RoleUser:
		return PathHome
	default:
		return PathBrowse
	}
}

// predicate turns the requirement into the check run ahead of the node's
// own predicates.
func (r Requirement) predicate() Predicate {
	return func(snap authstate.Snapshot) Decision {
		if r == RequireNone {
			return Allow()
		}
		if !snap.IsLoggedIn {
			return RedirectTo(PathLogin)
		}
		switch r {
		case RequireUser:
			if snap.Role != domain.RoleUser {
				return RedirectTo(LandingFor(snap.Role))
			}
		case RequireAdmin:
			if snap.Role != domain.RoleAdmin {
				return RedirectTo(LandingFor(snap.Role))
			}
		}
		return Allow()
	}
}

// RedirectAuthenticated sends signed-in users and admins to their landing
// page. Credentials without a known role may stay, so they can sign in again.
func RedirectAuthenticated() Predicate {
	return func(snap authstate.Snapshot) Decision {
		if snap.IsLoggedIn && snap.Role.IsKnown() {
			return RedirectTo(LandingFor(snap.Role))
		}
		return Allow()
	}
}

// ExcludeRole redirects snapshots holding role to path.
func ExcludeRole(role domain.Role, path string) Predicate {
	return func(snap authstate.Snapshot) Decision {
		if snap.IsLoggedIn && snap.Role == role {
			return RedirectTo(path)
		}
		return Allow()
	}
}
