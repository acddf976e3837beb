package guard

import (
	"strings"

	"github.com/spec-kit/villa-web/internal/authstate"
	"github.com/spec-kit/villa-web/internal/domain"
)

// Route is one node of the route tree. Layout nodes may have no path.
type Route struct {
	ID          string
	Path        string
	Requirement Requirement
	Guards      []Predicate

	parent   *Route
	children []*Route
}

// NewRoute builds a node. path is absolute and may contain :param segments.
func NewRoute(id, path string, req Requirement, guards ...Predicate) *Route {
	return &Route{ID: id, Path: path, Requirement: req, Guards: guards}
}

// AddChildren attaches children and returns r for chaining.
func (r *Route) AddChildren(children ...*Route) *Route {
	for _, child := range children {
		child.parent = r
		r.children = append(r.children, child)
	}
	return r
}

// Chain returns the ancestors of r followed by r, root first.
func (r *Route) Chain() []*Route {
	var chain []*Route
	for node := r; node != nil; node = node.parent {
		chain = append(chain, node)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

func (r *Route) evaluate(snap authstate.Snapshot) Decision {
	if d := r.Requirement.predicate()(snap); !d.Allowed() {
		return d
	}
	for _, guard := range r.Guards {
		if d := guard(snap); !d.Allowed() {
			return d
		}
	}
	return Allow()
}

// Match is the result of resolving a path against the tree.
type Match struct {
	Route  *Route
	Chain  []*Route
	Params map[string]string
}

// Tree resolves paths to route chains and evaluates them.
type Tree struct {
	root *Route
}

// NewTree wraps root.
func NewTree(root *Route) *Tree {
	return &Tree{root: root}
}

// DefaultTree returns the villa front end's route tree.
func DefaultTree() *Tree {
	root := NewRoute("root", "", RequireNone)

	browse := NewRoute("browse", PathBrowse, RequireNone, ExcludeRole(domain.RoleAdmin, PathHome))
	login := NewRoute("login", PathLogin, RequireNone, RedirectAuthenticated())

	userLayout := NewRoute("user-layout", "", RequireUser).AddChildren(
		NewRoute("home", PathHome, RequireNone),
		NewRoute("profile", PathProfile, RequireNone),
	)

	adminLayout := NewRoute("admin-layout", PathAdmin, RequireAdmin).AddChildren(
		NewRoute("admin-dashboard", PathAdmin, RequireNone),
		NewRoute("villa-new", PathVillaNew, RequireNone),
		NewRoute("villa-detail", PathVillaDetail, RequireNone),
	)

	root.AddChildren(browse, login, userLayout, adminLayout)
	return NewTree(root)
}

// Match resolves path to the deepest matching node.
func (t *Tree) Match(path string) (Match, bool) {
	segments := splitPath(NormalizePath(path))
	route, params := match(t.root, segments)
	if route == nil {
		return Match{}, false
	}
	return Match{Route: route, Chain: route.Chain(), Params: params}, true
}

// Evaluate decides whether snap may navigate to path. Paths that match no
// route are allowed; rendering a not-found page is the caller's job.
func (t *Tree) Evaluate(snap authstate.Snapshot, path string) Decision {
	m, ok := t.Match(path)
	if !ok {
		return Allow()
	}
	return EvaluateChain(snap, m.Chain)
}

// EvaluateChain runs each node's checks root first and returns the first
// redirect.
func EvaluateChain(snap authstate.Snapshot, chain []*Route) Decision {
	for _, node := range chain {
		if d := node.evaluate(snap); !d.Allowed() {
			return d
		}
	}
	return Allow()
}

// Walk visits every node depth first.
func (t *Tree) Walk(fn func(*Route)) {
	var walk func(*Route)
	walk = func(r *Route) {
		fn(r)
		for _, child := range r.children {
			walk(child)
		}
	}
	walk(t.root)
}

func match(node *Route, segments []string) (*Route, map[string]string) {
	for _, child := range node.children {
		if found, params := match(child, segments); found != nil {
			return found, params
		}
	}
	if node.Path == "" {
		return nil, nil
	}
	if params, ok := matchPattern(node.Path, segments); ok {
		return node, params
	}
	return nil, nil
}

func matchPattern(pattern string, segments []string) (map[string]string, bool) {
	parts := splitPath(pattern)
	if len(parts) != len(segments) {
		return nil, false
	}
	params := map[string]string{}
	for i, part := range parts {
		if strings.HasPrefix(part, ":") {
			if segments[i] == "" {
				return nil, false
			}
			params[part[1:]] = segments[i]
			continue
		}
		if !strings.EqualFold(part, segments[i]) {
			return nil, false
		}
	}
	return params, true
}

// NormalizePath strips query and fragment, ensures a leading slash and
// drops trailing slashes.
func NormalizePath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	for len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
