package guard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/villa-web/internal/authstate"
	"github.com/spec-kit/villa-web/internal/events"
)

// DefaultMaxRedirects bounds how many redirects one navigation may follow.
const DefaultMaxRedirects = 8

var (
	// ErrSuperseded is returned when a newer navigation started before this
	// one settled.
	ErrSuperseded = errors.New("guard: navigation superseded")
	// ErrRedirectLoop is returned when redirects do not settle.
	ErrRedirectLoop = errors.New("guard: redirect loop")
)

// Outcome describes a settled navigation.
type Outcome struct {
	Requested string
	Final     string
	Redirects []string
	Match     Match
	Matched   bool
}

// Redirected reports whether the navigation ended somewhere else.
func (o Outcome) Redirected() bool { return len(o.Redirects) > 0 }

// NavigatorOption configures a Navigator.
type NavigatorOption func(*Navigator)

// WithMaxRedirects overrides DefaultMaxRedirects. Values below one are ignored.
func WithMaxRedirects(n int) NavigatorOption {
	return func(nav *Navigator) {
		if n > 0 {
			nav.maxRedirects = n
		}
	}
}

// WithNavigatorLogger sets the logger.
func WithNavigatorLogger(logger *zap.Logger) NavigatorOption {
	return func(nav *Navigator) {
		if logger != nil {
			nav.logger = logger
		}
	}
}

// WithNavigatorDispatcher publishes an EventRedirected for every redirect
// of a navigation that settles.
func WithNavigatorDispatcher(d events.Dispatcher) NavigatorOption {
	return func(nav *Navigator) { nav.dispatcher = d }
}

// Navigator drives navigations through a Tree for one auth State. The last
// navigation started wins.
type Navigator struct {
	tree         *Tree
	state        *authstate.State
	maxRedirects int
	logger       *zap.Logger
	dispatcher   events.Dispatcher

	seq     atomic.Uint64
	mu      sync.Mutex
	current string
}

// NewNavigator returns a Navigator positioned nowhere.
func NewNavigator(tree *Tree, state *authstate.State, opts ...NavigatorOption) *Navigator {
	nav := &Navigator{
		tree:         tree,
		state:        state,
		maxRedirects: DefaultMaxRedirects,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(nav)
	}
	return nav
}

// Current returns the path of the last settled navigation.
func (n *Navigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Navigate waits for the auth state to finish bootstrapping, then evaluates
// path and follows redirects until a page allows the navigation.
func (n *Navigator) Navigate(ctx context.Context, path string) (Outcome, error) {
	id := n.seq.Add(1)
	out := Outcome{Requested: path}

	if err := n.state.Ready(ctx); err != nil {
		return out, err
	}

	target := NormalizePath(path)
	visited := map[string]bool{}
	for {
		if n.seq.Load() != id {
			return out, ErrSuperseded
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}

		snap := n.state.Snapshot()
		decision := n.tree.Evaluate(snap, target)
		if decision.Allowed() {
			break
		}

		visited[target] = true
		next := NormalizePath(decision.Redirect)
		out.Redirects = append(out.Redirects, next)
		if visited[next] || len(out.Redirects) > n.maxRedirects {
			n.logger.Error("navigation did not settle",
				zap.String("requested", path),
				zap.Strings("redirects", out.Redirects),
				zap.String("role", snap.Role.String()),
			)
			return out, fmt.Errorf("%w: %s via %v", ErrRedirectLoop, path, out.Redirects)
		}
		target = next
	}

	n.mu.Lock()
	if n.seq.Load() != id {
		n.mu.Unlock()
		return out, ErrSuperseded
	}
	n.current = target
	n.mu.Unlock()

	out.Final = target
	out.Match, out.Matched = n.tree.Match(target)
	n.publishRedirects(ctx, out)
	return out, nil
}

func (n *Navigator) publishRedirects(ctx context.Context, out Outcome) {
	if n.dispatcher == nil {
		return
	}
	role := n.state.Snapshot().Role
	from := NormalizePath(out.Requested)
	for _, to := range out.Redirects {
		event := events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventRedirected,
			Role:      role,
			Timestamp: time.Now().UTC(),
			Payload:   events.RedirectedPayload{From: from, To: to},
		}
		if err := n.dispatcher.Publish(ctx, event); err != nil {
			n.logger.Warn("redirect event handler failed", zap.Error(err))
		}
		from = to
	}
}
