// Package authstate owns the client's view of who is signed in.
//
// A State is built around a session.Store and exposes immutable Snapshots.
// All mutations go through SetCredentials and Logout, which are serialized
// and publish a complete snapshot in a single swap, so readers never see a
// token without its role or the other way round.
package authstate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/villa-web/internal/claims"
	"github.com/spec-kit/villa-web/internal/domain"
	"github.com/spec-kit/villa-web/internal/events"
	"github.com/spec-kit/villa-web/internal/session"
)

// ErrEmptyCredential is returned by SetCredentials for an empty token.
var ErrEmptyCredential = errors.New("authstate: empty credential")

// Snapshot is one consistent reading of the auth state.
type Snapshot struct {
	Token      string
	Role       domain.Role
	IsLoggedIn bool
}

// Anonymous is the logged-out snapshot.
var Anonymous = Snapshot{}

// SnapshotFor derives the snapshot for token. Tokens that cannot be decoded
// still count as logged in, with no role.
func SnapshotFor(token string) Snapshot {
	if token == "" {
		return Anonymous
	}
	role, _ := claims.Role(token)
	return Snapshot{Token: token, Role: role, IsLoggedIn: true}
}

// Option configures a State.
type Option func(*State)

// WithLogger sets the logger used for degraded-storage warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(s *State) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDispatcher publishes credential changes on d.
func WithDispatcher(d events.Dispatcher) Option {
	return func(s *State) { s.dispatcher = d }
}

// State is the injectable auth state object.
type State struct {
	store      session.Store
	logger     *zap.Logger
	dispatcher events.Dispatcher

	current atomic.Pointer[Snapshot]
	writeMu sync.Mutex
	writes  uint64

	initOnce sync.Once
	ready    chan struct{}
}

// New returns a logged-out State over store. Call Initialize to load the
// persisted credential.
func New(store session.Store, opts ...Option) *State {
	s := &State{
		store:  store,
		logger: zap.NewNop(),
		ready:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	anon := Anonymous
	s.current.Store(&anon)
	return s
}

// Initialize loads the persisted credential. Only the first call does any
// work; later calls return immediately. Storage failures leave the state
// logged out.
func (s *State) Initialize(ctx context.Context) {
	s.initOnce.Do(func() {
		defer close(s.ready)

		s.writeMu.Lock()
		seen := s.writes
		s.writeMu.Unlock()

		token, ok, err := s.store.Load(ctx)
		if err != nil {
			s.logger.Warn("credential storage unavailable; starting logged out", zap.Error(err))
			return
		}
		if !ok {
			return
		}

		snap := SnapshotFor(token)
		if snap.Role == domain.RoleNone {
			s.logger.Debug("stored credential carries no readable role")
		}

		// A login or logout that raced the bootstrap wins over the stored value.
		s.writeMu.Lock()
		if s.writes == seen {
			s.current.Store(&snap)
		}
		s.writeMu.Unlock()
	})
}

// Ready blocks until Initialize has finished or ctx is done.
func (s *State) Ready(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Initialized reports whether Initialize has completed.
func (s *State) Initialized() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

// Snapshot returns the current auth snapshot.
func (s *State) Snapshot() Snapshot {
	return *s.current.Load()
}

// SetCredentials persists token and makes it current. When the store
// rejects the token the previous snapshot stays in place.
func (s *State) SetCredentials(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyCredential
	}

	s.writeMu.Lock()
	if err := s.store.Save(ctx, token); err != nil {
		s.writeMu.Unlock()
		return err
	}
	snap := SnapshotFor(token)
	s.current.Store(&snap)
	s.writes++
	s.writeMu.Unlock()

	s.publish(ctx, events.EventCredentialsSet, snap.Role)
	return nil
}

// Logout forgets the credential. The in-memory snapshot is reset even when
// the store cannot be cleared; that error is returned afterwards.
func (s *State) Logout(ctx context.Context) error {
	s.writeMu.Lock()
	err := s.store.Clear(ctx)
	anon := Anonymous
	s.current.Store(&anon)
	s.writes++
	s.writeMu.Unlock()

	if err != nil {
		s.logger.Warn("failed to clear persisted credential", zap.Error(err))
	}
	s.publish(ctx, events.EventLoggedOut, domain.RoleNone)
	return err
}

func (s *State) publish(ctx context.Context, eventType events.EventType, role domain.Role) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Role:      role,
		Timestamp: time.Now().UTC(),
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("auth event handler failed", zap.String("event", string(eventType)), zap.Error(err))
	}
}
