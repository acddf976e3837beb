// Package session persists the raw credential under a single key. An
// absent key means logged out.
package session

import (
	"context"
	"errors"
	"sync"
)

// ErrUnavailable wraps failures of the underlying storage medium.
var ErrUnavailable = errors.New("session: storage unavailable")

// Store holds at most one credential.
type Store interface {
	// Load returns the stored credential; ok is false when none is stored.
	Load(ctx context.Context) (token string, ok bool, err error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps the credential in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	token string
	set   bool
}

// NewMemoryStore returns an empty store, optionally seeded with a credential.
func NewMemoryStore(seed ...string) *MemoryStore {
	s := &MemoryStore{}
	if len(seed) > 0 && seed[0] != "" {
		s.token, s.set = seed[0], true
	}
	return s
}

func (s *MemoryStore) Load(_ context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.set, nil
}

func (s *MemoryStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.set = token, token != ""
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.set = "", false
	return nil
}
