// Package session holds the authenticated user's token, id and role,
// mirrors it to a pluggable persistent storage, and destroys it when the
// backend reports the session as expired.
package session

import (
	"context"
	"sync"
	"time"
)

// Data is the persisted session payload.
type Data struct {
	Token            string `json:"token"`
	UserID           string `json:"userId"`
	Role             string `json:"role"`
	StaffStationCode string `json:"staffStationCode,omitempty"`
	StaffStationID   string `json:"staffStationId,omitempty"`
}

// Store keeps session state in memory and mirrors writes to Storage.
type Store struct {
	mu        sync.RWMutex
	data      Data
	expiresAt time.Time
	storage   Storage
	onClear   []func()
}

// NewStore returns a store hydrated from storage. A missing persisted
// session is not an error; the store starts empty.
func NewStore(ctx context.Context, storage Storage) (*Store, error) {
	s := &Store{storage: storage}
	if storage == nil {
		return s, nil
	}

	data, err := storage.Load(ctx)
	if err != nil {
		return nil, err
	}
	if data != nil {
		s.data = *data
		if claims, err := parseToken(data.Token); err == nil {
			s.expiresAt = claims.ExpiresAt
		}
	}
	return s, nil
}

// Login stores the issued token, extracting user id and role from its claims.
func (s *Store) Login(ctx context.Context, token string) error {
	claims, err := parseToken(token)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.data.Token = token
	s.data.UserID = claims.UserID
	s.data.Role = claims.Role
	s.expiresAt = claims.ExpiresAt
	data := s.data
	s.mu.Unlock()

	return s.persist(ctx, data)
}

// SetStation caches the staff's assigned station identifiers.
func (s *Store) SetStation(ctx context.Context, code, id string) error {
	s.mu.Lock()
	s.data.StaffStationCode = code
	s.data.StaffStationID = id
	data := s.data
	s.mu.Unlock()

	return s.persist(ctx, data)
}

func (s *Store) persist(ctx context.Context, data Data) error {
	if s.storage == nil {
		return nil
	}
	return s.storage.Save(ctx, data)
}

// Token returns the current bearer token, empty when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Token
}

// UserID returns the authenticated user id.
func (s *Store) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.UserID
}

// Role returns the authenticated user's role.
func (s *Store) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Role
}

// Snapshot returns a copy of the full session payload.
func (s *Store) Snapshot() Data {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// Expired reports whether the stored token carries a passed expiry.
func (s *Store) Expired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data.Token == "" || s.expiresAt.IsZero() {
		return false
	}
	return time.Now().After(s.expiresAt)
}

// OnClear registers a hook invoked after the session is destroyed, for
// callers that need to tear down state alongside the expired login.
func (s *Store) OnClear(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClear = append(s.onClear, fn)
}

// Clear wipes the session from memory and storage, then runs hooks.
// Clearing an already-empty session is a no-op for the hooks, so the
// redundant 401 handling across layers stays quiet.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	wasEmpty := s.data == Data{}
	s.data = Data{}
	s.expiresAt = time.Time{}
	hooks := make([]func(), len(s.onClear))
	copy(hooks, s.onClear)
	s.mu.Unlock()

	var err error
	if s.storage != nil {
		err = s.storage.Clear(ctx)
	}
	if !wasEmpty {
		for _, fn := range hooks {
			fn()
		}
	}
	return err
}
