// Package session stores gateway sessions in Redis with TTL-based expiry.
// Sessions are minted by the authentication provider integration and read
// by the gateway on every request.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"socialgraph/internal/identity"
)

var (
	// ErrSessionNotFound is returned when a session is not found
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired is returned when a session has expired
	ErrSessionExpired = errors.New("session expired")
	// ErrInvalidSession is returned when session data is invalid
	ErrInvalidSession = errors.New("invalid session")
)

// Manager defines the interface for session management operations
type Manager interface {
	Create(ctx context.Context, p *identity.Principal, maxAge time.Duration) (*Session, error)
	Get(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
}

const maxInsertAttempts = 3

type manager struct {
	store Store
	now   func() time.Time
}

// NewManager creates a new session manager
func NewManager(store Store) Manager {
	return &manager{store: store, now: time.Now}
}

func key(sessionID string) string {
	return "session:" + sessionID
}

// Create stores a session for p that expires after maxAge.
func (m *manager) Create(ctx context.Context, p *identity.Principal, maxAge time.Duration) (*Session, error) {
	if p == nil || p.ExternalID == "" {
		return nil, identity.ErrNotAuthenticated
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("session max age must be positive")
	}

	now := m.now()
	sess := &Session{
		Principal: *p,
		CreatedAt: now,
		ExpiresAt: now.Add(maxAge),
	}

	for attempt := 0; ; attempt++ {
		sess.ID = uuid.New().String()
		data, err := json.Marshal(sess)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal session: %w", err)
		}

		err = m.store.Insert(ctx, key(sess.ID), data, maxAge)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrKeyExists) || attempt == maxInsertAttempts-1 {
			return nil, fmt.Errorf("failed to store session: %w", err)
		}
	}

	return sess, nil
}

// Get retrieves a live session by ID
func (m *manager) Get(ctx context.Context, sessionID string) (*Session, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, ErrSessionNotFound
	}

	data, err := m.store.Get(ctx, key(sessionID))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil || sess.Principal.ExternalID == "" {
		return nil, ErrInvalidSession
	}

	if m.now().After(sess.ExpiresAt) {
		_ = m.store.Delete(ctx, key(sessionID))
		return nil, ErrSessionExpired
	}

	return &sess, nil
}

// Delete removes a session
func (m *manager) Delete(ctx context.Context, sessionID string) error {
	return m.store.Delete(ctx, key(sessionID))
}
