// Package identity maps external principals to internal users, creating the
// user on first sight.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotAuthenticated is returned when no external principal is present.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrUserNotFound is returned when a referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrHandleTaken is returned when the derived handle belongs to another principal.
	ErrHandleTaken = errors.New("handle already taken")
)

// Resolver resolves principals and looks users up.
type Resolver interface {
	ResolveOrCreate(ctx context.Context, p *Principal) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByHandle(ctx context.Context, handle string) (*User, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Store is the persistence used by the resolver.
type Store interface {
	GetByExternalID(ctx context.Context, externalID string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByHandle(ctx context.Context, handle string) (*User, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// Insert stores u and reports false when a user with the same external
	// id already exists.
	Insert(ctx context.Context, u *User) (bool, error)
}

type resolver struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

// NewResolver creates a resolver backed by store.
func NewResolver(store Store, log *slog.Logger) Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &resolver{store: store, log: log, now: time.Now}
}

func (r *resolver) ResolveOrCreate(ctx context.Context, p *Principal) (*User, error) {
	if p == nil || strings.TrimSpace(p.ExternalID) == "" {
		return nil, ErrNotAuthenticated
	}

	u, err := r.store.GetByExternalID(ctx, p.ExternalID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("lookup principal: %w", err)
	}

	u = &User{
		ID:         uuid.New(),
		ExternalID: p.ExternalID,
		Email:      strings.TrimSpace(p.Email),
		Name:       DisplayName(p),
		Handle:     DeriveHandle(p),
		AvatarURL:  p.AvatarURL,
		CreatedAt:  r.now().UTC(),
	}

	inserted, err := r.store.Insert(ctx, u)
	if errors.Is(err, ErrHandleTaken) {
		// A concurrent insert for the same principal can surface on the
		// handle constraint before the external id one.
		if existing, lookupErr := r.store.GetByExternalID(ctx, p.ExternalID); lookupErr == nil {
			return existing, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if !inserted {
		// Lost a first-sight race for the same principal.
		return r.store.GetByExternalID(ctx, p.ExternalID)
	}

	r.log.InfoContext(ctx, "User created on first sight",
		"user_id", u.ID,
		"handle", u.Handle)

	return u, nil
}

func (r *resolver) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.store.GetByID(ctx, id)
}

func (r *resolver) GetByHandle(ctx context.Context, handle string) (*User, error) {
	return r.store.GetByHandle(ctx, strings.ToLower(strings.TrimSpace(handle)))
}

func (r *resolver) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.store.Exists(ctx, id)
}

// DeriveHandle prefers the supplied username, then the local part of the
// email, then a prefix of the external id.
func DeriveHandle(p *Principal) string {
	if h := normalizeHandle(p.Username); h != "" {
		return h
	}
	if local, _, ok := strings.Cut(strings.TrimSpace(p.Email), "@"); ok {
		if h := normalizeHandle(local); h != "" {
			return h
		}
	}
	id := normalizeHandle(p.ExternalID)
	if len(id) > 12 {
		id = id[:12]
	}
	return "user_" + id
}

// DisplayName joins first and last name.
func DisplayName(p *Principal) string {
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}

func normalizeHandle(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
