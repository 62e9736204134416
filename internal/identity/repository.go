package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"socialgraph/internal/database"
)

const userColumns = `id, external_id, email, name, handle, avatar_url, bio, created_at`

// Repository is the PostgreSQL Store.
type Repository struct {
	db database.Service
}

// NewRepository creates a new users repository
func NewRepository(db database.Service) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByExternalID(ctx context.Context, externalID string) (*User, error) {
	return r.getOne(ctx, "get user by external id",
		`SELECT `+userColumns+` FROM users WHERE external_id = $1`, externalID)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getOne(ctx, "get user by id",
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *Repository) GetByHandle(ctx context.Context, handle string) (*User, error) {
	return r.getOne(ctx, "get user by handle",
		`SELECT `+userColumns+` FROM users WHERE handle = $1`, handle)
}

func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, database.Wrap("check user exists", err)
	}
	return exists, nil
}

// Insert keys the insert on the external id: a concurrent insert for the same
// principal is reported as (false, nil) rather than an error.
func (r *Repository) Insert(ctx context.Context, u *User) (bool, error) {
	const q = `
		INSERT INTO users (id, external_id, email, name, handle, avatar_url, bio, created_at)
		VALUES (@id, @external_id, @email, @name, @handle, @avatar_url, @bio, @created_at)
		ON CONFLICT (external_id) DO NOTHING
		RETURNING id
	`

	args := pgx.NamedArgs{
		"id":          u.ID,
		"external_id": u.ExternalID,
		"email":       u.Email,
		"name":        u.Name,
		"handle":      u.Handle,
		"avatar_url":  u.AvatarURL,
		"bio":         u.Bio,
		"created_at":  u.CreatedAt,
	}

	var id uuid.UUID
	err := r.db.QueryRow(ctx, q, args).Scan(&id)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return false, nil
	case database.IsUniqueViolation(err, "users_handle_key"):
		return false, ErrHandleTaken
	case err != nil:
		return false, database.Wrap("insert user", err)
	}
	return true, nil
}

// CountPosts returns the number of posts authored by id.
func (r *Repository) CountPosts(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM posts WHERE author_id = $1`, id).Scan(&n); err != nil {
		return 0, database.Wrap("count posts", err)
	}
	return n, nil
}

func (r *Repository) getOne(ctx context.Context, op, q string, arg any) (*User, error) {
	var u User
	err := r.db.QueryRow(ctx, q, arg).Scan(
		&u.ID, &u.ExternalID, &u.Email, &u.Name, &u.Handle, &u.AvatarURL, &u.Bio, &u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, database.Wrap(op, err)
	}
	return &u, nil
}
