package follow

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"socialgraph/internal/database"
	"socialgraph/internal/identity"
)

var (
	// ErrInvalidEdge is returned for a self-follow.
	ErrInvalidEdge = errors.New("cannot follow yourself")
	// ErrDuplicateEdge is returned by Create when the edge already exists.
	ErrDuplicateEdge = errors.New("already following")
)

// Repository stores follow edges in PostgreSQL. Every method runs on the
// transaction bound to ctx when there is one.
type Repository struct {
	db database.Service
}

// NewRepository creates a new follow repository
func NewRepository(db database.Service) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Exists(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM follows WHERE follower_id = $1 AND following_id = $2)`

	var ok bool
	if err := r.db.QueryRow(ctx, q, followerID, followingID).Scan(&ok); err != nil {
		return false, database.Wrap("check follow", err)
	}
	return ok, nil
}

// Create inserts the edge. A concurrent insert of the same edge blocks on the
// primary key until the other transaction finishes and is then reported as
// ErrDuplicateEdge.
func (r *Repository) Create(ctx context.Context, followerID, followingID uuid.UUID) error {
	if followerID == followingID {
		return ErrInvalidEdge
	}

	const q = `
		INSERT INTO follows (follower_id, following_id)
		VALUES ($1, $2)
		ON CONFLICT (follower_id, following_id) DO NOTHING
	`

	tag, err := r.db.Exec(ctx, q, followerID, followingID)
	switch {
	case database.IsForeignKeyViolation(err):
		return identity.ErrUserNotFound
	case database.IsCheckViolation(err, "follows_no_self_loop"):
		return ErrInvalidEdge
	case err != nil:
		return database.Wrap("insert follow", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrDuplicateEdge
	}
	return nil
}

// Delete removes the edge and reports whether it existed.
func (r *Repository) Delete(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	const q = `DELETE FROM follows WHERE follower_id = $1 AND following_id = $2`

	tag, err := r.db.Exec(ctx, q, followerID, followingID)
	if err != nil {
		return false, database.Wrap("delete follow", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) Counts(ctx context.Context, userID uuid.UUID) (Counts, error) {
	const q = `
		SELECT
			(SELECT COUNT(*) FROM follows WHERE following_id = $1),
			(SELECT COUNT(*) FROM follows WHERE follower_id = $1)
	`

	var c Counts
	if err := r.db.QueryRow(ctx, q, userID).Scan(&c.Followers, &c.Following); err != nil {
		return Counts{}, database.Wrap("count follows", err)
	}
	return c, nil
}

// CandidatesExcluding returns up to limit random users that are neither
// userID nor already followed by it.
func (r *Repository) CandidatesExcluding(ctx context.Context, userID uuid.UUID, limit int) ([]Candidate, error) {
	const q = `
		SELECT u.id, u.handle, u.name, u.avatar_url,
		       (SELECT COUNT(*) FROM follows f WHERE f.following_id = u.id)
		FROM users u
		WHERE u.id <> $1
		  AND NOT EXISTS (
			SELECT 1 FROM follows f WHERE f.follower_id = $1 AND f.following_id = u.id
		  )
		ORDER BY random()
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, database.Wrap("list candidates", err)
	}
	defer rows.Close()

	out := make([]Candidate, 0, limit)
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.ID, &c.Handle, &c.Name, &c.AvatarURL, &c.Followers); err != nil {
			return nil, database.Wrap("scan candidate", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Wrap("list candidates", err)
	}
	return out, nil
}
