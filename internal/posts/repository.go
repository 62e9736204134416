package posts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"socialgraph/internal/database"
	"socialgraph/internal/identity"
)

var (
	ErrPostNotFound = errors.New("post not found")
)

const selectPosts = `
	SELECT p.post_id, p.author_id, p.content, p.image_url, p.created_at, p.updated_at,
	       u.handle, u.name, u.avatar_url
	FROM posts p
	JOIN users u ON u.id = p.author_id
`

// Repository handles all database operations for posts
type Repository struct {
	db database.Service
}

// NewRepository creates a new posts repository
func NewRepository(db database.Service) *Repository {
	return &Repository{db: db}
}

// Create inserts a new post. An unknown author is reported as
// identity.ErrUserNotFound.
func (r *Repository) Create(ctx context.Context, authorID uuid.UUID, content string, imageURL *string) (*Post, error) {
	const q = `
		INSERT INTO posts (author_id, content, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING post_id, author_id, content, image_url, created_at, updated_at
	`

	post := &Post{}
	err := r.db.QueryRow(ctx, q, authorID, content, imageURL).Scan(
		&post.PostID,
		&post.AuthorID,
		&post.Content,
		&post.ImageURL,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if database.IsForeignKeyViolation(err) {
		return nil, identity.ErrUserNotFound
	}
	if err != nil {
		return nil, database.Wrap("create post", err)
	}

	return post, nil
}

// GetByID retrieves a single post by ID
func (r *Repository) GetByID(ctx context.Context, postID int64) (*Post, error) {
	post, err := scanPost(r.db.QueryRow(ctx, selectPosts+` WHERE p.post_id = $1`, postID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, database.Wrap("get post", err)
	}
	return post, nil
}

// ListByAuthor retrieves an author's posts, newest first
func (r *Repository) ListByAuthor(ctx context.Context, authorID uuid.UUID, page, pageSize int) ([]Post, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM posts WHERE author_id = $1`, authorID).Scan(&total); err != nil {
		return nil, 0, database.Wrap("count author posts", err)
	}

	q := selectPosts + `
		WHERE p.author_id = $1
		ORDER BY p.created_at DESC, p.post_id DESC
		LIMIT $2 OFFSET $3
	`
	posts, err := r.queryPosts(ctx, q, authorID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// Feed returns the viewer's own posts and those of users they follow. An
// anonymous viewer (uuid.Nil) gets every post.
func (r *Repository) Feed(ctx context.Context, viewerID uuid.UUID, page, pageSize int) ([]Post, int64, error) {
	const scope = `
		WHERE $1::uuid = '00000000-0000-0000-0000-000000000000'::uuid
		   OR p.author_id = $1
		   OR EXISTS (SELECT 1 FROM follows f WHERE f.follower_id = $1 AND f.following_id = p.author_id)
	`

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM posts p `+scope, viewerID).Scan(&total); err != nil {
		return nil, 0, database.Wrap("count feed", err)
	}

	q := selectPosts + scope + `
		ORDER BY p.created_at DESC, p.post_id DESC
		LIMIT $2 OFFSET $3
	`
	posts, err := r.queryPosts(ctx, q, viewerID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *Repository) queryPosts(ctx context.Context, q string, args ...any) ([]Post, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, database.Wrap("list posts", err)
	}
	defer rows.Close()

	out := make([]Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, database.Wrap("scan post", err)
		}
		out = append(out, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Wrap("list posts", err)
	}
	return out, nil
}

func scanPost(row pgx.Row) (*Post, error) {
	var (
		p Post
		a Author
	)
	err := row.Scan(
		&p.PostID,
		&p.AuthorID,
		&p.Content,
		&p.ImageURL,
		&p.CreatedAt,
		&p.UpdatedAt,
		&a.Handle,
		&a.Name,
		&a.AvatarURL,
	)
	if err != nil {
		return nil, err
	}
	a.ID = p.AuthorID
	p.Author = &a
	return &p, nil
}
