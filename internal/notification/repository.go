// Package notification records notifications as side effects of social
// events and serves them back to their recipients.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"socialgraph/internal/database"
	"socialgraph/internal/identity"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

var (
	ErrInvalidType = errors.New("invalid notification type")
	ErrNotFound    = errors.New("notification not found")
)

// Emitter appends notifications. Emit runs on the transaction bound to ctx
// when there is one, so a failure aborts the enclosing unit of work.
type Emitter interface {
	Emit(ctx context.Context, ev Event) (*Notification, error)
}

// Reader serves notifications to their recipient.
type Reader interface {
	List(ctx context.Context, recipientID uuid.UUID, limit int) ([]*Notification, error)
	UnreadCount(ctx context.Context, recipientID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, recipientID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error)
}

// Repository implements Emitter and Reader on PostgreSQL.
type Repository struct {
	db  database.Service
	log *slog.Logger
	now func() time.Time
}

func NewRepository(db database.Service, log *slog.Logger) *Repository {
	if log == nil {
		log = slog.Default()
	}
	return &Repository{db: db, log: log, now: time.Now}
}

func (r *Repository) Emit(ctx context.Context, ev Event) (*Notification, error) {
	if !ev.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, ev.Type)
	}

	n := &Notification{
		ID:          uuid.New(),
		Type:        ev.Type,
		RecipientID: ev.RecipientID,
		ActorID:     ev.ActorID,
		PostID:      ev.PostID,
		CreatedAt:   r.now().UTC(),
	}

	const q = `
		INSERT INTO notifications (id, type, recipient_id, actor_id, post_id, read, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6)
	`

	_, err := r.db.Exec(ctx, q, n.ID, string(n.Type), n.RecipientID, n.ActorID, n.PostID, n.CreatedAt)
	if database.IsForeignKeyViolation(err) {
		return nil, identity.ErrUserNotFound
	}
	if err != nil {
		return nil, database.Wrap("insert notification", err)
	}

	r.log.DebugContext(ctx, "Notification emitted",
		"notification_id", n.ID,
		"type", n.Type,
		"recipient_id", n.RecipientID,
		"actor_id", n.ActorID)

	return n, nil
}

func (r *Repository) List(ctx context.Context, recipientID uuid.UUID, limit int) ([]*Notification, error) {
	const q = `
		SELECT n.id, n.type, n.recipient_id, n.actor_id, n.post_id, n.read, n.created_at,
		       u.handle, u.name, u.avatar_url
		FROM notifications n
		JOIN users u ON u.id = n.actor_id
		WHERE n.recipient_id = $1
		ORDER BY n.created_at DESC, n.id
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, q, recipientID, clampLimit(limit))
	if err != nil {
		return nil, database.Wrap("list notifications", err)
	}
	defer rows.Close()

	out := make([]*Notification, 0)
	for rows.Next() {
		var (
			n   Notification
			a   Actor
			typ string
		)
		if err := rows.Scan(&n.ID, &typ, &n.RecipientID, &n.ActorID, &n.PostID, &n.Read, &n.CreatedAt,
			&a.Handle, &a.Name, &a.AvatarURL); err != nil {
			return nil, database.Wrap("scan notification", err)
		}
		n.Type = Type(typ)
		a.ID = n.ActorID
		n.Actor = &a
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Wrap("list notifications", err)
	}
	return out, nil
}

func (r *Repository) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND NOT read`, recipientID).Scan(&n)
	if err != nil {
		return 0, database.Wrap("count unread notifications", err)
	}
	return n, nil
}

// MarkRead marks one notification read. Notifications owned by other users
// are reported as not found.
func (r *Repository) MarkRead(ctx context.Context, recipientID, id uuid.UUID) error {
	var got uuid.UUID
	err := r.db.QueryRow(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND recipient_id = $2 RETURNING id`,
		id, recipientID).Scan(&got)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return database.Wrap("mark notification read", err)
	}
	return nil
}

func (r *Repository) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE recipient_id = $1 AND NOT read`, recipientID)
	if err != nil {
		return 0, database.Wrap("mark all notifications read", err)
	}
	return tag.RowsAffected(), nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
