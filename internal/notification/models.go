package notification

import (
	"time"

	"github.com/google/uuid"
)

// Type enumerates the events that produce a notification.
type Type string

const (
	TypeFollow  Type = "FOLLOW"
	TypeLike    Type = "LIKE"
	TypeComment Type = "COMMENT"
)

// Valid reports whether t is a known notification type.
func (t Type) Valid() bool {
	switch t {
	case TypeFollow, TypeLike, TypeComment:
		return true
	}
	return false
}

// Event is a qualifying social action addressed to RecipientID.
type Event struct {
	Type        Type
	RecipientID uuid.UUID
	ActorID     uuid.UUID
	PostID      *int64
}

// Notification is a durable record of an event addressed to its recipient.
type Notification struct {
	ID          uuid.UUID `json:"id"`
	Type        Type      `json:"type"`
	RecipientID uuid.UUID `json:"recipient_id"`
	ActorID     uuid.UUID `json:"actor_id"`
	PostID      *int64    `json:"post_id,omitempty"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
	Actor       *Actor    `json:"actor,omitempty"`
}

// Actor is the public profile of the user who caused a notification.
type Actor struct {
	ID        uuid.UUID `json:"id"`
	Handle    string    `json:"handle"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url"`
}

// ListResponse represents a page of notifications
type ListResponse struct {
	Success bool            `json:"success"`
	Data    []*Notification `json:"data"`
	Count   int             `json:"count"`
}

type UnreadCountResponse struct {
	Success bool  `json:"success"`
	Count   int64 `json:"count"`
}

type MarkAllReadResponse struct {
	Success bool  `json:"success"`
	Updated int64 `json:"updated"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
