package follow

import (
	"time"

	"github.com/google/uuid"

	"socialgraph/internal/identity"
)

// Edge is a directed follow relationship.
type Edge struct {
	FollowerID  uuid.UUID `json:"follower_id"`
	FollowingID uuid.UUID `json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Counts are derived from the edge set on every read.
type Counts struct {
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
}

// Transition reports what a toggle did to the edge.
type Transition string

const (
	Followed   Transition = "followed"
	Unfollowed Transition = "unfollowed"
	// Unchanged means a concurrent toggle had already reached the target state.
	Unchanged Transition = "unchanged"
)

// ToggleResult is the outcome of a toggle.
type ToggleResult struct {
	Following      bool       `json:"following"`
	Transition     Transition `json:"transition"`
	NotificationID *uuid.UUID `json:"notification_id,omitempty"`
}

// Candidate is a user suggested for discovery.
type Candidate struct {
	ID        uuid.UUID `json:"id"`
	Handle    string    `json:"handle"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url"`
	Followers int64     `json:"followers"`
}

// Profile is the public view of a user as seen by a viewer.
type Profile struct {
	User        *identity.User `json:"user"`
	Counts      Counts         `json:"counts"`
	Posts       int64          `json:"posts"`
	IsFollowing bool           `json:"is_following"`
	IsSelf      bool           `json:"is_self"`
}

type ToggleResponse struct {
	Success bool `json:"success"`
	ToggleResult
}

type StatusResponse struct {
	Success   bool      `json:"success"`
	UserID    uuid.UUID `json:"user_id"`
	Following bool      `json:"following"`
}

type CountsResponse struct {
	Success bool      `json:"success"`
	UserID  uuid.UUID `json:"user_id"`
	Counts
}

type ProfileResponse struct {
	Success bool     `json:"success"`
	Data    *Profile `json:"data"`
}

type SuggestionsResponse struct {
	Success bool        `json:"success"`
	Data    []Candidate `json:"data"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}
