package identity

import (
	"time"

	"github.com/google/uuid"
)

// Principal is the external identity asserted for the current request by the
// identity provider.
type Principal struct {
	ExternalID string `json:"external_id"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	Username   string `json:"username,omitempty"`
	Email      string `json:"email"`
	AvatarURL  string `json:"avatar_url,omitempty"`
}

// User is the internal account bound to one external principal.
type User struct {
	ID         uuid.UUID `json:"id"`
	ExternalID string    `json:"-"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Handle     string    `json:"handle"`
	AvatarURL  string    `json:"avatar_url"`
	Bio        string    `json:"bio"`
	CreatedAt  time.Time `json:"created_at"`
}

// UserResponse is the standard wrapper for user payloads.
type UserResponse struct {
	Success bool  `json:"success"`
	Data    *User `json:"data,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}
