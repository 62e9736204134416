package session

import (
	"time"

	"socialgraph/internal/identity"
)

// Session binds an opaque cookie value to the principal asserted by the
// authentication provider at sign-in.
type Session struct {
	ID        string             `json:"id"`
	Principal identity.Principal `json:"principal"`
	CreatedAt time.Time          `json:"created_at"`
	ExpiresAt time.Time          `json:"expires_at"`
}
