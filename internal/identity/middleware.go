package identity

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Headers set by the gateway after validating a session. Incoming copies
// from clients are stripped at the gateway.
const (
	HeaderUserID    = "X-User-ID"
	HeaderEmail     = "X-User-Email"
	HeaderFirstName = "X-User-First-Name"
	HeaderLastName  = "X-User-Last-Name"
	HeaderUsername  = "X-User-Username"
	HeaderAvatarURL = "X-User-Avatar-URL"
)

// PrincipalHeaders lists every header carrying principal data.
var PrincipalHeaders = []string{
	HeaderUserID, HeaderEmail, HeaderFirstName, HeaderLastName, HeaderUsername, HeaderAvatarURL,
}

const (
	userContextKey      = "user"
	principalContextKey = "principal"
)

// PrincipalFromHeaders reads the principal asserted by the gateway.
func PrincipalFromHeaders(h http.Header) (*Principal, error) {
	id := strings.TrimSpace(h.Get(HeaderUserID))
	if id == "" {
		return nil, ErrNotAuthenticated
	}
	return &Principal{
		ExternalID: id,
		Email:      h.Get(HeaderEmail),
		FirstName:  h.Get(HeaderFirstName),
		LastName:   h.Get(HeaderLastName),
		Username:   h.Get(HeaderUsername),
		AvatarURL:  h.Get(HeaderAvatarURL),
	}, nil
}

// SetPrincipalHeaders writes p onto h, replacing any existing values.
func SetPrincipalHeaders(h http.Header, p *Principal) {
	for _, k := range PrincipalHeaders {
		h.Del(k)
	}
	if p == nil {
		return
	}
	set := func(k, v string) {
		if v != "" {
			h.Set(k, v)
		}
	}
	set(HeaderUserID, p.ExternalID)
	set(HeaderEmail, p.Email)
	set(HeaderFirstName, p.FirstName)
	set(HeaderLastName, p.LastName)
	set(HeaderUsername, p.Username)
	set(HeaderAvatarURL, p.AvatarURL)
}

// RequireUser resolves the caller into a user, creating it on first sight,
// and aborts with 401 when no principal is present.
func RequireUser(r Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := PrincipalFromHeaders(c.Request.Header)
		if err == nil {
			var u *User
			u, err = r.ResolveOrCreate(c.Request.Context(), p)
			if err == nil {
				c.Set(userContextKey, u)
				c.Next()
				return
			}
		}
		abortWithError(c, err)
	}
}

// OptionalUser resolves the caller when a principal is present. Anonymous
// requests, and principals that cannot be turned into a user, continue
// without one. Only storage failures abort.
func OptionalUser(r Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := PrincipalFromHeaders(c.Request.Header)
		if errors.Is(err, ErrNotAuthenticated) {
			c.Next()
			return
		}
		u, err := r.ResolveOrCreate(c.Request.Context(), p)
		if errors.Is(err, ErrHandleTaken) || errors.Is(err, ErrUserNotFound) {
			slog.WarnContext(c.Request.Context(), "Serving read anonymously, principal not resolvable",
				"external_id", p.ExternalID,
				"error", err)
			c.Next()
			return
		}
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Set(userContextKey, u)
		c.Next()
	}
}

// RequirePrincipal aborts with 401 unless the gateway asserted a principal.
// Unlike RequireUser it never touches the user store.
func RequirePrincipal() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := PrincipalFromHeaders(c.Request.Header)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Set(principalContextKey, p)
		c.Next()
	}
}

// CurrentPrincipal returns the principal stored by RequirePrincipal.
func CurrentPrincipal(c *gin.Context) (*Principal, bool) {
	v, ok := c.Get(principalContextKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*Principal)
	return p, ok && p != nil
}

// CurrentUser returns the user resolved by RequireUser or OptionalUser.
func CurrentUser(c *gin.Context) (*User, bool) {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*User)
	return u, ok && u != nil
}

func abortWithError(c *gin.Context, err error) {
	status, code := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Success: false, Error: msg, Code: code})
}

// StatusFor maps identity errors onto an HTTP status and error code.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return http.StatusUnauthorized, "NOT_AUTHENTICATED"
	case errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, ErrHandleTaken):
		return http.StatusConflict, "HANDLE_TAKEN"
	default:
		return http.StatusInternalServerError, "STORAGE"
	}
}
