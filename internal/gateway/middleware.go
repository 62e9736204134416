package gateway

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"socialgraph/internal/identity"
	"socialgraph/internal/session"
)

const sessionContextKey = "session"

// SessionMiddleware strips client-supplied identity headers, then loads the
// session named by the cookie and forwards its principal as X-User-*
// headers. Reads continue anonymously without a session; writes get 401.
func SessionMiddleware(sessions session.Manager, cookieName string, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity.SetPrincipalHeaders(c.Request.Header, nil)

		sess, err := loadSession(c, sessions, cookieName)
		switch {
		case err == nil:
			identity.SetPrincipalHeaders(c.Request.Header, &sess.Principal)
			c.Set(sessionContextKey, sess)
			c.Next()
			return
		case errors.Is(err, http.ErrNoCookie), isSessionMiss(err):
			if !errors.Is(err, http.ErrNoCookie) {
				log.WarnContext(c.Request.Context(), "Invalid session",
					"error", err.Error(),
					"request_id", c.GetString("request_id"))
			}
			if isSafeMethod(c.Request.Method) {
				c.Next()
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Success: false,
				Error:   "unauthorized: valid session required",
				Code:    "NOT_AUTHENTICATED",
			})
		default:
			log.ErrorContext(c.Request.Context(), "Session lookup failed",
				"error", err,
				"request_id", c.GetString("request_id"))
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{
				Success: false,
				Error:   "session store unavailable",
				Code:    "UNAVAILABLE",
			})
		}
	}
}

func loadSession(c *gin.Context, sessions session.Manager, cookieName string) (*session.Session, error) {
	sessionID, err := c.Cookie(cookieName)
	if err != nil {
		return nil, http.ErrNoCookie
	}
	return sessions.Get(c.Request.Context(), sessionID)
}

func isSessionMiss(err error) bool {
	return errors.Is(err, session.ErrSessionNotFound) ||
		errors.Is(err, session.ErrSessionExpired) ||
		errors.Is(err, session.ErrInvalidSession)
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// currentSession returns the session loaded by SessionMiddleware.
func currentSession(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*session.Session)
	return sess, ok
}
