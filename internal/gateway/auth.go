package gateway

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"socialgraph/internal/config"
	"socialgraph/internal/identity"
	"socialgraph/internal/session"
)

// SessionHandler exposes the caller's session and sign-out. With dev login
// enabled it also mints sessions for local development.
type SessionHandler struct {
	sessions session.Manager
	cfg      config.SessionConfig
	log      *slog.Logger
}

// NewSessionHandler creates a session handler
func NewSessionHandler(sessions session.Manager, cfg config.SessionConfig, log *slog.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, cfg: cfg, log: log}
}

// Me handles GET /auth/session
func (h *SessionHandler) Me(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Success: false, Error: "no active session", Code: "NOT_AUTHENTICATED"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"principal":  sess.Principal,
		"expires_at": sess.ExpiresAt,
	})
}

// Logout handles DELETE /auth/session
func (h *SessionHandler) Logout(c *gin.Context) {
	if sess, ok := currentSession(c); ok {
		if err := h.sessions.Delete(c.Request.Context(), sess.ID); err != nil {
			h.log.WarnContext(c.Request.Context(), "Failed to delete session", "error", err)
		}
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.CookieName, "", -1, "/", "", h.cfg.Secure, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DevLogin handles POST /auth/dev-login with a principal body.
func (h *SessionHandler) DevLogin(c *gin.Context) {
	var p identity.Principal
	if err := c.ShouldBindJSON(&p); err != nil || p.ExternalID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "external_id is required", Code: "INVALID_INPUT"})
		return
	}

	sess, err := h.sessions.Create(c.Request.Context(), &p, h.cfg.MaxAge)
	if err != nil {
		h.log.ErrorContext(c.Request.Context(), "Failed to create session", "error", err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Success: false, Error: "session store unavailable", Code: "UNAVAILABLE"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.CookieName, sess.ID, int(h.cfg.MaxAge.Seconds()), "/", "", h.cfg.Secure, true)
	c.JSON(http.StatusCreated, gin.H{"success": true, "expires_at": sess.ExpiresAt})
}
