package follow

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"socialgraph/internal/database"
	"socialgraph/internal/identity"
)

// PostCounter counts a user's posts for profile views.
type PostCounter interface {
	CountPosts(ctx context.Context, userID uuid.UUID) (int64, error)
}

type Handler struct {
	svc   Service
	users identity.Resolver
	posts PostCounter
}

func NewHandler(svc Service, users identity.Resolver, posts PostCounter) *Handler {
	return &Handler{svc: svc, users: users, posts: posts}
}

// Toggle handles POST /follows/:user_id/toggle
func (h *Handler) Toggle(c *gin.Context) {
	me, _ := identity.CurrentUser(c)

	target, ok := parseUserID(c)
	if !ok {
		return
	}

	res, err := h.svc.Toggle(c.Request.Context(), me.ID, target)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ToggleResponse{Success: true, ToggleResult: *res})
}

// Status handles GET /follows/:user_id/status. Anonymous callers follow nobody.
func (h *Handler) Status(c *gin.Context) {
	target, ok := parseUserID(c)
	if !ok {
		return
	}

	following := false
	if me, ok := identity.CurrentUser(c); ok {
		var err error
		following, err = h.svc.IsFollowing(c.Request.Context(), me.ID, target)
		if err != nil {
			writeError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, StatusResponse{Success: true, UserID: target, Following: following})
}

// Counts handles GET /users/:handle/counts
func (h *Handler) Counts(c *gin.Context) {
	u, err := h.users.GetByHandle(c.Request.Context(), c.Param("handle"))
	if err != nil {
		writeError(c, err)
		return
	}

	counts, err := h.svc.Counts(c.Request.Context(), u.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, CountsResponse{Success: true, UserID: u.ID, Counts: counts})
}

// Profile handles GET /users/:handle
func (h *Handler) Profile(c *gin.Context) {
	ctx := c.Request.Context()

	u, err := h.users.GetByHandle(ctx, c.Param("handle"))
	if err != nil {
		writeError(c, err)
		return
	}

	p := &Profile{User: u}
	if p.Counts, err = h.svc.Counts(ctx, u.ID); err != nil {
		writeError(c, err)
		return
	}
	if p.Posts, err = h.posts.CountPosts(ctx, u.ID); err != nil {
		writeError(c, err)
		return
	}
	if me, ok := identity.CurrentUser(c); ok {
		p.IsSelf = me.ID == u.ID
		if p.IsFollowing, err = h.svc.IsFollowing(ctx, me.ID, u.ID); err != nil {
			writeError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, ProfileResponse{Success: true, Data: p})
}

// Suggestions handles GET /users/suggestions?limit=N
func (h *Handler) Suggestions(c *gin.Context) {
	viewer := uuid.Nil
	if me, ok := identity.CurrentUser(c); ok {
		viewer = me.ID
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	out, err := h.svc.Suggestions(c.Request.Context(), viewer, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuggestionsResponse{Success: true, Data: out})
}

func parseUserID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "invalid user id", Code: "INVALID_INPUT"})
		return uuid.Nil, false
	}
	return id, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidEdge):
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: err.Error(), Code: "INVALID_EDGE"})
	case errors.Is(err, identity.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Success: false, Error: err.Error(), Code: "NOT_FOUND"})
	case errors.Is(err, identity.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Success: false, Error: err.Error(), Code: "NOT_AUTHENTICATED"})
	default:
		_ = c.Error(err)
		code := "INTERNAL"
		if errors.Is(err, database.ErrStorage) {
			code = "STORAGE"
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Success: false, Error: "request failed", Code: code})
	}
}
