package notification

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"socialgraph/internal/identity"
)

type Handler struct {
	reader   Reader
	resolver identity.Resolver
}

func NewHandler(reader Reader, resolver identity.Resolver) *Handler {
	return &Handler{reader: reader, resolver: resolver}
}

// RegisterRoutes mounts the notification endpoints on rg. All of them
// require an authenticated caller.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	n := rg.Group("/notifications", identity.RequireUser(h.resolver))
	{
		n.GET("", h.List)
		n.GET("/unread-count", h.UnreadCount)
		n.POST("/read-all", h.MarkAllRead)
		n.POST("/:id/read", h.MarkRead)
	}
}

func (h *Handler) List(c *gin.Context) {
	u, _ := identity.CurrentUser(c)

	limit, _ := strconv.Atoi(c.Query("limit"))
	items, err := h.reader.List(c.Request.Context(), u.ID, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Success: true, Data: items, Count: len(items)})
}

func (h *Handler) UnreadCount(c *gin.Context) {
	u, _ := identity.CurrentUser(c)

	n, err := h.reader.UnreadCount(c.Request.Context(), u.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, UnreadCountResponse{Success: true, Count: n})
}

func (h *Handler) MarkRead(c *gin.Context) {
	u, _ := identity.CurrentUser(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "invalid notification id"})
		return
	}

	if err := h.reader.MarkRead(c.Request.Context(), u.ID, id); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	u, _ := identity.CurrentUser(c)

	n, err := h.reader.MarkAllRead(c.Request.Context(), u.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, MarkAllReadResponse{Success: true, Updated: n})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Success: false, Error: err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Success: false, Error: "failed to process notifications"})
	}
}
