package identity

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	resolver Resolver
}

func NewHandler(resolver Resolver) *Handler {
	return &Handler{resolver: resolver}
}

// RegisterRoutes mounts the user sync endpoints on rg.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	users := rg.Group("/users", RequireUser(h.resolver))
	{
		users.POST("/sync", h.Me)
		users.GET("/me", h.Me)
	}
}

// Me returns the caller's user, created on first sight by RequireUser.
func (h *Handler) Me(c *gin.Context) {
	u, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Success: false, Error: ErrNotAuthenticated.Error()})
		return
	}
	c.JSON(http.StatusOK, UserResponse{Success: true, Data: u})
}
