package follow

import (
	"github.com/gin-gonic/gin"

	"socialgraph/internal/identity"
)

// RegisterRoutes mounts the follow graph endpoints on rg.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	optional := identity.OptionalUser(h.users)
	required := identity.RequireUser(h.users)

	// Discovery and profiles
	users := rg.Group("/users")
	{
		users.GET("/suggestions", optional, h.Suggestions)
		users.GET("/:handle", optional, h.Profile)
		users.GET("/:handle/counts", h.Counts)
	}

	// Follow / unfollow
	follows := rg.Group("/follows")
	{
		follows.POST("/:user_id/toggle", required, h.Toggle)
		follows.GET("/:user_id/status", optional, h.Status)
	}
}
