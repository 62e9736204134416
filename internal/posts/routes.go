package posts

import (
	"github.com/gin-gonic/gin"

	"socialgraph/internal/identity"
)

// RegisterRoutes mounts the posts endpoints on rg.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	postsGroup := rg.Group("/posts")
	{
		postsGroup.POST("", identity.RequireUser(h.users), h.CreatePost) // POST /posts
		postsGroup.GET("/:id", h.GetPost)                                // GET /posts/:id
	}

	rg.GET("/users/:user_id/posts", h.GetUserPosts)
	rg.GET("/feed", identity.OptionalUser(h.users), h.Feed)
}
