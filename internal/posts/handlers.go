package posts

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"socialgraph/internal/identity"
)

// Handler handles HTTP requests for posts
type Handler struct {
	service *Service
	users   identity.Resolver
}

// NewHandler creates a new posts handler
func NewHandler(service *Service, users identity.Resolver) *Handler {
	return &Handler{service: service, users: users}
}

// CreatePost handles POST /posts
func (h *Handler) CreatePost(c *gin.Context) {
	me, _ := identity.CurrentUser(c)

	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Success: false,
			Error:   "Invalid request body: " + err.Error(),
			Code:    "INVALID_INPUT",
		})
		return
	}

	post, err := h.service.CreatePost(c.Request.Context(), me.ID, req.Content, req.ImageURL)
	if err != nil {
		writeError(c, err)
		return
	}
	post.Author = &Author{ID: me.ID, Handle: me.Handle, Name: me.Name, AvatarURL: me.AvatarURL}

	c.JSON(http.StatusCreated, PostResponse{
		Success: true,
		Message: "Post created successfully",
		Data:    post,
	})
}

// GetPost handles GET /posts/:id
func (h *Handler) GetPost(c *gin.Context) {
	postID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "Invalid post ID", Code: "INVALID_INPUT"})
		return
	}

	post, err := h.service.GetPost(c.Request.Context(), postID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, PostResponse{Success: true, Data: post})
}

// GetUserPosts handles GET /users/:user_id/posts?page=1&page_size=20
func (h *Handler) GetUserPosts(c *gin.Context) {
	authorID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "Invalid user ID", Code: "INVALID_INPUT"})
		return
	}

	page, pageSize := pageParams(c)
	resp, err := h.service.ListByAuthor(c.Request.Context(), authorID, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": resp})
}

// Feed handles GET /feed. Anonymous callers see every post.
func (h *Handler) Feed(c *gin.Context) {
	viewer := uuid.Nil
	if me, ok := identity.CurrentUser(c); ok {
		viewer = me.ID
	}

	page, pageSize := pageParams(c)
	resp, err := h.service.Feed(c.Request.Context(), viewer, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": resp})
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(DefaultPageSize)))
	return page, pageSize
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrEmptyPost), errors.Is(err, ErrContentTooLong):
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: err.Error(), Code: "INVALID_INPUT"})
	case errors.Is(err, ErrPostNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Success: false, Error: "Post not found", Code: "NOT_FOUND"})
	case errors.Is(err, identity.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Success: false, Error: err.Error(), Code: "NOT_FOUND"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Success: false, Error: "Failed to process request", Code: "STORAGE"})
	}
}
