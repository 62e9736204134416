package posts

import (
	"time"

	"github.com/google/uuid"
)

// Post is a piece of content with an optional media attachment
type Post struct {
	PostID    int64     `json:"post_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Content   string    `json:"content"`
	ImageURL  *string   `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Author    *Author   `json:"author,omitempty"`
}

// Author is the public part of the post author's profile
type Author struct {
	ID        uuid.UUID `json:"id"`
	Handle    string    `json:"handle"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url"`
}

// CreatePostRequest represents the request body for creating a new post.
// The author comes from the authenticated principal, never from the body.
type CreatePostRequest struct {
	Content  string  `json:"content" binding:"max=2000"`
	ImageURL *string `json:"image_url,omitempty"`
}

// PaginatedPostsResponse represents paginated posts response
type PaginatedPostsResponse struct {
	Posts      []Post `json:"posts"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalCount int64  `json:"total_count"`
	TotalPages int    `json:"total_pages"`
}

// PostResponse is a standard response wrapper
type PostResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    *Post  `json:"data,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

func newPage(posts []Post, page, pageSize int, total int64) *PaginatedPostsResponse {
	totalPages := int(total) / pageSize
	if int(total)%pageSize != 0 {
		totalPages++
	}
	return &PaginatedPostsResponse{
		Posts:      posts,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: totalPages,
	}
}
