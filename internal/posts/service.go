// Package posts creates posts and serves author timelines and home feeds,
// cached in Redis.
package posts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"socialgraph/internal/identity"
	"socialgraph/internal/refresh"
)

const (
	MaxContentLength = 2000
	DefaultPageSize  = 20
	MaxPageSize      = 100

	postTTL = 5 * time.Minute
	listTTL = 2 * time.Minute
)

var (
	// ErrEmptyPost is returned when a post has neither content nor media.
	ErrEmptyPost = errors.New("post must have content or an image")
	// ErrContentTooLong is returned when content exceeds MaxContentLength runes.
	ErrContentTooLong = fmt.Errorf("content exceeds %d characters", MaxContentLength)
)

// Store is the persistence used by the service.
type Store interface {
	Create(ctx context.Context, authorID uuid.UUID, content string, imageURL *string) (*Post, error)
	GetByID(ctx context.Context, postID int64) (*Post, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID, page, pageSize int) ([]Post, int64, error)
	Feed(ctx context.Context, viewerID uuid.UUID, page, pageSize int) ([]Post, int64, error)
}

// UserChecker reports whether a user exists.
type UserChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service handles business logic for posts with caching
type Service struct {
	repo    Store
	users   UserChecker
	cache   *redis.Client
	refresh refresh.Notifier
	log     *slog.Logger
}

// NewService creates a posts service. A nil cache disables caching.
func NewService(repo Store, users UserChecker, rdb *redis.Client, notifier refresh.Notifier, log *slog.Logger) *Service {
	if notifier == nil {
		notifier = refresh.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, users: users, cache: rdb, refresh: notifier, log: log}
}

// CreatePost stores a post for an existing author and signals feed refresh.
func (s *Service) CreatePost(ctx context.Context, authorID uuid.UUID, content string, imageURL *string) (*Post, error) {
	content = strings.TrimSpace(content)
	if imageURL != nil {
		if trimmed := strings.TrimSpace(*imageURL); trimmed != "" {
			imageURL = &trimmed
		} else {
			imageURL = nil
		}
	}
	if content == "" && imageURL == nil {
		return nil, ErrEmptyPost
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return nil, ErrContentTooLong
	}

	exists, err := s.users.Exists(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, identity.ErrUserNotFound
	}

	post, err := s.repo.Create(ctx, authorID, content, imageURL)
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "Post created",
		"post_id", post.PostID,
		"author_id", authorID,
		"has_image", imageURL != nil)

	s.refresh.Refresh(ctx, refresh.Signal{
		Reason:    refresh.ReasonPostCreated,
		UserIDs:   []uuid.UUID{authorID},
		Broadcast: true,
	})

	return post, nil
}

// GetPost retrieves a post by ID with caching
func (s *Service) GetPost(ctx context.Context, postID int64) (*Post, error) {
	key := fmt.Sprintf("post:%d", postID)

	var post Post
	if s.getCached(ctx, key, &post) {
		return &post, nil
	}

	p, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	s.setCached(ctx, key, p, postTTL)
	return p, nil
}

// ListByAuthor retrieves an author's posts with pagination and caching
func (s *Service) ListByAuthor(ctx context.Context, authorID uuid.UUID, page, pageSize int) (*PaginatedPostsResponse, error) {
	page, pageSize = normalizePage(page, pageSize)
	key := fmt.Sprintf("posts:user:%s:page:%d:size:%d", authorID, page, pageSize)

	var resp PaginatedPostsResponse
	if s.getCached(ctx, key, &resp) {
		return &resp, nil
	}

	posts, total, err := s.repo.ListByAuthor(ctx, authorID, page, pageSize)
	if err != nil {
		return nil, err
	}

	out := newPage(posts, page, pageSize, total)
	s.setCached(ctx, key, out, listTTL)
	return out, nil
}

// Feed returns the viewer's home feed. uuid.Nil means an anonymous viewer.
func (s *Service) Feed(ctx context.Context, viewerID uuid.UUID, page, pageSize int) (*PaginatedPostsResponse, error) {
	page, pageSize = normalizePage(page, pageSize)
	key := fmt.Sprintf("%s:page:%d:size:%d", feedPrefix(viewerID), page, pageSize)

	var resp PaginatedPostsResponse
	if s.getCached(ctx, key, &resp) {
		return &resp, nil
	}

	posts, total, err := s.repo.Feed(ctx, viewerID, page, pageSize)
	if err != nil {
		return nil, err
	}

	out := newPage(posts, page, pageSize, total)
	s.setCached(ctx, key, out, listTTL)
	return out, nil
}

// CachePatterns maps a refresh signal onto the cache keys it invalidates.
func CachePatterns(sig refresh.Signal) []string {
	if sig.Broadcast {
		patterns := []string{"posts:feed:*"}
		for _, id := range sig.UserIDs {
			patterns = append(patterns, fmt.Sprintf("posts:user:%s:*", id))
		}
		return patterns
	}

	patterns := make([]string, 0, len(sig.UserIDs))
	for _, id := range sig.UserIDs {
		patterns = append(patterns, feedPrefix(id)+":*")
	}
	return patterns
}

func feedPrefix(viewerID uuid.UUID) string {
	if viewerID == uuid.Nil {
		return "posts:feed:anon"
	}
	return "posts:feed:" + viewerID.String()
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}
	return page, pageSize
}

func (s *Service) getCached(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	cached, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.WarnContext(ctx, "Cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(cached, dst); err != nil {
		return false
	}
	s.log.DebugContext(ctx, "Cache hit", "key", key)
	return true
}

func (s *Service) setCached(ctx context.Context, key string, v any, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, ttl).Err(); err != nil {
		s.log.WarnContext(ctx, "Cache write failed", "key", key, "error", err)
	}
}
