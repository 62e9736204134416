// Package follow owns the follow graph: the edge store, the toggle that keeps
// an edge and its FOLLOW notification consistent, and the read paths built on
// top of them (counts, status, discovery, profiles).
package follow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"socialgraph/internal/notification"
	"socialgraph/internal/refresh"
)

const (
	DefaultSuggestions = 3
	MaxSuggestions     = 20
)

// Transactor runs fn as one all-or-nothing unit of work.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EdgeStore is the persistence contract for follow edges.
type EdgeStore interface {
	Exists(ctx context.Context, followerID, followingID uuid.UUID) (bool, error)
	Create(ctx context.Context, followerID, followingID uuid.UUID) error
	Delete(ctx context.Context, followerID, followingID uuid.UUID) (bool, error)
	Counts(ctx context.Context, userID uuid.UUID) (Counts, error)
	CandidatesExcluding(ctx context.Context, userID uuid.UUID, limit int) ([]Candidate, error)
}

type Service interface {
	// Toggle flips the follow edge from followerID to followingID. Creating
	// the edge emits a FOLLOW notification in the same transaction; removing
	// it never emits anything.
	Toggle(ctx context.Context, followerID, followingID uuid.UUID) (*ToggleResult, error)
	IsFollowing(ctx context.Context, followerID, followingID uuid.UUID) (bool, error)
	Counts(ctx context.Context, userID uuid.UUID) (Counts, error)
	// Suggestions returns users viewerID does not follow yet. Anonymous
	// viewers (uuid.Nil) get an empty list.
	Suggestions(ctx context.Context, viewerID uuid.UUID, limit int) ([]Candidate, error)
}

type service struct {
	tx      Transactor
	edges   EdgeStore
	emitter notification.Emitter
	refresh refresh.Notifier
	log     *slog.Logger
}

func NewService(tx Transactor, edges EdgeStore, emitter notification.Emitter, notifier refresh.Notifier, log *slog.Logger) Service {
	if notifier == nil {
		notifier = refresh.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &service{tx: tx, edges: edges, emitter: emitter, refresh: notifier, log: log}
}

func (s *service) Toggle(ctx context.Context, followerID, followingID uuid.UUID) (*ToggleResult, error) {
	if followerID == followingID {
		return nil, ErrInvalidEdge
	}

	var res ToggleResult
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		res = ToggleResult{}

		exists, err := s.edges.Exists(ctx, followerID, followingID)
		if err != nil {
			return err
		}

		if exists {
			removed, err := s.edges.Delete(ctx, followerID, followingID)
			if err != nil {
				return err
			}
			res.Transition = Unfollowed
			if !removed {
				res.Transition = Unchanged
			}
			return nil
		}

		err = s.edges.Create(ctx, followerID, followingID)
		if errors.Is(err, ErrDuplicateEdge) {
			res.Following = true
			res.Transition = Unchanged
			return nil
		}
		if err != nil {
			return err
		}

		n, err := s.emitter.Emit(ctx, notification.Event{
			Type:        notification.TypeFollow,
			RecipientID: followingID,
			ActorID:     followerID,
		})
		if err != nil {
			return fmt.Errorf("emit follow notification: %w", err)
		}

		res.Following = true
		res.Transition = Followed
		res.NotificationID = &n.ID
		return nil
	})
	if err != nil {
		s.log.WarnContext(ctx, "Follow toggle failed",
			"follower_id", followerID,
			"following_id", followingID,
			"error", err)
		return nil, err
	}

	s.log.InfoContext(ctx, "Follow toggled",
		"follower_id", followerID,
		"following_id", followingID,
		"transition", res.Transition)

	if res.Transition != Unchanged {
		reason := refresh.ReasonFollow
		if !res.Following {
			reason = refresh.ReasonUnfollow
		}
		s.refresh.Refresh(ctx, refresh.Signal{
			Reason:  reason,
			UserIDs: []uuid.UUID{followerID, followingID},
		})
	}

	return &res, nil
}

func (s *service) IsFollowing(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	if followerID == followingID {
		return false, nil
	}
	return s.edges.Exists(ctx, followerID, followingID)
}

func (s *service) Counts(ctx context.Context, userID uuid.UUID) (Counts, error) {
	return s.edges.Counts(ctx, userID)
}

func (s *service) Suggestions(ctx context.Context, viewerID uuid.UUID, limit int) ([]Candidate, error) {
	if viewerID == uuid.Nil {
		return []Candidate{}, nil
	}
	switch {
	case limit <= 0:
		limit = DefaultSuggestions
	case limit > MaxSuggestions:
		limit = MaxSuggestions
	}
	return s.edges.CandidatesExcluding(ctx, viewerID, limit)
}
