// Package refresh signals downstream caches and consumers that aggregate
// views (feeds, profile counts) are stale after a write.
//
// Signals are fire-and-forget: a failing sink is logged and never fails the
// write that produced the signal.
package refresh

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Reason identifies the write that produced a signal.
type Reason string

const (
	ReasonFollow      Reason = "follow"
	ReasonUnfollow    Reason = "unfollow"
	ReasonPostCreated Reason = "post_created"
)

// Signal describes the users whose derived views changed.
type Signal struct {
	Reason  Reason      `json:"reason"`
	UserIDs []uuid.UUID `json:"user_ids"`
	// Broadcast marks signals that affect every viewer's feed.
	Broadcast bool      `json:"broadcast,omitempty"`
	At        time.Time `json:"at"`
}

// EventType names the signal on the broker, e.g. "view.refresh.follow".
func (s Signal) EventType() string { return "view.refresh." + string(s.Reason) }

// Notifier receives refresh signals.
type Notifier interface {
	Refresh(ctx context.Context, sig Signal)
}

// Sink is one delivery target for signals.
type Sink interface {
	Name() string
	Send(ctx context.Context, sig Signal) error
}

const sendTimeout = 2 * time.Second

// Multi fans a signal out to every sink and logs failures.
type Multi struct {
	sinks []Sink
	log   *slog.Logger
}

// NewMulti returns a Notifier delivering to sinks. Nil sinks are skipped.
func NewMulti(log *slog.Logger, sinks ...Sink) *Multi {
	if log == nil {
		log = slog.Default()
	}
	m := &Multi{log: log}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

func (m *Multi) Refresh(ctx context.Context, sig Signal) {
	if len(m.sinks) == 0 {
		return
	}
	if sig.At.IsZero() {
		sig.At = time.Now().UTC()
	}

	// The write has already committed; a cancelled request must not
	// suppress the signal.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
	defer cancel()

	failed := 0
	for _, s := range m.sinks {
		if err := s.Send(ctx, sig); err != nil {
			m.log.WarnContext(ctx, "View refresh signal failed",
				"sink", s.Name(),
				"reason", sig.Reason,
				"error", err)
			failed++
		}
	}
	if failed == 0 {
		m.log.DebugContext(ctx, "View refresh signalled",
			"reason", sig.Reason,
			"users", len(sig.UserIDs),
			"sinks", len(m.sinks))
	}
}

// Nop discards every signal.
type Nop struct{}

func (Nop) Refresh(context.Context, Signal) {}
