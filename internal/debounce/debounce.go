// Package debounce waits for a checkbox edit to settle before anything acts on it.
//
// A reviewer clicking a checkbox can produce several webhook deliveries in quick
// succession. The Stabilizer sleeps, re-reads the comment and only reports a
// stable result when the checkbox still has the value the delivery saw. It is a
// settling filter, not a lock: two deliveries can both pass it.
package debounce

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pders01/intent/internal/logging"
	"github.com/pders01/intent/internal/marker"
	"github.com/pders01/intent/internal/models"
)

// DefaultDelay is how long a toggle must stay unchanged
const DefaultDelay = 1500 * time.Millisecond

// CommentFetcher reads the current state of a comment
type CommentFetcher interface {
	GetComment(ctx context.Context, id int64) (*models.Comment, error)
}

// Stabilizer re-reads a comment after a delay to confirm a checkbox toggle
type Stabilizer struct {
	comments CommentFetcher
	delay    time.Duration
	log      *logging.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// New creates a Stabilizer. A non-positive delay falls back to DefaultDelay.
func New(comments CommentFetcher, delay time.Duration, log *logging.Logger) *Stabilizer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Stabilizer{
		comments: comments,
		delay:    delay,
		log:      log,
		sleep:    sleepContext,
	}
}

// Delay returns the configured settle delay
func (s *Stabilizer) Delay() time.Duration {
	return s.delay
}

// Stabilize decides whether the toggle seen in rawBody is final
func (s *Stabilizer) Stabilize(ctx context.Context, commentID int64, rawBody string) models.DebounceResult {
	if _, ok := marker.Decode(rawBody); !ok {
		return unstable("no valid marker in comment")
	}
	initial := marker.IsCheckboxChecked(rawBody)

	s.log.Debugf("waiting %s for comment %d to settle (checked=%v)", s.delay, commentID, initial)
	if err := s.sleep(ctx, s.delay); err != nil {
		return unstable(fmt.Sprintf("debounce wait interrupted: %v", err))
	}

	comment, err := s.comments.GetComment(ctx, commentID)
	if err != nil {
		return unstable(fmt.Sprintf("failed to re-fetch comment %d: %v", commentID, err))
	}
	if comment == nil || strings.TrimSpace(comment.Body) == "" {
		return unstable(fmt.Sprintf("comment %d has an empty body", commentID))
	}

	settled, ok := marker.Decode(comment.Body)
	if !ok {
		return unstable("marker no longer decodes from the re-fetched comment")
	}

	current := marker.IsCheckboxChecked(comment.Body)
	if current != initial {
		return unstable(fmt.Sprintf("checkbox changed during debounce (was: %v, now: %v)", initial, current))
	}

	return models.DebounceResult{
		Stable:  true,
		Body:    comment.Body,
		Checked: current,
		Marker:  &settled,
	}
}

func unstable(reason string) models.DebounceResult {
	return models.DebounceResult{Stable: false, Reason: reason}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
