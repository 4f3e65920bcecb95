package approval

import (
	"context"
	"fmt"

	"github.com/pders01/intent/internal/debounce"
	"github.com/pders01/intent/internal/logging"
	"github.com/pders01/intent/internal/marker"
	"github.com/pders01/intent/internal/models"
	"github.com/pders01/intent/internal/reconstruct"
)

// PullRequests resolves the current head of a pull request
type PullRequests interface {
	GetPullRequest(ctx context.Context, number int) (*models.PullRequest, error)
}

// Handler runs one comment delivery through the whole approval flow
type Handler struct {
	prs        PullRequests
	stabilizer *debounce.Stabilizer
	engine     *Engine
	log        *logging.Logger
}

// NewHandler wires the flow together
func NewHandler(prs PullRequests, stabilizer *debounce.Stabilizer, engine *Engine, log *logging.Logger) *Handler {
	return &Handler{
		prs:        prs,
		stabilizer: stabilizer,
		engine:     engine,
		log:        log,
	}
}

// Handle processes a comment event. Deliveries that should not act are
// returned as skipped results, not errors.
func (h *Handler) Handle(ctx context.Context, ev models.CommentEvent) (*models.ProcessResult, error) {
	if reason := h.ignore(ev); reason != "" {
		h.log.Infof("skipping comment %d: %s", ev.CommentID, reason)
		return skipped(reason), nil
	}

	initial, _ := marker.Decode(ev.Body)
	h.log.Infof("comment %d on #%d targets %s (checked=%v)", ev.CommentID, ev.PRNumber, initial.NodePath, marker.IsCheckboxChecked(ev.Body))

	settled := h.stabilizer.Stabilize(ctx, ev.CommentID, ev.Body)
	if !settled.Stable {
		h.log.Infof("comment %d did not settle: %s", ev.CommentID, settled.Reason)
		return skipped(settled.Reason), nil
	}

	pr, err := h.prs.GetPullRequest(ctx, ev.PRNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get pull request #%d: %w", ev.PRNumber, err)
	}

	m := *settled.Marker
	update := reconstruct.Reconstruct(settled.Body, m, reconstruct.InferAction(settled.Body))
	h.log.Debugf("reconstructed %s for %s (%d bytes suggested)", update.Action, update.NodePath, len(update.SuggestedContent))

	return h.engine.Process(ctx, Request{
		CommentID: ev.CommentID,
		Body:      settled.Body,
		Marker:    m,
		Checked:   settled.Checked,
		Update:    update,
		HeadSHA:   pr.HeadSHA,
		Branch:    pr.HeadRef,
	})
}

// ignore returns why an event should not be processed, or "" to process it
func (h *Handler) ignore(ev models.CommentEvent) string {
	switch {
	case ev.Action != "edited" && ev.Action != "created":
		return fmt.Sprintf("action %q is not handled", ev.Action)
	case !ev.IsPullRequest:
		return "comment is not on a pull request"
	case ev.SenderIsBot:
		return fmt.Sprintf("edit made by bot %s", ev.Sender)
	}
	m, ok := marker.Decode(ev.Body)
	if !ok {
		return "no valid marker"
	}
	// An edit that keeps the checkbox still retries a failed run, which
	// leaves the marker out of step with the checkbox.
	checked := marker.IsCheckboxChecked(ev.Body)
	if ev.PreviousBody != nil && marker.IsCheckboxChecked(*ev.PreviousBody) == checked && checked == m.IsApplied() {
		return "checkbox not toggled"
	}
	return ""
}

func skipped(reason string) *models.ProcessResult {
	return &models.ProcessResult{Operation: models.OpNone, Skipped: true, Reason: reason}
}
