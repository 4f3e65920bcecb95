// Package approval turns a settled checkbox state into commits.
//
// The comment body is the only record of whether a suggestion was applied, so
// every run reads the marker, compares it with the checkbox and moves through
// the state table below. Deliveries for the same comment are not serialized;
// a duplicate or late delivery finds the marker already rewritten and ends as
// a no-op.
//
//	checked  appliedCommit  action
//	true     empty          apply
//	true     set            no-op (already applied)
//	false    empty          no-op, skipped
//	false    set            revert
package approval

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pders01/intent/internal/failure"
	"github.com/pders01/intent/internal/logging"
	"github.com/pders01/intent/internal/marker"
	"github.com/pders01/intent/internal/models"
)

// ResolvedBanner is appended to a suggestion that can no longer be applied
const ResolvedBanner = "**RESOLVED**"

// PairingMode controls how a paired documentation file is kept in sync
type PairingMode string

const (
	// PairingSymlink means the paired file is a symlink to the primary and is never written
	PairingSymlink PairingMode = "symlink"
	// PairingCopy means the paired file receives the same content in its own commit
	PairingCopy PairingMode = "copy"
)

// Repository reads and writes files on the hosting side
type Repository interface {
	GetFileContent(ctx context.Context, path, ref string) (*models.FileContent, error)
	CreateOrUpdateFile(ctx context.Context, path, content, message, branch string) (*models.CommitResult, error)
	DeleteFile(ctx context.Context, path, message, branch string) (*models.CommitResult, error)
	GetCommit(ctx context.Context, sha string) (*models.Commit, error)
}

// CommentStore reads and rewrites suggestion comments
type CommentStore interface {
	GetComment(ctx context.Context, id int64) (*models.Comment, error)
	UpdateComment(ctx context.Context, id int64, body string) error
}

// HistoryValidator guards reverts against clones that lack the needed commits
type HistoryValidator interface {
	ValidateAndFail(commitSHA string) error
}

// Request is one settled checkbox state to act on
type Request struct {
	CommentID int64
	Body      string
	Marker    models.IntentMarker
	Checked   bool
	Update    models.ReconstructedUpdate
	// HeadSHA is the pull request head at the time of this delivery
	HeadSHA string
	// Branch receives the commits
	Branch string
}

// Engine applies and reverts suggestions
type Engine struct {
	repo     Repository
	comments CommentStore
	pairing  PairingMode
	history  HistoryValidator
	log      *logging.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithPairing sets how OtherNodePath is handled
func WithPairing(mode PairingMode) Option {
	return func(e *Engine) { e.pairing = mode }
}

// WithHistoryValidator checks the local clone before every revert
func WithHistoryValidator(v HistoryValidator) Option {
	return func(e *Engine) { e.history = v }
}

// WithLogger sets the logger
func WithLogger(log *logging.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// NewEngine creates an Engine. Pairing defaults to symlink mode.
func NewEngine(repo Repository, comments CommentStore, opts ...Option) *Engine {
	e := &Engine{
		repo:     repo,
		comments: comments,
		pairing:  PairingSymlink,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Process runs the state table for req
func (e *Engine) Process(ctx context.Context, req Request) (*models.ProcessResult, error) {
	m := req.Marker
	if err := validatePaths(m); err != nil {
		return nil, err
	}
	switch {
	case req.Checked && !m.IsApplied():
		return e.apply(ctx, req)
	case req.Checked:
		e.log.Infof("suggestion for %s already applied in %s", m.NodePath, m.AppliedCommit)
		return &models.ProcessResult{Operation: models.OpNone, Reason: "already applied", Marker: &m}, nil
	case m.IsApplied():
		return e.revert(ctx, req)
	default:
		return &models.ProcessResult{Operation: models.OpNone, Skipped: true, Reason: "not applied and not checked", Marker: &m}, nil
	}
}

func (e *Engine) apply(ctx context.Context, req Request) (*models.ProcessResult, error) {
	m := req.Marker

	if m.HeadSHA != req.HeadSHA {
		conflict := &failure.HeadMismatchError{Expected: m.HeadSHA, Actual: req.HeadSHA}
		e.log.Warnf("not applying %s: %v", m.NodePath, conflict)
		if err := e.markResolved(ctx, req); err != nil {
			return nil, errors.Join(conflict, err)
		}
		return nil, conflict
	}

	content := req.Update.SuggestedContent
	if strings.TrimSpace(content) == "" {
		return nil, &failure.ValidationError{Message: fmt.Sprintf("no suggested content found for %s", m.NodePath)}
	}

	primary, err := e.writeFile(ctx, m.NodePath, content, req)
	if err != nil {
		return nil, err
	}
	result := &models.ProcessResult{Operation: models.OpApply, Commits: []models.CommitResult{*primary}}

	if m.OtherNodePath != "" && e.pairing == PairingCopy {
		other, err := e.writeFile(ctx, m.OtherNodePath, content, req)
		if err != nil {
			return nil, err
		}
		result.Commits = append(result.Commits, *other)
	}

	updated := m.WithAppliedCommit(primary.SHA)
	if err := e.comments.UpdateComment(ctx, req.CommentID, marker.Replace(req.Body, updated)); err != nil {
		return nil, fmt.Errorf("failed to record applied commit %s in comment %d: %w", primary.SHA, req.CommentID, err)
	}
	result.Marker = &updated
	e.log.Infof("applied suggestion for %s in %s", m.NodePath, primary.SHA)
	return result, nil
}

// writeFile creates or overwrites path at the current head
func (e *Engine) writeFile(ctx context.Context, path, content string, req Request) (*models.CommitResult, error) {
	tag, verb := models.TagAdd, "Add"
	_, err := e.repo.GetFileContent(ctx, path, req.HeadSHA)
	switch {
	case err == nil:
		tag, verb = models.TagUpdate, "Update"
	case !errors.Is(err, models.ErrNotFound):
		return nil, &failure.CommitError{Op: "look up", Path: path, Err: err}
	}

	message := commitMessage(tag, verb, path, req.Update.Reason)
	commit, err := e.repo.CreateOrUpdateFile(ctx, path, content, message, req.Branch)
	if err != nil {
		return nil, &failure.CommitError{Op: "commit", Path: path, Err: err}
	}
	commit.Path = path
	if commit.Message == "" {
		commit.Message = message
	}
	return commit, nil
}

func (e *Engine) revert(ctx context.Context, req Request) (*models.ProcessResult, error) {
	m := req.Marker

	if e.history != nil {
		if err := e.history.ValidateAndFail(m.AppliedCommit); err != nil {
			return nil, err
		}
	}

	parent, err := e.revertBase(ctx, m)
	if err != nil {
		return nil, err
	}

	paths := m.Paths()
	if e.pairing != PairingCopy {
		paths = paths[:1]
	}

	result := &models.ProcessResult{Operation: models.OpRevert}
	for _, path := range paths {
		commit, err := e.revertFile(ctx, path, parent, req.Branch)
		if err != nil {
			return nil, fmt.Errorf("failed to create revert commit: %w", err)
		}
		if commit != nil {
			result.Commits = append(result.Commits, *commit)
		}
	}

	updated := m.WithAppliedCommit("")
	if err := e.comments.UpdateComment(ctx, req.CommentID, marker.Replace(req.Body, updated)); err != nil {
		return nil, fmt.Errorf("failed to clear applied commit in comment %d: %w", req.CommentID, err)
	}
	result.Marker = &updated
	e.log.Infof("reverted suggestion for %s (applied in %s)", m.NodePath, m.AppliedCommit)
	return result, nil
}

// maxApplyChain bounds the walk over commits left behind by retried applies
const maxApplyChain = 16

// revertBase returns the commit whose content a revert restores. It is the
// first parent of the applied commit, except that apply commits for the same
// paths directly below it are skipped. Those come from an earlier attempt
// that committed but failed before the comment was rewritten, so their
// parents, not the applied commit's, hold the content from before the
// suggestion. The walk stops at the head the suggestion was generated for.
func (e *Engine) revertBase(ctx context.Context, m models.IntentMarker) (string, error) {
	sha := m.AppliedCommit
	for range maxApplyChain {
		commit, err := e.repo.GetCommit(ctx, sha)
		if err != nil {
			return "", &failure.CommitError{Op: "read applied commit", Path: sha, Err: err}
		}
		if len(commit.Parents) == 0 {
			return "", &failure.CommitError{Op: "read applied commit", Path: sha, Err: errors.New("commit has no parent")}
		}
		parent := commit.Parents[0]
		if parent == m.HeadSHA {
			return parent, nil
		}
		previous, err := e.repo.GetCommit(ctx, parent)
		if errors.Is(err, models.ErrNotFound) {
			return parent, nil
		}
		if err != nil {
			return "", &failure.CommitError{Op: "read parent commit", Path: parent, Err: err}
		}
		if !isApplyCommit(previous.Message, m.Paths()) {
			return parent, nil
		}
		e.log.Debugf("skipping earlier apply commit %s", shortSHA(parent))
		sha = parent
	}
	return "", &failure.CommitError{Op: "read applied commit", Path: m.AppliedCommit, Err: fmt.Errorf("more than %d consecutive apply commits", maxApplyChain)}
}

// isApplyCommit reports whether message is the subject of an add or update
// commit for one of paths
func isApplyCommit(message string, paths []string) bool {
	subject, _, _ := strings.Cut(message, "\n")
	subject = strings.TrimSpace(subject)
	for _, path := range paths {
		if subject == fmt.Sprintf("%s Add %s", models.TagAdd, path) ||
			subject == fmt.Sprintf("%s Update %s", models.TagUpdate, path) {
			return true
		}
	}
	return false
}

// revertFile restores path to its content at parent, or deletes it when it
// did not exist there. It returns nil when the file is already gone.
func (e *Engine) revertFile(ctx context.Context, path, parent, branch string) (*models.CommitResult, error) {
	previous, err := e.repo.GetFileContent(ctx, path, parent)
	switch {
	case err == nil:
		message := commitMessage(models.TagRevert, "Restore", path, "Suggestion unchecked; restoring content from "+shortSHA(parent))
		commit, err := e.repo.CreateOrUpdateFile(ctx, path, previous.Content, message, branch)
		if err != nil {
			return nil, &failure.CommitError{Op: "restore", Path: path, Err: err}
		}
		return withPath(commit, path, message), nil

	case errors.Is(err, models.ErrNotFound):
		message := commitMessage(models.TagRevert, "Remove", path, "Suggestion unchecked; file did not exist before it was applied")
		commit, err := e.repo.DeleteFile(ctx, path, message, branch)
		if errors.Is(err, models.ErrNotFound) {
			e.log.Infof("%s already removed", path)
			return nil, nil
		}
		if err != nil {
			return nil, &failure.CommitError{Op: "delete", Path: path, Err: err}
		}
		return withPath(commit, path, message), nil

	default:
		return nil, &failure.CommitError{Op: "read previous version of", Path: path, Err: err}
	}
}

// markResolved appends the resolved banner once so the suggestion is not
// retried against a head the reviewer never saw
func (e *Engine) markResolved(ctx context.Context, req Request) error {
	if strings.Contains(req.Body, ResolvedBanner) {
		return nil
	}
	banner := fmt.Sprintf("\n\n---\n%s: the pull request head moved from `%s` to `%s` after this suggestion was generated. It will not be applied.\n",
		ResolvedBanner, shortSHA(req.Marker.HeadSHA), shortSHA(req.HeadSHA))
	body := strings.TrimRight(req.Body, "\n") + banner
	if err := e.comments.UpdateComment(ctx, req.CommentID, body); err != nil {
		return fmt.Errorf("failed to mark comment %d resolved: %w", req.CommentID, err)
	}
	return nil
}

// validatePaths rejects marker paths that would leave the repository root
func validatePaths(m models.IntentMarker) error {
	for _, path := range m.Paths() {
		if !filepath.IsLocal(filepath.FromSlash(path)) {
			return &failure.ValidationError{Message: fmt.Sprintf("path %q is not inside the repository", path)}
		}
	}
	return nil
}

func commitMessage(tag models.CommitTag, verb, path, reason string) string {
	if reason == "" {
		reason = models.DefaultReason
	}
	return fmt.Sprintf("%s %s %s\n\n%s", tag, verb, path, reason)
}

func withPath(commit *models.CommitResult, path, message string) *models.CommitResult {
	commit.Path = path
	if commit.Message == "" {
		commit.Message = message
	}
	return commit
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
