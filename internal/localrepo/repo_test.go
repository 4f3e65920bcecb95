package localrepo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pders01/intent/internal/approval"
	"github.com/pders01/intent/internal/marker"
	"github.com/pders01/intent/internal/models"
	"github.com/pders01/intent/internal/testutil"
)

func openTestRepo(t *testing.T, tmp *testutil.TempGitRepo) *Repo {
	t.Helper()
	repo, err := Open(tmp.Path, "Intent Bot", "bot@example.com")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return repo
}

func TestGetPullRequest(t *testing.T) {
	tmp := testutil.NewTempGitRepo(t)
	defer tmp.Cleanup()

	pr, err := openTestRepo(t, tmp).GetPullRequest(context.Background(), 3)
	if err != nil {
		t.Fatalf("GetPullRequest() error = %v", err)
	}
	if pr.HeadRef != testutil.DefaultBranch {
		t.Errorf("expected branch %s, got %s", testutil.DefaultBranch, pr.HeadRef)
	}
	if pr.HeadSHA != tmp.HeadCommit() {
		t.Errorf("expected head %s, got %s", tmp.HeadCommit(), pr.HeadSHA)
	}
	if pr.Number != 3 {
		t.Errorf("expected number 3, got %d", pr.Number)
	}
}

func TestGetFileContent(t *testing.T) {
	tmp := testutil.NewTempGitRepo(t)
	defer tmp.Cleanup()
	first := tmp.HeadCommit()
	tmp.CommitFile("docs/AGENTS.md", "# Agents\n", "Add agents")

	repo := openTestRepo(t, tmp)
	ctx := context.Background()

	file, err := repo.GetFileContent(ctx, "docs/AGENTS.md", testutil.DefaultBranch)
	if err != nil {
		t.Fatalf("GetFileContent() error = %v", err)
	}
	if file.Content != "# Agents\n" {
		t.Errorf("unexpected content %q", file.Content)
	}

	if _, err := repo.GetFileContent(ctx, "docs/AGENTS.md", first); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound at first commit, got %v", err)
	}
	if _, err := repo.GetFileContent(ctx, "README.md", "no-such-branch"); err == nil {
		t.Error("expected error for unknown ref")
	}
}

func TestWriteAndDelete(t *testing.T) {
	tmp := testutil.NewTempGitRepo(t)
	defer tmp.Cleanup()
	before := tmp.HeadCommit()

	repo := openTestRepo(t, tmp)
	ctx := context.Background()

	created, err := repo.CreateOrUpdateFile(ctx, "docs/AGENTS.md", "# Agents\n", "[INTENT:ADD] Add docs/AGENTS.md\n\nwhy", testutil.DefaultBranch)
	if err != nil {
		t.Fatalf("CreateOrUpdateFile() error = %v", err)
	}
	if created.SHA != tmp.HeadCommit() {
		t.Errorf("expected branch to advance to %s, got %s", created.SHA, tmp.HeadCommit())
	}
	if got := tmp.GetFileContent(created.SHA, "docs/AGENTS.md"); got != "# Agents\n" {
		t.Errorf("unexpected committed content %q", got)
	}
	if !strings.HasPrefix(tmp.CommitMessage(created.SHA), "[INTENT:ADD]") {
		t.Errorf("unexpected message %q", tmp.CommitMessage(created.SHA))
	}

	commit, err := repo.GetCommit(ctx, created.SHA)
	if err != nil {
		t.Fatalf("GetCommit() error = %v", err)
	}
	if len(commit.Parents) != 1 || commit.Parents[0] != before {
		t.Errorf("expected parent %s, got %v", before, commit.Parents)
	}
	if !strings.HasPrefix(commit.Message, "[INTENT:ADD]") {
		t.Errorf("unexpected commit message %q", commit.Message)
	}

	deleted, err := repo.DeleteFile(ctx, "docs/AGENTS.md", "[INTENT:REVERT] Remove docs/AGENTS.md", testutil.DefaultBranch)
	if err != nil {
		t.Fatalf("DeleteFile() error = %v", err)
	}
	if tmp.FileExists(deleted.SHA, "docs/AGENTS.md") {
		t.Error("expected file removed from tree")
	}

	if _, err := repo.DeleteFile(ctx, "docs/AGENTS.md", "again", testutil.DefaultBranch); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRejectsPathsOutsideWorktree(t *testing.T) {
	tmp := testutil.NewTempGitRepo(t)
	defer tmp.Cleanup()
	head := tmp.HeadCommit()
	repo := openTestRepo(t, tmp)
	ctx := context.Background()

	escaped := "../" + filepath.Base(tmp.Path) + "-escaped.md"
	outside := filepath.Join(filepath.Dir(tmp.Path), filepath.Base(tmp.Path)+"-escaped.md")
	defer os.Remove(outside)

	for _, path := range []string{escaped, "/etc/intent.md", ""} {
		if _, err := repo.CreateOrUpdateFile(ctx, path, "x\n", "[INTENT:ADD] Add "+path, testutil.DefaultBranch); err == nil {
			t.Errorf("CreateOrUpdateFile(%q) expected error", path)
		}
		if _, err := repo.DeleteFile(ctx, path, "[INTENT:REVERT] Remove "+path, testutil.DefaultBranch); err == nil {
			t.Errorf("DeleteFile(%q) expected error", path)
		}
	}
	if _, err := os.Stat(outside); !os.IsNotExist(err) {
		t.Errorf("expected nothing written outside the worktree, stat error = %v", err)
	}
	if tmp.HeadCommit() != head {
		t.Error("expected no commits")
	}
}

func TestCommentDir(t *testing.T) {
	store := NewCommentDir(t.TempDir())
	ctx := context.Background()

	if _, err := store.GetComment(ctx, 1); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	first, err := store.CreateComment(ctx, 1, "first")
	if err != nil {
		t.Fatalf("CreateComment() error = %v", err)
	}
	second, err := store.CreateComment(ctx, 1, "second")
	if err != nil {
		t.Fatalf("CreateComment() error = %v", err)
	}
	if first.ID != 1 || second.ID != 2 {
		t.Errorf("expected sequential ids, got %d and %d", first.ID, second.ID)
	}

	if err := store.UpdateComment(ctx, first.ID, "edited"); err != nil {
		t.Fatalf("UpdateComment() error = %v", err)
	}
	got, err := store.GetComment(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetComment() error = %v", err)
	}
	if got.Body != "edited" {
		t.Errorf("expected edited body, got %q", got.Body)
	}
}

func TestApplyAndRevertOnDisk(t *testing.T) {
	tmp := testutil.NewTempGitRepo(t)
	defer tmp.Cleanup()
	tmp.CommitFile("AGENTS.md", "original\n", "Add agents")
	head := tmp.HeadCommit()

	repo := openTestRepo(t, tmp)
	comments := NewCommentDir(t.TempDir())
	ctx := context.Background()

	m := models.IntentMarker{NodePath: "AGENTS.md", HeadSHA: head}
	body := "- [x] Apply\n\n" + marker.Encode(m) + "\n"
	if err := comments.UpdateComment(ctx, 1, body); err != nil {
		t.Fatalf("UpdateComment() error = %v", err)
	}

	engine := approval.NewEngine(repo, comments)
	applied, err := engine.Process(ctx, approval.Request{
		CommentID: 1,
		Body:      body,
		Marker:    m,
		Checked:   true,
		Update:    models.ReconstructedUpdate{NodePath: "AGENTS.md", SuggestedContent: "suggested\n", Reason: "clearer"},
		HeadSHA:   head,
		Branch:    testutil.DefaultBranch,
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if got := tmp.GetFileContent("HEAD", "AGENTS.md"); got != "suggested\n" {
		t.Errorf("expected suggested content, got %q", got)
	}
	if !strings.HasPrefix(tmp.CommitMessage("HEAD"), "[INTENT:UPDATE] Update AGENTS.md") {
		t.Errorf("unexpected message %q", tmp.CommitMessage("HEAD"))
	}

	stored, _ := comments.GetComment(ctx, 1)
	current, ok := marker.Decode(stored.Body)
	if !ok || current.AppliedCommit != applied.Commits[0].SHA {
		t.Fatalf("expected applied commit recorded, got %+v", current)
	}

	unchecked := marker.SetCheckbox(stored.Body, false)
	if _, err := engine.Process(ctx, approval.Request{
		CommentID: 1,
		Body:      unchecked,
		Marker:    current,
		Branch:    testutil.DefaultBranch,
	}); err != nil {
		t.Fatalf("revert failed: %v", err)
	}
	if got := tmp.GetFileContent("HEAD", "AGENTS.md"); got != "original\n" {
		t.Errorf("expected original content restored, got %q", got)
	}
	if !strings.HasPrefix(tmp.CommitMessage("HEAD"), "[INTENT:REVERT]") {
		t.Errorf("unexpected message %q", tmp.CommitMessage("HEAD"))
	}
}
