package testutil

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// DefaultBranch is the branch every temporary repository starts on
const DefaultBranch = "main"

// TempGitRepo is a temporary git repository for testing
type TempGitRepo struct {
	Path string
	T    *testing.T
}

// NewTempGitRepo creates a new temporary git repository with one commit on main
func NewTempGitRepo(t *testing.T) *TempGitRepo {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "intent-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	repo := &TempGitRepo{Path: tmpDir, T: t}

	// Configure git user (required for commits)
	setup := [][]string{
		{"init"},
		{"symbolic-ref", "HEAD", "refs/heads/" + DefaultBranch},
		{"config", "user.name", "Test User"},
		{"config", "user.email", "test@example.com"},
		{"config", "commit.gpgsign", "false"},
	}
	for _, args := range setup {
		if out, err := repo.git(args...); err != nil {
			os.RemoveAll(tmpDir)
			t.Fatalf("failed to run git %v: %v: %s", args, err, out)
		}
	}

	repo.CreateFile("README.md", "# Test Repository\n")
	repo.Commit("Initial commit")

	return repo
}

// Cleanup removes the temporary git repository
func (r *TempGitRepo) Cleanup() {
	r.T.Helper()
	if err := os.RemoveAll(r.Path); err != nil {
		r.T.Errorf("failed to cleanup temp repo: %v", err)
	}
}

// CreateFile creates a file in the repository
func (r *TempGitRepo) CreateFile(name, content string) {
	r.T.Helper()
	path := filepath.Join(r.Path, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		r.T.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		r.T.Fatalf("failed to create file: %v", err)
	}
}

// Commit stages and commits all changes and returns the new commit hash
func (r *TempGitRepo) Commit(message string) string {
	r.T.Helper()

	if out, err := r.git("add", "-A"); err != nil {
		r.T.Fatalf("failed to stage files: %v: %s", err, out)
	}
	if out, err := r.git("commit", "--allow-empty", "-m", message); err != nil {
		r.T.Fatalf("failed to commit: %v: %s", err, out)
	}
	return r.HeadCommit()
}

// CommitFile writes a single file and commits it
func (r *TempGitRepo) CommitFile(name, content, message string) string {
	r.T.Helper()
	r.CreateFile(name, content)
	return r.Commit(message)
}

// HeadCommit returns the commit hash of HEAD
func (r *TempGitRepo) HeadCommit() string {
	r.T.Helper()
	out, err := r.git("rev-parse", "HEAD")
	if err != nil {
		r.T.Fatalf("failed to resolve HEAD: %v", err)
	}
	return strings.TrimSpace(out)
}

// ShallowClone clones the repository with the given depth into a new temp dir
func (r *TempGitRepo) ShallowClone(depth int) *TempGitRepo {
	r.T.Helper()

	dst, err := os.MkdirTemp("", "intent-clone-*")
	if err != nil {
		r.T.Fatalf("failed to create clone dir: %v", err)
	}

	// --depth is ignored for plain local paths, file:// forces the transport
	source := "file://" + filepath.ToSlash(r.Path)
	cmd := exec.Command("git", "clone", "--quiet", fmt.Sprintf("--depth=%d", depth), source, dst)
	if out, err := cmd.CombinedOutput(); err != nil {
		os.RemoveAll(dst)
		r.T.Fatalf("failed to clone: %v: %s", err, out)
	}
	return &TempGitRepo{Path: dst, T: r.T}
}

// FileExists checks if a file exists at a ref
func (r *TempGitRepo) FileExists(ref, file string) bool {
	r.T.Helper()

	out, err := r.git("ls-tree", "-r", "--name-only", ref)
	if err != nil {
		return false
	}
	for _, line := range parseLines(out) {
		if line == file {
			return true
		}
	}
	return false
}

// GetFileContent retrieves file content at a ref
func (r *TempGitRepo) GetFileContent(ref, file string) string {
	r.T.Helper()

	out, err := r.git("show", ref+":"+file)
	if err != nil {
		r.T.Fatalf("failed to read %s at %s: %v", file, ref, err)
	}
	return out
}

// CommitMessage returns the full message of a commit
func (r *TempGitRepo) CommitMessage(ref string) string {
	r.T.Helper()

	out, err := r.git("log", "-1", "--format=%B", ref)
	if err != nil {
		r.T.Fatalf("failed to read commit message: %v", err)
	}
	return strings.TrimSpace(out)
}

func (r *TempGitRepo) git(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Path
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// parseLines splits output into non-empty trimmed lines
func parseLines(output string) []string {
	var lines []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
