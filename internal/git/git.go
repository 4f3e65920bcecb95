// Package git inspects local clones with the git binary.
package git

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// IsGitRepoInDir checks if dir is inside a git repository
func IsGitRepoInDir(dir string) bool {
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = dir
	return cmd.Run() == nil
}

// IsShallowRepoInDir reports whether dir is a shallow clone
func IsShallowRepoInDir(dir string) (bool, error) {
	output, err := gitOutput(dir, "rev-parse", "--is-shallow-repository")
	if err != nil {
		return false, fmt.Errorf("failed to check shallow status: %w", err)
	}
	return output == "true", nil
}

// CommitCountInDir returns the number of commits reachable from HEAD
func CommitCountInDir(dir string) (int, error) {
	output, err := gitOutput(dir, "rev-list", "--count", "HEAD")
	if err != nil {
		return 0, fmt.Errorf("failed to count commits: %w", err)
	}
	count, err := strconv.Atoi(output)
	if err != nil {
		return 0, fmt.Errorf("failed to parse commit count %q: %w", output, err)
	}
	return count, nil
}

// CommitExistsInDir checks if a commit object is present in the local clone
func CommitExistsInDir(dir, sha string) bool {
	cmd := exec.Command("git", "cat-file", "-e", sha+"^{commit}")
	cmd.Dir = dir
	return cmd.Run() == nil
}

// FirstParentInDir resolves the first parent of a commit. It fails for root
// commits and for the boundary commits of a shallow clone.
func FirstParentInDir(dir, sha string) (string, error) {
	output, err := gitOutput(dir, "rev-parse", "--verify", "--quiet", sha+"^1^{commit}")
	if err != nil {
		return "", fmt.Errorf("failed to resolve parent of %s: %w", sha, err)
	}
	return output, nil
}

func gitOutput(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
