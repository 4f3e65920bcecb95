// Package localrepo runs the approval flow against a git checkout on disk
// instead of the GitHub API. Commits land on the checked out branch.
package localrepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/pders01/intent/internal/models"
)

const (
	defaultAuthorName  = "intent"
	defaultAuthorEmail = "intent@users.noreply.github.com"
)

// Repo reads and commits files in a local repository
type Repo struct {
	repo        *git.Repository
	root        string
	authorName  string
	authorEmail string
}

// Open opens the repository containing dir
func Open(dir, authorName, authorEmail string) (*Repo, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	if authorName == "" {
		authorName = defaultAuthorName
	}
	if authorEmail == "" {
		authorEmail = defaultAuthorEmail
	}
	return &Repo{
		repo:        repo,
		root:        worktree.Filesystem.Root(),
		authorName:  authorName,
		authorEmail: authorEmail,
	}, nil
}

// Root returns the worktree root
func (r *Repo) Root() string {
	return r.root
}

// GetPullRequest describes the checked out branch as the pull request head
func (r *Repo) GetPullRequest(ctx context.Context, number int) (*models.PullRequest, error) {
	head, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return nil, fmt.Errorf("HEAD is detached at %s", head.Hash())
	}
	return &models.PullRequest{
		Number:  number,
		HeadSHA: head.Hash().String(),
		HeadRef: head.Name().Short(),
	}, nil
}

// GetFileContent reads path at ref, which may be a branch name or commit hash
func (r *Repo) GetFileContent(ctx context.Context, path, ref string) (*models.FileContent, error) {
	commit, err := r.commitAt(ref)
	if err != nil {
		return nil, err
	}
	file, err := commit.File(filepath.ToSlash(path))
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, fmt.Errorf("%s at %s: %w", path, ref, models.ErrNotFound)
		}
		return nil, fmt.Errorf("load %s at %s: %w", path, ref, err)
	}
	content, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("read %s at %s: %w", path, ref, err)
	}
	return &models.FileContent{SHA: file.Hash.String(), Content: content}, nil
}

// CreateOrUpdateFile writes content to path on branch and commits it
func (r *Repo) CreateOrUpdateFile(ctx context.Context, path, content, message, branch string) (*models.CommitResult, error) {
	full, err := r.resolvePath(path)
	if err != nil {
		return nil, err
	}
	worktree, err := r.checkout(branch)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, fmt.Errorf("create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	if _, err := worktree.Add(filepath.ToSlash(path)); err != nil {
		return nil, fmt.Errorf("git add %s: %w", path, err)
	}
	return r.commit(worktree, path, message)
}

// DeleteFile removes path on branch and commits the removal. It returns an
// error wrapping models.ErrNotFound when path is not tracked on branch.
func (r *Repo) DeleteFile(ctx context.Context, path, message, branch string) (*models.CommitResult, error) {
	if _, err := r.resolvePath(path); err != nil {
		return nil, err
	}
	if _, err := r.GetFileContent(ctx, path, branch); err != nil {
		return nil, err
	}
	worktree, err := r.checkout(branch)
	if err != nil {
		return nil, err
	}
	if _, err := worktree.Remove(filepath.ToSlash(path)); err != nil {
		return nil, fmt.Errorf("git rm %s: %w", path, err)
	}
	return r.commit(worktree, path, message)
}

// GetCommit returns the parents and message of a commit
func (r *Repo) GetCommit(ctx context.Context, sha string) (*models.Commit, error) {
	commit, err := r.commitAt(sha)
	if err != nil {
		return nil, err
	}
	parents := make([]string, 0, commit.NumParents())
	for _, h := range commit.ParentHashes {
		parents = append(parents, h.String())
	}
	return &models.Commit{SHA: commit.Hash.String(), Parents: parents, Message: commit.Message}, nil
}

// resolvePath maps a repository path onto the worktree, refusing paths that
// would leave it
func (r *Repo) resolvePath(path string) (string, error) {
	local := filepath.FromSlash(path)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("path %q is outside the repository", path)
	}
	return filepath.Join(r.root, local), nil
}

func (r *Repo) commitAt(ref string) (*object.Commit, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, fmt.Errorf("resolve %s: %w", ref, models.ErrNotFound)
		}
		return nil, fmt.Errorf("resolve %s: %w", ref, err)
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, fmt.Errorf("commit %s: %w", ref, models.ErrNotFound)
		}
		return nil, fmt.Errorf("read commit %s: %w", ref, err)
	}
	return commit, nil
}

// checkout switches to branch unless it is already checked out, so local
// edits on the current branch survive
func (r *Repo) checkout(branch string) (*git.Worktree, error) {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}

	branchRef := plumbing.NewBranchReferenceName(branch)
	if head, err := r.repo.Head(); err == nil && head.Name() == branchRef {
		return worktree, nil
	}
	if _, err := r.repo.Reference(branchRef, true); err != nil {
		return nil, fmt.Errorf("resolve branch %s: %w", branch, err)
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Branch: branchRef, Keep: true}); err != nil {
		return nil, fmt.Errorf("checkout branch %s: %w", branch, err)
	}
	return worktree, nil
}

func (r *Repo) commit(worktree *git.Worktree, path, message string) (*models.CommitResult, error) {
	hash, err := worktree.Commit(message, &git.CommitOptions{
		AllowEmptyCommits: true,
		Author: &object.Signature{
			Name:  r.authorName,
			Email: r.authorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("commit %s: %w", path, err)
	}
	return &models.CommitResult{SHA: hash.String(), Message: message, Path: path}, nil
}
