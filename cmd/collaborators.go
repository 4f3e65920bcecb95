package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pders01/intent/internal/approval"
	"github.com/pders01/intent/internal/config"
	"github.com/pders01/intent/internal/github"
	"github.com/pders01/intent/internal/localrepo"
	"github.com/pders01/intent/internal/models"
)

// defaultCommentsDir holds local-mode comments, relative to the worktree root
const defaultCommentsDir = ".intent/comments"

type commentCreator interface {
	CreateComment(ctx context.Context, number int, body string) (*models.Comment, error)
}

// collaborators is one backend: GitHub, or a local clone plus comment files
type collaborators struct {
	repo       approval.Repository
	comments   approval.CommentStore
	prs        approval.PullRequests
	poster     commentCreator
	historyDir string
}

func openCollaborators(localDir, commentsDir string) (*collaborators, error) {
	name, email := config.GetCommitAuthor()

	if localDir != "" {
		repo, err := localrepo.Open(localDir, name, email)
		if err != nil {
			return nil, err
		}
		if commentsDir == "" {
			commentsDir = filepath.Join(repo.Root(), defaultCommentsDir)
		}
		comments := localrepo.NewCommentDir(commentsDir)
		return &collaborators{
			repo:       repo,
			comments:   comments,
			prs:        repo,
			poster:     comments,
			historyDir: repo.Root(),
		}, nil
	}

	client, err := github.NewClient(config.GetGitHubConfig(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}
	return &collaborators{
		repo:       client,
		comments:   client,
		prs:        client,
		poster:     client,
		historyDir: config.GetHistoryDir(),
	}, nil
}
