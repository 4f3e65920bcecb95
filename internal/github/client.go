// Package github talks to the GitHub REST API on behalf of the approval flow.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v66/github"

	"github.com/pders01/intent/internal/models"
)

// DefaultAPIURL is the public GitHub REST endpoint
const DefaultAPIURL = "https://api.github.com/"

// Config identifies the repository and credentials to use
type Config struct {
	Token string
	// Repository is "owner/name", as in GITHUB_REPOSITORY
	Repository string
	// APIURL overrides the REST endpoint, as in GITHUB_API_URL
	APIURL      string
	AuthorName  string
	AuthorEmail string
}

// Client implements the repository, comment and pull request collaborators
type Client struct {
	gh     *gh.Client
	owner  string
	repo   string
	author *gh.CommitAuthor
}

// NewClient creates a Client for cfg.Repository
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	owner, repo, ok := strings.Cut(cfg.Repository, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("invalid repository %q: expected owner/name", cfg.Repository)
	}

	client := gh.NewClient(httpClient)
	if cfg.Token != "" {
		client = client.WithAuthToken(cfg.Token)
	}
	if cfg.APIURL != "" && cfg.APIURL != DefaultAPIURL {
		base, err := url.Parse(strings.TrimSuffix(cfg.APIURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid api url %q: %w", cfg.APIURL, err)
		}
		client.BaseURL = base
	}

	c := &Client{gh: client, owner: owner, repo: repo}
	if cfg.AuthorName != "" && cfg.AuthorEmail != "" {
		c.author = &gh.CommitAuthor{Name: gh.String(cfg.AuthorName), Email: gh.String(cfg.AuthorEmail)}
	}
	return c, nil
}

// GetComment fetches an issue comment
func (c *Client) GetComment(ctx context.Context, id int64) (*models.Comment, error) {
	comment, resp, err := c.gh.Issues.GetComment(ctx, c.owner, c.repo, id)
	if err != nil {
		return nil, wrap(resp, err, "failed to get comment %d", id)
	}
	return &models.Comment{ID: comment.GetID(), Body: comment.GetBody()}, nil
}

// UpdateComment replaces the body of an issue comment
func (c *Client) UpdateComment(ctx context.Context, id int64, body string) error {
	_, resp, err := c.gh.Issues.EditComment(ctx, c.owner, c.repo, id, &gh.IssueComment{Body: gh.String(body)})
	if err != nil {
		return wrap(resp, err, "failed to update comment %d", id)
	}
	return nil
}

// CreateComment posts a new comment on a pull request
func (c *Client) CreateComment(ctx context.Context, number int, body string) (*models.Comment, error) {
	comment, resp, err := c.gh.Issues.CreateComment(ctx, c.owner, c.repo, number, &gh.IssueComment{Body: gh.String(body)})
	if err != nil {
		return nil, wrap(resp, err, "failed to comment on #%d", number)
	}
	return &models.Comment{ID: comment.GetID(), Body: comment.GetBody()}, nil
}

// GetPullRequest resolves the head commit and branch of a pull request
func (c *Client) GetPullRequest(ctx context.Context, number int) (*models.PullRequest, error) {
	pr, resp, err := c.gh.PullRequests.Get(ctx, c.owner, c.repo, number)
	if err != nil {
		return nil, wrap(resp, err, "failed to get pull request #%d", number)
	}
	return &models.PullRequest{
		Number:  pr.GetNumber(),
		HeadSHA: pr.GetHead().GetSHA(),
		HeadRef: pr.GetHead().GetRef(),
	}, nil
}

// GetFileContent reads path at ref
func (c *Client) GetFileContent(ctx context.Context, path, ref string) (*models.FileContent, error) {
	file, _, resp, err := c.gh.Repositories.GetContents(ctx, c.owner, c.repo, path, &gh.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		return nil, wrap(resp, err, "failed to read %s at %s", path, ref)
	}
	if file == nil {
		return nil, fmt.Errorf("%s at %s is a directory", path, ref)
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &models.FileContent{SHA: file.GetSHA(), Content: content}, nil
}

// CreateOrUpdateFile commits content to path on branch
func (c *Client) CreateOrUpdateFile(ctx context.Context, path, content, message, branch string) (*models.CommitResult, error) {
	opts := &gh.RepositoryContentFileOptions{
		Message:   gh.String(message),
		Content:   []byte(content),
		Branch:    gh.String(branch),
		Committer: c.author,
	}

	existing, err := c.GetFileContent(ctx, path, branch)
	switch {
	case err == nil:
		opts.SHA = gh.String(existing.SHA)
		res, resp, err := c.gh.Repositories.UpdateFile(ctx, c.owner, c.repo, path, opts)
		if err != nil {
			return nil, wrap(resp, err, "failed to update %s", path)
		}
		return commitResult(res, path, message), nil
	case errors.Is(err, models.ErrNotFound):
		res, resp, err := c.gh.Repositories.CreateFile(ctx, c.owner, c.repo, path, opts)
		if err != nil {
			return nil, wrap(resp, err, "failed to create %s", path)
		}
		return commitResult(res, path, message), nil
	default:
		return nil, err
	}
}

// DeleteFile removes path on branch. It returns an error wrapping
// models.ErrNotFound when the file does not exist.
func (c *Client) DeleteFile(ctx context.Context, path, message, branch string) (*models.CommitResult, error) {
	existing, err := c.GetFileContent(ctx, path, branch)
	if err != nil {
		return nil, err
	}
	res, resp, err := c.gh.Repositories.DeleteFile(ctx, c.owner, c.repo, path, &gh.RepositoryContentFileOptions{
		Message:   gh.String(message),
		SHA:       gh.String(existing.SHA),
		Branch:    gh.String(branch),
		Committer: c.author,
	})
	if err != nil {
		return nil, wrap(resp, err, "failed to delete %s", path)
	}
	return commitResult(res, path, message), nil
}

// GetCommit returns the parents and message of a commit
func (c *Client) GetCommit(ctx context.Context, sha string) (*models.Commit, error) {
	commit, resp, err := c.gh.Git.GetCommit(ctx, c.owner, c.repo, sha)
	if err != nil {
		return nil, wrap(resp, err, "failed to get commit %s", sha)
	}
	parents := make([]string, 0, len(commit.Parents))
	for _, p := range commit.Parents {
		parents = append(parents, p.GetSHA())
	}
	return &models.Commit{SHA: commit.GetSHA(), Parents: parents, Message: commit.GetMessage()}, nil
}

func commitResult(res *gh.RepositoryContentResponse, path, message string) *models.CommitResult {
	return &models.CommitResult{
		SHA:     res.Commit.GetSHA(),
		URL:     res.Commit.GetHTMLURL(),
		Message: message,
		Path:    path,
	}
}

// wrap maps 404 responses onto models.ErrNotFound
func wrap(resp *gh.Response, err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", msg, models.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
