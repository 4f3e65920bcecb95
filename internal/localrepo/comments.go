package localrepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pders01/intent/internal/models"
)

// CommentDir stores comments as <id>.md files
type CommentDir struct {
	dir string
}

// NewCommentDir returns a comment store rooted at dir
func NewCommentDir(dir string) *CommentDir {
	return &CommentDir{dir: dir}
}

// Path returns the file that holds comment id
func (c *CommentDir) Path(id int64) string {
	return filepath.Join(c.dir, strconv.FormatInt(id, 10)+".md")
}

// GetComment reads a comment file
func (c *CommentDir) GetComment(ctx context.Context, id int64) (*models.Comment, error) {
	data, err := os.ReadFile(c.Path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("comment %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read comment %d: %w", id, err)
	}
	return &models.Comment{ID: id, Body: string(data)}, nil
}

// UpdateComment overwrites a comment file
func (c *CommentDir) UpdateComment(ctx context.Context, id int64, body string) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create comment directory: %w", err)
	}
	if err := os.WriteFile(c.Path(id), []byte(body), 0o644); err != nil {
		return fmt.Errorf("failed to write comment %d: %w", id, err)
	}
	return nil
}

// CreateComment stores a new comment under the next free id
func (c *CommentDir) CreateComment(ctx context.Context, number int, body string) (*models.Comment, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	var next int64 = 1
	for _, e := range entries {
		name := e.Name()
		if filepath.Ext(name) != ".md" {
			continue
		}
		if id, err := strconv.ParseInt(name[:len(name)-3], 10, 64); err == nil && id >= next {
			next = id + 1
		}
	}
	if err := c.UpdateComment(ctx, next, body); err != nil {
		return nil, err
	}
	return &models.Comment{ID: next, Body: body}, nil
}
