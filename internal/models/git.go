package models

import "errors"

// ErrNotFound is returned by collaborators when a file, comment or commit does not exist
var ErrNotFound = errors.New("not found")

// CommitTag marks commits created by the approval flow
type CommitTag string

const (
	TagAdd    CommitTag = "[INTENT:ADD]"
	TagUpdate CommitTag = "[INTENT:UPDATE]"
	TagRevert CommitTag = "[INTENT:REVERT]"
)

// CommitResult describes a commit created on behalf of an approval
type CommitResult struct {
	SHA     string `json:"sha"`
	URL     string `json:"url,omitempty"`
	Message string `json:"message"`
	Path    string `json:"path"`
}

// FileContent is a file read at a specific ref
type FileContent struct {
	SHA     string
	Content string
}

// Commit is the subset of commit data the revert path needs
type Commit struct {
	SHA     string
	Parents []string
	Message string
}

// Comment is a pull request conversation comment
type Comment struct {
	ID   int64
	Body string
}

// PullRequest carries the head the approval is checked against
type PullRequest struct {
	Number  int
	HeadSHA string
	HeadRef string
}

// GitHistoryValidationResult reports whether the local clone can resolve parents for revert
type GitHistoryValidationResult struct {
	Valid          bool   `json:"valid"`
	IsShallowClone bool   `json:"is_shallow_clone"`
	CloneDepth     *int   `json:"clone_depth,omitempty"`
	Error          string `json:"error,omitempty"`
}
