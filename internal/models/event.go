package models

// Operation is the branch of the apply/revert state table that ran
type Operation string

const (
	OpApply  Operation = "apply"
	OpRevert Operation = "revert"
	OpNone   Operation = "none"
)

// CommentEvent is a normalized issue_comment webhook delivery
type CommentEvent struct {
	Action        string
	CommentID     int64
	Body          string
	PreviousBody  *string
	PRNumber      int
	IsPullRequest bool
	Sender        string
	SenderIsBot   bool
}

// ProcessResult summarizes what a single delivery did
type ProcessResult struct {
	Operation Operation      `json:"operation"`
	Skipped   bool           `json:"skipped"`
	Reason    string         `json:"reason,omitempty"`
	Commits   []CommitResult `json:"commits,omitempty"`
	Marker    *IntentMarker  `json:"marker,omitempty"`
}
