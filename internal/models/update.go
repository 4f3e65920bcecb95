package models

// UpdateAction defines whether a suggestion creates or replaces a file
type UpdateAction string

const (
	ActionCreate UpdateAction = "create"
	ActionUpdate UpdateAction = "update"
)

// DefaultReason is used when the comment carries no Reason line
const DefaultReason = "Approved via checkbox"

// ReconstructedUpdate is the change request recovered from a comment body
type ReconstructedUpdate struct {
	NodePath         string       `json:"node_path"`
	OtherNodePath    string       `json:"other_node_path,omitempty"`
	Action           UpdateAction `json:"action"`
	SuggestedContent string       `json:"suggested_content"`
	CurrentContent   string       `json:"current_content,omitempty"`
	Reason           string       `json:"reason"`
}
