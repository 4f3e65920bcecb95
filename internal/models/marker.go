package models

// IntentMarker is the approval record embedded in a suggestion comment.
// NodePath and HeadSHA are always present in a valid marker.
type IntentMarker struct {
	NodePath      string `json:"node_path"`
	OtherNodePath string `json:"other_node_path,omitempty"`
	AppliedCommit string `json:"applied_commit"`
	HeadSHA       string `json:"head_sha"`
}

// IsApplied reports whether the suggestion has been committed
func (m IntentMarker) IsApplied() bool {
	return m.AppliedCommit != ""
}

// WithAppliedCommit returns a copy of the marker with AppliedCommit replaced
func (m IntentMarker) WithAppliedCommit(sha string) IntentMarker {
	m.AppliedCommit = sha
	return m
}

// Paths returns the primary path followed by the paired path, if any
func (m IntentMarker) Paths() []string {
	if m.OtherNodePath == "" {
		return []string{m.NodePath}
	}
	return []string{m.NodePath, m.OtherNodePath}
}

// DebounceResult is the outcome of waiting for a checkbox edit to settle.
// Body, Checked and Marker are only meaningful when Stable is true.
type DebounceResult struct {
	Stable  bool          `json:"stable"`
	Body    string        `json:"-"`
	Checked bool          `json:"checked"`
	Marker  *IntentMarker `json:"marker,omitempty"`
	Reason  string        `json:"reason,omitempty"`
}
