// Package reconstruct recovers a structured change request from the markdown of
// a suggestion comment.
package reconstruct

import (
	"regexp"
	"strings"

	"github.com/pders01/intent/internal/models"
)

const (
	// SuggestedHeading introduces the proposed file content
	SuggestedHeading = "Suggested Content"
	// CurrentHeading introduces the file content the suggestion replaces
	CurrentHeading = "Current Content"
)

var reasonPattern = regexp.MustCompile(`^[ \t>]*(?:\*\*|__)?Reason:(?:\*\*|__)?[ \t]*(.*?)[ \t]*$`)

// Reconstruct builds the update described by body. Paths come from the marker;
// missing or malformed sections produce empty strings rather than errors.
func Reconstruct(body string, m models.IntentMarker, action models.UpdateAction) models.ReconstructedUpdate {
	doc := parseDocument(body)

	update := models.ReconstructedUpdate{
		NodePath:      m.NodePath,
		OtherNodePath: m.OtherNodePath,
		Action:        action,
		Reason:        reason(doc),
	}

	_, _, hasSuggested := doc.heading(SuggestedHeading)
	_, _, hasCurrent := doc.heading(CurrentHeading)
	if hasSuggested || hasCurrent {
		update.SuggestedContent = section(doc, SuggestedHeading)
		update.CurrentContent = section(doc, CurrentHeading)
		return update
	}

	update.SuggestedContent, update.CurrentContent = fromDiff(doc)
	return update
}

// InferAction reports update when the comment shows existing content, create otherwise
func InferAction(body string) models.UpdateAction {
	u := Reconstruct(body, models.IntentMarker{}, models.ActionCreate)
	if u.CurrentContent != "" {
		return models.ActionUpdate
	}
	return models.ActionCreate
}

func section(doc *document, title string) string {
	idx, level, ok := doc.heading(title)
	if !ok {
		return ""
	}
	f, ok := doc.fenceUnder(idx, level)
	if !ok {
		return ""
	}
	return f.content()
}

// fromDiff splits the first unified diff block into added and removed content
func fromDiff(doc *document) (string, string) {
	f, ok := diffFence(doc)
	if !ok || !f.closed {
		return "", ""
	}

	var added, removed []string
	for _, line := range f.lines {
		if isDiffHeader(line) || strings.HasPrefix(line, "@@") {
			continue
		}
		switch {
		case singlePrefix(line, '+'):
			added = append(added, line[1:])
		case singlePrefix(line, '-'):
			removed = append(removed, line[1:])
		}
	}
	return joinLines(added), joinLines(removed)
}

// singlePrefix reports whether line starts with exactly one c
func singlePrefix(line string, c byte) bool {
	return len(line) > 0 && line[0] == c && (len(line) == 1 || line[1] != c)
}

func diffFence(doc *document) (fence, bool) {
	for _, f := range doc.fences {
		fields := strings.Fields(f.info)
		if len(fields) == 0 {
			continue
		}
		if lang := strings.ToLower(fields[0]); lang == "diff" || lang == "patch" {
			return f, true
		}
	}
	for _, f := range doc.fences {
		for _, line := range f.lines {
			if strings.HasPrefix(line, "@@") {
				return f, true
			}
		}
	}
	return fence{}, false
}

func isDiffHeader(line string) bool {
	for _, prefix := range []string{"--- ", "+++ ", "diff ", "index "} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return line == "---" || line == "+++"
}

func reason(doc *document) string {
	for i, line := range doc.lines {
		if doc.inside[i] {
			continue
		}
		if match := reasonPattern.FindStringSubmatch(line); match != nil && match[1] != "" {
			return match[1]
		}
	}
	return models.DefaultReason
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
