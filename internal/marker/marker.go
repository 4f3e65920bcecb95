// Package marker encodes the approval record that lives inside a suggestion comment.
//
// The record is a single HTML comment so it stays invisible in rendered markdown:
//
//	<!-- intent-marker node=docs/AGENTS.md appliedCommit= headSha=abc123 -->
package marker

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/pders01/intent/internal/models"
)

const (
	// Prefix opens the marker segment
	Prefix = "<!-- intent-marker"
	// Suffix closes the marker segment
	Suffix = "-->"

	keyNode          = "node"
	keyOtherNode     = "otherNode"
	keyAppliedCommit = "appliedCommit"
	keyHeadSHA       = "headSha"
)

var checkboxPattern = regexp.MustCompile(`(?m)^[ \t]*[-*][ \t]+\[([ xX])\]`)

// Encode serializes a marker to its single-line wire form
func Encode(m models.IntentMarker) string {
	var b strings.Builder
	b.WriteString(Prefix)
	b.WriteString(" " + keyNode + "=" + encodePath(m.NodePath))
	if m.OtherNodePath != "" {
		b.WriteString(" " + keyOtherNode + "=" + encodePath(m.OtherNodePath))
	}
	b.WriteString(" " + keyAppliedCommit + "=" + m.AppliedCommit)
	b.WriteString(" " + keyHeadSHA + "=" + m.HeadSHA)
	b.WriteString(" " + Suffix)
	return b.String()
}

// Decode extracts the marker from a comment body. It reports false when the
// delimiters are missing or node/headSha are absent.
func Decode(body string) (models.IntentMarker, bool) {
	segment, _, _, ok := locate(body)
	if !ok {
		return models.IntentMarker{}, false
	}

	var m models.IntentMarker
	for _, token := range strings.Fields(segment) {
		key, value, found := strings.Cut(token, "=")
		if !found {
			continue
		}
		switch key {
		case keyNode:
			m.NodePath = decodePath(value)
		case keyOtherNode:
			m.OtherNodePath = decodePath(value)
		case keyAppliedCommit:
			m.AppliedCommit = value
		case keyHeadSHA:
			m.HeadSHA = value
		}
	}

	if m.NodePath == "" || m.HeadSHA == "" {
		return models.IntentMarker{}, false
	}
	return m, true
}

// Replace rewrites the marker inside body, appending it when none is present
func Replace(body string, m models.IntentMarker) string {
	_, start, end, ok := locate(body)
	if !ok {
		if body != "" && !strings.HasSuffix(body, "\n") {
			body += "\n"
		}
		return body + "\n" + Encode(m) + "\n"
	}
	return body[:start] + Encode(m) + body[end:]
}

// IsCheckboxChecked reports the state of the first markdown checkbox in body.
// A body without a checkbox counts as unchecked.
func IsCheckboxChecked(body string) bool {
	match := checkboxPattern.FindStringSubmatch(body)
	if match == nil {
		return false
	}
	return strings.EqualFold(match[1], "x")
}

// SetCheckbox sets the first checkbox in body to the given state
func SetCheckbox(body string, checked bool) string {
	loc := checkboxPattern.FindStringSubmatchIndex(body)
	if loc == nil {
		return body
	}
	mark := " "
	if checked {
		mark = "x"
	}
	return body[:loc[2]] + mark + body[loc[3]:]
}

// locate returns the text between the delimiters and the byte range of the
// whole marker including delimiters
func locate(body string) (segment string, start, end int, ok bool) {
	start = strings.Index(body, Prefix)
	if start < 0 {
		return "", 0, 0, false
	}
	inner := start + len(Prefix)
	rel := strings.Index(body[inner:], Suffix)
	if rel < 0 {
		return "", 0, 0, false
	}
	end = inner + rel + len(Suffix)
	return body[inner : inner+rel], start, end, true
}

// encodePath escapes each segment so slashes stay readable
func encodePath(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

func decodePath(value string) string {
	decoded, err := url.PathUnescape(value)
	if err != nil {
		return value
	}
	return decoded
}
