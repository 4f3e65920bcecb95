package reconstruct

import (
	"strings"
)

// fence is a fenced code block found in a comment body
type fence struct {
	info   string
	start  int
	lines  []string
	closed bool
}

// document is a comment body split into lines with fenced regions marked
type document struct {
	lines  []string
	inside []bool
	fences []fence
}

func parseDocument(body string) *document {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	lines := strings.Split(body, "\n")
	doc := &document{
		lines:  lines,
		inside: make([]bool, len(lines)),
	}

	for i := 0; i < len(lines); i++ {
		char, width, info, ok := openingFence(lines[i])
		if !ok {
			continue
		}
		f := fence{info: info, start: i}
		doc.inside[i] = true
		j := i + 1
		for ; j < len(lines); j++ {
			doc.inside[j] = true
			if closesFence(lines[j], char, width) {
				f.closed = true
				break
			}
			f.lines = append(f.lines, lines[j])
		}
		doc.fences = append(doc.fences, f)
		i = j
	}
	return doc
}

// heading returns the line index and level of the first heading outside a
// fence whose text matches title, case-insensitively
func (d *document) heading(title string) (int, int, bool) {
	for i, line := range d.lines {
		if d.inside[i] {
			continue
		}
		level, text, ok := parseHeading(line)
		if ok && strings.EqualFold(text, title) {
			return i, level, true
		}
	}
	return 0, 0, false
}

// fenceUnder returns the first fence after the heading at line idx, stopping at
// the next heading of the same or a higher level
func (d *document) fenceUnder(idx, level int) (fence, bool) {
	for _, f := range d.fences {
		if f.start <= idx {
			continue
		}
		for i := idx + 1; i < f.start; i++ {
			if d.inside[i] {
				continue
			}
			if l, _, ok := parseHeading(d.lines[i]); ok && l <= level {
				return fence{}, false
			}
		}
		return f, true
	}
	return fence{}, false
}

// content joins the fence body as file content, empty when the fence is unclosed
func (f fence) content() string {
	if !f.closed || len(f.lines) == 0 {
		return ""
	}
	return strings.Join(f.lines, "\n") + "\n"
}

func openingFence(line string) (byte, int, string, bool) {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 || len(trimmed) < 3 {
		return 0, 0, "", false
	}
	char := trimmed[0]
	if char != '`' && char != '~' {
		return 0, 0, "", false
	}
	width := 0
	for width < len(trimmed) && trimmed[width] == char {
		width++
	}
	if width < 3 {
		return 0, 0, "", false
	}
	info := strings.TrimSpace(trimmed[width:])
	if char == '`' && strings.Contains(info, "`") {
		return 0, 0, "", false
	}
	return char, width, info, true
}

func closesFence(line string, char byte, width int) bool {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < width {
		return false
	}
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] != char {
			return false
		}
	}
	return true
}

func parseHeading(line string) (int, string, bool) {
	trimmed := strings.TrimLeft(line, " ")
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return 0, "", false
	}
	rest := trimmed[level:]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return 0, "", false
	}
	text := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(rest), "#"))
	return level, text, true
}
