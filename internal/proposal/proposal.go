// Package proposal renders suggestion comments that the approval flow can act on.
package proposal

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/pders01/intent/internal/marker"
	"github.com/pders01/intent/internal/models"
	"github.com/pders01/intent/internal/reconstruct"
)

// DefaultMaxChars bounds how much of the current file is sent to the model
const DefaultMaxChars = 30000

// CheckboxLabel is the text next to the approval checkbox
const CheckboxLabel = "Apply this change"

// Suggestion is everything a rendered comment carries
type Suggestion struct {
	NodePath         string
	OtherNodePath    string
	HeadSHA          string
	Reason           string
	CurrentContent   string
	SuggestedContent string
}

// Render builds the comment body for s. The marker starts unapplied.
func Render(s Suggestion) string {
	var b strings.Builder

	fmt.Fprintf(&b, "### Suggested update for `%s`\n\n", s.NodePath)
	if s.OtherNodePath != "" {
		fmt.Fprintf(&b, "Paired with `%s`.\n\n", s.OtherNodePath)
	}
	fmt.Fprintf(&b, "Reason: %s\n\n", singleLine(s.Reason))
	fmt.Fprintf(&b, "- [ ] %s\n", CheckboxLabel)

	lang := language(s.NodePath)
	if s.CurrentContent != "" {
		fmt.Fprintf(&b, "\n#### %s\n\n", reconstruct.CurrentHeading)
		writeFence(&b, lang, s.CurrentContent)
	}
	fmt.Fprintf(&b, "\n#### %s\n\n", reconstruct.SuggestedHeading)
	writeFence(&b, lang, s.SuggestedContent)

	b.WriteString("\n")
	b.WriteString(marker.Encode(models.IntentMarker{
		NodePath:      s.NodePath,
		OtherNodePath: s.OtherNodePath,
		HeadSHA:       s.HeadSHA,
	}))
	b.WriteString("\n")
	return b.String()
}

// Generator produces text from a prompt
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Request describes a suggestion to generate
type Request struct {
	NodePath      string
	OtherNodePath string
	HeadSHA       string
	// CurrentContent is empty when the file does not exist yet
	CurrentContent string
	Instructions   string
	Reason         string
}

// Proposer asks a model for new file content and renders the comment
type Proposer struct {
	gen      Generator
	maxChars int
}

// New creates a Proposer. A non-positive maxChars falls back to DefaultMaxChars.
func New(gen Generator, maxChars int) *Proposer {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Proposer{gen: gen, maxChars: maxChars}
}

const systemPrompt = "You maintain documentation files for coding agents. " +
	"Reply with the complete new file content only, without commentary."

// Propose generates the suggested content and returns the comment body
func (p *Proposer) Propose(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Instructions) == "" {
		return "", fmt.Errorf("instructions cannot be empty")
	}

	out, err := p.gen.Generate(ctx, systemPrompt, p.prompt(req))
	if err != nil {
		return "", fmt.Errorf("failed to generate suggestion for %s: %w", req.NodePath, err)
	}
	suggested := CleanOutput(out)
	if suggested == "" {
		return "", fmt.Errorf("model returned no content for %s", req.NodePath)
	}

	reason := req.Reason
	if reason == "" {
		reason = singleLine(req.Instructions)
	}
	return Render(Suggestion{
		NodePath:         req.NodePath,
		OtherNodePath:    req.OtherNodePath,
		HeadSHA:          req.HeadSHA,
		Reason:           reason,
		CurrentContent:   normalize(req.CurrentContent),
		SuggestedContent: suggested,
	}), nil
}

func (p *Proposer) prompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\n\n", req.NodePath)
	if req.CurrentContent == "" {
		b.WriteString("The file does not exist yet.\n\n")
	} else {
		current := req.CurrentContent
		if len(current) > p.maxChars {
			current = current[:p.maxChars] + "\n[truncated]\n"
		}
		fmt.Fprintf(&b, "Current content:\n%s\n\n", current)
	}
	fmt.Fprintf(&b, "Requested change:\n%s\n", req.Instructions)
	return b.String()
}

// CleanOutput strips a fence the model wrapped around its whole answer and
// normalizes the trailing newline
func CleanOutput(out string) string {
	out = strings.TrimSpace(strings.ReplaceAll(out, "\r\n", "\n"))
	lines := strings.Split(out, "\n")
	if len(lines) >= 2 {
		first := strings.TrimSpace(lines[0])
		last := strings.TrimSpace(lines[len(lines)-1])
		if isFenceLine(first) && isFenceLine(last) && strings.Trim(last, "`~") == "" {
			out = strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
		}
	}
	return normalize(out)
}

func writeFence(b *strings.Builder, lang, content string) {
	fence := strings.Repeat("`", fenceWidth(content))
	fmt.Fprintf(b, "%s%s\n%s%s\n", fence, lang, normalize(content), fence)
}

// fenceWidth is one more than the longest backtick run in content, at least 3
func fenceWidth(content string) int {
	longest, run := 0, 0
	for i := 0; i < len(content); i++ {
		if content[i] == '`' {
			run++
			longest = max(longest, run)
			continue
		}
		run = 0
	}
	return max(3, longest+1)
}

func isFenceLine(line string) bool {
	return strings.HasPrefix(line, "```") || strings.HasPrefix(line, "~~~")
}

func normalize(content string) string {
	if content == "" || strings.HasSuffix(content, "\n") {
		return content
	}
	return content + "\n"
}

func singleLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return models.DefaultReason
	}
	return s
}

func language(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".md", ".mdc", ".markdown":
		return "markdown"
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	}
	return ""
}
