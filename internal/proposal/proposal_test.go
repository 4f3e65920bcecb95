package proposal

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pders01/intent/internal/marker"
	"github.com/pders01/intent/internal/models"
	"github.com/pders01/intent/internal/reconstruct"
)

func TestRenderReconstructs(t *testing.T) {
	tests := []struct {
		name       string
		suggestion Suggestion
		wantAction models.UpdateAction
	}{
		{
			name: "new file",
			suggestion: Suggestion{
				NodePath:         "AGENTS.md",
				HeadSHA:          "abc123",
				Reason:           "document setup",
				SuggestedContent: "# Agents\n\nRun `make test`.\n",
			},
			wantAction: models.ActionCreate,
		},
		{
			name: "update with nested fences",
			suggestion: Suggestion{
				NodePath:         "packages/api/AGENTS.md",
				OtherNodePath:    "packages/api/CLAUDE.md",
				HeadSHA:          "def456",
				Reason:           "add example",
				CurrentContent:   "# API\n",
				SuggestedContent: "# API\n\n```go\nfunc main() {}\n```\n\n#### Suggested Content\n\nReason: not this one\n",
			},
			wantAction: models.ActionUpdate,
		},
		{
			name: "content with long backtick runs and tildes",
			suggestion: Suggestion{
				NodePath:         "docs/rules.md",
				HeadSHA:          "aaa",
				Reason:           "fences",
				CurrentContent:   "old\n",
				SuggestedContent: "`````\nnested\n`````\n~~~\ntilde\n~~~\n",
			},
			wantAction: models.ActionUpdate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := Render(tt.suggestion)

			m, ok := marker.Decode(body)
			if !ok {
				t.Fatalf("rendered body has no marker:\n%s", body)
			}
			if m.NodePath != tt.suggestion.NodePath || m.OtherNodePath != tt.suggestion.OtherNodePath || m.HeadSHA != tt.suggestion.HeadSHA {
				t.Errorf("unexpected marker %+v", m)
			}
			if m.IsApplied() {
				t.Error("expected new suggestion to be unapplied")
			}
			if marker.IsCheckboxChecked(body) {
				t.Error("expected checkbox to start unchecked")
			}

			action := reconstruct.InferAction(body)
			if action != tt.wantAction {
				t.Errorf("expected action %s, got %s", tt.wantAction, action)
			}

			update := reconstruct.Reconstruct(body, m, action)
			if update.SuggestedContent != tt.suggestion.SuggestedContent {
				t.Errorf("suggested content mismatch\nwant %q\ngot  %q", tt.suggestion.SuggestedContent, update.SuggestedContent)
			}
			if update.CurrentContent != tt.suggestion.CurrentContent {
				t.Errorf("current content mismatch\nwant %q\ngot  %q", tt.suggestion.CurrentContent, update.CurrentContent)
			}
			if update.Reason != tt.suggestion.Reason {
				t.Errorf("expected reason %q, got %q", tt.suggestion.Reason, update.Reason)
			}
		})
	}
}

func TestRenderReasonIsSingleLine(t *testing.T) {
	body := Render(Suggestion{NodePath: "AGENTS.md", HeadSHA: "a", Reason: "first\nsecond", SuggestedContent: "x\n"})
	if !strings.Contains(body, "Reason: first second\n") {
		t.Errorf("expected collapsed reason in:\n%s", body)
	}

	body = Render(Suggestion{NodePath: "AGENTS.md", HeadSHA: "a", SuggestedContent: "x\n"})
	if !strings.Contains(body, "Reason: "+models.DefaultReason) {
		t.Errorf("expected default reason in:\n%s", body)
	}
}

func TestFenceWidth(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"plain", 3},
		{"`inline`", 3},
		{"```\ncode\n```", 4},
		{"``````", 7},
	}
	for _, tt := range tests {
		if got := fenceWidth(tt.content); got != tt.want {
			t.Errorf("fenceWidth(%q) = %d, want %d", tt.content, got, tt.want)
		}
	}
}

func TestCleanOutput(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "# Title\nbody", "# Title\nbody\n"},
		{"wrapped in markdown fence", "```markdown\n# Title\n```", "# Title\n"},
		{"wrapped in tilde fence", "~~~\n# Title\n~~~\n", "# Title\n"},
		{"inner fence kept", "# Title\n```sh\nmake\n```", "# Title\n```sh\nmake\n```\n"},
		{"crlf", "a\r\nb\r\n", "a\nb\n"},
		{"blank", "  \n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanOutput(tt.in); got != tt.want {
				t.Errorf("CleanOutput(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

type fakeGenerator struct {
	out    string
	err    error
	prompt string
}

func (g *fakeGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	g.prompt = prompt
	return g.out, g.err
}

func TestPropose(t *testing.T) {
	gen := &fakeGenerator{out: "```markdown\n# Agents\nnew\n```\n"}
	p := New(gen, 10)

	body, err := p.Propose(context.Background(), Request{
		NodePath:       "AGENTS.md",
		HeadSHA:        "abc123",
		CurrentContent: "# Agents\nold content that is long",
		Instructions:   "mention the new build step",
	})
	if err != nil {
		t.Fatalf("Propose() error = %v", err)
	}

	if !strings.Contains(gen.prompt, "[truncated]") {
		t.Errorf("expected truncated current content in prompt:\n%s", gen.prompt)
	}

	m, ok := marker.Decode(body)
	if !ok || m.HeadSHA != "abc123" {
		t.Fatalf("unexpected marker in:\n%s", body)
	}
	update := reconstruct.Reconstruct(body, m, reconstruct.InferAction(body))
	if update.SuggestedContent != "# Agents\nnew\n" {
		t.Errorf("unexpected suggested content %q", update.SuggestedContent)
	}
	if update.CurrentContent != "# Agents\nold content that is long\n" {
		t.Errorf("unexpected current content %q", update.CurrentContent)
	}
	if update.Reason != "mention the new build step" {
		t.Errorf("expected instructions as reason, got %q", update.Reason)
	}
}

func TestProposeErrors(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
		req  Request
	}{
		{"no instructions", &fakeGenerator{out: "x"}, Request{NodePath: "AGENTS.md"}},
		{"generator failure", &fakeGenerator{err: errors.New("connection refused")}, Request{NodePath: "AGENTS.md", Instructions: "x"}},
		{"empty output", &fakeGenerator{out: "```\n```"}, Request{NodePath: "AGENTS.md", Instructions: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.gen, 0).Propose(context.Background(), tt.req); err == nil {
				t.Error("expected error")
			}
		})
	}
}
