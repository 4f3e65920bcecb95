package cmd

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pders01/intent/internal/config"
	"github.com/spf13/viper"
)

// setupConfig loads defaults with a debounce short enough for tests
func setupConfig(t *testing.T) {
	t.Helper()
	t.Setenv("GITHUB_EVENT_PATH", "")
	t.Setenv("GITHUB_OUTPUT", "")
	t.Setenv("GITHUB_ACTIONS", "")

	viper.Reset()
	config.Init(viper.GetViper())
	viper.Set("debounce.delay", time.Nanosecond)
	t.Cleanup(viper.Reset)
}

// writeEvent stores an issue_comment payload for an edit on pull request 1
func writeEvent(t *testing.T, commentID int64, body, previous string) string {
	t.Helper()

	payload := map[string]any{
		"action":  "edited",
		"changes": map[string]any{"body": map[string]any{"from": previous}},
		"issue":   map[string]any{"number": 1, "pull_request": map[string]any{"url": "https://example.test/pulls/1"}},
		"comment": map[string]any{"id": commentID, "body": body},
		"sender":  map[string]any{"login": "reviewer", "type": "User"},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}

	path := filepath.Join(t.TempDir(), "event.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write event: %v", err)
	}
	return path
}

// captureStdout runs fn and returns what it printed
func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	old := os.Stdout
	os.Stdout = w

	runErr := fn()

	w.Close()
	os.Stdout = old
	out, _ := io.ReadAll(r)
	return string(out), runErr
}
