package cmd

import (
	"fmt"
	"os"

	"github.com/pders01/intent/internal/approval"
	"github.com/pders01/intent/internal/config"
	"github.com/pders01/intent/internal/debounce"
	"github.com/pders01/intent/internal/failure"
	"github.com/pders01/intent/internal/github"
	"github.com/pders01/intent/internal/history"
	"github.com/spf13/cobra"
)

var (
	handleEvent    string
	handleLocal    string
	handleComments string
	handleJSON     bool
	handleToon     bool
)

var handleCmd = &cobra.Command{
	Use:   "handle",
	Short: "Process one issue_comment delivery",
	Long: `Process a single issue_comment webhook delivery.

The command waits for the checkbox to settle, re-reads the comment and then
applies, reverts or ignores the suggestion according to its marker.

Edits that leave the checkbox as it was are ignored, unless an earlier run
failed and the marker still disagrees with the checkbox. Any later edit or
redelivery then retries the change.

By default the payload is read from $GITHUB_EVENT_PATH and changes are made
through the GitHub API. With --local, commits go to the checked out branch of
a local clone and comments are read from <id>.md files.

Examples:
  intent handle
  intent handle --event payload.json --json
  intent handle --event payload.json --local . --comments .intent/comments`,
	RunE: runHandle,
}

func init() {
	rootCmd.AddCommand(handleCmd)

	handleCmd.Flags().StringVar(&handleEvent, "event", "", "Event payload file (default $GITHUB_EVENT_PATH)")
	handleCmd.Flags().StringVar(&handleLocal, "local", "", "Use the git clone at this path instead of the GitHub API")
	handleCmd.Flags().StringVar(&handleComments, "comments", "", "Comment directory for --local (default <repo>/.intent/comments)")
	handleCmd.Flags().BoolVar(&handleJSON, "json", false, "Output as JSON")
	handleCmd.Flags().BoolVar(&handleToon, "toon", false, "Output in LLM-friendly toon format")
}

func runHandle(cmd *cobra.Command, args []string) error {
	log := newLogger()

	eventPath := handleEvent
	if eventPath == "" {
		eventPath = config.GetEventPath()
	}
	if eventPath == "" {
		return fmt.Errorf("no event payload: pass --event or set GITHUB_EVENT_PATH")
	}

	payload, err := os.ReadFile(eventPath)
	if err != nil {
		return fmt.Errorf("failed to read event payload: %w", err)
	}
	event, err := github.ParseCommentEvent(payload)
	if err != nil {
		return err
	}

	pairing, err := config.GetPairingMode()
	if err != nil {
		return err
	}

	backend, err := openCollaborators(handleLocal, handleComments)
	if err != nil {
		return err
	}

	opts := []approval.Option{approval.WithPairing(pairing), approval.WithLogger(log)}
	if config.ShouldValidateHistory() {
		opts = append(opts, approval.WithHistoryValidator(history.NewValidator(backend.historyDir, log)))
	}
	engine := approval.NewEngine(backend.repo, backend.comments, opts...)
	stabilizer := debounce.New(backend.comments, config.GetDebounceDelay(), log)
	handler := approval.NewHandler(backend.prs, stabilizer, engine, log)

	end := log.Group(fmt.Sprintf("comment %d on #%d", event.CommentID, event.PRNumber))
	result, err := handler.Handle(commandContext(cmd), *event)
	end()
	if err != nil {
		if failure.IsAlreadyReported(err) {
			return err
		}
		log.Errorf("%v", err)
		return &failure.ActionFailedError{Reason: "failed to process comment", Err: err}
	}

	if err := writeStepOutputs(config.GetOutputPath(), result); err != nil {
		log.Warnf("%v", err)
	}
	return printResult(result, handleJSON, handleToon)
}
