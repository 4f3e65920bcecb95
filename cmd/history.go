package cmd

import (
	"fmt"

	"github.com/pders01/intent/internal/config"
	"github.com/pders01/intent/internal/failure"
	"github.com/pders01/intent/internal/history"
	"github.com/spf13/cobra"
)

var (
	historyDir  string
	historyJSON bool
	historyToon bool
)

var validateHistoryCmd = &cobra.Command{
	Use:   "validate-history [sha]",
	Short: "Check that the local clone can revert a commit",
	Long: `Check that the clone has enough history to revert a commit.

A revert reads the parent of the applied commit. Shallow clones, as created by
actions/checkout with its default fetch-depth of 1, usually lack it.
Use fetch-depth: 0 in the workflow to avoid the problem.

Examples:
  intent validate-history
  intent validate-history 3f2a9c1 --dir ./repo --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidateHistory,
}

func init() {
	rootCmd.AddCommand(validateHistoryCmd)

	validateHistoryCmd.Flags().StringVar(&historyDir, "dir", "", "Clone to inspect (default history.dir)")
	validateHistoryCmd.Flags().BoolVar(&historyJSON, "json", false, "Output as JSON")
	validateHistoryCmd.Flags().BoolVar(&historyToon, "toon", false, "Output in LLM-friendly toon format")
}

func runValidateHistory(cmd *cobra.Command, args []string) error {
	dir := historyDir
	if dir == "" {
		dir = config.GetHistoryDir()
	}
	sha := ""
	if len(args) == 1 {
		sha = args[0]
	}

	result := history.NewValidator(dir, nil).Validate(sha)

	if done, err := printStructured(result, historyJSON, historyToon); done {
		if err != nil {
			return err
		}
	} else if result.Valid {
		fmt.Println("History: ok")
		if result.IsShallowClone && result.CloneDepth != nil {
			fmt.Printf("Shallow clone with depth %d\n", *result.CloneDepth)
		}
	} else {
		fmt.Printf("History: insufficient\n%s\n", result.Error)
	}

	if !result.Valid {
		return &failure.ActionFailedError{Reason: result.Error}
	}
	return nil
}
