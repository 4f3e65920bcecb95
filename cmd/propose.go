package cmd

import (
	"errors"
	"fmt"

	"github.com/pders01/intent/internal/config"
	"github.com/pders01/intent/internal/models"
	"github.com/pders01/intent/internal/ollama"
	"github.com/pders01/intent/internal/proposal"
	"github.com/spf13/cobra"
)

var (
	proposePR           int
	proposeFile         string
	proposeOther        string
	proposeInstructions string
	proposeReason       string
	proposeLocal        string
	proposeComments     string
	proposeDryRun       bool
)

var proposeCmd = &cobra.Command{
	Use:   "propose",
	Short: "Generate a suggestion and post it as an approval comment",
	Long: `Ask a local Ollama model to rewrite a documentation file and post the result
as a comment with an approval checkbox on the pull request.

The suggestion is pinned to the current head of the pull request; if new
commits arrive before the checkbox is ticked it will not be applied.

Examples:
  intent propose --pr 42 --file AGENTS.md --instructions "document the new make targets"
  intent propose --pr 42 --file packages/api/AGENTS.md --other packages/api/CLAUDE.md --instructions "..." --dry-run`,
	Args: cobra.NoArgs,
	RunE: runPropose,
}

func init() {
	rootCmd.AddCommand(proposeCmd)

	proposeCmd.Flags().IntVar(&proposePR, "pr", 0, "Pull request number")
	proposeCmd.Flags().StringVar(&proposeFile, "file", "", "Documentation file to update (required)")
	proposeCmd.Flags().StringVar(&proposeOther, "other", "", "Paired file that mirrors --file")
	proposeCmd.Flags().StringVar(&proposeInstructions, "instructions", "", "What should change (required)")
	proposeCmd.Flags().StringVar(&proposeReason, "reason", "", "Reason shown in the comment (default: the instructions)")
	proposeCmd.Flags().StringVar(&proposeLocal, "local", "", "Use the git clone at this path instead of the GitHub API")
	proposeCmd.Flags().StringVar(&proposeComments, "comments", "", "Comment directory for --local (default <repo>/.intent/comments)")
	proposeCmd.Flags().BoolVar(&proposeDryRun, "dry-run", false, "Print the comment instead of posting it")
}

func runPropose(cmd *cobra.Command, args []string) error {
	if proposeFile == "" || proposeInstructions == "" {
		return fmt.Errorf("--file and --instructions are required")
	}
	if proposeLocal == "" && proposePR <= 0 {
		return fmt.Errorf("--pr is required")
	}
	ctx := commandContext(cmd)

	backend, err := openCollaborators(proposeLocal, proposeComments)
	if err != nil {
		return err
	}

	pr, err := backend.prs.GetPullRequest(ctx, proposePR)
	if err != nil {
		return err
	}

	current := ""
	file, err := backend.repo.GetFileContent(ctx, proposeFile, pr.HeadSHA)
	switch {
	case err == nil:
		current = file.Content
	case !errors.Is(err, models.ErrNotFound):
		return err
	}

	client, err := ollama.NewClient(config.GetOllamaURL(), config.GetOllamaModel())
	if err != nil {
		return err
	}
	if !ollama.IsAvailable(config.GetOllamaURL()) {
		return fmt.Errorf("ollama is not reachable at %s", config.GetOllamaURL())
	}

	body, err := proposal.New(client, config.GetProposeMaxChars()).Propose(ctx, proposal.Request{
		NodePath:       proposeFile,
		OtherNodePath:  proposeOther,
		HeadSHA:        pr.HeadSHA,
		CurrentContent: current,
		Instructions:   proposeInstructions,
		Reason:         proposeReason,
	})
	if err != nil {
		return err
	}

	if proposeDryRun {
		fmt.Print(body)
		return nil
	}

	comment, err := backend.poster.CreateComment(ctx, pr.Number, body)
	if err != nil {
		return err
	}
	fmt.Printf("Posted suggestion for %s as comment %d\n", proposeFile, comment.ID)
	return nil
}
