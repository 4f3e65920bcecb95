package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/alpkeskin/gotoon"
	"github.com/pders01/intent/internal/models"
)

// printStructured writes v as JSON or toon and reports whether it did
func printStructured(v any, asJSON, asToon bool) (bool, error) {
	if asJSON {
		output, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return true, fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
		return true, nil
	}

	if asToon {
		output, err := gotoon.Encode(v)
		if err != nil {
			return true, fmt.Errorf("failed to encode toon: %w", err)
		}
		fmt.Println(output)
		return true, nil
	}

	return false, nil
}

func printResult(result *models.ProcessResult, asJSON, asToon bool) error {
	if done, err := printStructured(result, asJSON, asToon); done {
		return err
	}

	fmt.Printf("Operation: %s\n", result.Operation)
	if result.Skipped {
		fmt.Printf("Skipped:   %s\n", result.Reason)
	} else if result.Reason != "" {
		fmt.Printf("Reason:    %s\n", result.Reason)
	}
	if len(result.Commits) > 0 {
		fmt.Println("Commits:")
		for _, c := range result.Commits {
			subject, _, _ := strings.Cut(c.Message, "\n")
			fmt.Printf("  %s  %s\n", shortSHA(c.SHA), subject)
		}
	}
	return nil
}

// writeStepOutputs appends the result to the GITHUB_OUTPUT file when one is set
func writeStepOutputs(path string, result *models.ProcessResult) error {
	if path == "" || result == nil {
		return nil
	}

	shas := make([]string, 0, len(result.Commits))
	for _, c := range result.Commits {
		shas = append(shas, c.SHA)
	}
	applied := ""
	if result.Marker != nil {
		applied = result.Marker.AppliedCommit
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open step output file: %w", err)
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "operation=%s\nskipped=%t\napplied_commit=%s\ncommit_shas=%s\n",
		result.Operation, result.Skipped, applied, strings.Join(shas, ","))
	if err != nil {
		return fmt.Errorf("failed to write step outputs: %w", err)
	}
	return nil
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
