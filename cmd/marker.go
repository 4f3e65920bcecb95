package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/pders01/intent/internal/marker"
	"github.com/pders01/intent/internal/models"
	"github.com/spf13/cobra"
)

var (
	markerNode    string
	markerOther   string
	markerHead    string
	markerApplied string
	markerJSON    bool
	markerToon    bool
)

var markerCmd = &cobra.Command{
	Use:   "marker",
	Short: "Encode and decode suggestion markers",
}

var markerEncodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Print the marker for a suggestion",
	Long: `Print the hidden marker that ties a suggestion comment to a file.

Examples:
  intent marker encode --node AGENTS.md --head 3f2a9c1
  intent marker encode --node packages/api/AGENTS.md --other packages/api/CLAUDE.md --head 3f2a9c1`,
	Args: cobra.NoArgs,
	RunE: runMarkerEncode,
}

var markerDecodeCmd = &cobra.Command{
	Use:   "decode [file]",
	Short: "Show the marker and checkbox state of a comment body",
	Long: `Read a comment body from a file, or stdin when no file or "-" is given,
and print its marker fields and checkbox state.

Examples:
  intent marker decode comment.md
  gh api repos/o/r/issues/comments/123 --jq .body | intent marker decode --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMarkerDecode,
}

func init() {
	rootCmd.AddCommand(markerCmd)
	markerCmd.AddCommand(markerEncodeCmd)
	markerCmd.AddCommand(markerDecodeCmd)

	markerEncodeCmd.Flags().StringVar(&markerNode, "node", "", "Path of the documentation file (required)")
	markerEncodeCmd.Flags().StringVar(&markerOther, "other", "", "Path of the paired file")
	markerEncodeCmd.Flags().StringVar(&markerHead, "head", "", "Pull request head the suggestion was generated against (required)")
	markerEncodeCmd.Flags().StringVar(&markerApplied, "applied", "", "Commit that applied the suggestion")

	markerDecodeCmd.Flags().BoolVar(&markerJSON, "json", false, "Output as JSON")
	markerDecodeCmd.Flags().BoolVar(&markerToon, "toon", false, "Output in LLM-friendly toon format")
}

type decodedComment struct {
	Marker  models.IntentMarker `json:"marker"`
	Checked bool                `json:"checked"`
	Applied bool                `json:"applied"`
}

func runMarkerEncode(cmd *cobra.Command, args []string) error {
	if markerNode == "" || markerHead == "" {
		return fmt.Errorf("--node and --head are required")
	}

	fmt.Println(marker.Encode(models.IntentMarker{
		NodePath:      markerNode,
		OtherNodePath: markerOther,
		AppliedCommit: markerApplied,
		HeadSHA:       markerHead,
	}))
	return nil
}

func runMarkerDecode(cmd *cobra.Command, args []string) error {
	body, err := readBody(args)
	if err != nil {
		return err
	}

	m, ok := marker.Decode(body)
	if !ok {
		return fmt.Errorf("no valid marker found")
	}
	decoded := decodedComment{Marker: m, Checked: marker.IsCheckboxChecked(body), Applied: m.IsApplied()}

	if done, err := printStructured(decoded, markerJSON, markerToon); done {
		return err
	}

	fmt.Printf("Node:           %s\n", m.NodePath)
	if m.OtherNodePath != "" {
		fmt.Printf("Other Node:     %s\n", m.OtherNodePath)
	}
	fmt.Printf("Head:           %s\n", m.HeadSHA)
	if m.IsApplied() {
		fmt.Printf("Applied Commit: %s\n", m.AppliedCommit)
	} else {
		fmt.Println("Applied Commit: (not applied)")
	}
	fmt.Printf("Checked:        %t\n", decoded.Checked)
	return nil
}

func readBody(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return string(data), nil
}
