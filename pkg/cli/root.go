package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// NewRootCmd builds the oasmock command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "oasmock",
		Short: "oasmock serves mock responses from OpenAPI documents",
		Long: `oasmock answers HTTP requests with examples or generated payloads taken
from OpenAPI 3.x and Swagger 2.0 documents.

Responses are controlled per request with the mock-status, mock-example,
mock-fuzz and mock-seed headers. A seed makes every random choice reproducible.`,
		SilenceUsage:  true,
		SilenceErrors: true, // We handle errors in Run()
	}
	root.PersistentFlags().Bool("json", false, "Output command results in JSON format")

	root.AddCommand(
		newServeCmd(),
		newRespondCmd(),
		newSampleCmd(),
		newValidateCmd(),
		newVersionCmd(),
	)
	return root
}

// Run executes the command line and returns the process exit code.
func Run(ctx context.Context, args []string) int {
	root := NewRootCmd()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}
