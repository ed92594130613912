package cli

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/oasmock/pkg/cli/internal/output"
	"github.com/getmockd/oasmock/pkg/logging"
	"github.com/getmockd/oasmock/pkg/mock"
)

type respondFlags struct {
	specs   []string
	method  string
	path    string
	accept  string
	status  string
	example string
	fuzz    bool
	seed    string
	body    string
	strict  bool
}

// respondResult is the --json form of a mock response.
type respondResult struct {
	Status   int                 `json:"status"`
	Headers  map[string][]string `json:"headers"`
	Body     string              `json:"body"`
	Warnings []string            `json:"warnings,omitempty"`
}

func newRespondCmd() *cobra.Command {
	f := &respondFlags{}
	cmd := &cobra.Command{
		Use:   "respond",
		Short: "Answer a single request and print the response",
		Long: `Run one request through the mock engine without starting a server and
print the status line, headers and body.`,
		Example: `  # Default response for GET /pets
  oasmock respond --spec petstore.yaml --path /pets

  # Reproducible generated XML
  oasmock respond --spec petstore.yaml --path /pets --accept application/xml --fuzz --seed 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRespond(cmd, f)
		},
	}

	cmd.Flags().StringArrayVarP(&f.specs, "spec", "s", nil, "OpenAPI document path or glob (repeatable)")
	cmd.Flags().StringVarP(&f.method, "method", "X", http.MethodGet, "Request method")
	cmd.Flags().StringVarP(&f.path, "path", "p", "/", "Request path, optionally with a query string")
	cmd.Flags().StringVar(&f.accept, "accept", "", "Accept header")
	cmd.Flags().StringVar(&f.status, "status", "", "Requested status (mock-status)")
	cmd.Flags().StringVar(&f.example, "example", "", "Requested example name (mock-example)")
	cmd.Flags().BoolVar(&f.fuzz, "fuzz", false, "Force a generated body (mock-fuzz)")
	cmd.Flags().StringVar(&f.seed, "seed", "", "Seed for random choices (mock-seed)")
	cmd.Flags().StringVarP(&f.body, "data", "d", "", "Request body")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "Reject documents that fail OpenAPI validation")
	return cmd
}

func runRespond(cmd *cobra.Command, f *respondFlags) error {
	log := logging.New(logging.Config{Level: logging.LevelError, Output: cmd.ErrOrStderr()})

	docs, err := loadDocuments(cmd.Context(), f.specs, f.strict, log)
	if err != nil {
		return err
	}

	seed, err := seedFlag(f.seed)
	if err != nil {
		return err
	}

	u, err := url.Parse(f.path)
	if err != nil {
		return fmt.Errorf("invalid path %q: %w", f.path, err)
	}

	engine := mock.New(docs, mock.WithLogger(log))
	resp := engine.Respond(cmd.Context(), &mock.Request{
		Method:  strings.ToUpper(f.method),
		Path:    u.Path,
		URI:     u.RequestURI(),
		Body:    f.body,
		Accept:  f.accept,
		Status:  f.status,
		Example: f.example,
		Fuzz:    f.fuzz,
		Seed:    seed,
	})

	out := cmd.OutOrStdout()
	if jsonOutput(cmd) {
		return output.JSON(out, respondResult{
			Status:   resp.Status,
			Headers:  resp.Header,
			Body:     resp.Body,
			Warnings: resp.Warnings,
		})
	}

	fmt.Fprintf(out, "HTTP %d %s\n", resp.Status, http.StatusText(resp.Status))
	names := make([]string, 0, len(resp.Header))
	for name := range resp.Header {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, v := range resp.Header[name] {
			fmt.Fprintf(out, "%s: %s\n", strings.ToLower(name), v)
		}
	}
	fmt.Fprintln(out)
	if resp.Body != "" {
		fmt.Fprintln(out, resp.Body)
	}
	return nil
}
