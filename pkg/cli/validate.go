package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/oasmock/pkg/cli/internal/output"
	"github.com/getmockd/oasmock/pkg/config"
	"github.com/getmockd/oasmock/pkg/oas"
)

// errInvalidSpecs is returned when at least one document fails validation.
var errInvalidSpecs = errors.New("one or more documents are invalid")

type validateResult struct {
	Spec    string `json:"spec"`
	Version string `json:"version,omitempty"`
	Valid   bool   `json:"valid"`
	Error   string `json:"error,omitempty"`
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <spec>...",
		Short: "Validate OpenAPI documents",
		Long: `Parse and validate OpenAPI documents. Swagger 2.0 documents are converted to
OpenAPI 3 before validation. Arguments may be doublestar globs.`,
		Example: `  oasmock validate petstore.yaml
  oasmock validate 'specs/**/*.yaml'`,
		Args: cobra.MinimumNArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	paths, err := config.ExpandSpecs(".", args)
	if err != nil {
		return err
	}

	results := make([]validateResult, 0, len(paths))
	failed := false
	for _, p := range paths {
		res := validateResult{Spec: p, Valid: true}
		doc, err := oas.Load(p)
		if err == nil {
			res.Version = doc.Version()
			err = doc.Validate(cmd.Context())
		}
		if err != nil {
			res.Valid = false
			res.Error = err.Error()
			failed = true
		}
		results = append(results, res)
	}

	out := cmd.OutOrStdout()
	if jsonOutput(cmd) {
		if err := output.JSON(out, results); err != nil {
			return err
		}
	} else {
		tw := output.Table(out)
		for _, r := range results {
			if r.Valid {
				fmt.Fprintf(tw, "ok\t%s\t%s\n", r.Spec, r.Version)
			} else {
				fmt.Fprintf(tw, "FAIL\t%s\t%s\n", r.Spec, r.Error)
			}
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if failed {
		return errInvalidSpecs
	}
	return nil
}
