package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/oasmock/pkg/logging"
	"github.com/getmockd/oasmock/pkg/oas"
	"github.com/getmockd/oasmock/pkg/sample"
)

type sampleFlags struct {
	spec      string
	ref       string
	mediaType string
	seed      string
}

func newSampleCmd() *cobra.Command {
	f := &sampleFlags{}
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Generate a sample for a schema",
		Long: `Generate a sample payload for the schema at a JSON pointer in an OpenAPI
document. The seed is printed to stderr so the sample can be reproduced.`,
		Example: `  oasmock sample --spec petstore.yaml --ref '#/components/schemas/Pet'
  oasmock sample --spec petstore.yaml --ref '#/components/schemas/Pet' --media-type application/xml --seed 42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSample(cmd, f)
		},
	}

	cmd.Flags().StringVarP(&f.spec, "spec", "s", "", "OpenAPI document path")
	cmd.Flags().StringVarP(&f.ref, "ref", "r", "", "JSON pointer of the schema, e.g. '#/components/schemas/Pet'")
	cmd.Flags().StringVarP(&f.mediaType, "media-type", "m", "application/json", "Media type of the sample (json, xml or yaml)")
	cmd.Flags().StringVar(&f.seed, "seed", "", "Seed for random choices")
	_ = cmd.MarkFlagRequired("spec")
	_ = cmd.MarkFlagRequired("ref")
	return cmd
}

func runSample(cmd *cobra.Command, f *sampleFlags) error {
	docs, err := loadDocuments(cmd.Context(), []string{f.spec}, false, logging.Nop())
	if err != nil {
		return err
	}
	doc := docs[0]

	if _, err := doc.Lookup(f.ref); err != nil {
		return err
	}

	seed, err := seedFlag(f.seed)
	if err != nil {
		return err
	}

	schema := oas.NewMap()
	schema.Set("$ref", f.ref)
	text, err := sample.ForMediaType(f.mediaType, doc, schema, seed)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "seed: %d\n", seed)
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}
