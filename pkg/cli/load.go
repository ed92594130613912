package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/getmockd/oasmock/pkg/config"
	"github.com/getmockd/oasmock/pkg/oas"
	"github.com/getmockd/oasmock/pkg/prng"
)

// errNoSpecs is returned when a command needs at least one --spec.
var errNoSpecs = errors.New("no spec given, use --spec")

// loadDocuments expands spec entries relative to the working directory and
// parses each file. With strict set, documents failing OpenAPI validation
// are rejected; otherwise validation problems are only logged.
func loadDocuments(ctx context.Context, entries []string, strict bool, log *slog.Logger) ([]*oas.Document, error) {
	if len(entries) == 0 {
		return nil, errNoSpecs
	}
	paths, err := config.ExpandSpecs(".", entries)
	if err != nil {
		return nil, err
	}
	return parseDocuments(ctx, paths, strict, log)
}

func parseDocuments(ctx context.Context, paths []string, strict bool, log *slog.Logger) ([]*oas.Document, error) {
	docs := make([]*oas.Document, 0, len(paths))
	for _, p := range paths {
		doc, err := oas.Load(p)
		if err != nil {
			return nil, err
		}
		if err := doc.Validate(ctx); err != nil {
			if strict {
				return nil, fmt.Errorf("%s: %w", p, err)
			}
			log.Warn("document failed validation", "spec", p, "error", err)
		}
		log.Debug("loaded document", "spec", p, "title", doc.Title(), "openapi", doc.Version(), "converted", doc.Converted)
		docs = append(docs, doc)
	}
	return docs, nil
}

// seedFlag parses a --seed value, drawing a fresh seed when it is empty.
func seedFlag(s string) (uint32, error) {
	if strings.TrimSpace(s) == "" {
		return prng.NewSeed(), nil
	}
	return prng.ParseSeed(s)
}
