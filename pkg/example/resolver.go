package example

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/getmockd/oasmock/pkg/ai"
	"github.com/getmockd/oasmock/pkg/logging"
	"github.com/getmockd/oasmock/pkg/mockerr"
	"github.com/getmockd/oasmock/pkg/oas"
	"github.com/getmockd/oasmock/pkg/prng"
	"github.com/getmockd/oasmock/pkg/sample"
)

// FallbackWarning is attached when an AI provider failed and the sampler
// produced the body instead.
const FallbackWarning = "AI generation failed, fell back to random fuzzer."

// Input describes the negotiated content an example is needed for.
type Input struct {
	// Path names the content in messages, e.g. "/pets.get.responses.200.content.application/json".
	Path      string
	MediaType string
	// Content is the media type object; nil when the response has none.
	Content *oas.Map

	// Caller controls, empty when not supplied.
	Status  string
	Accept  string
	Example string
	Fuzz    bool

	// Seed reseeds every sampler call. Rand drives example selection.
	Seed uint32
	Rand *prng.Rand

	// Request is passed to AI providers as prompt context.
	Request ai.RequestContext
}

// Result is the chosen body and an optional diagnostic warning.
type Result struct {
	Body    string
	Warning string
}

// Resolver picks or generates example bodies from one document.
type Resolver struct {
	Doc *oas.Document
	// Provider is consulted on forced fuzzing only; nil disables AI.
	Provider ai.Provider
	// Verifier checks AI output before it is served; nil accepts everything.
	Verifier Verifier
	Logger   *slog.Logger
}

func (r *Resolver) log() *slog.Logger {
	if r.Logger == nil {
		return logging.Nop()
	}
	return r.Logger
}

// Resolve returns the body for in.
func (r *Resolver) Resolve(ctx context.Context, in *Input) (*Result, error) {
	if in.Content == nil {
		return &Result{Warning: "no content found for " + in.Path}, nil
	}

	schema, hasSchema := in.Content.Get("schema")
	hasSchema = hasSchema && schema != nil

	if in.Fuzz {
		if !hasSchema {
			return nil, noSchemaError(in)
		}
		r.log().Debug("fuzzing example from schema", "path", in.Path, "reason", "mock-fuzz")
		return r.fuzz(ctx, in, schema)
	}

	if v, ok := in.Content.Get("example"); ok {
		r.log().Debug("using content example", "path", in.Path)
		return render(v)
	}

	if v, _ := in.Content.Get("examples"); v != nil {
		if examples, ok := v.(*oas.Map); ok && examples.Len() > 0 {
			return r.named(in, examples)
		}
	}

	if hasSchema {
		resolved, err := r.Doc.ResolveRef(schema)
		if err != nil {
			return nil, err
		}
		if s, ok := oas.SchemaOf(resolved); ok {
			if v, ok := s.Get("example"); ok {
				r.log().Debug("using schema example", "path", in.Path)
				return render(v)
			}
		}
		r.log().Debug("fuzzing example from schema", "path", in.Path, "reason", "fallback")
		body, err := sample.ForMediaType(in.MediaType, r.Doc, schema, in.Seed)
		if err != nil {
			return nil, err
		}
		return &Result{Body: body}, nil
	}

	return &Result{Warning: "no example or schema found for " + in.Path}, nil
}

func noSchemaError(in *Input) error {
	hint := "try setting the 'mock-status' and 'accept' header"
	switch {
	case in.Status != "" && in.Accept != "":
		hint = "try different values for the 'mock-status' and 'accept' headers"
	case in.Status != "":
		hint = "try different value for the 'accept' header"
	case in.Accept != "":
		hint = "try different value for the 'mock-status' header"
	}
	return mockerr.Generationf("cannot fuzz response, no schema found for %s, %s", in.Path, hint)
}

// named picks an entry of an examples map.
func (r *Resolver) named(in *Input, examples *oas.Map) (*Result, error) {
	names := examples.Keys()
	var name, warning string

	switch {
	case in.Example == "":
		name = names[in.Rand.Pick(len(names))]
	case examples.Has(in.Example):
		name = in.Example
	case in.Status != "" && in.Accept != "":
		return nil, mockerr.Negotiationf("requested example '%s' not found, valid ones are: %s",
			in.Example, strings.Join(names, ","))
	default:
		name = names[in.Rand.Pick(len(names))]
		warning = "requested example '" + in.Example + "' not found, random one chosen"
	}

	entry, _ := examples.Get(name)
	resolved, err := r.Doc.ResolveRef(entry)
	if err != nil {
		return nil, fmt.Errorf("example '%s': %w", name, err)
	}
	r.log().Debug("using named example", "path", in.Path, "example", name)

	res := &Result{}
	if m, ok := resolved.(*oas.Map); ok {
		if v, ok := m.Get("value"); ok {
			if res, err = render(v); err != nil {
				return nil, err
			}
		}
	}
	res.Warning = warning
	return res, nil
}

// fuzz generates a body from schema, through the AI provider when one is
// configured.
func (r *Resolver) fuzz(ctx context.Context, in *Input, schema any) (*Result, error) {
	if r.Provider != nil {
		res, err := r.generate(ctx, in, schema)
		if err == nil {
			return res, nil
		}
		r.log().Warn("AI generation failed, falling back to random fuzzer",
			"provider", r.Provider.Name(), "path", in.Path, "error", err)

		body, ferr := sample.ForMediaType(in.MediaType, r.Doc, schema, in.Seed)
		if ferr != nil {
			return nil, ferr
		}
		return &Result{Body: body, Warning: FallbackWarning}, nil
	}

	body, err := sample.ForMediaType(in.MediaType, r.Doc, schema, in.Seed)
	if err != nil {
		return nil, err
	}
	return &Result{Body: body}, nil
}

// ErrUnsupportedMediaType is returned for media types AI providers cannot
// produce.
var ErrUnsupportedMediaType = errors.New("unsupported media type")

func (r *Resolver) generate(ctx context.Context, in *Input, schema any) (*Result, error) {
	deref, err := r.Doc.Dereference(schema)
	if err != nil {
		return nil, err
	}

	req := &ai.ExampleRequest{Seed: ai.Seed(in.Seed)}
	mt := strings.ToLower(in.MediaType)
	switch {
	case strings.Contains(mt, "json"):
		req.Format = ai.FormatJSON
		req.ResponseSchema = oas.StripXML(deref)
		req.Prompt = ai.BuildJSONPrompt(in.Request)
	case strings.Contains(mt, "xml"):
		schemaJSON, err := sample.PrettyJSON(deref)
		if err != nil {
			return nil, err
		}
		req.Format = ai.FormatXML
		req.Prompt = ai.BuildXMLPrompt(schemaJSON, in.Request)
	default:
		return nil, fmt.Errorf("%w %s", ErrUnsupportedMediaType, in.MediaType)
	}

	r.log().Debug("dispatching to AI provider", "provider", r.Provider.Name(), "mediaType", in.MediaType)
	resp, err := r.Provider.GenerateExample(ctx, req)
	if err != nil {
		return nil, err
	}

	if r.Verifier != nil {
		if err := r.Verifier.Verify(r.Doc, req.Format, resp.Text, deref); err != nil {
			return nil, err
		}
	}
	return &Result{Body: resp.Text}, nil
}

// render returns strings verbatim and encodes everything else as
// indented JSON.
func render(v any) (*Result, error) {
	if s, ok := v.(string); ok {
		return &Result{Body: s}, nil
	}
	body, err := sample.PrettyJSON(v)
	if err != nil {
		return nil, err
	}
	return &Result{Body: body}, nil
}
