package mock

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/getmockd/oasmock/pkg/ai"
	"github.com/getmockd/oasmock/pkg/example"
	"github.com/getmockd/oasmock/pkg/httputil"
	"github.com/getmockd/oasmock/pkg/logging"
	"github.com/getmockd/oasmock/pkg/mockerr"
	"github.com/getmockd/oasmock/pkg/negotiate"
	"github.com/getmockd/oasmock/pkg/oas"
	"github.com/getmockd/oasmock/pkg/prng"
)

// Control header names.
const (
	HeaderStatus  = "mock-status"
	HeaderExample = "mock-example"
	HeaderFuzz    = "mock-fuzz"
	HeaderSeed    = "mock-seed"
	HeaderWarning = "mock-warning"
)

// Request is one mock request with its controls already extracted.
type Request struct {
	Method string
	// Path is matched against the path templates, without base path or query.
	Path string
	// URI is the full request URI shown to AI providers and in errors.
	URI  string
	Body string

	Accept  string
	Status  string
	Example string
	Fuzz    bool
	Seed    uint32
}

// Response is the outcome of a mock request.
type Response struct {
	Status   int
	Header   http.Header
	Body     string
	Warnings []string
}

func (r *Response) warn(msg string) {
	if msg == "" {
		return
	}
	r.Warnings = append(r.Warnings, msg)
	r.Header.Add(HeaderWarning, msg)
}

// Engine answers mock requests from a fixed set of documents. It is safe for
// concurrent use.
type Engine struct {
	docs        []*oas.Document
	provider    ai.Provider
	verifier    example.Verifier
	verifierSet bool
	log         *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithProvider enables AI generated examples for forced fuzzing.
func WithProvider(p ai.Provider) Option {
	return func(e *Engine) {
		e.provider = p
	}
}

// WithVerifier replaces the check applied to AI output. A nil verifier
// accepts everything.
func WithVerifier(v example.Verifier) Option {
	return func(e *Engine) {
		e.verifier = v
		e.verifierSet = true
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// New creates an engine. Documents are searched in order; the first one with
// a matching operation answers.
func New(docs []*oas.Document, opts ...Option) *Engine {
	e := &Engine{docs: docs, log: logging.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	if !e.verifierSet {
		e.verifier = example.NewSchemaVerifier(e.log)
	}
	return e
}

// Documents returns the documents the engine serves.
func (e *Engine) Documents() []*oas.Document {
	return e.docs
}

// Respond computes the response for req.
func (e *Engine) Respond(ctx context.Context, req *Request) *Response {
	resp := &Response{Status: http.StatusOK, Header: http.Header{}}
	resp.Header.Set(HeaderSeed, strconv.FormatUint(uint64(req.Seed), 10))

	if strings.EqualFold(req.Method, http.MethodOptions) {
		return resp
	}

	if err := e.respond(ctx, req, resp); err != nil {
		return errorResponse(resp, err)
	}
	return resp
}

func (e *Engine) respond(ctx context.Context, req *Request, resp *Response) error {
	rng := prng.New(req.Seed)
	verb := strings.ToLower(req.Method)

	op, err := e.findOperation(verb, req)
	if err != nil {
		return err
	}
	e.log.Debug("operation selected", "operationId", op.ID, "template", op.Template, "verb", verb)

	choice, err := negotiate.SelectResponse(rng, op, req.Status, req.Fuzz)
	if err != nil {
		return err
	}
	resp.Status = choice.StatusCode()
	e.log.Debug("response selected", "status", choice.Status, "key", choice.Key)

	content, err := negotiate.SelectContent(rng, choice.Response, req.Status, req.Accept, req.Fuzz)
	if err != nil {
		return err
	}
	if content == nil {
		resp.warn("no response content found for '" + op.ID + "', status: '" + choice.Status + "'")
		return nil
	}
	resp.warn(content.Warning)
	resp.Header.Set("Content-Type", content.MediaType)
	e.log.Debug("media type selected", "mediaType", content.MediaType)

	resolver := &example.Resolver{
		Doc:      op.Doc,
		Provider: e.provider,
		Verifier: e.verifier,
		Logger:   e.log,
	}
	result, err := resolver.Resolve(ctx, &example.Input{
		Path:      req.Path + "." + verb + ".responses." + choice.Status + ".content." + content.MediaType,
		MediaType: content.MediaType,
		Content:   content.Content,
		Status:    req.Status,
		Accept:    req.Accept,
		Example:   req.Example,
		Fuzz:      req.Fuzz,
		Seed:      req.Seed,
		Rand:      rng,
		Request:   ai.RequestContext{Method: strings.ToUpper(verb), URI: req.uri(), Body: req.Body},
	})
	if err != nil {
		return err
	}
	resp.warn(result.Warning)
	resp.Body = result.Body
	return nil
}

func (e *Engine) findOperation(verb string, req *Request) (*negotiate.Operation, error) {
	for _, doc := range e.docs {
		op, err := negotiate.FindOperation(doc, verb, req.Path)
		if err == nil {
			return op, nil
		}
		var nf *mockerr.ResourceNotFoundError
		if !errors.As(err, &nf) {
			return nil, err
		}
	}
	return nil, mockerr.NotFoundf("no operation found for verb: %s, path: %s", verb, req.uri())
}

func (r *Request) uri() string {
	if r.URI != "" {
		return r.URI
	}
	return r.Path
}

// errorResponse replaces resp with the standard error shape for err. The
// seed header survives so the failure can be reproduced.
func errorResponse(resp *Response, err error) *Response {
	status := mockerr.StatusCode(err)
	out := &Response{
		Status: status,
		Header: http.Header{},
		Body:   httputil.ErrorBody(status, err.Error()),
	}
	out.Header.Set(HeaderSeed, resp.Header.Get(HeaderSeed))
	out.Header.Set("Content-Type", "application/json")
	return out
}
