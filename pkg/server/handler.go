package server

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/getmockd/oasmock/pkg/httputil"
	"github.com/getmockd/oasmock/pkg/logging"
	"github.com/getmockd/oasmock/pkg/metrics"
	"github.com/getmockd/oasmock/pkg/mock"
	"github.com/getmockd/oasmock/pkg/mockerr"
	"github.com/getmockd/oasmock/pkg/prng"
)

// maxBodySize bounds how much of a request body is forwarded to AI prompts.
const maxBodySize = 1 << 20

// Options configures a Handler.
type Options struct {
	// BasePath is stripped from request paths before operation matching.
	BasePath string
	Logger   *slog.Logger
	// Metrics records request counts and latency when set.
	Metrics  *metrics.Server
}

// Handler serves mock responses.
type Handler struct {
	engine   *mock.Engine
	basePath string
	log      *slog.Logger
	metrics  *metrics.Server
}

// New creates a Handler for engine.
func New(engine *mock.Engine, opts Options) *Handler {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Handler{
		engine:   engine,
		basePath: strings.TrimSuffix(opts.BasePath, "/"),
		log:      log,
		metrics:  opts.Metrics,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, err := h.mockRequest(r)
	if err != nil {
		h.log.Info("request rejected", "method", r.Method, "path", r.URL.Path, "error", err)
		httputil.WriteError(w, err)
		h.metrics.Observe(r.Method, mockerr.StatusCode(err), 0, time.Since(start))
		return
	}

	resp := h.engine.Respond(r.Context(), req)
	httputil.WriteBody(w, resp.Status, resp.Header, resp.Body)
	h.metrics.Observe(r.Method, resp.Status, len(resp.Warnings), time.Since(start))

	h.log.Info("request",
		"method", r.Method,
		"path", r.URL.Path,
		"status", resp.Status,
		"seed", req.Seed,
		"warnings", len(resp.Warnings),
		"duration", time.Since(start),
	)
}

func (h *Handler) mockRequest(r *http.Request) (*mock.Request, error) {
	path, ok := h.stripBase(r.URL.Path)
	if !ok {
		return nil, mockerr.NotFoundf("no operation found for verb: %s, path: %s", strings.ToLower(r.Method), r.URL.RequestURI())
	}

	req := &mock.Request{
		Method:  r.Method,
		Path:    path,
		URI:     r.URL.RequestURI(),
		Accept:  strings.Join(r.Header.Values("Accept"), ", "),
		Status:  strings.TrimSpace(r.Header.Get(mock.HeaderStatus)),
		Example: r.Header.Get(mock.HeaderExample),
		Fuzz:    r.Header.Get(mock.HeaderFuzz) == "true",
	}

	if raw := strings.TrimSpace(r.Header.Get(mock.HeaderSeed)); raw != "" {
		seed, err := prng.ParseSeed(raw)
		if err != nil {
			return nil, mockerr.Negotiationf("invalid %s header value '%s'", mock.HeaderSeed, raw)
		}
		req.Seed = seed
	} else {
		req.Seed = prng.NewSeed()
	}

	if r.Body != nil {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err != nil {
			return nil, mockerr.Negotiationf("failed to read request body: %v", err)
		}
		req.Body = string(body)
	}

	return req, nil
}

// stripBase removes the base path, reporting false for paths outside it.
func (h *Handler) stripBase(path string) (string, bool) {
	if h.basePath == "" {
		return path, true
	}
	if path == h.basePath {
		return "/", true
	}
	if rest, ok := strings.CutPrefix(path, h.basePath+"/"); ok {
		return "/" + rest, true
	}
	return path, false
}
