package cli

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/getmockd/oasmock/pkg/ai"
	"github.com/getmockd/oasmock/pkg/config"
	"github.com/getmockd/oasmock/pkg/logging"
	"github.com/getmockd/oasmock/pkg/metrics"
	"github.com/getmockd/oasmock/pkg/mock"
	"github.com/getmockd/oasmock/pkg/server"
)

type serveFlags struct {
	configFile string
	specs      []string
	listen     string
	basePath   string
	strict     bool
	h2c        bool
	metrics    string
	logLevel   string
	logFormat  string
}

func newServeCmd() *cobra.Command {
	f := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the mock server",
		Long: `Start the mock server for one or more OpenAPI documents.

Settings are read from the config file, then from OASMOCK_* environment
variables, then from flags. Spec entries may be doublestar globs.`,
		Example: `  # Serve a single document
  oasmock serve --spec petstore.yaml

  # Serve every document below specs/ under /api
  oasmock serve --spec 'specs/**/*.yaml' --base-path /api

  # Serve from a config file with JSON logs
  oasmock serve --config oasmock.yaml --log-format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, f)
		},
	}

	f.bind(cmd)
	return cmd
}

func (f *serveFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.configFile, "config", "c", "", "Path to configuration file")
	fs.StringArrayVarP(&f.specs, "spec", "s", nil, "OpenAPI document path or glob (repeatable)")
	fs.StringVarP(&f.listen, "listen", "l", config.DefaultListen, "Listen address")
	fs.StringVar(&f.basePath, "base-path", "", "Path prefix stripped before operation matching")
	fs.BoolVar(&f.strict, "strict", false, "Reject documents that fail OpenAPI validation")
	fs.BoolVar(&f.h2c, "h2c", false, "Serve HTTP/2 over cleartext")
	fs.StringVar(&f.metrics, "metrics-listen", "", "Serve Prometheus metrics at /metrics on this address")
	fs.StringVar(&f.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.logFormat, "log-format", "text", "Log format (text, json)")
}

// resolveConfig merges file, environment and flags, in that order. Spec
// paths from flags are relative to the working directory; those from the
// file are relative to the file.
func resolveConfig(cmd *cobra.Command, f *serveFlags) (*config.Config, []string, error) {
	cfg, err := config.Load(f.configFile)
	if err != nil {
		return nil, nil, err
	}
	cfg.ApplyEnv()

	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.Listen = f.listen
	}
	if flags.Changed("base-path") {
		cfg.BasePath = f.basePath
	}
	if flags.Changed("strict") {
		cfg.Strict = f.strict
	}
	if flags.Changed("h2c") {
		cfg.H2C = f.h2c
	}
	if flags.Changed("metrics-listen") {
		cfg.MetricsListen = f.metrics
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
	if len(f.specs) > 0 {
		cfg.Specs = f.specs
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration:\n%w", err)
	}

	var paths []string
	if len(f.specs) > 0 {
		paths, err = config.ExpandSpecs(".", f.specs)
	} else {
		paths, err = cfg.ExpandSpecs()
	}
	if err != nil {
		return nil, nil, err
	}
	return cfg, paths, nil
}

func runServe(cmd *cobra.Command, f *serveFlags) error {
	cfg, paths, err := resolveConfig(cmd, f)
	if err != nil {
		return err
	}

	log, closeLog, err := newLogger(cmd.ErrOrStderr(), cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	docs, err := parseDocuments(ctx, paths, cfg.Strict, log)
	if err != nil {
		return err
	}

	opts := []mock.Option{mock.WithLogger(log)}
	if cfg.AI != nil {
		provider, err := ai.NewProvider(cfg.AI)
		if err != nil {
			return fmt.Errorf("ai: %w", err)
		}
		log.Info("AI examples enabled", "provider", provider.Name(), "model", cfg.AI.Model)
		opts = append(opts, mock.WithProvider(provider))
	}

	var m *metrics.Server
	if cfg.MetricsListen != "" {
		registry := metrics.NewRegistry()
		m = metrics.NewServer(registry)
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", registry.Handler())
		go func() {
			err := server.ListenAndServe(ctx, mux, server.Config{Addr: cfg.MetricsListen, Logger: log.With("component", "metrics")})
			if err != nil {
				log.Error("metrics server failed", "error", err)
			}
		}()
	}

	engine := mock.New(docs, opts...)
	handler := server.New(engine, server.Options{BasePath: cfg.BasePath, Logger: log, Metrics: m})

	for _, doc := range docs {
		log.Info("serving document", "spec", doc.Name, "title", doc.Title(), "openapi", doc.Version())
		if m != nil {
			_ = m.Documents.Inc()
		}
	}

	return server.ListenAndServe(ctx, handler, server.Config{
		Addr:         cfg.Listen,
		H2C:          cfg.H2C,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		Logger:       log,
	})
}

// newLogger builds the logger for cfg. When a log file is configured every
// record is also appended to it as JSON.
func newLogger(w io.Writer, cfg config.LogConfig) (*slog.Logger, func(), error) {
	lc := logging.Config{
		Level:  logging.ParseLevel(cfg.Level),
		Format: logging.ParseFormat(cfg.Format),
		Output: w,
	}
	if cfg.File == "" {
		return logging.New(lc), func() {}, nil
	}

	file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	lc.Tee = file
	return logging.New(lc), func() { _ = file.Close() }, nil
}
