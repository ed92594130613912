package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/getmockd/oasmock/pkg/ai"
	"github.com/getmockd/oasmock/pkg/logging"
)

// Common errors for configuration loading.
var (
	ErrFileNotFound = errors.New("configuration file not found")
	ErrEmptyFile    = errors.New("configuration file is empty")
	ErrInvalidYAML  = errors.New("invalid YAML syntax")
)

// Environment variable names.
const (
	EnvListen    = "OASMOCK_LISTEN"
	EnvSpecs     = "OASMOCK_SPECS"
	EnvBasePath  = "OASMOCK_BASE_PATH"
	EnvLogLevel  = "OASMOCK_LOG_LEVEL"
	EnvLogFormat = "OASMOCK_LOG_FORMAT"
	EnvMetrics   = "OASMOCK_METRICS_LISTEN"
)

// DefaultListen is the listen address used when none is configured.
const DefaultListen = ":8080"

// Config is the server configuration.
type Config struct {
	// Listen is the TCP address to serve on.
	Listen string `yaml:"listen,omitempty"`

	// Specs lists OpenAPI documents, as paths or doublestar globs. Relative
	// entries are resolved against the configuration file's directory.
	Specs []string `yaml:"specs,omitempty"`

	// BasePath is stripped from request paths before matching.
	BasePath string `yaml:"basePath,omitempty"`

	// MetricsListen, when set, serves Prometheus metrics at /metrics on a
	// separate address.
	MetricsListen string `yaml:"metricsListen,omitempty"`

	// H2C enables HTTP/2 over cleartext.
	H2C bool `yaml:"h2c,omitempty"`

	// Strict rejects documents that fail OpenAPI validation.
	Strict bool `yaml:"strict,omitempty"`

	ReadTimeout  time.Duration `yaml:"readTimeout,omitempty"`
	WriteTimeout time.Duration `yaml:"writeTimeout,omitempty"`

	Log LogConfig `yaml:"log,omitempty"`

	// AI enables generated examples for forced fuzzing.
	AI *ai.Config `yaml:"ai,omitempty"`

	// dir is the directory of the file the config was loaded from.
	dir string
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
	// File receives a JSON copy of every log record.
	File string `yaml:"file,omitempty"`
}

// Default returns the configuration used without a file.
func Default() *Config {
	return &Config{
		Listen: DefaultListen,
		Log:    LogConfig{Level: "info", Format: string(logging.FormatText)},
	}
}

// Load reads a configuration file. An empty path yields Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// Parse decodes configuration data over Default().
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	if cfg.AI != nil {
		cfg.AI.ApplyDefaults()
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvListen); v != "" {
		c.Listen = v
	}
	if v := os.Getenv(EnvSpecs); v != "" {
		c.Specs = nil
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				c.Specs = append(c.Specs, s)
			}
		}
	}
	if v := os.Getenv(EnvBasePath); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv(EnvMetrics); v != "" {
		c.MetricsListen = v
	}
	if aiCfg := ai.ConfigFromEnv(); aiCfg != nil {
		c.AI = aiCfg
	}
}

// Validate reports every problem found in the configuration.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Listen) == "" {
		errs = append(errs, errors.New("listen address is required"))
	}
	if c.MetricsListen != "" && c.MetricsListen == c.Listen {
		errs = append(errs, fmt.Errorf("metricsListen must differ from listen: %q", c.Listen))
	}
	if len(c.Specs) == 0 {
		errs = append(errs, errors.New("at least one spec is required"))
	}
	if c.BasePath != "" && !strings.HasPrefix(c.BasePath, "/") {
		errs = append(errs, fmt.Errorf("basePath must start with '/': %q", c.BasePath))
	}
	if !logging.ValidLevel(c.Log.Level) {
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", string(logging.FormatText), string(logging.FormatJSON):
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	if c.AI != nil {
		if err := c.AI.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("ai: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Dir returns the directory relative spec entries are resolved against.
func (c *Config) Dir() string {
	if c.dir == "" {
		return "."
	}
	return c.dir
}
