// Package logging configures the structured loggers used across oasmock.
//
// It wraps log/slog. Components accept a *slog.Logger and fall back to
// Nop() when none is given.
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.ParseLevel("debug"),
//	    Format: logging.FormatJSON,
//	})
//	logger.Info("mock server listening", "addr", ":8080")
//
// A Config.Tee writer receives a JSON copy of every record, which the server
// uses for its optional log file.
package logging
