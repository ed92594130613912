// Package config loads the oasmock server configuration.
//
// A configuration file is YAML (JSON is accepted as a subset):
//
//	listen: ":8080"
//	basePath: /api
//	h2c: true
//	specs:
//	  - specs/**/*.yaml
//	log:
//	  level: debug
//	  format: json
//	ai:
//	  provider: gemini
//	  apiKey: "..."
//
// Environment variables (OASMOCK_LISTEN, OASMOCK_SPECS, OASMOCK_BASE_PATH,
// OASMOCK_LOG_LEVEL, OASMOCK_LOG_FORMAT and the OASMOCK_AI_* variables of
// package ai) override file values. Spec entries may be doublestar globs;
// ExpandSpecs turns them into a sorted list of files.
package config
