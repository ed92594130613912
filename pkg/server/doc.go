// Package server exposes a mock.Engine over HTTP.
//
// Request headers control the engine:
//
//	mock-status   status code to answer with
//	mock-example  name of an entry in the examples map
//	mock-fuzz     "true" forces a generated body
//	mock-seed     seed for every random decision; echoed back
//
// Diagnostic messages are returned as repeated mock-warning headers.
package server
