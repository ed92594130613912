// Package mock turns a request against one or more OpenAPI documents into a
// mock response.
//
// The Engine finds the operation, negotiates a status and media type, and
// asks the example pipeline for a body. Every decision is driven by one
// seeded generator per request, so repeating a request with the same
// mock-seed reproduces the response exactly. Failures are reported as a
// response carrying the standard JSON error body, never as a Go error.
package mock
