// Package cli implements the oasmock command line.
//
// Commands:
//
//	serve     run the mock server
//	respond   answer a single request and print the response
//	sample    generate a sample for a schema
//	validate  check OpenAPI documents
//	version   print build information
package cli
