// Package sample synthesizes example payloads from OpenAPI schemas.
//
// JSON, XML and YAML samples share one recursive decision order: anyOf,
// oneOf, allOf, a type union, $ref, then the declared type. Every entry
// point takes an explicit seed and builds its own generator, so the same
// schema and seed always produce byte-identical output and concurrent calls
// never share random state.
package sample
