// Package oas models an OpenAPI description as an order-preserving tree and
// resolves JSON references inside it.
//
// Documents are decoded through yaml.v3 nodes so mapping keys keep the order
// they have in the source file. That order matters: random choices among
// statuses, media types, examples and properties are made by index, and
// reproducible output for a given seed depends on a stable order.
//
// A decoded tree contains *Map for objects, []any for arrays and the scalar
// types string, int, float64, bool and nil.
//
// Swagger 2.0 input is converted to OpenAPI 3 with kin-openapi before it is
// modelled, and Document.Validate runs kin-openapi's structural validation.
package oas
