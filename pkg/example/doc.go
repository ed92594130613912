// Package example decides the body of a mock response for one negotiated
// media type.
//
// Precedence, highest first:
//
//  1. forced fuzzing, from the content schema (optionally through an AI
//     provider, falling back to the deterministic sampler on any failure)
//  2. the content's static "example"
//  3. an entry of the content's "examples" map, by name or at random
//  4. the schema's own "example"
//  5. a deterministic sample of the schema
//
// Content with none of these yields an empty body and a warning.
package example
