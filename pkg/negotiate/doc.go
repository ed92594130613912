// Package negotiate chooses the operation, response status and media type
// that a mocked request is answered with.
//
// Without explicit controls the choices favour the happy path: the first
// declared 2xx status and application/json. Explicit controls (a requested
// status, an Accept header, forced fuzzing) steer the choice, and requests
// that cannot be honoured either fail with a mockerr.NegotiationError or fall
// back with a warning, depending on how specific the caller was.
package negotiate
