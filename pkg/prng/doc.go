// Package prng provides the deterministic pseudo-random generator used for
// every random decision taken while mocking a response.
//
// A Rand is a splitmix32 generator seeded with a 32-bit value. Two Rand values
// created from the same seed return the same sequence for the same sequence
// of calls, which is what makes the mock-seed control reproducible.
//
// There is no package-level generator. Callers create one Rand per request
// (or per sample) and pass it down explicitly:
//
//	rng := prng.New(seed)
//	n := rng.Int(1, 10)
//	name := rng.String(5, 12)
package prng
