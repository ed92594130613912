// Package util provides small string helpers shared across oasmock packages.
package util
