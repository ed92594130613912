// Package httputil provides shared HTTP utilities for consistent response handling.
package httputil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/getmockd/oasmock/pkg/mockerr"
)

// ErrorResponse is the body of every failed mock request.
type ErrorResponse struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
}

// ErrorBody renders the error body for status and message as indented JSON.
func ErrorBody(status int, message string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	_ = enc.Encode(ErrorResponse{Status: status, Error: message})
	return strings.TrimSuffix(buf.String(), "\n")
}

// WriteError writes err in the standard error shape. The status comes from
// mockerr.StatusCode.
func WriteError(w http.ResponseWriter, err error) {
	status := mockerr.StatusCode(err)
	WriteBody(w, status, http.Header{"Content-Type": {"application/json"}}, ErrorBody(status, err.Error()))
}

// WriteBody copies header into w and writes status and body. Multi-valued
// headers keep all their values.
func WriteBody(w http.ResponseWriter, status int, header http.Header, body string) {
	dst := w.Header()
	for k, vs := range header {
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
	w.WriteHeader(status)
	if body != "" {
		_, _ = w.Write([]byte(body))
	}
}
