package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/oasmock/pkg/mockerr"
)

func TestErrorBody(t *testing.T) {
	t.Parallel()

	body := ErrorBody(http.StatusBadRequest, "requested media type '<x>' not supported")
	assert.Equal(t, "{\n  \"status\": 400,\n  \"error\": \"requested media type '<x>' not supported\"\n}", body)

	var parsed ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(body), &parsed))
	assert.Equal(t, 400, parsed.Status)
}

func TestWriteError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "negotiation", err: mockerr.Negotiationf("bad %s", "seed"), status: http.StatusBadRequest},
		{name: "not found", err: mockerr.NotFoundf("no operation"), status: http.StatusInternalServerError},
		{name: "plain", err: errors.New("boom"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()

			WriteError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var result ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
			assert.Equal(t, tt.status, result.Status)
			assert.Equal(t, tt.err.Error(), result.Error)
		})
	}
}

func TestWriteBody(t *testing.T) {
	t.Parallel()

	t.Run("keeps repeated headers", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		header := http.Header{}
		header.Add("mock-warning", "one")
		header.Add("mock-warning", "two")
		header.Set("Content-Type", "application/xml")

		WriteBody(rec, http.StatusCreated, header, "<a/>")

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, []string{"one", "two"}, rec.Header().Values("mock-warning"))
		assert.Equal(t, "application/xml", rec.Header().Get("Content-Type"))
		assert.Equal(t, "<a/>", rec.Body.String())
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		WriteBody(rec, http.StatusOK, nil, "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}
