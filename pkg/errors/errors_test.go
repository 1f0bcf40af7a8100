package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"wrapped invalid configuration", fmt.Errorf("tokenizer: %w", ErrInvalidConfiguration), http.StatusBadRequest},
		{"invalid input", ErrInvalidInput, http.StatusBadRequest},
		{"unsupported document", fmt.Errorf("extract: %w", ErrUnsupportedDocument), http.StatusUnsupportedMediaType},
		{"too large", ErrDocumentTooLarge, http.StatusRequestEntityTooLarge},
		{"not found", ErrAnalysisNotFound, http.StatusNotFound},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests},
		{"timeout", ErrTimeout, http.StatusServiceUnavailable},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
		{"app error wins", New(ErrInvalidInput, http.StatusTeapot, "short and stout"), http.StatusTeapot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatusCode(tt.err))
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := Newf(ErrUnsupportedDocument, http.StatusUnsupportedMediaType, "mime %s", "image/png")
	assert.ErrorIs(t, err, ErrUnsupportedDocument)
	assert.Equal(t, "unsupported document type: mime image/png", err.Error())
}
