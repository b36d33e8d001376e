package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusRecorder(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w http.ResponseWriter)
		wantStatus int
		wantBytes  int
	}{
		{"nothing written", func(http.ResponseWriter) {}, http.StatusOK, 0},
		{"implicit ok", func(w http.ResponseWriter) { _, _ = w.Write([]byte("ok")) }, http.StatusOK, 2},
		{"explicit status", func(w http.ResponseWriter) { w.WriteHeader(http.StatusConflict) }, http.StatusConflict, 0},
		{"first status wins", func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusBadGateway)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("abc"))
		}, http.StatusBadGateway, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
			tt.write(rec)

			assert.Equal(t, tt.wantStatus, rec.code())
			assert.Equal(t, tt.wantBytes, rec.bytes)
		})
	}
}

func TestStatusRecorder_FlushAndUnwrap(t *testing.T) {
	inner := httptest.NewRecorder()
	rec := &statusRecorder{ResponseWriter: inner}

	var w http.ResponseWriter = rec
	w.(http.Flusher).Flush()

	assert.True(t, inner.Flushed)
	assert.Same(t, inner, rec.Unwrap())
}
