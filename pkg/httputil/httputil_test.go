package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/validator"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func decodeRaw(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var raw map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&raw))
	return raw
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *ErrorResponse {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestWriteJSON_EnvelopeOmitsEmptySides(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, Response{Data: map[string]string{"id": "v-1"}})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	raw := decodeRaw(t, rec)
	assert.Contains(t, raw, "data")
	assert.NotContains(t, raw, "error")

	rec = httptest.NewRecorder()
	WriteJSON(rec, http.StatusBadRequest, Response{Error: &ErrorResponse{Code: "INVALID_INPUT", Message: "bad"}})
	raw = decodeRaw(t, rec)
	assert.NotContains(t, raw, "data")
	assert.Contains(t, raw, "error")
}

func TestWriteError_AppErrorCarriesRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/views/v-1", nil)
	req = req.WithContext(logger.WithCorrelationID(req.Context(), "corr-42"))
	rec := httptest.NewRecorder()

	WriteError(rec, req, apperrors.NotFound("view", "v-1"), testLogger())

	assert.Equal(t, http.StatusNotFound, rec.Code)
	e := decodeError(t, rec)
	assert.Equal(t, "NOT_FOUND", e.Code)
	assert.Equal(t, "view with id v-1 not found", e.Message)
	assert.Equal(t, "corr-42", e.RequestID)
}

func TestWriteError_NoCorrelationIDOmitsRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), apperrors.InvalidInput("slug is required"), testLogger())

	raw := decodeRaw(t, rec)
	var e map[string]any
	require.NoError(t, json.Unmarshal(raw["error"], &e))
	assert.NotContains(t, e, "request_id")
}

func TestWriteError_SentinelMapping(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{"not found", fmt.Errorf("saved selection: %w", apperrors.ErrNotFound), http.StatusNotFound, "NOT_FOUND", "resource not found"},
		{"invalid input", fmt.Errorf("size: %w", apperrors.ErrInvalidInput), http.StatusBadRequest, "INVALID_INPUT", "size: invalid input"},
		{"conflict", fmt.Errorf("refresh: %w", apperrors.ErrConflict), http.StatusConflict, "CONFLICT", "refresh: conflict"},
		{"unprocessable", fmt.Errorf("resolve: %w", apperrors.ErrUnprocessable), http.StatusUnprocessableEntity, "UNPROCESSABLE", "resolve: unprocessable"},
		{"bad gateway", fmt.Errorf("catalog: %w", apperrors.ErrBadGateway), http.StatusBadGateway, "BAD_GATEWAY", "a dependency returned an invalid response"},
		{"unavailable", fmt.Errorf("catalog: %w", apperrors.ErrServiceUnavail), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "a dependency is temporarily unavailable"},
		{"unknown hides detail", errors.New("redis: connection refused"), http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err, testLogger())

			assert.Equal(t, tt.wantStatus, rec.Code)
			e := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, e.Code)
			assert.Equal(t, tt.wantMessage, e.Message)
		})
	}
}

func TestWriteErrorWithData_CarriesPayload(t *testing.T) {
	rec := httptest.NewRecorder()
	err := apperrors.Unprocessable("VARIANT_NOT_FOUND", "no active variant matches")

	WriteErrorWithData(rec, httptest.NewRequest(http.MethodPut, "/", nil), err, map[string]string{"color": "Red"}, testLogger())

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body struct {
		Data  map[string]string `json:"data"`
		Error *ErrorResponse    `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Red", body.Data["color"])
	require.NotNil(t, body.Error)
	assert.Equal(t, "VARIANT_NOT_FOUND", body.Error.Code)
}

func TestWriteError_PrefersRequestLogger(t *testing.T) {
	var buf captureHandler
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(logger.NewContext(context.Background(), slog.New(&buf)))

	WriteError(httptest.NewRecorder(), req, errors.New("boom"), testLogger())

	assert.Equal(t, []string{"internal error"}, buf.messages)
}

func TestWriteValidationError(t *testing.T) {
	type input struct {
		Slug string `json:"slug" validate:"required"`
	}
	rec := httptest.NewRecorder()
	WriteValidationError(rec, validator.Validate(&input{}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	e := decodeError(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", e.Code)
	assert.Equal(t, map[string]string{"slug": "is required"}, e.Fields)

	rec = httptest.NewRecorder()
	WriteValidationError(rec, errors.New("request body is empty"))
	e = decodeError(t, rec)
	assert.Equal(t, "INVALID_INPUT", e.Code)
	assert.Equal(t, "request body is empty", e.Message)
}

func TestParseUUID(t *testing.T) {
	tests := []struct {
		name  string
		param string
		ok    bool
	}{
		{"lowercase", "3f1c2b9e-8a4d-4e1f-9c7b-2d5a6e8f0a1b", true},
		{"uppercase", "3F1C2B9E-8A4D-4E1F-9C7B-2D5A6E8F0A1B", true},
		{"garbage", "not-a-view", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			_, ok := ParseUUID(rec, tt.param)

			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				assert.Equal(t, http.StatusBadRequest, rec.Code)
				assert.Equal(t, "INVALID_PARAMETER", decodeError(t, rec).Code)
			}
		})
	}
}

// captureHandler records log messages.
type captureHandler struct {
	messages []string
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.messages = append(h.messages, r.Message)
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *captureHandler) WithGroup(string) slog.Handler { return h }
