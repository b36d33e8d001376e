package httpclient

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func makeResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func structuredError(code, message string) string {
	return `{"error":{"code":"` + code + `","message":"` + message + `"}}`
}

func TestParseResponseError(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantCode   string
		sentinel   error
	}{
		{"not found", 404, structuredError("NOT_FOUND", "no product linen-shirt"), 404, "NOT_FOUND", apperrors.ErrNotFound},
		{"catalog envelope", 404, `{"success":false,"message":"Product not found"}`, 404, "NOT_FOUND", apperrors.ErrNotFound},
		{"retired product", 410, structuredError("GONE", "product retired"), 404, "NOT_FOUND", apperrors.ErrNotFound},
		{"bad request", 400, structuredError("INVALID_INPUT", "bad variantId"), 400, "INVALID_INPUT", apperrors.ErrInvalidInput},
		{"conflict", 409, structuredError("CONFLICT", "stale"), 409, "CONFLICT", apperrors.ErrConflict},
		{"unprocessable keeps code", 422, structuredError("BAD_VARIANT", "inactive"), 422, "BAD_VARIANT", apperrors.ErrUnprocessable},
		{"unprocessable default code", 422, `{"success":false,"message":"inactive"}`, 422, "UNPROCESSABLE", apperrors.ErrUnprocessable},
		{"rate limited", 429, structuredError("RATE_LIMITED", "slow down"), 503, "SERVICE_UNAVAILABLE", apperrors.ErrServiceUnavail},
		{"unavailable", 503, structuredError("SERVICE_UNAVAILABLE", "overloaded"), 503, "SERVICE_UNAVAILABLE", apperrors.ErrServiceUnavail},
		{"credentials refused", 401, structuredError("UNAUTHORIZED", "no key"), 502, "UNAUTHORIZED", apperrors.ErrBadGateway},
		{"server error", 500, structuredError("INTERNAL_ERROR", "db down"), 502, "INTERNAL_ERROR", apperrors.ErrBadGateway},
		{"unstructured server error", 502, "<html>502</html>", 502, "UPSTREAM_ERROR", apperrors.ErrBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseResponseError(makeResponse(tt.status, tt.body), "catalog")

			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr), "got %T: %v", err, err)
			assert.Equal(t, tt.wantStatus, appErr.Status)
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestParseResponseError_MessageNamesService(t *testing.T) {
	for _, body := range []string{"", "Bad Gateway", `{"error":null}`, `{"success":true}`} {
		err := ParseResponseError(makeResponse(http.StatusBadGateway, body), "catalog")
		assert.Contains(t, err.Error(), "catalog returned status 502")
	}

	err := ParseResponseError(makeResponse(http.StatusInternalServerError, structuredError("INTERNAL_ERROR", "db down")), "catalog")
	assert.Contains(t, err.Error(), "catalog returned status 500: db down")
}
