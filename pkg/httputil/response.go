package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/validator"
)

// Response is the standard JSON response envelope.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse represents an error in the standard response format.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes v as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// sentinelBodies describe bare sentinel errors that reach the edge without
// an AppError. exposeErr lets the wrapped message through to the client.
var sentinelBodies = []struct {
	sentinel  error
	code      string
	message   string
	exposeErr bool
}{
	{apperrors.ErrNotFound, "NOT_FOUND", "resource not found", false},
	{apperrors.ErrInvalidInput, "INVALID_INPUT", "", true},
	{apperrors.ErrConflict, "CONFLICT", "", true},
	{apperrors.ErrUnprocessable, "UNPROCESSABLE", "", true},
	{apperrors.ErrServiceUnavail, "SERVICE_UNAVAILABLE", "a dependency is temporarily unavailable", false},
	{apperrors.ErrBadGateway, "BAD_GATEWAY", "a dependency returned an invalid response", false},
}

// errorBody picks the status and client-facing body for err. Unknown errors
// become a 500 whose detail stays in the logs.
func errorBody(err error) (int, *ErrorResponse) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Status, &ErrorResponse{Code: appErr.Code, Message: appErr.Message}
	}
	for _, s := range sentinelBodies {
		if !errors.Is(err, s.sentinel) {
			continue
		}
		msg := s.message
		if s.exposeErr {
			msg = err.Error()
		}
		return apperrors.HTTPStatus(err), &ErrorResponse{Code: s.code, Message: msg}
	}
	return http.StatusInternalServerError, &ErrorResponse{Code: "INTERNAL_ERROR", Message: "an internal error occurred"}
}

// WriteError writes the error envelope for err. The request-scoped logger
// is preferred over fallback.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	WriteErrorWithData(w, r, err, nil, fallback)
}

// WriteErrorWithData is WriteError with a data payload alongside the error,
// for failures that still have a meaningful resource state to show.
func WriteErrorWithData(w http.ResponseWriter, r *http.Request, err error, data any, fallback *slog.Logger) {
	ctx := r.Context()
	l := logger.FromContext(ctx)
	if l == slog.Default() && fallback != nil {
		l = fallback
	}

	status, body := errorBody(err)
	body.RequestID = logger.CorrelationIDFromContext(ctx)

	switch {
	case body.Code == "INTERNAL_ERROR":
		l.ErrorContext(ctx, "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	case status >= http.StatusInternalServerError:
		l.WarnContext(ctx, "request failed",
			slog.String("code", body.Code),
			slog.String("error", err.Error()),
			slog.String("path", r.URL.Path),
		)
	}

	WriteJSON(w, status, Response{Data: data, Error: body})
}

// WriteValidationError writes a 400, with per-field messages when err came
// from the validator.
func WriteValidationError(w http.ResponseWriter, err error) {
	body := &ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()}
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		body = &ErrorResponse{Code: "VALIDATION_ERROR", Message: "request validation failed", Fields: valErr.Fields()}
	}
	WriteJSON(w, http.StatusBadRequest, Response{Error: body})
}

// ParseUUID parses a path parameter as a UUID. On failure it writes a 400
// INVALID_PARAMETER response and returns false.
func ParseUUID(w http.ResponseWriter, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(param)
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, Response{
			Error: &ErrorResponse{Code: "INVALID_PARAMETER", Message: "invalid UUID: " + param},
		})
		return uuid.Nil, false
	}
	return id, true
}
