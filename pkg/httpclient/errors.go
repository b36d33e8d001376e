package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// maxErrorBody bounds how much of a failed response is read.
const maxErrorBody = 1 << 20

// DownstreamErrorResponse is the error body of a downstream service. Both
// the {"error":{"code","message"}} envelope and the catalog's
// {"success":false,"message"} form are understood.
type DownstreamErrorResponse struct {
	Success *bool  `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError consumes and closes a non-2xx response and returns the
// AppError a storefront caller should see. Unrecognised bodies keep the raw
// text as the message.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apperrors.BadGateway("UPSTREAM_ERROR",
			fmt.Sprintf("%s returned status %d", serviceName, resp.StatusCode),
			fmt.Errorf("read error body: %w", err))
	}

	code, message := "", string(body)
	var downstream DownstreamErrorResponse
	if json.Unmarshal(body, &downstream) == nil {
		switch {
		case downstream.Error != nil:
			code, message = downstream.Error.Code, downstream.Error.Message
		case downstream.Success != nil && !*downstream.Success:
			message = downstream.Message
		}
	}
	return downstreamError(resp.StatusCode, code, message, serviceName)
}

// downstreamError maps a downstream status onto the storefront's error kinds.
// Anything the shopper cannot act on, including the storefront's own
// credentials being refused, is a bad gateway.
func downstreamError(status int, code, message, serviceName string) *apperrors.AppError {
	qualified := fmt.Sprintf("%s returned status %d: %s", serviceName, status, message)

	switch status {
	case http.StatusNotFound, http.StatusGone:
		return apperrors.NotFound(serviceName, message)
	case http.StatusBadRequest:
		return apperrors.InvalidInput(qualified)
	case http.StatusConflict:
		return apperrors.Conflict(qualified)
	case http.StatusUnprocessableEntity:
		if code == "" {
			code = "UNPROCESSABLE"
		}
		return apperrors.Unprocessable(code, qualified)
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return apperrors.ServiceUnavailable(qualified)
	default:
		if code == "" {
			code = "UPSTREAM_ERROR"
		}
		return apperrors.BadGateway(code, qualified, nil)
	}
}
