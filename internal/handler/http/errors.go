package http

import (
	"errors"
	"net/http"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/selection"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// toAppError maps selection failures onto the API error taxonomy. Domain
// sentinels are checked before any wrapped catalog AppError so a failed
// refresh reports REFRESH_FAILED rather than the catalog's own status.
func toAppError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFoundVariant):
		return apperrors.Unprocessable("VARIANT_NOT_FOUND", "no active variant matches the selection")
	case errors.Is(err, domain.ErrStaleRefresh):
		return &apperrors.AppError{
			Code:    "STALE_REFRESH",
			Message: "a newer selection superseded this one",
			Status:  http.StatusConflict,
			Err:     apperrors.ErrConflict,
		}
	case errors.Is(err, domain.ErrRefreshFailed):
		return apperrors.BadGateway("REFRESH_FAILED", "could not refresh the selected variant", err)
	case errors.Is(err, selection.ErrImageOutOfRange):
		return &apperrors.AppError{
			Code:    "IMAGE_OUT_OF_RANGE",
			Message: err.Error(),
			Status:  http.StatusBadRequest,
			Err:     apperrors.ErrInvalidInput,
		}
	case errors.Is(err, selection.ErrUnknownDimension):
		return apperrors.InvalidInput(err.Error())
	case errors.Is(err, selection.ErrNotOpen):
		return apperrors.Conflict("product view is not open")
	}
	return err
}
