package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/validator"
)

// StorefrontHandler handles HTTP requests for product views.
type StorefrontHandler struct {
	service *service.StorefrontService
	logger  *slog.Logger
}

// NewStorefrontHandler creates a new storefront HTTP handler.
func NewStorefrontHandler(svc *service.StorefrontService, logger *slog.Logger) *StorefrontHandler {
	return &StorefrontHandler{
		service: svc,
		logger:  logger,
	}
}

// AvailabilityResponse is the body of the availability endpoint.
type AvailabilityResponse struct {
	Slug      string `json:"slug"`
	Size      string `json:"size"`
	Color     string `json:"color,omitempty"`
	Available bool   `json:"available"`
}

// --- Handlers ---

// OpenView handles POST /api/v1/storefront/views
func (h *StorefrontHandler) OpenView(w http.ResponseWriter, r *http.Request) {
	var req service.OpenViewInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	shopperID := strings.TrimSpace(r.Header.Get(middleware.ShopperIDHeader))
	res, err := h.service.OpenView(r.Context(), shopperID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: res})
}

// GetView handles GET /api/v1/storefront/views/{viewId}
func (h *StorefrontHandler) GetView(w http.ResponseWriter, r *http.Request) {
	viewID, ok := viewIDParam(w, r)
	if !ok {
		return
	}

	res, err := h.service.GetView(r.Context(), viewID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: res})
}

// SetSelection handles PUT /api/v1/storefront/views/{viewId}/selection
func (h *StorefrontHandler) SetSelection(w http.ResponseWriter, r *http.Request) {
	viewID, ok := viewIDParam(w, r)
	if !ok {
		return
	}

	var req service.SetAttributeInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	res, err := h.service.SetAttribute(r.Context(), viewID, req)
	if err != nil {
		if res != nil {
			httputil.WriteErrorWithData(w, r, toAppError(err), res, h.logger)
			return
		}
		h.writeError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: res})
}

// SetPreview handles PUT /api/v1/storefront/views/{viewId}/preview
func (h *StorefrontHandler) SetPreview(w http.ResponseWriter, r *http.Request) {
	viewID, ok := viewIDParam(w, r)
	if !ok {
		return
	}

	var req service.PreviewInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	h.preview(w, r, viewID, req)
}

// ClearPreview handles DELETE /api/v1/storefront/views/{viewId}/preview
func (h *StorefrontHandler) ClearPreview(w http.ResponseWriter, r *http.Request) {
	viewID, ok := viewIDParam(w, r)
	if !ok {
		return
	}
	h.preview(w, r, viewID, service.PreviewInput{})
}

func (h *StorefrontHandler) preview(w http.ResponseWriter, r *http.Request, viewID string, req service.PreviewInput) {
	res, err := h.service.PreviewColor(r.Context(), viewID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: res})
}

// SelectImage handles PUT /api/v1/storefront/views/{viewId}/image
func (h *StorefrontHandler) SelectImage(w http.ResponseWriter, r *http.Request) {
	viewID, ok := viewIDParam(w, r)
	if !ok {
		return
	}

	var req service.SelectImageInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	res, err := h.service.SelectImage(r.Context(), viewID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: res})
}

// CloseView handles DELETE /api/v1/storefront/views/{viewId}
func (h *StorefrontHandler) CloseView(w http.ResponseWriter, r *http.Request) {
	viewID, ok := viewIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.CloseView(r.Context(), viewID); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Availability handles GET /api/v1/storefront/products/{slug}/availability
func (h *StorefrontHandler) Availability(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	size := r.URL.Query().Get("size")
	color := r.URL.Query().Get("color")

	available, err := h.service.Availability(r.Context(), slug, size, color)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: AvailabilityResponse{
		Slug:      slug,
		Size:      size,
		Color:     color,
		Available: available,
	}})
}

// ForgetSelection handles DELETE /api/v1/storefront/products/{slug}/selection
func (h *StorefrontHandler) ForgetSelection(w http.ResponseWriter, r *http.Request) {
	shopperID := strings.TrimSpace(r.Header.Get(middleware.ShopperIDHeader))
	if err := h.service.ForgetSelection(r.Context(), shopperID, chi.URLParam(r, "slug")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

func viewIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "viewId"))
	if !ok {
		return "", false
	}
	return id.String(), true
}

func (h *StorefrontHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	httputil.WriteError(w, r, toAppError(err), h.logger)
}
