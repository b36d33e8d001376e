package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/internal/selection"
	"github.com/utafrali/storefront/internal/variant"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
)

// EventPublisher publishes storefront domain events.
type EventPublisher interface {
	PublishVariantSelected(ctx context.Context, data event.VariantSelectedData, correlationID string) error
}

// OpenViewInput holds the parameters for opening a product view.
type OpenViewInput struct {
	Slug string `json:"slug" validate:"required,max=200"`
}

// SetAttributeInput holds the parameters for changing one dimension.
type SetAttributeInput struct {
	Dimension string `json:"dimension" validate:"required,oneof=color size storage ram"`
	Value     string `json:"value" validate:"required,max=100"`
}

// PreviewInput holds the colour to preview. An empty colour ends the
// preview.
type PreviewInput struct {
	Color string `json:"color" validate:"max=100"`
}

// SelectImageInput holds the gallery index to show.
type SelectImageInput struct {
	Index *int `json:"index" validate:"required,gte=0"`
}

// ViewResult is an open view and its current snapshot.
type ViewResult struct {
	ID       string             `json:"id"`
	Snapshot selection.Snapshot `json:"snapshot"`
}

// StorefrontService manages the product views of shoppers.
type StorefrontService struct {
	fetcher  selection.Fetcher
	repo     repository.SelectionRepository
	producer EventPublisher
	registry *selection.Registry
	logger   *slog.Logger
	nowFunc  func() time.Time
}

// NewStorefrontService creates a new storefront service.
func NewStorefrontService(
	fetcher selection.Fetcher,
	repo repository.SelectionRepository,
	producer EventPublisher,
	registry *selection.Registry,
	logger *slog.Logger,
) *StorefrontService {
	return &StorefrontService{
		fetcher:  fetcher,
		repo:     repo,
		producer: producer,
		registry: registry,
		logger:   logger,
		nowFunc:  time.Now,
	}
}

// OpenView opens a view of the product, resuming the shopper's remembered
// selection when there is one.
func (s *StorefrontService) OpenView(ctx context.Context, shopperID string, input OpenViewInput) (*ViewResult, error) {
	if input.Slug == "" {
		return nil, apperrors.InvalidInput("slug is required")
	}

	saved := s.loadSaved(ctx, shopperID, input.Slug)

	id := uuid.New().String()
	view := selection.NewView(input.Slug, s.fetcher, logger.WithContext(logger.WithViewID(ctx, id), s.logger))
	if err := view.Open(ctx, saved); err != nil {
		return nil, err
	}
	s.registry.Add(id, shopperID, view)

	s.logger.InfoContext(ctx, "product view opened",
		slog.String("view_id", id),
		slog.String("slug", input.Slug),
		slog.Bool("restored", saved != nil),
	)

	return &ViewResult{ID: id, Snapshot: view.Snapshot()}, nil
}

// GetView returns the current snapshot of a view.
func (s *StorefrontService) GetView(_ context.Context, viewID string) (*ViewResult, error) {
	view, _, err := s.lookup(viewID)
	if err != nil {
		return nil, err
	}
	return &ViewResult{ID: viewID, Snapshot: view.Snapshot()}, nil
}

// SetAttribute changes one dimension of a view's selection. The snapshot is
// returned even on error so callers can render the unchanged state. After
// a successful change the selection is remembered and announced.
func (s *StorefrontService) SetAttribute(ctx context.Context, viewID string, input SetAttributeInput) (*ViewResult, error) {
	view, shopperID, err := s.lookup(viewID)
	if err != nil {
		return nil, err
	}
	if !domain.IsValidDimension(input.Dimension) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown dimension %q", input.Dimension))
	}

	setErr := view.Set(ctx, input.Dimension, input.Value)
	result := &ViewResult{ID: viewID, Snapshot: view.Snapshot()}
	if setErr != nil {
		s.logger.InfoContext(ctx, "selection change rejected",
			slog.String("view_id", viewID),
			slog.String("dimension", input.Dimension),
			slog.String("value", input.Value),
			slog.String("error", setErr.Error()),
		)
		return result, setErr
	}

	s.commit(ctx, viewID, shopperID, view, result.Snapshot)
	return result, nil
}

// PreviewColor shows a colour's images without committing to it.
func (s *StorefrontService) PreviewColor(_ context.Context, viewID string, input PreviewInput) (*ViewResult, error) {
	view, _, err := s.lookup(viewID)
	if err != nil {
		return nil, err
	}
	if err := view.PreviewColor(input.Color); err != nil {
		return nil, err
	}
	return &ViewResult{ID: viewID, Snapshot: view.Snapshot()}, nil
}

// SelectImage points a view's gallery at an image.
func (s *StorefrontService) SelectImage(_ context.Context, viewID string, input SelectImageInput) (*ViewResult, error) {
	view, _, err := s.lookup(viewID)
	if err != nil {
		return nil, err
	}
	if input.Index == nil {
		return nil, apperrors.InvalidInput("index is required")
	}
	if err := view.SelectImage(*input.Index); err != nil {
		return nil, err
	}
	return &ViewResult{ID: viewID, Snapshot: view.Snapshot()}, nil
}

// CloseView discards a view.
func (s *StorefrontService) CloseView(ctx context.Context, viewID string) error {
	if !s.registry.Remove(viewID) {
		return apperrors.NotFound("view", viewID)
	}
	s.logger.DebugContext(ctx, "product view closed", slog.String("view_id", viewID))
	return nil
}

// Availability reports whether any active variant of the product sells size,
// optionally restricted to a colour.
func (s *StorefrontService) Availability(ctx context.Context, slug, size, color string) (bool, error) {
	if slug == "" {
		return false, apperrors.InvalidInput("slug is required")
	}
	if size == "" {
		return false, apperrors.InvalidInput("size is required")
	}
	product, err := s.fetcher.FetchProduct(ctx, slug, "")
	if err != nil {
		return false, fmt.Errorf("availability of %s: %w", slug, err)
	}
	return variant.IsSizeAvailable(product.Variants, size, color), nil
}

// ForgetSelection drops the remembered selection of a shopper for a product.
func (s *StorefrontService) ForgetSelection(ctx context.Context, shopperID, slug string) error {
	if shopperID == "" {
		return apperrors.InvalidInput("shopper id is required")
	}
	if err := s.repo.Delete(ctx, shopperID, slug); err != nil {
		return fmt.Errorf("forget selection: %w", err)
	}
	return nil
}

// Sweep evicts idle views.
func (s *StorefrontService) Sweep(ctx context.Context) int {
	evicted := s.registry.Sweep(s.nowFunc())
	if evicted > 0 {
		s.logger.InfoContext(ctx, "evicted idle product views", slog.Int("count", evicted))
	}
	return evicted
}

func (s *StorefrontService) lookup(viewID string) (*selection.View, string, error) {
	view, shopperID, ok := s.registry.Get(viewID)
	if !ok {
		return nil, "", apperrors.NotFound("view", viewID)
	}
	return view, shopperID, nil
}

func (s *StorefrontService) loadSaved(ctx context.Context, shopperID, slug string) *domain.SavedSelection {
	if shopperID == "" {
		return nil
	}
	saved, err := s.repo.Get(ctx, shopperID, slug)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "failed to load saved selection",
				slog.String("slug", slug),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}
	return saved
}

// commit remembers and announces a committed selection. Failures are logged
// only; the shopper's view is already updated.
func (s *StorefrontService) commit(ctx context.Context, viewID, shopperID string, view *selection.View, snap selection.Snapshot) {
	if shopperID != "" {
		saved := view.Saved()
		saved.ShopperID = shopperID
		saved.UpdatedAt = s.nowFunc().UTC()
		if _, err := s.repo.Save(ctx, &saved); err != nil {
			s.logger.ErrorContext(ctx, "failed to save selection",
				slog.String("view_id", viewID),
				slog.String("error", err.Error()),
			)
		}
	}

	data := event.VariantSelectedData{
		ShopperID: shopperID,
		ViewID:    viewID,
		Slug:      snap.Slug,
		ProductID: snap.ProductID,
		Color:     snap.Selection.Color,
		Size:      snap.Selection.Size,
		Storage:   snap.Selection.Storage,
		RAM:       snap.Selection.RAM,
		Price:     snap.Price.SalePrice,
		Reference: snap.Price.MRP,
		InStock:   snap.CanAddToCart,
	}
	if snap.Variant != nil {
		data.VariantID = snap.Variant.ID
		data.SKU = snap.Variant.SKU
	}
	if err := s.producer.PublishVariantSelected(ctx, data, logger.CorrelationIDFromContext(ctx)); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish variant.selected event",
			slog.String("view_id", viewID),
			slog.String("error", err.Error()),
		)
	}
}
