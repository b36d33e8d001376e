package selection

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/utafrali/storefront/internal/domain"
)

// Fetcher loads a product from the catalog. With a non-empty variantID the
// returned product is merged for that variant.
type Fetcher interface {
	FetchProduct(ctx context.Context, slug, variantID string) (*domain.Product, error)
}

// refreshTarget receives the outcome of the latest issued refresh.
type refreshTarget interface {
	// applyRefresh merges an authoritative product response.
	applyRefresh(product *domain.Product, variantID string)
	// abandonRefresh settles a refresh that changed nothing.
	abandonRefresh()
}

// Coordinator issues variant refreshes for one view and makes sure only the
// most recently issued one is ever applied.
//
// Lock order: Coordinator.mu before View.mu. The catalog call runs with no
// lock held.
type Coordinator struct {
	fetcher Fetcher
	logger  *slog.Logger

	mu          sync.Mutex
	issued      uint64
	appliedSeq  uint64
	lastApplied string
	lastProduct *domain.Product
}

// NewCoordinator creates a coordinator backed by the given fetcher.
func NewCoordinator(fetcher Fetcher, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		fetcher: fetcher,
		logger:  logger,
	}
}

// LastApplied returns the variant id of the last applied refresh.
func (c *Coordinator) LastApplied() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastApplied
}

// Refresh fetches the product merged for variantID and hands it to target.
//
// Asking again for the variant that was applied last, with nothing issued
// since, is a no-op and returns the product applied then. A response that
// arrives after a newer refresh was issued is discarded with
// domain.ErrStaleRefresh. Catalog failures return domain.ErrRefreshFailed
// and leave target untouched.
func (c *Coordinator) Refresh(ctx context.Context, slug, variantID string, target refreshTarget) (*domain.Product, error) {
	c.mu.Lock()
	if variantID == c.lastApplied && c.issued == c.appliedSeq && c.lastProduct != nil {
		product := c.lastProduct
		c.mu.Unlock()
		target.abandonRefresh()
		RefreshTotal.WithLabelValues(outcomeNoop).Inc()
		return product, nil
	}
	c.issued++
	token := c.issued
	c.mu.Unlock()

	start := time.Now()
	product, err := c.fetcher.FetchProduct(ctx, slug, variantID)
	RefreshDuration.Observe(time.Since(start).Seconds())
	if err == nil {
		err = checkMerged(product, variantID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if token != c.issued {
		RefreshTotal.WithLabelValues(outcomeStale).Inc()
		c.logger.DebugContext(ctx, "discarding superseded variant refresh",
			slog.String("slug", slug),
			slog.String("variant_id", variantID),
			slog.Uint64("token", token),
			slog.Uint64("latest", c.issued),
		)
		return nil, fmt.Errorf("refresh variant %s: %w", variantID, domain.ErrStaleRefresh)
	}

	if err != nil {
		target.abandonRefresh()
		RefreshTotal.WithLabelValues(outcomeFailed).Inc()
		c.logger.WarnContext(ctx, "variant refresh failed",
			slog.String("slug", slug),
			slog.String("variant_id", variantID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("refresh variant %s: %w: %w", variantID, domain.ErrRefreshFailed, err)
	}

	target.applyRefresh(product, variantID)
	c.lastApplied = variantID
	c.appliedSeq = token
	c.lastProduct = product
	RefreshTotal.WithLabelValues(outcomeApplied).Inc()
	return product, nil
}

// checkMerged rejects responses the selection cannot be re-derived from.
func checkMerged(product *domain.Product, variantID string) error {
	if product == nil {
		return fmt.Errorf("catalog returned no product")
	}
	if sv := product.SelectedVariant; sv != nil && sv.ID != "" && sv.ID != variantID {
		return fmt.Errorf("catalog merged variant %s, requested %s", sv.ID, variantID)
	}
	if product.SelectedVariant == nil && product.VariantByID(variantID) == nil {
		return fmt.Errorf("catalog response does not carry variant %s", variantID)
	}
	return nil
}
