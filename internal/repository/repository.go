package repository

import (
	"context"

	"github.com/utafrali/storefront/internal/domain"
)

// SelectionRepository persists the last committed selection per shopper and
// product.
type SelectionRepository interface {
	// Get returns the remembered selection, or an apperrors NotFound error.
	Get(ctx context.Context, shopperID, slug string) (*domain.SavedSelection, error)

	// Save stores the selection unless a newer one is already stored.
	// It reports whether the selection was written.
	Save(ctx context.Context, sel *domain.SavedSelection) (bool, error)

	// Delete forgets the selection of a shopper for a product.
	Delete(ctx context.Context, shopperID, slug string) error
}
