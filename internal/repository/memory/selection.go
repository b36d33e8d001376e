// Package memory keeps selections in process memory. It backs the service
// when Redis is disabled and is used in tests.
package memory

import (
	"context"
	"sync"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// SelectionRepository is an in-memory repository.SelectionRepository.
type SelectionRepository struct {
	mu    sync.RWMutex
	items map[string]domain.SavedSelection
}

// NewSelectionRepository creates an empty in-memory repository.
func NewSelectionRepository() *SelectionRepository {
	return &SelectionRepository{items: make(map[string]domain.SavedSelection)}
}

func key(shopperID, slug string) string {
	return shopperID + "\x00" + slug
}

// Get returns a copy of the stored selection.
func (r *SelectionRepository) Get(_ context.Context, shopperID, slug string) (*domain.SavedSelection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sel, ok := r.items[key(shopperID, slug)]
	if !ok {
		return nil, apperrors.NotFound("selection", shopperID+"/"+slug)
	}
	return &sel, nil
}

// Save stores the selection unless a newer one is present.
func (r *SelectionRepository) Save(_ context.Context, sel *domain.SavedSelection) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(sel.ShopperID, sel.Slug)
	if cur, ok := r.items[k]; ok && cur.UpdatedAt.After(sel.UpdatedAt) {
		return false, nil
	}
	r.items[k] = *sel
	return true, nil
}

// Delete forgets a selection.
func (r *SelectionRepository) Delete(_ context.Context, shopperID, slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.items, key(shopperID, slug))
	return nil
}

// Len returns the number of stored selections.
func (r *SelectionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
