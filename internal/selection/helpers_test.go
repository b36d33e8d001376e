package selection

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
)

// --- Test Helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func shirtProduct() *domain.Product {
	return &domain.Product{
		ID:     "prod-shirt",
		Slug:   "linen-shirt",
		Title:  "Linen Shirt",
		Images: []string{"p-1.jpg", "p-2.jpg", "p-3.jpg"},
		Price:  1200,
		Variants: []domain.Variant{
			{ID: "green", SKU: "LS-GRN", Attributes: map[string]string{"color": "Green", "size": "XS"}, Price: 900, Stock: 2, Active: false},
			{ID: "red", SKU: "LS-RED", Attributes: map[string]string{"color": "Red", "size": "S,M"}, Price: 1000, MRP: 1500, Stock: 5, Active: true, Images: []string{"red-1.jpg", "red-2.jpg"}},
			{ID: "blue", SKU: "LS-BLU", Attributes: map[string]string{"color": "Blue", "size": "L"}, Price: 1100, SalePrice: 990, Stock: 0, Active: true, Images: []string{"blue-1.jpg"}},
		},
	}
}

func phoneProduct() *domain.Product {
	return &domain.Product{
		ID:    "prod-phone",
		Slug:  "pixel",
		Title: "Pixel",
		Price: 49900,
		Variants: []domain.Variant{
			{ID: "black-128-8", Attributes: map[string]string{"color": "Black", "storage": "128GB", "ram": "8GB"}, Price: 49900, Stock: 4, Active: true},
			{ID: "black-256-8", Attributes: map[string]string{"color": "Black", "storage": "256GB", "ram": "8GB"}, Price: 59900, Stock: 2, Active: true},
			{ID: "silver-256-12", Attributes: map[string]string{"color": "Silver", "storage": "256GB", "ram": "12GB"}, Price: 69900, Stock: 1, Active: true},
		},
	}
}

// mergeFor applies the catalog merge convention for a variant id.
func mergeFor(p *domain.Product, variantID string) *domain.Product {
	v := p.VariantByID(variantID)
	if v == nil {
		return p
	}
	p.Price, p.SalePrice, p.MRP = v.Price, v.SalePrice, v.MRP
	p.Title = p.Title + " " + v.Attr(domain.DimensionColor)
	if len(v.Images) > 0 {
		p.Images = v.Images
	}
	attrs := make(map[string]string, len(v.Attributes))
	for k, val := range v.Attributes {
		attrs[k] = val
	}
	p.SelectedVariant = &domain.SelectedVariant{ID: v.ID, SKU: v.SKU, Stock: v.Stock, Attributes: attrs}
	return p
}

// fakeCatalog serves fresh copies of a product and records every call.
// A gate, when set for a variant id, holds that fetch until closed.
type fakeCatalog struct {
	build func() *domain.Product

	mu       sync.Mutex
	calls    []string
	err      error
	gates    map[string]chan struct{}
	started  chan string
	selected string
}

func newFakeCatalog(build func() *domain.Product) *fakeCatalog {
	return &fakeCatalog{build: build, gates: make(map[string]chan struct{})}
}

func (f *fakeCatalog) FetchProduct(ctx context.Context, slug, variantID string) (*domain.Product, error) {
	f.mu.Lock()
	f.calls = append(f.calls, variantID)
	gate := f.gates[variantID]
	started := f.started
	err := f.err
	selected := f.selected
	f.mu.Unlock()

	if started != nil {
		started <- variantID
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	p := f.build()
	if variantID == "" {
		if selected != "" {
			return mergeFor(p, selected), nil
		}
		return p, nil
	}
	return mergeFor(p, variantID), nil
}

func (f *fakeCatalog) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeCatalog) gate(variantID string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[variantID] = ch
	return ch
}

func (f *fakeCatalog) watch() chan string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = make(chan string, 8)
	return f.started
}

func (f *fakeCatalog) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func openView(t *testing.T, cat *fakeCatalog, slug string) *View {
	t.Helper()
	v := NewView(slug, cat, testLogger())
	require.NoError(t, v.Open(context.Background(), nil))
	return v
}
