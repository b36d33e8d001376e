package selection

import (
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/variant"
)

// VariantSummary is the part of the resolved variant shown to shoppers.
type VariantSummary struct {
	ID          string            `json:"id"`
	SKU         string            `json:"sku"`
	Stock       int               `json:"stock"`
	Active      bool              `json:"active"`
	Attributes  map[string]string `json:"attributes"`
	SizeOptions []string          `json:"size_options"`
}

// Snapshot is a consistent read of everything a product page renders.
type Snapshot struct {
	Slug             string                `json:"slug"`
	ProductID        string                `json:"product_id"`
	Title            string                `json:"title"`
	ShortDescription string                `json:"short_description,omitempty"`
	Phase            Phase                 `json:"phase"`
	Cause            Cause                 `json:"cause,omitempty"`
	Selection        Selection             `json:"selection"`
	Options          variant.Options       `json:"options"`
	SizesForColor    []string              `json:"sizes_for_color"`
	Variant          *VariantSummary       `json:"variant,omitempty"`
	Images           []string              `json:"images"`
	ImageIndex       int                   `json:"image_index"`
	PreviewColor     string                `json:"preview_color,omitempty"`
	Price            domain.EffectivePrice `json:"price"`
	CanAddToCart     bool                  `json:"can_add_to_cart"`
	Consistent       bool                  `json:"consistent"`
}

// Snapshot reads the whole view under one lock.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	images := v.imagesLocked()
	snap := Snapshot{
		Slug:          v.slug,
		Phase:         v.state.Phase,
		Cause:         v.state.Cause,
		Selection:     v.state.Selection,
		Options:       v.options,
		SizesForColor: v.options.SizesForColor(v.state.Color),
		Images:        images,
		ImageIndex:    v.state.DisplayIndex(len(images)),
		PreviewColor:  v.preview,
		Price:         v.priceLocked(),
	}
	if v.product == nil {
		return snap
	}

	snap.ProductID = v.product.ID
	snap.Title = v.product.Title
	snap.ShortDescription = v.product.ShortDescription

	resolved := v.resolvedLocked()
	snap.Consistent = v.state.Consistent(resolved)
	if resolved != nil {
		snap.Variant = &VariantSummary{
			ID:          resolved.ID,
			SKU:         resolved.SKU,
			Stock:       resolved.Stock,
			Active:      resolved.Active,
			Attributes:  resolved.Attributes,
			SizeOptions: resolved.SizeOptions(),
		}
		sizeOK := len(resolved.SizeOptions()) == 0 || resolved.HasSize(v.state.Size)
		snap.CanAddToCart = resolved.Purchasable() && sizeOK
	}
	return snap
}
