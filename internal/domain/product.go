package domain

import (
	"encoding/json"
	"strings"
)

// Attribute dimensions a shopper can choose between.
const (
	DimensionColor   = "color"
	DimensionSize    = "size"
	DimensionStorage = "storage"
	DimensionRAM     = "ram"
)

// Dimensions returns the selectable attribute dimensions in display order.
func Dimensions() []string {
	return []string{DimensionColor, DimensionSize, DimensionStorage, DimensionRAM}
}

// IsValidDimension checks whether the given name is a selectable dimension.
func IsValidDimension(name string) bool {
	for _, d := range Dimensions() {
		if d == name {
			return true
		}
	}
	return false
}

// Variant is one purchasable configuration of a product. Prices are in cents.
type Variant struct {
	ID         string            `json:"id"`
	SKU        string            `json:"sku"`
	Attributes map[string]string `json:"attributes"`
	Price      int64             `json:"price"`
	SalePrice  int64             `json:"salePrice,omitempty"`
	MRP        int64             `json:"mrp,omitempty"`
	Stock      int               `json:"stock"`
	Active     bool              `json:"active"`
	Images     []string          `json:"images,omitempty"`

	// Sizes is the compound size attribute expanded into discrete tokens.
	// Populated by Product.Normalize.
	Sizes []string `json:"sizeOptions,omitempty"`
}

// UnmarshalJSON accepts the activity flag as either "isActive" or "active".
// When both are present "isActive" wins.
func (v *Variant) UnmarshalJSON(data []byte) error {
	type plain Variant
	aux := struct {
		*plain
		IsActive *bool `json:"isActive"`
	}{plain: (*plain)(v)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.IsActive != nil {
		v.Active = *aux.IsActive
	}
	return nil
}

// Attr returns the value of a singular attribute, or "" when the variant
// has no attribute map or no value for the dimension.
func (v *Variant) Attr(name string) string {
	if v.Attributes == nil {
		return ""
	}
	return strings.TrimSpace(v.Attributes[name])
}

// SizeOptions returns the discrete size labels sold under this variant.
func (v *Variant) SizeOptions() []string {
	if v.Sizes != nil {
		return v.Sizes
	}
	return SplitSizes(v.Attr(DimensionSize))
}

// HasSize reports whether the given size token is sold under this variant.
func (v *Variant) HasSize(size string) bool {
	for _, s := range v.SizeOptions() {
		if s == size {
			return true
		}
	}
	return false
}

// Malformed reports whether the variant arrived without an attribute map.
// Malformed variants are treated as having no attributes.
func (v *Variant) Malformed() bool {
	return v.Attributes == nil
}

// Purchasable reports whether the variant can be added to a cart. Stock
// gates purchase even for active variants.
func (v *Variant) Purchasable() bool {
	return v.Active && v.Stock > 0
}

// SelectedVariant is the catalog's projection of the variant a product
// response was merged for.
type SelectedVariant struct {
	ID         string            `json:"id,omitempty"`
	SKU        string            `json:"sku"`
	Stock      int               `json:"stock"`
	Attributes map[string]string `json:"attributes"`
}

// Attr returns the value of a singular attribute of the selected variant.
func (s *SelectedVariant) Attr(name string) string {
	if s == nil || s.Attributes == nil {
		return ""
	}
	return strings.TrimSpace(s.Attributes[name])
}

// Product is the storefront view of a catalog product. When the catalog
// answers a request keyed by variant id, the top-level price, title,
// description and image fields already reflect that variant.
type Product struct {
	ID               string           `json:"id"`
	Slug             string           `json:"slug"`
	Title            string           `json:"title"`
	ShortDescription string           `json:"shortDescription,omitempty"`
	Variants         []Variant        `json:"variants"`
	Images           []string         `json:"images"`
	Price            int64            `json:"price"`
	SalePrice        int64            `json:"salePrice,omitempty"`
	MRP              int64            `json:"mrp,omitempty"`
	SelectedVariant  *SelectedVariant `json:"selectedVariant,omitempty"`
}

// Normalize expands every variant's compound size field once so the rest
// of the storefront works with discrete size tokens.
func (p *Product) Normalize() {
	for i := range p.Variants {
		v := &p.Variants[i]
		v.Sizes = SplitSizes(v.Attr(DimensionSize))
	}
}

// VariantByID returns the variant with the given id, or nil.
func (p *Product) VariantByID(id string) *Variant {
	if id == "" {
		return nil
	}
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i]
		}
	}
	return nil
}

// MergedFor reports whether the product-level fields were merged for the
// given variant by the catalog.
func (p *Product) MergedFor(variantID string) bool {
	return p.SelectedVariant != nil && variantID != "" && p.SelectedVariant.ID == variantID
}
