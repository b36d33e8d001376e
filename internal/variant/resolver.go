package variant

import (
	"fmt"

	"github.com/utafrali/storefront/internal/domain"
)

// Query is a possibly partial attribute selection. Empty fields match any
// value.
type Query struct {
	Color   string
	Size    string
	Storage string
	RAM     string
}

// String formats the query for diagnostics.
func (q Query) String() string {
	return fmt.Sprintf("color=%q size=%q storage=%q ram=%q", q.Color, q.Size, q.Storage, q.RAM)
}

// matches reports whether the variant satisfies every non-empty field.
func (q Query) matches(v *domain.Variant) bool {
	if !v.Active {
		return false
	}
	if q.Color != "" && v.Attr(domain.DimensionColor) != q.Color {
		return false
	}
	if q.Storage != "" && v.Attr(domain.DimensionStorage) != q.Storage {
		return false
	}
	if q.RAM != "" && v.Attr(domain.DimensionRAM) != q.RAM {
		return false
	}
	if q.Size != "" && !v.HasSize(q.Size) {
		return false
	}
	return true
}

// Resolve returns the first active variant matching the query, in list
// order. Duplicate matches are not an error: the first one wins.
func Resolve(variants []domain.Variant, q Query) (*domain.Variant, error) {
	for i := range variants {
		if q.matches(&variants[i]) {
			return &variants[i], nil
		}
	}
	return nil, fmt.Errorf("resolve %s: %w", q, domain.ErrNotFoundVariant)
}

// ResolveColor returns the first active variant with the given colour,
// ignoring every other dimension.
func ResolveColor(variants []domain.Variant, color string) (*domain.Variant, error) {
	if color == "" {
		return nil, fmt.Errorf("resolve empty color: %w", domain.ErrNotFoundVariant)
	}
	return Resolve(variants, Query{Color: color})
}

// FirstActive returns the first active variant, or nil.
func FirstActive(variants []domain.Variant) *domain.Variant {
	for i := range variants {
		if variants[i].Active {
			return &variants[i]
		}
	}
	return nil
}

// IsSizeAvailable reports whether a size can be chosen for the selected
// colour. Without a colour every size is offered; with a colour that no
// active variant carries, none is.
func IsSizeAvailable(variants []domain.Variant, size, selectedColor string) bool {
	if selectedColor == "" {
		return true
	}
	v, err := ResolveColor(variants, selectedColor)
	if err != nil {
		return false
	}
	return v.HasSize(size)
}
