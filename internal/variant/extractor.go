// Package variant derives selectable attribute options from a product's
// variant list and resolves attribute selections to concrete variants.
// Everything here is a pure function of its inputs.
package variant

import (
	"github.com/utafrali/storefront/internal/domain"
)

// Swatch is the image set shown for a colour swatch.
type Swatch struct {
	Color     string   `json:"color"`
	VariantID string   `json:"variant_id"`
	Images    []string `json:"images"`
}

// Options holds the distinct values available per attribute dimension.
type Options struct {
	Colors   []string `json:"colors"`
	Sizes    []string `json:"sizes"`
	Storages []string `json:"storages"`
	RAMs     []string `json:"rams"`
	Swatches []Swatch `json:"swatches"`

	// sizesByColor holds the size tokens of the first active variant per colour.
	sizesByColor map[string][]string
	swatchIndex  map[string]int
}

// orderedSet collects distinct strings in first-seen order.
type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{}), items: []string{}}
}

func (s *orderedSet) add(v string) {
	if v == "" {
		return
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}

// Extract computes the attribute options of a product. Inactive variants
// and variants without an attribute map contribute nothing.
func Extract(product *domain.Product) Options {
	colors := newOrderedSet()
	sizes := newOrderedSet()
	storages := newOrderedSet()
	rams := newOrderedSet()

	opts := Options{
		Swatches:     []Swatch{},
		sizesByColor: make(map[string][]string),
		swatchIndex:  make(map[string]int),
	}

	if product == nil {
		opts.Colors, opts.Sizes, opts.Storages, opts.RAMs = []string{}, []string{}, []string{}, []string{}
		return opts
	}

	for i := range product.Variants {
		v := &product.Variants[i]
		if !v.Active || v.Malformed() {
			continue
		}

		color := v.Attr(domain.DimensionColor)
		colors.add(color)
		storages.add(v.Attr(domain.DimensionStorage))
		rams.add(v.Attr(domain.DimensionRAM))
		for _, s := range v.SizeOptions() {
			sizes.add(s)
		}

		if color == "" {
			continue
		}
		if _, ok := opts.swatchIndex[color]; ok {
			continue
		}
		images := v.Images
		if len(images) == 0 {
			images = product.Images
		}
		opts.swatchIndex[color] = len(opts.Swatches)
		opts.Swatches = append(opts.Swatches, Swatch{
			Color:     color,
			VariantID: v.ID,
			Images:    images,
		})
		opts.sizesByColor[color] = v.SizeOptions()
	}

	opts.Colors = colors.items
	opts.Sizes = domain.SortSizes(sizes.items)
	opts.Storages = storages.items
	opts.RAMs = rams.items
	return opts
}

// SizesForColor returns the sizes sold for the given colour. Without a
// colour it returns every size. An unknown colour yields no sizes.
func (o Options) SizesForColor(color string) []string {
	if color == "" {
		return o.Sizes
	}
	sizes, ok := o.sizesByColor[color]
	if !ok {
		return []string{}
	}
	return sizes
}

// Swatch returns the swatch for a colour.
func (o Options) Swatch(color string) (Swatch, bool) {
	i, ok := o.swatchIndex[color]
	if !ok {
		return Swatch{}, false
	}
	return o.Swatches[i], true
}
