package selection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/variant"
)

// Errors returned by View operations besides the domain taxonomy.
var (
	ErrNotOpen          = errors.New("product view is not open")
	ErrImageOutOfRange  = errors.New("image index out of range")
	ErrUnknownDimension = errors.New("unknown attribute dimension")
)

// View is the selection engine of one product page. All methods are safe
// for concurrent use; catalog round-trips happen without holding the state
// lock.
type View struct {
	slug   string
	coord  *Coordinator
	fetch  Fetcher
	logger *slog.Logger

	mu      sync.Mutex
	product *domain.Product
	options variant.Options
	state   State
	preview string
}

// NewView creates an unopened view of the product with the given slug.
func NewView(slug string, fetcher Fetcher, logger *slog.Logger) *View {
	return &View{
		slug:   slug,
		coord:  NewCoordinator(fetcher, logger),
		fetch:  fetcher,
		logger: logger.With(slog.String("slug", slug)),
		state:  State{Phase: PhaseUninitialized},
	}
}

// Slug returns the product slug the view was opened for.
func (v *View) Slug() string {
	return v.slug
}

// Open loads the product and initialises the selection from the catalog's
// selected variant or the first active variant. A remembered selection, if
// given, is then restored; failing to restore keeps the defaults.
func (v *View) Open(ctx context.Context, restore *domain.SavedSelection) error {
	product, err := v.fetch.FetchProduct(ctx, v.slug, "")
	if err != nil {
		return fmt.Errorf("open product %s: %w", v.slug, err)
	}
	product.Normalize()

	v.mu.Lock()
	v.setProductLocked(product)
	v.applyDefaultsLocked()
	v.mu.Unlock()

	if restore != nil {
		if err := v.restore(ctx, restore); err != nil {
			v.logger.WarnContext(ctx, "could not restore saved selection, keeping defaults",
				slog.String("variant_id", restore.VariantID),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

func (v *View) restore(ctx context.Context, saved *domain.SavedSelection) error {
	v.mu.Lock()
	target, err := variant.Resolve(v.product.Variants, variant.Query{
		Color:   saved.Color,
		Size:    saved.Size,
		Storage: saved.Storage,
		RAM:     saved.RAM,
	})
	if err != nil {
		v.mu.Unlock()
		return err
	}
	if target.ID == v.state.VariantID {
		if target.HasSize(saved.Size) {
			v.state.Size = saved.Size
		}
		v.state.Cause = CauseRestore
		v.mu.Unlock()
		return nil
	}
	id := target.ID
	v.beginChangeLocked(CauseRestore)
	v.mu.Unlock()

	if _, err := v.coord.Refresh(ctx, v.slug, id, v); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state.VariantID == id {
		if current := v.product.VariantByID(id); current != nil && current.HasSize(saved.Size) {
			v.state.Size = saved.Size
		}
		v.state.Cause = CauseRestore
	}
	return nil
}

// Options returns the attribute options of the current product.
func (v *View) Options() variant.Options {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.options
}

// Selection returns the committed selection.
func (v *View) Selection() Selection {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.Selection
}

// State returns a copy of the full selection state.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Set changes one attribute dimension.
func (v *View) Set(ctx context.Context, dimension, value string) error {
	switch dimension {
	case domain.DimensionColor:
		return v.SetColor(ctx, value)
	case domain.DimensionSize:
		return v.SetSize(value)
	case domain.DimensionStorage:
		return v.SetStorage(ctx, value)
	case domain.DimensionRAM:
		return v.SetRAM(ctx, value)
	}
	return fmt.Errorf("%w: %q", ErrUnknownDimension, dimension)
}

// SetColor re-keys the selection to the first active variant of the colour
// and refreshes it from the catalog. Other dimensions are ignored for the
// lookup and re-derived from the refreshed variant.
func (v *View) SetColor(ctx context.Context, color string) error {
	v.mu.Lock()
	if v.product == nil {
		v.mu.Unlock()
		return ErrNotOpen
	}
	target, err := variant.ResolveColor(v.product.Variants, color)
	if err != nil {
		v.mu.Unlock()
		v.logger.InfoContext(ctx, "no variant for colour", slog.String("color", color))
		return err
	}
	id := target.ID
	v.beginChangeLocked(CauseUser)
	v.mu.Unlock()

	_, err = v.coord.Refresh(ctx, v.slug, id, v)
	return err
}

// SetSize changes the size locally. The requested size is recorded even
// when no variant of the current colour sells it; the resolved variant is
// then left unchanged and domain.ErrNotFoundVariant is returned. An empty
// size is rejected the same way and changes nothing.
func (v *View) SetSize(size string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.product == nil {
		return ErrNotOpen
	}
	if size == "" {
		return fmt.Errorf("empty size: %w", domain.ErrNotFoundVariant)
	}

	v.state.Size = size
	v.state.Cause = CauseUser

	target, err := variant.Resolve(v.product.Variants, variant.Query{Color: v.state.Color, Size: size})
	if err != nil {
		return err
	}
	if target.ID != v.state.VariantID {
		v.state.VariantID = target.ID
		v.state.Storage = target.Attr(domain.DimensionStorage)
		v.state.RAM = target.Attr(domain.DimensionRAM)
		v.state.ImageIndex = 0
	}
	return nil
}

// SetStorage resolves the current selection with a new storage value and
// refreshes the match.
func (v *View) SetStorage(ctx context.Context, storage string) error {
	return v.setSpec(ctx, func(q *variant.Query) { q.Storage = storage })
}

// SetRAM resolves the current selection with a new RAM value and refreshes
// the match.
func (v *View) SetRAM(ctx context.Context, ram string) error {
	return v.setSpec(ctx, func(q *variant.Query) { q.RAM = ram })
}

func (v *View) setSpec(ctx context.Context, change func(*variant.Query)) error {
	v.mu.Lock()
	if v.product == nil {
		v.mu.Unlock()
		return ErrNotOpen
	}
	q := variant.Query{
		Color:   v.state.Color,
		Size:    v.state.Size,
		Storage: v.state.Storage,
		RAM:     v.state.RAM,
	}
	change(&q)
	target, err := variant.Resolve(v.product.Variants, q)
	if err != nil {
		v.mu.Unlock()
		v.logger.InfoContext(ctx, "no variant for selection", slog.String("query", q.String()))
		return err
	}
	id := target.ID
	v.beginChangeLocked(CauseUser)
	v.mu.Unlock()

	_, err = v.coord.Refresh(ctx, v.slug, id, v)
	return err
}

// PreviewColor overrides the displayed images with a colour swatch without
// touching the committed selection. An empty colour ends the preview.
func (v *View) PreviewColor(color string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.product == nil {
		return ErrNotOpen
	}
	if color == "" {
		v.preview = ""
		return nil
	}
	if _, ok := v.options.Swatch(color); !ok {
		return fmt.Errorf("preview colour %q: %w", color, domain.ErrNotFoundVariant)
	}
	v.preview = color
	return nil
}

// SelectImage points the gallery at the i-th displayed image.
func (v *View) SelectImage(i int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.product == nil {
		return ErrNotOpen
	}
	if n := len(v.imagesLocked()); i < 0 || i >= n {
		return fmt.Errorf("%w: %d of %d", ErrImageOutOfRange, i, n)
	}
	v.state.ImageIndex = i
	return nil
}

// ResolvedVariant returns a copy of the currently resolved variant, or nil.
func (v *View) ResolvedVariant() *domain.Variant {
	v.mu.Lock()
	defer v.mu.Unlock()
	return copyVariant(v.resolvedLocked())
}

// DisplayImages returns the image set to show: the previewed swatch, the
// resolved variant, or the product, in that order of preference.
func (v *View) DisplayImages() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.imagesLocked()
}

// EffectivePrice returns the reference and charged price for the resolved
// variant.
func (v *View) EffectivePrice() domain.EffectivePrice {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.priceLocked()
}

// Saved returns the committed selection in its persisted form.
func (v *View) Saved() domain.SavedSelection {
	v.mu.Lock()
	defer v.mu.Unlock()
	return domain.SavedSelection{
		Slug:      v.slug,
		VariantID: v.state.VariantID,
		Color:     v.state.Color,
		Size:      v.state.Size,
		Storage:   v.state.Storage,
		RAM:       v.state.RAM,
	}
}

// --- refreshTarget ---

func (v *View) applyRefresh(product *domain.Product, variantID string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	// 1. product and options
	product.Normalize()
	v.setProductLocked(product)

	// 2. singular dimensions from the authoritative selected variant
	attr := func(dim string) string {
		if product.SelectedVariant != nil {
			return product.SelectedVariant.Attr(dim)
		}
		return product.VariantByID(variantID).Attr(dim)
	}
	v.state.Color = attr(domain.DimensionColor)
	v.state.Storage = attr(domain.DimensionStorage)
	v.state.RAM = attr(domain.DimensionRAM)

	// 3. size only when the composition no longer holds it
	tokens := domain.SplitSizes(attr(domain.DimensionSize))
	if !contains(tokens, v.state.Size) {
		v.state.Size = domain.FirstSizeToken(attr(domain.DimensionSize))
	}

	// 4.
	v.state.VariantID = variantID
	v.state.ImageIndex = 0

	// 5. settle; the guard keeps defaults off the user's choice
	v.state.Phase = PhaseInitialized
	v.state.Cause = CauseRefreshSettled
	v.applyDefaultsLocked()
}

func (v *View) abandonRefresh() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state.Phase == PhaseAttributeChanged {
		v.state.Phase = PhaseInitialized
	}
}

// --- locked helpers ---

func (v *View) beginChangeLocked(cause Cause) {
	v.state.Phase = PhaseAttributeChanged
	v.state.Cause = cause
}

func (v *View) setProductLocked(product *domain.Product) {
	v.product = product
	v.options = variant.Extract(product)
	if v.preview != "" {
		if _, ok := v.options.Swatch(v.preview); !ok {
			v.preview = ""
		}
	}
}

func (v *View) applyDefaultsLocked() {
	if !ShouldApplyDefaults(v.state) {
		if v.state.Phase == PhaseUninitialized {
			v.state.Phase = PhaseInitialized
		}
		return
	}

	var target *domain.Variant
	if sv := v.product.SelectedVariant; sv != nil {
		if cand := v.product.VariantByID(sv.ID); cand != nil && cand.Active {
			target = cand
		}
	}
	if target == nil {
		target = variant.FirstActive(v.product.Variants)
	}

	v.state.Phase = PhaseInitialized
	v.state.Cause = CauseInit
	v.state.ImageIndex = 0
	if target == nil {
		return
	}
	v.state.Selection = selectionOf(target)
	v.state.VariantID = target.ID
}

func (v *View) resolvedLocked() *domain.Variant {
	if v.product == nil {
		return nil
	}
	return v.product.VariantByID(v.state.VariantID)
}

func (v *View) imagesLocked() []string {
	if v.product == nil {
		return []string{}
	}
	if v.preview != "" {
		if sw, ok := v.options.Swatch(v.preview); ok && len(sw.Images) > 0 {
			return sw.Images
		}
	}
	resolved := v.resolvedLocked()
	if resolved != nil && !v.product.MergedFor(resolved.ID) && len(resolved.Images) > 0 {
		return resolved.Images
	}
	if v.product.Images == nil {
		return []string{}
	}
	return v.product.Images
}

func (v *View) priceLocked() domain.EffectivePrice {
	if v.product == nil {
		return domain.EffectivePrice{}
	}
	resolved := v.resolvedLocked()
	if resolved != nil && !v.product.MergedFor(resolved.ID) && resolved.Price > 0 {
		return domain.NewEffectivePrice(resolved.Price, resolved.SalePrice, resolved.MRP)
	}
	return domain.NewEffectivePrice(v.product.Price, v.product.SalePrice, v.product.MRP)
}

func copyVariant(v *domain.Variant) *domain.Variant {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}

func contains(items []string, s string) bool {
	for _, it := range items {
		if it == s {
			return true
		}
	}
	return false
}
