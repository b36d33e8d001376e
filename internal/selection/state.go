// Package selection holds the per-view selection state machine and the
// refresh coordinator that reconciles it with authoritative catalog data.
package selection

import (
	"github.com/utafrali/storefront/internal/domain"
)

// Phase is the lifecycle position of a view's selection.
type Phase string

const (
	PhaseUninitialized    Phase = "uninitialized"
	PhaseInitialized      Phase = "initialized"
	PhaseAttributeChanged Phase = "attribute_changed"
)

// Cause tags the transition that produced the current state.
type Cause string

const (
	CauseInit           Cause = "init"
	CauseUser           Cause = "user"
	CauseRefreshSettled Cause = "refresh-settled"
	CauseRestore        Cause = "restore"
)

// Selection is the committed choice per attribute dimension.
type Selection struct {
	Color   string `json:"color"`
	Size    string `json:"size"`
	Storage string `json:"storage"`
	RAM     string `json:"ram"`
}

// Get returns the selected value of a dimension.
func (s Selection) Get(dimension string) string {
	switch dimension {
	case domain.DimensionColor:
		return s.Color
	case domain.DimensionSize:
		return s.Size
	case domain.DimensionStorage:
		return s.Storage
	case domain.DimensionRAM:
		return s.RAM
	}
	return ""
}

// State is the full selection state of one product view.
type State struct {
	Selection
	VariantID  string
	ImageIndex int
	Phase      Phase
	Cause      Cause
}

// ShouldApplyDefaults is the guard in front of default initialisation.
// Defaults never overwrite a change that is in flight or one that a user
// or a settled refresh produced, and only fill an empty colour.
func ShouldApplyDefaults(s State) bool {
	if s.Phase == PhaseAttributeChanged {
		return false
	}
	if s.Cause == CauseUser || s.Cause == CauseRefreshSettled {
		return false
	}
	return s.Color == ""
}

// DisplayIndex clamps the image index to a list of n images.
func (s State) DisplayIndex(n int) int {
	if n <= 0 || s.ImageIndex < 0 {
		return 0
	}
	if s.ImageIndex > n-1 {
		return n - 1
	}
	return s.ImageIndex
}

// Consistent reports whether every singular dimension the variant carries
// equals the committed selection. Size is exempt: a shopper may record a
// size the variant does not sell.
func (s State) Consistent(v *domain.Variant) bool {
	if v == nil {
		return s.VariantID == ""
	}
	if v.ID != s.VariantID {
		return false
	}
	for _, dim := range []string{domain.DimensionColor, domain.DimensionStorage, domain.DimensionRAM} {
		if val := v.Attr(dim); val != "" && val != s.Selection.Get(dim) {
			return false
		}
	}
	return true
}

// selectionOf reads the singular dimensions and the first size token of a
// variant.
func selectionOf(v *domain.Variant) Selection {
	sel := Selection{
		Color:   v.Attr(domain.DimensionColor),
		Storage: v.Attr(domain.DimensionStorage),
		RAM:     v.Attr(domain.DimensionRAM),
	}
	if sizes := v.SizeOptions(); len(sizes) > 0 {
		sel.Size = sizes[0]
	}
	return sel
}
