package domain

import "time"

// SavedSelection is the last committed choice a shopper made on a product
// page. It is remembered so a new view of the same product resumes it.
type SavedSelection struct {
	ShopperID string    `json:"shopper_id"`
	Slug      string    `json:"slug"`
	VariantID string    `json:"variant_id"`
	Color     string    `json:"color,omitempty"`
	Size      string    `json:"size,omitempty"`
	Storage   string    `json:"storage,omitempty"`
	RAM       string    `json:"ram,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
