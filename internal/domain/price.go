package domain

// EffectivePrice is the price pair shown to the shopper: the struck-through
// reference price and the price actually charged.
type EffectivePrice struct {
	MRP             int64 `json:"mrp"`
	SalePrice       int64 `json:"sale_price"`
	Discount        int64 `json:"discount"`
	DiscountPercent int   `json:"discount_percent"`
}

// NewEffectivePrice reconciles base price, sale price and MRP. The charged
// price is the sale price when present, otherwise the base price. The
// reference price is the largest of MRP, base price and charged price.
func NewEffectivePrice(price, salePrice, mrp int64) EffectivePrice {
	sale := price
	if salePrice > 0 {
		sale = salePrice
	}

	ref := mrp
	if price > ref {
		ref = price
	}
	if sale > ref {
		ref = sale
	}

	ep := EffectivePrice{MRP: ref, SalePrice: sale}
	if ref > 0 && ref > sale {
		ep.Discount = ref - sale
		ep.DiscountPercent = int(ep.Discount * 100 / ref)
	}
	return ep
}

// HasDiscount reports whether a struck-through price should be shown.
func (p EffectivePrice) HasDiscount() bool {
	return p.Discount > 0
}
