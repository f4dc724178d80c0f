package order

import (
	"github.com/shopspring/decimal"
)

// PlaceholderName is substituted when a cart line carries no name at all.
const PlaceholderName = "Produto"

// RawItem is a cart line as submitted by a client. Two client populations
// exist: the storefront cart sends localized field names, older integrations
// send generic English ones. Both shapes are accepted; the localized field
// always wins when both are present.
type RawItem struct {
	ProductID    *int64           `json:"produto_id"`
	AltID        *int64           `json:"id"`
	Name         string           `json:"nome"`
	AltName      string           `json:"name"`
	SKU          string           `json:"sku"`
	Image        string           `json:"imagem"`
	AltImage     string           `json:"image"`
	Quantity     *int             `json:"quantidade"`
	AltQuantity  *int             `json:"quantity"`
	UnitPrice    *decimal.Decimal `json:"preco_unitario"`
	AltUnitPrice *decimal.Decimal `json:"price"`
}

// NormalizeItems converts caller-supplied cart lines into canonical line-item
// snapshots, preserving input order. Defaults: name "Produto", quantity 1,
// unit price 0. The line subtotal is always recomputed here; a caller-supplied
// subtotal is never trusted.
func NormalizeItems(items []RawItem) ([]LineItem, error) {
	if len(items) == 0 {
		return nil, ErrEmptyItems
	}

	out := make([]LineItem, len(items))
	for i, raw := range items {
		li, err := normalizeItem(raw, i)
		if err != nil {
			return nil, err
		}
		out[i] = li
	}
	return out, nil
}

func normalizeItem(raw RawItem, index int) (LineItem, error) {
	li := LineItem{
		ProductID: firstID(raw.ProductID, raw.AltID),
		Name:      firstString(raw.Name, raw.AltName, PlaceholderName),
		SKU:       raw.SKU,
		Image:     firstString(raw.Image, raw.AltImage, ""),
		Quantity:  1,
		UnitPrice: decimal.Zero,
	}

	if qty := firstInt(raw.Quantity, raw.AltQuantity); qty != nil {
		if *qty <= 0 {
			return LineItem{}, &InvalidQuantityError{Index: index}
		}
		li.Quantity = *qty
	}

	if price := firstDecimal(raw.UnitPrice, raw.AltUnitPrice); price != nil {
		li.UnitPrice = *price
	}

	li.Subtotal = li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
	return li, nil
}

func firstID(primary, alt *int64) *int64 {
	if primary != nil {
		return primary
	}
	return alt
}

func firstInt(primary, alt *int) *int {
	if primary != nil {
		return primary
	}
	return alt
}

func firstDecimal(primary, alt *decimal.Decimal) *decimal.Decimal {
	if primary != nil {
		return primary
	}
	return alt
}

func firstString(primary, alt, fallback string) string {
	if primary != "" {
		return primary
	}
	if alt != "" {
		return alt
	}
	return fallback
}
