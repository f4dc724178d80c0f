package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase. Products are
// refurbished units, so Condition describes the cosmetic grade and
// OriginalPrice holds the new-unit reference price shown struck through.
type Product struct {
	ID            int64
	Name          string
	SKU           string
	Description   string
	Price         decimal.Decimal
	OriginalPrice decimal.Decimal
	Image         string
	Category      string
	Condition     string
	Active        bool
}

// ListFilter narrows the catalog listing. Zero values mean "no filter".
type ListFilter struct {
	// Category restricts results to a single category slug.
	Category string
	// Query is matched case-insensitively against name and SKU.
	Query string
}

// Repository defines persistence operations for the product catalog.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	Upsert(ctx context.Context, p *Product) error
}
