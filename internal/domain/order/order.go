package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors shared across the order package.
var (
	// ErrNotFound is returned when a requested order does not exist.
	ErrNotFound = errors.New("order not found")

	// ErrEmptyItems is returned when a submission carries no line items.
	ErrEmptyItems = errors.New("items required")

	// ErrCodeTaken is returned by the repository when the generated order
	// code collides with an existing one at insert time. The orders table
	// enforces uniqueness on the code column, so two concurrent submissions
	// cannot both win the same code; the loser sees this error and the
	// service retries the whole generate-then-persist sequence.
	ErrCodeTaken = errors.New("order code already taken")
)

// MissingFieldError indicates a required submission field was absent or empty.
// Field carries the wire name so callers can report it verbatim.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// InvalidQuantityError indicates a line item carried an explicit
// non-positive quantity. Index is the zero-based position in the cart.
type InvalidQuantityError struct {
	Index int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for item %d", e.Index)
}

// UnknownPaymentMethodError indicates the payment method is outside the
// accepted set.
type UnknownPaymentMethodError struct {
	Value string
}

func (e *UnknownPaymentMethodError) Error() string {
	return fmt.Sprintf("unknown payment method: %q", e.Value)
}

// PaymentMethod is the closed set of accepted payment methods.
type PaymentMethod string

const (
	PaymentPix    PaymentMethod = "pix"
	PaymentCard   PaymentMethod = "cartao"
	PaymentBoleto PaymentMethod = "boleto"
)

// ParsePaymentMethod canonicalizes a wire payment method value. The English
// alias "card" maps to "cartao" so the persisted set stays closed.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch s {
	case "pix":
		return PaymentPix, nil
	case "cartao", "card":
		return PaymentCard, nil
	case "boleto":
		return PaymentBoleto, nil
	default:
		return "", &UnknownPaymentMethodError{Value: s}
	}
}

// Status is the order lifecycle state. Orders are created pending; later
// transitions belong to the back-office workflow, not this service.
type Status string

const StatusPending Status = "pendente"

// Address holds the shipping address. Every field is optional individually.
type Address struct {
	PostalCode   string
	Street       string
	Number       string
	Complement   string
	Neighborhood string
	City         string
	State        string
}

// Order is one customer purchase: the header plus its line items.
//
// Code is the 6-character public identifier shown to the customer, distinct
// from the store-assigned ID. Both are immutable after creation.
type Order struct {
	ID            int64
	Code          string
	UserID        *int64
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	CustomerTaxID string
	Address       Address
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	Shipping      decimal.Decimal
	Total         decimal.Decimal
	PaymentMethod PaymentMethod
	Status        Status
	Notes         string
	Items         []LineItem
	CreatedAt     time.Time
}

// LineItem is an immutable snapshot of one purchased product. Display fields
// are copied at order time so later catalog edits never alter history.
type LineItem struct {
	ID        int64
	ProductID *int64
	Name      string
	SKU       string
	Image     string
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// Repository defines persistence operations for orders.
//
// Create must write the header and all line items atomically: a reader sees
// either the whole order or nothing. On success it fills o.ID, o.CreatedAt
// and the IDs of every line item.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	CodeExists(ctx context.Context, code string) (bool, error)
	GetByCode(ctx context.Context, code string) (*Order, error)
	ListByEmail(ctx context.Context, email string) ([]Order, error)
}
