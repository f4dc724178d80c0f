package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// submitAttempts bounds how many times a submission is retried when the
// generated code loses the insert race (ErrCodeTaken).
const submitAttempts = 3

// SubmitOrderRequest is the input for submitting an order. Monetary pointers
// distinguish "absent" from zero: an absent subtotal defaults to the total,
// absent discount and shipping default to zero. Total is trusted as-is and
// never recomputed from the line items.
type SubmitOrderRequest struct {
	UserID        *int64
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	CustomerTaxID string
	Address       Address
	Items         []RawItem
	Subtotal      *decimal.Decimal
	Discount      *decimal.Decimal
	Shipping      *decimal.Decimal
	Total         decimal.Decimal
	PaymentMethod string
	Notes         string
}

// SubmitOrderResult identifies a successfully created order.
type SubmitOrderResult struct {
	ID   int64
	Code string
}

// Service encapsulates order submission and lookup business logic.
type Service struct {
	orders Repository
	codes  CodeSource
}

// NewService creates an order Service with the required dependencies.
func NewService(orders Repository, codes CodeSource) *Service {
	return &Service{
		orders: orders,
		codes:  codes,
	}
}

// SubmitOrder validates the request, normalizes the cart lines, generates a
// public order code, and persists the header plus all line items in one
// transaction. Nothing is written when any step fails, so a failed
// submission can always be retried from scratch.
func (s *Service) SubmitOrder(ctx context.Context, req SubmitOrderRequest) (*SubmitOrderResult, error) {
	if err := validateSubmit(req); err != nil {
		return nil, err
	}

	method, err := ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	items, err := NormalizeItems(req.Items)
	if err != nil {
		return nil, err
	}

	subtotal := req.Total
	if req.Subtotal != nil {
		subtotal = *req.Subtotal
	}
	discount := decimal.Zero
	if req.Discount != nil {
		discount = *req.Discount
	}
	shipping := decimal.Zero
	if req.Shipping != nil {
		shipping = *req.Shipping
	}

	var lastErr error
	for attempt := 0; attempt < submitAttempts; attempt++ {
		code, err := s.codes.Generate(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "generate code")
		}

		o := &Order{
			Code:          code,
			UserID:        req.UserID,
			CustomerName:  req.CustomerName,
			CustomerEmail: req.CustomerEmail,
			CustomerPhone: req.CustomerPhone,
			CustomerTaxID: req.CustomerTaxID,
			Address:       req.Address,
			Subtotal:      subtotal,
			Discount:      discount,
			Shipping:      shipping,
			Total:         req.Total,
			PaymentMethod: method,
			Status:        StatusPending,
			Notes:         req.Notes,
			Items:         items,
		}

		err = s.orders.Create(ctx, o)
		if errors.Is(err, ErrCodeTaken) {
			// Lost the insert race for this code; regenerate and retry.
			lastErr = err
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, "create order")
		}

		return &SubmitOrderResult{ID: o.ID, Code: o.Code}, nil
	}

	return nil, errors.Wrap(lastErr, "create order")
}

// GetByCode returns one order with its line items.
func (s *Service) GetByCode(ctx context.Context, code string) (*Order, error) {
	o, err := s.orders.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %s", code)
	}
	return o, nil
}

// ListByEmail returns all orders for a customer email, newest first, each
// with its line items.
func (s *Service) ListByEmail(ctx context.Context, email string) ([]Order, error) {
	out, err := s.orders.ListByEmail(ctx, email)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return out, nil
}

// validateSubmit enforces the required-field contract. Field names in the
// returned errors are the wire names so the handler can report them verbatim.
func validateSubmit(req SubmitOrderRequest) error {
	if req.CustomerName == "" {
		return &MissingFieldError{Field: "nome_cliente"}
	}
	if req.CustomerEmail == "" {
		return &MissingFieldError{Field: "email_cliente"}
	}
	if len(req.Items) == 0 {
		return &MissingFieldError{Field: "itens"}
	}
	if req.Total.IsZero() {
		return &MissingFieldError{Field: "total"}
	}
	if req.PaymentMethod == "" {
		return &MissingFieldError{Field: "forma_pagamento"}
	}
	return nil
}
