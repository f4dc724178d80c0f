// Package handler exposes the storefront API over HTTP. It is a thin mapping
// layer: wire decoding, domain calls, and typed-error to status translation.
package handler

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/seminovos/loja-api/internal/domain/order"
	"github.com/seminovos/loja-api/internal/domain/product"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as stored in the database.
	ImageBaseURL string
}

// Handler implements the storefront HTTP API, delegating business logic to
// the order service and product repository.
type Handler struct {
	orders       *order.Service
	products     product.Repository
	imageBaseURL string

	ordersSubmitted metric.Int64Counter
}

// New constructs a Handler with the required domain dependencies.
func New(cfg Config, orders *order.Service, products product.Repository) *Handler {
	meter := otel.Meter("github.com/seminovos/loja-api/internal/handler")
	submitted, err := meter.Int64Counter("loja.orders.submitted")
	if err != nil {
		// The global meter may be a noop during tests; count nothing then.
		submitted = nil
	}

	return &Handler{
		orders:          orders,
		products:        products,
		imageBaseURL:    cfg.ImageBaseURL,
		ordersSubmitted: submitted,
	}
}

// Routes registers all API endpoints on the given mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/produtos", h.listProducts)
	mux.HandleFunc("GET /api/produtos/{id}", h.getProduct)
	mux.HandleFunc("POST /api/pedidos", h.submitOrder)
	mux.HandleFunc("GET /api/pedidos", h.getOrders)
}
