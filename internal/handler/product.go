package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/seminovos/loja-api/internal/domain/product"
)

type productJSON struct {
	ID            int64           `json:"id"`
	Nome          string          `json:"nome"`
	SKU           string          `json:"sku"`
	Descricao     string          `json:"descricao,omitempty"`
	Preco         decimal.Decimal `json:"preco"`
	PrecoOriginal decimal.Decimal `json:"preco_original"`
	Imagem        string          `json:"imagem"`
	Categoria     string          `json:"categoria"`
	Condicao      string          `json:"condicao"`
}

// listProducts handles GET /api/produtos with optional ?categoria= and
// ?busca= filters.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	filter := product.ListFilter{
		Category: r.URL.Query().Get("categoria"),
		Query:    strings.TrimSpace(r.URL.Query().Get("busca")),
	}

	products, err := h.products.List(r.Context(), filter)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	out := make([]productJSON, len(products))
	for i, p := range products {
		out[i] = h.toProductJSON(p)
	}
	writeData(w, http.StatusOK, out)
}

// getProduct handles GET /api/produtos/{id}.
func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "ID inválido")
		return
	}

	p, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Produto não encontrado")
			return
		}
		h.serverError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, h.toProductJSON(*p))
}

// toProductJSON converts a domain product to its wire shape. Relative image
// paths are prefixed with the configured base URL.
func (h *Handler) toProductJSON(p product.Product) productJSON {
	image := p.Image
	if image != "" && !strings.HasPrefix(image, "http") {
		image = h.imageBaseURL + image
	}

	return productJSON{
		ID:            p.ID,
		Nome:          p.Name,
		SKU:           p.SKU,
		Descricao:     p.Description,
		Preco:         p.Price,
		PrecoOriginal: p.OriginalPrice,
		Imagem:        image,
		Categoria:     p.Category,
		Condicao:      p.Condition,
	}
}
