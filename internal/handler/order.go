package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/seminovos/loja-api/internal/domain/order"
)

// submitOrderRequest mirrors the storefront checkout payload.
type submitOrderRequest struct {
	UsuarioID       *int64           `json:"usuario_id"`
	NomeCliente     string           `json:"nome_cliente"`
	EmailCliente    string           `json:"email_cliente"`
	TelefoneCliente string           `json:"telefone_cliente"`
	CPFCliente      string           `json:"cpf_cliente"`
	Endereco        enderecoJSON     `json:"endereco"`
	Itens           []order.RawItem  `json:"itens"`
	Subtotal        *decimal.Decimal `json:"subtotal"`
	Desconto        *decimal.Decimal `json:"desconto"`
	Frete           *decimal.Decimal `json:"frete"`
	Total           decimal.Decimal  `json:"total"`
	FormaPagamento  string           `json:"forma_pagamento"`
	Observacoes     string           `json:"observacoes"`
}

type enderecoJSON struct {
	CEP         string `json:"cep"`
	Logradouro  string `json:"logradouro"`
	Numero      string `json:"numero"`
	Complemento string `json:"complemento"`
	Bairro      string `json:"bairro"`
	Cidade      string `json:"cidade"`
	Estado      string `json:"estado"`
}

type submitOrderData struct {
	ID     int64  `json:"id"`
	Numero string `json:"numero"`
}

type orderJSON struct {
	ID              int64           `json:"id"`
	Numero          string          `json:"numero"`
	UsuarioID       *int64          `json:"usuario_id,omitempty"`
	NomeCliente     string          `json:"nome_cliente"`
	EmailCliente    string          `json:"email_cliente"`
	TelefoneCliente string          `json:"telefone_cliente,omitempty"`
	CPFCliente      string          `json:"cpf_cliente,omitempty"`
	Endereco        enderecoJSON    `json:"endereco"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Desconto        decimal.Decimal `json:"desconto"`
	Frete           decimal.Decimal `json:"frete"`
	Total           decimal.Decimal `json:"total"`
	FormaPagamento  string          `json:"forma_pagamento"`
	Status          string          `json:"status"`
	Observacoes     string          `json:"observacoes,omitempty"`
	Itens           []itemJSON      `json:"itens"`
	CreatedAt       time.Time       `json:"created_at"`
}

type itemJSON struct {
	ID            int64           `json:"id"`
	ProdutoID     *int64          `json:"produto_id"`
	Nome          string          `json:"nome"`
	SKU           string          `json:"sku,omitempty"`
	Imagem        string          `json:"imagem,omitempty"`
	Quantidade    int             `json:"quantidade"`
	PrecoUnitario decimal.Decimal `json:"preco_unitario"`
	Subtotal      decimal.Decimal `json:"subtotal"`
}

// submitOrder handles POST /api/pedidos.
func (h *Handler) submitOrder(w http.ResponseWriter, r *http.Request) {
	var req submitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Dados inválidos")
		return
	}

	result, err := h.orders.SubmitOrder(r.Context(), order.SubmitOrderRequest{
		UserID:        req.UsuarioID,
		CustomerName:  req.NomeCliente,
		CustomerEmail: req.EmailCliente,
		CustomerPhone: req.TelefoneCliente,
		CustomerTaxID: req.CPFCliente,
		Address: order.Address{
			PostalCode:   req.Endereco.CEP,
			Street:       req.Endereco.Logradouro,
			Number:       req.Endereco.Numero,
			Complement:   req.Endereco.Complemento,
			Neighborhood: req.Endereco.Bairro,
			City:         req.Endereco.Cidade,
			State:        req.Endereco.Estado,
		},
		Items:         req.Itens,
		Subtotal:      req.Subtotal,
		Discount:      req.Desconto,
		Shipping:      req.Frete,
		Total:         req.Total,
		PaymentMethod: req.FormaPagamento,
		Notes:         req.Observacoes,
	})
	if err != nil {
		h.writeSubmitError(w, r, err)
		return
	}

	if h.ordersSubmitted != nil {
		h.ordersSubmitted.Add(r.Context(), 1, metric.WithAttributes(
			attribute.String("payment_method", req.FormaPagamento),
		))
	}

	writeMessage(w, http.StatusOK,
		submitOrderData{ID: result.ID, Numero: result.Code},
		"Pedido criado com sucesso",
	)
}

// getOrders handles GET /api/pedidos. It serves two lookups: ?email= for
// all orders of a customer and ?numero= for a single order. Email wins when
// both are given.
func (h *Handler) getOrders(w http.ResponseWriter, r *http.Request) {
	if email := r.URL.Query().Get("email"); email != "" {
		h.listOrdersByEmail(w, r, email)
		return
	}
	if code := r.URL.Query().Get("numero"); code != "" {
		h.getOrderByCode(w, r, code)
		return
	}
	writeError(w, http.StatusBadRequest, "Parâmetro email ou numero é obrigatório")
}

func (h *Handler) getOrderByCode(w http.ResponseWriter, r *http.Request, code string) {
	o, err := h.orders.GetByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Pedido não encontrado")
			return
		}
		h.serverError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toOrderJSON(o))
}

func (h *Handler) listOrdersByEmail(w http.ResponseWriter, r *http.Request, email string) {
	list, err := h.orders.ListByEmail(r.Context(), email)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	out := make([]orderJSON, len(list))
	for i := range list {
		out[i] = toOrderJSON(&list[i])
	}
	writeData(w, http.StatusOK, out)
}

// writeSubmitError maps domain errors from order submission to wire responses.
func (h *Handler) writeSubmitError(w http.ResponseWriter, r *http.Request, err error) {
	var mfErr *order.MissingFieldError
	if errors.As(err, &mfErr) {
		writeError(w, http.StatusBadRequest, "Campo obrigatório: "+mfErr.Field)
		return
	}

	var upErr *order.UnknownPaymentMethodError
	if errors.As(err, &upErr) {
		writeError(w, http.StatusBadRequest, "Forma de pagamento inválida")
		return
	}

	if errors.Is(err, order.ErrEmptyItems) {
		writeError(w, http.StatusBadRequest, "Campo obrigatório: itens")
		return
	}

	var iqErr *order.InvalidQuantityError
	if errors.As(err, &iqErr) {
		writeError(w, http.StatusUnprocessableEntity, "Quantidade inválida")
		return
	}

	h.serverError(w, r, err)
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "Erro interno do servidor")
}

func toOrderJSON(o *order.Order) orderJSON {
	items := make([]itemJSON, len(o.Items))
	for i, item := range o.Items {
		items[i] = itemJSON{
			ID:            item.ID,
			ProdutoID:     item.ProductID,
			Nome:          item.Name,
			SKU:           item.SKU,
			Imagem:        item.Image,
			Quantidade:    item.Quantity,
			PrecoUnitario: item.UnitPrice,
			Subtotal:      item.Subtotal,
		}
	}

	return orderJSON{
		ID:              o.ID,
		Numero:          o.Code,
		UsuarioID:       o.UserID,
		NomeCliente:     o.CustomerName,
		EmailCliente:    o.CustomerEmail,
		TelefoneCliente: o.CustomerPhone,
		CPFCliente:      o.CustomerTaxID,
		Endereco: enderecoJSON{
			CEP:         o.Address.PostalCode,
			Logradouro:  o.Address.Street,
			Numero:      o.Address.Number,
			Complemento: o.Address.Complement,
			Bairro:      o.Address.Neighborhood,
			Cidade:      o.Address.City,
			Estado:      o.Address.State,
		},
		Subtotal:       o.Subtotal,
		Desconto:       o.Discount,
		Frete:          o.Shipping,
		Total:          o.Total,
		FormaPagamento: string(o.PaymentMethod),
		Status:         string(o.Status),
		Observacoes:    o.Notes,
		Itens:          items,
		CreatedAt:      o.CreatedAt,
	}
}
