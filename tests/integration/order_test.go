//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"regexp"
	"testing"
)

var orderCodePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

func validOrder(email string) orderRequest {
	return orderRequest{
		NomeCliente:    "João da Silva",
		EmailCliente:   email,
		Itens: []orderItemRequest{
			{ProductID: 1, Nome: "iPhone 13 128GB Meia-noite", Quantidade: 1, PrecoUnitario: "2799.00"},
			{ProductID: 8, Nome: "Monitor LG UltraWide 29\" IPS", Quantidade: 2, PrecoUnitario: "899.00"},
		},
		Total:          "4597.00",
		FormaPagamento: "pix",
	}
}

func TestSubmitOrder_OK(t *testing.T) {
	resp := doPost(t, "/api/pedidos", validOrder("joao@example.com"))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	env, data := decodeEnvelope[submitResponse](t, resp)
	if !env.Success {
		t.Fatalf("expected success, got error %q", env.Error)
	}
	if data.ID == 0 {
		t.Error("order ID not set")
	}
	if !orderCodePattern.MatchString(data.Numero) {
		t.Errorf("order code %q does not match %s", data.Numero, orderCodePattern)
	}
}

func TestSubmitOrder_CodesAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := range 5 {
		resp := doPost(t, "/api/pedidos", validOrder(fmt.Sprintf("unique%d@example.com", i)))
		_, data := decodeEnvelope[submitResponse](t, resp)
		resp.Body.Close()

		if seen[data.Numero] {
			t.Fatalf("duplicate order code %q", data.Numero)
		}
		seen[data.Numero] = true
	}
}

func TestSubmitOrder_MissingEmail(t *testing.T) {
	req := validOrder("")
	resp := doPost(t, "/api/pedidos", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	env := decodeJSON[envelope](t, resp)
	if env.Success {
		t.Error("expected success=false")
	}
	if env.Error != "Campo obrigatório: email_cliente" {
		t.Errorf("unexpected error message %q", env.Error)
	}
}

func TestSubmitOrder_EmptyItems(t *testing.T) {
	req := validOrder("vazio@example.com")
	req.Itens = nil
	resp := doPost(t, "/api/pedidos", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestSubmitOrder_UnknownPaymentMethod(t *testing.T) {
	req := validOrder("cheque@example.com")
	req.FormaPagamento = "cheque"
	resp := doPost(t, "/api/pedidos", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestSubmitOrder_CardAlias(t *testing.T) {
	req := validOrder("card@example.com")
	req.FormaPagamento = "card"
	resp := doPost(t, "/api/pedidos", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	_, data := decodeEnvelope[submitResponse](t, resp)

	lookup := doGet(t, "/api/pedidos?numero="+data.Numero)
	defer lookup.Body.Close()
	_, order := decodeEnvelope[orderResponse](t, lookup)

	if order.FormaPagamento != "cartao" {
		t.Errorf("forma_pagamento: got %q, want cartao", order.FormaPagamento)
	}
}

func TestSubmitOrder_ItemFailureRollsBackHeader(t *testing.T) {
	const email = "rollback@example.com"

	// A quantity beyond int4 range passes validation but makes the line-item
	// insert fail after the header row is already written, so the whole
	// transaction must roll back.
	req := validOrder(email)
	req.Itens = []orderItemRequest{
		{ProductID: 1, Nome: "iPhone 13 128GB Meia-noite", Quantidade: 2147483648, PrecoUnitario: "2799.00"},
	}

	resp := doPost(t, "/api/pedidos", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}

	env := decodeJSON[envelope](t, resp)
	if env.Success {
		t.Error("expected success=false")
	}

	// No partial order may survive: the customer's history must stay empty.
	lookup := doGet(t, "/api/pedidos?email="+email)
	defer lookup.Body.Close()

	if lookup.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", lookup.StatusCode)
	}
	_, orders := decodeEnvelope[[]orderResponse](t, lookup)
	if len(orders) != 0 {
		t.Fatalf("orders after failed submit: got %d, want 0", len(orders))
	}
}

func TestGetOrder_ByCode(t *testing.T) {
	resp := doPost(t, "/api/pedidos", validOrder("busca@example.com"))
	_, data := decodeEnvelope[submitResponse](t, resp)
	resp.Body.Close()

	lookup := doGet(t, "/api/pedidos?numero="+data.Numero)
	defer lookup.Body.Close()

	if lookup.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", lookup.StatusCode)
	}

	env, order := decodeEnvelope[orderResponse](t, lookup)
	if !env.Success {
		t.Fatalf("expected success, got %q", env.Error)
	}
	if order.Numero != data.Numero {
		t.Errorf("numero: got %q, want %q", order.Numero, data.Numero)
	}
	if order.Status != "pendente" {
		t.Errorf("status: got %q, want pendente", order.Status)
	}
	if len(order.Itens) != 2 {
		t.Fatalf("itens: got %d, want 2", len(order.Itens))
	}
	if order.Itens[1].Subtotal != "1798" && order.Itens[1].Subtotal != "1798.00" {
		t.Errorf("item subtotal: got %q", order.Itens[1].Subtotal)
	}
}

func TestGetOrder_ByCodeNotFound(t *testing.T) {
	resp := doGet(t, "/api/pedidos?numero=ZZZZZZ")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestGetOrders_ByEmail(t *testing.T) {
	const email = "historico@example.com"
	for range 2 {
		resp := doPost(t, "/api/pedidos", validOrder(email))
		resp.Body.Close()
	}

	lookup := doGet(t, "/api/pedidos?email="+email)
	defer lookup.Body.Close()

	if lookup.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", lookup.StatusCode)
	}

	_, orders := decodeEnvelope[[]orderResponse](t, lookup)
	if len(orders) != 2 {
		t.Fatalf("orders: got %d, want 2", len(orders))
	}
}

func TestGetOrders_MissingParams(t *testing.T) {
	resp := doGet(t, "/api/pedidos")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
