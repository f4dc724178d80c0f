package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seminovos/loja-api/internal/domain/product"
)

func newTestProduct(id int64, name, sku string, price string) product.Product {
	return product.Product{
		ID:        id,
		Name:      name,
		SKU:       sku,
		Price:     decimal.RequireFromString(price),
		Image:     "/img/" + sku + ".webp",
		Category:  "smartphones",
		Condition: "seminovo",
		Active:    true,
	}
}

func newProductRepo(products ...product.Product) *mockProductRepo {
	byID := make(map[int64]*product.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return &mockProductRepo{products: products, byID: byID}
}

func TestListProducts(t *testing.T) {
	repo := newProductRepo(
		newTestProduct(1, "iPhone 12 64GB", "IPH12-64", "2399.90"),
		newTestProduct(2, "Galaxy S21", "GAL-S21", "1899.00"),
	)
	h := newTestHandler(nil, repo)

	w, env := doRequest(t, h, http.MethodGet, "/api/produtos", nil)

	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, env.Success)

	var list []productJSON
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 2)
	assert.Equal(t, "iPhone 12 64GB", list[0].Nome)
	// Relative image paths get the CDN prefix.
	assert.Equal(t, "https://cdn.example.com/img/IPH12-64.webp", list[0].Imagem)
}

func TestGetProduct(t *testing.T) {
	repo := newProductRepo(newTestProduct(7, "iPad Air", "IPAD-AIR", "3299.00"))
	h := newTestHandler(nil, repo)

	w, env := doRequest(t, h, http.MethodGet, "/api/produtos/7", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var p productJSON
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, int64(7), p.ID)
	assert.Equal(t, "IPAD-AIR", p.SKU)
	assert.True(t, decimal.RequireFromString("3299.00").Equal(p.Preco))
}

func TestGetProduct_NotFound(t *testing.T) {
	h := newTestHandler(nil, newProductRepo())

	w, env := doRequest(t, h, http.MethodGet, "/api/produtos/99", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Produto não encontrado", env.Error)
}

func TestGetProduct_BadID(t *testing.T) {
	h := newTestHandler(nil, newProductRepo())

	w, env := doRequest(t, h, http.MethodGet, "/api/produtos/abc", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ID inválido", env.Error)
}

func TestGetProduct_AbsoluteImageKept(t *testing.T) {
	p := newTestProduct(3, "MacBook Air", "MBA-M1", "4999.00")
	p.Image = "https://images.example.com/mba.webp"
	h := newTestHandler(nil, newProductRepo(p))

	w, env := doRequest(t, h, http.MethodGet, "/api/produtos/3", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var got productJSON
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "https://images.example.com/mba.webp", got.Imagem)
}
