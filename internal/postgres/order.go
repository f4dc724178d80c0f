package postgres

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-faster/errors"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seminovos/loja-api/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO pedidos (
		numero, usuario_id,
		nome_cliente, email_cliente, telefone_cliente, cpf_cliente,
		endereco_cep, endereco_logradouro, endereco_numero, endereco_complemento,
		endereco_bairro, endereco_cidade, endereco_estado,
		subtotal, desconto, frete, total,
		forma_pagamento, status, observacoes
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	RETURNING id, created_at`

	insertItemSQL = `INSERT INTO pedido_itens (
		pedido_id, produto_id, produto_nome, produto_sku, produto_imagem,
		quantidade, preco_unitario, subtotal
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id`

	codeExistsSQL = `SELECT EXISTS (SELECT 1 FROM pedidos WHERE numero = $1)`

	orderColumns = `id, numero, usuario_id,
		nome_cliente, email_cliente, telefone_cliente, cpf_cliente,
		endereco_cep, endereco_logradouro, endereco_numero, endereco_complemento,
		endereco_bairro, endereco_cidade, endereco_estado,
		subtotal, desconto, frete, total,
		forma_pagamento, status, observacoes, created_at`

	getOrderByCodeSQL = `SELECT ` + orderColumns + ` FROM pedidos WHERE numero = $1`

	itemColumns = `id, pedido_id, produto_id, produto_nome, produto_sku,
		produto_imagem, quantidade, preco_unitario, subtotal`

	getItemsSQL = `SELECT ` + itemColumns + ` FROM pedido_itens
		WHERE pedido_id = ANY($1) ORDER BY id`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists the order header and all line items in one transaction.
// A unique violation on the numero column is reported as order.ErrCodeTaken.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, insertOrderSQL,
		o.Code, o.UserID,
		o.CustomerName, o.CustomerEmail, o.CustomerPhone, o.CustomerTaxID,
		o.Address.PostalCode, o.Address.Street, o.Address.Number, o.Address.Complement,
		o.Address.Neighborhood, o.Address.City, o.Address.State,
		o.Subtotal, o.Discount, o.Shipping, o.Total,
		string(o.PaymentMethod), string(o.Status), o.Notes,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return order.ErrCodeTaken
		}
		return errors.Wrap(err, "insert order")
	}

	for i := range o.Items {
		item := &o.Items[i]
		err = tx.QueryRow(ctx, insertItemSQL,
			o.ID, item.ProductID, item.Name, item.SKU, item.Image,
			item.Quantity, item.UnitPrice, item.Subtotal,
		).Scan(&item.ID)
		if err != nil {
			return errors.Wrapf(err, "insert item %d", i)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit tx")
	}

	return nil
}

// CodeExists reports whether an order with the given code exists.
func (r *OrderRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, codeExistsSQL, code).Scan(&exists); err != nil {
		return false, errors.Wrapf(err, "check code %q", code)
	}
	return exists, nil
}

// GetByCode returns one order with its line items.
func (r *OrderRepository) GetByCode(ctx context.Context, code string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByCodeSQL, code)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %q", code)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %q", code)
	}

	if err := r.attachItems(ctx, []*order.Order{&o}); err != nil {
		return nil, err
	}
	return &o, nil
}

// ListByEmail returns all orders for a customer email, newest first, each
// with its line items.
func (r *OrderRepository) ListByEmail(ctx context.Context, email string) ([]order.Order, error) {
	query, args, err := builder.
		Select(orderColumns).
		From("pedidos").
		Where(sq.Eq{"email_cliente": email}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build query")
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "list orders for %q", email)
	}

	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, errors.Wrapf(err, "list orders for %q", email)
	}

	refs := make([]*order.Order, len(orders))
	for i := range orders {
		refs[i] = &orders[i]
	}
	if err := r.attachItems(ctx, refs); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems loads the line items for all given orders in one query and
// distributes them by owning order.
func (r *OrderRepository) attachItems(ctx context.Context, orders []*order.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, len(orders))
	byID := make(map[int64]*order.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
		o.Items = []order.LineItem{}
	}

	rows, err := r.pool.Query(ctx, getItemsSQL, ids)
	if err != nil {
		return errors.Wrap(err, "get order items")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item     order.LineItem
			parentID int64
		)
		err := rows.Scan(
			&item.ID, &parentID, &item.ProductID, &item.Name, &item.SKU,
			&item.Image, &item.Quantity, &item.UnitPrice, &item.Subtotal,
		)
		if err != nil {
			return errors.Wrap(err, "scan order item")
		}
		if o, ok := byID[parentID]; ok {
			o.Items = append(o.Items, item)
		}
	}

	return errors.Wrap(rows.Err(), "get order items")
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o              order.Order
		method, status string
	)
	err := row.Scan(
		&o.ID, &o.Code, &o.UserID,
		&o.CustomerName, &o.CustomerEmail, &o.CustomerPhone, &o.CustomerTaxID,
		&o.Address.PostalCode, &o.Address.Street, &o.Address.Number, &o.Address.Complement,
		&o.Address.Neighborhood, &o.Address.City, &o.Address.State,
		&o.Subtotal, &o.Discount, &o.Shipping, &o.Total,
		&method, &status, &o.Notes, &o.CreatedAt,
	)
	o.PaymentMethod = order.PaymentMethod(method)
	o.Status = order.Status(status)
	return o, err
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
