package postgres

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seminovos/loja-api/internal/domain/product"
)

const (
	productColumns = `id, nome, sku, descricao, preco, preco_original,
		imagem, categoria, condicao, ativo`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM produtos WHERE id = $1`

	upsertProductSQL = `INSERT INTO produtos
		(nome, sku, descricao, preco, preco_original, imagem, categoria, condicao, ativo)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (sku) DO UPDATE SET
			nome = EXCLUDED.nome,
			descricao = EXCLUDED.descricao,
			preco = EXCLUDED.preco,
			preco_original = EXCLUDED.preco_original,
			imagem = EXCLUDED.imagem,
			categoria = EXCLUDED.categoria,
			condicao = EXCLUDED.condicao,
			ativo = EXCLUDED.ativo
		RETURNING id`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns active products matching the filter, ordered by name.
func (r *ProductRepository) List(ctx context.Context, filter product.ListFilter) ([]product.Product, error) {
	q := builder.
		Select(productColumns).
		From("produtos").
		Where(sq.Eq{"ativo": true}).
		OrderBy("nome")

	if filter.Category != "" {
		q = q.Where(sq.Eq{"categoria": filter.Category})
	}
	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		q = q.Where(sq.Or{
			sq.ILike{"nome": pattern},
			sq.ILike{"sku": pattern},
		})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build query")
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get product %d", id)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %d", id)
	}
	return &p, nil
}

// Upsert inserts or updates a product keyed by SKU, filling p.ID.
func (r *ProductRepository) Upsert(ctx context.Context, p *product.Product) error {
	err := r.pool.QueryRow(ctx, upsertProductSQL,
		p.Name, p.SKU, p.Description, p.Price, p.OriginalPrice,
		p.Image, p.Category, p.Condition, p.Active,
	).Scan(&p.ID)
	if err != nil {
		return errors.Wrapf(err, "upsert product %q", p.SKU)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.SKU, &p.Description, &p.Price, &p.OriginalPrice,
		&p.Image, &p.Category, &p.Condition, &p.Active,
	)
	return p, err
}
