// Command seed-db loads the product catalog from a JSON file into PostgreSQL.
// It runs migrations first, so it works against an empty database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/seminovos/loja-api/internal/domain/product"
	"github.com/seminovos/loja-api/internal/postgres"
)

type productJSON struct {
	Nome          string          `json:"nome"`
	SKU           string          `json:"sku"`
	Descricao     string          `json:"descricao"`
	Preco         decimal.Decimal `json:"preco"`
	PrecoOriginal decimal.Decimal `json:"preco_original"`
	Imagem        string          `json:"imagem"`
	Categoria     string          `json:"categoria"`
	Condicao      string          `json:"condicao"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return seedProducts(ctx, postgres.NewProductRepository(pool), productsFile)
}

func seedProducts(ctx context.Context, repo *postgres.ProductRepository, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		prod := product.Product{
			Name:          p.Nome,
			SKU:           p.SKU,
			Description:   p.Descricao,
			Price:         p.Preco,
			OriginalPrice: p.PrecoOriginal,
			Image:         p.Imagem,
			Category:      p.Categoria,
			Condition:     p.Condicao,
			Active:        true,
		}
		if err := repo.Upsert(ctx, &prod); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.SKU)
		}

		slog.Info("upserted product", slog.String("sku", p.SKU), slog.String("nome", p.Nome))
	}

	return nil
}
