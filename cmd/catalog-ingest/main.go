// Command catalog-ingest imports supplier catalog feeds into the product
// table. Feeds are gzip-compressed JSON-lines files, one listing per line,
// named in priority order: when two feeds carry the same SKU, the first
// feed's listing wins.
//
// SKU dedup across feeds uses a bloom filter instead of an exact set, so a
// full catalog refresh stays in constant memory. The configured false
// positive rate means roughly 1 in 10,000 new listings may be skipped on a
// run; the next run picks them up.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/seminovos/loja-api/internal/domain/product"
	"github.com/seminovos/loja-api/internal/postgres"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.0001
	numWriters    = 8
	progressEvery = 50_000
)

func main() {
	var (
		feedsDir    string
		databaseURL string
	)

	flag.StringVar(&feedsDir, "feeds-dir", "data", "directory containing *.jsonl.gz catalog feeds")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
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

	if err := run(ctx, feedsDir, databaseURL); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, feedsDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(feedsDir, "*.jsonl.gz"))
	if err != nil {
		return errors.Wrap(err, "list feeds")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.jsonl.gz feeds in %s", feedsDir)
	}
	sort.Strings(files)

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	repo := postgres.NewProductRepository(pool)
	seen := bloom.NewWithEstimates(bloomCapacity, bloomFPR)

	var total uint64
	for _, f := range files {
		n, err := ingestFeed(ctx, repo, seen, f)
		if err != nil {
			return errors.Wrapf(err, "ingest %s", filepath.Base(f))
		}
		total += n
	}

	slog.Info("all feeds ingested", slog.Int("feeds", len(files)), slog.Uint64("listings", total))
	return nil
}

// ingestFeed streams one feed: a single producer goroutine decompresses and
// decodes lines, numWriters goroutines upsert listings concurrently. The
// bloom check happens in the producer so dedup stays single-threaded.
func ingestFeed(ctx context.Context, repo *postgres.ProductRepository, seen *bloom.BloomFilter, path string) (uint64, error) {
	slog.Info("ingesting feed", slog.String("file", filepath.Base(path)))

	listings := make(chan product.Product, numWriters*4)
	var accepted, skipped uint64

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(listings)
		var lines uint64
		return streamFeed(ctx, path, func(line []byte) error {
			lines++
			if lines%progressEvery == 0 {
				slog.Info("feed progress",
					slog.String("file", filepath.Base(path)),
					slog.Uint64("lines", lines),
				)
			}

			p, err := decodeListing(line)
			if err != nil {
				return errors.Wrapf(err, "line %d", lines)
			}
			if p.SKU == "" || p.Name == "" {
				skipped++
				return nil
			}
			if seen.TestString(p.SKU) {
				skipped++
				return nil
			}
			seen.AddString(p.SKU)
			accepted++

			select {
			case listings <- p:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	})

	for range numWriters {
		g.Go(func() error {
			for p := range listings {
				if err := repo.Upsert(ctx, &p); err != nil {
					return errors.Wrapf(err, "upsert %s", p.SKU)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	slog.Info("feed ingested",
		slog.String("file", filepath.Base(path)),
		slog.Uint64("accepted", accepted),
		slog.Uint64("skipped", skipped),
	)
	return accepted, nil
}

// streamFeed opens a gzip-compressed feed and calls fn for each line.
func streamFeed(ctx context.Context, path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(scanner.Bytes()) == 0 {
			continue
		}
		if err := fn(scanner.Bytes()); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}

// decodeListing parses one feed line into a product. Unknown keys are
// skipped so suppliers can extend their feeds without breaking ingest.
func decodeListing(line []byte) (product.Product, error) {
	p := product.Product{Active: true}
	d := jx.DecodeBytes(line)

	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "sku":
			v, err := d.Str()
			if err != nil {
				return err
			}
			p.SKU = v
		case "nome":
			v, err := d.Str()
			if err != nil {
				return err
			}
			p.Name = v
		case "descricao":
			v, err := d.Str()
			if err != nil {
				return err
			}
			p.Description = v
		case "preco":
			v, err := decodeDecimal(d)
			if err != nil {
				return err
			}
			p.Price = v
		case "preco_original":
			v, err := decodeDecimal(d)
			if err != nil {
				return err
			}
			p.OriginalPrice = v
		case "imagem":
			v, err := d.Str()
			if err != nil {
				return err
			}
			p.Image = v
		case "categoria":
			v, err := d.Str()
			if err != nil {
				return err
			}
			p.Category = v
		case "condicao":
			v, err := d.Str()
			if err != nil {
				return err
			}
			p.Condition = v
		case "ativo":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			p.Active = v
		default:
			return d.Skip()
		}
		return nil
	}); err != nil {
		return product.Product{}, errors.Wrap(err, "decode listing")
	}

	return p, nil
}

// decodeDecimal reads a JSON number or numeric string as a decimal. Supplier
// feeds are inconsistent about quoting prices.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(s)
	default:
		n, err := d.Num()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(string(n))
	}
}
