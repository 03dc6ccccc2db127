// Command catalog-import bulk-loads supplier product feeds into the catalog.
//
// Feeds are gzip-compressed NDJSON files, one product per line:
//
//	{"id":"sku-1","name":"Widget","price":"12.50","stock":40}
//
// Multiple feeds often overlap; a bloom filter of already-imported IDs skips
// the bulk of cross-feed duplicates cheaply, and the database upsert keeps
// the import idempotent for the filter's false negatives.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/salesdesk/order-engine/internal/storage/postgres"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
)

type feedProduct struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Stock int
}

func main() {
	var databaseURL string

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	files := flag.Args()
	if len(files) == 0 {
		slog.Error("usage: catalog-import [flags] feed1.ndjson.gz [feed2.ndjson.gz ...]")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, files); err != nil {
		slog.Error("catalog import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog import completed successfully")
}

func run(ctx context.Context, databaseURL string, files []string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Readers fan out per file; a single writer serializes database access.
	seen := newDedupe()
	products := make(chan feedProduct, 1024)

	g, ctx := errgroup.WithContext(ctx)
	readers, ctx := errgroup.WithContext(ctx)
	for _, f := range files {
		readers.Go(readFeed(ctx, f, seen, products))
	}
	g.Go(func() error {
		defer close(products)
		return readers.Wait()
	})
	g.Go(func() error {
		return writeProducts(ctx, pool, products)
	})

	return g.Wait()
}

// dedupe tracks already-imported product IDs across feeds. The bloom filter
// answers "definitely new" cheaply; a positive means "probably seen" and the
// product is skipped, relying on the earlier upsert of the same ID.
type dedupe struct {
	mu     sync.Mutex
	filter *bloom.BloomFilter
}

func newDedupe() *dedupe {
	return &dedupe{filter: bloom.NewWithEstimates(bloomCapacity, bloomFPR)}
}

// markNew records the ID and reports whether it was unseen.
func (d *dedupe) markNew(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.filter.TestString(id) {
		return false
	}
	d.filter.AddString(id)
	return true
}

func readFeed(ctx context.Context, path string, seen *dedupe, out chan<- feedProduct) func() error {
	return func() error {
		var total, skipped uint64

		err := streamGzLines(ctx, path, func(line []byte) error {
			p, err := decodeProduct(line)
			if err != nil {
				return errors.Wrapf(err, "decode line %q", line)
			}

			total++
			if total%progressEvery == 0 {
				slog.Info("import progress", slog.String("file", path), slog.Uint64("lines", total))
			}

			if !seen.markNew(p.ID) {
				skipped++
				return nil
			}

			select {
			case out <- p:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			return errors.Wrapf(err, "read feed %s", path)
		}

		slog.Info("feed complete",
			slog.String("file", path),
			slog.Uint64("lines", total),
			slog.Uint64("duplicates_skipped", skipped),
		)
		return nil
	}
}

// decodeProduct parses a single NDJSON feed line.
func decodeProduct(line []byte) (feedProduct, error) {
	var p feedProduct
	d := jx.DecodeBytes(line)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			v, err := d.Str()
			if err != nil {
				return err
			}
			p.ID = v
		case "name":
			v, err := d.Str()
			if err != nil {
				return err
			}
			p.Name = v
		case "price":
			n, err := d.Num()
			if err != nil {
				return err
			}
			price, err := decimal.NewFromString(n.String())
			if err != nil {
				return err
			}
			p.Price = price
		case "stock":
			v, err := d.Int()
			if err != nil {
				return err
			}
			p.Stock = v
		default:
			return d.Skip()
		}
		return nil
	}); err != nil {
		return feedProduct{}, err
	}

	if p.ID == "" || p.Name == "" {
		return feedProduct{}, errors.New("missing id or name")
	}
	if p.Price.IsNegative() || p.Stock < 0 {
		return feedProduct{}, errors.New("negative price or stock")
	}
	return p, nil
}

// streamGzLines opens a gzip-compressed file and calls fn for each line.
func streamGzLines(ctx context.Context, path string, fn func(line []byte) error) error {
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
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}

const upsertProductSQL = `
INSERT INTO products (id, name, price, stock, active)
VALUES ($1, $2, $3, $4, TRUE)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name, price = EXCLUDED.price, stock = EXCLUDED.stock, active = TRUE`

const restockMovementSQL = `
INSERT INTO stock_movements (id, product_id, kind, quantity, origin, note)
VALUES ($1, $2, 'IN', $3, 'import', $4)`

// writeProducts drains the channel, upserting each product and recording its
// feed stock as an IN movement.
func writeProducts(ctx context.Context, pool *pgxpool.Pool, products <-chan feedProduct) error {
	var written int

	for p := range products {
		if _, err := pool.Exec(ctx, upsertProductSQL, p.ID, p.Name, p.Price, p.Stock); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}
		if p.Stock > 0 {
			if _, err := pool.Exec(ctx, restockMovementSQL,
				uuid.New().String(), p.ID, p.Stock, "feed import",
			); err != nil {
				return errors.Wrapf(err, "record stock for %s", p.ID)
			}
		}

		written++
		if written%progressEvery == 0 {
			slog.Info("write progress", slog.Int("written", written))
		}
	}

	slog.Info("write complete", slog.Int("written", written))
	return nil
}
