// Command seed-db loads development fixtures: catalog products with opening
// stock, payment methods, a handful of leads and accounts, and the API keys
// the server authenticates against.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/salesdesk/order-engine/internal/storage/postgres"
)

type productJSON struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		adminKey     string
		clerkKey     string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&adminKey, "admin-key", "", "admin API key to seed (or SALESDESK_SEED_ADMIN_KEY env)")
	flag.StringVar(&clerkKey, "clerk-key", "", "clerk API key to seed (or SALESDESK_SEED_CLERK_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or SALESDESK_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminKey == "" {
		adminKey = os.Getenv("SALESDESK_SEED_ADMIN_KEY")
	}
	if adminKey == "" {
		slog.Error("admin API key is required: set --admin-key or SALESDESK_SEED_ADMIN_KEY")
		os.Exit(1)
	}
	if clerkKey == "" {
		clerkKey = os.Getenv("SALESDESK_SEED_CLERK_KEY")
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("SALESDESK_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, adminKey, clerkKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, adminKey, clerkKey, pepper string) error {
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

	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedPaymentMethods(ctx, pool); err != nil {
		return errors.Wrap(err, "seed payment methods")
	}
	if err := seedClients(ctx, pool); err != nil {
		return errors.Wrap(err, "seed clients")
	}
	if err := seedAPIKey(ctx, pool, "admin", "Seeded admin key", "admin", 9, adminKey, pepper); err != nil {
		return errors.Wrap(err, "seed admin api key")
	}
	if clerkKey != "" {
		if err := seedAPIKey(ctx, pool, "clerk", "Seeded clerk key", "clerk", 1, clerkKey, pepper); err != nil {
			return errors.Wrap(err, "seed clerk api key")
		}
	}

	return nil
}

const upsertProductSQL = `
INSERT INTO products (id, name, price, stock, active)
VALUES ($1, $2, $3, $4, TRUE)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name, price = EXCLUDED.price, stock = EXCLUDED.stock, active = TRUE`

const openingStockSQL = `
INSERT INTO stock_movements (id, product_id, kind, quantity, origin, note)
SELECT $1, $2, 'IN', $3, 'seed', 'opening stock'
WHERE NOT EXISTS (
    SELECT 1 FROM stock_movements WHERE product_id = $2 AND origin = 'seed'
)`

func seedProducts(ctx context.Context, pool *pgxpool.Pool, productsFile string) error {
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
		if _, err := pool.Exec(ctx, upsertProductSQL, p.ID, p.Name, p.Price, p.Stock); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}
		if p.Stock > 0 {
			if _, err := pool.Exec(ctx, openingStockSQL, uuid.New().String(), p.ID, p.Stock); err != nil {
				return errors.Wrapf(err, "record opening stock %s", p.ID)
			}
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

const upsertPaymentMethodSQL = `
INSERT INTO payment_methods (id, name, active)
VALUES ($1, $2, TRUE)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, active = TRUE`

func seedPaymentMethods(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding payment methods")

	methods := map[string]string{
		"cash":     "Cash",
		"card":     "Credit card",
		"pix":      "Pix",
		"invoice":  "Invoice (net 30)",
		"transfer": "Bank transfer",
	}
	for id, name := range methods {
		if _, err := pool.Exec(ctx, upsertPaymentMethodSQL, id, name); err != nil {
			return errors.Wrapf(err, "upsert payment method %s", id)
		}
	}

	return nil
}

const upsertLeadSQL = `
INSERT INTO leads (id, name, email, phone, postal_code, city, state)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO NOTHING`

const upsertAccountSQL = `
INSERT INTO accounts (id, name, email, phone, postal_code, city, state)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO NOTHING`

func seedClients(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding leads and accounts")

	leads := [][]any{
		{"lead-ana", "Ana Souza", "ana@example.com", "+55 11 91234-0001", "01001-000", "São Paulo", "SP"},
		{"lead-bruno", "Bruno Lima", "bruno@example.com", "+55 21 91234-0002", "20040-020", "Rio de Janeiro", "RJ"},
	}
	for _, l := range leads {
		if _, err := pool.Exec(ctx, upsertLeadSQL, l...); err != nil {
			return errors.Wrapf(err, "upsert lead %v", l[0])
		}
	}

	accounts := [][]any{
		{"acct-acme", "Acme Industria Ltda", "compras@acme.example.com", "+55 11 4002-8922", "04538-133", "São Paulo", "SP"},
		{"acct-norte", "Comercial Norte ME", "contato@norte.example.com", "+55 92 3232-0001", "69005-040", "Manaus", "AM"},
	}
	for _, a := range accounts {
		if _, err := pool.Exec(ctx, upsertAccountSQL, a...); err != nil {
			return errors.Wrapf(err, "upsert account %v", a[0])
		}
	}

	return nil
}

const upsertAPIKeySQL = `
INSERT INTO api_keys (id, key_hash, name, role, privilege, active)
VALUES ($1, $2, $3, $4, $5, TRUE)
ON CONFLICT (id) DO UPDATE SET
    key_hash = EXCLUDED.key_hash, name = EXCLUDED.name,
    role = EXCLUDED.role, privilege = EXCLUDED.privilege, active = TRUE`

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, id, name, role string, privilege int, key, pepper string) error {
	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(key))
	keyHash := hex.EncodeToString(mac.Sum(nil))

	if _, err := pool.Exec(ctx, upsertAPIKeySQL, id, keyHash, name, role, privilege); err != nil {
		return errors.Wrapf(err, "upsert api key %s", id)
	}

	slog.Info("upserted API key", slog.String("id", id), slog.String("role", role))

	return nil
}
