package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salesdesk/order-engine/internal/domain/auth"
)

const getAPIKeySQL = `SELECT id, key_hash, name, role, privilege
	FROM api_keys WHERE key_hash = $1 AND active`

var _ auth.Repository = (*APIKeyRepository)(nil)

// APIKeyRepository provides API key lookups backed by PostgreSQL.
type APIKeyRepository struct {
	pool *pgxpool.Pool
}

// NewAPIKeyRepository returns an APIKeyRepository that uses the given pool.
func NewAPIKeyRepository(pool *pgxpool.Pool) *APIKeyRepository {
	return &APIKeyRepository{pool: pool}
}

// FindByHash looks up an active API key by its HMAC-SHA256 hash.
// Returns an error wrapping pgx.ErrNoRows when no matching key exists.
func (r *APIKeyRepository) FindByHash(ctx context.Context, hash string) (*auth.APIKeyInfo, error) {
	var (
		info auth.APIKeyInfo
		role string
	)
	err := r.pool.QueryRow(ctx, getAPIKeySQL, hash).Scan(
		&info.ID, &info.KeyHash, &info.Name, &role, &info.Privilege)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("api key not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("finding api key by hash: %w", err)
	}
	info.Role = auth.Role(role)
	return &info, nil
}
