package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salesdesk/order-engine/internal/domain/directory"
)

// searchClientsSQL merges the two client classes into one summary shape.
// The kind tag is resolved here, at the directory boundary.
const searchClientsSQL = `
	SELECT id, 'lead' AS kind, name, email, phone,
		postal_code, street, number, neighborhood, city, state
	FROM leads
	WHERE name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%'
	UNION ALL
	SELECT id, 'credentialed' AS kind, name, email, phone,
		postal_code, street, number, neighborhood, city, state
	FROM accounts
	WHERE name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%'
	ORDER BY name
	LIMIT 50`

var _ directory.Repository = (*DirectoryRepository)(nil)

// DirectoryRepository implements client search over both client classes.
type DirectoryRepository struct {
	pool *pgxpool.Pool
}

// NewDirectoryRepository returns a DirectoryRepository that uses the given pool.
func NewDirectoryRepository(pool *pgxpool.Pool) *DirectoryRepository {
	return &DirectoryRepository{pool: pool}
}

// SearchClients searches leads and accounts by name or email and returns
// merged summaries.
func (r *DirectoryRepository) SearchClients(ctx context.Context, term string) ([]directory.ClientSummary, error) {
	rows, err := r.pool.Query(ctx, searchClientsSQL, term)
	if err != nil {
		return nil, fmt.Errorf("searching clients for %q: %w", term, err)
	}
	defer rows.Close()

	var clients []directory.ClientSummary
	for rows.Next() {
		var (
			c    directory.ClientSummary
			kind string
		)
		err := rows.Scan(&c.ID, &kind, &c.Name, &c.Email, &c.Phone,
			&c.PostalCode, &c.Street, &c.Number, &c.Neighborhood, &c.City, &c.State)
		if err != nil {
			return nil, fmt.Errorf("scanning client: %w", err)
		}
		c.Kind = directory.Kind(kind)
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("searching clients for %q: %w", term, err)
	}
	return clients, nil
}
