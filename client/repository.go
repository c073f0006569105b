package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals the requested client does not exist.
var ErrNotFound = errors.New("client: not found")

// Reader provides the lookups the reconciliation engine needs.
type Reader interface {
	GetByID(ctx context.Context, id string) (Profile, error)
	GetByTaxID(ctx context.Context, taxID string) (Profile, error)
}

// Repository provides read access to client profiles.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed repository implementation.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID fetches a client profile by its primary key.
func (r *Repository) GetByID(ctx context.Context, id string) (Profile, error) {
	const query = `
		SELECT id::text, tenant_id, name, tax_id, created_at
		FROM clients
		WHERE id = $1
	`
	return r.one(ctx, query, id)
}

// GetByTaxID fetches a client profile by its CNPJ.
func (r *Repository) GetByTaxID(ctx context.Context, taxID string) (Profile, error) {
	const query = `
		SELECT id::text, tenant_id, name, tax_id, created_at
		FROM clients
		WHERE tax_id = $1
	`
	return r.one(ctx, query, taxID)
}

func (r *Repository) one(ctx context.Context, query string, arg any) (Profile, error) {
	var p Profile
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&p.ID,
		&p.TenantID,
		&p.Name,
		&p.TaxID,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("client: query profile: %w", err)
	}
	return p, nil
}
