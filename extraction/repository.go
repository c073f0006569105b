package extraction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SchemaRepository loads extraction schemas. Schemas are read-only for the
// duration of a reconciliation run.
type SchemaRepository interface {
	GetByID(ctx context.Context, schemaID string) (Schema, error)
}

type PGSchemaRepository struct {
	pool *pgxpool.Pool
}

func NewSchemaRepository(pool *pgxpool.Pool) *PGSchemaRepository {
	return &PGSchemaRepository{pool: pool}
}

// GetByID fetches a schema and its ordered descriptors. Descriptor rows are
// stored generically (kind plus optional columns) and materialized into the
// matching variant here.
func (r *PGSchemaRepository) GetByID(ctx context.Context, schemaID string) (Schema, error) {
	var s Schema
	const schemaSQL = `SELECT id::text, name FROM extraction_schemas WHERE id = $1`
	if err := r.pool.QueryRow(ctx, schemaSQL, schemaID).Scan(&s.ID, &s.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Schema{}, ErrSchemaNotFound
		}
		return Schema{}, fmt.Errorf("extraction: get schema: %w", err)
	}

	const fieldsSQL = `
		SELECT kind, expected_literal, validation_pattern, approximate_line
		FROM extraction_fields
		WHERE schema_id = $1
		ORDER BY position ASC
	`
	rows, err := r.pool.Query(ctx, fieldsSQL, schemaID)
	if err != nil {
		return Schema{}, fmt.Errorf("extraction: list fields: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			kind       string
			literal    sql.NullString
			pattern    sql.NullString
			approxLine sql.NullInt32
		)
		if err := rows.Scan(&kind, &literal, &pattern, &approxLine); err != nil {
			return Schema{}, fmt.Errorf("extraction: scan field: %w", err)
		}

		field, err := buildDescriptor(FieldKind(kind), literal, pattern, approxLine)
		if err != nil {
			return Schema{}, err
		}
		s.Fields = append(s.Fields, field)
	}
	if err := rows.Err(); err != nil {
		return Schema{}, fmt.Errorf("extraction: iterate fields: %w", err)
	}

	return s, nil
}

func buildDescriptor(kind FieldKind, literal, pattern sql.NullString, approxLine sql.NullInt32) (FieldDescriptor, error) {
	switch kind {
	case FieldKindObligationTag:
		return ObligationTagField{
			ExpectedLiteral:   literal.String,
			ValidationPattern: pattern.String,
		}, nil
	case FieldKindTaxID:
		return TaxIDField{}, nil
	case FieldKindPeriod:
		return PeriodField{ApproximateLine: int(approxLine.Int32)}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFieldKind, kind)
	}
}
