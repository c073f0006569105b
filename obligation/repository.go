package obligation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrActivityNotFound signals no activity row exists for the id.
	ErrActivityNotFound = errors.New("obligation: activity not found")
	// ErrActivityCompleted is returned when a write targets an activity
	// that already reached its terminal state.
	ErrActivityCompleted = errors.New("obligation: activity already completed")
	// ErrNoAttachment rejects completion of an activity without stored
	// content: completed=true always implies a non-empty attachment.
	ErrNoAttachment = errors.New("obligation: activity has no attached content")
	// ErrEmptyContent rejects attaching zero bytes.
	ErrEmptyContent = errors.New("obligation: empty attachment content")
)

// Filter scopes listing operations. Empty fields match everything.
type Filter struct {
	ObligationTypeID string
	TenantID         string
}

// Repository is the engine's gateway to the obligation store. Attach and
// complete are deliberately separate calls: the store offers no cross-step
// transaction, and the interrupted state (content stored, not completed) is
// surfaced via ListResumable.
type Repository interface {
	ListPendingActivities(ctx context.Context, filter Filter) ([]Activity, error)
	ListResumable(ctx context.Context, filter Filter) ([]Activity, error)
	GetActivity(ctx context.Context, id string) (Activity, error)
	AttachContent(ctx context.Context, activityID string, content []byte, filename string) error
	MarkCompleted(ctx context.Context, activityID string, at time.Time) error
	AppendAuditNote(ctx context.Context, obligationID, note, actorID string, at time.Time) error
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const activityColumns = `
	a.id::text, a.obligation_id::text, a.expected_document_title,
	a.extraction_schema_id::text, a.completed, a.completed_at,
	a.attached_filename, a.attached_content IS NOT NULL,
	o.client_id::text, o.obligation_type_id, o.period_month, o.period_year
`

// ListPendingActivities returns activities still awaiting evidence, with the
// owning obligation's period and client embedded.
func (r *PGRepository) ListPendingActivities(ctx context.Context, filter Filter) ([]Activity, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM obligation_activities a
		JOIN obligations o ON o.id = a.obligation_id
		JOIN clients c ON c.id = o.client_id
		WHERE a.completed = false
		  AND o.status = 'pending'
		  AND ($1 = '' OR o.obligation_type_id = $1)
		  AND ($2 = '' OR c.tenant_id = $2)
		ORDER BY a.id
	`
	return r.list(ctx, query, filter)
}

// ListResumable returns activities whose commit was interrupted between
// attach and complete.
func (r *PGRepository) ListResumable(ctx context.Context, filter Filter) ([]Activity, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM obligation_activities a
		JOIN obligations o ON o.id = a.obligation_id
		JOIN clients c ON c.id = o.client_id
		WHERE a.completed = false
		  AND a.attached_content IS NOT NULL
		  AND ($1 = '' OR o.obligation_type_id = $1)
		  AND ($2 = '' OR c.tenant_id = $2)
		ORDER BY a.id
	`
	return r.list(ctx, query, filter)
}

func (r *PGRepository) list(ctx context.Context, query string, filter Filter) ([]Activity, error) {
	rows, err := r.pool.Query(ctx, query, filter.ObligationTypeID, filter.TenantID)
	if err != nil {
		return nil, fmt.Errorf("obligation: list activities: %w", err)
	}
	defer rows.Close()

	acts := make([]Activity, 0, 16)
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		acts = append(acts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("obligation: iterate activities: %w", err)
	}
	return acts, nil
}

// GetActivity fetches one activity with its obligation context.
func (r *PGRepository) GetActivity(ctx context.Context, id string) (Activity, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM obligation_activities a
		JOIN obligations o ON o.id = a.obligation_id
		WHERE a.id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)
	a, err := scanActivity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Activity{}, ErrActivityNotFound
		}
		return Activity{}, err
	}
	return a, nil
}

func scanActivity(row pgx.Row) (Activity, error) {
	var (
		a           Activity
		schemaID    sql.NullString
		completedAt sql.NullTime
		filename    sql.NullString
	)
	err := row.Scan(
		&a.ID, &a.ObligationID, &a.ExpectedDocumentTitle,
		&schemaID, &a.Completed, &completedAt,
		&filename, &a.HasAttachment,
		&a.ClientID, &a.ObligationTypeID, &a.Period.Month, &a.Period.Year,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Activity{}, err
		}
		return Activity{}, fmt.Errorf("obligation: scan activity: %w", err)
	}
	if schemaID.Valid {
		a.ExtractionSchemaID = &schemaID.String
	}
	if completedAt.Valid {
		t := completedAt.Time
		a.CompletedAt = &t
	}
	if filename.Valid {
		a.AttachedFilename = &filename.String
	}
	return a, nil
}

// AttachContent stores the winning document's bytes and filename. Refused
// for completed activities so re-runs never alter an existing attachment.
func (r *PGRepository) AttachContent(ctx context.Context, activityID string, content []byte, filename string) error {
	if len(content) == 0 {
		return ErrEmptyContent
	}

	const query = `
		UPDATE obligation_activities
		SET attached_content = $2, attached_filename = $3
		WHERE id = $1 AND completed = false
	`
	tag, err := r.pool.Exec(ctx, query, activityID, content, filename)
	if err != nil {
		return fmt.Errorf("obligation: attach content: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.writeRefusal(ctx, activityID)
	}
	return nil
}

// MarkCompleted flips the activity to completed and, when it was the last
// open activity, completes the owning obligation as automatic. Requires an
// existing attachment.
func (r *PGRepository) MarkCompleted(ctx context.Context, activityID string, at time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("obligation: begin completion tx: %w", err)
	}
	defer tx.Rollback(ctx)

	const completeSQL = `
		UPDATE obligation_activities
		SET completed = true, completed_at = $2
		WHERE id = $1 AND completed = false AND attached_content IS NOT NULL
		RETURNING obligation_id::text
	`
	var obligationID string
	if err := tx.QueryRow(ctx, completeSQL, activityID, at).Scan(&obligationID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.writeRefusal(ctx, activityID)
		}
		return fmt.Errorf("obligation: mark completed: %w", err)
	}

	const closeObligationSQL = `
		UPDATE obligations o
		SET status = 'completed', completed_automatically = true, completed_at = $2
		WHERE o.id = $1
		  AND o.status = 'pending'
		  AND NOT EXISTS (
			SELECT 1 FROM obligation_activities a
			WHERE a.obligation_id = o.id AND a.completed = false
		  )
	`
	if _, err := tx.Exec(ctx, closeObligationSQL, obligationID, at); err != nil {
		return fmt.Errorf("obligation: close obligation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("obligation: commit completion tx: %w", err)
	}
	return nil
}

// writeRefusal distinguishes why a guarded write matched no rows.
func (r *PGRepository) writeRefusal(ctx context.Context, activityID string) error {
	var completed, hasContent bool
	const stateSQL = `
		SELECT completed, attached_content IS NOT NULL
		FROM obligation_activities
		WHERE id = $1
	`
	if err := r.pool.QueryRow(ctx, stateSQL, activityID).Scan(&completed, &hasContent); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrActivityNotFound
		}
		return fmt.Errorf("obligation: inspect activity: %w", err)
	}
	if completed {
		return ErrActivityCompleted
	}
	if !hasContent {
		return ErrNoAttachment
	}
	return ErrActivityNotFound
}

// AppendAuditNote records reconciliation provenance on the owning obligation.
func (r *PGRepository) AppendAuditNote(ctx context.Context, obligationID, note, actorID string, at time.Time) error {
	const query = `
		INSERT INTO obligation_audit_notes (obligation_id, note, actor_id, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.pool.Exec(ctx, query, obligationID, note, actorID, at); err != nil {
		return fmt.Errorf("obligation: append audit note: %w", err)
	}
	return nil
}
