package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fiscalflow/obligation"
)

// Attacher drives the first half of commits: it picks a random pending
// activity without stored content and attaches evidence bytes through the
// production repository.
func Attacher(ctx context.Context, pool *pgxpool.Pool, stop <-chan struct{}) error {
	repo := obligation.NewRepository(pool)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		var id string
		err := pool.QueryRow(ctx, `SELECT id::text FROM obligation_activities
                                   WHERE completed=false AND attached_content IS NULL
                                   ORDER BY random() LIMIT 1`).Scan(&id)
		if err == nil {
			content := []byte(fmt.Sprintf("evidence-%d", rand.Int63()))
			err = repo.AttachContent(ctx, id, content, fmt.Sprintf("DAS_DAS_07/2025_%s.pdf", id))
			if err != nil && !expectedContention(err) {
				return fmt.Errorf("attacher: %w", err)
			}
		}
		time.Sleep(time.Duration(10+rand.Intn(20)) * time.Millisecond)
	}
}

// Completer finishes interrupted commits: it races over resumable activities
// (content stored, completion missing) and marks them completed.
func Completer(ctx context.Context, pool *pgxpool.Pool, stop <-chan struct{}) error {
	repo := obligation.NewRepository(pool)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		acts, err := repo.ListResumable(ctx, obligation.Filter{})
		if err == nil && len(acts) > 0 {
			pick := acts[rand.Intn(len(acts))]
			err = repo.MarkCompleted(ctx, pick.ID, time.Now().UTC())
			if err != nil && !expectedContention(err) {
				return fmt.Errorf("completer: %w", err)
			}
		}
		time.Sleep(time.Duration(20+rand.Intn(40)) * time.Millisecond)
	}
}

// Seeder keeps the pending set from draining by inserting fresh obligations
// with one activity each. Period collisions with concurrent seeders are
// expected and ignored.
func Seeder(ctx context.Context, pool *pgxpool.Pool, clientID, schemaID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		month := 1 + rand.Intn(12)
		year := 2020 + rand.Intn(10)
		var oblID string
		err := pool.QueryRow(ctx, `INSERT INTO obligations (client_id, obligation_type_id, period_month, period_year)
                                   VALUES ($1, 'das-mensal', $2, $3) RETURNING id::text`,
			clientID, month, year).Scan(&oblID)
		if err == nil {
			_, err = pool.Exec(ctx, `INSERT INTO obligation_activities (obligation_id, expected_document_title, extraction_schema_id)
                                     VALUES ($1, 'DAS', $2)`, oblID, schemaID)
			if err != nil {
				return fmt.Errorf("seeder activity: %w", err)
			}
		} else if !uniqueViolation(err) {
			return fmt.Errorf("seeder obligation: %w", err)
		}
		time.Sleep(time.Duration(30+rand.Intn(60)) * time.Millisecond)
	}
}

// Auditor appends reconciliation audit notes to random obligations.
func Auditor(ctx context.Context, pool *pgxpool.Pool, stop <-chan struct{}) error {
	repo := obligation.NewRepository(pool)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		var oblID string
		err := pool.QueryRow(ctx, `SELECT id::text FROM obligations ORDER BY random() LIMIT 1`).Scan(&oblID)
		if err == nil {
			note := fmt.Sprintf("stress note %d", rand.Int63())
			if err := repo.AppendAuditNote(ctx, oblID, note, "stress-operator", time.Now().UTC()); err != nil {
				return fmt.Errorf("auditor: %w", err)
			}
		}
		time.Sleep(time.Duration(40+rand.Intn(80)) * time.Millisecond)
	}
}

// expectedContention reports write refusals that are normal when actors race
// over the same activity.
func expectedContention(err error) bool {
	return errors.Is(err, obligation.ErrActivityNotFound) ||
		errors.Is(err, obligation.ErrActivityCompleted) ||
		errors.Is(err, obligation.ErrNoAttachment)
}

func uniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
