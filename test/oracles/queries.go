package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Oracle struct {
	Name string
	SQL  string
}

func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_completed_implies_content",
			SQL: `SELECT id FROM obligation_activities
                  WHERE completed = true AND attached_content IS NULL`,
		},
		{
			Name: "O2_completed_at_consistency",
			SQL: `SELECT id FROM obligation_activities
                  WHERE (completed = true AND completed_at IS NULL)
                     OR (completed = false AND completed_at IS NOT NULL)`,
		},
		{
			Name: "O3_obligation_closed_early",
			SQL: `SELECT o.id FROM obligations o
                  WHERE o.status = 'completed'
                    AND EXISTS (
                        SELECT 1 FROM obligation_activities a
                        WHERE a.obligation_id = o.id AND a.completed = false)`,
		},
		{
			Name: "O4_obligation_completion_timestamp",
			SQL: `SELECT id FROM obligations
                  WHERE status = 'completed' AND completed_at IS NULL`,
		},
		{
			Name: "O5_unique_period",
			SQL: `SELECT client_id, obligation_type_id, period_month, period_year, COUNT(*)
                  FROM obligations
                  GROUP BY client_id, obligation_type_id, period_month, period_year
                  HAVING COUNT(*) > 1`,
		},
		{
			Name: "O6_filename_present_with_content",
			SQL: `SELECT id FROM obligation_activities
                  WHERE attached_content IS NOT NULL AND attached_filename IS NULL`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample row text) or empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		has := rows.Next()
		if has {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
	}
	return "", "", nil
}
