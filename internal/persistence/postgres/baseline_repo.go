package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/solradar/radar/internal/domain"
	"github.com/solradar/radar/internal/persistence"
)

// baselineRepo implements BaselineRepo for PostgreSQL. The metric_history
// table is append-only; the rolling window is bounded by age at read time.
type baselineRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewBaselineRepo creates a PostgreSQL baseline repository.
func NewBaselineRepo(db *sqlx.DB, timeout time.Duration) persistence.BaselineRepo {
	return &baselineRepo{db: db, timeout: timeout}
}

func (r *baselineRepo) Load(ctx context.Context, since time.Time) ([]domain.BaselinePoint, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT source, metric_name, metric_value, recorded_at
		FROM metric_history
		WHERE recorded_at >= $1
		ORDER BY recorded_at ASC`

	var points []domain.BaselinePoint
	if err := r.db.SelectContext(ctx, &points, query, since); err != nil {
		return nil, fmt.Errorf("failed to load baseline points: %w", err)
	}
	return points, nil
}

func (r *baselineRepo) Append(ctx context.Context, points []domain.BaselinePoint) error {
	if len(points) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO metric_history (source, metric_name, metric_value, recorded_at)
		VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return fmt.Errorf("failed to prepare baseline insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.ExecContext(ctx, p.Source, p.MetricName, p.Value, p.RecordedAt); err != nil {
			return fmt.Errorf("failed to append baseline point %s/%s: %w", p.Source, p.MetricName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit baseline points: %w", err)
	}
	return nil
}
