package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/solradar/radar/internal/domain"
	"github.com/solradar/radar/internal/persistence"
)

// signalsRepo implements SignalRepo for PostgreSQL.
type signalsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewSignalsRepo creates a PostgreSQL signals repository.
func NewSignalsRepo(db *sqlx.DB, timeout time.Duration) persistence.SignalRepo {
	return &signalsRepo{db: db, timeout: timeout}
}

// signalRow is the flat DB projection of a scored signal.
type signalRow struct {
	Source         string          `db:"source"`
	SourceURL      *string         `db:"source_url"`
	Title          string          `db:"title"`
	Description    string          `db:"description"`
	RawData        json.RawMessage `db:"raw_data"`
	Tags           pq.StringArray  `db:"tags"`
	Entities       pq.StringArray  `db:"entities"`
	Magnitude      float64         `db:"magnitude"`
	Velocity       float64         `db:"velocity"`
	Novelty        float64         `db:"novelty"`
	Confidence     float64         `db:"confidence"`
	CompositeScore float64         `db:"composite_score"`
	ZScore         *float64        `db:"z_score"`
	Strength       string          `db:"strength"`
	DetectedAt     time.Time       `db:"detected_at"`
}

func (r *signalsRepo) InsertBatch(ctx context.Context, runID string, signals []domain.ScoredSignal) error {
	if len(signals) == 0 {
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
		INSERT INTO signals (collection_run_id, source, source_url, title, description,
			raw_data, tags, entities, magnitude, velocity, novelty, confidence,
			composite_score, z_score, strength, detected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`)
	if err != nil {
		return fmt.Errorf("failed to prepare signal insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range signals {
		rawData, err := json.Marshal(s.RawData)
		if err != nil {
			return fmt.Errorf("failed to marshal raw_data for %q: %w", s.Title, err)
		}
		var url *string
		if s.SourceURL != "" {
			url = &s.SourceURL
		}
		_, err = stmt.ExecContext(ctx,
			runID, s.Source, url, s.Title, s.Description,
			rawData, pq.Array(s.Tags), pq.Array(s.Entities),
			s.Magnitude, s.Velocity, s.Novelty, s.Confidence,
			s.CompositeScore, s.ZScore, s.Strength, s.DetectedAt)
		if err != nil {
			return fmt.Errorf("failed to insert signal %q: %w", s.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit signal batch: %w", err)
	}
	return nil
}

func (r *signalsRepo) LoadWindow(ctx context.Context, since time.Time, limit int) ([]domain.ScoredSignal, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT source, source_url, title, description, raw_data, tags, entities,
			magnitude, velocity, novelty, confidence, composite_score, z_score,
			strength, detected_at
		FROM signals
		WHERE detected_at >= $1
		ORDER BY composite_score DESC
		LIMIT $2`

	var rows []signalRow
	if err := r.db.SelectContext(ctx, &rows, query, since, limit); err != nil {
		return nil, fmt.Errorf("failed to load signal window: %w", err)
	}

	signals := make([]domain.ScoredSignal, 0, len(rows))
	for _, row := range rows {
		s, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		signals = append(signals, s)
	}
	return signals, nil
}

func (r *signalsRepo) Count(ctx context.Context, since time.Time) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM signals WHERE detected_at >= $1`, since)
	if err != nil {
		return 0, fmt.Errorf("failed to count signals: %w", err)
	}
	return count, nil
}

func (row signalRow) toDomain() (domain.ScoredSignal, error) {
	var rawData map[string]any
	if len(row.RawData) > 0 {
		if err := json.Unmarshal(row.RawData, &rawData); err != nil {
			return domain.ScoredSignal{}, fmt.Errorf("failed to unmarshal raw_data for %q: %w", row.Title, err)
		}
	}
	var url string
	if row.SourceURL != nil {
		url = *row.SourceURL
	}
	return domain.ScoredSignal{
		RawSignal: domain.RawSignal{
			Source:      domain.Category(row.Source),
			SourceURL:   url,
			Title:       row.Title,
			Description: row.Description,
			RawData:     rawData,
			Tags:        row.Tags,
			Entities:    row.Entities,
			Magnitude:   row.Magnitude,
			Velocity:    row.Velocity,
			Novelty:     row.Novelty,
			Confidence:  row.Confidence,
			DetectedAt:  row.DetectedAt,
		},
		CompositeScore: row.CompositeScore,
		ZScore:         row.ZScore,
		Strength:       domain.Strength(row.Strength),
	}, nil
}
