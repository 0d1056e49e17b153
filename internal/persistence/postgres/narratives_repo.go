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

// narrativesRepo implements NarrativeRepo and RunRepo for PostgreSQL.
type narrativesRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewNarrativesRepo creates a PostgreSQL narratives repository.
func NewNarrativesRepo(db *sqlx.DB, timeout time.Duration) persistence.NarrativeRepo {
	return &narrativesRepo{db: db, timeout: timeout}
}

// NewRunRepo creates a PostgreSQL run repository.
func NewRunRepo(db *sqlx.DB, timeout time.Duration) persistence.RunRepo {
	return &narrativesRepo{db: db, timeout: timeout}
}

func (r *narrativesRepo) InsertNarrative(ctx context.Context, n domain.Narrative) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	chainJSON, err := json.Marshal(n.EvidenceChain)
	if err != nil {
		return "", fmt.Errorf("failed to marshal evidence chain: %w", err)
	}

	// Slug gets a time suffix so repeated analysis runs over overlapping
	// windows never collide on the unique index.
	slug := fmt.Sprintf("%s-%x", n.Slug, time.Now().Unix())

	query := `
		INSERT INTO narratives (title, slug, summary, explanation, confidence_score,
			signal_count, source_diversity, status, tags, evidence_chain)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	var id string
	err = r.db.QueryRowxContext(ctx, query,
		n.Title, slug, n.Summary, n.Explanation, n.ConfidenceScore,
		n.EvidenceChain.ClusterInfo.SignalCount, sourceDiversity(n.EvidenceChain),
		n.Status, pq.Array(n.Tags), chainJSON).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to insert narrative %q: %w", n.Title, err)
	}
	return id, nil
}

func (r *narrativesRepo) InsertIdea(ctx context.Context, narrativeID string, idea domain.ProductIdea) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO ideas (narrative_id, title, description, target_user,
			technical_approach, differentiation, feasibility_score, impact_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		narrativeID, idea.Title, idea.Description, idea.TargetUser,
		idea.TechnicalApproach, idea.Differentiation, idea.FeasibilityScore, idea.ImpactScore)
	if err != nil {
		return fmt.Errorf("failed to insert idea %q: %w", idea.Title, err)
	}
	return nil
}

func (r *narrativesRepo) RecordRun(ctx context.Context, run domain.CollectionRun) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO collection_runs (id, started_at, completed_at, status,
			signals_collected, sources_queried, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.StartedAt, run.CompletedAt, run.Status,
		run.SignalsCollected, pq.Array(run.SourcesQueried), run.ErrorMessage)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}
	return nil
}

// sourceDiversity counts distinct sources among the chain's raw data points,
// matching what the indexed column is queried for.
func sourceDiversity(chain domain.EvidenceChain) int {
	seen := make(map[string]struct{})
	for _, dp := range chain.RawDataPoints {
		seen[dp.Source] = struct{}{}
	}
	return len(seen)
}
