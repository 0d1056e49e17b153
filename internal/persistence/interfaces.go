// Package persistence defines the storage contracts the radar engine depends
// on. Implementations live in subpackages; the engine only sees interfaces.
package persistence

import (
	"context"
	"time"

	"github.com/solradar/radar/internal/domain"
)

// SignalRepo stores scored signals append-only, one row per collection run.
type SignalRepo interface {
	// InsertBatch persists one run's scored signals under the given run ID.
	InsertBatch(ctx context.Context, runID string, signals []domain.ScoredSignal) error
	// LoadWindow returns signals detected since the given time, ordered by
	// composite score descending, capped at limit.
	LoadWindow(ctx context.Context, since time.Time, limit int) ([]domain.ScoredSignal, error)
	// Count returns how many signals were detected since the given time.
	Count(ctx context.Context, since time.Time) (int, error)
}

// BaselineRepo is the append-only metric history behind trend detection.
// Satisfies trend.BaselineStore.
type BaselineRepo interface {
	Load(ctx context.Context, since time.Time) ([]domain.BaselinePoint, error)
	Append(ctx context.Context, points []domain.BaselinePoint) error
}

// NarrativeRepo stores synthesized narratives, their signal links and ideas.
type NarrativeRepo interface {
	// InsertNarrative stores one narrative (evidence chain as an opaque
	// document plus indexed scalars) and returns its ID.
	InsertNarrative(ctx context.Context, n domain.Narrative) (string, error)
	// InsertIdea attaches a generated idea to a stored narrative.
	InsertIdea(ctx context.Context, narrativeID string, idea domain.ProductIdea) error
}

// RunRepo records collection and analysis job executions.
type RunRepo interface {
	RecordRun(ctx context.Context, run domain.CollectionRun) error
}
