// Package application wires the engine stages into the two batch jobs: the
// collection job (collect, score, trend-detect, persist) and the analysis job
// (correlate, cluster, synthesize, ideas). Jobs are single-flight; nothing
// here assumes concurrent runs.
package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/solradar/radar/internal/domain"
	"github.com/solradar/radar/internal/engine/score"
	"github.com/solradar/radar/internal/engine/trend"
	"github.com/solradar/radar/internal/persistence"
	"github.com/solradar/radar/internal/telemetry/metrics"
)

// Collector produces raw signals for one source category. Implementations
// are external; the engine only needs this contract.
type Collector interface {
	Name() string
	Category() domain.Category
	Collect(ctx context.Context, since time.Time) ([]domain.RawSignal, error)
}

// CollectJob runs one collection pass across all collectors.
type CollectJob struct {
	collectors []Collector
	scorer     *score.Scorer
	detector   *trend.Detector
	signals    persistence.SignalRepo
	runs       persistence.RunRepo
	lookback   time.Duration
	now        func() time.Time
}

// NewCollectJob assembles a collection job. runs may be nil when run
// bookkeeping is not wanted (tests, dry runs).
func NewCollectJob(collectors []Collector, scorer *score.Scorer, detector *trend.Detector,
	signals persistence.SignalRepo, runs persistence.RunRepo, lookback time.Duration) *CollectJob {
	return &CollectJob{
		collectors: collectors,
		scorer:     scorer,
		detector:   detector,
		signals:    signals,
		runs:       runs,
		lookback:   lookback,
		now:        time.Now,
	}
}

// CollectResult summarizes one collection run.
type CollectResult struct {
	RunID            string
	SignalsCollected int
	SourcesQueried   []string
	FailedCollectors []string
}

// Run executes the collection pipeline. One collector failing never aborts
// the others; that source simply contributes zero signals this run.
func (j *CollectJob) Run(ctx context.Context) (*CollectResult, error) {
	started := j.now()
	runID := uuid.NewString()
	since := started.Add(-j.lookback)

	log.Info().Str("run_id", runID).Int("collectors", len(j.collectors)).
		Time("since", since).Msg("starting collection run")

	var raws []domain.RawSignal
	result := &CollectResult{RunID: runID}

	for _, c := range j.collectors {
		result.SourcesQueried = append(result.SourcesQueried, c.Name())
		collected, err := c.Collect(ctx, since)
		if err != nil {
			log.Warn().Err(err).Str("collector", c.Name()).
				Msg("collector failed, continuing with remaining sources")
			metrics.CollectorFailures.WithLabelValues(c.Name()).Inc()
			result.FailedCollectors = append(result.FailedCollectors, c.Name())
			continue
		}
		log.Info().Str("collector", c.Name()).Int("signals", len(collected)).Msg("collector finished")
		raws = append(raws, collected...)
	}

	scored := j.scorer.ScoreBatch(raws)
	for _, s := range scored {
		metrics.SignalsScored.WithLabelValues(string(s.Source)).Inc()
	}

	enhanced := j.detector.DetectTrends(ctx, scored)

	if err := j.signals.InsertBatch(ctx, runID, enhanced); err != nil {
		j.recordRun(ctx, runID, started, "failed", 0, result.SourcesQueried, err.Error())
		return nil, err
	}
	result.SignalsCollected = len(enhanced)

	j.recordRun(ctx, runID, started, "completed", len(enhanced), result.SourcesQueried, "")
	metrics.RunDuration.WithLabelValues("collect").Observe(j.now().Sub(started).Seconds())

	log.Info().Str("run_id", runID).Int("signals", len(enhanced)).
		Strs("failed_collectors", result.FailedCollectors).Msg("collection run finished")
	return result, nil
}

func (j *CollectJob) recordRun(ctx context.Context, runID string, started time.Time,
	status string, count int, sources []string, errMsg string) {
	if j.runs == nil {
		return
	}
	err := j.runs.RecordRun(ctx, domain.CollectionRun{
		ID:               runID,
		StartedAt:        started,
		CompletedAt:      j.now(),
		Status:           status,
		SignalsCollected: count,
		SourcesQueried:   sources,
		ErrorMessage:     errMsg,
	})
	if err != nil {
		log.Warn().Err(err).Str("run_id", runID).Msg("failed to record collection run")
	}
}
