package application

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/solradar/radar/internal/domain"
	"github.com/solradar/radar/internal/engine/cluster"
	"github.com/solradar/radar/internal/engine/correlate"
	"github.com/solradar/radar/internal/persistence"
	"github.com/solradar/radar/internal/synth"
	"github.com/solradar/radar/internal/telemetry/metrics"
)

// Config holds the analysis job's gates and windows.
type Config struct {
	// AnalysisWindowDays bounds how far back signals are loaded.
	AnalysisWindowDays int `yaml:"analysis_window_days"`
	// MinSignals is the accumulated-signal floor below which analysis
	// refuses to run.
	MinSignals int `yaml:"min_signals"`
	// MaxSignalsToLoad caps the working set, top scores first.
	MaxSignalsToLoad int `yaml:"max_signals_to_load"`
	// TopNarrativesForIdeas bounds idea generation to the most confident
	// narratives.
	TopNarrativesForIdeas int `yaml:"top_narratives_for_ideas"`
	// CollectLookbackDays is the collection job's default lookback window.
	CollectLookbackDays int `yaml:"collect_lookback_days"`
}

// DefaultConfig returns production analysis parameters.
func DefaultConfig() Config {
	return Config{
		AnalysisWindowDays:    14,
		MinSignals:            50,
		MaxSignalsToLoad:      1000,
		TopNarrativesForIdeas: 5,
		CollectLookbackDays:   14,
	}
}

// ErrInsufficientSignals is the one user-visible precondition failure:
// analysis refuses to run on too little data and reports the shortfall.
type ErrInsufficientSignals struct {
	Found    int
	Required int
}

func (e *ErrInsufficientSignals) Error() string {
	return fmt.Sprintf("not enough data for meaningful analysis: found %d signals, need at least %d; run collection a few more times",
		e.Found, e.Required)
}

// AnalyzeJob runs correlation, clustering, synthesis and idea generation
// over the accumulated signal window.
type AnalyzeJob struct {
	cfg         Config
	correlator  *correlate.Correlator
	clusterer   *cluster.Clusterer
	synthesizer *synth.Synthesizer
	signals     persistence.SignalRepo
	narratives  persistence.NarrativeRepo
	now         func() time.Time
}

// NewAnalyzeJob assembles an analysis job. narratives may be nil to skip
// persistence (dry runs).
func NewAnalyzeJob(cfg Config, correlator *correlate.Correlator, clusterer *cluster.Clusterer,
	synthesizer *synth.Synthesizer, signals persistence.SignalRepo,
	narratives persistence.NarrativeRepo) *AnalyzeJob {
	if cfg.MinSignals == 0 {
		cfg = DefaultConfig()
	}
	return &AnalyzeJob{
		cfg:         cfg,
		correlator:  correlator,
		clusterer:   clusterer,
		synthesizer: synthesizer,
		signals:     signals,
		narratives:  narratives,
		now:         time.Now,
	}
}

// AnalyzeResult summarizes one analysis run.
type AnalyzeResult struct {
	SignalsAnalyzed int
	Correlations    []domain.EntityCorrelation
	Candidates      []domain.EntityCorrelation
	ProtoNarratives []domain.ProtoNarrative
	Narratives      []domain.Narrative
	Ideas           map[int]domain.ProductIdea
	// Warning is set when synthesis degraded to the algorithmic fallback;
	// the run still completes.
	Warning string
}

// Run executes the analysis pipeline end to end.
func (j *AnalyzeJob) Run(ctx context.Context) (*AnalyzeResult, error) {
	started := j.now()
	since := started.AddDate(0, 0, -j.cfg.AnalysisWindowDays)

	signals, err := j.signals.LoadWindow(ctx, since, j.cfg.MaxSignalsToLoad)
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis window: %w", err)
	}
	if len(signals) < j.cfg.MinSignals {
		return nil, &ErrInsufficientSignals{Found: len(signals), Required: j.cfg.MinSignals}
	}
	log.Info().Int("signals", len(signals)).Int("window_days", j.cfg.AnalysisWindowDays).
		Msg("starting analysis run")

	// Correlation and clustering run independently over the same window.
	correlations := j.correlator.Correlate(signals)
	candidates := j.correlator.FindCandidates(correlations)
	protos := j.clusterer.Cluster(signals)
	log.Info().Int("correlations", len(correlations)).Int("candidates", len(candidates)).
		Int("proto_narratives", len(protos)).Msg("algorithmic analysis finished")

	narratives, fellBack := j.synthesizer.Synthesize(ctx, protos)
	result := &AnalyzeResult{
		SignalsAnalyzed: len(signals),
		Correlations:    correlations,
		Candidates:      candidates,
		ProtoNarratives: protos,
		Narratives:      narratives,
	}
	path := "provider"
	if fellBack {
		path = "fallback"
		metrics.SynthesisFallbacks.Inc()
		result.Warning = "narrative synthesis unavailable; narratives carry algorithmic descriptions"
	}
	metrics.NarrativesProduced.WithLabelValues(path).Add(float64(len(narratives)))

	ids := j.storeNarratives(ctx, narratives)

	// Idea failures are isolated: narratives above are already stored.
	top := topByConfidence(narratives, j.cfg.TopNarrativesForIdeas)
	ideas := j.synthesizer.GenerateIdeas(ctx, top)
	result.Ideas = ideas
	j.storeIdeas(ctx, narratives, ids, top, ideas)

	metrics.RunDuration.WithLabelValues("analyze").Observe(j.now().Sub(started).Seconds())
	log.Info().Int("narratives", len(narratives)).Int("ideas", len(ideas)).
		Bool("fallback", fellBack).Msg("analysis run finished")
	return result, nil
}

// storeNarratives persists each narrative, returning stored IDs keyed by
// narrative index. Individual insert failures are logged and skipped.
func (j *AnalyzeJob) storeNarratives(ctx context.Context, narratives []domain.Narrative) map[int]string {
	ids := make(map[int]string, len(narratives))
	if j.narratives == nil {
		return ids
	}
	for i, n := range narratives {
		id, err := j.narratives.InsertNarrative(ctx, n)
		if err != nil {
			log.Warn().Err(err).Str("title", n.Title).Msg("failed to store narrative")
			continue
		}
		ids[i] = id
	}
	return ids
}

func (j *AnalyzeJob) storeIdeas(ctx context.Context, narratives []domain.Narrative,
	ids map[int]string, top []domain.Narrative, ideas map[int]domain.ProductIdea) {
	if j.narratives == nil {
		return
	}
	for topIdx, idea := range ideas {
		if topIdx >= len(top) {
			continue
		}
		// Map the top-slice index back to the full narrative slice to find
		// the stored ID.
		origIdx := indexOf(narratives, top[topIdx])
		id, ok := ids[origIdx]
		if !ok {
			continue
		}
		if err := j.narratives.InsertIdea(ctx, id, idea); err != nil {
			log.Warn().Err(err).Str("idea", idea.Title).Msg("failed to store idea")
		}
	}
}

// topByConfidence returns the n most confident narratives, highest first,
// without mutating the input order.
func topByConfidence(narratives []domain.Narrative, n int) []domain.Narrative {
	top := make([]domain.Narrative, len(narratives))
	copy(top, narratives)
	for i := 1; i < len(top); i++ {
		for k := i; k > 0 && top[k].ConfidenceScore > top[k-1].ConfidenceScore; k-- {
			top[k], top[k-1] = top[k-1], top[k]
		}
	}
	if len(top) > n {
		top = top[:n]
	}
	return top
}

func indexOf(narratives []domain.Narrative, target domain.Narrative) int {
	for i, n := range narratives {
		if n.Slug == target.Slug && n.Title == target.Title {
			return i
		}
	}
	return -1
}
