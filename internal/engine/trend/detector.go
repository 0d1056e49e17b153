// Package trend enriches scored signals with z-scores against a rolling
// per-source historical baseline and escalates strength when a score is
// statistically anomalous for its source.
package trend

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/solradar/radar/internal/domain"
)

// BaselineStore is the append-only metric history the detector reads its
// rolling baseline from and grows run over run. Callers own the store's
// lifecycle; the engine holds no process-wide state.
type BaselineStore interface {
	Load(ctx context.Context, since time.Time) ([]domain.BaselinePoint, error)
	Append(ctx context.Context, points []domain.BaselinePoint) error
}

// ZThresholds map a z-score onto the minimum strength it implies.
type ZThresholds struct {
	Extreme float64 `yaml:"extreme"`
	Strong  float64 `yaml:"strong"`
	Medium  float64 `yaml:"medium"`
}

// Config holds trend detection parameters.
type Config struct {
	// BaselineWindowDays bounds the trailing baseline window by age.
	BaselineWindowDays int `yaml:"baseline_window_days"`
	// MinBatchBaseline is the minimum current-batch size per source before
	// the cold-start in-batch fallback baseline is used.
	MinBatchBaseline int         `yaml:"min_batch_baseline"`
	ZThresholds      ZThresholds `yaml:"z_thresholds"`
}

// DefaultConfig returns production trend parameters.
func DefaultConfig() Config {
	return Config{
		BaselineWindowDays: 90,
		MinBatchBaseline:   3,
		ZThresholds:        ZThresholds{Extreme: 3, Strong: 2, Medium: 1},
	}
}

// Detector computes z-scores against the historical baseline. Baseline I/O is
// best-effort: a failing store never blocks a collection run, signals simply
// keep the scorer's classification.
type Detector struct {
	cfg   Config
	store BaselineStore
	now   func() time.Time
}

// NewDetector creates a Detector over the given baseline store.
func NewDetector(cfg Config, store BaselineStore) *Detector {
	if cfg.BaselineWindowDays == 0 {
		cfg = DefaultConfig()
	}
	return &Detector{cfg: cfg, store: store, now: time.Now}
}

type baseline struct {
	mean   float64
	stddev float64
}

// DetectTrends returns a copy of signals with z-scores filled in and strength
// escalated where the z-score warrants it, then appends this run's per-source
// composite_score and signal_count points to the baseline store.
func (d *Detector) DetectTrends(ctx context.Context, signals []domain.ScoredSignal) []domain.ScoredSignal {
	bySource := make(map[domain.Category][]float64)
	for _, s := range signals {
		bySource[s.Source] = append(bySource[s.Source], s.CompositeScore)
	}

	baselines := d.loadBaselines(ctx)

	enhanced := make([]domain.ScoredSignal, len(signals))
	for i, s := range signals {
		enhanced[i] = s
		z, ok := d.zScore(s, baselines, bySource)
		if !ok {
			continue
		}
		enhanced[i].ZScore = &z
		enhanced[i].Strength = s.Strength.Max(d.impliedStrength(z))
	}

	d.recordBaseline(ctx, bySource)
	return enhanced
}

// zScore resolves a signal's z-score from the historical baseline, falling
// back to in-batch statistics on cold start or when the stored baseline has
// zero variance.
func (d *Detector) zScore(s domain.ScoredSignal, baselines map[domain.Category]baseline, bySource map[domain.Category][]float64) (float64, bool) {
	if b, ok := baselines[s.Source]; ok && b.stddev > 0 {
		return (s.CompositeScore - b.mean) / b.stddev, true
	}

	scores := bySource[s.Source]
	if len(scores) < d.cfg.MinBatchBaseline {
		return 0, false
	}
	m := mean(scores)
	sd := stddev(scores, m)
	if sd <= 0 {
		return 0, false
	}
	return (s.CompositeScore - m) / sd, true
}

func (d *Detector) impliedStrength(z float64) domain.Strength {
	switch {
	case z > d.cfg.ZThresholds.Extreme:
		return domain.StrengthExtreme
	case z > d.cfg.ZThresholds.Strong:
		return domain.StrengthStrong
	case z > d.cfg.ZThresholds.Medium:
		return domain.StrengthMedium
	default:
		return domain.StrengthWeak
	}
}

func (d *Detector) loadBaselines(ctx context.Context) map[domain.Category]baseline {
	baselines := make(map[domain.Category]baseline)
	if d.store == nil {
		return baselines
	}

	since := d.now().AddDate(0, 0, -d.cfg.BaselineWindowDays)
	points, err := d.store.Load(ctx, since)
	if err != nil {
		log.Warn().Err(err).Msg("baseline load failed, continuing without historical baseline")
		return baselines
	}

	values := make(map[domain.Category][]float64)
	for _, p := range points {
		if p.MetricName != domain.MetricCompositeScore {
			continue
		}
		values[p.Source] = append(values[p.Source], p.Value)
	}
	for source, vals := range values {
		m := mean(vals)
		baselines[source] = baseline{mean: m, stddev: stddev(vals, m)}
	}
	return baselines
}

func (d *Detector) recordBaseline(ctx context.Context, bySource map[domain.Category][]float64) {
	if d.store == nil || len(bySource) == 0 {
		return
	}

	now := d.now()
	points := make([]domain.BaselinePoint, 0, len(bySource)*2)
	for source, scores := range bySource {
		points = append(points,
			domain.BaselinePoint{Source: source, MetricName: domain.MetricCompositeScore, Value: mean(scores), RecordedAt: now},
			domain.BaselinePoint{Source: source, MetricName: domain.MetricSignalCount, Value: float64(len(scores)), RecordedAt: now},
		)
	}
	if err := d.store.Append(ctx, points); err != nil {
		log.Warn().Err(err).Int("points", len(points)).Msg("baseline append failed, next run keeps the current baseline")
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the population standard deviation around the given mean.
func stddev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}
