// Package score converts raw observations into composite-scored signals.
package score

import (
	"sort"

	"github.com/solradar/radar/internal/domain"
)

// Weights blend the four raw dimensions into the composite score. Velocity
// carries the highest weight: the scanner favors signals that are changing
// fast over signals that are merely large.
type Weights struct {
	Magnitude  float64 `yaml:"magnitude"`
	Velocity   float64 `yaml:"velocity"`
	Novelty    float64 `yaml:"novelty"`
	Confidence float64 `yaml:"confidence"`
}

// Thresholds classify a composite score into a strength bucket.
type Thresholds struct {
	Extreme float64 `yaml:"extreme"`
	Strong  float64 `yaml:"strong"`
	Medium  float64 `yaml:"medium"`
}

// Config holds scoring weights and strength thresholds.
type Config struct {
	Weights    Weights    `yaml:"weights"`
	Thresholds Thresholds `yaml:"strength_thresholds"`
}

// DefaultConfig returns production scoring parameters.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Magnitude:  0.25,
			Velocity:   0.30,
			Novelty:    0.25,
			Confidence: 0.20,
		},
		Thresholds: Thresholds{
			Extreme: 75,
			Strong:  55,
			Medium:  35,
		},
	}
}

// Scorer computes composite scores. Total over any numeric input: out-of-range
// dimensions are clamped, never rejected.
type Scorer struct {
	cfg Config
}

// NewScorer creates a Scorer; a zero-value config falls back to defaults.
func NewScorer(cfg Config) *Scorer {
	if cfg.Weights == (Weights{}) {
		cfg = DefaultConfig()
	}
	return &Scorer{cfg: cfg}
}

// Score clamps the raw dimensions to [0,100], computes the weighted composite
// and classifies strength. ZScore is left nil for the trend detector.
func (s *Scorer) Score(raw domain.RawSignal) domain.ScoredSignal {
	raw.Magnitude = clamp(raw.Magnitude, 0, 100)
	raw.Velocity = clamp(raw.Velocity, 0, 100)
	raw.Novelty = clamp(raw.Novelty, 0, 100)
	raw.Confidence = clamp(raw.Confidence, 0, 100)

	composite := raw.Magnitude*s.cfg.Weights.Magnitude +
		raw.Velocity*s.cfg.Weights.Velocity +
		raw.Novelty*s.cfg.Weights.Novelty +
		raw.Confidence*s.cfg.Weights.Confidence

	return domain.ScoredSignal{
		RawSignal:      raw,
		CompositeScore: composite,
		ZScore:         nil,
		Strength:       s.strength(composite),
	}
}

// ScoreBatch scores every signal and returns them sorted by composite score
// descending. The sort is stable: ties keep input order.
func (s *Scorer) ScoreBatch(raws []domain.RawSignal) []domain.ScoredSignal {
	scored := make([]domain.ScoredSignal, 0, len(raws))
	for _, raw := range raws {
		scored = append(scored, s.Score(raw))
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].CompositeScore > scored[j].CompositeScore
	})
	return scored
}

func (s *Scorer) strength(composite float64) domain.Strength {
	switch {
	case composite >= s.cfg.Thresholds.Extreme:
		return domain.StrengthExtreme
	case composite >= s.cfg.Thresholds.Strong:
		return domain.StrengthStrong
	case composite >= s.cfg.Thresholds.Medium:
		return domain.StrengthMedium
	default:
		return domain.StrengthWeak
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
