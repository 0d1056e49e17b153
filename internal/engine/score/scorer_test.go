package score

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solradar/radar/internal/domain"
)

func rawSignal(mag, vel, nov, conf float64) domain.RawSignal {
	return domain.RawSignal{
		Source:     domain.CategoryGitHub,
		Title:      "test",
		Magnitude:  mag,
		Velocity:   vel,
		Novelty:    nov,
		Confidence: conf,
		DetectedAt: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestScore_WeightedComposite(t *testing.T) {
	s := NewScorer(DefaultConfig())

	scored := s.Score(rawSignal(100, 100, 100, 100))
	assert.InDelta(t, 100.0, scored.CompositeScore, 1e-9)

	scored = s.Score(rawSignal(0, 0, 0, 0))
	assert.InDelta(t, 0.0, scored.CompositeScore, 1e-9)

	// 80*0.25 + 60*0.30 + 40*0.25 + 20*0.20 = 52
	scored = s.Score(rawSignal(80, 60, 40, 20))
	assert.InDelta(t, 52.0, scored.CompositeScore, 1e-9)
	assert.Nil(t, scored.ZScore)
}

func TestScore_BoundsAndMonotonicity(t *testing.T) {
	s := NewScorer(DefaultConfig())

	base := s.Score(rawSignal(50, 50, 50, 50)).CompositeScore
	assert.GreaterOrEqual(t, base, 0.0)
	assert.LessOrEqual(t, base, 100.0)

	// Raising any single dimension must not lower the composite.
	assert.GreaterOrEqual(t, s.Score(rawSignal(60, 50, 50, 50)).CompositeScore, base)
	assert.GreaterOrEqual(t, s.Score(rawSignal(50, 60, 50, 50)).CompositeScore, base)
	assert.GreaterOrEqual(t, s.Score(rawSignal(50, 50, 60, 50)).CompositeScore, base)
	assert.GreaterOrEqual(t, s.Score(rawSignal(50, 50, 50, 60)).CompositeScore, base)
}

func TestScore_ClampsOutOfRangeInput(t *testing.T) {
	s := NewScorer(DefaultConfig())

	scored := s.Score(rawSignal(250, -40, 100, 100))
	assert.Equal(t, 100.0, scored.Magnitude)
	assert.Equal(t, 0.0, scored.Velocity)
	assert.LessOrEqual(t, scored.CompositeScore, 100.0)
	assert.GreaterOrEqual(t, scored.CompositeScore, 0.0)
}

func TestScore_ClampingIdempotent(t *testing.T) {
	s := NewScorer(DefaultConfig())

	once := s.Score(rawSignal(70, 45, 88, 12))
	twice := s.Score(once.RawSignal)
	assert.Equal(t, once, twice)
}

func TestScore_StrengthThresholds(t *testing.T) {
	s := NewScorer(DefaultConfig())

	cases := []struct {
		composite float64
		want      domain.Strength
	}{
		{75, domain.StrengthExtreme},
		{74.999, domain.StrengthStrong},
		{55, domain.StrengthStrong},
		{54.999, domain.StrengthMedium},
		{35, domain.StrengthMedium},
		{34.999, domain.StrengthWeak},
		{0, domain.StrengthWeak},
	}
	for _, tc := range cases {
		// All four dimensions equal to x yields composite exactly x.
		scored := s.Score(rawSignal(tc.composite, tc.composite, tc.composite, tc.composite))
		require.InDelta(t, tc.composite, scored.CompositeScore, 1e-9)
		assert.Equal(t, tc.want, scored.Strength, "composite %.3f", tc.composite)
	}
}

func TestScoreBatch_SortedDescendingStable(t *testing.T) {
	s := NewScorer(DefaultConfig())

	raws := []domain.RawSignal{
		rawSignal(10, 10, 10, 10),
		rawSignal(90, 90, 90, 90),
		rawSignal(50, 50, 50, 50),
		rawSignal(50, 50, 50, 50),
	}
	raws[2].Title = "first-tie"
	raws[3].Title = "second-tie"

	scored := s.ScoreBatch(raws)
	require.Len(t, scored, 4)
	for i := 1; i < len(scored); i++ {
		assert.GreaterOrEqual(t, scored[i-1].CompositeScore, scored[i].CompositeScore)
	}
	// Ties broken by input order.
	assert.Equal(t, "first-tie", scored[1].Title)
	assert.Equal(t, "second-tie", scored[2].Title)
}
