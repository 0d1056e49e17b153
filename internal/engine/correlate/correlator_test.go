package correlate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solradar/radar/internal/domain"
	"github.com/solradar/radar/internal/engine/entity"
)

var day0 = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

func signal(source domain.Category, score float64, detected time.Time, entities ...string) domain.ScoredSignal {
	return domain.ScoredSignal{
		RawSignal: domain.RawSignal{
			Source:     source,
			Title:      "t",
			Entities:   entities,
			DetectedAt: detected,
		},
		CompositeScore: score,
		Strength:       domain.StrengthMedium,
	}
}

func newCorrelator() *Correlator {
	return NewCorrelator(DefaultConfig(), entity.NewNormalizer(entity.DefaultConfig()))
}

func TestCorrelate_AliasVariantsConverge(t *testing.T) {
	c := newCorrelator()

	// Alias variants from two source categories all normalize to "jito";
	// the unrelated low scorer stays out of that entry.
	signals := []domain.ScoredSignal{
		signal(domain.CategoryGitHub, 60, day0, "jito-foundation"),
		signal(domain.CategoryGitHub, 60, day0.Add(6*time.Hour), "jito"),
		signal(domain.CategoryMarket, 60, day0.Add(12*time.Hour), "jto"),
		signal(domain.CategoryMarket, 60, day0.Add(18*time.Hour), "jito"),
		signal(domain.CategoryRSS, 20, day0, "unrelated-thing"),
	}

	correlations := c.Correlate(signals)
	require.NotEmpty(t, correlations)

	var jito *domain.EntityCorrelation
	for i := range correlations {
		if correlations[i].Entity == "jito" {
			jito = &correlations[i]
		}
	}
	require.NotNil(t, jito, "expected a jito correlation")
	assert.Equal(t, 2, jito.SourceDiversity)
	assert.Equal(t, 4, jito.TotalMentions)
	assert.InDelta(t, 60.0, jito.AverageScore, 1e-9)
	assert.Len(t, jito.Signals, 4)
}

func TestCorrelate_InvariantsHold(t *testing.T) {
	c := newCorrelator()

	signals := []domain.ScoredSignal{
		signal(domain.CategoryGitHub, 70, day0, "drift", "pyth"),
		signal(domain.CategoryDeFi, 50, day0, "drift"),
		signal(domain.CategoryMarket, 40, day0, "pyth"),
	}

	for _, corr := range c.Correlate(signals) {
		assert.Equal(t, len(corr.Sources), corr.SourceDiversity)
		assert.Equal(t, len(corr.Signals), corr.TotalMentions)
		assert.GreaterOrEqual(t, corr.TotalMentions, DefaultConfig().MinMentions)
	}
}

func TestCorrelate_MinMentionsFilter(t *testing.T) {
	c := newCorrelator()

	correlations := c.Correlate([]domain.ScoredSignal{
		signal(domain.CategoryGitHub, 80, day0, "lonely-entity"),
	})
	assert.Empty(t, correlations)
}

func TestCorrelate_OrderingContract(t *testing.T) {
	c := newCorrelator()

	signals := []domain.ScoredSignal{
		// "drift": 3 sources, avg 50
		signal(domain.CategoryGitHub, 50, day0, "drift"),
		signal(domain.CategoryDeFi, 50, day0, "drift"),
		signal(domain.CategoryMarket, 50, day0, "drift"),
		// "pyth": 2 sources, avg 90
		signal(domain.CategoryGitHub, 90, day0, "pyth"),
		signal(domain.CategoryMarket, 90, day0, "pyth"),
		// "orca": 2 sources, avg 30
		signal(domain.CategoryGitHub, 30, day0, "orca"),
		signal(domain.CategoryDeFi, 30, day0, "orca"),
	}

	out := c.Correlate(signals)
	require.Len(t, out, 3)
	assert.Equal(t, "drift", out[0].Entity)
	assert.Equal(t, "pyth", out[1].Entity)
	assert.Equal(t, "orca", out[2].Entity)

	for i := 1; i < len(out); i++ {
		a, b := out[i-1], out[i]
		ordered := a.SourceDiversity > b.SourceDiversity ||
			(a.SourceDiversity == b.SourceDiversity && a.AverageScore >= b.AverageScore)
		assert.True(t, ordered, "pair %d/%d out of order", i-1, i)
	}
}

func TestCorrelate_TemporalDensity(t *testing.T) {
	c := newCorrelator()

	// 4 mentions over 2 days => density 2/day.
	signals := []domain.ScoredSignal{
		signal(domain.CategoryGitHub, 50, day0, "kamino"),
		signal(domain.CategoryDeFi, 50, day0.Add(24*time.Hour), "kamino"),
		signal(domain.CategoryMarket, 50, day0.Add(36*time.Hour), "kamino"),
		signal(domain.CategoryRSS, 50, day0.Add(48*time.Hour), "kamino"),
	}
	out := c.Correlate(signals)
	require.Len(t, out, 1)
	assert.InDelta(t, 2.0, out[0].TemporalDensity, 1e-9)

	// Mentions within one hour use the one-day floor.
	burst := c.Correlate([]domain.ScoredSignal{
		signal(domain.CategoryGitHub, 50, day0, "orca"),
		signal(domain.CategoryDeFi, 50, day0.Add(time.Hour), "orca"),
	})
	require.Len(t, burst, 1)
	assert.InDelta(t, 2.0, burst[0].TemporalDensity, 1e-9)
}

func TestFindCandidates_Filter(t *testing.T) {
	c := newCorrelator()

	correlations := []domain.EntityCorrelation{
		{Entity: "a", SourceDiversity: 3, AverageScore: 70},
		{Entity: "b", SourceDiversity: 2, AverageScore: 40.0001},
		{Entity: "c", SourceDiversity: 2, AverageScore: 40}, // score not above the bar
		{Entity: "d", SourceDiversity: 1, AverageScore: 95}, // one source only
	}

	candidates := c.FindCandidates(correlations)
	require.Len(t, candidates, 2)
	assert.Equal(t, "a", candidates[0].Entity)
	assert.Equal(t, "b", candidates[1].Entity)
	for _, cand := range candidates {
		assert.GreaterOrEqual(t, cand.SourceDiversity, 2)
		assert.Greater(t, cand.AverageScore, 40.0)
	}
}
