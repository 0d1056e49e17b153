package synth

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solradar/radar/internal/cache"
	"github.com/solradar/radar/internal/domain"
)

// fakeProvider returns a canned JSON document or an error.
type fakeProvider struct {
	response string
	err      error
	calls    int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) GenerateJSON(_ context.Context, _ string, _ Options, out any) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.response), out)
}

func proto(entities []string, avgScore float64, diversity int) domain.ProtoNarrative {
	signals := make([]domain.ScoredSignal, 2)
	for i := range signals {
		signals[i] = domain.ScoredSignal{
			RawSignal: domain.RawSignal{
				Source:     domain.CategoryGitHub,
				Title:      "evidence",
				Entities:   entities,
				DetectedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			},
			CompositeScore: avgScore,
			Strength:       domain.StrengthStrong,
		}
	}
	return domain.ProtoNarrative{
		ID:              "proto-0",
		Signals:         signals,
		Entities:        entities,
		Tags:            []string{"mev"},
		AverageScore:    avgScore,
		SourceDiversity: diversity,
	}
}

func TestSynthesize_ProviderPath(t *testing.T) {
	provider := &fakeProvider{response: `{"narratives":[
		{"clusterIndex":0,"title":"Jito MEV Season","summary":"s","explanation":"e","confidenceScore":72,"status":"active","tags":["mev"]},
		{"clusterIndex":1,"title":"Low Conviction","summary":"s","explanation":"e","confidenceScore":10,"status":"emerging","tags":[]},
		{"clusterIndex":9,"title":"Ghost Cluster","summary":"s","explanation":"e","confidenceScore":90,"status":"active","tags":[]}
	]}`}
	s := NewSynthesizer(DefaultConfig(), provider, nil)

	protos := []domain.ProtoNarrative{
		proto([]string{"jito"}, 70, 2),
		proto([]string{"orca"}, 50, 2),
	}
	narratives, fellBack := s.Synthesize(context.Background(), protos)

	assert.False(t, fellBack)
	// Low-confidence and out-of-range clusterIndex entries dropped silently.
	require.Len(t, narratives, 1)
	assert.Equal(t, "Jito MEV Season", narratives[0].Title)
	assert.Equal(t, "jito-mev-season", narratives[0].Slug)
	assert.Equal(t, domain.StatusActive, narratives[0].Status)
	assert.Equal(t, 2, narratives[0].EvidenceChain.ClusterInfo.SignalCount)
}

func TestSynthesize_InvalidStatusDefaultsToEmerging(t *testing.T) {
	provider := &fakeProvider{response: `{"narratives":[
		{"clusterIndex":0,"title":"T","summary":"s","explanation":"e","confidenceScore":60,"status":"exploding","tags":[]}
	]}`}
	s := NewSynthesizer(DefaultConfig(), provider, nil)

	narratives, _ := s.Synthesize(context.Background(), []domain.ProtoNarrative{proto([]string{"jito"}, 70, 2)})
	require.Len(t, narratives, 1)
	assert.Equal(t, domain.StatusEmerging, narratives[0].Status)
}

func TestSynthesize_ProviderFailureFallsBack(t *testing.T) {
	provider := &fakeProvider{err: errors.New("429 rate limit exceeded")}
	s := NewSynthesizer(DefaultConfig(), provider, nil)

	protos := []domain.ProtoNarrative{proto([]string{"jito", "mev-infra"}, 80, 3)}
	narratives, fellBack := s.Synthesize(context.Background(), protos)

	assert.True(t, fellBack)
	require.Len(t, narratives, 1)
	assert.Equal(t, "Emerging: jito, mev-infra", narratives[0].Title)
	assert.InDelta(t, 80.0, narratives[0].ConfidenceScore, 1e-9)
	assert.Equal(t, domain.StatusEmerging, narratives[0].Status)
}

func TestSynthesize_NoProviderIsFallbackOnly(t *testing.T) {
	s := NewSynthesizer(DefaultConfig(), nil, nil)

	narratives, fellBack := s.Synthesize(context.Background(), []domain.ProtoNarrative{proto([]string{"jito"}, 60, 2)})
	assert.True(t, fellBack)
	require.Len(t, narratives, 1)
	assert.NotEmpty(t, narratives[0].Title)
	assert.NotEmpty(t, narratives[0].EvidenceChain.RawDataPoints)
}

func TestSynthesize_MaxClustersCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxClusters = 2
	s := NewSynthesizer(cfg, nil, nil)

	protos := []domain.ProtoNarrative{
		proto([]string{"a1"}, 60, 2),
		proto([]string{"a2"}, 60, 2),
		proto([]string{"a3"}, 60, 2),
	}
	narratives, _ := s.Synthesize(context.Background(), protos)
	assert.Len(t, narratives, 2)
}

func TestSynthesize_CachesProviderResponse(t *testing.T) {
	provider := &fakeProvider{response: `{"narratives":[
		{"clusterIndex":0,"title":"T","summary":"s","explanation":"e","confidenceScore":60,"status":"active","tags":[]}
	]}`}
	s := NewSynthesizer(DefaultConfig(), provider, cache.NewMemory())

	protos := []domain.ProtoNarrative{proto([]string{"jito"}, 70, 2)}
	s.Synthesize(context.Background(), protos)
	s.Synthesize(context.Background(), protos)

	assert.Equal(t, 1, provider.calls, "identical cluster set should hit the cache")
}

func TestGenerateIdeas_BatchMapping(t *testing.T) {
	provider := &fakeProvider{response: `{"ideas":[
		{"narrativeIndex":0,"title":"Idea A","description":"d","targetUser":"u","technicalApproach":"t","differentiation":"x","feasibilityScore":15,"impactScore":0},
		{"narrativeIndex":5,"title":"Dropped","description":"d","targetUser":"u","technicalApproach":"t","differentiation":"x","feasibilityScore":5,"impactScore":5}
	]}`}
	s := NewSynthesizer(DefaultConfig(), provider, nil)

	narratives := []domain.Narrative{{Title: "N0"}, {Title: "N1"}}
	ideas := s.GenerateIdeas(context.Background(), narratives)

	require.Contains(t, ideas, 0)
	assert.NotContains(t, ideas, 5)
	// Scores clamped into [1,10].
	assert.Equal(t, 10.0, ideas[0].FeasibilityScore)
	assert.Equal(t, 1.0, ideas[0].ImpactScore)
}

func TestGenerateIdeas_FailureYieldsFallbackPerNarrative(t *testing.T) {
	provider := &fakeProvider{err: errors.New("quota exceeded")}
	s := NewSynthesizer(DefaultConfig(), provider, nil)

	narratives := []domain.Narrative{{Title: "Jito MEV Season"}, {Title: "DePIN Summer"}}
	ideas := s.GenerateIdeas(context.Background(), narratives)

	require.Len(t, ideas, 2)
	assert.Equal(t, "Jito MEV Season - Builder Tool", ideas[0].Title)
	assert.Equal(t, 6.0, ideas[1].FeasibilityScore)
}

func TestExtractJSON_ToleratesFencesAndProse(t *testing.T) {
	direct, err := extractJSON(`{"a":1}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(direct))

	fenced, err := extractJSON("```json\n{\"a\":1}\n```")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(fenced))

	embedded, err := extractJSON(`Here is the result: {"a":1} hope it helps`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(embedded))

	_, err = extractJSON("no json here")
	assert.Error(t, err)
}
