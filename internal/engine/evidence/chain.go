// Package evidence projects proto-narratives into the fixed, auditable
// evidence-chain structure and builds the deterministic fallback narrative
// used when the synthesis provider is unavailable.
package evidence

import (
	"fmt"
	"strings"

	"github.com/solradar/radar/internal/domain"
)

const (
	maxRawDataPoints    = 10
	maxSignalSummaries  = 10
	maxChainEntities    = 8
	maxFallbackTags     = 6
	maxTitleEntities    = 3
	maxSummaryEntities  = 5
	maxExplainEntities  = 8
)

// BuildChain projects a proto-narrative into its evidence chain. Pure and
// deterministic: same proto in, byte-identical chain out. Member signals are
// taken in their existing order, so callers pre-sort by desirability before
// handing the proto over; no re-sort happens here.
func BuildChain(proto domain.ProtoNarrative) domain.EvidenceChain {
	chain := domain.EvidenceChain{
		RawDataPoints: make([]domain.RawDataPoint, 0, maxRawDataPoints),
		ScoredSignals: make([]domain.SignalSummary, 0, maxSignalSummaries),
		Correlations:  make([]domain.CorrelationSummary, 0, maxChainEntities),
		ClusterInfo: domain.ClusterInfo{
			SignalCount:  len(proto.Signals),
			EntityCount:  len(proto.Entities),
			AverageScore: proto.AverageScore,
		},
	}

	for _, s := range head(proto.Signals, maxRawDataPoints) {
		chain.RawDataPoints = append(chain.RawDataPoints, domain.RawDataPoint{
			Source:    string(s.Source),
			Title:     s.Title,
			URL:       s.SourceURL,
			Timestamp: s.DetectedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			Value: fmt.Sprintf("Score: %.0f, Magnitude: %.0f, Velocity: %.0f",
				s.CompositeScore, s.Magnitude, s.Velocity),
		})
	}

	for _, s := range head(proto.Signals, maxSignalSummaries) {
		chain.ScoredSignals = append(chain.ScoredSignals, domain.SignalSummary{
			Title:          s.Title,
			CompositeScore: s.CompositeScore,
			Strength:       s.Strength,
		})
	}

	// Per-entity stats recomputed inside this cluster only. Narrower than
	// the global correlator on purpose: the chain explains this narrative's
	// members, not the whole window.
	for _, e := range head(proto.Entities, maxChainEntities) {
		chain.Correlations = append(chain.Correlations, clusterScopedSummary(e, proto.Signals))
	}

	return chain
}

func clusterScopedSummary(entityName string, signals []domain.ScoredSignal) domain.CorrelationSummary {
	sources := make(map[domain.Category]struct{})
	var scoreSum float64
	matched := 0

	for _, s := range signals {
		if !mentions(s, entityName) {
			continue
		}
		matched++
		sources[s.Source] = struct{}{}
		scoreSum += s.CompositeScore
	}

	summary := domain.CorrelationSummary{
		Entity:      entityName,
		SourceCount: len(sources),
	}
	if matched > 0 {
		summary.AverageScore = scoreSum / float64(matched)
	}
	return summary
}

// mentions reports whether the signal's raw entity list contains entityName,
// case-insensitively. Cluster entities are normalized while signal entities
// are raw, so an entity may match zero member signals; that yields a
// well-formed summary with averageScore 0.
func mentions(s domain.ScoredSignal, entityName string) bool {
	for _, e := range s.Entities {
		if strings.EqualFold(e, entityName) {
			return true
		}
	}
	return false
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
