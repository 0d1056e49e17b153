// Package correlate builds the cross-source entity view over an analysis
// window: which canonical entities are mentioned, from how many independent
// sources, how strongly and how tightly in time.
package correlate

import (
	"sort"

	"github.com/solradar/radar/internal/domain"
	"github.com/solradar/radar/internal/engine/entity"
)

// Config holds correlation minimums. The diversity/score bar encodes the
// system's evidentiary standard: a candidate must be corroborated across
// independently-operated sources, not just repeated within one.
type Config struct {
	MinMentions        int     `yaml:"min_mentions"`
	MinSourceDiversity int     `yaml:"min_source_diversity"`
	MinAverageScore    float64 `yaml:"min_average_score"`
}

// DefaultConfig returns production correlation parameters.
func DefaultConfig() Config {
	return Config{
		MinMentions:        2,
		MinSourceDiversity: 2,
		MinAverageScore:    40,
	}
}

// Correlator computes entity correlations. Pure over its input; safe for
// concurrent use.
type Correlator struct {
	cfg        Config
	normalizer *entity.Normalizer
}

// NewCorrelator creates a Correlator using the given entity normalizer.
func NewCorrelator(cfg Config, normalizer *entity.Normalizer) *Correlator {
	if cfg.MinMentions == 0 {
		cfg = DefaultConfig()
	}
	if normalizer == nil {
		normalizer = entity.NewNormalizer(entity.DefaultConfig())
	}
	return &Correlator{cfg: cfg, normalizer: normalizer}
}

// Correlate expands every signal's entities, inverts the index and computes
// per-entity source diversity, mention count, mean score and temporal density.
// Entities with fewer than MinMentions mentions are dropped. Output is sorted
// by source diversity descending, then average score descending; downstream
// candidate selection and ranking rely on that order.
func (c *Correlator) Correlate(signals []domain.ScoredSignal) []domain.EntityCorrelation {
	index := make(map[string][]domain.ScoredSignal)
	order := make([]string, 0)

	for _, s := range signals {
		for _, e := range c.normalizer.Expand(s.Entities) {
			if _, seen := index[e]; !seen {
				order = append(order, e)
			}
			index[e] = append(index[e], s)
		}
	}

	correlations := make([]domain.EntityCorrelation, 0, len(order))
	for _, e := range order {
		mentions := index[e]
		if len(mentions) < c.cfg.MinMentions {
			continue
		}
		correlations = append(correlations, c.summarize(e, mentions))
	}

	sort.SliceStable(correlations, func(i, j int) bool {
		if correlations[i].SourceDiversity != correlations[j].SourceDiversity {
			return correlations[i].SourceDiversity > correlations[j].SourceDiversity
		}
		return correlations[i].AverageScore > correlations[j].AverageScore
	})
	return correlations
}

// FindCandidates filters correlations down to narrative candidates: entities
// corroborated by at least MinSourceDiversity sources with an average score
// above MinAverageScore.
func (c *Correlator) FindCandidates(correlations []domain.EntityCorrelation) []domain.EntityCorrelation {
	candidates := make([]domain.EntityCorrelation, 0, len(correlations))
	for _, corr := range correlations {
		if corr.SourceDiversity >= c.cfg.MinSourceDiversity && corr.AverageScore > c.cfg.MinAverageScore {
			candidates = append(candidates, corr)
		}
	}
	return candidates
}

func (c *Correlator) summarize(name string, mentions []domain.ScoredSignal) domain.EntityCorrelation {
	seen := make(map[domain.Category]struct{})
	sources := make([]domain.Category, 0, 4)
	var scoreSum float64
	earliest, latest := mentions[0].DetectedAt, mentions[0].DetectedAt

	for _, s := range mentions {
		if _, ok := seen[s.Source]; !ok {
			seen[s.Source] = struct{}{}
			sources = append(sources, s.Source)
		}
		scoreSum += s.CompositeScore
		if s.DetectedAt.Before(earliest) {
			earliest = s.DetectedAt
		}
		if s.DetectedAt.After(latest) {
			latest = s.DetectedAt
		}
	}

	// Mentions per day over the span, floored at one day so a burst within
	// hours reads as dense, not infinite.
	spanDays := latest.Sub(earliest).Hours() / 24
	if spanDays < 1 {
		spanDays = 1
	}

	return domain.EntityCorrelation{
		Entity:          name,
		Sources:         sources,
		SourceDiversity: len(sources),
		TotalMentions:   len(mentions),
		AverageScore:    scoreSum / float64(len(mentions)),
		TemporalDensity: float64(len(mentions)) / spanDays,
		Signals:         mentions,
	}
}
