package synth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/solradar/radar/internal/cache"
	"github.com/solradar/radar/internal/domain"
	"github.com/solradar/radar/internal/engine/evidence"
)

// Synthesizer names proto-narratives through the configured provider, or
// through the deterministic fallback when no provider is configured or the
// call fails. Provider failure is never fatal to an analysis run.
type Synthesizer struct {
	cfg      Config
	provider Provider
	cache    cache.Cache
}

// NewSynthesizer creates a Synthesizer. provider may be nil (fallback-only
// mode); c may be nil to disable response caching.
func NewSynthesizer(cfg Config, provider Provider, c cache.Cache) *Synthesizer {
	if cfg.MaxClusters == 0 {
		cfg = DefaultConfig()
	}
	return &Synthesizer{cfg: cfg, provider: provider, cache: c}
}

// synthesisResponse is the provider's reply shape, keyed by cluster index.
type synthesisResponse struct {
	Narratives []struct {
		ClusterIndex    int      `json:"clusterIndex"`
		Title           string   `json:"title"`
		Summary         string   `json:"summary"`
		Explanation     string   `json:"explanation"`
		ConfidenceScore float64  `json:"confidenceScore"`
		Status          string   `json:"status"`
		Tags            []string `json:"tags"`
	} `json:"narratives"`
}

// Synthesize returns narratives for the given proto-narratives, capped at
// MaxClusters. The second return reports whether the algorithmic fallback was
// used, so the caller can annotate the run with a warning.
func (s *Synthesizer) Synthesize(ctx context.Context, protos []domain.ProtoNarrative) ([]domain.Narrative, bool) {
	if len(protos) == 0 {
		return nil, false
	}
	if len(protos) > s.cfg.MaxClusters {
		protos = protos[:s.cfg.MaxClusters]
	}

	if s.provider == nil {
		return s.fallback(protos), true
	}

	resp, err := s.generate(ctx, protos)
	if err != nil {
		log.Warn().Err(err).Str("provider", s.provider.Name()).
			Msg("narrative synthesis failed, using algorithmic fallback")
		return s.fallback(protos), true
	}

	narratives := make([]domain.Narrative, 0, len(resp.Narratives))
	for _, n := range resp.Narratives {
		// Out-of-range indices and low-confidence clusters are dropped, not
		// errors: the provider declining a cluster is a valid outcome.
		if n.ClusterIndex < 0 || n.ClusterIndex >= len(protos) {
			continue
		}
		if n.ConfidenceScore < s.cfg.MinConfidence {
			continue
		}
		status := domain.NarrativeStatus(n.Status)
		if !domain.ValidStatus(status) {
			status = domain.StatusEmerging
		}
		narratives = append(narratives, domain.Narrative{
			Title:           n.Title,
			Slug:            evidence.Slugify(n.Title),
			Summary:         n.Summary,
			Explanation:     n.Explanation,
			ConfidenceScore: n.ConfidenceScore,
			Status:          status,
			Tags:            n.Tags,
			EvidenceChain:   evidence.BuildChain(protos[n.ClusterIndex]),
		})
	}
	return narratives, false
}

func (s *Synthesizer) generate(ctx context.Context, protos []domain.ProtoNarrative) (*synthesisResponse, error) {
	summaries := make([]clusterSummary, 0, len(protos))
	for _, p := range protos {
		summaries = append(summaries, summarize(p))
	}
	prompt := synthesisPrompt(summaries)

	var resp synthesisResponse
	key := s.cacheKey(prompt)
	if s.cache != nil {
		if raw, ok := s.cache.Get(key); ok {
			if err := json.Unmarshal(raw, &resp); err == nil {
				return &resp, nil
			}
		}
	}

	if err := s.provider.GenerateJSON(ctx, prompt, Options{
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	}, &resp); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(resp); err == nil {
			s.cache.Set(key, raw, time.Duration(s.cfg.CacheTTLHours)*time.Hour)
		}
	}
	return &resp, nil
}

func (s *Synthesizer) fallback(protos []domain.ProtoNarrative) []domain.Narrative {
	narratives := make([]domain.Narrative, 0, len(protos))
	for _, p := range protos {
		narratives = append(narratives, evidence.FallbackNarrative(p))
	}
	return narratives
}

func (s *Synthesizer) cacheKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return "synth:" + hex.EncodeToString(sum[:])
}
