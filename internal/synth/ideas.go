package synth

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/solradar/radar/internal/domain"
)

// ideaInput is one narrative handed to the idea prompt, keyed by index so the
// batched response maps back unambiguously.
type ideaInput struct {
	Index          int
	Title          string
	Summary        string
	Explanation    string
	Tags           []string
	SignalEvidence []string
}

type ideasResponse struct {
	Ideas []struct {
		NarrativeIndex    int     `json:"narrativeIndex"`
		Title             string  `json:"title"`
		Description       string  `json:"description"`
		TargetUser        string  `json:"targetUser"`
		TechnicalApproach string  `json:"technicalApproach"`
		Differentiation   string  `json:"differentiation"`
		FeasibilityScore  float64 `json:"feasibilityScore"`
		ImpactScore       float64 `json:"impactScore"`
	} `json:"ideas"`
}

// GenerateIdeas produces one product idea per narrative in a single batched
// provider call, keyed by narrative index. On provider failure every
// narrative gets the deterministic fallback idea instead; idea failures are
// isolated from the narratives themselves.
func (s *Synthesizer) GenerateIdeas(ctx context.Context, narratives []domain.Narrative) map[int]domain.ProductIdea {
	ideas := make(map[int]domain.ProductIdea, len(narratives))
	if len(narratives) == 0 {
		return ideas
	}

	if s.provider == nil {
		for i, n := range narratives {
			ideas[i] = fallbackIdea(n)
		}
		return ideas
	}

	inputs := make([]ideaInput, 0, len(narratives))
	for i, n := range narratives {
		evidenceLines := make([]string, 0, maxSummarySignals)
		for j, dp := range n.EvidenceChain.RawDataPoints {
			if j == maxSummarySignals {
				break
			}
			evidenceLines = append(evidenceLines, fmt.Sprintf("[%s] %s", dp.Source, dp.Title))
		}
		inputs = append(inputs, ideaInput{
			Index:          i,
			Title:          n.Title,
			Summary:        n.Summary,
			Explanation:    n.Explanation,
			Tags:           n.Tags,
			SignalEvidence: evidenceLines,
		})
	}

	var resp ideasResponse
	err := s.provider.GenerateJSON(ctx, ideasPrompt(inputs), Options{
		Temperature: 0.7,
		MaxTokens:   8000,
	}, &resp)
	if err != nil {
		log.Warn().Err(err).Msg("idea generation failed, using fallback ideas")
		for i, n := range narratives {
			ideas[i] = fallbackIdea(n)
		}
		return ideas
	}

	for _, idea := range resp.Ideas {
		if idea.NarrativeIndex < 0 || idea.NarrativeIndex >= len(narratives) {
			continue
		}
		ideas[idea.NarrativeIndex] = domain.ProductIdea{
			Title:             idea.Title,
			Description:       idea.Description,
			TargetUser:        idea.TargetUser,
			TechnicalApproach: idea.TechnicalApproach,
			Differentiation:   idea.Differentiation,
			FeasibilityScore:  clampScore(idea.FeasibilityScore),
			ImpactScore:       clampScore(idea.ImpactScore),
		}
	}
	return ideas
}

func fallbackIdea(n domain.Narrative) domain.ProductIdea {
	return domain.ProductIdea{
		Title:             n.Title + " - Builder Tool",
		Description:       fmt.Sprintf("A tool leveraging the %q trend to provide value to the Solana ecosystem.", n.Title),
		TargetUser:        "Solana developers and power users",
		TechnicalApproach: "Build on existing Solana programs and SDKs",
		Differentiation:   "First-mover advantage in this emerging narrative",
		FeasibilityScore:  6,
		ImpactScore:       6,
	}
}

func clampScore(v float64) float64 {
	if v < 1 {
		return 1
	}
	if v > 10 {
		return 10
	}
	return v
}
