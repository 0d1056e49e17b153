package synth

import (
	"fmt"
	"strings"

	"github.com/solradar/radar/internal/domain"
)

// clusterSummary is the bounded, serializable view of one proto-narrative
// sent to the provider: top entities/tags, aggregates and short per-signal
// evidence lines, never the full raw payloads.
type clusterSummary struct {
	Entities        []string `json:"entities"`
	Tags            []string `json:"tags"`
	AverageScore    float64  `json:"average_score"`
	SourceDiversity int      `json:"source_diversity"`
	SignalSummaries []string `json:"signal_summaries"`
}

const (
	maxSummaryEntities = 10
	maxSummaryTags     = 10
	maxSummarySignals  = 8
)

func summarize(proto domain.ProtoNarrative) clusterSummary {
	summaries := make([]string, 0, maxSummarySignals)
	for i, s := range proto.Signals {
		if i == maxSummarySignals {
			break
		}
		summaries = append(summaries, fmt.Sprintf("[%s] %s (score: %.0f, strength: %s)",
			s.Source, s.Title, s.CompositeScore, s.Strength))
	}
	return clusterSummary{
		Entities:        headStrings(proto.Entities, maxSummaryEntities),
		Tags:            headStrings(proto.Tags, maxSummaryTags),
		AverageScore:    proto.AverageScore,
		SourceDiversity: proto.SourceDiversity,
		SignalSummaries: summaries,
	}
}

func synthesisPrompt(summaries []clusterSummary) string {
	var b strings.Builder
	b.WriteString(`You are an expert analyst of the Solana blockchain ecosystem. Analyze these algorithmically-detected signal clusters and synthesize them into coherent narratives.

Each cluster was detected through z-score anomaly detection and cross-source correlation. These are statistically significant patterns, not just keyword matches.

CLUSTERS:
`)
	for i, s := range summaries {
		fmt.Fprintf(&b, "\nCluster %d:\n", i+1)
		fmt.Fprintf(&b, "- Key Entities: %s\n", strings.Join(s.Entities, ", "))
		fmt.Fprintf(&b, "- Tags: %s\n", strings.Join(s.Tags, ", "))
		fmt.Fprintf(&b, "- Average Signal Score: %.1f/100\n", s.AverageScore)
		fmt.Fprintf(&b, "- Source Diversity: %d distinct sources\n", s.SourceDiversity)
		b.WriteString("- Signal Evidence:\n")
		for _, line := range s.SignalSummaries {
			fmt.Fprintf(&b, "  * %s\n", line)
		}
		b.WriteString("---\n")
	}

	b.WriteString(`
For each cluster, provide:
{
  "narratives": [
    {
      "clusterIndex": 0,
      "title": "Short, memorable narrative title (5-8 words)",
      "summary": "One-sentence summary of the narrative",
      "explanation": "2-3 paragraph detailed explanation of what's happening, why it matters for the Solana ecosystem, and what it signals about future development. Reference specific data points from the evidence.",
      "confidenceScore": 0-100,
      "status": "emerging|active|declining",
      "tags": ["tag1", "tag2"]
    }
  ]
}

RULES:
- Only synthesize narratives where the evidence genuinely supports a coherent trend
- Confidence score should reflect how strong the evidence is
- If a cluster doesn't form a coherent narrative, set confidenceScore below 30
- Be specific: reference actual protocols, programs, and ecosystem dynamics
- Distinguish between genuinely emerging trends vs. known ongoing developments`)
	return b.String()
}

func ideasPrompt(narratives []ideaInput) string {
	var b strings.Builder
	b.WriteString(`You are a senior product strategist and technical architect specializing in the Solana ecosystem. For each detected narrative below, generate one concrete, highly specific product idea.

NARRATIVES:
`)
	for _, n := range narratives {
		fmt.Fprintf(&b, "\nNarrative %d: %s\n", n.Index, n.Title)
		fmt.Fprintf(&b, "SUMMARY: %s\n", n.Summary)
		fmt.Fprintf(&b, "EXPLANATION: %s\n", n.Explanation)
		fmt.Fprintf(&b, "TAGS: %s\n", strings.Join(n.Tags, ", "))
		b.WriteString("SIGNAL EVIDENCE:\n")
		for _, line := range n.SignalEvidence {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}

	b.WriteString(`
Respond with:
{
  "ideas": [
    {
      "narrativeIndex": 0,
      "title": "Product name",
      "description": "What it does and why it wins",
      "targetUser": "Who pays for or uses it",
      "technicalApproach": "Concrete programs, SDKs and data sources to build on",
      "differentiation": "Why this beats existing options",
      "feasibilityScore": 1-10,
      "impactScore": 1-10
    }
  ]
}`)
	return b.String()
}

func headStrings(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
