package evidence

import (
	"fmt"
	"strings"

	"github.com/solradar/radar/internal/domain"
)

// FallbackNarrative builds the deterministic algorithmic narrative for a
// proto-narrative. This is the availability guarantee when the synthesis
// provider is down or rate-limited: same shape as a synthesized narrative,
// derived purely from the cluster itself.
func FallbackNarrative(proto domain.ProtoNarrative) domain.Narrative {
	top := head(proto.Entities, maxTitleEntities)

	confidence := proto.AverageScore * float64(proto.SourceDiversity) / 3
	if confidence > 100 {
		confidence = 100
	}
	if confidence < 0 {
		confidence = 0
	}

	return domain.Narrative{
		Title: "Emerging: " + strings.Join(top, ", "),
		Slug:  Slugify(strings.Join(top, "-")),
		Summary: fmt.Sprintf("Signal cluster around %s with %d correlated signals from %d sources.",
			strings.Join(head(proto.Entities, maxSummaryEntities), ", "),
			len(proto.Signals), proto.SourceDiversity),
		Explanation: fmt.Sprintf("This narrative was detected algorithmically from %d signals with an average score of %.1f/100. "+
			"Key entities include %s. The signals span %d distinct data sources, indicating cross-domain correlation.",
			len(proto.Signals), proto.AverageScore,
			strings.Join(head(proto.Entities, maxExplainEntities), ", "),
			proto.SourceDiversity),
		ConfidenceScore: confidence,
		Status:          domain.StatusEmerging,
		Tags:            head(proto.Tags, maxFallbackTags),
		EvidenceChain:   BuildChain(proto),
	}
}

// Slugify lower-cases s and collapses every non-alphanumeric run to a single
// hyphen, trimming leading and trailing hyphens.
func Slugify(s string) string {
	var b strings.Builder
	lastHyphen := true // swallow leading separators
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
