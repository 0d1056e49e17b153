// Package domain holds the core data model shared by the radar engine:
// raw and scored signals, baseline points, correlations, proto-narratives
// and the narrative/evidence shapes handed to persistence and synthesis.
package domain

import "time"

// Category identifies which class of collector produced a signal.
type Category string

const (
	CategoryGitHub  Category = "github"
	CategoryOnchain Category = "onchain"
	CategoryDeFi    Category = "defi"
	CategoryMarket  Category = "market"
	CategorySocial  Category = "social"
	CategoryTwitter Category = "twitter"
	CategoryReddit  Category = "reddit"
	CategoryRSS     Category = "rss"
)

// Strength buckets a composite score into a discrete class. Trend detection
// may escalate it, never demote it.
type Strength string

const (
	StrengthWeak    Strength = "weak"
	StrengthMedium  Strength = "medium"
	StrengthStrong  Strength = "strong"
	StrengthExtreme Strength = "extreme"
)

// Rank orders strengths so escalation can be expressed as max(old, new).
func (s Strength) Rank() int {
	switch s {
	case StrengthExtreme:
		return 3
	case StrengthStrong:
		return 2
	case StrengthMedium:
		return 1
	default:
		return 0
	}
}

// Max returns the stronger of the two classifications.
func (s Strength) Max(other Strength) Strength {
	if other.Rank() > s.Rank() {
		return other
	}
	return s
}

// NarrativeStatus is the lifecycle stage assigned to a synthesized narrative.
type NarrativeStatus string

const (
	StatusEmerging  NarrativeStatus = "emerging"
	StatusActive    NarrativeStatus = "active"
	StatusDeclining NarrativeStatus = "declining"
)

// ValidStatus reports whether s is one of the known lifecycle stages.
func ValidStatus(s NarrativeStatus) bool {
	return s == StatusEmerging || s == StatusActive || s == StatusDeclining
}

// RawSignal is one atomic observation from a collector, before scoring.
// The four dimension scores are producer-supplied on a 0-100 scale and are
// clamped, never rejected, by the scorer. RawData is an opaque payload kept
// for audit; the engine never inspects it.
type RawSignal struct {
	Source      Category       `json:"source"`
	SourceURL   string         `json:"source_url,omitempty"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	RawData     map[string]any `json:"raw_data"`
	Tags        []string       `json:"tags"`
	Entities    []string       `json:"entities"`
	Magnitude   float64        `json:"magnitude"`
	Velocity    float64        `json:"velocity"`
	Novelty     float64        `json:"novelty"`
	Confidence  float64        `json:"confidence"`
	DetectedAt  time.Time      `json:"detected_at"`
}

// ScoredSignal is a RawSignal plus the composite score and classification.
// ZScore stays nil until trend detection has a usable baseline.
type ScoredSignal struct {
	RawSignal
	CompositeScore float64  `json:"composite_score"`
	ZScore         *float64 `json:"z_score"`
	Strength       Strength `json:"strength"`
}

// BaselinePoint is one append-only sample in the per-source metric history
// that trend detection reads its rolling baseline from.
type BaselinePoint struct {
	Source     Category  `json:"source" db:"source"`
	MetricName string    `json:"metric_name" db:"metric_name"`
	Value      float64   `json:"metric_value" db:"metric_value"`
	RecordedAt time.Time `json:"recorded_at" db:"recorded_at"`
}

// MetricCompositeScore and MetricSignalCount are the two baseline series
// written per source per collection run.
const (
	MetricCompositeScore = "composite_score"
	MetricSignalCount    = "signal_count"
)

// EntityCorrelation is the derived cross-source view of one canonical entity
// over the current analysis window. Recomputed fresh each run, never stored.
type EntityCorrelation struct {
	Entity          string         `json:"entity"`
	Sources         []Category     `json:"sources"`
	SourceDiversity int            `json:"source_diversity"`
	TotalMentions   int            `json:"total_mentions"`
	AverageScore    float64        `json:"average_score"`
	TemporalDensity float64        `json:"temporal_density"`
	Signals         []ScoredSignal `json:"-"`
}

// TimeSpan is the detection window covered by a cluster's member signals.
type TimeSpan struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ProtoNarrative is an algorithmically detected cluster of related signals,
// before any naming. Entities and tags are the normalized union over members.
type ProtoNarrative struct {
	ID              string         `json:"id"`
	Signals         []ScoredSignal `json:"signals"`
	Entities        []string       `json:"entities"`
	Tags            []string       `json:"tags"`
	AverageScore    float64        `json:"average_score"`
	SourceDiversity int            `json:"source_diversity"`
	TemporalSpan    TimeSpan       `json:"temporal_span"`
}

// RawDataPoint is one audit row in an evidence chain.
type RawDataPoint struct {
	Source    string `json:"source"`
	Title     string `json:"title"`
	URL       string `json:"url,omitempty"`
	Timestamp string `json:"timestamp"`
	Value     string `json:"value"`
}

// SignalSummary is the scored-signal line of an evidence chain.
type SignalSummary struct {
	Title          string   `json:"title"`
	CompositeScore float64  `json:"composite_score"`
	Strength       Strength `json:"strength"`
}

// CorrelationSummary is the cluster-scoped per-entity recomputation carried
// in an evidence chain. Narrower than EntityCorrelation on purpose: counts
// and scores are restricted to signals inside one cluster.
type CorrelationSummary struct {
	Entity       string  `json:"entity"`
	SourceCount  int     `json:"source_count"`
	AverageScore float64 `json:"average_score"`
}

// ClusterInfo aggregates a cluster for display.
type ClusterInfo struct {
	SignalCount  int     `json:"signal_count"`
	EntityCount  int     `json:"entity_count"`
	AverageScore float64 `json:"average_score"`
}

// EvidenceChain is the fixed-shape audit trail from a narrative back to its
// raw supporting signals. A pure projection of a ProtoNarrative; downstream
// presentation and storage consume it unchanged.
type EvidenceChain struct {
	RawDataPoints []RawDataPoint       `json:"raw_data_points"`
	ScoredSignals []SignalSummary      `json:"scored_signals"`
	Correlations  []CorrelationSummary `json:"correlations"`
	ClusterInfo   ClusterInfo          `json:"cluster_info"`
}

// Narrative is a proto-narrative enriched with a title, summary and
// explanation, either from the synthesis provider or from the deterministic
// fallback. Shape is part of the engine's contract either way.
type Narrative struct {
	Title           string          `json:"title"`
	Slug            string          `json:"slug"`
	Summary         string          `json:"summary"`
	Explanation     string          `json:"explanation"`
	ConfidenceScore float64         `json:"confidence_score"`
	Status          NarrativeStatus `json:"status"`
	Tags            []string        `json:"tags"`
	EvidenceChain   EvidenceChain   `json:"evidence_chain"`
}

// ProductIdea is one generated follow-on idea attached to a narrative.
// Feasibility and impact are clamped to [1,10].
type ProductIdea struct {
	Title             string  `json:"title"`
	Description       string  `json:"description"`
	TargetUser        string  `json:"target_user"`
	TechnicalApproach string  `json:"technical_approach"`
	Differentiation   string  `json:"differentiation"`
	FeasibilityScore  float64 `json:"feasibility_score"`
	ImpactScore       float64 `json:"impact_score"`
}

// CollectionRun records one collection job execution for audit.
type CollectionRun struct {
	ID               string    `json:"id" db:"id"`
	StartedAt        time.Time `json:"started_at" db:"started_at"`
	CompletedAt      time.Time `json:"completed_at" db:"completed_at"`
	Status           string    `json:"status" db:"status"`
	SignalsCollected int       `json:"signals_collected" db:"signals_collected"`
	SourcesQueried   []string  `json:"sources_queried" db:"sources_queried"`
	ErrorMessage     string    `json:"error_message,omitempty" db:"error_message"`
}
