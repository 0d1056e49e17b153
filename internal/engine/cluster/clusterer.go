// Package cluster agglomerates high-scoring signals into proto-narratives by
// Jaccard similarity over normalized entity and tag sets, with a cross-source
// bonus and a merge pass. Deterministic: no randomness, and candidates are
// sorted by composite score before the greedy pass so results do not depend
// on input order.
package cluster

import (
	"fmt"
	"sort"
	"strings"

	"github.com/solradar/radar/internal/domain"
	"github.com/solradar/radar/internal/engine/entity"
)

// Config holds the clustering knobs. InitialThreshold, CrossSourceBonus and
// MergeThreshold are tuned together; they are the main levers for narrative
// granularity.
type Config struct {
	// MinSignalScore gates which signals enter clustering at all.
	MinSignalScore float64 `yaml:"min_signal_score"`
	// InitialThreshold is the bonus-adjusted similarity a signal must reach
	// to join an existing cluster instead of seeding a new one.
	InitialThreshold float64 `yaml:"initial_threshold"`
	// CrossSourceBonus is added to a cluster's similarity when the candidate
	// signal's source is not yet represented in that cluster, biasing
	// assignment toward clusters the signal diversifies.
	CrossSourceBonus float64 `yaml:"cross_source_bonus"`
	// MergeThreshold is the entity-only similarity above which two clusters
	// are merged in the second pass.
	MergeThreshold float64 `yaml:"merge_threshold"`
	// MinClusterSize drops clusters with fewer member signals.
	MinClusterSize int `yaml:"min_cluster_size"`
	// MaxProtoNarratives truncates the ranked result set.
	MaxProtoNarratives int `yaml:"max_proto_narratives"`
	// GenericEntities are too broad to discriminate between narratives and
	// are excluded from similarity sets.
	GenericEntities []string `yaml:"generic_entities"`
}

// DefaultConfig returns production clustering parameters.
func DefaultConfig() Config {
	return Config{
		MinSignalScore:     30,
		InitialThreshold:   0.12,
		CrossSourceBonus:   0.08,
		MergeThreshold:     0.25,
		MinClusterSize:     2,
		MaxProtoNarratives: 15,
		GenericEntities:    []string{"solana", "defi", "sol", "crypto", "blockchain", "token", "nft"},
	}
}

// Clusterer groups signals into proto-narratives.
type Clusterer struct {
	cfg        Config
	generic    stringSet
	normalizer *entity.Normalizer
}

// NewClusterer creates a Clusterer using the given entity normalizer.
func NewClusterer(cfg Config, normalizer *entity.Normalizer) *Clusterer {
	if cfg.MinClusterSize == 0 {
		cfg = DefaultConfig()
	}
	if normalizer == nil {
		normalizer = entity.NewNormalizer(entity.DefaultConfig())
	}
	return &Clusterer{
		cfg:        cfg,
		generic:    newSet(cfg.GenericEntities...),
		normalizer: normalizer,
	}
}

type protoCluster struct {
	signals  []domain.ScoredSignal
	entities stringSet
	tags     stringSet
}

// Cluster runs the agglomerative pass over signals scoring above
// MinSignalScore, merges overlapping clusters, drops those below
// MinClusterSize and returns proto-narratives ranked by source diversity then
// average score, truncated to MaxProtoNarratives. An empty result is a valid
// "nothing interesting yet" outcome.
func (c *Clusterer) Cluster(signals []domain.ScoredSignal) []domain.ProtoNarrative {
	candidates := make([]domain.ScoredSignal, 0, len(signals))
	for _, s := range signals {
		if s.CompositeScore > c.cfg.MinSignalScore {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	// The greedy pass is order-dependent; sorting by score descending (ties
	// by input order) makes the outcome a function of the signal set alone.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CompositeScore > candidates[j].CompositeScore
	})

	clusters := c.assign(candidates)
	clusters = c.merge(clusters)

	return c.rank(clusters)
}

// assign is the greedy single pass: each signal joins the cluster with the
// highest bonus-adjusted similarity above InitialThreshold, or seeds a new
// singleton cluster.
func (c *Clusterer) assign(candidates []domain.ScoredSignal) []*protoCluster {
	var clusters []*protoCluster

	for _, s := range candidates {
		entities := c.signalEntities(s)
		tags := c.signalTags(s)
		combined := entities.union(tags)

		bestIdx := -1
		bestSimilarity := 0.0

		for i, cl := range clusters {
			similarity := jaccard(combined, cl.entities.union(cl.tags))
			if !cl.hasSource(s.Source) {
				similarity += c.cfg.CrossSourceBonus
			}
			if similarity > bestSimilarity && similarity > c.cfg.InitialThreshold {
				bestSimilarity = similarity
				bestIdx = i
			}
		}

		if bestIdx >= 0 {
			cl := clusters[bestIdx]
			cl.signals = append(cl.signals, s)
			cl.entities.addAll(entities)
			cl.tags.addAll(tags)
		} else {
			clusters = append(clusters, &protoCluster{
				signals:  []domain.ScoredSignal{s},
				entities: entities,
				tags:     tags,
			})
		}
	}
	return clusters
}

// merge repeatedly folds together cluster pairs whose entity-only similarity
// (no tags, no bonus) exceeds MergeThreshold, rescanning after every merge
// because indices shift.
func (c *Clusterer) merge(clusters []*protoCluster) []*protoCluster {
	merged := true
	for merged {
		merged = false
		for i := 0; i < len(clusters) && !merged; i++ {
			for j := i + 1; j < len(clusters); j++ {
				if jaccard(clusters[i].entities, clusters[j].entities) <= c.cfg.MergeThreshold {
					continue
				}
				clusters[i].signals = append(clusters[i].signals, clusters[j].signals...)
				clusters[i].entities.addAll(clusters[j].entities)
				clusters[i].tags.addAll(clusters[j].tags)
				clusters = append(clusters[:j], clusters[j+1:]...)
				merged = true
				break
			}
		}
	}
	return clusters
}

func (c *Clusterer) rank(clusters []*protoCluster) []domain.ProtoNarrative {
	protos := make([]domain.ProtoNarrative, 0, len(clusters))
	for _, cl := range clusters {
		if len(cl.signals) < c.cfg.MinClusterSize {
			continue
		}
		protos = append(protos, c.toProto(cl))
	}

	sort.SliceStable(protos, func(i, j int) bool {
		if protos[i].SourceDiversity != protos[j].SourceDiversity {
			return protos[i].SourceDiversity > protos[j].SourceDiversity
		}
		return protos[i].AverageScore > protos[j].AverageScore
	})

	if len(protos) > c.cfg.MaxProtoNarratives {
		protos = protos[:c.cfg.MaxProtoNarratives]
	}
	for i := range protos {
		protos[i].ID = fmt.Sprintf("proto-%d", i)
	}
	return protos
}

func (c *Clusterer) toProto(cl *protoCluster) domain.ProtoNarrative {
	seen := make(map[domain.Category]struct{})
	var scoreSum float64
	span := domain.TimeSpan{Start: cl.signals[0].DetectedAt, End: cl.signals[0].DetectedAt}

	for _, s := range cl.signals {
		seen[s.Source] = struct{}{}
		scoreSum += s.CompositeScore
		if s.DetectedAt.Before(span.Start) {
			span.Start = s.DetectedAt
		}
		if s.DetectedAt.After(span.End) {
			span.End = s.DetectedAt
		}
	}

	return domain.ProtoNarrative{
		Signals:         cl.signals,
		Entities:        sortedSlice(cl.entities),
		Tags:            sortedSlice(cl.tags),
		AverageScore:    scoreSum / float64(len(cl.signals)),
		SourceDiversity: len(seen),
		TemporalSpan:    span,
	}
}

func (c *Clusterer) signalEntities(s domain.ScoredSignal) stringSet {
	entities := make(stringSet)
	for _, e := range c.normalizer.Expand(s.Entities) {
		if _, generic := c.generic[e]; generic {
			continue
		}
		entities.add(e)
	}
	return entities
}

func (c *Clusterer) signalTags(s domain.ScoredSignal) stringSet {
	tags := make(stringSet)
	for _, t := range s.Tags {
		if lower := strings.ToLower(strings.TrimSpace(t)); lower != "" {
			tags.add(lower)
		}
	}
	return tags
}

func (cl *protoCluster) hasSource(source domain.Category) bool {
	for _, s := range cl.signals {
		if s.Source == source {
			return true
		}
	}
	return false
}

func sortedSlice(s stringSet) []string {
	out := make([]string, 0, len(s))
	for item := range s {
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}
