package cluster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solradar/radar/internal/domain"
	"github.com/solradar/radar/internal/engine/entity"
)

var day0 = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

func signal(source domain.Category, score float64, entities []string, tags []string) domain.ScoredSignal {
	return domain.ScoredSignal{
		RawSignal: domain.RawSignal{
			Source:     source,
			Title:      "t",
			Entities:   entities,
			Tags:       tags,
			DetectedAt: day0,
		},
		CompositeScore: score,
		Strength:       domain.StrengthMedium,
	}
}

func newClusterer() *Clusterer {
	return NewClusterer(DefaultConfig(), entity.NewNormalizer(entity.DefaultConfig()))
}

func TestCluster_EmptyWhenNothingQualifies(t *testing.T) {
	c := newClusterer()

	out := c.Cluster([]domain.ScoredSignal{
		signal(domain.CategoryGitHub, 10, []string{"jito"}, nil),
		signal(domain.CategoryMarket, 30, []string{"jito"}, nil), // not strictly above 30
	})
	assert.Empty(t, out)

	assert.Empty(t, c.Cluster(nil))
}

func TestCluster_AliasVariantsFormOneNarrative(t *testing.T) {
	c := newClusterer()

	// 4 qualifying signals around jito from two sources, one unrelated low
	// scorer. Exactly one proto-narrative with the 4 qualifying members.
	signals := []domain.ScoredSignal{
		signal(domain.CategoryGitHub, 60, []string{"jito-foundation"}, []string{"mev"}),
		signal(domain.CategoryGitHub, 60, []string{"jito"}, []string{"mev"}),
		signal(domain.CategoryMarket, 60, []string{"jto"}, []string{"mev"}),
		signal(domain.CategoryMarket, 60, []string{"jito"}, []string{"staking"}),
		signal(domain.CategoryRSS, 20, []string{"unrelated"}, nil),
	}

	out := c.Cluster(signals)
	require.Len(t, out, 1)
	assert.Len(t, out[0].Signals, 4)
	assert.Equal(t, 2, out[0].SourceDiversity)
	assert.InDelta(t, 60.0, out[0].AverageScore, 1e-9)
	assert.Contains(t, out[0].Entities, "jito")
}

func TestCluster_MinimumSizeInvariant(t *testing.T) {
	c := newClusterer()

	signals := []domain.ScoredSignal{
		signal(domain.CategoryGitHub, 80, []string{"jito"}, []string{"mev"}),
		signal(domain.CategoryMarket, 75, []string{"jito"}, []string{"mev"}),
		// Unrelated singleton: must be dropped, not emitted as a 1-cluster.
		signal(domain.CategoryRSS, 70, []string{"helium"}, []string{"depin"}),
	}

	out := c.Cluster(signals)
	for _, proto := range out {
		assert.GreaterOrEqual(t, len(proto.Signals), DefaultConfig().MinClusterSize)
	}
	require.Len(t, out, 1)
}

func TestCluster_GenericEntitiesNotDiscriminative(t *testing.T) {
	c := newClusterer()

	// "solana" is on the generic denylist; sharing only it must not glue
	// unrelated signals together.
	signals := []domain.ScoredSignal{
		signal(domain.CategoryGitHub, 80, []string{"solana", "jito"}, nil),
		signal(domain.CategoryMarket, 75, []string{"solana", "jito"}, nil),
		signal(domain.CategoryDeFi, 70, []string{"solana", "helium"}, nil),
		signal(domain.CategoryRSS, 65, []string{"solana", "helium"}, nil),
	}

	out := c.Cluster(signals)
	require.Len(t, out, 2)
	for _, proto := range out {
		assert.NotContains(t, proto.Entities, "solana")
		assert.Len(t, proto.Signals, 2)
	}
}

func TestCluster_MergePassJoinsOverlappingClusters(t *testing.T) {
	cfg := DefaultConfig()
	// Disable the bonus so the initial pass keeps the two pairs apart even
	// across sources; only the entity-only merge pass can join them.
	cfg.CrossSourceBonus = 0
	c := NewClusterer(cfg, entity.NewNormalizer(entity.DefaultConfig()))

	signals := []domain.ScoredSignal{
		signal(domain.CategoryGitHub, 90, []string{"jito", "mev-infra"}, []string{"alpha", "validators", "tips"}),
		signal(domain.CategoryGitHub, 85, []string{"jito", "mev-infra"}, []string{"alpha", "validators", "tips"}),
		signal(domain.CategoryMarket, 80, []string{"jito", "restaking-x"}, []string{"beta", "points", "airdrop"}),
		signal(domain.CategoryMarket, 75, []string{"jito", "restaking-x"}, []string{"beta", "points", "airdrop"}),
	}

	out := c.Cluster(signals)
	// Initial pass: combined-set similarity across the pairs is 1/9, below
	// the 0.12 threshold, so two clusters form. Merge pass: entity-only
	// overlap {jito} / {jito, mev-infra, restaking-x} = 1/3 > 0.25.
	require.Len(t, out, 1)
	assert.Len(t, out[0].Signals, 4)
	assert.Equal(t, 2, out[0].SourceDiversity)
}

func TestCluster_RankAndTruncate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxProtoNarratives = 2
	c := NewClusterer(cfg, entity.NewNormalizer(entity.DefaultConfig()))

	mk := func(name string, sources []domain.Category, score float64) []domain.ScoredSignal {
		out := make([]domain.ScoredSignal, 0, len(sources))
		for _, src := range sources {
			out = append(out, signal(src, score, []string{name}, nil))
		}
		return out
	}

	var signals []domain.ScoredSignal
	signals = append(signals, mk("alpha-proto", []domain.Category{domain.CategoryGitHub, domain.CategoryMarket, domain.CategoryDeFi}, 50)...)
	signals = append(signals, mk("beta-proto", []domain.Category{domain.CategoryGitHub, domain.CategoryMarket}, 90)...)
	signals = append(signals, mk("gamma-proto", []domain.Category{domain.CategoryGitHub, domain.CategoryMarket}, 40)...)

	out := c.Cluster(signals)
	require.Len(t, out, 2, "truncated to max proto narratives")
	assert.Equal(t, 3, out[0].SourceDiversity, "diversity outranks score")
	assert.InDelta(t, 90.0, out[1].AverageScore, 1e-9)
	assert.Equal(t, "proto-0", out[0].ID)
	assert.Equal(t, "proto-1", out[1].ID)
}

func TestCluster_OrderIndependent(t *testing.T) {
	c := newClusterer()

	signals := []domain.ScoredSignal{
		signal(domain.CategoryGitHub, 61, []string{"jito"}, []string{"mev"}),
		signal(domain.CategoryMarket, 55, []string{"jito"}, []string{"mev"}),
		signal(domain.CategoryDeFi, 72, []string{"helium"}, []string{"depin"}),
		signal(domain.CategoryRSS, 48, []string{"helium"}, []string{"depin"}),
	}
	reversed := make([]domain.ScoredSignal, len(signals))
	for i, s := range signals {
		reversed[len(signals)-1-i] = s
	}

	a := c.Cluster(signals)
	b := c.Cluster(reversed)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Entities, b[i].Entities)
		assert.Equal(t, a[i].AverageScore, b[i].AverageScore)
		assert.Equal(t, len(a[i].Signals), len(b[i].Signals))
	}
}

func TestCluster_NoEntitySignalsStayApart(t *testing.T) {
	c := newClusterer()

	// Entity-less, tag-less signals have empty combined sets; Jaccard 0
	// against everything, so each seeds its own dropped singleton.
	out := c.Cluster([]domain.ScoredSignal{
		signal(domain.CategoryGitHub, 80, nil, nil),
		signal(domain.CategoryMarket, 70, nil, nil),
		signal(domain.CategoryDeFi, 60, nil, nil),
	})
	assert.Empty(t, out)
}
