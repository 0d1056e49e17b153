package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_AliasLookup(t *testing.T) {
	n := NewNormalizer(DefaultConfig())

	assert.Equal(t, "jito", n.Normalize("jito-foundation"))
	assert.Equal(t, "jito", n.Normalize("JTO"))
	assert.Equal(t, "jupiter", n.Normalize("Jupiter-Exchange"))
	assert.Equal(t, "solana", n.Normalize("  Solana-Labs  "))
	assert.Equal(t, "marinade", n.Normalize("mSOL"))
}

func TestNormalize_SuffixStripping(t *testing.T) {
	n := NewNormalizer(DefaultConfig())

	// Unknown protocol: suffix stripped, no alias re-match
	assert.Equal(t, "acme", n.Normalize("acme-labs"))
	assert.Equal(t, "acme", n.Normalize("acme-protocol"))

	// Suffix strip followed by alias re-match
	assert.Equal(t, "wormhole", n.Normalize("wormhole-foundation"))
}

func TestNormalize_PassThrough(t *testing.T) {
	n := NewNormalizer(DefaultConfig())

	assert.Equal(t, "firedancer", n.Normalize("Firedancer"))
	assert.Equal(t, "", n.Normalize(""))
	assert.Equal(t, "x", n.Normalize("x"), "single char passes through unchanged")
}

func TestExpand_DualInclusion(t *testing.T) {
	n := NewNormalizer(DefaultConfig())

	// Alias differs from original: both the canonical and the lower-cased
	// original survive, so matching works at either granularity.
	out := n.Expand([]string{"jito-foundation"})
	assert.ElementsMatch(t, []string{"jito", "jito-foundation"}, out)

	// Already canonical: included once.
	out = n.Expand([]string{"jito"})
	assert.Equal(t, []string{"jito"}, out)
}

func TestExpand_FiltersShortAndDedupes(t *testing.T) {
	n := NewNormalizer(DefaultConfig())

	out := n.Expand([]string{"", "a", "JTO", "jito", "jito-labs"})
	assert.ElementsMatch(t, []string{"jito", "jto", "jito-labs"}, out)
}

func TestExpand_DeterministicOrder(t *testing.T) {
	n := NewNormalizer(DefaultConfig())

	first := n.Expand([]string{"drift-labs", "kamino-finance", "pyth"})
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, n.Expand([]string{"drift-labs", "kamino-finance", "pyth"}))
	}
}
