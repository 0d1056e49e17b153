// Package entity canonicalizes free-text entity strings to stable keys so
// correlation and clustering can match mentions of the same protocol across
// sources that spell it differently.
package entity

import "strings"

// Config holds the alias table and suffix list used for canonicalization.
type Config struct {
	// Aliases maps known spellings/tickers to one canonical key.
	Aliases map[string]string `yaml:"aliases"`
	// StripSuffixes are organizational suffixes removed before re-checking
	// the alias table, e.g. "jito-foundation" -> "jito".
	StripSuffixes []string `yaml:"strip_suffixes"`
}

// DefaultConfig returns the production alias table for the Solana ecosystem.
func DefaultConfig() Config {
	return Config{
		Aliases: map[string]string{
			"solana-labs": "solana", "solana-foundation": "solana", "sol": "solana",
			"solana-ecosystem": "solana",
			"solana-tvl": "solana-defi", "defi-ecosystem": "solana-defi",
			"defi-categories": "solana-defi", "solana-dex": "solana-defi",
			"jito-foundation": "jito", "jito-labs": "jito", "jto": "jito",
			"jupiter-exchange": "jupiter", "jup": "jupiter",
			"marinade-finance": "marinade", "mnde": "marinade", "msol": "marinade",
			"raydium-io": "raydium", "ray": "raydium",
			"drift-labs": "drift", "drift protocol": "drift",
			"tensor-hq": "tensor", "tnsr": "tensor",
			"helius-labs":          "helius",
			"metaplex-foundation":  "metaplex",
			"orca-so":              "orca",
			"squads-protocol":      "squads",
			"kamino-finance":       "kamino",
			"sanctum-so":           "sanctum",
			"pyth-network":         "pyth",
			"switchboard-xyz":      "switchboard",
			"wormhole-foundation":  "wormhole",
			"w":                    "wormhole",
			"anchor-lang":          "anchor",
			"liquid staking":       "liquid-staking",
		},
		StripSuffixes: []string{
			"-foundation", "-labs", "-exchange", "-protocol",
			"-finance", "-hq", "-so", "-io", "-xyz", "-network",
		},
	}
}

// Normalizer canonicalizes entity strings. Pure and deterministic; safe for
// concurrent use once constructed.
type Normalizer struct {
	cfg Config
}

// NewNormalizer creates a Normalizer. A zero-value config falls back to the
// default alias table.
func NewNormalizer(cfg Config) *Normalizer {
	if cfg.Aliases == nil && len(cfg.StripSuffixes) == 0 {
		cfg = DefaultConfig()
	}
	return &Normalizer{cfg: cfg}
}

// Normalize lower-cases and trims raw, then resolves it through the alias
// table, retrying after stripping one known organizational suffix. Strings
// shorter than 2 characters pass through unchanged: too short to classify.
// Returns "" for empty input; callers filter empties.
func (n *Normalizer) Normalize(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if len(lower) < 2 {
		return lower
	}

	if canonical, ok := n.cfg.Aliases[lower]; ok {
		return canonical
	}

	for _, suffix := range n.cfg.StripSuffixes {
		if strings.HasSuffix(lower, suffix) {
			stripped := strings.TrimSuffix(lower, suffix)
			if canonical, ok := n.cfg.Aliases[stripped]; ok {
				return canonical
			}
			return stripped
		}
	}

	return lower
}

// Expand maps each input entity to its canonical form and, when the original
// differs, also keeps the lower-cased original. The dual inclusion is
// deliberate: downstream matching works both on the canonical protocol and on
// the more specific original token. Output order is deterministic (first
// occurrence wins); entries shorter than 2 characters are dropped.
func (n *Normalizer) Expand(entities []string) []string {
	seen := make(map[string]struct{}, len(entities)*2)
	expanded := make([]string, 0, len(entities)*2)

	add := func(s string) {
		if len(s) < 2 {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		expanded = append(expanded, s)
	}

	for _, e := range entities {
		normalized := n.Normalize(e)
		add(normalized)
		if lower := strings.ToLower(strings.TrimSpace(e)); lower != normalized {
			add(lower)
		}
	}
	return expanded
}
