package application

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/solradar/radar/internal/domain"
)

// FixtureCollector replays raw signals from a JSON file. Used by dry runs
// and tests; real network collectors plug in through the same Collector
// interface.
type FixtureCollector struct {
	name     string
	category domain.Category
	path     string
}

// NewFixtureCollector creates a collector that reads a JSON array of raw
// signals from path.
func NewFixtureCollector(name string, category domain.Category, path string) *FixtureCollector {
	return &FixtureCollector{name: name, category: category, path: path}
}

func (f *FixtureCollector) Name() string              { return f.name }
func (f *FixtureCollector) Category() domain.Category { return f.category }

// Collect returns the fixture's signals detected at or after since. The
// collector's category overrides whatever the file says, so one fixture file
// cannot masquerade as multiple sources.
func (f *FixtureCollector) Collect(_ context.Context, since time.Time) ([]domain.RawSignal, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", f.path, err)
	}

	var raws []domain.RawSignal
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("failed to parse fixture %s: %w", f.path, err)
	}

	out := make([]domain.RawSignal, 0, len(raws))
	for _, r := range raws {
		if r.DetectedAt.Before(since) {
			continue
		}
		r.Source = f.category
		out = append(out, r)
	}
	return out, nil
}
