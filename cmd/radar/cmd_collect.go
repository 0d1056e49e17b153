package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/solradar/radar/internal/application"
	"github.com/solradar/radar/internal/domain"
	"github.com/solradar/radar/internal/engine/score"
	"github.com/solradar/radar/internal/engine/trend"
)

func newCollectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Run one collection pass: gather, score and persist signals",
		Long: `Gathers raw signals from the configured sources, computes composite
scores and trend strengths against the rolling baseline, and appends the
batch to the signal store. Safe to run repeatedly; each pass is an
independent run.`,
		RunE: runCollect,
	}
	cmd.Flags().String("fixtures", "", "Directory of <source>.json fixture files to replay instead of live sources")
	cmd.Flags().Int("lookback-days", 0, "Override collection lookback window")
	return cmd
}

// fixtureSources maps fixture file stems to source categories.
var fixtureSources = map[string]domain.Category{
	"github":  domain.CategoryGitHub,
	"onchain": domain.CategoryOnchain,
	"defi":    domain.CategoryDeFi,
	"market":  domain.CategoryMarket,
	"social":  domain.CategorySocial,
	"twitter": domain.CategoryTwitter,
	"reddit":  domain.CategoryReddit,
	"rss":     domain.CategoryRSS,
}

func runCollect(cmd *cobra.Command, args []string) error {
	d, err := newDeps(cmd, true)
	if err != nil {
		return err
	}
	defer d.Close()

	fixtureDir, _ := cmd.Flags().GetString("fixtures")
	collectors, err := buildCollectors(fixtureDir)
	if err != nil {
		return err
	}
	if len(collectors) == 0 {
		return fmt.Errorf("no collectors available: pass --fixtures or configure live sources")
	}

	lookbackDays := d.cfg.Analysis.CollectLookbackDays
	if override, _ := cmd.Flags().GetInt("lookback-days"); override > 0 {
		lookbackDays = override
	}

	job := application.NewCollectJob(collectors,
		score.NewScorer(d.cfg.Scoring),
		trend.NewDetector(d.cfg.Trend, d.baselines),
		d.signals, d.runs,
		time.Duration(lookbackDays)*24*time.Hour)

	result, err := job.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("collection run failed: %w", err)
	}

	fmt.Printf("Run %s: %d signals from %d sources", result.RunID, result.SignalsCollected, len(result.SourcesQueried))
	if len(result.FailedCollectors) > 0 {
		fmt.Printf(" (%d failed: %v)", len(result.FailedCollectors), result.FailedCollectors)
	}
	fmt.Println()
	return nil
}

// buildCollectors assembles the collector set. Today that means fixture
// replay; live API collectors register here as they land.
func buildCollectors(fixtureDir string) ([]application.Collector, error) {
	if fixtureDir == "" {
		return nil, nil
	}
	var collectors []application.Collector
	for stem, category := range fixtureSources {
		path := filepath.Join(fixtureDir, stem+".json")
		if _, err := os.Stat(path); err != nil {
			continue
		}
		collectors = append(collectors, application.NewFixtureCollector(stem, category, path))
	}
	if len(collectors) == 0 {
		return nil, fmt.Errorf("no fixture files found in %s", fixtureDir)
	}
	log.Info().Int("collectors", len(collectors)).Str("dir", fixtureDir).Msg("replaying fixtures")
	return collectors, nil
}
