package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solradar/radar/internal/application"
	"github.com/solradar/radar/internal/engine/cluster"
	"github.com/solradar/radar/internal/engine/correlate"
	"github.com/solradar/radar/internal/engine/entity"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Distill accumulated signals into narratives and product ideas",
		Long: `Loads the recent signal window, finds cross-source entity correlations,
clusters related signals into proto-narratives, and synthesizes ranked
narratives with product ideas for the strongest ones. Refuses to run
until enough signals have accumulated.`,
		RunE: runAnalyze,
	}
	cmd.Flags().Bool("dry-run", false, "Analyze without storing narratives or ideas")
	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	d, err := newDeps(cmd, true)
	if err != nil {
		return err
	}
	defer d.Close()

	narratives := d.narratives
	if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
		narratives = nil
	}

	normalizer := entity.NewNormalizer(d.cfg.Entities)
	job := application.NewAnalyzeJob(d.cfg.Analysis,
		correlate.NewCorrelator(d.cfg.Correlation, normalizer),
		cluster.NewClusterer(d.cfg.Clustering, normalizer),
		d.synthesizer,
		d.signals, narratives)

	result, err := job.Run(cmd.Context())
	if err != nil {
		var insufficient *application.ErrInsufficientSignals
		if errors.As(err, &insufficient) {
			fmt.Println(insufficient.Error())
			return nil
		}
		return fmt.Errorf("analysis run failed: %w", err)
	}

	fmt.Printf("Analyzed %d signals: %d correlations, %d proto-narratives\n",
		result.SignalsAnalyzed, len(result.Correlations), len(result.ProtoNarratives))
	if result.Warning != "" {
		fmt.Println("Warning:", result.Warning)
	}
	for _, n := range result.Narratives {
		fmt.Printf("  [%3.0f] %-10s %s\n", n.ConfidenceScore, n.Status, n.Title)
	}
	fmt.Printf("%d product ideas generated\n", len(result.Ideas))
	return nil
}
