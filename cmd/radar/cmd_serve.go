package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/solradar/radar/internal/httpapi"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the ops HTTP server (health, stats, metrics)",
		RunE:  runServe,
	}
	cmd.Flags().String("addr", "", "Bind address override (default from config)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	d, err := newDeps(cmd, true)
	if err != nil {
		return err
	}
	defer d.Close()

	addr := d.cfg.HTTPAddr
	if override, _ := cmd.Flags().GetString("addr"); override != "" {
		addr = override
	}

	srv := httpapi.NewServer(addr, d.signals, d.cfg.Analysis.AnalysisWindowDays)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
