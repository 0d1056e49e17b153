package main

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/solradar/radar/internal/cache"
	"github.com/solradar/radar/internal/config"
	"github.com/solradar/radar/internal/persistence"
	"github.com/solradar/radar/internal/persistence/postgres"
	"github.com/solradar/radar/internal/synth"
)

// deps holds everything a command needs after wiring. Build with newDeps and
// always Close.
type deps struct {
	cfg         *config.Config
	db          *sqlx.DB
	signals     persistence.SignalRepo
	baselines   persistence.BaselineRepo
	narratives  persistence.NarrativeRepo
	runs        persistence.RunRepo
	synthesizer *synth.Synthesizer
}

// newDeps loads configuration from the command's flags and wires the shared
// services. When needDB is false the repos stay nil and no connection is
// attempted.
func newDeps(cmd *cobra.Command, needDB bool) (*deps, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if override, _ := cmd.Flags().GetString("log-level"); override != "" {
		cfg.LogLevel = override
	}
	setLogLevel(cfg.LogLevel)

	d := &deps{cfg: cfg}

	if needDB {
		if cfg.Database.DSN == "" {
			return nil, fmt.Errorf("no database configured: set database.dsn or RADAR_DATABASE_URL")
		}
		db, err := postgres.Connect(cfg.Database)
		if err != nil {
			return nil, err
		}
		d.db = db
		d.signals = postgres.NewSignalsRepo(db, cfg.Database.QueryTimeout)
		d.baselines = postgres.NewBaselineRepo(db, cfg.Database.QueryTimeout)
		d.narratives = postgres.NewNarrativesRepo(db, cfg.Database.QueryTimeout)
		d.runs = postgres.NewRunRepo(db, cfg.Database.QueryTimeout)
	}

	provider, err := synth.NewProvider(cfg.Synthesis)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		log.Info().Msg("no synthesis provider configured, narratives will use algorithmic fallback")
	} else {
		log.Info().Str("provider", provider.Name()).Msg("synthesis provider ready")
	}
	d.synthesizer = synth.NewSynthesizer(cfg.Synthesis, provider, cache.New(cfg.RedisAddr))

	return d, nil
}

func (d *deps) Close() {
	if d.db != nil {
		if err := d.db.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close database")
		}
	}
}
