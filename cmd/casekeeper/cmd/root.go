package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/solatis/casekeeper/internal/core/api"
	"github.com/solatis/casekeeper/internal/core/config"
	"github.com/solatis/casekeeper/internal/core/db"
	"github.com/solatis/casekeeper/internal/core/logging"
	"github.com/solatis/casekeeper/internal/core/metrics"
	"github.com/solatis/casekeeper/internal/types"
)

const Version = "0.1.0"

var (
	configFile string
	dbURL      string
	logLevel   string
	logFormat  string
	profile    string
)

// app holds what every command shares once PersistentPreRunE has run.
var app struct {
	cfg      *config.Config
	log      zerolog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Collector
}

var rootCmd = &cobra.Command{
	Use:           "casekeeper",
	Short:         "casekeeper E2B(R3) ICSR codec and validator",
	Long:          `casekeeper exports, patches and imports E2B(R3) individual case safety reports and validates cases against ICH, FDA and MFDS business rules.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// Flags override environment and file values.
		flags := cmd.Flags()
		if flags.Changed("db-url") {
			cfg.Database.URL = dbURL
		}
		if flags.Changed("log-level") {
			cfg.Log.Level = logLevel
		}
		if flags.Changed("log-format") {
			cfg.Log.Format = logFormat
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
		if err != nil {
			return err
		}

		reg := prometheus.NewRegistry()
		m, err := metrics.NewCollector(reg)
		if err != nil {
			return err
		}

		app.cfg, app.log, app.registry, app.metrics = cfg, logger, reg, m
		return nil
	},

	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if app.cfg == nil || app.cfg.Metrics.Textfile == "" {
			return nil
		}
		return metrics.WriteTextfile(app.cfg.Metrics.Textfile, app.registry)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "database connection URL (sqlite://path or postgres://...)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log format (json, text)")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "regulatory profile (ICH, FDA, MFDS); empty resolves from the case")
}

func Execute() error {
	return rootCmd.Execute()
}

// explicitProfile parses --profile; empty stays empty.
func explicitProfile() (types.Profile, error) {
	if profile == "" {
		return "", nil
	}
	return types.ParseProfile(profile)
}

// openDB opens the configured database. Callers close it.
func openDB(ctx context.Context) (*sqlx.DB, error) {
	if app.cfg.Database.URL == "" {
		return nil, fmt.Errorf("--db-url required")
	}
	return db.Open(ctx, app.cfg.Database.URL)
}

// newService builds the engine facade, backed by the case store when one
// is configured. The returned closer is never nil.
func newService(ctx context.Context) (*api.Service, *db.CaseStore, func(), error) {
	if app.cfg.Database.URL == "" {
		svc, err := api.NewService(app.cfg, nil, app.log, app.metrics)
		return svc, nil, func() {}, err
	}

	database, err := openDB(ctx)
	if err != nil {
		return nil, nil, func() {}, err
	}
	store, err := db.NewCaseStore(database)
	if err != nil {
		database.Close()
		return nil, nil, func() {}, err
	}
	svc, err := api.NewService(app.cfg, store, app.log, app.metrics)
	if err != nil {
		database.Close()
		return nil, nil, func() {}, err
	}
	return svc, store, func() { database.Close() }, nil
}
