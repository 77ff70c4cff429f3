// Command ladybug records experiences as fingerprinted moments, recalls them
// by resonance and gates decisions on how decisively they resonate.
package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AdaWorldAPI/ladybug-learning/internal/config"
	"github.com/AdaWorldAPI/ladybug-learning/internal/fingerprint"
	"github.com/AdaWorldAPI/ladybug-learning/internal/journal"
	"github.com/AdaWorldAPI/ladybug-learning/internal/logging"
	"github.com/AdaWorldAPI/ladybug-learning/internal/metrics"
	"github.com/AdaWorldAPI/ladybug-learning/internal/orchestrator"
)

var (
	// Version is set at build time
	Version = "dev"

	// Global flags
	configPath string
	dbPath     string
)

// #region main
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ladybug",
	Short: "Resonance memory with a dispersion-gated collapse",
	Long: `Ladybug keeps a journal of experienced moments, each encoded as a 10,000-bit
fingerprint. New input is recalled against that journal by resonance
(similarity blended with recency), and a collapse gate decides whether the
recalled candidates agree enough to commit, should be held, or need
clarification.

Configuration is read from --config (YAML) and LADYBUG_* environment
variables, e.g. LADYBUG_GATE_MAX_DISPERSION=0.4.

Examples:
  # Interactive session
  ladybug run --db moments.db

  # Recall from the journal
  ladybug recall "the stem bends under weight" --limit 3

  # Show the latest journaled moments
  ladybug inspect --last 10

  # Check gate behavior against a fixture
  ladybug replay internal/replay/testdata/gates.json`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "journal database (overrides store.path)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(recallCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(replayCmd)
}

// #endregion main

// #region app

// app holds everything a subcommand needs, built from configuration.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *journal.Store
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	engine   *orchestrator.Engine
}

// newApp loads configuration, opens the journal and builds the engine. With
// restore set, the journal is replayed into memory.
func newApp(restore bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Store.Path = dbPath
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}
	a.metrics = metrics.New(a.registry)

	opts := []orchestrator.Option{
		orchestrator.WithLogger(logger),
		orchestrator.WithMetrics(a.metrics),
		orchestrator.WithEncoder(fingerprint.NewCachedEncoder(cfg.Encoder.CacheSize)),
	}
	if cfg.Store.Path != "" {
		a.store, err = journal.NewStore(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		opts = append(opts, orchestrator.WithJournal(a.store))
	}

	a.engine, err = orchestrator.NewEngine(cfg.Gate, cfg.Resonance, opts...)
	if err != nil {
		a.Close()
		return nil, err
	}

	if restore && a.store != nil {
		if _, err := a.engine.Restore(); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

// Close releases the journal and flushes the logger.
func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
	_ = a.logger.Sync()
}

// #endregion app
