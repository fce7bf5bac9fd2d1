package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Flags shared by subcommands
	scenarioPath string // Scenario YAML file
	logLevel     string // Log verbosity level
	seed         uint64 // Overrides the scenario seed when set

	// run flags
	telemetryOut string // Queue-depth CSV output path
	idleOut      string // Idle-cycles CSV output path

	// experiment flags
	dbPath       string // SQLite file for trial persistence
	workers      int    // Concurrent simulations; overrides the scenario when set
	experimentID string // Identifier under which trials are stored
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "simul",
	Short: "Discrete-event simulator for message-passing agents",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// Execute runs the CLI root command. An interrupt signal cancels running experiments.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// resolveSeed returns the --seed flag when given, otherwise the scenario's seed.
func resolveSeed(cmd *cobra.Command, sc *Scenario) uint64 {
	if cmd.Flags().Changed("seed") {
		return seed
	}
	return sc.Seed
}

// init sets up persistent flags
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
}
