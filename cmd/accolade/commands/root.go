package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fortuna/accolade/internal/config"
)

var (
	// Global flags
	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "accolade",
	Short: "Daily NBA stat ingestion and award derivation",
	Long: `accolade ingests yesterday's box scores, stores one stat line per player
per day and names a weekly and monthly top performer for each conference.

Examples:
  accolade serve
  accolade ingest --date 2024-03-10
  accolade migrate
  accolade import-awards --from 2015 --to 2024`,
	SilenceUsage: true,
}

// Execute runs the root command. It is called once by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (overrides ACCOLADE_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug|info|warn|error)")
}

// loadConfig applies the global flags on top of the layered config.
func loadConfig() (*config.Config, error) {
	if configFile != "" {
		if err := os.Setenv("ACCOLADE_CONFIG", configFile); err != nil {
			return nil, fmt.Errorf("setting config path: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}
