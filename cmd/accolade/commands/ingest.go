package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest one day of box scores and derive closing awards",
	Long: `Fetch one calendar day of box scores, store one stat line per player and,
when the day closes a week (Sunday) or a month, name the conference winners.

Without --date the previous day in the configured timezone is ingested.

Example:
  accolade ingest
  accolade ingest --date 2024-03-10`,
	RunE: runIngest,
}

var ingestDate string

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestDate, "date", "", "day to ingest (YYYY-MM-DD)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	var date time.Time
	if ingestDate != "" {
		d, err := time.Parse("2006-01-02", ingestDate)
		if err != nil {
			return fmt.Errorf("invalid --date %q: %w", ingestDate, err)
		}
		date = d
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	orch := a.orchestrator(a.dashboard())

	runCtx, cancel := context.WithTimeout(ctx, a.cfg.RunTimeout)
	defer cancel()

	if date.IsZero() {
		date = orch.Yesterday()
	}
	rep, err := orch.RunFor(runCtx, date)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
