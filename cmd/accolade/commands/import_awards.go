package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fortuna/accolade/internal/ingest/bbref"
)

var importAwardsCmd = &cobra.Command{
	Use:   "import-awards",
	Short: "Import the league's official weekly and monthly award history",
	Long: `Scrape the Player of the Week, Player of the Month, Rookie of the Month
and Coach of the Month pages and store every award for seasons starting
between --from and --to. Awards already
stored are skipped, so the import can be rerun safely.

Example:
  accolade import-awards
  accolade import-awards --from 2019 --to 2023`,
	RunE: runImportAwards,
}

var (
	importFrom int
	importTo   int
)

func init() {
	rootCmd.AddCommand(importAwardsCmd)

	importAwardsCmd.Flags().IntVar(&importFrom, "from", 0, "first season start year (default awards_season_start)")
	importAwardsCmd.Flags().IntVar(&importTo, "to", 0, "last season start year (default awards_season_end)")
}

func runImportAwards(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	from, to := a.cfg.AwardsSeasonStart, a.cfg.AwardsSeasonEnd
	if importFrom != 0 {
		from = importFrom
	}
	if importTo != 0 {
		to = importTo
	}

	importer := bbref.NewAwardsImporter(bbref.Config{
		BaseURL: a.cfg.BBRefBaseURL,
		QPS:     a.cfg.BBRefQPS,
	}, a.gateway.Official, a.log, a.metrics)

	summary, err := importer.Import(ctx, from, to)
	if err != nil {
		return err
	}

	if a.cache != nil {
		if err := a.dashboard().Invalidate(ctx); err != nil {
			a.log.WithError(err).Warn("failed to invalidate read cache")
		}
	}

	fmt.Printf("Parsed %d awards, inserted %d (player of the week %d, player of the month %d, rookie %d, coach %d)\n",
		summary.Parsed, summary.Inserted, summary.Weekly, summary.Monthly, summary.Rookie, summary.Coach)
	return nil
}
