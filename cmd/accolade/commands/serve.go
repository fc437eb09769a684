package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fortuna/accolade/internal/api/rest"
	"github.com/fortuna/accolade/internal/scheduler"
)

const shutdownTimeout = 15 * time.Second

// serveCmd runs the HTTP API and the daily cron together.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server and the daily ingestion schedule",
	Long: `Start the HTTP API and the in-process cron that ingests yesterday's
box scores.

Endpoints:
  GET /health                  - dependency health
  GET /metrics                 - Prometheus metrics
  GET /api/cron/ingest         - run the daily ingestion now
  GET /api/v1/leaders          - current weekly and monthly winners
  GET /api/v1/awards/weekly    - weekly award history
  GET /api/v1/awards/monthly   - monthly award history
  GET /api/v1/awards/official  - imported league awards (?kind=pow|pom|rom|com)
  GET /api/v1/stats/leaders    - best lines of the latest day
  GET /api/v1/runs             - recent ingestion runs`,
	RunE: runServe,
}

var (
	serveAddr    string
	serveNoCron  bool
	serveMigrate bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides http_addr)")
	serveCmd.Flags().BoolVar(&serveNoCron, "no-cron", false, "serve the API without the daily schedule")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", true, "apply migrations before starting")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if serveAddr != "" {
		a.cfg.HTTPAddr = serveAddr
	}

	if serveMigrate {
		if err := a.db.RunMigrations(ctx); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// Runs still marked running past the lock TTL were cut off by a previous
	// shutdown; younger ones may belong to another replica.
	if n, err := a.gateway.Runs.FailInterrupted(ctx, a.lockTTL()); err != nil {
		a.log.WithError(err).Warn("failed to close interrupted runs")
	} else if n > 0 {
		a.log.WithField("runs", n).Warn("marked interrupted runs as failed")
	}

	dash := a.dashboard()
	orch := a.orchestrator(dash)

	var cron *scheduler.Cron
	if !serveNoCron {
		cron, err = scheduler.NewCron(a.cfg.IngestCron, a.cfg.Location(), orch, a.cfg.RunTimeout, a.log)
		if err != nil {
			return err
		}
		cron.Start()
		a.log.WithFields(map[string]interface{}{
			"schedule": a.cfg.IngestCron,
			"timezone": a.cfg.Timezone,
			"next":     cron.Next().Format(time.RFC3339),
		}).Info("daily ingestion scheduled")
	}

	checks := map[string]rest.HealthChecker{"database": a.db}
	if a.cache != nil {
		checks["cache"] = a.cache
	}
	handler := rest.NewHandler(dash, orch, a.cfg.RunTimeout, checks, a.log)
	server := rest.NewServer(a.cfg.HTTPAddr, handler, a.metrics, a.log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err = <-errCh:
		if err != nil {
			err = fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		a.log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if serr := server.Shutdown(shutdownCtx); serr != nil {
		a.log.WithError(serr).Warn("http server shutdown")
	}
	if cron != nil {
		cron.Stop()
	}

	a.log.Info("stopped")
	return err
}
