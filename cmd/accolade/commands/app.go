package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/fortuna/accolade/internal/cache"
	"github.com/fortuna/accolade/internal/config"
	"github.com/fortuna/accolade/internal/ingest"
	"github.com/fortuna/accolade/internal/ingest/balldontlie"
	"github.com/fortuna/accolade/internal/ingest/bbref"
	"github.com/fortuna/accolade/internal/logger"
	"github.com/fortuna/accolade/internal/metrics"
	"github.com/fortuna/accolade/internal/scheduler"
	"github.com/fortuna/accolade/internal/service"
	"github.com/fortuna/accolade/internal/store"
	"github.com/fortuna/accolade/internal/store/repository"
)

const (
	redisAttempts   = 5
	redisRetryDelay = 2 * time.Second
)

// app holds the long-lived dependencies shared by every command.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	metrics *metrics.Recorder
	db      *store.Database
	cache   *cache.RedisCache
	gateway *repository.Gateway
}

// newApp connects to Postgres and, when configured, Redis.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg)

	db, err := store.Open(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	a := &app{
		cfg:     cfg,
		log:     log,
		metrics: metrics.NewRecorder(),
		db:      db,
		gateway: repository.NewGateway(db),
	}

	if cfg.RedisURL != "" {
		rc, err := connectRedis(ctx, cfg.RedisURL, log)
		if err != nil {
			db.Close()
			return nil, err
		}
		a.cache = rc
		log.Info("connected to redis")
	} else {
		log.Info("redis not configured; read cache disabled, runs locked in-process")
	}

	return a, nil
}

// connectRedis retries while Redis comes up alongside the service.
func connectRedis(ctx context.Context, url string, log *logger.Logger) (*cache.RedisCache, error) {
	var lastErr error
	for attempt := 1; attempt <= redisAttempts; attempt++ {
		rc, err := cache.NewRedisCache(url)
		if err == nil {
			return rc, nil
		}
		lastErr = err
		if attempt == redisAttempts {
			break
		}
		log.WithError(err).WithField("attempt", attempt).Warn("redis connection failed, retrying")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(redisRetryDelay):
		}
	}
	return nil, fmt.Errorf("connect to redis after %d attempts: %w", redisAttempts, lastErr)
}

func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.WithError(err).Warn("closing redis")
		}
	}
	if err := a.db.Close(); err != nil {
		a.log.WithError(err).Warn("closing database")
	}
}

func (a *app) statSource() ingest.StatSource {
	if a.cfg.Source == config.SourceBBRef {
		return bbref.NewSource(bbref.Config{
			BaseURL: a.cfg.BBRefBaseURL,
			QPS:     a.cfg.BBRefQPS,
		}, a.log, a.metrics)
	}
	return balldontlie.NewClient(balldontlie.Config{
		BaseURL:  a.cfg.BallDontLieBaseURL,
		APIKey:   a.cfg.BallDontLieAPIKey,
		MaxPages: a.cfg.BallDontLieMaxPages,
	}, a.log, a.metrics)
}

func (a *app) dashboard() *service.Dashboard {
	var c service.Cache
	if a.cache != nil {
		c = a.cache
	}
	return service.NewDashboard(service.NewGatewayReader(a.gateway), c, a.cfg.CacheTTL, a.log)
}

// lockTTL outlives the run timeout so a slow run is never overlapped.
func (a *app) lockTTL() time.Duration {
	return 2 * a.cfg.RunTimeout
}

func (a *app) orchestrator(dash *service.Dashboard) *scheduler.Orchestrator {
	var locker scheduler.Locker = &scheduler.MutexLocker{}
	if a.cache != nil {
		locker = scheduler.NewRedisLocker(a.cache, a.lockTTL(), a.log)
	}

	return scheduler.NewOrchestrator(
		a.statSource(),
		scheduler.NewGatewayStore(a.gateway),
		a.gateway.Runs,
		scheduler.Config{
			Location:    a.cfg.Location(),
			Locker:      locker,
			Invalidator: dash,
		},
		a.log,
		a.metrics,
	)
}
