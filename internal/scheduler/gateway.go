package scheduler

import (
	"context"
	"time"

	"github.com/fortuna/accolade/internal/awards"
	"github.com/fortuna/accolade/internal/store"
	"github.com/fortuna/accolade/internal/store/repository"
)

// StatWriter is the write half of the gateway used inside the ingest
// transaction.
type StatWriter interface {
	UpsertPlayer(ctx context.Context, identity store.PlayerIdentity) (int64, error)
	RecordDailyStat(ctx context.Context, playerID int64, date time.Time, fields store.StatFields) (bool, error)
}

// Store is everything a run needs from persistence.
type Store interface {
	awards.Store
	WithinTx(ctx context.Context, fn func(StatWriter) error) error
}

// RunTracker records the lifecycle of each run.
type RunTracker interface {
	Start(ctx context.Context, id string, statDate time.Time, source string) error
	Finish(ctx context.Context, run store.IngestionRun, runErr error) error
}

type gatewayStore struct {
	*repository.Gateway
}

// NewGatewayStore adapts the repository gateway to Store.
func NewGatewayStore(g *repository.Gateway) Store {
	return gatewayStore{g}
}

func (s gatewayStore) WithinTx(ctx context.Context, fn func(StatWriter) error) error {
	return s.Gateway.WithinTx(ctx, func(tx *repository.Gateway) error {
		return fn(tx)
	})
}
