package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/fortuna/accolade/internal/store"
)

// Gateway is the single write path for the ingestion pipeline. Its methods
// run against whatever Querier it was built on, so a copy bound to a
// transaction behaves exactly like the pooled one.
type Gateway struct {
	db *store.Database

	Players  *PlayerRepository
	Stats    *StatsRepository
	Awards   *AwardRepository
	Official *OfficialAwardRepository
	Runs     *RunRepository
}

// NewGateway wires every repository to the shared pool.
func NewGateway(db *store.Database) *Gateway {
	g := bind(db.DB())
	g.db = db
	return g
}

func bind(q store.Querier) *Gateway {
	return &Gateway{
		Players:  NewPlayerRepository(q),
		Stats:    NewStatsRepository(q),
		Awards:   NewAwardRepository(q),
		Official: NewOfficialAwardRepository(q),
		Runs:     NewRunRepository(q),
	}
}

// UpsertPlayer inserts or refreshes a player and returns its id.
func (g *Gateway) UpsertPlayer(ctx context.Context, identity store.PlayerIdentity) (int64, error) {
	return g.Players.Upsert(ctx, identity)
}

// RecordDailyStat stores one day of stats for a player.
func (g *Gateway) RecordDailyStat(ctx context.Context, playerID int64, date time.Time, fields store.StatFields) (bool, error) {
	return g.Stats.RecordDaily(ctx, playerID, date, fields)
}

// FindStatsInRange returns joined stat rows for the inclusive date range.
func (g *Gateway) FindStatsInRange(ctx context.Context, start, end time.Time) ([]store.StatRow, error) {
	return g.Stats.FindInRange(ctx, start, end)
}

// CreateAward inserts an award; duplicates surface as store.ErrAlreadyAwarded.
func (g *Gateway) CreateAward(ctx context.Context, award store.Award) error {
	return g.Awards.Create(ctx, award)
}

// WithinTx runs fn with a Gateway bound to a single transaction.
func (g *Gateway) WithinTx(ctx context.Context, fn func(tx *Gateway) error) error {
	return g.db.WithinTx(ctx, func(tx *sql.Tx) error {
		return fn(bind(tx))
	})
}
