package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fortuna/accolade/internal/store"
)

// PlayerRepository handles player data access
type PlayerRepository struct {
	q store.Querier
}

// NewPlayerRepository creates a new player repository
func NewPlayerRepository(q store.Querier) *PlayerRepository {
	return &PlayerRepository{q: q}
}

// Upsert inserts the player on first sighting of its external id, otherwise
// refreshes team and position. Names are never rewritten and an empty position
// does not clear a known one. Returns the internal player id.
func (r *PlayerRepository) Upsert(ctx context.Context, identity store.PlayerIdentity) (int64, error) {
	if strings.TrimSpace(identity.ExternalID) == "" {
		return 0, errors.New("upserting player: external id is required")
	}

	query := `
		INSERT INTO players (external_id, first_name, last_name, display_name, team, position)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))
		ON CONFLICT (external_id) DO UPDATE SET
			team = COALESCE(EXCLUDED.team, players.team),
			position = COALESCE(EXCLUDED.position, players.position),
			updated_at = NOW()
		RETURNING id
	`

	var id int64
	err := r.q.QueryRowContext(ctx, query,
		identity.ExternalID,
		identity.FirstName,
		identity.LastName,
		displayName(identity),
		identity.Team,
		identity.Position,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting player %s: %w", identity.ExternalID, err)
	}

	return id, nil
}

func displayName(identity store.PlayerIdentity) string {
	name := strings.TrimSpace(identity.FirstName + " " + identity.LastName)
	if name == "" {
		return identity.ExternalID
	}
	return name
}
