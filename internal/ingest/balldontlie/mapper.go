package balldontlie

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/fortuna/accolade/internal/ingest"
	"github.com/fortuna/accolade/internal/store"
)

func mapStat(s statResponse, gameDate time.Time) ingest.BoxScore {
	conf := ingest.ConferenceFromShort(s.Team.Conference)
	teamName := s.Team.FullName
	if known, ok := ingest.LookupTeam(s.Team.Abbreviation); ok {
		if teamName == "" {
			teamName = known.Name
		}
		if conf == "" {
			conf = known.Conference
		}
	}

	box := ingest.BoxScore{
		Player: store.PlayerIdentity{
			ExternalID: ingest.ExternalID(providerName, strconv.Itoa(s.Player.ID)),
			FirstName:  strings.TrimSpace(s.Player.FirstName),
			LastName:   strings.TrimSpace(s.Player.LastName),
			Team:       ingest.TeamLabel(teamName, conf),
			Position:   strings.TrimSpace(s.Player.Position),
		},
		GameDate: gameDate,
		Stats: store.StatFields{
			Points:      s.Pts,
			Rebounds:    s.Rebounds(),
			Assists:     s.Ast,
			Steals:      s.Stl,
			Blocks:      s.Blk,
			Turnovers:   s.Turnover,
			FGM:         s.FGM,
			FGA:         s.FGA,
			FG3M:        s.FG3M,
			FG3A:        s.FG3A,
			FTM:         s.FTM,
			FTA:         s.FTA,
			FGPct:       pctOrCompute(s.FGPct, s.FGM, s.FGA),
			FG3Pct:      pctOrCompute(s.FG3Pct, s.FG3M, s.FG3A),
			FTPct:       pctOrCompute(s.FTPct, s.FTM, s.FTA),
			Minutes:     strings.TrimSpace(s.Min),
			GamesPlayed: gamesPlayed(s.Min),
		},
	}
	if s.PlusMinus != nil {
		box.Stats.PlusMinus = sql.NullInt32{Int32: int32(*s.PlusMinus), Valid: true}
	}
	ingest.Finalize(&box)
	return box
}

// Rebounds falls back to offensive plus defensive when reb is missing.
func (s statResponse) Rebounds() int {
	if s.Reb > 0 {
		return s.Reb
	}
	return s.OReb + s.DReb
}

// The API reports percentages either as fractions or as 0-100 values
// depending on the endpoint version; recompute when the value looks off.
func pctOrCompute(reported float64, made, attempted int) float64 {
	if reported >= 0 && reported <= 1 {
		return reported
	}
	return ingest.Pct(made, attempted)
}

// gamesPlayed is 1 when any minutes were logged. Minutes arrive as "34",
// "34:12" or "00".
func gamesPlayed(min string) int {
	min = strings.TrimSpace(min)
	if min == "" {
		return 0
	}
	whole := strings.SplitN(min, ":", 2)
	if n, err := strconv.Atoi(whole[0]); err == nil && n > 0 {
		return 1
	}
	if len(whole) == 2 {
		if n, err := strconv.Atoi(whole[1]); err == nil && n > 0 {
			return 1
		}
	}
	return 0
}

func parseGameDate(raw string) (time.Time, error) {
	if len(raw) >= 10 {
		raw = raw[:10]
	}
	return time.Parse("2006-01-02", raw)
}
