package service

import (
	"time"

	"github.com/fortuna/accolade/internal/store"
)

const dateLayout = "2006-01-02"

// AwardView is a derived award as served by the API.
type AwardView struct {
	Kind       store.AwardKind  `json:"kind"`
	Conference store.Conference `json:"conference"`
	PlayerID   int64            `json:"player_id"`
	PlayerName string           `json:"player_name"`
	Team       string           `json:"team"`
	Efficiency float64          `json:"efficiency"`
	WeekStart  string           `json:"week_start,omitempty"`
	WeekEnd    string           `json:"week_end,omitempty"`
	Month      int              `json:"month,omitempty"`
	Year       int              `json:"year,omitempty"`
}

func newAwardView(a store.Award) AwardView {
	v := AwardView{
		Kind:       a.Kind,
		Conference: a.Conference,
		PlayerID:   a.PlayerID,
		PlayerName: a.PlayerName,
		Team:       a.Team,
		Efficiency: a.Efficiency,
	}
	if a.Kind == store.AwardMonthly {
		v.Month, v.Year = a.Month(), a.Year()
	} else {
		v.WeekStart = a.Period.Start.Format(dateLayout)
		v.WeekEnd = a.Period.End.Format(dateLayout)
	}
	return v
}

// Leaders holds the latest award per conference for each kind.
type Leaders struct {
	Weekly  []AwardView `json:"weekly"`
	Monthly []AwardView `json:"monthly"`
}

// OfficialAwardView is an imported league award.
type OfficialAwardView struct {
	Kind       store.OfficialKind `json:"kind"`
	PlayerName string             `json:"player_name"`
	Team       string             `json:"team"`
	Conference string             `json:"conference"`
	WeekStart  string             `json:"week_start,omitempty"`
	WeekEnd    string             `json:"week_end,omitempty"`
	Month      int                `json:"month,omitempty"`
	Year       int                `json:"year,omitempty"`
	SourceURL  string             `json:"source_url"`
}

func newOfficialAwardView(a store.OfficialAward) OfficialAwardView {
	v := OfficialAwardView{
		Kind:       a.Kind,
		PlayerName: a.PlayerName,
		Team:       a.TeamAbbr,
		Conference: a.Conference,
		SourceURL:  a.SourceURL,
	}
	if a.WeekStart.Valid {
		v.WeekStart = a.WeekStart.Time.Format(dateLayout)
	}
	if a.WeekEnd.Valid {
		v.WeekEnd = a.WeekEnd.Time.Format(dateLayout)
	}
	if a.Month.Valid {
		v.Month = int(a.Month.Int32)
	}
	if a.Year.Valid {
		v.Year = int(a.Year.Int32)
	}
	return v
}

// StatLineView is one player's stored day.
type StatLineView struct {
	PlayerID   int64   `json:"player_id"`
	PlayerName string  `json:"player_name"`
	Team       string  `json:"team"`
	Position   string  `json:"position,omitempty"`
	Date       string  `json:"date"`
	Points     int     `json:"points"`
	Rebounds   int     `json:"rebounds"`
	Assists    int     `json:"assists"`
	Steals     int     `json:"steals"`
	Blocks     int     `json:"blocks"`
	Turnovers  int     `json:"turnovers"`
	FGPct      float64 `json:"fg_pct"`
	FG3Pct     float64 `json:"fg3_pct"`
	FTPct      float64 `json:"ft_pct"`
	Minutes    string  `json:"minutes"`
	PlusMinus  *int    `json:"plus_minus"`
	Efficiency float64 `json:"efficiency"`
}

func newStatLineView(r store.StatRow) StatLineView {
	v := StatLineView{
		PlayerID:   r.PlayerID,
		PlayerName: r.PlayerName,
		Team:       r.Team,
		Position:   r.Position,
		Date:       r.StatDate.Format(dateLayout),
		Points:     r.Points,
		Rebounds:   r.Rebounds,
		Assists:    r.Assists,
		Steals:     r.Steals,
		Blocks:     r.Blocks,
		Turnovers:  r.Turnovers,
		FGPct:      r.FGPct,
		FG3Pct:     r.FG3Pct,
		FTPct:      r.FTPct,
		Minutes:    r.Minutes,
		Efficiency: r.Efficiency,
	}
	if r.PlusMinus.Valid {
		pm := int(r.PlusMinus.Int32)
		v.PlusMinus = &pm
	}
	return v
}

// RunView is an ingestion run record.
type RunView struct {
	ID             string     `json:"id"`
	Date           string     `json:"date"`
	Status         string     `json:"status"`
	Source         string     `json:"source"`
	RecordsFetched int        `json:"records_fetched"`
	StatsInserted  int        `json:"stats_inserted"`
	AwardsCreated  int        `json:"awards_created"`
	Error          string     `json:"error,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

func newRunView(r store.IngestionRun) RunView {
	v := RunView{
		ID:             r.ID,
		Date:           r.StatDate.Format(dateLayout),
		Status:         string(r.Status),
		Source:         r.Source,
		RecordsFetched: r.RecordsFetched,
		StatsInserted:  r.StatsInserted,
		AwardsCreated:  r.AwardsCreated,
		Error:          r.ErrorMessage.String,
		StartedAt:      r.StartedAt,
	}
	if r.CompletedAt.Valid {
		t := r.CompletedAt.Time
		v.CompletedAt = &t
	}
	return v
}
