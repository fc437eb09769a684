package store

import (
	"database/sql"
	"time"
)

// Conference is the award grouping derived from a team name.
type Conference string

const (
	ConferenceEastern Conference = "Eastern"
	ConferenceWestern Conference = "Western"
)

// AwardKind distinguishes weekly from monthly awards.
type AwardKind string

const (
	AwardWeekly  AwardKind = "weekly"
	AwardMonthly AwardKind = "monthly"
)

// Period is an inclusive range of calendar days, both ends at midnight UTC.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Player is an identity record. Names never change after creation; team and
// position follow the latest ingestion.
type Player struct {
	ID          int64          `json:"id" db:"id"`
	ExternalID  string         `json:"external_id" db:"external_id"`
	FirstName   string         `json:"first_name" db:"first_name"`
	LastName    string         `json:"last_name" db:"last_name"`
	DisplayName string         `json:"display_name" db:"display_name"`
	Team        sql.NullString `json:"team,omitempty" db:"team"`
	Position    sql.NullString `json:"position,omitempty" db:"position"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// PlayerIdentity is what a stat source knows about a player.
type PlayerIdentity struct {
	ExternalID string
	FirstName  string
	LastName   string
	Team       string
	Position   string
}

// StatFields are the per-day numbers stored for a player.
type StatFields struct {
	Points      int           `json:"points" db:"points"`
	Rebounds    int           `json:"rebounds" db:"rebounds"`
	Assists     int           `json:"assists" db:"assists"`
	Steals      int           `json:"steals" db:"steals"`
	Blocks      int           `json:"blocks" db:"blocks"`
	Turnovers   int           `json:"turnovers" db:"turnovers"`
	FGM         int           `json:"fgm" db:"fgm"`
	FGA         int           `json:"fga" db:"fga"`
	FG3M        int           `json:"fg3m" db:"fg3m"`
	FG3A        int           `json:"fg3a" db:"fg3a"`
	FTM         int           `json:"ftm" db:"ftm"`
	FTA         int           `json:"fta" db:"fta"`
	FGPct       float64       `json:"fg_pct" db:"fg_pct"`
	FG3Pct      float64       `json:"fg3_pct" db:"fg3_pct"`
	FTPct       float64       `json:"ft_pct" db:"ft_pct"`
	Minutes     string        `json:"minutes" db:"minutes"`
	GamesPlayed int           `json:"games_played" db:"games_played"`
	PlusMinus   sql.NullInt32 `json:"plus_minus" db:"plus_minus"`
	Efficiency  float64       `json:"efficiency" db:"efficiency"`
}

// StatRow is a player_stats row joined with its player.
type StatRow struct {
	ID         int64     `db:"id"`
	PlayerID   int64     `db:"player_id"`
	ExternalID string    `db:"external_id"`
	PlayerName string    `db:"display_name"`
	Team       string    `db:"team"`
	Position   string    `db:"position"`
	StatDate   time.Time `db:"stat_date"`
	StatFields
}

// Award is a weekly or monthly top performer for one conference.
type Award struct {
	ID         int64
	Kind       AwardKind
	Period     Period
	Conference Conference
	PlayerID   int64
	Efficiency float64
	CreatedAt  time.Time

	// Populated on reads from the joined player row.
	PlayerName string
	Team       string
}

// Month and Year identify a monthly award; they come from the period end.
func (a Award) Month() int { return int(a.Period.End.Month()) }
func (a Award) Year() int  { return a.Period.End.Year() }

// OfficialKind identifies an imported league award.
type OfficialKind string

const (
	OfficialPlayerOfWeek  OfficialKind = "pow"
	OfficialPlayerOfMonth OfficialKind = "pom"
	OfficialRookieOfMonth OfficialKind = "rom"
	OfficialCoachOfMonth  OfficialKind = "com"
)

// Valid reports whether k is a known award kind.
func (k OfficialKind) Valid() bool {
	switch k {
	case OfficialPlayerOfWeek, OfficialPlayerOfMonth, OfficialRookieOfMonth, OfficialCoachOfMonth:
		return true
	}
	return false
}

// OfficialAward is a league-announced award imported from basketball-reference.
// For coach awards PlayerName holds the coach.
type OfficialAward struct {
	ID         int64         `db:"id"`
	Kind       OfficialKind  `db:"kind"`
	PlayerName string        `db:"player_name"`
	TeamAbbr   string        `db:"team_abbr"`
	Conference string        `db:"conference"`
	WeekStart  sql.NullTime  `db:"week_start"`
	WeekEnd    sql.NullTime  `db:"week_end"`
	Month      sql.NullInt32 `db:"month"`
	Year       sql.NullInt32 `db:"year"`
	League     string        `db:"league"`
	SourceURL  string        `db:"source_url"`
	CreatedAt  time.Time     `db:"created_at"`
}

// RunStatus represents the lifecycle of an ingestion run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// IngestionRun records one invocation of the daily pipeline.
type IngestionRun struct {
	ID             string         `db:"id"`
	StatDate       time.Time      `db:"stat_date"`
	Status         RunStatus      `db:"status"`
	Source         string         `db:"source"`
	RecordsFetched int            `db:"records_fetched"`
	StatsInserted  int            `db:"stats_inserted"`
	AwardsCreated  int            `db:"awards_created"`
	ErrorMessage   sql.NullString `db:"error_message"`
	StartedAt      time.Time      `db:"started_at"`
	CompletedAt    sql.NullTime   `db:"completed_at"`
}
