package ingest

import (
	"strings"

	"github.com/fortuna/accolade/internal/store"
)

// Team is a franchise and the conference it plays in.
type Team struct {
	Abbr       string
	Name       string
	Conference store.Conference
}

var teams = []Team{
	{"ATL", "Atlanta Hawks", store.ConferenceEastern},
	{"BOS", "Boston Celtics", store.ConferenceEastern},
	{"BRK", "Brooklyn Nets", store.ConferenceEastern},
	{"CHO", "Charlotte Hornets", store.ConferenceEastern},
	{"CHI", "Chicago Bulls", store.ConferenceEastern},
	{"CLE", "Cleveland Cavaliers", store.ConferenceEastern},
	{"DET", "Detroit Pistons", store.ConferenceEastern},
	{"IND", "Indiana Pacers", store.ConferenceEastern},
	{"MIA", "Miami Heat", store.ConferenceEastern},
	{"MIL", "Milwaukee Bucks", store.ConferenceEastern},
	{"NYK", "New York Knicks", store.ConferenceEastern},
	{"ORL", "Orlando Magic", store.ConferenceEastern},
	{"PHI", "Philadelphia 76ers", store.ConferenceEastern},
	{"TOR", "Toronto Raptors", store.ConferenceEastern},
	{"WAS", "Washington Wizards", store.ConferenceEastern},
	{"DAL", "Dallas Mavericks", store.ConferenceWestern},
	{"DEN", "Denver Nuggets", store.ConferenceWestern},
	{"GSW", "Golden State Warriors", store.ConferenceWestern},
	{"HOU", "Houston Rockets", store.ConferenceWestern},
	{"LAC", "Los Angeles Clippers", store.ConferenceWestern},
	{"LAL", "Los Angeles Lakers", store.ConferenceWestern},
	{"MEM", "Memphis Grizzlies", store.ConferenceWestern},
	{"MIN", "Minnesota Timberwolves", store.ConferenceWestern},
	{"NOP", "New Orleans Pelicans", store.ConferenceWestern},
	{"OKC", "Oklahoma City Thunder", store.ConferenceWestern},
	{"PHO", "Phoenix Suns", store.ConferenceWestern},
	{"POR", "Portland Trail Blazers", store.ConferenceWestern},
	{"SAC", "Sacramento Kings", store.ConferenceWestern},
	{"SAS", "San Antonio Spurs", store.ConferenceWestern},
	{"UTA", "Utah Jazz", store.ConferenceWestern},
}

// Providers disagree on a few abbreviations.
var abbrAliases = map[string]string{
	"BKN":  "BRK",
	"CHA":  "CHO",
	"PHX":  "PHO",
	"NO":   "NOP",
	"NY":   "NYK",
	"GS":   "GSW",
	"SA":   "SAS",
	"UTAH": "UTA",
}

var teamsByAbbr = func() map[string]Team {
	m := make(map[string]Team, len(teams))
	for _, t := range teams {
		m[t.Abbr] = t
	}
	return m
}()

// LookupTeam resolves an abbreviation in either provider's spelling.
func LookupTeam(abbr string) (Team, bool) {
	abbr = strings.ToUpper(strings.TrimSpace(abbr))
	if alias, ok := abbrAliases[abbr]; ok {
		abbr = alias
	}
	t, ok := teamsByAbbr[abbr]
	return t, ok
}

// ConferenceFromShort maps provider values such as "East" or "W" to a
// conference. Unknown values map to "".
func ConferenceFromShort(s string) store.Conference {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "E", "EAST", "EASTERN":
		return store.ConferenceEastern
	case "W", "WEST", "WESTERN":
		return store.ConferenceWestern
	default:
		return ""
	}
}

// TeamLabel renders the stored team string, e.g.
// "Boston Celtics — Eastern Conference". Without a conference only the name
// is kept.
func TeamLabel(name string, conf store.Conference) string {
	if conf == "" {
		return name
	}
	return name + " — " + string(conf) + " Conference"
}
