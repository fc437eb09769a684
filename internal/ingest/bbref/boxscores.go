package bbref

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/fortuna/accolade/internal/ingest"
	"github.com/fortuna/accolade/internal/logger"
	"github.com/fortuna/accolade/internal/metrics"
	"github.com/fortuna/accolade/internal/store"
)

// Rows whose minutes cell holds one of these did not play.
var nonPlayingStatuses = map[string]bool{
	"Did Not Play":     true,
	"Not With Team":    true,
	"Did Not Dress":    true,
	"Inactive":         true,
	"Player Suspended": true,
}

var errNoScorebox = errors.New("box score page has no scorebox")

// Source implements ingest.StatSource by scraping daily box score pages.
type Source struct {
	fetch *fetcher
	log   *logger.Logger
}

var _ ingest.StatSource = (*Source)(nil)

// NewSource builds the scraper.
func NewSource(cfg Config, log *logger.Logger, rec *metrics.Recorder) *Source {
	if log == nil {
		log = logger.Nop()
	}
	return &Source{fetch: newFetcher(cfg, rec), log: log.WithField("source", sourceName)}
}

// Name identifies the provider in run records.
func (s *Source) Name() string { return sourceName }

// Fetch scrapes every day in [start, end].
func (s *Source) Fetch(ctx context.Context, start, end time.Time) ([]ingest.BoxScore, error) {
	var out []ingest.BoxScore

	for d := ingest.DateOf(start); !d.After(ingest.DateOf(end)); d = d.AddDate(0, 0, 1) {
		daily := fmt.Sprintf("/boxscores/?month=%d&day=%d&year=%d", int(d.Month()), d.Day(), d.Year())
		doc, err := s.fetch.document(ctx, daily)
		if err != nil {
			return nil, err
		}

		links := ParseGameLinks(doc)
		s.log.WithFields(map[string]interface{}{
			"date":  d.Format("2006-01-02"),
			"games": len(links),
		}).Info("found box score links")

		for _, link := range links {
			game, err := s.fetch.document(ctx, link)
			if err != nil {
				return nil, err
			}
			rows, err := ParseBoxScore(game, d)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %s: %v", ingest.ErrSourceUnavailable, sourceName, link, err)
			}
			out = append(out, rows...)
		}
	}

	return out, nil
}

// ParseGameLinks extracts unique box score links from a daily scores page.
func ParseGameLinks(doc *goquery.Document) []string {
	links := collectLinks(doc, `td.gamelink a[href*="/boxscores/"]`)
	if len(links) == 0 {
		links = collectLinks(doc, `div.game_summary a[href*="/boxscores/"], div.games_summaries a[href*="/boxscores/"]`)
	}
	return links
}

func collectLinks(doc *goquery.Document, selector string) []string {
	seen := make(map[string]bool)
	var links []string
	doc.Find(selector).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || !isGameLink(href) || seen[href] {
			return
		}
		seen[href] = true
		links = append(links, href)
	})
	return links
}

// isGameLink accepts /boxscores/<game>.html and rejects the play-by-play,
// shot chart and index pages that share the prefix.
func isGameLink(href string) bool {
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	rest, found := strings.CutPrefix(u.Path, "/boxscores/")
	return found && strings.HasSuffix(rest, ".html") && !strings.Contains(rest, "/")
}

// isFullGameTable matches box-BOS-basic and box-BOS-game-basic but not the
// per-quarter or per-half tables.
func isFullGameTable(parts []string) bool {
	switch len(parts) {
	case 3:
		return true
	case 4:
		return parts[2] == "game"
	default:
		return false
	}
}

// ParseBoxScore reads every basic stats table on a game page.
func ParseBoxScore(doc *goquery.Document, gameDate time.Time) ([]ingest.BoxScore, error) {
	if doc.Find("div.scorebox").Length() == 0 {
		return nil, errNoScorebox
	}

	var out []ingest.BoxScore
	doc.Find(`table[id^="box-"][id$="-basic"]`).Each(func(_ int, table *goquery.Selection) {
		id, _ := table.Attr("id")
		parts := strings.Split(id, "-")
		if !isFullGameTable(parts) {
			return
		}
		teamLabel := parts[1]
		if team, ok := ingest.LookupTeam(parts[1]); ok {
			teamLabel = ingest.TeamLabel(team.Name, team.Conference)
		}

		table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
			if box, ok := parsePlayerRow(row, teamLabel, gameDate); ok {
				out = append(out, box)
			}
		})
	})

	return out, nil
}

func parsePlayerRow(row *goquery.Selection, teamLabel string, gameDate time.Time) (ingest.BoxScore, bool) {
	link := row.Find(`th[data-stat="player"] a`).First()
	if link.Length() == 0 {
		return ingest.BoxScore{}, false
	}

	minutes := cell(row, "mp")
	if minutes == "" || nonPlayingStatuses[minutes] {
		return ingest.BoxScore{}, false
	}

	href, _ := link.Attr("href")
	first, last := splitName(strings.TrimSpace(link.Text()))

	stats := store.StatFields{
		Points:      cellInt(row, "pts"),
		Rebounds:    cellInt(row, "trb"),
		Assists:     cellInt(row, "ast"),
		Steals:      cellInt(row, "stl"),
		Blocks:      cellInt(row, "blk"),
		Turnovers:   cellInt(row, "tov"),
		FGM:         cellInt(row, "fg"),
		FGA:         cellInt(row, "fga"),
		FG3M:        cellInt(row, "fg3"),
		FG3A:        cellInt(row, "fg3a"),
		FTM:         cellInt(row, "ft"),
		FTA:         cellInt(row, "fta"),
		FGPct:       cellFloat(row, "fg_pct"),
		FG3Pct:      cellFloat(row, "fg3_pct"),
		FTPct:       cellFloat(row, "ft_pct"),
		Minutes:     minutes,
		GamesPlayed: 1,
	}
	if pm, err := strconv.Atoi(cell(row, "plus_minus")); err == nil {
		stats.PlusMinus = sql.NullInt32{Int32: int32(pm), Valid: true}
	}

	box := ingest.BoxScore{
		Player: store.PlayerIdentity{
			ExternalID: ingest.ExternalID(sourceName, playerSlug(href)),
			FirstName:  first,
			LastName:   last,
			Team:       teamLabel,
		},
		GameDate: gameDate,
		Stats:    stats,
	}
	ingest.Finalize(&box)
	return box, true
}

func cell(row *goquery.Selection, stat string) string {
	return strings.TrimSpace(row.Find(fmt.Sprintf(`td[data-stat="%s"]`, stat)).First().Text())
}

func cellInt(row *goquery.Selection, stat string) int {
	n, _ := strconv.Atoi(cell(row, stat))
	return n
}

func cellFloat(row *goquery.Selection, stat string) float64 {
	f, _ := strconv.ParseFloat(cell(row, stat), 64)
	return f
}

// playerSlug turns /players/j/jamesle01.html into jamesle01.
func playerSlug(href string) string {
	return strings.TrimSuffix(path.Base(href), ".html")
}

func splitName(full string) (first, last string) {
	first, last, found := strings.Cut(full, " ")
	if !found {
		return "", full
	}
	return first, strings.TrimSpace(last)
}
