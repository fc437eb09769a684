package bbref

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/fortuna/accolade/internal/logger"
	"github.com/fortuna/accolade/internal/store"
)

const (
	playerOfWeekPath = "/awards/pow.html"
	leagueNBA        = "NBA"
)

// Award tables have moved around over the years; try the specific ids first.
var playerOfWeekSelectors = []string{
	"div#all_awards_NBA_POW table#awards_NBA_POW",
	"table#awards_NBA_POW",
	"div#all_pow table#pow",
	"table#pow",
	"div#all_awards table#awards",
	"table#awards",
	"table",
}

// monthlyAward describes a page listing one award per month and conference.
type monthlyAward struct {
	kind      store.OfficialKind
	path      string
	label     string
	selectors []string
}

var monthlyAwards = []monthlyAward{
	{
		kind:  store.OfficialPlayerOfMonth,
		path:  "/awards/pom.html",
		label: "player of the month",
		selectors: []string{
			"div#all_awards_NBA_POM table#awards_NBA_POM",
			"table#awards_NBA_POM",
			"div#all_pom table#pom",
			"table#pom",
			"div#all_awards table#awards",
			"table#awards",
			"table",
		},
	},
	{
		kind:  store.OfficialRookieOfMonth,
		path:  "/awards/rom.html",
		label: "rookie of the month",
		selectors: []string{
			"div#all_awards_NBA_ROM table#awards_NBA_ROM",
			"table#awards_NBA_ROM",
			"div#all_rom table#rom",
			"table#rom",
			"div#all_awards table#awards",
			"table#awards",
			"table",
		},
	},
	{
		kind:  store.OfficialCoachOfMonth,
		path:  "/awards/com.html",
		label: "coach of the month",
		selectors: []string{
			"div#all_awards_NBA_COTM table#awards_NBA_COTM",
			"table#awards_NBA_COTM",
			"div#all_com table#com",
			"table#com",
			"div#all_awards table#awards",
			"table#awards",
			"table",
		},
	},
}

func monthlyAwardFor(kind store.OfficialKind) (monthlyAward, bool) {
	for _, m := range monthlyAwards {
		if m.kind == kind {
			return m, true
		}
	}
	return monthlyAward{}, false
}

var monthNames = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
	// Early-season awards cover both months and are dated to the later one.
	"oct/nov": time.November,
}

// MonthFromName maps "Oct.", "October" or "Oct/Nov" to a month.
func MonthFromName(s string) (time.Month, bool) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), ".", ""))
	m, ok := monthNames[key]
	return m, ok
}

// SeasonStartYear parses "2022-23" (or "2022–23") into 2022.
func SeasonStartYear(season string) (int, error) {
	season = strings.ReplaceAll(strings.TrimSpace(season), "–", "-")
	head, tail, found := strings.Cut(season, "-")
	if !found {
		return 0, fmt.Errorf("season %q: expected YYYY-YY", season)
	}
	year, err := strconv.Atoi(head)
	if err != nil {
		return 0, fmt.Errorf("season %q: %w", season, err)
	}
	if _, err := strconv.Atoi(tail); err != nil {
		return 0, fmt.Errorf("season %q: %w", season, err)
	}
	return year, nil
}

// AwardYear places a month of a season on the calendar: August through
// December belong to the start year, the rest to the following year.
func AwardYear(seasonStart int, m time.Month) int {
	if m >= time.August {
		return seasonStart
	}
	return seasonStart + 1
}

// ParseWeekRange parses "Oct 24-30", "Dec 28-Jan 3" or "Oct 24" within the
// season starting in seasonStart.
func ParseWeekRange(week string, seasonStart int) (time.Time, time.Time, error) {
	parts := strings.Fields(strings.ReplaceAll(week, ".", ""))
	switch {
	case len(parts) == 4 && parts[2] == "-":
		parts = []string{parts[0], parts[1] + "-" + parts[3]}
	case len(parts) == 5 && parts[2] == "-":
		parts = []string{parts[0], parts[1] + "-" + parts[3], parts[4]}
	}
	if len(parts) < 2 || len(parts) > 3 {
		return time.Time{}, time.Time{}, fmt.Errorf("week %q: unexpected format", week)
	}

	startMonth, ok := MonthFromName(parts[0])
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("week %q: unknown month %q", week, parts[0])
	}
	startYear := AwardYear(seasonStart, startMonth)

	var (
		startDay, endDay int
		endMonth         = startMonth
		endYear          = startYear
		err              error
	)

	dayRange := parts[1]
	if head, tail, found := strings.Cut(dayRange, "-"); found {
		if startDay, err = strconv.Atoi(head); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("week %q: start day: %w", week, err)
		}
		if m, isMonth := MonthFromName(tail); isMonth {
			if len(parts) < 3 {
				return time.Time{}, time.Time{}, fmt.Errorf("week %q: missing end day", week)
			}
			endMonth = m
			if endMonth < startMonth {
				endYear = startYear + 1
			}
			if endDay, err = strconv.Atoi(parts[2]); err != nil {
				return time.Time{}, time.Time{}, fmt.Errorf("week %q: end day: %w", week, err)
			}
		} else if endDay, err = strconv.Atoi(tail); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("week %q: end day: %w", week, err)
		}
	} else {
		if startDay, err = strconv.Atoi(dayRange); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("week %q: day: %w", week, err)
		}
		endDay = startDay
	}

	start, err := calendarDate(startYear, startMonth, startDay)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("week %q: %w", week, err)
	}
	end, err := calendarDate(endYear, endMonth, endDay)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("week %q: %w", week, err)
	}
	return start, end, nil
}

func calendarDate(year int, month time.Month, day int) (time.Time, error) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return time.Time{}, fmt.Errorf("invalid date %d-%02d-%02d", year, month, day)
	}
	return t, nil
}

func findAwardTable(doc *goquery.Document, selectors []string) *goquery.Selection {
	for _, sel := range selectors {
		if table := doc.Find(sel).First(); table.Length() > 0 {
			return table
		}
	}
	return nil
}

func linkOrText(s *goquery.Selection) string {
	if a := s.Find("a").First(); a.Length() > 0 {
		return strings.TrimSpace(a.Text())
	}
	return strings.TrimSpace(s.Text())
}

// ParseMonthlyAward reads a monthly award table of the given kind (pom, rom
// or com). Only NBA rows for seasons starting in [fromSeason, toSeason] are
// returned. Coach awards carry the coach in PlayerName.
func ParseMonthlyAward(doc *goquery.Document, kind store.OfficialKind, sourceURL string, fromSeason, toSeason int, log *logger.Logger) []store.OfficialAward {
	award, ok := monthlyAwardFor(kind)
	if !ok {
		log.WithField("kind", string(kind)).Warn("not a monthly award kind")
		return nil
	}
	table := findAwardTable(doc, award.selectors)
	if table == nil {
		log.WithField("award", award.label).Warn("award table not found")
		return nil
	}

	var out []store.OfficialAward
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if row.Find(`th[scope="col"]`).Length() > 0 {
			return
		}
		cells := row.Find("td")
		if cells.Length() < 6 {
			return
		}

		season := strings.TrimSpace(cells.Eq(0).Text())
		league := strings.TrimSpace(cells.Eq(1).Text())
		name := linkOrText(cells.Eq(2))
		conf := strings.TrimSpace(cells.Eq(3).Text())
		monthText := strings.TrimSpace(cells.Eq(4).Text())
		team := linkOrText(cells.Eq(5))

		start, err := SeasonStartYear(season)
		if err != nil || start < fromSeason || start > toSeason {
			return
		}
		if league != leagueNBA {
			return
		}
		month, ok := MonthFromName(monthText)
		if !ok {
			log.WithFields(map[string]interface{}{"kind": string(kind), "name": name, "month": monthText}).Warn("unknown award month")
			return
		}

		out = append(out, store.OfficialAward{
			Kind:       kind,
			PlayerName: name,
			TeamAbbr:   team,
			Conference: conf,
			Month:      sql.NullInt32{Int32: int32(month), Valid: true},
			Year:       sql.NullInt32{Int32: int32(AwardYear(start, month)), Valid: true},
			League:     league,
			SourceURL:  sourceURL,
		})
	})
	return out
}

// ParsePlayerOfWeek reads the weekly award table. Season header rows set the
// season for the rows under them; a row may also carry its own season in
// the first cell.
func ParsePlayerOfWeek(doc *goquery.Document, sourceURL string, fromSeason, toSeason int, log *logger.Logger) []store.OfficialAward {
	table := findAwardTable(doc, playerOfWeekSelectors)
	if table == nil {
		log.Warn("player of the week table not found")
		return nil
	}

	var out []store.OfficialAward
	currentSeason := 0

	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if row.Find(`th[scope="col"]`).Length() > 0 {
			return
		}
		if header := row.Find(`th[data-stat="season"]`); header.Length() > 0 && strings.TrimSpace(header.Text()) != "" {
			if y, err := SeasonStartYear(header.Text()); err == nil {
				currentSeason = y
			}
			return
		}

		cells := row.Find("td")
		if cells.Length() < 5 {
			return
		}

		season, offset := currentSeason, 0
		if y, err := SeasonStartYear(cells.Eq(0).Text()); err == nil {
			season, offset = y, 1
			if cells.Length() < offset+5 {
				return
			}
		}
		if season == 0 || season < fromSeason || season > toSeason {
			return
		}

		league := strings.TrimSpace(cells.Eq(offset).Text())
		weekText := strings.TrimSpace(cells.Eq(offset + 1).Text())
		name := linkOrText(cells.Eq(offset + 2))
		conf := strings.TrimSpace(cells.Eq(offset + 3).Text())
		team := linkOrText(cells.Eq(offset + 4))

		if league != leagueNBA {
			return
		}
		start, end, err := ParseWeekRange(weekText, season)
		if err != nil {
			log.WithError(err).WithField("player", name).Warn("skipping award with unparseable week")
			return
		}

		out = append(out, store.OfficialAward{
			Kind:       store.OfficialPlayerOfWeek,
			PlayerName: name,
			TeamAbbr:   team,
			Conference: conf,
			WeekStart:  sql.NullTime{Time: start, Valid: true},
			WeekEnd:    sql.NullTime{Time: end, Valid: true},
			League:     league,
			SourceURL:  sourceURL,
		})
	})
	return out
}
