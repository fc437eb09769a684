package bbref

import (
	"context"
	"fmt"

	"github.com/fortuna/accolade/internal/logger"
	"github.com/fortuna/accolade/internal/metrics"
	"github.com/fortuna/accolade/internal/store"
)

// OfficialStore persists imported awards.
type OfficialStore interface {
	Insert(ctx context.Context, a store.OfficialAward) (bool, error)
}

// ImportSummary counts what one import pass did.
type ImportSummary struct {
	Parsed   int `json:"parsed"`
	Inserted int `json:"inserted"`
	// Per-kind counts of inserted rows.
	Weekly  int `json:"weekly"`
	Monthly int `json:"monthly"`
	Rookie  int `json:"rookie"`
	Coach   int `json:"coach"`
}

func (s *ImportSummary) count(kind store.OfficialKind) {
	switch kind {
	case store.OfficialPlayerOfWeek:
		s.Weekly++
	case store.OfficialPlayerOfMonth:
		s.Monthly++
	case store.OfficialRookieOfMonth:
		s.Rookie++
	case store.OfficialCoachOfMonth:
		s.Coach++
	}
}

// AwardsImporter copies the league's Player of the Week and the Player,
// Rookie and Coach of the Month history into official_awards.
type AwardsImporter struct {
	fetch *fetcher
	store OfficialStore
	log   *logger.Logger
}

// NewAwardsImporter builds an importer sharing the scraper's rate limit settings.
func NewAwardsImporter(cfg Config, st OfficialStore, log *logger.Logger, rec *metrics.Recorder) *AwardsImporter {
	if log == nil {
		log = logger.Nop()
	}
	return &AwardsImporter{
		fetch: newFetcher(cfg, rec),
		store: st,
		log:   log.WithField("component", "awards_importer"),
	}
}

// Import scrapes every award page for seasons starting in [fromSeason, toSeason].
// Rows already stored are skipped.
func (i *AwardsImporter) Import(ctx context.Context, fromSeason, toSeason int) (ImportSummary, error) {
	var summary ImportSummary
	if fromSeason > toSeason {
		return summary, fmt.Errorf("import awards: from season %d after to season %d", fromSeason, toSeason)
	}

	weeklyDoc, err := i.fetch.document(ctx, playerOfWeekPath)
	if err != nil {
		return summary, err
	}
	parsed := ParsePlayerOfWeek(weeklyDoc, i.fetch.resolve(playerOfWeekPath), fromSeason, toSeason, i.log)

	for _, award := range monthlyAwards {
		doc, err := i.fetch.document(ctx, award.path)
		if err != nil {
			return summary, err
		}
		parsed = append(parsed, ParseMonthlyAward(doc, award.kind, i.fetch.resolve(award.path), fromSeason, toSeason, i.log)...)
	}

	summary.Parsed = len(parsed)

	for _, a := range parsed {
		inserted, err := i.store.Insert(ctx, a)
		if err != nil {
			return summary, fmt.Errorf("import awards: %w", err)
		}
		if inserted {
			summary.Inserted++
			summary.count(a.Kind)
		}
	}

	i.log.WithFields(map[string]interface{}{
		"parsed":   summary.Parsed,
		"inserted": summary.Inserted,
		"weekly":   summary.Weekly,
		"monthly":  summary.Monthly,
		"rookie":   summary.Rookie,
		"coach":    summary.Coach,
	}).Info("official awards imported")

	return summary, nil
}
