package bbref

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/accolade/internal/ingest"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func htmlResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"text/html"}},
	}
}

func fixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(b)
}

func fixtureDoc(t *testing.T, name string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fixture(t, name)))
	require.NoError(t, err)
	return doc
}

var gameDay = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

func TestParseGameLinks(t *testing.T) {
	links := ParseGameLinks(fixtureDoc(t, "daily.html"))
	assert.Equal(t, []string{"/boxscores/202403100BOS.html", "/boxscores/202403100DEN.html"}, links)
}

func TestParseGameLinksFallback(t *testing.T) {
	links := ParseGameLinks(fixtureDoc(t, "daily_fallback.html"))
	assert.Equal(t, []string{"/boxscores/202403100MIA.html"}, links)
}

func TestIsGameLink(t *testing.T) {
	assert.True(t, isGameLink("/boxscores/202403100BOS.html"))
	assert.True(t, isGameLink("https://www.basketball-reference.com/boxscores/202403100BOS.html"))
	assert.False(t, isGameLink("/boxscores/pbp/202403100BOS.html"))
	assert.False(t, isGameLink("/boxscores/?month=3&day=10&year=2024"))
	assert.False(t, isGameLink("/players/j/jamesle01.html"))
}

func TestParseBoxScore(t *testing.T) {
	rows, err := ParseBoxScore(fixtureDoc(t, "boxscore.html"), gameDay)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	lebron := rows[0]
	assert.Equal(t, "bbref:jamesle01", lebron.Player.ExternalID)
	assert.Equal(t, "LeBron", lebron.Player.FirstName)
	assert.Equal(t, "James", lebron.Player.LastName)
	assert.Equal(t, "Los Angeles Lakers — Western Conference", lebron.Player.Team)
	assert.Equal(t, gameDay, lebron.GameDate)
	assert.Equal(t, 30, lebron.Stats.Points)
	assert.Equal(t, 10, lebron.Stats.Rebounds)
	assert.Equal(t, "36:12", lebron.Stats.Minutes)
	assert.InDelta(t, 0.55, lebron.Stats.FGPct, 1e-9)
	assert.Equal(t, 37.0, lebron.Stats.Efficiency)
	require.True(t, lebron.Stats.PlusMinus.Valid)
	assert.Equal(t, int32(-16), lebron.Stats.PlusMinus.Int32)

	tatum := rows[1]
	assert.Equal(t, "bbref:tatumja01", tatum.Player.ExternalID)
	assert.Equal(t, "Boston Celtics — Eastern Conference", tatum.Player.Team)
	assert.Equal(t, 33, tatum.Stats.Points, "quarter table must not be read")
	assert.Equal(t, 37.0, tatum.Stats.Efficiency)
	assert.Equal(t, int32(16), tatum.Stats.PlusMinus.Int32)
}

func TestParseBoxScoreWithoutScorebox(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body><p>Page Not Found</p></body></html>"))
	require.NoError(t, err)

	_, err = ParseBoxScore(doc, gameDay)
	assert.ErrorIs(t, err, errNoScorebox)
}

func TestSplitName(t *testing.T) {
	first, last := splitName("Karl-Anthony Towns")
	assert.Equal(t, "Karl-Anthony", first)
	assert.Equal(t, "Towns", last)

	first, last = splitName("Nene")
	assert.Equal(t, "", first)
	assert.Equal(t, "Nene", last)

	first, last = splitName("Gary Payton II")
	assert.Equal(t, "Gary", first)
	assert.Equal(t, "Payton II", last)
}

func TestSourceFetch(t *testing.T) {
	daily := fixture(t, "daily.html")
	box := fixture(t, "boxscore.html")

	var paths []string
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		paths = append(paths, req.URL.Path)
		assert.Equal(t, userAgent, req.Header.Get("User-Agent"))
		if req.URL.Path == "/boxscores/" {
			assert.Equal(t, "3", req.URL.Query().Get("month"))
			assert.Equal(t, "10", req.URL.Query().Get("day"))
			assert.Equal(t, "2024", req.URL.Query().Get("year"))
			return htmlResponse(http.StatusOK, daily), nil
		}
		return htmlResponse(http.StatusOK, box), nil
	})

	src := NewSource(Config{BaseURL: "http://bbref.test/", HTTPClient: &http.Client{Transport: rt}}, nil, nil)
	assert.Equal(t, "bbref", src.Name())

	rows, err := src.Fetch(context.Background(), gameDay, gameDay.Add(23*time.Hour))
	require.NoError(t, err)

	// Two games, each served the same two-player box score.
	assert.Len(t, rows, 4)
	assert.Equal(t, []string{"/boxscores/", "/boxscores/202403100BOS.html", "/boxscores/202403100DEN.html"}, paths)
}

func TestSourceFetchUpstreamFailure(t *testing.T) {
	rt := roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return htmlResponse(http.StatusTooManyRequests, "slow down"), nil
	})
	src := NewSource(Config{BaseURL: "http://bbref.test", HTTPClient: &http.Client{Transport: rt}}, nil, nil)

	_, err := src.Fetch(context.Background(), gameDay, gameDay)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ingest.ErrSourceUnavailable))
	assert.Contains(t, err.Error(), "429")
}

func TestSourceFetchBrokenGamePage(t *testing.T) {
	daily := fixture(t, "daily_fallback.html")
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path == "/boxscores/" {
			return htmlResponse(http.StatusOK, daily), nil
		}
		return htmlResponse(http.StatusOK, "<html><body></body></html>"), nil
	})
	src := NewSource(Config{BaseURL: "http://bbref.test", HTTPClient: &http.Client{Transport: rt}}, nil, nil)

	_, err := src.Fetch(context.Background(), gameDay, gameDay)
	assert.ErrorIs(t, err, ingest.ErrSourceUnavailable)
}

func TestFetcherResolve(t *testing.T) {
	f := newFetcher(Config{BaseURL: "http://bbref.test/"}, nil)
	assert.Equal(t, "http://bbref.test/awards/pow.html", f.resolve("/awards/pow.html"))
	assert.Equal(t, "http://bbref.test/awards/pow.html", f.resolve("awards/pow.html"))
	assert.Equal(t, "https://other.test/x.html", f.resolve("https://other.test/x.html"))

	assert.Equal(t, defaultBaseURL+"/x", newFetcher(Config{}, nil).resolve("/x"))
}
