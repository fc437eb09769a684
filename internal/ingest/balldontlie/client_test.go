package balldontlie

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/accolade/internal/ingest"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func newTestClient(rt roundTripperFunc, maxPages int) *Client {
	return NewClient(Config{
		BaseURL:    "http://example.com/v1/",
		APIKey:     "secret",
		HTTPClient: &http.Client{Transport: rt},
		MaxPages:   maxPages,
	}, nil, nil)
}

var (
	windowStart = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	windowEnd   = time.Date(2024, 3, 10, 23, 59, 59, 999999999, time.UTC)
)

const pageOne = `{
	"data": [
		{
			"id": 1, "min": "36", "fgm": 11, "fga": 20, "fg_pct": 0.55, "fg3m": 2, "fg3a": 6, "fg3_pct": 0.333,
			"ftm": 6, "fta": 8, "ft_pct": 0.75, "oreb": 1, "dreb": 9, "reb": 10, "ast": 8, "stl": 2, "blk": 1,
			"turnover": 3, "pf": 2, "pts": 30, "plus_minus": 12,
			"player": {"id": 237, "first_name": "LeBron", "last_name": "James", "position": "F"},
			"team": {"id": 14, "abbreviation": "LAL", "conference": "West", "full_name": "Los Angeles Lakers"},
			"game": {"id": 900, "date": "2024-03-10", "season": 2023}
		},
		{
			"id": 2, "min": "30", "pts": 10,
			"player": {"id": 1, "first_name": "Out", "last_name": "Ofwindow", "position": "G"},
			"team": {"id": 2, "abbreviation": "BOS", "conference": "East", "full_name": "Boston Celtics"},
			"game": {"id": 901, "date": "2024-03-11", "season": 2023}
		}
	],
	"meta": {"next_cursor": 55, "per_page": 100}
}`

const pageTwo = `{
	"data": [
		{
			"id": 3, "min": "00", "pts": 0,
			"player": {"id": 434, "first_name": "Jayson", "last_name": "Tatum", "position": "F"},
			"team": {"id": 2, "abbreviation": "BOS", "conference": "East", "full_name": "Boston Celtics"},
			"game": {"id": 902, "date": "2024-03-10T00:00:00.000Z", "season": 2023}
		}
	],
	"meta": {"per_page": 100}
}`

func TestFetchPaginatesAndMaps(t *testing.T) {
	var queries []url.Values
	var auth string

	client := newTestClient(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/v1/stats", req.URL.Path)
		queries = append(queries, req.URL.Query())
		auth = req.Header.Get("Authorization")
		if len(queries) == 1 {
			return jsonResponse(http.StatusOK, pageOne), nil
		}
		return jsonResponse(http.StatusOK, pageTwo), nil
	}, 0)

	got, err := client.Fetch(context.Background(), windowStart, windowEnd)
	require.NoError(t, err)

	require.Len(t, queries, 2)
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "2024-03-10", queries[0].Get("start_date"))
	assert.Equal(t, "2024-03-10", queries[0].Get("end_date"))
	assert.Equal(t, "100", queries[0].Get("per_page"))
	assert.Empty(t, queries[0].Get("cursor"))
	assert.Equal(t, "55", queries[1].Get("cursor"))

	require.Len(t, got, 2, "the out-of-window record is dropped")

	lebron := got[0]
	assert.Equal(t, "balldontlie:237", lebron.Player.ExternalID)
	assert.Equal(t, "Los Angeles Lakers — Western Conference", lebron.Player.Team)
	assert.Equal(t, 1, lebron.Stats.GamesPlayed)
	assert.Equal(t, 37.0, lebron.Stats.Efficiency)
	assert.True(t, lebron.Stats.PlusMinus.Valid)
	assert.Equal(t, int32(12), lebron.Stats.PlusMinus.Int32)

	tatum := got[1]
	assert.Equal(t, "Boston Celtics — Eastern Conference", tatum.Player.Team)
	assert.Equal(t, 0, tatum.Stats.GamesPlayed)
	assert.False(t, tatum.Stats.PlusMinus.Valid)
}

func TestFetchNon200IsSourceUnavailable(t *testing.T) {
	client := newTestClient(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadGateway, "boom"), nil
	}, 0)

	_, err := client.Fetch(context.Background(), windowStart, windowEnd)
	require.Error(t, err)
	assert.ErrorIs(t, err, ingest.ErrSourceUnavailable)
	assert.Contains(t, err.Error(), "502")
}

func TestFetchTransportErrorIsSourceUnavailable(t *testing.T) {
	client := newTestClient(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: connection refused")
	}, 0)

	_, err := client.Fetch(context.Background(), windowStart, windowEnd)
	assert.ErrorIs(t, err, ingest.ErrSourceUnavailable)
}

func TestFetchDecodeErrorIsSourceUnavailable(t *testing.T) {
	client := newTestClient(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, "{bad json"), nil
	}, 0)

	_, err := client.Fetch(context.Background(), windowStart, windowEnd)
	assert.ErrorIs(t, err, ingest.ErrSourceUnavailable)
}

func TestFetchStopsAtPageCap(t *testing.T) {
	calls := 0
	client := newTestClient(func(*http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusOK, pageOne), nil
	}, 2)

	_, err := client.Fetch(context.Background(), windowStart, windowEnd)
	assert.ErrorIs(t, err, ingest.ErrSourceUnavailable)
	assert.Equal(t, 2, calls)
}

func TestGamesPlayed(t *testing.T) {
	cases := map[string]int{
		"":      0,
		"00":    0,
		"0:00":  0,
		"0:45":  1,
		"34":    1,
		"34:12": 1,
	}
	for in, want := range cases {
		assert.Equal(t, want, gamesPlayed(in), in)
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	assert.Equal(t, defaultBaseURL, normalizeBaseURL(""))
	assert.Equal(t, "https://api.example.com", normalizeBaseURL("https://api.example.com/"))
	assert.Equal(t, defaultMaxPages, resolveMaxPages(0))
}
