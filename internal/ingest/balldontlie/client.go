// Package balldontlie fetches per-player box scores from the balldontlie
// stats API.
package balldontlie

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fortuna/accolade/internal/ingest"
	"github.com/fortuna/accolade/internal/logger"
	"github.com/fortuna/accolade/internal/metrics"
)

// Config controls how the balldontlie client reaches the upstream API.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	MaxPages   int
}

// Client implements ingest.StatSource against balldontlie.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient httpDoer
	maxPages   int
	log        *logger.Logger
	metrics    *metrics.Recorder
}

var _ ingest.StatSource = (*Client)(nil)

// NewClient constructs a balldontlie client with the provided configuration.
func NewClient(cfg Config, log *logger.Logger, rec *metrics.Recorder) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		baseURL:    normalizeBaseURL(cfg.BaseURL),
		apiKey:     cfg.APIKey,
		httpClient: resolveHTTPClient(cfg.HTTPClient),
		maxPages:   resolveMaxPages(cfg.MaxPages),
		log:        log.WithField("source", providerName),
		metrics:    rec,
	}
}

// Name identifies the provider in run records.
func (c *Client) Name() string { return providerName }

// Fetch walks the cursor-paginated /stats endpoint for the date range and
// keeps records whose game date falls inside it.
func (c *Client) Fetch(ctx context.Context, start, end time.Time) ([]ingest.BoxScore, error) {
	var (
		cursor *int
		out    []ingest.BoxScore
	)

	for page := 1; ; page++ {
		if page > c.maxPages {
			return nil, fmt.Errorf("%w: %s: more than %d pages for %s..%s",
				ingest.ErrSourceUnavailable, providerName, c.maxPages,
				start.Format("2006-01-02"), end.Format("2006-01-02"))
		}

		payload, err := c.fetchPage(ctx, start, end, cursor)
		c.metrics.RecordUpstreamRequest(providerName, err)
		if err != nil {
			return nil, err
		}

		for _, s := range payload.Data {
			gameDate, err := parseGameDate(s.Game.Date)
			if err != nil {
				c.log.WithField("stat_id", s.ID).WithError(err).Warn("skipping stat with unparseable game date")
				continue
			}
			if !ingest.InWindow(gameDate, start, end) {
				continue
			}
			out = append(out, mapStat(s, gameDate))
		}

		if payload.Meta.NextCursor == nil || len(payload.Data) == 0 {
			break
		}
		cursor = payload.Meta.NextCursor
	}

	c.log.WithFields(map[string]interface{}{
		"start":   start.Format("2006-01-02"),
		"end":     end.Format("2006-01-02"),
		"records": len(out),
	}).Info("fetched box scores")

	return out, nil
}

func (c *Client) fetchPage(ctx context.Context, start, end time.Time, cursor *int) (*statsResponse, error) {
	req, err := c.buildRequest(ctx, start, end, cursor)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ingest.ErrSourceUnavailable, providerName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %s: unexpected status %d: %s",
			ingest.ErrSourceUnavailable, providerName, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload statsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %s: decoding stats: %v", ingest.ErrSourceUnavailable, providerName, err)
	}
	return &payload, nil
}

func (c *Client) buildRequest(ctx context.Context, start, end time.Time, cursor *int) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/stats", nil)
	if err != nil {
		return nil, err
	}

	q := req.URL.Query()
	q.Set("start_date", start.Format("2006-01-02"))
	q.Set("end_date", end.Format("2006-01-02"))
	q.Set("per_page", strconv.Itoa(defaultPerPage))
	if cursor != nil {
		q.Set("cursor", strconv.Itoa(*cursor))
	}
	req.URL.RawQuery = q.Encode()

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	return req, nil
}
