// Package bbref scrapes basketball-reference.com: daily box scores as an
// alternate stat source, and the official Player of the Week/Month tables.
package bbref

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/fortuna/accolade/internal/ingest"
	"github.com/fortuna/accolade/internal/metrics"
)

const (
	sourceName         = "bbref"
	defaultBaseURL     = "https://www.basketball-reference.com"
	defaultHTTPTimeout = 15 * time.Second
	userAgent          = "accolade/1.0 (+https://github.com/fortuna/accolade)"
)

// Config controls how pages are fetched.
type Config struct {
	BaseURL string
	// QPS caps request rate; zero or less disables limiting.
	QPS        float64
	HTTPClient *http.Client
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// fetcher loads HTML documents politely: one request at a time under a
// shared rate limit.
type fetcher struct {
	baseURL string
	http    httpDoer
	limiter *rate.Limiter
	metrics *metrics.Recorder
}

func newFetcher(cfg Config, rec *metrics.Recorder) *fetcher {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	var client httpDoer = &http.Client{Timeout: defaultHTTPTimeout}
	if cfg.HTTPClient != nil {
		client = cfg.HTTPClient
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.QPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.QPS), 1)
	}

	return &fetcher{baseURL: baseURL, http: client, limiter: limiter, metrics: rec}
}

func (f *fetcher) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return f.baseURL + path
}

// document fetches and parses a page. Every failure is reported as
// ingest.ErrSourceUnavailable.
func (f *fetcher) document(ctx context.Context, path string) (*goquery.Document, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s: rate limiter: %v", ingest.ErrSourceUnavailable, sourceName, err)
	}

	doc, err := f.get(ctx, f.resolve(path))
	f.metrics.RecordUpstreamRequest(sourceName, err)
	return doc, err
}

func (f *fetcher) get(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ingest.ErrSourceUnavailable, sourceName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("%w: %s: GET %s: status %d: %s",
			ingest.ErrSourceUnavailable, sourceName, url, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: parsing %s: %v", ingest.ErrSourceUnavailable, sourceName, url, err)
	}
	return doc, nil
}
