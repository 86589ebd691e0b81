package httputil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// MaxPageSize caps how much of a page is read.
const MaxPageSize = 10 * 1024 * 1024

// FetcherConfig configures a Fetcher. Zero values fall back to defaults.
type FetcherConfig struct {
	Timeout   time.Duration
	Rate      float64 // requests per second; <= 0 disables limiting
	Burst     int
	UserAgent string
	Logger    *slog.Logger
}

// Fetcher retrieves pages over HTTP. It is safe for concurrent use.
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	log       *slog.Logger
}

// NewFetcher creates a fetcher with its own hardened client.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	return NewFetcherWithClient(NewClient(cfg.Timeout), cfg)
}

// NewFetcherWithClient creates a fetcher that sends requests through client.
func NewFetcherWithClient(client *http.Client, cfg FetcherConfig) *Fetcher {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.Rate > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.Rate), burst)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Fetcher{
		client:    client,
		limiter:   limiter,
		userAgent: cfg.UserAgent,
		log:       log,
	}
}

// Fetch returns the body of url. Anything but a 200 is an error.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for rate limiter: %w", err)
	}

	start := time.Now()
	resp, err := Get(ctx, f.client, url, f.userAgent)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxPageSize))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	f.log.Debug("fetched", "url", url, "bytes", len(body), "duration", time.Since(start))
	return string(body), nil
}
