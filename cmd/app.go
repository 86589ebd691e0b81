package cmd

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"autoembed/internal/cache"
	"autoembed/internal/config"
	"autoembed/internal/content"
	"autoembed/internal/embed"
	"autoembed/internal/history"
	"autoembed/internal/httputil"
	"autoembed/internal/provider"
)

// app wires the configured provider table, fetcher, cache and rewriter.
type app struct {
	table    *provider.Table
	resolver *embed.Resolver
	rewriter *content.Rewriter
	store    *cache.Store // nil when caching is off

	historyMu sync.Mutex
}

// loadTable returns the built-in table with the configured providers file
// merged in front of it.
func loadTable() (*provider.Table, error) {
	table := provider.Builtin()

	path, err := cfg.ExpandProvidersFile()
	if err != nil {
		return nil, fmt.Errorf("resolving providers file: %w", err)
	}
	if path == "" {
		return table, nil
	}

	custom, err := provider.LoadFile(path)
	if err != nil {
		return nil, err
	}
	debugf("loaded %d custom providers from %s", custom.Len(), path)
	return table.Merge(custom), nil
}

// newApp builds the resolution pipeline from cfg. When record is set and
// history is enabled, every resolution is appended to the history file.
func newApp(ctx context.Context, record bool) (*app, error) {
	table, err := loadTable()
	if err != nil {
		return nil, err
	}
	a := &app{table: table}

	opts := []embed.Option{embed.WithLogger(logger)}
	if cfg.Fetch {
		var fetcher embed.Fetcher = httputil.NewFetcher(httputil.FetcherConfig{
			Timeout:   cfg.FetchTimeout.Duration,
			Rate:      cfg.FetchRate,
			Burst:     1,
			UserAgent: cfg.UserAgent,
			Logger:    logger,
		})

		if cfg.Cache {
			path, err := config.CachePath()
			if err != nil {
				return nil, fmt.Errorf("locating page cache: %w", err)
			}
			a.store, err = cache.Open(ctx, path, cfg.CacheTTL.Duration)
			if err != nil {
				return nil, err
			}
			fetcher = a.store.Wrap(fetcher)
		}
		opts = append(opts, embed.WithFetcher(fetcher))
	}
	a.resolver = embed.NewResolver(table, opts...)

	rwOpts := content.Options{
		Width:    cfg.Width,
		Height:   cfg.Height,
		Params:   cfg.Params,
		Sanitize: cfg.Sanitize,
		Logger:   logger,
	}
	if record && cfg.History {
		rwOpts.OnResolve = a.recordHistory
	}
	a.rewriter = content.NewRewriter(a.resolver, rwOpts)

	return a, nil
}

// recordHistory appends one resolution attempt to the history file.
// Failures to write history are logged, never returned.
func (a *app) recordHistory(url string, e *embed.Embed, err error) {
	entry := history.Entry{Time: time.Now(), URL: url, OK: err == nil}
	if e != nil {
		entry.Provider = e.Rule().Title
	} else if m, ok := a.table.Match(url); ok {
		entry.Provider = m.Rule.Title
	}

	a.historyMu.Lock()
	defer a.historyMu.Unlock()
	if err := history.Append(entry, cfg.HistoryLimit); err != nil {
		logger.Warn("recording history", "error", err)
	}
}

// resolveLocal resolves a local file and applies the configured overrides,
// which Rewriter.Resolve does for URLs.
func (a *app) resolveLocal(ctx context.Context, file string) (*embed.Embed, error) {
	e, err := a.resolver.ResolveLocal(ctx, file)
	if err != nil {
		return nil, err
	}
	if cfg.Width > 0 {
		e.SetWidth(fmt.Sprint(cfg.Width))
	}
	if cfg.Height > 0 {
		e.SetHeight(fmt.Sprint(cfg.Height))
	}
	if len(cfg.Params) > 0 {
		e.SetParams(cfg.Params)
	}
	return e, nil
}

// Close releases the page cache.
func (a *app) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// closeApp closes a, joining any failure into *err.
func closeApp(a *app, err *error) {
	if cerr := a.Close(); cerr != nil {
		*err = errors.Join(*err, fmt.Errorf("closing page cache: %w", cerr))
	}
}
