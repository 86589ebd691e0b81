package embed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"autoembed/internal/provider"
)

// ErrNotEmbeddable is wrapped by every resolution failure, whether no rule
// matched or the page could not be fetched and matched.
var ErrNotEmbeddable = errors.New("not embeddable")

// LocalPrefix marks a local file so that it can go through the URL matcher.
const LocalPrefix = "__local__"

// Fetcher retrieves the textual content at a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) (string, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// Resolver turns URLs into embeds using a provider table.
type Resolver struct {
	table   *provider.Table
	fetcher Fetcher
	logger  *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithFetcher enables rules that scrape the media id from the page. Without
// a fetcher those rules always fail.
func WithFetcher(f Fetcher) Option {
	return func(r *Resolver) { r.fetcher = f }
}

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver returns a resolver over table. A nil table means the
// built-in one.
func NewResolver(table *provider.Table, opts ...Option) *Resolver {
	if table == nil {
		table = provider.Builtin()
	}
	r := &Resolver{table: table, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Table returns the table the resolver matches against.
func (r *Resolver) Table() *provider.Table {
	return r.table
}

// Resolve matches rawURL against the table. When the matching rule needs a
// fetch, the page is retrieved and the rule's fetch pattern supplies the
// captures instead. A rule that matches but fails to fetch or re-match ends
// the resolution; later rules are not tried.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (*Embed, error) {
	m, ok := r.table.Match(rawURL)
	if !ok {
		r.logger.Debug("no provider", "url", rawURL)
		return nil, fmt.Errorf("%w: no provider matches %q", ErrNotEmbeddable, rawURL)
	}

	captures := m.Captures
	if m.Rule.NeedsFetch() {
		var err error
		captures, err = r.fetchCaptures(ctx, m.Rule, rawURL)
		if err != nil {
			r.logger.Debug("fetch match failed", "provider", m.Rule.Title, "url", rawURL, "error", err)
			return nil, err
		}
	}

	r.logger.Debug("resolved", "provider", m.Rule.Title, "index", m.Index, "url", rawURL)
	return newEmbed(m.Rule, captures), nil
}

// ResolveLocal embeds a local file. Only rules that do not fetch are
// considered, so this never touches the network.
func (r *Resolver) ResolveLocal(ctx context.Context, file string) (*Embed, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	marker := LocalPrefix + file
	m, ok := r.table.MatchFunc(marker, func(rule provider.Rule) bool { return !rule.NeedsFetch() })
	if !ok {
		return nil, fmt.Errorf("%w: no provider for local file %q", ErrNotEmbeddable, file)
	}

	r.logger.Debug("resolved local", "provider", m.Rule.Title, "file", file)
	return newEmbed(m.Rule, m.Captures), nil
}

func (r *Resolver) fetchCaptures(ctx context.Context, rule provider.Rule, rawURL string) ([]string, error) {
	if r.fetcher == nil {
		return nil, fmt.Errorf("%w: %s needs a page fetch and fetching is disabled", ErrNotEmbeddable, rule.Title)
	}

	page, err := r.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		// Formatted, not wrapped: callers only get to see ErrNotEmbeddable.
		return nil, fmt.Errorf("%w: fetching %s: %v", ErrNotEmbeddable, rawURL, err)
	}

	captures := rule.MatchFetched(StripNonPrintable(page))
	if captures == nil {
		return nil, fmt.Errorf("%w: no %s media found at %s", ErrNotEmbeddable, rule.Title, rawURL)
	}
	return captures, nil
}
