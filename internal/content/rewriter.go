// Package content rewrites posts so that links standing alone in a
// paragraph are replaced by the embed markup of their provider.
package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/sync/errgroup"

	"autoembed/internal/embed"
)

// Resolver is satisfied by *embed.Resolver.
type Resolver interface {
	Resolve(ctx context.Context, url string) (*embed.Embed, error)
}

// Options configures a Rewriter.
type Options struct {
	Width       int               // overrides the provider width when > 0
	Height      int               // overrides the provider height when > 0
	Params      map[string]string // <param> overrides applied to every embed
	Sanitize    bool              // clean user markup before embeds are inserted
	Concurrency int               // links resolved in parallel per document, default 4
	Logger      *slog.Logger

	// OnResolve, when set, is called once per resolution attempt. It may be
	// called from several goroutines at once.
	OnResolve func(url string, e *embed.Embed, err error)
}

// Rewriter turns standalone links into embeds. It is safe for concurrent use.
type Rewriter struct {
	resolver Resolver
	opts     Options
	ugc      *bluemonday.Policy
	embeds   *bluemonday.Policy
	log      *slog.Logger
}

// NewRewriter creates a rewriter resolving links through r.
func NewRewriter(r Resolver, opts Options) *Rewriter {
	if opts.Concurrency < 1 {
		opts.Concurrency = 4
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Rewriter{
		resolver: r,
		opts:     opts,
		ugc:      bluemonday.UGCPolicy(),
		embeds:   embedPolicy(),
		log:      log,
	}
}

// Resolve resolves a single URL and applies the configured overrides.
func (rw *Rewriter) Resolve(ctx context.Context, url string) (*embed.Embed, error) {
	return rw.ResolveSize(ctx, url, 0, 0)
}

// ResolveSize is like Resolve but width and height, when > 0, take
// precedence over the configured size.
func (rw *Rewriter) ResolveSize(ctx context.Context, url string, width, height int) (*embed.Embed, error) {
	e, err := rw.resolver.Resolve(ctx, url)
	if rw.opts.OnResolve != nil {
		rw.opts.OnResolve(url, e, err)
	}
	if err != nil {
		return nil, err
	}

	if width <= 0 {
		width = rw.opts.Width
	}
	if height <= 0 {
		height = rw.opts.Height
	}
	if width > 0 {
		e.SetWidth(strconv.Itoa(width))
	}
	if height > 0 {
		e.SetHeight(strconv.Itoa(height))
	}
	if len(rw.opts.Params) > 0 {
		e.SetParams(rw.opts.Params)
	}
	return e, nil
}

// job is one link waiting for resolution.
type job struct {
	url  string
	html string
}

// resolveAll fills in the html of every job it can resolve. Links that are
// not embeddable keep an empty html; only cancellation is an error.
func (rw *Rewriter) resolveAll(ctx context.Context, jobs []*job, width, height int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rw.opts.Concurrency)

	for _, j := range jobs {
		g.Go(func() error {
			e, err := rw.ResolveSize(gctx, j.url, width, height)
			switch {
			case err == nil:
				j.html = wrapEmbed(e)
			case errors.Is(err, embed.ErrNotEmbeddable):
				rw.log.Debug("leaving link as is", "url", j.url, "reason", err)
			default:
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// RewriteHTML replaces every paragraph that holds nothing but a link (or
// a bare URL) with the link's embed markup.
func (rw *Rewriter) RewriteHTML(ctx context.Context, src string) (string, error) {
	if rw.opts.Sanitize {
		src = rw.ugc.Sanitize(src)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return "", fmt.Errorf("parsing html: %w", err)
	}

	var (
		jobs  []*job
		nodes []*goquery.Selection
	)
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		if url, ok := standaloneURL(p); ok {
			jobs = append(jobs, &job{url: url})
			nodes = append(nodes, p)
		}
	})

	if err := rw.resolveAll(ctx, jobs, 0, 0); err != nil {
		return "", err
	}

	for i, j := range jobs {
		if j.html != "" {
			nodes[i].ReplaceWithHtml(j.html)
		}
	}

	out, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("rendering html: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// standaloneURL reports the URL of a paragraph whose whole text is one
// link or one bare http(s) URL.
func standaloneURL(p *goquery.Selection) (string, bool) {
	text := strings.TrimSpace(p.Text())
	if text == "" {
		return "", false
	}

	children := p.Children()
	switch children.Length() {
	case 0:
		if isBareURL(text) {
			return text, true
		}
	case 1:
		if !children.Is("a") || strings.TrimSpace(children.Text()) != text {
			return "", false
		}
		if href, ok := children.Attr("href"); ok && isBareURL(href) {
			return strings.TrimSpace(href), true
		}
	}
	return "", false
}

func isBareURL(s string) bool {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return false
	}
	return !strings.ContainsAny(s, " \t\r\n")
}

// wrapEmbed renders e inside a container that themes can style.
func wrapEmbed(e *embed.Embed) string {
	return `<div class="autoembed">` + e.HTML() + `</div>`
}
