package content

import (
	"bytes"
	"context"
	"fmt"
	"regexp"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"gopkg.in/yaml.v3"
)

// FrontMatter is the optional YAML header of a Markdown post.
type FrontMatter struct {
	Title       string `yaml:"title"`
	EmbedWidth  int    `yaml:"embed_width"`
	EmbedHeight int    `yaml:"embed_height"`
	AutoEmbed   *bool  `yaml:"autoembed"` // nil means enabled
}

// Page is a rendered post.
type Page struct {
	Meta FrontMatter
	HTML string
}

var frontMatterDelim = []byte("---")

// splitFrontMatter separates a leading "---" delimited YAML block from the
// body. Documents without one are returned whole.
func splitFrontMatter(src []byte) ([]byte, []byte) {
	trimmed := bytes.TrimPrefix(src, []byte("\ufeff"))
	if !bytes.HasPrefix(trimmed, frontMatterDelim) {
		return nil, src
	}
	rest := trimmed[len(frontMatterDelim):]
	nl := bytes.IndexByte(rest, '\n')
	if nl < 0 || len(bytes.TrimSpace(rest[:nl])) != 0 {
		return nil, src
	}
	rest = rest[nl+1:]

	for off := 0; off < len(rest); {
		end := bytes.IndexByte(rest[off:], '\n')
		line := rest[off:]
		next := len(rest)
		if end >= 0 {
			line = rest[off : off+end]
			next = off + end + 1
		}
		if bytes.Equal(bytes.TrimRight(line, " \t\r"), frontMatterDelim) {
			return rest[:off], rest[next:]
		}
		off = next
	}
	return nil, src
}

// RenderMarkdown converts a Markdown post to HTML, replacing paragraphs
// that hold a single link with the link's embed.
func (rw *Rewriter) RenderMarkdown(ctx context.Context, src []byte) (Page, error) {
	var page Page

	header, body := splitFrontMatter(src)
	if header != nil {
		if err := yaml.Unmarshal(header, &page.Meta); err != nil {
			return Page{}, fmt.Errorf("parsing front matter: %w", err)
		}
	}

	enabled := page.Meta.AutoEmbed == nil || *page.Meta.AutoEmbed
	md := newMarkdown(enabled)

	doc := md.Parser().Parse(text.NewReader(body))

	if enabled {
		var jobs []*job
		var blocks []*EmbedBlock
		_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
			if b, ok := n.(*EmbedBlock); ok && entering {
				jobs = append(jobs, &job{url: b.URL})
				blocks = append(blocks, b)
				return ast.WalkSkipChildren, nil
			}
			return ast.WalkContinue, nil
		})

		if err := rw.resolveAll(ctx, jobs, page.Meta.EmbedWidth, page.Meta.EmbedHeight); err != nil {
			return Page{}, err
		}
		for i, j := range jobs {
			blocks[i].HTML = j.html
		}
	}

	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, body, doc); err != nil {
		return Page{}, fmt.Errorf("rendering markdown: %w", err)
	}

	if rw.opts.Sanitize {
		page.HTML = rw.embeds.Sanitize(buf.String())
	} else {
		page.HTML = buf.String()
	}
	return page, nil
}

func newMarkdown(embeds bool) goldmark.Markdown {
	exts := []goldmark.Extender{extension.GFM}
	if embeds {
		exts = append(exts, embedExtension{})
	}
	return goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
}

// embedPolicy is the UGC policy plus the markup embeds are made of.
func embedPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("div", "object", "param")
	p.AllowAttrs("type").Matching(regexp.MustCompile(`^application/x-shockwave-flash$`)).OnElements("object")
	p.AllowAttrs("data").OnElements("object")
	p.AllowAttrs("width", "height").Matching(bluemonday.NumberOrPercent).OnElements("object")
	p.AllowAttrs("name", "value").OnElements("param")
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^autoembed$`)).OnElements("div")
	return p
}

// KindEmbedBlock is the node kind of EmbedBlock.
var KindEmbedBlock = ast.NewNodeKind("EmbedBlock")

// EmbedBlock wraps a paragraph that consists of a single link. Once
// resolved, HTML holds the embed markup; otherwise the paragraph renders
// as usual.
type EmbedBlock struct {
	ast.BaseBlock
	URL  string
	HTML string
}

// Kind implements ast.Node.
func (n *EmbedBlock) Kind() ast.NodeKind {
	return KindEmbedBlock
}

// Dump implements ast.Node.
func (n *EmbedBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"URL": n.URL}, nil)
}

type embedTransformer struct{}

// Transform wraps every standalone link paragraph in an EmbedBlock.
func (embedTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()

	var found []*ast.Paragraph
	var urls []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		p, ok := n.(*ast.Paragraph)
		if !ok {
			return ast.WalkContinue, nil
		}
		// Only top level and blockquote paragraphs; list items stay links.
		if _, ok := p.Parent().(*ast.ListItem); ok {
			return ast.WalkSkipChildren, nil
		}
		if url, ok := paragraphURL(p, source); ok {
			found = append(found, p)
			urls = append(urls, url)
		}
		return ast.WalkSkipChildren, nil
	})

	for i, p := range found {
		parent := p.Parent()
		block := &EmbedBlock{URL: urls[i]}
		parent.ReplaceChild(parent, p, block)
		block.AppendChild(block, p)
	}
}

// paragraphURL returns the URL of a paragraph made of one autolink, or of
// one link whose text is its own destination.
func paragraphURL(p *ast.Paragraph, source []byte) (string, bool) {
	if p.ChildCount() != 1 {
		return "", false
	}

	switch n := p.FirstChild().(type) {
	case *ast.AutoLink:
		if n.AutoLinkType != ast.AutoLinkURL {
			return "", false
		}
		url := string(n.URL(source))
		return url, isBareURL(url)
	case *ast.Link:
		dest := string(n.Destination)
		if string(n.Text(source)) != dest {
			return "", false
		}
		return dest, isBareURL(dest)
	}
	return "", false
}

type embedRenderer struct{}

// RegisterFuncs implements renderer.NodeRenderer.
func (embedRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindEmbedBlock, renderEmbedBlock)
}

func renderEmbedBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*EmbedBlock)
	if n.HTML == "" {
		return ast.WalkContinue, nil
	}
	if entering {
		_, _ = w.WriteString(n.HTML)
		_ = w.WriteByte('\n')
	}
	return ast.WalkSkipChildren, nil
}

type embedExtension struct{}

// Extend implements goldmark.Extender.
func (embedExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithASTTransformers(util.Prioritized(embedTransformer{}, 500)),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(util.Prioritized(embedRenderer{}, 500)),
	)
}
