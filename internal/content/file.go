package content

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IsPost reports whether path has an extension RenderFile understands.
func IsPost(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".html", ".htm":
		return true
	}
	return false
}

// RenderFile renders a Markdown or HTML post from disk. Markdown posts
// without a title in their front matter are titled after the file name.
func (rw *Rewriter) RenderFile(ctx context.Context, path string) (Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Page{}, fmt.Errorf("reading post: %w", err)
	}

	var page Page
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".md", ".markdown":
		page, err = rw.RenderMarkdown(ctx, data)
	case ".html", ".htm":
		page.HTML, err = rw.RewriteHTML(ctx, string(data))
	default:
		return Page{}, fmt.Errorf("unsupported post type %q", ext)
	}
	if err != nil {
		return Page{}, fmt.Errorf("%s: %w", path, err)
	}

	if page.Meta.Title == "" {
		base := filepath.Base(path)
		page.Meta.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return page, nil
}
