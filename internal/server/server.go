// Package server serves the embed API and a live-reloading preview of a
// directory of posts.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"autoembed/internal/content"
	"autoembed/internal/embed"
	"autoembed/internal/httputil"
	"autoembed/internal/provider"
)

// Config configures a Server.
type Config struct {
	Rewriter *content.Rewriter
	Table    *provider.Table
	Dir      string // content directory served under /pages/, optional
	Logger   *slog.Logger
}

// Server is the preview server.
type Server struct {
	rw    *content.Rewriter
	table *provider.Table
	dir   string
	hub   *Hub
	log   *slog.Logger
}

// New creates a server. Without a Rewriter, links resolve through table
// with no fetcher and no overrides.
func New(cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	table := cfg.Table
	if table == nil {
		table = provider.Builtin()
	}
	rw := cfg.Rewriter
	if rw == nil {
		rw = content.NewRewriter(embed.NewResolver(table, embed.WithLogger(log)), content.Options{Logger: log})
	}
	dir := cfg.Dir
	if dir != "" {
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
	}
	return &Server{
		rw:    rw,
		table: table,
		dir:   dir,
		hub:   newHub(log),
		log:   log,
	}
}

// Handler returns the server's routes wrapped in its middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /embed", s.handleEmbed)
	mux.HandleFunc("GET /providers", s.handleProviders)
	mux.HandleFunc("GET /preview", s.handlePreview)
	mux.HandleFunc("GET /pages/{path...}", s.handlePage)
	mux.Handle("GET /ws", s.hub)
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/pages/", http.StatusFound)
	})

	return Chain(mux,
		Recover(s.log),
		Logger(s.log),
		NoCache(),
		OTel("autoembed"),
	)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("serving", "addr", addr, "dir", s.dir)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "providers": s.table.Len()})
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	url, width, height, err := embedQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})
		return
	}

	e, err := s.rw.ResolveSize(r.Context(), url, width, height)
	if err != nil {
		s.writeResolveError(w, url, err)
		return
	}
	writeJSON(w, http.StatusOK, e.Document())
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.table.Summaries(r.URL.Query().Get("q")))
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	url, width, height, err := embedQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	e, err := s.rw.ResolveSize(r.Context(), url, width, height)
	if err != nil {
		if errors.Is(err, embed.ErrNotEmbeddable) {
			http.Error(w, "no embeddable media found", http.StatusNotFound)
			return
		}
		s.log.Error("resolving preview", "url", url, "error", err)
		http.Error(w, "resolution failed", http.StatusInternalServerError)
		return
	}

	s.renderPage(w, http.StatusOK, pageData{
		Title: e.Rule().Title,
		Body:  template.HTML(`<div class="autoembed">` + e.HTML() + `</div>`),
		URL:   url,
	})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if s.dir == "" {
		http.NotFound(w, r)
		return
	}

	rel := r.PathValue("path")
	path, err := httputil.SafePath(s.dir, rel)
	if err != nil {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if info.IsDir() {
		s.renderIndex(w, path)
		return
	}
	if !content.IsPost(path) {
		http.ServeFile(w, r, path)
		return
	}

	page, err := s.rw.RenderFile(r.Context(), path)
	if err != nil {
		s.log.Error("rendering page", "path", rel, "error", err)
		http.Error(w, "rendering failed", http.StatusInternalServerError)
		return
	}
	s.renderPage(w, http.StatusOK, pageData{
		Title: page.Meta.Title,
		Body:  template.HTML(page.HTML),
	})
}

// renderIndex lists the posts below dir.
func (s *Server) renderIndex(w http.ResponseWriter, dir string) {
	var links []indexLink
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && strings.HasPrefix(d.Name(), ".") && path != dir {
			return filepath.SkipDir
		}
		if d.IsDir() || !content.IsPost(path) {
			return nil
		}
		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		links = append(links, indexLink{Name: filepath.ToSlash(rel), Href: "/pages/" + filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		s.log.Error("listing posts", "dir", dir, "error", err)
		http.Error(w, "listing failed", http.StatusInternalServerError)
		return
	}
	s.renderPage(w, http.StatusOK, pageData{Title: "Posts", Links: links})
}

func (s *Server) writeResolveError(w http.ResponseWriter, url string, err error) {
	if errors.Is(err, embed.ErrNotEmbeddable) {
		// Both failure kinds look the same to clients.
		writeJSON(w, http.StatusNotFound, errorResponse{"no embeddable media found"})
		return
	}
	s.log.Error("resolving", "url", url, "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{"resolution failed"})
}

// embedQuery reads url, width and height from the query string.
func embedQuery(r *http.Request) (string, int, int, error) {
	q := r.URL.Query()
	url := strings.TrimSpace(q.Get("url"))
	if url == "" {
		return "", 0, 0, errors.New("missing url parameter")
	}

	size := func(name string) (int, error) {
		v := q.Get(name)
		if v == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 4096 {
			return 0, fmt.Errorf("invalid %s %q", name, v)
		}
		return n, nil
	}
	width, err := size("width")
	if err != nil {
		return "", 0, 0, err
	}
	height, err := size("height")
	if err != nil {
		return "", 0, 0, err
	}
	return url, width, height, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
