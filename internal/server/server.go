package server

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"github.com/TobiSchelling/vizboard/internal/dashboard"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var (
	md       = goldmark.New()
	sanitize = bluemonday.UGCPolicy()
)

// RefreshFunc reloads the record source and returns a one-line summary.
type RefreshFunc func(ctx context.Context) (string, error)

// Options configures a Server.
type Options struct {
	Dashboard *dashboard.Service
	// Notes holds markdown shown under each chart view, keyed by view name.
	Notes   map[string]string
	Refresh RefreshFunc
}

// Server is the HTTP server for the dashboard page and its JSON API.
type Server struct {
	dash    *dashboard.Service
	notes   map[string]template.HTML
	refresh RefreshFunc
	pages   map[string]*template.Template
	router  chi.Router
}

// New creates a new Server.
func New(opts Options) (*Server, error) {
	if opts.Dashboard == nil {
		return nil, fmt.Errorf("server requires a dashboard service")
	}

	funcMap := template.FuncMap{
		"formatValue": formatValue,
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// Each page gets its own clone of the base so {{define "content"}} does
	// not collide between pages.
	pageNames := []string{"dashboard.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	notes := make(map[string]template.HTML, len(opts.Notes))
	for view, text := range opts.Notes {
		notes[view] = renderMarkdown(text)
	}

	s := &Server{
		dash:    opts.Dashboard,
		notes:   notes,
		refresh: opts.Refresh,
		pages:   pages,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	staticSub, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	r.Get("/", s.handleDashboard)

	r.Route("/api", func(r chi.Router) {
		r.Get("/data", s.handleData)
		r.Get("/options/{dimension}", s.handleOptions)
		r.Get("/buckets/{field}", s.handleBuckets)
		r.Get("/charts", s.handleCharts)
		r.Get("/charts/{view}", s.handleChart)
		r.Get("/export.csv", s.handleExportCSV)
		r.Get("/export.pdf", s.handleExportPDF)
		r.Get("/preferences", s.handleGetPreferences)
		r.Put("/preferences", s.handlePutPreferences)
		r.Post("/refresh", s.handleRefresh)
	})
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		slog.Error("template not found", "template", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		slog.Error("rendering template", "template", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

// renderMarkdown converts note text to sanitized HTML.
func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(sanitize.SanitizeBytes(buf.Bytes())) //nolint: gosec
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// Serve starts the HTTP server on the given port and shuts it down when ctx
// is cancelled.
func Serve(ctx context.Context, opts Options, port int) error {
	srv, err := New(opts)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "url", "http://"+addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}
