package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/TobiSchelling/vizboard/internal/aggregate"
	"github.com/TobiSchelling/vizboard/internal/chart"
	"github.com/TobiSchelling/vizboard/internal/dashboard"
	"github.com/TobiSchelling/vizboard/internal/dataset"
	"github.com/TobiSchelling/vizboard/internal/export"
	"github.com/TobiSchelling/vizboard/internal/filter"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// handleData returns the filtered records in the same shape the record
// source serves them.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	records := s.dash.Filter(parseFilter(r.URL.Query()))
	if records == nil {
		records = []dataset.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	dim, err := filter.ParseDimension(chi.URLParam(r, "dimension"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"dimension": dim,
		"options":   s.dash.Options(dim),
	})
}

func (s *Server) handleBuckets(w http.ResponseWriter, r *http.Request) {
	field := parseField(chi.URLParam(r, "field"))
	if field == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing field"))
		return
	}
	q := r.URL.Query()
	measure := parseField(q.Get("measure"))

	buckets := s.dash.Buckets(parseFilter(q), field, measure)
	writeJSON(w, http.StatusOK, map[string]any{
		"field":   field,
		"measure": measure,
		"buckets": buckets,
		"total":   aggregate.Total(buckets),
	})
}

type chartResponse struct {
	Frame chart.Frame `json:"frame"`
	Next  int         `json:"next"`
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	revealed, _ := strconv.Atoi(q.Get("revealed"))

	f, hit, err := s.dash.CachedChart(r.Context(), chi.URLParam(r, "view"), parseFilter(q), revealed)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	writeJSON(w, http.StatusOK, chartResponse{Frame: f, Next: f.Next()})
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	frames := s.dash.Frames(r.Context(), parseFilter(q), parseReveals(q))
	out := make([]chartResponse, len(frames))
	for i, f := range frames {
		out[i] = chartResponse{Frame: f, Next: f.Next()}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	records := s.dash.Filter(parseFilter(r.URL.Query()))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment("csv"))
	if err := export.WriteCSV(w, records); err != nil {
		slog.Error("exporting CSV", "error", err)
	}
}

// writePDF renders PDF exports. Tests replace it to force failures.
var writePDF = export.WritePDF

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	records := s.dash.Filter(parseFilter(r.URL.Query()))
	var buf bytes.Buffer
	if err := writePDF(&buf, "Dashboard records", records); err != nil {
		slog.Error("exporting PDF", "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("rendering PDF: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", attachment("pdf"))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("sending PDF", "error", err)
	}
}

func attachment(ext string) string {
	return fmt.Sprintf(`attachment; filename="vizboard-%s.%s"`, time.Now().Format("20060102"), ext)
}

type preferencesBody struct {
	Theme  string       `json:"theme,omitempty"`
	Filter *filter.Spec `json:"filter,omitempty"`
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	resp := preferencesBody{Theme: s.dash.Theme()}
	spec, ok, err := s.dash.SavedFilter()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if ok {
		resp.Filter = &spec
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePutPreferences(w http.ResponseWriter, r *http.Request) {
	var req preferencesBody
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding preferences: %w", err))
		return
	}

	if err := s.dash.SavePreferences(req.Theme, req.Filter); err != nil {
		writeError(w, preferenceStatus(err), err)
		return
	}
	s.handleGetPreferences(w, r)
}

func preferenceStatus(err error) int {
	switch {
	case errors.Is(err, dashboard.ErrNoPreferences):
		return http.StatusServiceUnavailable
	case errors.Is(err, dashboard.ErrInvalidTheme):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refresh == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("refresh not configured"))
		return
	}
	summary, err := s.refresh(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summary": summary,
		"records": s.dash.Store().Len(),
	})
}
