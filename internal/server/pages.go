package server

import (
	"html/template"
	"net/http"
	"net/url"
	"slices"
	"strconv"

	"github.com/TobiSchelling/vizboard/internal/chart"
	"github.com/TobiSchelling/vizboard/internal/filter"
)

type optionItem struct {
	Value    string
	Selected bool
}

type dimensionForm struct {
	Name    string
	Options []optionItem
}

type chartRow struct {
	Label string
	Value float64
}

type chartSection struct {
	Frame   chart.Frame
	Rows    []chartRow
	Note    template.HTML
	MoreURL template.URL
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var spec filter.Spec
	if hasFilter(q) {
		spec = parseFilter(q)
	} else {
		spec = s.dash.InitialFilter()
	}

	dims := make([]dimensionForm, 0, len(filter.Dimensions))
	for _, dim := range filter.Dimensions {
		selected := spec.Values(dim)
		form := dimensionForm{Name: string(dim)}
		for _, opt := range s.dash.Options(dim) {
			form.Options = append(form.Options, optionItem{Value: opt, Selected: slices.Contains(selected, opt)})
		}
		dims = append(dims, form)
	}

	frames := s.dash.Frames(r.Context(), spec, parseReveals(q))
	sections := make([]chartSection, 0, len(frames))
	for _, f := range frames {
		sec := chartSection{Frame: f, Note: s.notes[f.View]}
		for i, label := range f.Series.Categories {
			sec.Rows = append(sec.Rows, chartRow{Label: label, Value: f.Series.Values[i]})
		}
		if f.HasMore {
			sec.MoreURL = moreURL(r, spec, f)
		}
		sections = append(sections, sec)
	}

	s.render(w, "dashboard.html", map[string]any{
		"Theme":    s.dash.Theme(),
		"Total":    s.dash.Store().Len(),
		"Matching": len(s.dash.Filter(spec)),
		"Dims":     dims,
		"Sections": sections,
		"CSVURL":   exportURL("/api/export.csv", spec),
		"PDFURL":   exportURL("/api/export.pdf", spec),
	})
}

// moreURL links to the same page with one more window revealed for f.
func moreURL(r *http.Request, spec filter.Spec, f chart.Frame) template.URL {
	q := r.URL.Query()
	encodeFilter(q, spec)
	q.Set(revealParam+f.View, strconv.Itoa(f.Next()))
	return template.URL("/?" + q.Encode() + "#view-" + f.View)
}

func exportURL(path string, spec filter.Spec) template.URL {
	q := url.Values{}
	encodeFilter(q, spec)
	return template.URL(path + "?" + q.Encode())
}
