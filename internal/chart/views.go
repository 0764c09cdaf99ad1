package chart

import (
	"fmt"

	"github.com/TobiSchelling/vizboard/internal/aggregate"
	"github.com/TobiSchelling/vizboard/internal/dataset"
	"github.com/TobiSchelling/vizboard/internal/paging"
)

// Kind is a rendering hint only; nothing here depends on it.
type Kind string

const (
	KindBar      Kind = "bar"
	KindLine     Kind = "line"
	KindPie      Kind = "pie"
	KindRadar    Kind = "radar"
	KindDoughnut Kind = "doughnut"
	KindBubble   Kind = "bubble"
)

// Op selects how a view turns records into buckets.
type Op string

const (
	// OpCount counts records per key.
	OpCount Op = "count"
	// OpSum sums Measure per key.
	OpSum Op = "sum"
	// OpEach emits one point per record: key as label, Measure as value.
	OpEach Op = "each"
)

// DefaultPageSize is the "load more" window for paged views.
const DefaultPageSize = 5

// View describes one chart on the dashboard.
type View struct {
	Name     string        `json:"name"`
	Title    string        `json:"title"`
	Kind     Kind          `json:"kind"`
	Key      dataset.Field `json:"key"`
	Op       Op            `json:"op"`
	Measure  dataset.Field `json:"measure,omitempty"`
	Paged    bool          `json:"paged"`
	PageSize int           `json:"page_size,omitempty"`
}

// DefaultViews are the dashboard charts in display order.
var DefaultViews = []View{
	{Name: "intensity", Title: "Intensity by Topic", Kind: KindBar, Key: dataset.FieldTopic, Op: OpSum, Measure: dataset.FieldIntensity, Paged: true, PageSize: DefaultPageSize},
	{Name: "likelihood", Title: "Likelihood", Kind: KindRadar, Key: dataset.FieldLikelihood, Op: OpCount},
	{Name: "relevance", Title: "Relevance", Kind: KindBubble, Key: dataset.FieldTopic, Op: OpEach, Measure: dataset.FieldRelevance, Paged: true, PageSize: DefaultPageSize},
	{Name: "yearly-trends", Title: "Yearly Trends", Kind: KindLine, Key: dataset.FieldYear, Op: OpCount, Paged: true, PageSize: DefaultPageSize},
	{Name: "topics", Title: "Topics", Kind: KindBar, Key: dataset.FieldTopic, Op: OpCount, Paged: true, PageSize: DefaultPageSize},
	{Name: "sectors", Title: "Sectors", Kind: KindBar, Key: dataset.FieldSector, Op: OpCount},
	{Name: "pestle", Title: "PESTLE", Kind: KindPie, Key: dataset.FieldPestle, Op: OpCount},
	{Name: "swot", Title: "SWOT", Kind: KindDoughnut, Key: dataset.FieldSwot, Op: OpCount},
	{Name: "countries", Title: "Countries", Kind: KindBar, Key: dataset.FieldCountry, Op: OpCount, Paged: true, PageSize: DefaultPageSize},
}

// Lookup finds a view by name in views.
func Lookup(views []View, name string) (View, error) {
	for _, v := range views {
		if v.Name == name {
			return v, nil
		}
	}
	return View{}, fmt.Errorf("unknown chart view %q", name)
}

// ConfigureViews returns a copy of views with page sizes applied: size for
// every paged view, then per-view overrides. Non-positive sizes are ignored.
func ConfigureViews(views []View, size int, overrides map[string]int) []View {
	out := make([]View, len(views))
	copy(out, views)
	for i := range out {
		if !out[i].Paged {
			continue
		}
		if size > 0 {
			out[i].PageSize = size
		}
		if n, ok := overrides[out[i].Name]; ok && n > 0 {
			out[i].PageSize = n
		}
		if out[i].PageSize <= 0 {
			out[i].PageSize = DefaultPageSize
		}
	}
	return out
}

// Buckets aggregates records for the view.
func (v View) Buckets(records []dataset.Record) []aggregate.Bucket {
	switch v.Op {
	case OpSum:
		return aggregate.SumBy(records, aggregate.By(v.Key), aggregate.MeasureOf(v.Measure))
	case OpEach:
		buckets := make([]aggregate.Bucket, len(records))
		for i, r := range records {
			buckets[i] = aggregate.Bucket{Label: r.Get(v.Key), Value: r.Measure(v.Measure).Float()}
		}
		return buckets
	default:
		return aggregate.CountBy(records, aggregate.By(v.Key))
	}
}

// Frame is one rendered view: the visible series plus enough state for the
// caller to ask for the next window.
type Frame struct {
	View    string        `json:"view"`
	Title   string        `json:"title"`
	Kind    Kind          `json:"kind"`
	Series  Series        `json:"series"`
	Total   int           `json:"total"`
	Paging  *paging.State `json:"paging,omitempty"`
	HasMore bool          `json:"has_more"`
	Empty   bool          `json:"empty"`
}

// Render builds the frame for v. For paged views revealed is the caller's
// reveal count; zero or less starts at the first window.
func Render(records []dataset.Record, v View, revealed int) Frame {
	buckets := v.Buckets(records)
	f := Frame{
		View:  v.Name,
		Title: v.Title,
		Kind:  v.Kind,
		Total: len(buckets),
		Empty: len(buckets) == 0,
	}

	if !v.Paged {
		f.Series = ToSeries(buckets)
		return f
	}

	size := v.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	state := paging.Restore(len(buckets), size, revealed)
	f.Series = ToSeries(paging.VisibleSlice(buckets, state))
	f.Paging = &state
	f.HasMore = state.HasMore(len(buckets))
	return f
}

// Next returns the reveal count for the frame's "load more" action.
func (f Frame) Next() int {
	if f.Paging == nil {
		return f.Total
	}
	return paging.Advance(*f.Paging, f.Total).Revealed
}
