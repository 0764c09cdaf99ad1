// Package dashboard serves filtered and aggregated views of the current
// record snapshot. The snapshot is swapped atomically on reload; derived
// results are memoized per snapshot generation and chart frames are cached
// by snapshot content.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/TobiSchelling/vizboard/internal/aggregate"
	"github.com/TobiSchelling/vizboard/internal/cache"
	"github.com/TobiSchelling/vizboard/internal/chart"
	"github.com/TobiSchelling/vizboard/internal/config"
	"github.com/TobiSchelling/vizboard/internal/dataset"
	"github.com/TobiSchelling/vizboard/internal/filter"
)

const maxMemoEntries = 256

// Preference keys.
const (
	PrefTheme  = "theme"
	PrefFilter = "filter"
)

// ErrNoPreferences is returned when saving without a preference store.
var ErrNoPreferences = errors.New("no preference store configured")

// ErrInvalidTheme is returned when saving a theme outside config.Themes.
var ErrInvalidTheme = errors.New("invalid theme")

// Preferences persists user view state. SetPreferences writes all values
// or none.
type Preferences interface {
	GetPreference(key string) (string, bool, error)
	SetPreferences(values map[string]string) error
}

// Options configures a Service.
type Options struct {
	Views       []chart.View
	Cache       cache.Cache
	Preferences Preferences
	Theme       string
}

// Service is safe for concurrent use.
type Service struct {
	store        atomic.Pointer[dataset.Store]
	views        []chart.View
	cache        cache.Cache
	prefs        Preferences
	defaultTheme string

	mu      sync.Mutex
	memoGen uint64
	memo    map[string][]dataset.Record
}

// New creates a service with an empty snapshot.
func New(opts Options) *Service {
	views := opts.Views
	if len(views) == 0 {
		views = chart.DefaultViews
	}
	c := opts.Cache
	if c == nil {
		c = cache.Nop{}
	}
	theme := opts.Theme
	if !config.ValidTheme(theme) {
		theme = config.Themes[0]
	}
	s := &Service{
		views:        views,
		cache:        c,
		prefs:        opts.Preferences,
		defaultTheme: theme,
		memo:         make(map[string][]dataset.Record),
	}
	s.store.Store(dataset.NewStore(nil))
	return s
}

// Reload replaces the snapshot. Readers holding the old store keep it.
func (s *Service) Reload(records []dataset.Record) *dataset.Store {
	st := dataset.NewStore(records)
	s.store.Store(st)
	slog.Debug("dashboard snapshot replaced", "records", st.Len(), "generation", st.Generation())
	return st
}

// Store returns the current snapshot.
func (s *Service) Store() *dataset.Store {
	return s.store.Load()
}

// Views returns the configured chart views.
func (s *Service) Views() []chart.View {
	return s.views
}

// Options returns the option set for dim over the whole snapshot.
func (s *Service) Options(dim dataset.Field) []string {
	return filter.DeriveOptions(s.Store().Records(), dim)
}

// Filter returns the records matching spec. The result is shared between
// callers and must not be modified.
func (s *Service) Filter(spec filter.Spec) []dataset.Record {
	return s.filter(s.Store(), spec)
}

func (s *Service) filter(st *dataset.Store, spec filter.Spec) []dataset.Record {
	if spec.IsEmpty() {
		return st.Records()
	}
	key := spec.Key()

	s.mu.Lock()
	if s.memoGen == st.Generation() {
		if out, ok := s.memo[key]; ok {
			s.mu.Unlock()
			return out
		}
	}
	s.mu.Unlock()

	out := slices.Clip(filter.Apply(st.Records(), spec))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.memoGen != st.Generation() || len(s.memo) >= maxMemoEntries {
		if st.Generation() < s.memoGen {
			return out
		}
		clear(s.memo)
		s.memoGen = st.Generation()
	}
	s.memo[key] = out
	return out
}

// Buckets aggregates the filtered records by field. An empty measure counts
// records; otherwise measure is summed.
func (s *Service) Buckets(spec filter.Spec, field, measure dataset.Field) []aggregate.Bucket {
	records := s.Filter(spec)
	if measure == "" {
		return aggregate.CountBy(records, aggregate.By(field))
	}
	return aggregate.SumBy(records, aggregate.By(field), aggregate.MeasureOf(measure))
}

// Chart renders the named view over the filtered records. revealed is the
// caller's reveal count for paged views.
func (s *Service) Chart(ctx context.Context, name string, spec filter.Spec, revealed int) (chart.Frame, error) {
	f, _, err := s.CachedChart(ctx, name, spec, revealed)
	return f, err
}

// CachedChart is Chart that also reports whether the frame came from the
// cache.
func (s *Service) CachedChart(ctx context.Context, name string, spec filter.Spec, revealed int) (chart.Frame, bool, error) {
	v, err := chart.Lookup(s.views, name)
	if err != nil {
		return chart.Frame{}, false, err
	}
	f, hit := s.render(ctx, s.Store(), v, spec, revealed)
	return f, hit, nil
}

// Frames renders every view. reveals holds per-view reveal counts.
func (s *Service) Frames(ctx context.Context, spec filter.Spec, reveals map[string]int) []chart.Frame {
	st := s.Store()
	frames := make([]chart.Frame, 0, len(s.views))
	for _, v := range s.views {
		f, _ := s.render(ctx, st, v, spec, reveals[v.Name])
		frames = append(frames, f)
	}
	return frames
}

func (s *Service) render(ctx context.Context, st *dataset.Store, v chart.View, spec filter.Spec, revealed int) (chart.Frame, bool) {
	// The cache may be shared with other processes, so frames are keyed by
	// snapshot content rather than the process-local generation.
	snapshot := st.Digest()
	if snapshot == "" {
		return chart.Render(s.filter(st, spec), v, revealed), false
	}
	key := cache.Key(
		snapshot,
		v.Name,
		strconv.Itoa(v.PageSize),
		strconv.Itoa(max(revealed, 0)),
		spec.Key(),
	)

	if data, ok, err := s.cache.Get(ctx, key); err != nil {
		slog.Warn("chart cache read failed", "view", v.Name, "error", err)
	} else if ok {
		var f chart.Frame
		if err := json.Unmarshal(data, &f); err == nil {
			return f, true
		}
	}

	f := chart.Render(s.filter(st, spec), v, revealed)

	if data, err := json.Marshal(f); err == nil {
		if err := s.cache.Set(ctx, key, data); err != nil {
			slog.Warn("chart cache write failed", "view", v.Name, "error", err)
		}
	}
	return f, false
}

// Theme returns the saved theme, falling back to the configured default.
func (s *Service) Theme() string {
	if s.prefs == nil {
		return s.defaultTheme
	}
	theme, ok, err := s.prefs.GetPreference(PrefTheme)
	if err != nil {
		slog.Warn("reading theme preference", "error", err)
		return s.defaultTheme
	}
	if !ok || !config.ValidTheme(theme) {
		return s.defaultTheme
	}
	return theme
}

// SetTheme saves theme.
func (s *Service) SetTheme(theme string) error {
	if !config.ValidTheme(theme) {
		return fmt.Errorf("%w %q", ErrInvalidTheme, theme)
	}
	return s.SavePreferences(theme, nil)
}

// SavePreferences validates and stores a theme and a filter together. An
// empty theme or nil spec leaves that preference unchanged. Nothing is
// written unless every value is valid.
func (s *Service) SavePreferences(theme string, spec *filter.Spec) error {
	values := make(map[string]string, 2)
	if theme != "" {
		if !config.ValidTheme(theme) {
			return fmt.Errorf("%w %q", ErrInvalidTheme, theme)
		}
		values[PrefTheme] = theme
	}
	if spec != nil {
		data, err := json.Marshal(spec)
		if err != nil {
			return fmt.Errorf("encoding filter: %w", err)
		}
		values[PrefFilter] = string(data)
	}
	if s.prefs == nil {
		return ErrNoPreferences
	}
	if len(values) == 0 {
		return nil
	}
	return s.prefs.SetPreferences(values)
}

// SavedFilter returns the saved filter selection. ok is false when nothing
// has been saved.
func (s *Service) SavedFilter() (spec filter.Spec, ok bool, err error) {
	if s.prefs == nil {
		return filter.Spec{}, false, nil
	}
	raw, ok, err := s.prefs.GetPreference(PrefFilter)
	if err != nil || !ok {
		return filter.Spec{}, false, err
	}
	if err := json.Unmarshal([]byte(raw), &spec); err != nil {
		return filter.Spec{}, false, fmt.Errorf("decoding saved filter: %w", err)
	}
	return spec, true, nil
}

// SaveFilter stores spec as the saved selection.
func (s *Service) SaveFilter(spec filter.Spec) error {
	return s.SavePreferences("", &spec)
}

// InitialFilter is the selection a fresh dashboard opens with: the saved
// filter if any, otherwise the default seeded from the snapshot.
func (s *Service) InitialFilter() filter.Spec {
	spec, ok, err := s.SavedFilter()
	if err != nil {
		slog.Warn("reading saved filter", "error", err)
	}
	if ok {
		return spec
	}
	return filter.Default(s.Store().Records())
}
