package server

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/TobiSchelling/vizboard/internal/dataset"
	"github.com/TobiSchelling/vizboard/internal/filter"
)

const (
	// filterParam marks a query that carries an explicit selection, even an
	// empty one.
	filterParam = "f"
	revealParam = "reveal."
)

// hasFilter reports whether q selects anything or is marked as explicit.
func hasFilter(q url.Values) bool {
	if q.Has(filterParam) {
		return true
	}
	for _, dim := range filter.Dimensions {
		if q.Has(string(dim)) {
			return true
		}
	}
	return false
}

// parseFilter reads repeated dimension params (?topic=oil&topic=gas).
// Blank values are kept: they select records missing that field.
func parseFilter(q url.Values) filter.Spec {
	var spec filter.Spec
	for _, dim := range filter.Dimensions {
		if vals, ok := q[string(dim)]; ok {
			spec, _ = spec.With(dim, vals)
		}
	}
	return spec
}

// encodeFilter writes spec back into q, replacing any dimension params.
func encodeFilter(q url.Values, spec filter.Spec) {
	for _, dim := range filter.Dimensions {
		q.Del(string(dim))
		for _, v := range spec.Values(dim) {
			q.Add(string(dim), v)
		}
	}
	q.Set(filterParam, "1")
}

// parseReveals reads reveal.<view>=N params.
func parseReveals(q url.Values) map[string]int {
	out := make(map[string]int)
	for key, vals := range q {
		name, ok := strings.CutPrefix(key, revealParam)
		if !ok || name == "" || len(vals) == 0 {
			continue
		}
		if n, err := strconv.Atoi(vals[0]); err == nil && n > 0 {
			out[name] = n
		}
	}
	return out
}

func parseField(name string) dataset.Field {
	return dataset.Field(strings.TrimSpace(name))
}
