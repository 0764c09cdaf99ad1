// Package filter selects records by dimension values and derives the option
// lists offered for each filterable dimension.
package filter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/TobiSchelling/vizboard/internal/dataset"
)

// Dimensions are the fields a Spec can constrain, in display order.
var Dimensions = []dataset.Field{
	dataset.FieldTopic,
	dataset.FieldSector,
	dataset.FieldYear,
	dataset.FieldCountry,
	dataset.FieldPestle,
	dataset.FieldSwot,
}

// Spec holds the selected values per dimension. Values are OR-combined
// within a dimension and AND-combined across dimensions. An empty list
// places no constraint on its dimension.
type Spec struct {
	Topics    []string `json:"topics" yaml:"topics"`
	Sectors   []string `json:"sectors" yaml:"sectors"`
	Years     []string `json:"years" yaml:"years"`
	Countries []string `json:"countries,omitempty" yaml:"countries,omitempty"`
	Pestles   []string `json:"pestles,omitempty" yaml:"pestles,omitempty"`
	Swots     []string `json:"swots,omitempty" yaml:"swots,omitempty"`
}

// ParseDimension maps a dimension name, singular or plural, to its field.
func ParseDimension(name string) (dataset.Field, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.TrimSuffix(n, "s")
	if n == "countrie" {
		n = "country"
	}
	for _, d := range Dimensions {
		if string(d) == n {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown filter dimension %q", name)
}

// Values returns the selected values for dim.
func (s Spec) Values(dim dataset.Field) []string {
	switch dim {
	case dataset.FieldTopic:
		return s.Topics
	case dataset.FieldSector:
		return s.Sectors
	case dataset.FieldYear:
		return s.Years
	case dataset.FieldCountry:
		return s.Countries
	case dataset.FieldPestle:
		return s.Pestles
	case dataset.FieldSwot:
		return s.Swots
	}
	return nil
}

// With returns a copy of s with dim's selection replaced by values.
func (s Spec) With(dim dataset.Field, values []string) (Spec, error) {
	values = slices.Clone(values)
	switch dim {
	case dataset.FieldTopic:
		s.Topics = values
	case dataset.FieldSector:
		s.Sectors = values
	case dataset.FieldYear:
		s.Years = values
	case dataset.FieldCountry:
		s.Countries = values
	case dataset.FieldPestle:
		s.Pestles = values
	case dataset.FieldSwot:
		s.Swots = values
	default:
		return s, fmt.Errorf("unknown filter dimension %q", dim)
	}
	return s, nil
}

// IsEmpty reports whether no dimension is constrained.
func (s Spec) IsEmpty() bool {
	for _, d := range Dimensions {
		if len(s.Values(d)) > 0 {
			return false
		}
	}
	return true
}

// Key returns a canonical encoding of s: equal selections give equal keys
// regardless of value order or duplicates.
func (s Spec) Key() string {
	var b strings.Builder
	for _, d := range Dimensions {
		vals := s.Values(d)
		if len(vals) == 0 {
			continue
		}
		sorted := slices.Clone(vals)
		slices.Sort(sorted)
		sorted = slices.Compact(sorted)
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(string(d))
		b.WriteByte('=')
		for i, v := range sorted {
			if i > 0 {
				b.WriteByte('|')
			}
			b.WriteString(escapeKey(v))
		}
	}
	return b.String()
}

func escapeKey(v string) string {
	return strings.NewReplacer(`\`, `\\`, "|", `\|`, "&", `\&`).Replace(v)
}

// DeriveOptions returns the distinct values of dim in records, in order of
// first occurrence.
func DeriveOptions(records []dataset.Record, dim dataset.Field) []string {
	seen := make(map[string]bool)
	options := make([]string, 0)
	for _, r := range records {
		v := r.Get(dim)
		if seen[v] {
			continue
		}
		seen[v] = true
		options = append(options, v)
	}
	return options
}

// Apply returns the records matching spec, preserving their order.
// Values absent from the data simply match nothing.
func Apply(records []dataset.Record, spec Spec) []dataset.Record {
	type constraint struct {
		dim dataset.Field
		set map[string]bool
	}

	var constraints []constraint
	for _, d := range Dimensions {
		vals := spec.Values(d)
		if len(vals) == 0 {
			continue
		}
		set := make(map[string]bool, len(vals))
		for _, v := range vals {
			set[v] = true
		}
		constraints = append(constraints, constraint{dim: d, set: set})
	}

	out := make([]dataset.Record, 0, len(records))
	for _, r := range records {
		pass := true
		for _, c := range constraints {
			if !c.set[r.Get(c.dim)] {
				pass = false
				break
			}
		}
		if pass {
			out = append(out, r)
		}
	}
	return out
}

// Default seeds a view: for topic, sector and year it selects the first
// value observed. No records yields an empty Spec.
func Default(records []dataset.Record) Spec {
	if len(records) == 0 {
		return Spec{Topics: []string{}, Sectors: []string{}, Years: []string{}}
	}
	first := records[0]
	return Spec{
		Topics:  []string{first.Get(dataset.FieldTopic)},
		Sectors: []string{first.Get(dataset.FieldSector)},
		Years:   []string{first.Get(dataset.FieldYear)},
	}
}
