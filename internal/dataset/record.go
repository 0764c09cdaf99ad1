// Package dataset holds the raw record model and the read-only record store
// that every other engine reads from.
package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Field names a record attribute exactly as it appears in the source payload.
type Field string

const (
	FieldTopic      Field = "topic"
	FieldSector     Field = "sector"
	FieldYear       Field = "year"
	FieldCountry    Field = "country"
	FieldPestle     Field = "pestle"
	FieldSwot       Field = "swot"
	FieldLikelihood Field = "likelihood"
	FieldRelevance  Field = "relevance"
	FieldIntensity  Field = "intensity"
)

// KnownFields lists the typed fields in their canonical export order.
var KnownFields = []Field{
	FieldTopic, FieldSector, FieldYear, FieldCountry, FieldPestle,
	FieldSwot, FieldLikelihood, FieldRelevance, FieldIntensity,
}

// Record is one row of the dashboard data set. Fields not used by filtering
// or aggregation are carried in Extra, keyed by their source names.
type Record struct {
	Topic      string
	Sector     string
	Year       Number
	Country    string
	Pestle     string
	Swot       string
	Likelihood Number
	Relevance  Number
	Intensity  Number
	Extra      map[string]json.RawMessage
}

// Get returns the value of f as a string. Numbers use their shortest
// representation ("3", "2.5"); missing values are "".
func (r Record) Get(f Field) string {
	switch f {
	case FieldTopic:
		return r.Topic
	case FieldSector:
		return r.Sector
	case FieldYear:
		return r.Year.String()
	case FieldCountry:
		return r.Country
	case FieldPestle:
		return r.Pestle
	case FieldSwot:
		return r.Swot
	case FieldLikelihood:
		return r.Likelihood.String()
	case FieldRelevance:
		return r.Relevance.String()
	case FieldIntensity:
		return r.Intensity.String()
	}
	raw, ok := r.Extra[string(f)]
	if !ok {
		return ""
	}
	return rawString(raw)
}

// Measure returns f as a number. Non-numeric and missing values are invalid.
func (r Record) Measure(f Field) Number {
	switch f {
	case FieldYear:
		return r.Year
	case FieldLikelihood:
		return r.Likelihood
	case FieldRelevance:
		return r.Relevance
	case FieldIntensity:
		return r.Intensity
	}
	return ParseNumber(r.Get(f))
}

// Keys returns the record's field names: known fields first, then
// passthrough fields sorted by name.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(KnownFields)+len(r.Extra))
	for _, f := range KnownFields {
		keys = append(keys, string(f))
	}
	return append(keys, r.ExtraKeys()...)
}

// ExtraKeys returns the passthrough field names in sorted order.
func (r Record) ExtraKeys() []string {
	keys := make([]string, 0, len(r.Extra))
	for k := range r.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// UnmarshalJSON decodes a flat JSON object. Typed fields tolerate numbers
// sent as strings and empty strings for missing values.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding record: %w", err)
	}

	*r = Record{}
	for key, val := range raw {
		switch Field(key) {
		case FieldTopic:
			r.Topic = rawString(val)
		case FieldSector:
			r.Sector = rawString(val)
		case FieldCountry:
			r.Country = rawString(val)
		case FieldPestle:
			r.Pestle = rawString(val)
		case FieldSwot:
			r.Swot = rawString(val)
		case FieldYear:
			r.Year = ParseNumber(rawString(val))
		case FieldLikelihood:
			r.Likelihood = ParseNumber(rawString(val))
		case FieldRelevance:
			r.Relevance = ParseNumber(rawString(val))
		case FieldIntensity:
			r.Intensity = ParseNumber(rawString(val))
		default:
			if r.Extra == nil {
				r.Extra = make(map[string]json.RawMessage)
			}
			r.Extra[key] = append(json.RawMessage(nil), val...)
		}
	}
	return nil
}

// MarshalJSON encodes the record as a flat object using the source field
// names. Invalid numbers are written as null.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(KnownFields)+len(r.Extra))
	for k, v := range r.Extra {
		out[k] = v
	}
	out[string(FieldTopic)] = r.Topic
	out[string(FieldSector)] = r.Sector
	out[string(FieldYear)] = r.Year
	out[string(FieldCountry)] = r.Country
	out[string(FieldPestle)] = r.Pestle
	out[string(FieldSwot)] = r.Swot
	out[string(FieldLikelihood)] = r.Likelihood
	out[string(FieldRelevance)] = r.Relevance
	out[string(FieldIntensity)] = r.Intensity
	return json.Marshal(out)
}

// rawString renders a raw JSON value as plain text: strings are unquoted,
// null is empty, anything else keeps its JSON text.
func rawString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

// Number is a numeric field that may be missing or non-numeric in the source.
type Number struct {
	Value float64
	Valid bool
}

// Num returns a valid Number.
func Num(v float64) Number {
	return Number{Value: v, Valid: true}
}

// ParseNumber parses s; blank or non-numeric input yields an invalid Number.
func ParseNumber(s string) Number {
	s = strings.TrimSpace(s)
	if s == "" {
		return Number{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Number{}
	}
	return Num(v)
}

// Float returns the value, or 0 when the number is invalid.
func (n Number) Float() float64 {
	if !n.Valid {
		return 0
	}
	return n.Value
}

func (n Number) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(n.String()), nil
}

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = ParseNumber(rawString(data))
	return nil
}
