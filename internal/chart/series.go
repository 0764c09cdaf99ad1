// Package chart shapes aggregate buckets into the category/value series
// handed to a rendering layer, and defines the dashboard's chart views.
package chart

import "github.com/TobiSchelling/vizboard/internal/aggregate"

// Series is the render-ready projection of a bucket sequence.
// Categories and Values always have the same length.
type Series struct {
	Categories []string  `json:"categories"`
	Values     []float64 `json:"values"`
}

// ToSeries projects buckets into a Series, preserving order.
func ToSeries(buckets []aggregate.Bucket) Series {
	s := Series{
		Categories: make([]string, len(buckets)),
		Values:     make([]float64, len(buckets)),
	}
	for i, b := range buckets {
		s.Categories[i] = b.Label
		s.Values[i] = b.Value
	}
	return s
}

// Len returns the number of points.
func (s Series) Len() int {
	return len(s.Categories)
}
