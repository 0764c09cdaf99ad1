// Package aggregate groups records into labeled buckets for charting.
//
// Bucket order is always the order in which each key first appears in the
// input, never alphabetical or by value: chart category order depends on it.
package aggregate

import "github.com/TobiSchelling/vizboard/internal/dataset"

// Bucket is one labeled aggregate value.
type Bucket struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// KeyFunc extracts the grouping key from a record.
type KeyFunc func(dataset.Record) string

// ValueFunc extracts the value summed into a bucket. Invalid numbers count as 0.
type ValueFunc func(dataset.Record) dataset.Number

// By groups on the string value of f.
func By(f dataset.Field) KeyFunc {
	return func(r dataset.Record) string { return r.Get(f) }
}

// MeasureOf reads f as a number.
func MeasureOf(f dataset.Field) ValueFunc {
	return func(r dataset.Record) dataset.Number { return r.Measure(f) }
}

// CountBy counts records per key.
func CountBy(records []dataset.Record, key KeyFunc) []Bucket {
	return group(records, key, func(dataset.Record) float64 { return 1 })
}

// SumBy sums value per key.
func SumBy(records []dataset.Record, key KeyFunc, value ValueFunc) []Bucket {
	return group(records, key, func(r dataset.Record) float64 { return value(r).Float() })
}

// Frequency counts records per value of f. Topic, sector, year, likelihood,
// pestle and swot frequencies are all this function with a different field.
func Frequency(records []dataset.Record, f dataset.Field) []Bucket {
	return CountBy(records, By(f))
}

// Total sums bucket values.
func Total(buckets []Bucket) float64 {
	var total float64
	for _, b := range buckets {
		total += b.Value
	}
	return total
}

func group(records []dataset.Record, key KeyFunc, value func(dataset.Record) float64) []Bucket {
	index := make(map[string]int)
	buckets := make([]Bucket, 0)
	for _, r := range records {
		k := key(r)
		i, ok := index[k]
		if !ok {
			i = len(buckets)
			index[k] = i
			buckets = append(buckets, Bucket{Label: k})
		}
		buckets[i].Value += value(r)
	}
	return buckets
}
