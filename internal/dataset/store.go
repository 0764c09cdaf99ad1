package dataset

import (
	"encoding/json"
	"errors"
	"slices"
	"strconv"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// ErrDataUnavailable marks a record fetch that failed or returned nothing.
// Callers fall back to an empty store.
var ErrDataUnavailable = errors.New("data unavailable")

var generations atomic.Uint64

// Store is an immutable snapshot of the fetched records in fetch order.
// A nil *Store behaves as an empty store.
type Store struct {
	records    []Record
	generation uint64
	digest     string
}

// NewStore copies records into a new snapshot with a fresh generation.
func NewStore(records []Record) *Store {
	return &Store{
		records:    slices.Clone(records),
		generation: generations.Add(1),
		digest:     digest(records),
	}
}

// digest hashes the records' JSON encoding in order. Map keys are sorted by
// encoding/json, so equal snapshots hash equally in every process.
func digest(records []Record) string {
	h := xxhash.New()
	enc := json.NewEncoder(h)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			// Unencodable records cannot be shared; fall back to the
			// process-local generation.
			return ""
		}
	}
	return strconv.Itoa(len(records)) + "-" + strconv.FormatUint(h.Sum64(), 16)
}

// Records returns the snapshot's records. The slice is shared with the
// store and must not be modified; appends reallocate.
func (s *Store) Records() []Record {
	if s == nil {
		return nil
	}
	return slices.Clip(s.records)
}

// Len returns the number of records.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// Digest identifies the snapshot's content. It is stable across processes,
// so it keys results shared through an external cache. Empty for a nil
// store or when the records could not be encoded.
func (s *Store) Digest() string {
	if s == nil {
		return ""
	}
	return s.digest
}

// Generation identifies the snapshot. Two stores never share a generation,
// so it is safe to use as a memoization key for derived results.
func (s *Store) Generation() uint64 {
	if s == nil {
		return 0
	}
	return s.generation
}
