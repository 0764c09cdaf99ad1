// Package paging implements the "load more" reveal cursor used by paged
// chart views. The state is a plain value owned by the caller; nothing here
// holds the sequence being paged.
package paging

import "fmt"

// State is a monotonic reveal cursor over a sequence.
type State struct {
	WindowSize int `json:"window_size"`
	Revealed   int `json:"revealed"`
}

// Init starts a cursor showing the first window. windowSize must be positive.
func Init(total, windowSize int) State {
	mustPositive(windowSize)
	return State{WindowSize: windowSize, Revealed: min(windowSize, max(total, 0))}
}

func mustPositive(windowSize int) {
	if windowSize <= 0 {
		panic(fmt.Sprintf("paging: window size must be positive, got %d", windowSize))
	}
}

// Reset is Init under the name used when the upstream sequence changed.
func Reset(total, windowSize int) State {
	return Init(total, windowSize)
}

// Restore rebuilds a cursor from an externally supplied reveal count, as
// carried in a query string. The count is clamped to [first window, total].
func Restore(total, windowSize, revealed int) State {
	s := Init(total, windowSize)
	if revealed > s.Revealed {
		s.Revealed = min(revealed, max(total, 0))
	}
	return s
}

// Advance reveals one more window, never past total. At total it is a no-op.
// s must come from Init, Reset or Restore; a zero State panics.
func Advance(s State, total int) State {
	mustPositive(s.WindowSize)
	total = max(total, 0)
	if s.Revealed >= total {
		s.Revealed = total
		return s
	}
	s.Revealed = min(s.Revealed+s.WindowSize, total)
	return s
}

// HasMore reports whether Advance would reveal anything.
func (s State) HasMore(total int) bool {
	return s.Revealed < total
}

// VisibleSlice returns the revealed prefix of source. Revealed is clamped to
// len(source), so a stale cursor over a shorter sequence is safe.
func VisibleSlice[T any](source []T, s State) []T {
	n := min(max(s.Revealed, 0), len(source))
	return source[:n:n]
}
