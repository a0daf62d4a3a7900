// Package browse implements incremental result windowing: a growing visible
// prefix over one ranked list, restarted whenever the active search changes.
package browse

import "github.com/popopopopo1155/manga-reach/internal/domain"

// Window tracks the number of visible results. Growth is monotone between
// resets, and the visible slice is always a strict prefix of the ranked list,
// so loading more never reorders what is already shown.
type Window struct {
	initial      int
	displayCount int
}

// NewWindow creates a window opened at the initial size.
func NewWindow(initial int) Window {
	if initial < 0 {
		initial = 0
	}
	return Window{initial: initial, displayCount: initial}
}

// Reset restores the window to its initial size. Invoked whenever the active
// query or tag filter changes.
func (w *Window) Reset() {
	w.displayCount = w.initial
}

// LoadMore grows the window. Growing past the end of the ranked list is a
// no-op at render time, not an error.
func (w *Window) LoadMore(increment int) {
	if increment > 0 {
		w.displayCount += increment
	}
}

// Visible returns the ranked prefix of length min(displayCount, len(ranked)).
func (w *Window) Visible(ranked []domain.Work) []domain.Work {
	if w.displayCount >= len(ranked) {
		return ranked
	}
	return ranked[:w.displayCount]
}

// HasMore reports whether the ranked list extends beyond the window.
func (w *Window) HasMore(ranked []domain.Work) bool {
	return w.displayCount < len(ranked)
}

// DisplayCount returns the current window size.
func (w *Window) DisplayCount() int {
	return w.displayCount
}
