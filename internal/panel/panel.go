// Package panel implements the Panel Model (spec §4.7): a per-panel stack
// of navigational modes, the current listing, cursor/scroll/filter/sort
// state, and the transition rules between modes.
package panel

import (
	"github.com/s3c/s3c/internal/model"
)

// Side identifies which of the two panels a PanelState belongs to.
type Side int

const (
	Left Side = iota
	Right
)

// Kind is one of the navigational modes in spec §4.7's mode hierarchy.
type Kind int

const (
	ModeSelect Kind = iota
	ProfileList
	BucketList
	S3Browser
	LocalRoots
	LocalBrowser
	Preview
)

// Frame is one level of a panel's mode stack. Only the fields relevant to
// Kind are meaningful; this is a tagged variant, not a type hierarchy, so
// business logic dispatches on Kind rather than on a Frame subtype.
type Frame struct {
	Kind    Kind
	Profile string // BucketList, S3Browser
	Bucket  string // S3Browser
	Prefix  string // S3Browser: current key prefix
	Path    string // LocalBrowser: current filesystem path
}

// State is the full per-panel state (spec §3).
type State struct {
	Side  Side
	Stack []Frame

	Listing  model.Listing // unfiltered listing as loaded from the gateway
	Cursor   int
	Scroll   int
	Filter   string
	Sort     model.SortKey
	Loading  bool
	// Generation increments on every navigation away; async results
	// tagged with a stale generation are discarded by the reducer (spec
	// §5, §8).
	Generation int
}

// New returns a fresh panel starting at ModeSelect.
func New(side Side) *State {
	return &State{Side: side, Stack: []Frame{{Kind: ModeSelect}}}
}

// Current returns the top-of-stack Frame.
func (s *State) Current() Frame {
	if len(s.Stack) == 0 {
		return Frame{Kind: ModeSelect}
	}
	return s.Stack[len(s.Stack)-1]
}

// Push descends into a new mode, bumping Generation and resetting
// cursor/scroll/filter (a fresh listing is about to replace the old one).
func (s *State) Push(f Frame) {
	s.Stack = append(s.Stack, f)
	s.reset()
}

// Pop ascends one level. It is a no-op returning false at the root frame
// (the caller is responsible for the ModeSelect boundary per spec §4.7
// "at mode root the pop goes to ModeSelect").
func (s *State) Pop() (Frame, bool) {
	if len(s.Stack) <= 1 {
		return Frame{}, false
	}
	s.Stack = s.Stack[:len(s.Stack)-1]
	s.reset()
	return s.Current(), true
}

// ReplaceTop swaps the top frame in place without changing Generation or
// clearing the listing — used when a Frame's fields are refined without a
// real navigation (e.g. attaching a resolved bucket name).
func (s *State) ReplaceTop(f Frame) {
	if len(s.Stack) == 0 {
		s.Stack = []Frame{f}
		return
	}
	s.Stack[len(s.Stack)-1] = f
}

func (s *State) reset() {
	s.Generation++
	s.Cursor = 0
	s.Scroll = 0
	s.Filter = ""
	s.Listing = nil
}

// SetListing installs a freshly loaded listing, clamping the cursor back
// into range (spec §8's listing invariant).
func (s *State) SetListing(entries model.Listing) {
	s.Listing = entries
	s.clampCursor()
}

// Filtered returns the current listing sorted by Sort and then narrowed
// by Filter (sort-then-filter and filter-then-sort commute for a
// substring filter).
func (s *State) Filtered() model.Listing {
	sorted := model.SortListing(s.Listing, s.Sort)
	return model.Filter(sorted, s.Filter)
}

// SetFilter updates the substring filter and clamps the cursor against
// the newly filtered length.
func (s *State) SetFilter(pattern string) {
	s.Filter = pattern
	s.clampCursor()
}

// SetSort updates the sort key. Sorting does not change which entries are
// visible, only their order, so the cursor does not need reclamping
// beyond bounds (still clamped defensively).
func (s *State) SetSort(key model.SortKey) {
	s.Sort = key
	s.clampCursor()
}

func (s *State) clampCursor() {
	n := len(s.Filtered())
	if n == 0 {
		s.Cursor = 0
		return
	}
	if s.Cursor >= n {
		s.Cursor = n - 1
	}
	if s.Cursor < 0 {
		s.Cursor = 0
	}
}

// MoveCursor shifts the cursor by delta, clamped to the filtered listing's
// bounds.
func (s *State) MoveCursor(delta int) {
	s.Cursor += delta
	s.clampCursor()
}

// SelectedEntry returns the entry under the cursor, or false if the
// filtered listing is empty.
func (s *State) SelectedEntry() (model.Entry, bool) {
	filtered := s.Filtered()
	if len(filtered) == 0 {
		return model.Entry{}, false
	}
	s.clampCursor()
	return filtered[s.Cursor], true
}
