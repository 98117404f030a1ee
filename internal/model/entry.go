// Package model holds the data types shared between gateways, the panel
// model, and the renderer (spec §3): listing entries, sort keys, and the
// small value types that do not belong to any one component.
package model

import (
	"sort"
	"strings"
	"time"
)

// EntryKind tags what a listing row represents. Matching on this tag (not a
// type hierarchy) is how the renderer and the panel model dispatch
// behavior for heterogeneous entry kinds (profiles, buckets, keys, paths).
type EntryKind int

const (
	Up EntryKind = iota
	Directory
	File
	Bucket
	Profile
	// ModeChoice is a ModeSelect row: the panel's choice between browsing
	// object storage and the local filesystem (Metadata["target"] is "s3"
	// or "local").
	ModeChoice
)

// Entry is one row of a Listing.
type Entry struct {
	Name     string
	Kind     EntryKind
	Size     int64
	HasSize  bool
	MTime    time.Time
	HasMTime bool
	// Metadata carries kind-specific extras (etag, description, orphan
	// flag) without forcing a type hierarchy on callers.
	Metadata map[string]string
}

// Listing is an ordered sequence of entries, optionally already filtered.
type Listing []Entry

// WithUp returns entries prefixed with a synthetic ".." entry, unless
// hasParent is false.
func WithUp(entries []Entry, hasParent bool) Listing {
	if !hasParent {
		return Listing(entries)
	}
	out := make(Listing, 0, len(entries)+1)
	out = append(out, Entry{Name: "..", Kind: Up})
	out = append(out, entries...)
	return out
}

// SortField is one of the three sortable columns.
type SortField int

const (
	SortName SortField = iota
	SortSize
	SortDate
)

// SortDirection is ascending or descending.
type SortDirection int

const (
	Asc SortDirection = iota
	Desc
)

// SortKey pairs a field with a direction (spec §3, panel state).
type SortKey struct {
	Field SortField
	Dir   SortDirection
}

// normName is the locale-free comparison key: lowercase, pure code-unit
// order (no collation), per spec §8's total-order testable property.
func normName(s string) string {
	return strings.ToLower(s)
}

func lessByField(a, b Entry, f SortField) bool {
	switch f {
	case SortSize:
		return a.Size < b.Size
	case SortDate:
		return a.MTime.Before(b.MTime)
	default:
		return normName(a.Name) < normName(b.Name)
	}
}

// sortLess keeps Up first regardless of direction (it's a navigation
// affordance, not a sortable row), then groups Directory/File and orders
// by the requested field and direction. The kind grouping flips with Dir
// too, so reversing Dir reverses the listing exactly (spec §8): within an
// equal-kind group the field comparison is a strict total order, and the
// two kind groups swap places as well.
func sortLess(a, b Entry, key SortKey) bool {
	if a.Kind == Up || b.Kind == Up {
		return a.Kind == Up && b.Kind != Up
	}
	if (a.Kind == Directory) != (b.Kind == Directory) {
		if key.Dir == Desc {
			return a.Kind != Directory
		}
		return a.Kind == Directory
	}
	if key.Dir == Desc {
		return lessByField(b, a, key.Field)
	}
	return lessByField(a, b, key.Field)
}

// SortListing returns a sorted copy of entries per key.
func SortListing(entries Listing, key SortKey) Listing {
	out := make(Listing, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool { return sortLess(out[i], out[j], key) })
	return out
}

// Filter returns the subset of entries whose Name contains pattern,
// case-insensitively. The Up entry always survives the filter. Applying
// the same filter twice yields the same listing (spec §8).
func Filter(entries Listing, pattern string) Listing {
	if pattern == "" {
		return entries
	}
	needle := strings.ToLower(pattern)
	out := make(Listing, 0, len(entries))
	for _, e := range entries {
		if e.Kind == Up || strings.Contains(strings.ToLower(e.Name), needle) {
			out = append(out, e)
		}
	}
	return out
}
