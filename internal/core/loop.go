package core

import "sort"

// LoopRegion is a practice loop in song seconds.
type LoopRegion struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the region length in seconds.
func (r LoopRegion) Duration() float64 {
	return r.End - r.Start
}

// Contains reports whether t lies in [Start, End).
func (r LoopRegion) Contains(t float64) bool {
	return t >= r.Start && t < r.End
}

// Bookmark is a persisted loop snapshot.
type Bookmark struct {
	ID    int64   `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Label string  `json:"label"`
}

// Region returns the bookmark's loop region.
func (b Bookmark) Region() LoopRegion {
	return LoopRegion{Start: b.Start, End: b.End}
}

// Bookmarks is a list of bookmarks for one track.
type Bookmarks []Bookmark

// Sorted returns a copy ordered by start time.
func (bs Bookmarks) Sorted() Bookmarks {
	out := make(Bookmarks, len(bs))
	copy(out, bs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// Find returns the bookmark with the given ID, or nil.
func (bs Bookmarks) Find(id int64) *Bookmark {
	for i := range bs {
		if bs[i].ID == id {
			return &bs[i]
		}
	}
	return nil
}

// Len returns the number of bookmarks.
func (bs Bookmarks) Len() int {
	return len(bs)
}
