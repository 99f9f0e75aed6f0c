package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Stem identifies one separated component of a song.
type Stem string

const (
	StemGuitar  Stem = "guitar"
	StemBacking Stem = "backingTrack"
)

// AllStems lists stems in voice order. The guitar stem comes first and is
// authoritative for duration and end-of-track.
var AllStems = []Stem{StemGuitar, StemBacking}

var titleCaser = cases.Title(language.English)

// DisplayName returns a human-readable stem name ("Backing Track").
func (s Stem) DisplayName() string {
	var words []string
	var cur strings.Builder
	for _, r := range string(s) {
		if unicode.IsUpper(r) && cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
		cur.WriteRune(unicode.ToLower(r))
	}
	if cur.Len() > 0 {
		words = append(words, cur.String())
	}
	return titleCaser.String(strings.Join(words, " "))
}

// Valid reports whether s names a known stem.
func (s Stem) Valid() bool {
	return s == StemGuitar || s == StemBacking
}

// Sources addresses the two stem resources of a song (file paths or URLs).
type Sources struct {
	Guitar  string `json:"guitar"`
	Backing string `json:"backingTrack"`
}

// For returns the source for the given stem.
func (s Sources) For(stem Stem) string {
	if stem == StemBacking {
		return s.Backing
	}
	return s.Guitar
}

// Track is a loaded song. Duration comes from the decoded guitar stem and
// never changes; only Name and Artist are editable.
type Track struct {
	Name            string  `json:"name"`
	Artist          string  `json:"artist"`
	DurationSeconds float64 `json:"duration_seconds"`
	Sources         Sources `json:"sources"`
}

// Metadata holds the editable descriptive fields of a track.
type Metadata struct {
	Name   string
	Artist string
}
