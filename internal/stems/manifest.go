package stems

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/tessro/woodshed/internal/core"
)

// Manifest is the completion payload of the stem separation service.
type Manifest struct {
	OriginalFilename string            `json:"original_filename"`
	Stems            map[string]string `json:"stems"`
}

// ParseManifest decodes and checks a manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	for _, stem := range core.AllStems {
		if m.Stems[string(stem)] == "" {
			return nil, fmt.Errorf("parse manifest: missing %s stem", stem)
		}
	}
	return &m, nil
}

// Sources returns the stem sources listed in the manifest.
func (m *Manifest) Sources() core.Sources {
	return core.Sources{
		Guitar:  m.Stems[string(core.StemGuitar)],
		Backing: m.Stems[string(core.StemBacking)],
	}
}

// Metadata derives a song name from the uploaded filename.
func (m *Manifest) Metadata() core.Metadata {
	return core.Metadata{Name: SongName(m.OriginalFilename)}
}

// SongName turns a filename like "Artist - Song.mp3" into "Artist - Song".
func SongName(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}
