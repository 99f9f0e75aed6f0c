package stems

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/tessro/woodshed/internal/audio"
	werrors "github.com/tessro/woodshed/internal/errors"
)

// Format names a supported container.
type Format string

const (
	FormatUnknown Format = ""
	FormatWAV     Format = "wav"
	FormatMP3     Format = "mp3"
	FormatFLAC    Format = "flac"
	FormatVorbis  Format = "ogg"
)

// DetectFormat picks a decoder from the leading bytes, falling back to the
// extension of name.
func DetectFormat(name string, data []byte) Format {
	switch {
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return FormatWAV
	case len(data) >= 4 && string(data[:4]) == "fLaC":
		return FormatFLAC
	case len(data) >= 4 && string(data[:4]) == "OggS":
		return FormatVorbis
	case len(data) >= 3 && string(data[:3]) == "ID3":
		return FormatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return FormatMP3
	}

	switch strings.ToLower(path.Ext(stripQuery(name))) {
	case ".wav", ".wave":
		return FormatWAV
	case ".mp3":
		return FormatMP3
	case ".flac":
		return FormatFLAC
	case ".ogg", ".oga":
		return FormatVorbis
	}
	return FormatUnknown
}

// Decode decodes a complete stem into memory.
func Decode(name string, data []byte) (*audio.Buffer, error) {
	rc := io.NopCloser(bytes.NewReader(data))

	var (
		s      beep.StreamSeekCloser
		format beep.Format
		err    error
	)
	switch f := DetectFormat(name, data); f {
	case FormatWAV:
		s, format, err = wav.Decode(rc)
	case FormatMP3:
		s, format, err = mp3.Decode(rc)
	case FormatFLAC:
		s, format, err = flac.Decode(rc)
	case FormatVorbis:
		s, format, err = vorbis.Decode(rc)
	default:
		return nil, fmt.Errorf("%w: %s", werrors.ErrUnsupportedFormat, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", werrors.ErrDecode, err)
	}
	defer s.Close()

	buf, err := audio.NewBuffer(format, s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", werrors.ErrDecode, err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("%w: %s has no audio", werrors.ErrDecode, name)
	}
	return buf, nil
}

func stripQuery(name string) string {
	if u, err := url.Parse(name); err == nil && u.Scheme != "" {
		return u.Path
	}
	return name
}
