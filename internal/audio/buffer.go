package audio

import (
	"fmt"

	"github.com/gopxl/beep/v2"
)

// Buffer is a fully decoded stem. It is read-only once built and may be
// shared by any number of voices.
type Buffer struct {
	buf *beep.Buffer
}

// NewBuffer drains s into memory.
func NewBuffer(format beep.Format, s beep.Streamer) (*Buffer, error) {
	buf := beep.NewBuffer(format)
	buf.Append(s)
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("read samples: %w", err)
	}
	return &Buffer{buf: buf}, nil
}

// Format returns the buffer's sample format.
func (b *Buffer) Format() beep.Format {
	return b.buf.Format()
}

// Len returns the number of frames.
func (b *Buffer) Len() int {
	return b.buf.Len()
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	sr := b.buf.Format().SampleRate
	if sr == 0 {
		return 0
	}
	return float64(b.buf.Len()) / float64(sr)
}

// Size returns the approximate size of the source PCM in bytes.
func (b *Buffer) Size() uint64 {
	f := b.buf.Format()
	return uint64(b.buf.Len()) * uint64(f.NumChannels) * uint64(f.Precision)
}

// Frame converts seconds into a frame index clamped to [0, Len].
func (b *Buffer) Frame(seconds float64) int {
	n := int(seconds * float64(b.buf.Format().SampleRate))
	if n < 0 {
		return 0
	}
	if n > b.buf.Len() {
		return b.buf.Len()
	}
	return n
}

// Segment returns a streamer over [offset, end) in seconds.
func (b *Buffer) Segment(offset float64) beep.StreamSeeker {
	return b.buf.Streamer(b.Frame(offset), b.buf.Len())
}

// Range returns a streamer over [from, to) in seconds.
func (b *Buffer) Range(from, to float64) beep.StreamSeeker {
	start, end := b.Frame(from), b.Frame(to)
	if end < start {
		end = start
	}
	return b.buf.Streamer(start, end)
}
