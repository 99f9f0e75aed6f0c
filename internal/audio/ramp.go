package audio

import "github.com/gopxl/beep/v2"

// Ramp scales a streamer by a gain that moves linearly to its target over a
// fixed number of frames. It is not safe for concurrent use; callers lock
// the speaker around SetTarget.
type Ramp struct {
	s         beep.Streamer
	gain      float64
	target    float64
	step      float64
	length    int
	remaining int
}

// NewRamp wraps s starting at gain from and moving to gain to over length
// frames.
func NewRamp(s beep.Streamer, from, to float64, length int) *Ramp {
	r := &Ramp{s: s, gain: from, target: from, length: length}
	r.SetTarget(to)
	return r
}

// SetTarget starts a new ramp from the current gain to g.
func (r *Ramp) SetTarget(g float64) {
	r.target = g
	if r.length <= 0 || g == r.gain {
		r.gain = g
		r.remaining = 0
		return
	}
	r.step = (g - r.gain) / float64(r.length)
	r.remaining = r.length
}

// Target returns the gain being ramped to.
func (r *Ramp) Target() float64 {
	return r.target
}

// Stream implements beep.Streamer.
func (r *Ramp) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = r.s.Stream(samples)
	for i := range samples[:n] {
		if r.remaining > 0 {
			r.gain += r.step
			r.remaining--
			if r.remaining == 0 {
				r.gain = r.target
			}
		}
		samples[i][0] *= r.gain
		samples[i][1] *= r.gain
	}
	return n, ok
}

// Err implements beep.Streamer.
func (r *Ramp) Err() error {
	return r.s.Err()
}
