// Package loop implements the practice loop state machine.
//
// A controller is in one of three states: no loop, an active loop, or an
// inactive loop remembered for the next toggle. Regions are always at least
// the minimum duration long and inside [0, duration]; anything shorter is
// discarded rather than kept.
package loop

import (
	"math"

	"github.com/tessro/woodshed/internal/core"
)

// Defaults.
const (
	DefaultMinDuration   = 2.0
	DefaultLength        = 10.0
	DefaultDragThreshold = 3.0
)

// State is the controller state.
type State int

const (
	NoLoop State = iota
	Active
	Inactive
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Inactive:
		return "inactive"
	default:
		return "none"
	}
}

// ActionKind tells the caller what to do after a gesture.
type ActionKind int

const (
	// ActionNone requires nothing.
	ActionNone ActionKind = iota
	// ActionSeek asks for a plain seek to Action.Seek.
	ActionSeek
	// ActionCommitted means a region became active; seek to Action.Seek.
	ActionCommitted
	// ActionEdited means the active region changed; no seek.
	ActionEdited
)

// Action is the outcome of a gesture or toggle.
type Action struct {
	Kind ActionKind
	Seek float64
}

// Seeks reports whether the caller should relocate the transport.
func (a Action) Seeks() bool {
	return a.Kind == ActionSeek || a.Kind == ActionCommitted
}

// Option configures a Controller.
type Option func(*Controller)

// WithMinDuration sets the shortest allowed region.
func WithMinDuration(d float64) Option {
	return func(c *Controller) {
		if d > 0 {
			c.minDuration = d
		}
	}
}

// WithDefaultLength sets the length of the region created by toggling on
// with nothing saved.
func WithDefaultLength(d float64) Option {
	return func(c *Controller) {
		if d > 0 {
			c.defaultLength = d
		}
	}
}

// WithDragThreshold sets how far the pointer must move, in pixels or
// cells, before a press counts as a drag.
func WithDragThreshold(px float64) Option {
	return func(c *Controller) {
		if px >= 0 {
			c.dragThreshold = px
		}
	}
}

type dragMode int

const (
	dragCreate dragMode = iota
	dragEdit
)

type drag struct {
	mode      dragMode
	t0        float64
	px0       float64
	moved     bool
	moveStart bool
	region    core.LoopRegion
}

// Controller owns the loop region of one track. It is not safe for
// concurrent use.
type Controller struct {
	minDuration   float64
	defaultLength float64
	dragThreshold float64

	duration float64
	active   *core.LoopRegion
	saved    *core.LoopRegion
	drag     *drag
}

// New returns a controller with no track.
func New(opts ...Option) *Controller {
	c := &Controller{
		minDuration:   DefaultMinDuration,
		defaultLength: DefaultLength,
		dragThreshold: DefaultDragThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetDuration binds the controller to a new track and forgets all regions.
func (c *Controller) SetDuration(d float64) {
	c.duration = math.Max(0, d)
	c.Clear()
}

// Clear drops both the active and the saved region.
func (c *Controller) Clear() {
	c.active = nil
	c.saved = nil
	c.drag = nil
}

// State returns the current state.
func (c *Controller) State() State {
	switch {
	case c.active != nil:
		return Active
	case c.saved != nil:
		return Inactive
	default:
		return NoLoop
	}
}

// IsLooping reports whether a region is active.
func (c *Controller) IsLooping() bool {
	return c.active != nil
}

// Region returns a copy of the active region, or nil.
func (c *Controller) Region() *core.LoopRegion {
	return copyRegion(c.active)
}

// Saved returns a copy of the remembered inactive region, or nil.
func (c *Controller) Saved() *core.LoopRegion {
	return copyRegion(c.saved)
}

// Provisional returns the region being drawn by an in-progress create drag.
func (c *Controller) Provisional() *core.LoopRegion {
	if c.drag == nil || c.drag.mode != dragCreate || !c.drag.moved {
		return nil
	}
	r := c.drag.region
	return &r
}

// Dragging reports whether a pointer gesture is in progress.
func (c *Controller) Dragging() bool {
	return c.drag != nil
}

// Toggle turns looping off, remembering the region, or back on. With
// nothing remembered it creates a default region centered on the track,
// provided the track is longer than that region.
func (c *Controller) Toggle() Action {
	if c.active != nil {
		c.saved = c.active
		c.active = nil
		return Action{}
	}
	if c.saved != nil {
		c.active = c.saved
		c.saved = nil
		return Action{Kind: ActionCommitted, Seek: c.active.Start}
	}
	if c.duration > c.defaultLength {
		mid := c.duration / 2
		c.active = &core.LoopRegion{Start: mid - c.defaultLength/2, End: mid + c.defaultLength/2}
		return Action{Kind: ActionCommitted, Seek: c.active.Start}
	}
	return Action{}
}

// SetRegion activates [start, end], as when jumping to a bookmark. Bounds
// are clamped to the track; a region that ends up too short is discarded
// and the caller is asked to seek to start instead.
func (c *Controller) SetRegion(start, end float64) Action {
	if c.duration <= 0 {
		return Action{}
	}
	start, end = c.clamp(start), c.clamp(end)
	if end < start {
		start, end = end, start
	}
	c.drag = nil
	if end-start < c.minDuration {
		c.active = nil
		return Action{Kind: ActionSeek, Seek: start}
	}
	c.active = &core.LoopRegion{Start: start, End: end}
	c.saved = nil
	return Action{Kind: ActionCommitted, Seek: start}
}

// Wrap returns the loop start when pos has reached the end of the active
// region.
func (c *Controller) Wrap(pos float64) (float64, bool) {
	if c.active == nil || pos < c.active.End {
		return 0, false
	}
	return c.active.Start, true
}

// PointerDown starts a gesture at song time t and screen coordinate px.
// With an active region the gesture edits the endpoint nearer to t;
// otherwise it draws a new region.
func (c *Controller) PointerDown(t, px float64) {
	if c.duration <= 0 {
		return
	}
	t = c.clamp(t)
	d := &drag{t0: t, px0: px, mode: dragCreate, region: core.LoopRegion{Start: t, End: t}}
	if c.active != nil {
		d.mode = dragEdit
		d.moveStart = math.Abs(t-c.active.Start) <= math.Abs(t-c.active.End)
	}
	c.drag = d
}

// PointerMove updates an in-progress gesture.
func (c *Controller) PointerMove(t, px float64) {
	d := c.drag
	if d == nil {
		return
	}
	if !d.moved && math.Abs(px-d.px0) < c.dragThreshold {
		return
	}
	d.moved = true
	t = c.clamp(t)

	switch d.mode {
	case dragCreate:
		d.region = core.LoopRegion{Start: math.Min(d.t0, t), End: math.Max(d.t0, t)}
	case dragEdit:
		c.moveEndpoint(d.moveStart, t)
		if c.active == nil {
			// Collapsed; the rest of the gesture is a no-op.
			c.drag = nil
		}
	}
}

// PointerUp finishes a gesture and reports what the caller should do.
func (c *Controller) PointerUp(t, px float64) Action {
	c.PointerMove(t, px)
	d := c.drag
	c.drag = nil
	if d == nil {
		return Action{}
	}

	if !d.moved {
		if d.mode == dragEdit && c.active != nil {
			c.moveEndpoint(d.moveStart, d.t0)
			return Action{Kind: ActionEdited}
		}
		return Action{Kind: ActionSeek, Seek: d.t0}
	}

	switch d.mode {
	case dragCreate:
		if d.region.Duration() < c.minDuration {
			return Action{Kind: ActionSeek, Seek: d.t0}
		}
		r := d.region
		c.active = &r
		c.saved = nil
		return Action{Kind: ActionCommitted, Seek: r.Start}
	default:
		return Action{Kind: ActionEdited}
	}
}

// moveEndpoint moves one endpoint of the active region to t, keeping the
// other fixed and the region at least minDuration long.
func (c *Controller) moveEndpoint(start bool, t float64) {
	if c.active == nil {
		return
	}
	r := *c.active
	if start {
		r.Start = math.Max(0, math.Min(t, r.End-c.minDuration))
	} else {
		r.End = math.Min(c.duration, math.Max(t, r.Start+c.minDuration))
	}
	// The clamp above already holds the minimum; the tolerance absorbs
	// rounding in End-minDuration.
	if r.Duration() < c.minDuration-durationEpsilon {
		c.active = nil
		return
	}
	c.active = &r
}

// durationEpsilon is the rounding slack allowed when checking a clamped
// region against the minimum duration.
const durationEpsilon = 1e-9

func (c *Controller) clamp(t float64) float64 {
	if t < 0 || math.IsNaN(t) {
		return 0
	}
	return math.Min(t, c.duration)
}

func copyRegion(r *core.LoopRegion) *core.LoopRegion {
	if r == nil {
		return nil
	}
	out := *r
	return &out
}
