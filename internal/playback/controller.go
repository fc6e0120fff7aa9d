// Package playback drives time-based playback over a range of enriched
// points: elapsed-time bookkeeping, seeking, and interpolation between
// samples.
package playback

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/planbiir/skitrack/internal/track"
)

// ErrNoPoints is returned by New for an empty range.
var ErrNoPoints = errors.New("playback: no points")

// resyncThreshold is how far the externally selected point may drift from
// the internal clock before Play snaps to it.
const resyncThreshold = 2000.0 // ms

// State is a snapshot of the controller.
type State struct {
	Elapsed  time.Duration
	Speed    float64
	Playing  bool
	Index    int
	Selected int
	Sample   *track.Point // nil unless interpolated
}

// Controller owns the playback clock for one point range. It is not safe for
// concurrent use; see Driver.
//
// Wall-clock time enters only through Tick, so tests drive it with synthetic
// timestamps.
type Controller struct {
	points    []track.Point
	origin    time.Time
	offsets   []float64 // ms since origin, per point
	monotonic bool

	elapsed  float64 // ms
	speed    float64
	playing  bool
	current  int
	selected int // externally selected index, -1 for none
	sample   *track.Point
	lastWall time.Time
}

// New creates a paused controller over points. Points without a timestamp
// inherit the offset of the previous point.
func New(points []track.Point) (*Controller, error) {
	if len(points) == 0 {
		return nil, ErrNoPoints
	}

	c := &Controller{
		points:    points,
		offsets:   make([]float64, len(points)),
		monotonic: true,
		speed:     1,
		selected:  -1,
	}

	for _, p := range points {
		if p.HasTime() {
			c.origin = p.Time
			break
		}
	}

	for i, p := range points {
		switch {
		case p.HasTime():
			c.offsets[i] = millis(p.Time.Sub(c.origin))
		case i > 0:
			c.offsets[i] = c.offsets[i-1]
		}
		if i > 0 && c.offsets[i] < c.offsets[i-1] {
			c.monotonic = false
		}
	}

	return c, nil
}

// Len returns the number of points in range.
func (c *Controller) Len() int { return len(c.points) }

// Points returns the controlled range.
func (c *Controller) Points() []track.Point { return c.points }

// Start returns the timestamp elapsed time is measured from.
func (c *Controller) Start() time.Time { return c.origin }

// Span returns the time covered by the range.
func (c *Controller) Span() time.Duration {
	return duration(c.offsets[len(c.offsets)-1])
}

// Playing reports whether the clock is running.
func (c *Controller) Playing() bool { return c.playing }

// Index returns the current point index.
func (c *Controller) Index() int { return c.current }

// Elapsed returns the logical playback time since the start of the range.
func (c *Controller) Elapsed() time.Duration { return duration(c.elapsed) }

// Speed returns the current multiplier.
func (c *Controller) Speed() float64 { return c.speed }

// Progress returns elapsed time as a fraction of the range span, in [0, 1].
func (c *Controller) Progress() float64 {
	span := c.offsets[len(c.offsets)-1]
	if span <= 0 {
		return 0
	}
	return math.Max(0, math.Min(1, c.elapsed/span))
}

// State returns a snapshot.
func (c *Controller) State() State {
	s := State{
		Elapsed:  c.Elapsed(),
		Speed:    c.speed,
		Playing:  c.playing,
		Index:    c.current,
		Selected: c.selected,
	}
	if c.sample != nil {
		sample := *c.sample
		s.Sample = &sample
	}
	return s
}

// Play starts the clock. With an external selection the elapsed time is
// resynchronized to it when the two disagree by more than two seconds, and
// restarts from zero when the selection is the last point. Without a
// selection playback restarts from zero. Play reports false and does nothing
// for ranges of fewer than two points.
func (c *Controller) Play() bool {
	if len(c.points) < 2 {
		return false
	}
	if c.playing {
		return true
	}

	last := len(c.points) - 1
	switch {
	case c.selected == last:
		c.elapsed = 0
	case c.selected >= 0:
		if implied := c.offsets[c.selected]; math.Abs(c.elapsed-implied) > resyncThreshold {
			c.elapsed = implied
		}
	default:
		c.elapsed = 0
	}

	c.lastWall = time.Time{}
	c.playing = true
	return true
}

// Pause stops the clock. Elapsed time is kept.
func (c *Controller) Pause() {
	c.playing = false
	c.lastWall = time.Time{}
}

// SetSpeedMultiplier changes how fast elapsed time advances per unit of wall
// time. Non-positive values reset to 1x.
func (c *Controller) SetSpeedMultiplier(x float64) {
	if x <= 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		x = 1
	}
	c.speed = x
}

// Seek moves the clock to an absolute timestamp.
func (c *Controller) Seek(at time.Time) {
	c.SeekOffset(at.Sub(c.origin))
}

// SeekOffset moves the clock to an offset from the start of the range. The
// next Tick measures its wall-clock delta from scratch. Offsets past the last
// point move only the clock.
func (c *Controller) SeekOffset(offset time.Duration) {
	c.elapsed = millis(offset)
	c.lastWall = time.Time{}

	if len(c.points) < 2 {
		return
	}
	if idx := c.find(c.elapsed); idx >= 0 {
		c.moveTo(idx, c.elapsed)
	}
}

// Tick advances the clock to the wall-clock time now and reports whether
// playback is still running. The first Tick after Play, Seek or Pause only
// records now. Reaching the last timestamp clamps to the last point and
// stops playback.
func (c *Controller) Tick(now time.Time) bool {
	if !c.playing {
		return false
	}

	if !c.lastWall.IsZero() {
		if delta := now.Sub(c.lastWall); delta > 0 {
			c.elapsed += millis(delta) * c.speed
		}
	}
	c.lastWall = now

	last := len(c.points) - 1
	if c.elapsed >= c.offsets[last] {
		c.current = last
		c.selected = last
		c.sample = nil
		c.playing = false
		return false
	}

	if idx := c.find(c.elapsed); idx >= 0 {
		c.moveTo(idx, c.elapsed)
	}
	return true
}

// Select records an externally chosen index such as a hover or scrub
// position; -1 clears it. Selecting a point while playing pauses first. The
// selection does not move the clock until the next Play.
func (c *Controller) Select(idx int) {
	if idx < 0 {
		c.selected = -1
		return
	}
	if c.playing {
		c.Pause()
	}
	c.selected = min(idx, len(c.points)-1)
}

// Selected returns the external selection, or -1.
func (c *Controller) Selected() int { return c.selected }

// Current returns the point to display: the interpolated sample while
// playing, otherwise the selected point, otherwise the first point.
func (c *Controller) Current() track.Point {
	if c.playing && c.sample != nil {
		return *c.sample
	}
	if c.selected >= 0 {
		return c.points[c.selected]
	}
	return c.points[0]
}

func (c *Controller) moveTo(idx int, target float64) {
	c.current = idx
	c.selected = idx

	if idx == 0 {
		p := c.points[0]
		c.sample = &p
		return
	}

	t1, t2 := c.offsets[idx-1], c.offsets[idx]
	p := c.points[idx]
	if t2 > t1 {
		p = Lerp(c.points[idx-1], c.points[idx], (target-t1)/(t2-t1))
	}
	c.sample = &p
}

// find returns the first index whose offset is at or after target, or -1.
func (c *Controller) find(target float64) int {
	if c.monotonic {
		i := sort.SearchFloat64s(c.offsets, target)
		if i == len(c.offsets) {
			return -1
		}
		return i
	}

	for i, t := range c.offsets {
		if t >= target {
			return i
		}
	}
	return -1
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func duration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
