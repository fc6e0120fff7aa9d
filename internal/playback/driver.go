package playback

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/planbiir/skitrack/internal/track"
)

// DefaultFrameInterval is roughly one display frame at 60 Hz.
const DefaultFrameInterval = 16 * time.Millisecond

const frameBuffer = 64

// Frame is emitted after every tick and every external seek or selection.
type Frame struct {
	Index   int
	Point   track.Point
	Playing bool
	Elapsed time.Duration
}

// Option configures a Driver.
type Option func(*Driver)

// WithInterval sets the frame interval.
func WithInterval(d time.Duration) Option {
	return func(dr *Driver) {
		if d > 0 {
			dr.interval = d
		}
	}
}

// WithClock replaces time.Now as the wall clock fed to Tick.
func WithClock(now func() time.Time) Option {
	return func(dr *Driver) {
		if now != nil {
			dr.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(dr *Driver) {
		if l != nil {
			dr.logger = l
		}
	}
}

// Driver runs a Controller from a ticker goroutine. All methods are safe for
// concurrent use. At most one frame loop runs at a time, and no tick reaches
// the controller after Pause returns.
type Driver struct {
	mu       sync.Mutex
	ctrl     *Controller
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger

	frames chan Frame
	cancel context.CancelFunc
	done   chan struct{}
}

// NewDriver wraps ctrl. The driver takes ownership of it.
func NewDriver(ctrl *Controller, opts ...Option) *Driver {
	d := &Driver{
		ctrl:     ctrl,
		interval: DefaultFrameInterval,
		now:      time.Now,
		logger:   slog.Default(),
		frames:   make(chan Frame, frameBuffer),
		done:     make(chan struct{}),
	}
	close(d.done)

	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Frames delivers playback frames. Frames are dropped when the receiver
// falls behind.
func (d *Driver) Frames() <-chan Frame { return d.frames }

// Done is closed when the current frame loop has exited. It is already
// closed while no loop runs.
func (d *Driver) Done() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.done
}

// Play starts playback and the frame loop. It reports false when the range
// cannot be played. Cancelling ctx pauses playback.
func (d *Driver) Play(ctx context.Context) bool {
	return d.start(ctx, nil)
}

// PlayFrom starts playback at offset from the range start. The clock is moved
// after Play, so the offset is not resynchronized to a selection and the
// first frame already reports it.
func (d *Driver) PlayFrom(ctx context.Context, offset time.Duration) bool {
	return d.start(ctx, &offset)
}

func (d *Driver) start(ctx context.Context, offset *time.Duration) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancel != nil {
		if offset != nil {
			d.ctrl.SeekOffset(*offset)
		}
		return true
	}
	if !d.ctrl.Play() {
		d.logger.Debug("playback refused", "points", d.ctrl.Len())
		return false
	}
	if offset != nil {
		d.ctrl.SeekOffset(*offset)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	d.cancel, d.done = cancel, done

	d.logger.Debug("playback started",
		"elapsed", d.ctrl.Elapsed(),
		"speed", d.ctrl.Speed(),
		"interval", d.interval)

	go d.loop(loopCtx, done)
	return true
}

// Pause stops playback and waits for the frame loop to exit.
func (d *Driver) Pause() {
	d.mu.Lock()
	d.ctrl.Pause()
	cancel, done := d.cancel, d.done
	d.cancel = nil
	d.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Toggle pauses a running driver or starts a stopped one.
func (d *Driver) Toggle(ctx context.Context) bool {
	d.mu.Lock()
	playing := d.ctrl.Playing()
	d.mu.Unlock()

	if playing {
		d.Pause()
		return false
	}
	return d.Play(ctx)
}

// Seek moves the playback clock to an absolute timestamp.
func (d *Driver) Seek(at time.Time) {
	d.mu.Lock()
	d.ctrl.Seek(at)
	f := d.frame()
	d.mu.Unlock()

	d.emit(f)
}

// SeekOffset moves the playback clock to an offset from the range start.
func (d *Driver) SeekOffset(offset time.Duration) {
	d.mu.Lock()
	d.ctrl.SeekOffset(offset)
	f := d.frame()
	d.mu.Unlock()

	d.emit(f)
}

// Select records an external selection; selecting a point pauses playback.
func (d *Driver) Select(idx int) {
	if idx >= 0 {
		d.Pause()
	}

	d.mu.Lock()
	d.ctrl.Select(idx)
	f := d.frame()
	d.mu.Unlock()

	d.emit(f)
}

// SetSpeedMultiplier changes the playback rate.
func (d *Driver) SetSpeedMultiplier(x float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ctrl.SetSpeedMultiplier(x)
}

// CycleSpeed advances to the next speed step and returns it.
func (d *Driver) CycleSpeed() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	next := NextSpeed(d.ctrl.Speed())
	d.ctrl.SetSpeedMultiplier(next)
	return next
}

// State returns a controller snapshot.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ctrl.State()
}

// Progress returns the controller progress in [0, 1].
func (d *Driver) Progress() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ctrl.Progress()
}

func (d *Driver) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	if !d.tick(done) {
		return
	}

	for {
		select {
		case <-ctx.Done():
			d.mu.Lock()
			if d.done == done && d.cancel != nil {
				d.ctrl.Pause()
				d.cancel()
				d.cancel = nil
				d.logger.Debug("playback cancelled", "elapsed", d.ctrl.Elapsed())
			}
			d.mu.Unlock()
			return
		case <-ticker.C:
			if !d.tick(done) {
				return
			}
		}
	}
}

// tick advances the controller once and reports whether the loop continues.
func (d *Driver) tick(done chan struct{}) bool {
	d.mu.Lock()
	if !d.ctrl.Playing() {
		d.mu.Unlock()
		return false
	}

	playing := d.ctrl.Tick(d.now())
	f := d.frame()
	if !playing && d.done == done && d.cancel != nil {
		d.cancel()
		d.cancel = nil
		d.logger.Debug("playback reached end", "index", d.ctrl.Index())
	}
	d.mu.Unlock()

	d.emit(f)
	return playing
}

func (d *Driver) frame() Frame {
	return Frame{
		Index:   d.ctrl.Index(),
		Point:   d.ctrl.Current(),
		Playing: d.ctrl.Playing(),
		Elapsed: d.ctrl.Elapsed(),
	}
}

func (d *Driver) emit(f Frame) {
	select {
	case d.frames <- f:
	default:
		d.logger.Debug("frame dropped", "index", f.Index)
	}
}
