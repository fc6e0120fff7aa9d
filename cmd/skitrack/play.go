package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/planbiir/skitrack/internal/analysis"
	"github.com/planbiir/skitrack/internal/playback"
)

const progressSteps = 1000

// Playback controls read from stdin, one per line.
const (
	controlToggle = "p"
	controlSpeed  = "s"
	controlQuit   = "q"
)

func runPlay(e *env, args []string) error {
	fs, tf := newFlagSet("play", "<file>", e)
	segIdx := fs.Int("segment", -1, "Replay a single segment by index instead of the whole track")
	speed := fs.Float64("speed", e.cfg.PlaybackSpeed, "Playback speed multiplier (snapped to 1, 2, 5, 10, 20, 50)")
	start := fs.Duration("start", 0, "Start offset into the range, e.g. 25m")
	if err := parse(fs, args); err != nil {
		return err
	}
	path, err := input(fs)
	if err != nil {
		return err
	}
	if *start < 0 {
		fmt.Fprintf(os.Stderr, "-start must not be negative\n")
		return errUsage
	}

	t, r, err := e.load(path, tf)
	if err != nil {
		return err
	}

	v := r.Whole()
	if *segIdx >= 0 {
		if v, err = r.SegmentView(*segIdx); err != nil {
			return err
		}
	}

	ctrl, err := playback.New(v.Points)
	if err != nil {
		return err
	}
	span := ctrl.Span()
	if span <= 0 {
		return fmt.Errorf("%s has no time span to replay", v.Label())
	}
	if *start >= span {
		fmt.Fprintf(os.Stderr, "-start %s is past the end of %s (%s)\n", *start, v.Label(), span)
		return errUsage
	}
	origin := ctrl.Start()

	d := playback.NewDriver(ctrl,
		playback.WithInterval(e.cfg.FrameInterval),
		playback.WithLogger(e.logger))
	d.SetSpeedMultiplier(playback.SnapSpeed(*speed))

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	fmt.Fprintf(e.out, "▶️  Replaying %s %s from %s (%s at %gx)\n",
		t.Name, v.Label(), origin.Add(*start).Local().Format("15:04:05"), v.Summary.Duration, d.State().Speed)
	fmt.Fprintf(e.out, "   controls: %s+Enter pause/resume, %s+Enter next speed, %s+Enter quit\n",
		controlToggle, controlSpeed, controlQuit)
	if !d.PlayFrom(ctx, *start) {
		return fmt.Errorf("%s cannot be replayed", v.Label())
	}

	bar := progressbar.Default(progressSteps, v.Label())
	controls := readControls(ctx, e.in)
	done := d.Done()
	var first, last *playback.Frame
	seen := func(f playback.Frame) {
		if first == nil {
			first = &f
		}
		last = &f
		show(bar, v, f, d.Progress())
	}

loop:
	for {
		select {
		case f := <-d.Frames():
			seen(f)
		case c, ok := <-controls:
			if !ok {
				controls = nil
				continue
			}
			switch c {
			case controlToggle:
				if d.Toggle(ctx) {
					done = d.Done()
					fmt.Fprintf(e.out, "\n▶️  Resumed\n")
				} else {
					done = nil
					fmt.Fprintf(e.out, "\n⏸️  Paused (%s to resume)\n", controlToggle)
				}
			case controlSpeed:
				fmt.Fprintf(e.out, "\n⏩ Speed %gx\n", d.CycleSpeed())
			case controlQuit:
				cancel()
			}
		case <-ctx.Done():
			<-d.Done()
			break loop
		case <-done:
			break loop
		}
	}

	// Flush frames queued before the loop exited.
	for len(d.Frames()) > 0 {
		seen(<-d.Frames())
	}
	_ = bar.Finish()
	fmt.Fprintln(e.out)

	if first == nil {
		return fmt.Errorf("%s produced no frames", v.Label())
	}

	if ctx.Err() != nil {
		fmt.Fprintf(e.out, "⏹️  Stopped at %s (point %d of %d)\n",
			last.Elapsed.Truncate(time.Second), last.Index+1, len(v.Points))
		return nil
	}

	e.p.Fprintf(e.out, "✅ Finished: %.2f km, %s (replayed from %s)\n",
		v.Summary.TotalDistanceKm, v.Summary.Duration, first.Elapsed.Truncate(time.Second))
	return nil
}

// readControls forwards trimmed input lines until r is exhausted or ctx ends.
// An empty line toggles playback.
func readControls(ctx context.Context, r io.Reader) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			c := strings.ToLower(strings.TrimSpace(scanner.Text()))
			if c == "" {
				c = controlToggle
			}
			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func show(bar *progressbar.ProgressBar, v analysis.View, f playback.Frame, progress float64) {
	_ = bar.Set(int(progress * progressSteps))
	bar.Describe(fmt.Sprintf("%s %s %5.0f m %5.1f km/h",
		v.Label(), f.Elapsed.Truncate(time.Second), f.Point.Ele, f.Point.SmoothSpeed))
}
