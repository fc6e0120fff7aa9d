package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/planbiir/skitrack/internal/analysis"
	"github.com/planbiir/skitrack/internal/clean"
	"github.com/planbiir/skitrack/internal/config"
	"github.com/planbiir/skitrack/internal/export"
	"github.com/planbiir/skitrack/internal/gpx"
	"github.com/planbiir/skitrack/internal/segment"
	"github.com/planbiir/skitrack/internal/source"
	"github.com/planbiir/skitrack/internal/track"
)

const version = "skitrack v0.3.0 - ski track analysis and playback"

// errUsage makes main exit with status 2.
var errUsage = errors.New("usage")

type command struct {
	name    string
	summary string
	run     func(env *env, args []string) error
}

var commands = []command{
	{"analyze", "print the track summary", runAnalyze},
	{"segments", "list detected descents and ascents", runSegments},
	{"play", "replay the track in real time", runPlay},
	{"trim", "cut the track to an index range and save it as GPX", runTrim},
	{"export", "write the track and its segments as GeoJSON", runExport},
	{"report", "write elevation and speed charts as HTML", runReport},
}

// env carries what every command needs.
type env struct {
	cfg    config.Config
	logger *slog.Logger
	in     io.Reader
	out    io.Writer
	p      *message.Printer
}

func main() {
	flag.Usage = usage
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	e := &env{
		cfg:    cfg,
		logger: logger,
		in:     os.Stdin,
		out:    os.Stdout,
		p:      message.NewPrinter(language.English),
	}

	name := flag.Arg(0)
	for _, c := range commands {
		if c.name != name {
			continue
		}
		err := c.run(e, flag.Args()[1:])
		switch {
		case errors.Is(err, errUsage):
			os.Exit(2)
		case err != nil:
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
	usage()
	os.Exit(2)
}

func usage() {
	fmt.Printf("skitrack - Analyze and replay ski GPS tracks\n\n")
	fmt.Printf("usage: skitrack <command> [flags] <file.gpx|file.fit>\n\n")
	fmt.Printf("commands:\n")
	for _, c := range commands {
		fmt.Printf("  %-9s %s\n", c.name, c.summary)
	}
	fmt.Printf("\nexamples:\n")
	fmt.Printf("  skitrack analyze \"Saturday Verbier.gpx\"\n")
	fmt.Printf("  skitrack segments -type all -sort speed day.fit\n")
	fmt.Printf("  skitrack play -segment 3 -speed 10 day.gpx\n\n")
	fmt.Printf("environment: SKITRACK_MODE_3D, SKITRACK_SMOOTHING_WINDOW, SKITRACK_PLAYBACK_SPEED,\n")
	fmt.Printf("             SKITRACK_FRAME_INTERVAL, SKITRACK_DETAIL_LEVEL, SKITRACK_LOG_LEVEL (.env is read if present)\n")
}

// trackFlags are shared by every command that analyzes a track.
type trackFlags struct {
	mode3D bool
	smooth int
	clean  bool
}

func newFlagSet(name, args string, e *env) (*flag.FlagSet, *trackFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	tf := &trackFlags{}
	defaults := e.cfg.Analysis()
	fs.BoolVar(&tf.mode3D, "3d", defaults.Mode3D, "Include elevation change in distance")
	fs.IntVar(&tf.smooth, "smooth", defaults.SmoothingWindow, "Speed smoothing half-window in samples (0-10)")
	fs.BoolVar(&tf.clean, "clean", false, "Remove GPS spikes before analysis")
	fs.Usage = func() {
		fmt.Printf("usage: skitrack %s [flags] %s\n\noptions:\n", name, args)
		fs.PrintDefaults()
	}
	return fs, tf
}

// parse reports flag errors as usage errors; the flag package has already
// printed them.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}

// input returns the single positional file argument.
func input(fs *flag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		fs.Usage()
		return "", errUsage
	}
	return fs.Arg(0), nil
}

// load reads, optionally cleans, and analyzes a track file.
func (e *env) load(path string, tf *trackFlags) (*source.Track, *analysis.Result, error) {
	fmt.Fprintf(e.out, "📖 Reading track: %s\n", path)
	t, err := source.Load(path, e.logger)
	if err != nil {
		return nil, nil, err
	}

	if tf.clean {
		if t.Points, err = e.clean(path, t.Points); err != nil {
			return nil, nil, err
		}
	}

	r := analysis.Run(t.Points, tf.analysis())
	if r == nil {
		return nil, nil, fmt.Errorf("%s: %w", path, track.ErrEmptyTrack)
	}
	return t, r, nil
}

func (tf *trackFlags) analysis() track.Config {
	return track.Config{
		Mode3D:          tf.mode3D,
		SmoothingWindow: max(0, min(tf.smooth, config.MaxSmoothingWindow)),
	}
}

// clean runs the spike filter and reports what it removed.
func (e *env) clean(path string, points []track.RawPoint) ([]track.RawPoint, error) {
	result, err := clean.Filter(points, clean.DefaultConfig(), e.logger)
	if err != nil {
		return nil, fmt.Errorf("clean %s: %w", path, err)
	}
	e.p.Fprintf(e.out, "🧹 Spike filter: %d → %d points (%s)\n",
		result.Stats.OriginalPoints, result.Stats.FinalPoints, result.Stats.ActivityType)
	return result.Points, nil
}

func runAnalyze(e *env, args []string) error {
	fs, tf := newFlagSet("analyze", "<file>", e)
	asJSON := fs.Bool("json", false, "Output summary and segments as JSON")
	if err := parse(fs, args); err != nil {
		return err
	}
	path, err := input(fs)
	if err != nil {
		return err
	}

	out := e.out
	if *asJSON {
		// Keep the output clean for the JSON document.
		e.out = io.Discard
	}
	t, r, err := e.load(path, tf)
	e.out = out
	if err != nil {
		return err
	}

	if *asJSON {
		data, err := json.MarshalIndent(struct {
			Name     string            `json:"name"`
			Summary  track.Summary     `json:"summary"`
			Segments []segment.Segment `json:"segments"`
		}{t.Name, r.Summary, r.Segments}, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal summary: %w", err)
		}
		fmt.Fprintln(e.out, string(data))
		return nil
	}

	e.printSummary(t.Name, r.Whole())
	return nil
}

func (e *env) printSummary(name string, v analysis.View) {
	s := v.Summary
	e.p.Fprintf(e.out, "\n📊 %s (%s)\n", name, v.Label())
	fmt.Fprintf(e.out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	e.p.Fprintf(e.out, "📏 Distance: %.2f km\n", s.TotalDistanceKm)
	e.p.Fprintf(e.out, "⛰️  Elevation: %.0f → %.0f m (%.0f m range)\n", s.MinEle, s.MaxEle, s.ElevationGain)
	e.p.Fprintf(e.out, "⏱️  Duration: %s\n", s.Duration)
	e.p.Fprintf(e.out, "⚡ Speed: avg %.1f km/h, max %.1f km/h\n", s.AvgSpeedKmh, s.MaxSpeedKmh)
	e.p.Fprintf(e.out, "📍 Points: %d\n", s.PointCount)
	if !v.IsSegment {
		e.p.Fprintf(e.out, "🎿 Runs: %d   🚡 Lifts: %d\n", s.RunsCount, s.LiftsCount)
	}
	fmt.Fprintf(e.out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
}

func runSegments(e *env, args []string) error {
	fs, tf := newFlagSet("segments", "<file>", e)
	typeFlag := fs.String("type", "descent", "Segment type: all, descent or ascent")
	sortFlag := fs.String("sort", "time", "Sort by: time, speed, distance or duration")
	asc := fs.Bool("asc", false, "Force ascending order")
	desc := fs.Bool("desc", false, "Force descending order")
	if err := parse(fs, args); err != nil {
		return err
	}
	path, err := input(fs)
	if err != nil {
		return err
	}

	filter := segment.TypeAll
	if *typeFlag != "all" {
		if filter, err = segment.ParseType(*typeFlag); err != nil {
			return err
		}
	}
	key, err := segment.ParseSortKey(*sortFlag)
	if err != nil {
		return err
	}
	ascending := segment.DefaultAscending(key)
	switch {
	case *asc && *desc:
		return errors.New("-asc and -desc are mutually exclusive")
	case *asc:
		ascending = true
	case *desc:
		ascending = false
	}

	_, r, err := e.load(path, tf)
	if err != nil {
		return err
	}

	entries := segment.Filter(r.Segments, filter)
	segment.Sort(entries, key, ascending)

	if len(entries) == 0 {
		fmt.Fprintf(e.out, "No %s segments detected\n", *typeFlag)
		return nil
	}

	fmt.Fprintf(e.out, "\n  #  %-12s %-8s %9s %9s %9s %11s %11s\n",
		"segment", "start", "duration", "dist km", "vert m", "max km/h", "avg km/h")
	for _, en := range entries {
		icon := "🎿"
		if en.Type == segment.Ascent {
			icon = "🚡"
		}
		start := "--:--:--"
		if !en.StartTime.IsZero() {
			start = en.StartTime.Local().Format("15:04:05")
		}
		e.p.Fprintf(e.out, "%3d  %s %-10s %-8s %9s %9.2f %9.0f %11.1f %11.1f\n",
			en.Index, icon, en.ID(), start, en.Duration(),
			en.DistanceKm, en.VerticalMeters, en.MaxSpeedKmh, en.AvgSpeedKmh)
	}
	return nil
}

func runTrim(e *env, args []string) error {
	fs, tf := newFlagSet("trim", "<file>", e)
	from := fs.Int("from", 0, "First point index to keep")
	to := fs.Int("to", -1, "Last point index to keep (default: last point)")
	output := fs.String("o", "", "Output GPX file (default: <input>_trimmed.gpx)")
	if err := parse(fs, args); err != nil {
		return err
	}
	path, err := input(fs)
	if err != nil {
		return err
	}

	fmt.Fprintf(e.out, "📖 Reading track: %s\n", path)
	t, err := source.Load(path, e.logger)
	if err != nil {
		return err
	}

	end := *to
	if end < 0 {
		end = len(t.Points) - 1
	}
	if *from < 0 || *from >= len(t.Points) || end >= len(t.Points) {
		return fmt.Errorf("range %d..%d is outside the track (%d points)", *from, end, len(t.Points))
	}
	trimmed := track.Trim(t.Points, *from, end)
	if len(trimmed) == 0 {
		return fmt.Errorf("range %d..%d is outside the track (%d points)", *from, end, len(t.Points))
	}
	if tf.clean {
		if trimmed, err = e.clean(path, trimmed); err != nil {
			return err
		}
	}

	if *output == "" {
		*output = strings.TrimSuffix(path, filepath.Ext(path)) + "_trimmed.gpx"
	}

	fmt.Fprintf(e.out, "💾 Writing trimmed track: %s\n", *output)
	if err := gpx.WriteFile(*output, t.Name, trimmed); err != nil {
		return err
	}

	if r := analysis.Run(trimmed, tf.analysis()); r != nil {
		e.p.Fprintf(e.out, "✅ Trimmed %d → %d points (%.2f km, %s)\n",
			len(t.Points), len(trimmed), r.Summary.TotalDistanceKm, r.Summary.Duration)
	}
	return nil
}

func runExport(e *env, args []string) error {
	fs, tf := newFlagSet("export", "<file>", e)
	output := fs.String("o", "", "Output GeoJSON file (default: <input>.geojson)")
	if err := parse(fs, args); err != nil {
		return err
	}
	path, err := input(fs)
	if err != nil {
		return err
	}

	t, r, err := e.load(path, tf)
	if err != nil {
		return err
	}

	if *output == "" {
		*output = strings.TrimSuffix(path, filepath.Ext(path)) + ".geojson"
	}
	if err := writeFile(*output, func(w io.Writer) error {
		return export.WriteGeoJSON(w, t.Name, r)
	}); err != nil {
		return err
	}

	e.p.Fprintf(e.out, "✅ Wrote %s (%d segments)\n", *output, len(r.Segments))
	return nil
}

func runReport(e *env, args []string) error {
	fs, tf := newFlagSet("report", "<file>", e)
	output := fs.String("o", "", "Output HTML file (default: <input>.html)")
	segIdx := fs.Int("segment", -1, "Report a single segment by index instead of the whole track")
	detail := fs.Int("detail", e.cfg.DetailLevel, "Maximum number of chart samples (0 = all)")
	if err := parse(fs, args); err != nil {
		return err
	}
	path, err := input(fs)
	if err != nil {
		return err
	}

	t, r, err := e.load(path, tf)
	if err != nil {
		return err
	}

	v := r.Whole()
	name := t.Name
	if *segIdx >= 0 {
		if v, err = r.SegmentView(*segIdx); err != nil {
			return err
		}
		name = t.Name + " " + v.Label()
	}

	if *output == "" {
		*output = strings.TrimSuffix(path, filepath.Ext(path)) + ".html"
	}
	if err := writeFile(*output, func(w io.Writer) error {
		return export.Report(w, name, v, r.Segments, *detail)
	}); err != nil {
		return err
	}

	fmt.Fprintf(e.out, "✅ Wrote %s\n", *output)
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
