package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/planbiir/skitrack/internal/config"
	"github.com/planbiir/skitrack/internal/gpx"
	"github.com/planbiir/skitrack/internal/track"
)

func testEnv(t *testing.T) (*env, *bytes.Buffer) {
	t.Helper()
	cfg, err := config.LoadFrom("")
	require.NoError(t, err)

	var out bytes.Buffer
	return &env{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
		in:     strings.NewReader(""),
		out:    &out,
		p:      message.NewPrinter(language.English),
	}, &out
}

// writeRunLiftRun saves a descent, a lift ride and a second descent.
func writeRunLiftRun(t *testing.T) string {
	t.Helper()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	elevations := []float64{2000, 1950, 1900, 1920, 1980, 2050, 2000, 1940, 1945}

	points := make([]track.RawPoint, len(elevations))
	for i, ele := range elevations {
		points[i] = track.RawPoint{
			Lat:  46.0 + float64(i)*0.0005,
			Lon:  7.0,
			Ele:  ele,
			Time: base.Add(time.Duration(i) * 10 * time.Second),
		}
	}

	path := filepath.Join(t.TempDir(), "day.gpx")
	require.NoError(t, gpx.WriteFile(path, "Saturday", points))
	return path
}

func TestAnalyze(t *testing.T) {
	e, out := testEnv(t)
	path := writeRunLiftRun(t)

	require.NoError(t, runAnalyze(e, []string{path}))
	assert.Contains(t, out.String(), "Saturday")
	assert.Contains(t, out.String(), "Runs: 2")
	assert.Contains(t, out.String(), "Lifts: 1")
}

func TestAnalyzeJSON(t *testing.T) {
	e, out := testEnv(t)
	path := writeRunLiftRun(t)

	require.NoError(t, runAnalyze(e, []string{"-json", path}))

	var doc struct {
		Name     string        `json:"name"`
		Summary  track.Summary `json:"summary"`
		Segments []struct {
			Type string `json:"type"`
		} `json:"segments"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, "Saturday", doc.Name)
	assert.Equal(t, 9, doc.Summary.PointCount)
	assert.Equal(t, 2, doc.Summary.RunsCount)
	require.Len(t, doc.Segments, 3)
	assert.Equal(t, "ascent", doc.Segments[1].Type)
}

func TestAnalyzeMissingArgument(t *testing.T) {
	e, _ := testEnv(t)
	assert.ErrorIs(t, runAnalyze(e, nil), errUsage)
}

func TestAnalyzeUnsupportedFile(t *testing.T) {
	e, _ := testEnv(t)
	assert.Error(t, runAnalyze(e, []string{"track.kml"}))
}

func TestSegmentsListing(t *testing.T) {
	e, out := testEnv(t)
	path := writeRunLiftRun(t)

	require.NoError(t, runSegments(e, []string{"-type", "all", path}))
	assert.Contains(t, out.String(), "descent-1")
	assert.Contains(t, out.String(), "ascent-1")
	assert.Contains(t, out.String(), "descent-2")

	out.Reset()
	require.NoError(t, runSegments(e, []string{path}))
	assert.NotContains(t, out.String(), "ascent-1")
}

func TestSegmentsBadFlags(t *testing.T) {
	e, _ := testEnv(t)
	path := writeRunLiftRun(t)

	assert.Error(t, runSegments(e, []string{"-type", "jump", path}))
	assert.Error(t, runSegments(e, []string{"-sort", "name", path}))
	assert.Error(t, runSegments(e, []string{"-asc", "-desc", path}))
}

func TestTrim(t *testing.T) {
	e, _ := testEnv(t)
	path := writeRunLiftRun(t)
	output := filepath.Join(t.TempDir(), "lift.gpx")

	require.NoError(t, runTrim(e, []string{"-from", "2", "-to", "5", "-o", output, path}))

	f, err := gpx.Parse(output)
	require.NoError(t, err)
	require.Len(t, f.Points, 4)
	assert.Equal(t, 1900.0, f.Points[0].Ele)
	assert.Equal(t, 2050.0, f.Points[3].Ele)
}

func TestTrimUsesAnalysisFlags(t *testing.T) {
	e, out := testEnv(t)
	path := writeRunLiftRun(t)
	output := filepath.Join(t.TempDir(), "lift.gpx")

	require.NoError(t, runTrim(e, []string{"-from", "2", "-to", "5", "-o", output, path}))
	assert.Contains(t, out.String(), "0.23 km")

	out.Reset()
	require.NoError(t, runTrim(e, []string{"-3d=false", "-clean", "-from", "2", "-to", "5", "-o", output, path}))
	assert.Contains(t, out.String(), "Spike filter: 4 →")
	assert.Contains(t, out.String(), "0.17 km")
}

func TestTrimOutOfRange(t *testing.T) {
	e, _ := testEnv(t)
	path := writeRunLiftRun(t)

	assert.Error(t, runTrim(e, []string{"-from", "20", "-o", filepath.Join(t.TempDir(), "x.gpx"), path}))
}

func TestExport(t *testing.T) {
	e, _ := testEnv(t)
	path := writeRunLiftRun(t)
	output := filepath.Join(t.TempDir(), "day.geojson")

	require.NoError(t, runExport(e, []string{"-o", output, path}))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var doc struct {
		Features []json.RawMessage `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Len(t, doc.Features, 4)
}

func TestReportSegment(t *testing.T) {
	e, _ := testEnv(t)
	path := writeRunLiftRun(t)
	output := filepath.Join(t.TempDir(), "lift.html")

	require.NoError(t, runReport(e, []string{"-segment", "1", "-o", output, path}))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ascent-1")

	assert.Error(t, runReport(e, []string{"-segment", "9", "-o", output, path}))
}

func playEnv(t *testing.T, controls string) (*env, *bytes.Buffer) {
	t.Helper()
	t.Setenv("SKITRACK_FRAME_INTERVAL", "1ms")
	e, out := testEnv(t)
	e.in = strings.NewReader(controls)
	return e, out
}

func TestPlay(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "whole track",
			args:     []string{"-speed", "50"},
			expected: []string{"Saturday track", "✅ Finished", "replayed from 0s"},
		},
		{
			name:     "single segment",
			args:     []string{"-speed", "50", "-segment", "0"},
			expected: []string{"Saturday descent-1", "✅ Finished"},
		},
		{
			name:     "start offset",
			args:     []string{"-speed", "50", "-start", "45s"},
			expected: []string{"✅ Finished", "replayed from 45s"},
		},
		{
			name:     "start inside last bracket",
			args:     []string{"-speed", "50", "-start", "75s"},
			expected: []string{"✅ Finished", "replayed from 1m15s"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, out := playEnv(t, "")
			path := writeRunLiftRun(t)

			require.NoError(t, runPlay(e, append(tt.args, path)))
			for _, s := range tt.expected {
				assert.Contains(t, out.String(), s)
			}
		})
	}
}

func TestPlayRejectsBadStart(t *testing.T) {
	e, _ := playEnv(t, "")
	path := writeRunLiftRun(t)

	assert.ErrorIs(t, runPlay(e, []string{"-start", "80s", path}), errUsage)
	assert.ErrorIs(t, runPlay(e, []string{"-start", "-5s", path}), errUsage)
	assert.Error(t, runPlay(e, []string{"-segment", "7", path}))
}

func TestPlayControls(t *testing.T) {
	t.Run("speed", func(t *testing.T) {
		e, out := playEnv(t, "s\n")
		path := writeRunLiftRun(t)

		require.NoError(t, runPlay(e, []string{"-speed", "20", path}))
		assert.Contains(t, out.String(), "⏩ Speed 50x")
		assert.Contains(t, out.String(), "✅ Finished")
	})

	t.Run("pause and resume", func(t *testing.T) {
		e, out := playEnv(t, "p\n\n")
		path := writeRunLiftRun(t)

		require.NoError(t, runPlay(e, []string{"-speed", "50", path}))
		assert.Contains(t, out.String(), "⏸️  Paused")
		assert.Contains(t, out.String(), "▶️  Resumed")
		assert.Contains(t, out.String(), "✅ Finished")
	})

	t.Run("quit", func(t *testing.T) {
		e, out := playEnv(t, "q\n")
		path := writeRunLiftRun(t)

		require.NoError(t, runPlay(e, []string{"-speed", "1", path}))
		assert.Contains(t, out.String(), "⏹️  Stopped at")
		assert.NotContains(t, out.String(), "Finished")
	})
}
