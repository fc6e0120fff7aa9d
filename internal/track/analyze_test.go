package track

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planbiir/skitrack/internal/geo"
)

// metersPerDegreeLat converts a northward offset in meters to degrees.
const metersPerDegreeLat = math.Pi / 180 * geo.EarthRadius

var base = time.Date(2025, 1, 18, 9, 0, 0, 0, time.UTC)

// line builds a northbound track with one sample every stepSeconds,
// stepMeters apart, at the given elevations.
func line(stepMeters float64, stepSeconds int, elevations ...float64) []RawPoint {
	points := make([]RawPoint, len(elevations))
	for i, ele := range elevations {
		points[i] = RawPoint{
			Lat:  46.0 + float64(i)*stepMeters/metersPerDegreeLat,
			Lon:  7.0,
			Ele:  ele,
			Time: base.Add(time.Duration(i*stepSeconds) * time.Second),
		}
	}
	return points
}

func TestAnalyzeEmpty(t *testing.T) {
	assert.Nil(t, Analyze(nil, DefaultConfig()))
	assert.Nil(t, Analyze([]RawPoint{}, DefaultConfig()))
}

func TestAnalyzeSinglePoint(t *testing.T) {
	result := Analyze(line(10, 10, 1200), DefaultConfig())
	require.NotNil(t, result)
	require.Len(t, result.Points, 1)

	p := result.Points[0]
	assert.Equal(t, 0.0, p.CumDist)
	assert.Equal(t, 0.0, p.Speed)
	assert.Equal(t, 0.0, p.SmoothSpeed)

	s := result.Summary
	assert.Equal(t, 1, s.PointCount)
	assert.Equal(t, 0.0, s.TotalDistanceKm)
	assert.Equal(t, 0.0, s.ElevationGain)
	assert.Equal(t, "00:00", s.Duration)
	assert.Equal(t, 0.0, s.AvgSpeedKmh)
}

func TestAnalyzeCumulativeDistanceMonotonic(t *testing.T) {
	raw := line(25, 5, 1000, 990, 990, 1003, 970, 960, 985)
	// Duplicate sample: zero step distance must not break monotonicity.
	raw = append(raw, raw[len(raw)-1])

	for _, mode3D := range []bool{false, true} {
		result := Analyze(raw, Config{Mode3D: mode3D, SmoothingWindow: 2})
		require.NotNil(t, result)

		assert.Equal(t, 0.0, result.Points[0].CumDist)
		for i := 1; i < len(result.Points); i++ {
			assert.GreaterOrEqual(t, result.Points[i].CumDist, result.Points[i-1].CumDist,
				"cumDist decreased at %d (mode3D=%v)", i, mode3D)
		}
	}
}

func TestAnalyzeRoundTripDistance2D(t *testing.T) {
	raw := []RawPoint{
		{Lat: 46.0, Lon: 7.0, Ele: 2000, Time: base},
		{Lat: 46.0012, Lon: 7.0021, Ele: 1980, Time: base.Add(4 * time.Second)},
		{Lat: 46.0031, Lon: 7.0030, Ele: 1950, Time: base.Add(9 * time.Second)},
		{Lat: 46.0040, Lon: 7.0061, Ele: 1935, Time: base.Add(15 * time.Second)},
	}

	result := Analyze(raw, Config{Mode3D: false})
	require.NotNil(t, result)

	sum := 0.0
	for i := 1; i < len(raw); i++ {
		sum += geo.DistanceMeters(raw[i-1].Lat, raw[i-1].Lon, raw[i].Lat, raw[i].Lon)
	}
	assert.InDelta(t, sum, result.Points[len(raw)-1].CumDist, 1e-9)
}

func TestAnalyzeMode3DIncludesElevation(t *testing.T) {
	raw := line(40, 10, 1000, 970)

	flat := Analyze(raw, Config{Mode3D: false})
	full := Analyze(raw, Config{Mode3D: true})
	require.NotNil(t, flat)
	require.NotNil(t, full)

	assert.InDelta(t, 40.0, flat.Points[1].CumDist, 0.01)
	assert.InDelta(t, 50.0, full.Points[1].CumDist, 0.01)
}

func TestAnalyzeSpeed(t *testing.T) {
	raw := line(10, 10, 1000, 1000, 1000)
	result := Analyze(raw, Config{Mode3D: false})
	require.NotNil(t, result)

	assert.Equal(t, 0.0, result.Points[0].Speed)
	assert.InDelta(t, 3.6, result.Points[1].Speed, 0.001)
	assert.InDelta(t, 3.6, result.Points[2].Speed, 0.001)
}

func TestAnalyzeNonMonotonicTime(t *testing.T) {
	raw := line(10, 10, 1000, 1000, 1000, 1000)
	raw[2].Time = raw[1].Time                   // duplicate timestamp
	raw[3].Time = raw[1].Time.Add(-time.Second) // clock went backwards

	result := Analyze(raw, Config{Mode3D: false, SmoothingWindow: 1})
	require.NotNil(t, result)

	assert.Equal(t, 0.0, result.Points[2].Speed)
	assert.Equal(t, 0.0, result.Points[3].Speed)
	for _, p := range result.Points {
		assert.False(t, math.IsNaN(p.Speed) || math.IsInf(p.Speed, 0))
		assert.False(t, math.IsNaN(p.SmoothSpeed) || math.IsInf(p.SmoothSpeed, 0))
	}
}

func TestAnalyzeMissingTimestamps(t *testing.T) {
	raw := line(10, 10, 1000, 1010, 1020)
	for i := range raw {
		raw[i].Time = time.Time{}
	}

	result := Analyze(raw, DefaultConfig())
	require.NotNil(t, result)

	for _, p := range result.Points {
		assert.Equal(t, 0.0, p.Speed)
	}
	assert.Greater(t, result.Points[2].CumDist, 0.0)
	assert.Equal(t, int64(0), result.Summary.DurationMs)
	assert.Equal(t, "00:00", result.Summary.Duration)
	assert.Equal(t, 0.0, result.Summary.AvgSpeedKmh)
}

func TestSmoothingIdentity(t *testing.T) {
	raw := line(10, 2, 1000, 1001, 1003, 1002, 1004, 1001)
	raw[3].Lat += 0.0002 // uneven step

	result := Analyze(raw, Config{Mode3D: true, SmoothingWindow: 0})
	require.NotNil(t, result)

	for i, p := range result.Points {
		assert.Equal(t, p.Speed, p.SmoothSpeed, "point %d", i)
	}
}

func TestSmoothingWindowClamped(t *testing.T) {
	// Speeds: 0, 3.6, 7.2 km/h
	raw := []RawPoint{
		{Lat: 46.0, Lon: 7.0, Time: base},
		{Lat: 46.0 + 10/metersPerDegreeLat, Lon: 7.0, Time: base.Add(10 * time.Second)},
		{Lat: 46.0 + 30/metersPerDegreeLat, Lon: 7.0, Time: base.Add(20 * time.Second)},
	}

	result := Analyze(raw, Config{Mode3D: false, SmoothingWindow: 1})
	require.NotNil(t, result)

	assert.InDelta(t, 1.8, result.Points[0].SmoothSpeed, 0.001)
	assert.InDelta(t, 3.6, result.Points[1].SmoothSpeed, 0.001)
	assert.InDelta(t, 5.4, result.Points[2].SmoothSpeed, 0.001)
	assert.InDelta(t, 5.4, result.Summary.MaxSpeedKmh, 0.001)

	// Window wider than the track averages everything.
	wide := Analyze(raw, Config{Mode3D: false, SmoothingWindow: 10})
	for _, p := range wide.Points {
		assert.InDelta(t, 3.6, p.SmoothSpeed, 0.001)
	}
}

func TestAnalyzeSummary(t *testing.T) {
	// 100 m steps every 10 s for an hour and a bit.
	elevations := make([]float64, 400)
	for i := range elevations {
		elevations[i] = 1500 + float64(i%50)
	}
	raw := line(100, 10, elevations...)

	result := Analyze(raw, Config{Mode3D: false})
	require.NotNil(t, result)
	s := result.Summary

	assert.Equal(t, 400, s.PointCount)
	assert.Equal(t, 1549.0, s.MaxEle)
	assert.Equal(t, 1500.0, s.MinEle)
	assert.Equal(t, 49.0, s.ElevationGain)
	assert.InDelta(t, 39.9, s.TotalDistanceKm, 0.01)
	assert.Equal(t, int64(3990*1000), s.DurationMs)
	assert.Equal(t, "01:06:30", s.Duration)
	assert.InDelta(t, 36.0, s.AvgSpeedKmh, 0.05)
	assert.InDelta(t, 36.0, s.MaxSpeedKmh, 0.05)
	assert.Zero(t, s.RunsCount)
	assert.Zero(t, s.LiftsCount)
}

func TestAnalyzeFlatTrackHasNoNaN(t *testing.T) {
	raw := line(0, 0, 1000, 1000, 1000)

	result := Analyze(raw, DefaultConfig())
	require.NotNil(t, result)

	s := result.Summary
	assert.Equal(t, 0.0, s.ElevationGain)
	assert.Equal(t, 0.0, s.TotalDistanceKm)
	assert.Equal(t, 0.0, s.AvgSpeedKmh)
	assert.Equal(t, 0.0, s.MaxSpeedKmh)
}

func TestAnalyzeIdempotent(t *testing.T) {
	raw := line(12, 3, 1000, 990, 975, 980, 1001, 1020, 1010)
	cfg := Config{Mode3D: true, SmoothingWindow: 2}

	first := Analyze(raw, cfg)
	second := Analyze(raw, cfg)
	assert.Equal(t, first, second)
}

func TestAnalyzeDoesNotMutateInput(t *testing.T) {
	raw := line(12, 3, 1000, 990, 975)
	snapshot := append([]RawPoint(nil), raw...)

	Analyze(raw, DefaultConfig())
	assert.Equal(t, snapshot, raw)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		ms       int64
		expected string
	}{
		{0, "00:00"},
		{999, "00:00"},
		{59 * 1000, "00:59"},
		{61 * 1000, "01:01"},
		{59*60*1000 + 59*1000, "59:59"},
		{3600 * 1000, "01:00:00"},
		{(26*3600 + 5*60 + 7) * 1000, "26:05:07"},
		{-5000, "00:00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatDuration(tt.ms), "ms=%d", tt.ms)
	}
}

func TestTrim(t *testing.T) {
	raw := line(10, 1, 1, 2, 3, 4, 5, 6)

	trimmed := Trim(raw, 1, 3)
	require.Len(t, trimmed, 3)
	assert.Equal(t, 2.0, trimmed[0].Ele)
	assert.Equal(t, 4.0, trimmed[2].Ele)

	// Reversed handles, same range.
	assert.Equal(t, trimmed, Trim(raw, 3, 1))

	// Clamped to bounds.
	assert.Len(t, Trim(raw, -4, 99), len(raw))
	assert.Len(t, Trim(raw, 5, 5), 1)
	assert.Nil(t, Trim(nil, 0, 1))
	assert.Nil(t, Trim(raw, 10, 20))
}
