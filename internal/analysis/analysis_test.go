package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planbiir/skitrack/internal/geo"
	"github.com/planbiir/skitrack/internal/segment"
	"github.com/planbiir/skitrack/internal/track"
)

var base = time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC)

func raw(elevations ...float64) []track.RawPoint {
	points := make([]track.RawPoint, len(elevations))
	for i, ele := range elevations {
		points[i] = track.RawPoint{
			Lat:  46.0 + float64(i)*20/(math.Pi/180*geo.EarthRadius),
			Lon:  7.0,
			Ele:  ele,
			Time: base.Add(time.Duration(i) * 5 * time.Second),
		}
	}
	return points
}

func TestRunEmpty(t *testing.T) {
	assert.Nil(t, Run(nil, track.DefaultConfig()))
}

func TestRunFinalizesCounts(t *testing.T) {
	r := Run(raw(2000, 1950, 1900, 1920, 1980, 2050, 2000, 1940, 1945), track.Config{})
	require.NotNil(t, r)

	require.Len(t, r.Segments, 3)
	assert.Equal(t, 2, r.Summary.RunsCount)
	assert.Equal(t, 1, r.Summary.LiftsCount)
	assert.Equal(t, 9, r.Summary.PointCount)
	assert.Equal(t, 150.0, r.Summary.ElevationGain)
}

func TestRunIdempotent(t *testing.T) {
	input := raw(2000, 1950, 1900, 1920, 1980, 2050, 2000, 1940, 1945)
	cfg := track.Config{Mode3D: true, SmoothingWindow: 3}

	assert.Equal(t, Run(input, cfg), Run(input, cfg))
}

func TestWhole(t *testing.T) {
	r := Run(raw(1000, 980, 1000), track.Config{})
	require.NotNil(t, r)

	v := r.Whole()
	assert.False(t, v.IsSegment)
	assert.Nil(t, v.Segment)
	assert.Equal(t, -1, v.SegmentIndex)
	assert.Equal(t, r.Summary, v.Summary)
	assert.Len(t, v.Points, 3)
	assert.Equal(t, "track", v.Label())
}

func TestSegmentView(t *testing.T) {
	r := Run(raw(2000, 1950, 1900, 1920, 1980, 2050, 2000, 1940, 1945), track.Config{})
	require.NotNil(t, r)

	v, err := r.SegmentView(1)
	require.NoError(t, err)

	assert.True(t, v.IsSegment)
	require.NotNil(t, v.Segment)
	assert.Equal(t, segment.Ascent, v.Segment.Type)
	assert.Equal(t, "ascent-1", v.Label())
	assert.Equal(t, 1, v.SegmentIndex)

	require.Len(t, v.Points, 4)
	assert.Equal(t, r.Points[2], v.Points[0])
	assert.Equal(t, r.Points[5], v.Points[3])
	assert.Same(t, &r.Points[2], &v.Points[0])
	assert.Equal(t, r.Points[2].CumDist, v.StartDist)

	s := v.Summary
	assert.Equal(t, 2050.0, s.MaxEle)
	assert.Equal(t, 1900.0, s.MinEle)
	assert.Equal(t, 150.0, s.ElevationGain)
	assert.Equal(t, int64(15000), s.DurationMs)
	assert.Equal(t, "00:15", s.Duration)
	assert.InDelta(t, 0.06, s.TotalDistanceKm, 1e-9)
	assert.Equal(t, 4, s.PointCount)
	assert.Zero(t, s.RunsCount)
	assert.Zero(t, s.LiftsCount)
}

func TestSegmentViewOutOfRange(t *testing.T) {
	r := Run(raw(1000, 1001), track.Config{})
	require.NotNil(t, r)

	_, err := r.SegmentView(0)
	assert.Error(t, err)
	_, err = r.SegmentView(-1)
	assert.Error(t, err)
}
