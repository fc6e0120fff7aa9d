package track

import (
	"errors"
	"time"
)

// ErrEmptyTrack is returned by loaders when a file yields no track points.
var ErrEmptyTrack = errors.New("no track points found")

// RawPoint is a single recorded sample as produced by a parser.
// Elevation defaults to 0 when the source has none; Time is the zero value
// when the sample carries no timestamp.
type RawPoint struct {
	Lat  float64   `json:"lat"`
	Lon  float64   `json:"lon"`
	Ele  float64   `json:"ele"`
	Time time.Time `json:"time,omitempty"`
}

// HasTime reports whether the sample carries a timestamp.
func (p RawPoint) HasTime() bool {
	return !p.Time.IsZero()
}

// Point is a RawPoint enriched by Analyze. Points are never mutated after
// creation; a settings change produces a new slice.
type Point struct {
	RawPoint

	CumDist     float64 `json:"cum_dist_m"`       // meters from the first point
	Speed       float64 `json:"speed_kmh"`        // instantaneous
	SmoothSpeed float64 `json:"smooth_speed_kmh"` // centered moving average
}

// Config controls how distance and speed are derived.
type Config struct {
	Mode3D          bool // include elevation delta in step distance
	SmoothingWindow int  // samples on each side of the moving average
}

// DefaultConfig mirrors the defaults the desktop viewer shipped with.
func DefaultConfig() Config {
	return Config{
		Mode3D:          true,
		SmoothingWindow: 1,
	}
}

// Summary aggregates a point range. Segment counts are zero until the
// segmenter has run over the same points.
type Summary struct {
	TotalDistanceKm float64 `json:"total_distance_km"`
	MaxEle          float64 `json:"max_ele_m"`
	MinEle          float64 `json:"min_ele_m"`
	ElevationGain   float64 `json:"elevation_gain_m"`
	DurationMs      int64   `json:"duration_ms"`
	Duration        string  `json:"duration"`
	AvgSpeedKmh     float64 `json:"avg_speed_kmh"`
	MaxSpeedKmh     float64 `json:"max_speed_kmh"`
	PointCount      int     `json:"point_count"`
	RunsCount       int     `json:"runs_count"`
	LiftsCount      int     `json:"lifts_count"`
}

// Analysis is the output of Analyze.
type Analysis struct {
	Points  []Point
	Summary Summary
}
