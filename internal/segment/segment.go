// Package segment splits an analyzed track into descents and ascents using a
// hysteresis state machine over raw elevation.
package segment

import (
	"fmt"
	"math"
	"time"

	"github.com/planbiir/skitrack/internal/track"
)

// Threshold is the elevation excursion in meters that opens or closes a
// segment.
//
// The machine runs on raw, unsmoothed elevation. Noisy barometric or GPS
// elevation can split one physical run into several segments or hide short
// ones.
const Threshold = 15.0

// Type classifies a segment.
type Type int

const (
	Descent Type = iota + 1
	Ascent
)

func (t Type) String() string {
	switch t {
	case Descent:
		return "descent"
	case Ascent:
		return "ascent"
	default:
		return "unknown"
	}
}

// MarshalText renders the type name in JSON output.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ParseType parses "descent" or "ascent".
func ParseType(s string) (Type, error) {
	switch s {
	case "descent":
		return Descent, nil
	case "ascent":
		return Ascent, nil
	default:
		return 0, fmt.Errorf("unknown segment type %q", s)
	}
}

// Segment is a contiguous descent or ascent over [StartIdx, EndIdx] of the
// analyzed points.
type Segment struct {
	Type           Type      `json:"type"`
	TypeIndex      int       `json:"type_index"` // 1-based, counted per type
	StartIdx       int       `json:"start_idx"`
	EndIdx         int       `json:"end_idx"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	DurationMs     int64     `json:"duration_ms"`
	DistanceKm     float64   `json:"distance_km"`
	VerticalMeters float64   `json:"vertical_m"`
	MaxSpeedKmh    float64   `json:"max_speed_kmh"`
	AvgSpeedKmh    float64   `json:"avg_speed_kmh"`
}

// ID returns the stable "<type>-<typeIndex>" identifier.
func (s Segment) ID() string {
	return fmt.Sprintf("%s-%d", s.Type, s.TypeIndex)
}

// Duration formats DurationMs for display.
func (s Segment) Duration() string {
	return track.FormatDuration(s.DurationMs)
}

// Detect runs the state machine over the points and returns the closed
// segments in chronological order, numbered per type.
func Detect(points []track.Point) []Segment {
	if len(points) < 2 {
		return nil
	}

	var segments []Segment
	m := NewMachine(points[0].Ele)

	for i := 1; i < len(points); i++ {
		var span Span
		var closed bool
		m, span, closed = m.Step(points[i].Ele, i)
		if closed {
			segments = append(segments, Build(points, span))
		}
	}

	if span, ok := m.Close(len(points) - 1); ok {
		segments = append(segments, Build(points, span))
	}

	Number(segments)
	return segments
}

// Number assigns 1-based per-type indices in slice order.
func Number(segments []Segment) {
	counters := map[Type]int{}
	for i := range segments {
		counters[segments[i].Type]++
		segments[i].TypeIndex = counters[segments[i].Type]
	}
}

// Build computes the metrics of a span.
func Build(points []track.Point, span Span) Segment {
	start := points[span.Start]
	end := points[span.End]

	maxSpeed := 0.0
	for _, p := range points[span.Start : span.End+1] {
		maxSpeed = math.Max(maxSpeed, p.SmoothSpeed)
	}

	var durationMs int64
	if start.HasTime() && end.HasTime() {
		durationMs = end.Time.Sub(start.Time).Milliseconds()
	}

	distanceKm := (end.CumDist - start.CumDist) / 1000
	avgSpeed := 0.0
	if durationMs > 0 {
		avgSpeed = distanceKm / (float64(durationMs) / 3.6e6)
	}

	return Segment{
		Type:           span.Type,
		StartIdx:       span.Start,
		EndIdx:         span.End,
		StartTime:      start.Time,
		EndTime:        end.Time,
		DurationMs:     durationMs,
		DistanceKm:     distanceKm,
		VerticalMeters: math.Round(math.Abs(end.Ele - start.Ele)),
		MaxSpeedKmh:    maxSpeed,
		AvgSpeedKmh:    avgSpeed,
	}
}

// Count returns the number of descents and ascents.
func Count(segments []Segment) (descents, ascents int) {
	for _, s := range segments {
		switch s.Type {
		case Descent:
			descents++
		case Ascent:
			ascents++
		}
	}
	return descents, ascents
}
