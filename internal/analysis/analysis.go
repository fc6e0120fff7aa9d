// Package analysis runs the analyzer and the segmenter over a raw track and
// exposes the whole-track and per-segment views consumed by playback and
// export.
package analysis

import (
	"fmt"
	"math"

	"github.com/planbiir/skitrack/internal/segment"
	"github.com/planbiir/skitrack/internal/track"
)

// Result is the finalized analysis of one track.
type Result struct {
	Points   []track.Point     `json:"points"`
	Segments []segment.Segment `json:"segments"`
	Summary  track.Summary     `json:"summary"`
}

// View is a read-only projection over a point range: the whole track or a
// single segment.
type View struct {
	Points       []track.Point
	Summary      track.Summary
	IsSegment    bool
	Segment      *segment.Segment
	SegmentIndex int
	StartDist    float64 // cumulative distance of the first point, meters
}

// Run analyzes raw points and segments the result. It returns nil when there
// are no points.
func Run(raw []track.RawPoint, cfg track.Config) *Result {
	a := track.Analyze(raw, cfg)
	if a == nil {
		return nil
	}

	segments := segment.Detect(a.Points)
	summary := a.Summary
	summary.RunsCount, summary.LiftsCount = segment.Count(segments)

	return &Result{
		Points:   a.Points,
		Segments: segments,
		Summary:  summary,
	}
}

// Whole returns the whole-track view.
func (r *Result) Whole() View {
	return View{
		Points:       r.Points,
		Summary:      r.Summary,
		SegmentIndex: -1,
	}
}

// SegmentView narrows the view to the segment at idx in detection order. The
// returned points share the backing array of r.Points.
func (r *Result) SegmentView(idx int) (View, error) {
	if idx < 0 || idx >= len(r.Segments) {
		return View{}, fmt.Errorf("segment index %d out of range [0, %d)", idx, len(r.Segments))
	}

	seg := r.Segments[idx]
	points := r.Points[seg.StartIdx : seg.EndIdx+1]

	maxEle := math.Inf(-1)
	minEle := math.Inf(1)
	for _, p := range points {
		maxEle = math.Max(maxEle, p.Ele)
		minEle = math.Min(minEle, p.Ele)
	}

	return View{
		Points: points,
		Summary: track.Summary{
			TotalDistanceKm: math.Round(seg.DistanceKm*100) / 100,
			MaxEle:          maxEle,
			MinEle:          minEle,
			ElevationGain:   seg.VerticalMeters,
			DurationMs:      seg.DurationMs,
			Duration:        seg.Duration(),
			AvgSpeedKmh:     seg.AvgSpeedKmh,
			MaxSpeedKmh:     seg.MaxSpeedKmh,
			PointCount:      len(points),
		},
		IsSegment:    true,
		Segment:      &seg,
		SegmentIndex: idx,
		StartDist:    points[0].CumDist,
	}, nil
}

// Label names the view for display.
func (v View) Label() string {
	if v.IsSegment && v.Segment != nil {
		return v.Segment.ID()
	}
	return "track"
}
