package playback

import (
	"time"

	"github.com/planbiir/skitrack/internal/track"
)

// Lerp interpolates every numeric field of two enriched points at ratio r.
// The timestamp is interpolated only when both points carry one.
func Lerp(a, b track.Point, r float64) track.Point {
	p := track.Point{
		RawPoint: track.RawPoint{
			Lat: lerp(a.Lat, b.Lat, r),
			Lon: lerp(a.Lon, b.Lon, r),
			Ele: lerp(a.Ele, b.Ele, r),
		},
		CumDist:     lerp(a.CumDist, b.CumDist, r),
		Speed:       lerp(a.Speed, b.Speed, r),
		SmoothSpeed: lerp(a.SmoothSpeed, b.SmoothSpeed, r),
	}
	if a.HasTime() && b.HasTime() {
		p.Time = a.Time.Add(time.Duration(float64(b.Time.Sub(a.Time)) * r))
	}
	return p
}

func lerp(a, b, r float64) float64 {
	return a + (b-a)*r
}
