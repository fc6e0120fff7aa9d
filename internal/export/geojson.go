// Package export renders an analyzed track as GeoJSON or as an HTML chart
// report.
package export

import (
	"fmt"
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/planbiir/skitrack/internal/analysis"
	"github.com/planbiir/skitrack/internal/track"
)

// FeatureCollection builds one LineString feature for the whole track followed
// by one per segment, in detection order.
func FeatureCollection(name string, r *analysis.Result) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	line := lineString(r.Points)
	whole := geojson.NewFeature(line)
	whole.Properties["kind"] = "track"
	whole.Properties["name"] = name
	whole.Properties["distance_km"] = r.Summary.TotalDistanceKm
	whole.Properties["elevation_gain_m"] = r.Summary.ElevationGain
	whole.Properties["max_ele_m"] = r.Summary.MaxEle
	whole.Properties["min_ele_m"] = r.Summary.MinEle
	whole.Properties["duration"] = r.Summary.Duration
	whole.Properties["max_speed_kmh"] = r.Summary.MaxSpeedKmh
	whole.Properties["runs"] = r.Summary.RunsCount
	whole.Properties["lifts"] = r.Summary.LiftsCount
	fc.Append(whole)

	for i, s := range r.Segments {
		f := geojson.NewFeature(lineString(r.Points[s.StartIdx : s.EndIdx+1]))
		f.ID = s.ID()
		f.Properties["kind"] = "segment"
		f.Properties["index"] = i
		f.Properties["type"] = s.Type.String()
		f.Properties["distance_km"] = s.DistanceKm
		f.Properties["vertical_m"] = s.VerticalMeters
		f.Properties["duration"] = s.Duration()
		f.Properties["max_speed_kmh"] = s.MaxSpeedKmh
		f.Properties["avg_speed_kmh"] = s.AvgSpeedKmh
		fc.Append(f)
	}

	if len(line) > 0 {
		fc.BBox = geojson.NewBBox(line.Bound())
	}
	return fc
}

// WriteGeoJSON encodes the feature collection for r to w.
func WriteGeoJSON(w io.Writer, name string, r *analysis.Result) error {
	data, err := FeatureCollection(name, r).MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode geojson: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write geojson: %w", err)
	}
	return nil
}

// lineString uses GeoJSON axis order, longitude first.
func lineString(points []track.Point) orb.LineString {
	ls := make(orb.LineString, len(points))
	for i, p := range points {
		ls[i] = orb.Point{p.Lon, p.Lat}
	}
	return ls
}
