// Package gpx reads GPX tracks into raw samples and writes samples back out.
package gpx

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	gpxgo "github.com/tkrajina/gpxgo/gpx"

	"github.com/planbiir/skitrack/internal/track"
)

// File is a parsed GPX file flattened to a single sample sequence.
type File struct {
	Name     string
	Tracks   int
	Segments int
	Points   []track.RawPoint
}

// Duration is the time between the first and last timestamped samples.
func (f *File) Duration() time.Duration {
	var first, last time.Time
	for _, p := range f.Points {
		if !p.HasTime() {
			continue
		}
		if first.IsZero() {
			first = p.Time
		}
		last = p.Time
	}
	return last.Sub(first)
}

// Parse reads and flattens a GPX file.
func Parse(filename string) (*File, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ParseReader(file)
}

// ParseReader parses GPX from an io.Reader. Track segments are concatenated
// in file order; when the file has no track points, route points are used.
func ParseReader(r io.Reader) (*File, error) {
	data, err := gpxgo.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GPX: %w", err)
	}

	f := &File{
		Name:   data.Name,
		Tracks: len(data.Tracks),
	}

	for _, trk := range data.Tracks {
		if f.Name == "" {
			f.Name = trk.Name
		}
		f.Segments += len(trk.Segments)
		for _, seg := range trk.Segments {
			for _, p := range seg.Points {
				f.Points = append(f.Points, toRaw(p))
			}
		}
	}

	if len(f.Points) == 0 {
		for _, rte := range data.Routes {
			for _, p := range rte.Points {
				f.Points = append(f.Points, toRaw(p))
			}
		}
	}

	if len(f.Points) == 0 {
		return nil, track.ErrEmptyTrack
	}
	return f, nil
}

func toRaw(p gpxgo.GPXPoint) track.RawPoint {
	raw := track.RawPoint{
		Lat:  p.Latitude,
		Lon:  p.Longitude,
		Time: p.Timestamp,
	}
	if p.Elevation.NotNull() {
		raw.Ele = p.Elevation.Value()
	}
	return raw
}

// Write encodes points as a single-track GPX 1.1 document.
func Write(w io.Writer, name string, points []track.RawPoint) error {
	seg := gpxgo.GPXTrackSegment{Points: make([]gpxgo.GPXPoint, len(points))}
	for i, p := range points {
		seg.Points[i] = gpxgo.GPXPoint{
			Point: gpxgo.Point{
				Latitude:  p.Lat,
				Longitude: p.Lon,
				Elevation: *gpxgo.NewNullableFloat64(p.Ele),
			},
			Timestamp: p.Time,
		}
	}

	doc := &gpxgo.GPX{
		Name:    name,
		Creator: "skitrack",
		Tracks: []gpxgo.GPXTrack{{
			Name:     name,
			Segments: []gpxgo.GPXTrackSegment{seg},
		}},
	}

	out, err := doc.ToXml(gpxgo.ToXmlParams{Version: "1.1", Indent: true})
	if err != nil {
		return fmt.Errorf("failed to encode GPX: %w", err)
	}
	if _, err := io.Copy(w, bytes.NewReader(out)); err != nil {
		return fmt.Errorf("failed to write GPX: %w", err)
	}
	return nil
}

// WriteFile saves points to filename as GPX.
func WriteFile(filename, name string, points []track.RawPoint) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := Write(file, name, points); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
