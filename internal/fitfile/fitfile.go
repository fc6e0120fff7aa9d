// Package fitfile reads Garmin FIT activity files into raw samples.
package fitfile

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/muktihari/fit/decoder"
	"github.com/muktihari/fit/profile/mesgdef"
	"github.com/muktihari/fit/profile/typedef"
	"github.com/muktihari/fit/proto"

	"github.com/planbiir/skitrack/internal/track"
)

const (
	semicircles = 11930464.7111 // 2^31 / 180

	invalidPosition         = 0x7FFFFFFF
	invalidAltitude         = 0xFFFF
	invalidEnhancedAltitude = 0xFFFFFFFF
)

// Parse reads the record messages of a FIT file.
func Parse(filename string) ([]track.RawPoint, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ParseReader(bufio.NewReader(file))
}

// ParseReader decodes every FIT sequence in r and returns one sample per
// record message that carries a position. Records without a fix are skipped.
func ParseReader(r io.Reader) ([]track.RawPoint, error) {
	dec := decoder.New(r)

	var points []track.RawPoint
	for dec.Next() {
		fit, err := dec.Decode()
		if err != nil {
			return nil, fmt.Errorf("failed to decode FIT file: %w", err)
		}

		for i := range fit.Messages {
			if fit.Messages[i].Num != typedef.MesgNumRecord {
				continue
			}
			if p, ok := parseRecord(&fit.Messages[i]); ok {
				points = append(points, p)
			}
		}
	}

	if len(points) == 0 {
		return nil, track.ErrEmptyTrack
	}
	return points, nil
}

func parseRecord(msg *proto.Message) (track.RawPoint, bool) {
	rec := mesgdef.NewRecord(msg)

	if rec.PositionLat == invalidPosition || rec.PositionLong == invalidPosition {
		return track.RawPoint{}, false
	}

	p := track.RawPoint{
		Lat: float64(rec.PositionLat) / semicircles,
		Lon: float64(rec.PositionLong) / semicircles,
	}
	if !rec.Timestamp.IsZero() {
		p.Time = rec.Timestamp.UTC()
	}

	// FIT stores altitude as 5 * (meters + 500).
	switch {
	case rec.EnhancedAltitude != invalidEnhancedAltitude:
		p.Ele = float64(rec.EnhancedAltitude)/5 - 500
	case rec.Altitude != invalidAltitude:
		p.Ele = float64(rec.Altitude)/5 - 500
	}

	return p, true
}
