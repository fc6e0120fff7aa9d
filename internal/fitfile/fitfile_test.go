package fitfile

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/muktihari/fit/encoder"
	"github.com/muktihari/fit/profile/mesgdef"
	"github.com/muktihari/fit/profile/typedef"
	"github.com/muktihari/fit/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planbiir/skitrack/internal/track"
)

var start = time.Date(2025, 1, 20, 9, 15, 0, 0, time.UTC)

type sample struct {
	lat, lon float64
	alt      float64
	noFix    bool
}

// encode builds an activity file with one record per sample, one second apart.
func encode(t *testing.T, samples []sample) []byte {
	t.Helper()

	fit := &proto.FIT{}
	fit.Messages = append(fit.Messages, mesgdef.NewFileId(nil).
		SetType(typedef.FileActivity).
		SetManufacturer(typedef.ManufacturerDevelopment).
		SetTimeCreated(start).
		ToMesg(nil))

	for i, s := range samples {
		rec := mesgdef.NewRecord(nil).
			SetTimestamp(start.Add(time.Duration(i) * time.Second)).
			SetAltitude(uint16((s.alt + 500) * 5))
		if !s.noFix {
			rec.SetPositionLat(int32(s.lat * semicircles)).
				SetPositionLong(int32(s.lon * semicircles))
		}
		fit.Messages = append(fit.Messages, rec.ToMesg(nil))
	}

	var buf bytes.Buffer
	require.NoError(t, encoder.New(&buf).Encode(fit))
	return buf.Bytes()
}

func TestParseReader(t *testing.T) {
	data := encode(t, []sample{
		{lat: 45.9766, lon: 7.6586, alt: 3883},
		{lat: 45.9770, lon: 7.6590, alt: 3870},
		{noFix: true, alt: 3860},
		{lat: 45.9780, lon: 7.6601, alt: 3851.2},
	})

	points, err := ParseReader(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.InDelta(t, 45.9766, points[0].Lat, 1e-6)
	assert.InDelta(t, 7.6586, points[0].Lon, 1e-6)
	assert.InDelta(t, 3883.0, points[0].Ele, 0.2)
	assert.Equal(t, start, points[0].Time)

	// The record without a fix is dropped; timestamps stay with their samples.
	assert.Equal(t, start.Add(3*time.Second), points[2].Time)
	assert.InDelta(t, 3851.2, points[2].Ele, 0.2)
}

func TestParseReaderNoPositions(t *testing.T) {
	data := encode(t, []sample{{noFix: true, alt: 1200}})

	_, err := ParseReader(bytes.NewReader(data))
	assert.ErrorIs(t, err, track.ErrEmptyTrack)
}

func TestParseReaderGarbage(t *testing.T) {
	_, err := ParseReader(bytes.NewReader([]byte("definitely not a fit file")))
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ride.fit")
	require.NoError(t, os.WriteFile(path, encode(t, []sample{
		{lat: 46.5, lon: 8.0, alt: 2000},
		{lat: 46.501, lon: 8.001, alt: 1990},
	}), 0o644))

	points, err := Parse(path)
	require.NoError(t, err)
	assert.Len(t, points, 2)
}
