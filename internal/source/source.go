// Package source loads raw track samples from supported file formats.
package source

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/planbiir/skitrack/internal/fitfile"
	"github.com/planbiir/skitrack/internal/gpx"
	"github.com/planbiir/skitrack/internal/track"
)

// ErrUnsupportedFormat is returned for file extensions without a parser.
var ErrUnsupportedFormat = errors.New("unsupported track format")

// Track is a loaded file.
type Track struct {
	Path   string
	Name   string
	Format string
	Points []track.RawPoint
}

// Load picks a parser by file extension (.gpx or .fit).
func Load(path string, logger *slog.Logger) (*Track, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ext := strings.ToLower(filepath.Ext(path))
	t := &Track{
		Path:   path,
		Name:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Format: strings.TrimPrefix(ext, "."),
	}

	switch ext {
	case ".gpx":
		f, err := gpx.Parse(path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		if f.Name != "" {
			t.Name = f.Name
		}
		t.Points = f.Points
		logger.Debug("parsed gpx",
			"path", path,
			"tracks", f.Tracks,
			"segments", f.Segments,
			"duration", f.Duration())

	case ".fit":
		points, err := fitfile.Parse(path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		t.Points = points

	default:
		return nil, fmt.Errorf("load %s: %w: %q", path, ErrUnsupportedFormat, ext)
	}

	logger.Info("track loaded", "path", path, "format", t.Format, "points", len(t.Points))
	return t, nil
}
