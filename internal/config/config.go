// Package config loads runtime settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/planbiir/skitrack/internal/export"
	"github.com/planbiir/skitrack/internal/playback"
	"github.com/planbiir/skitrack/internal/track"
)

// MaxSmoothingWindow is the widest moving-average half-width accepted.
const MaxSmoothingWindow = 10

// Config holds the runtime settings read from SKITRACK_* variables.
type Config struct {
	Mode3D          bool          `mapstructure:"SKITRACK_MODE_3D"`
	SmoothingWindow int           `mapstructure:"SKITRACK_SMOOTHING_WINDOW"`
	PlaybackSpeed   float64       `mapstructure:"SKITRACK_PLAYBACK_SPEED"`
	FrameInterval   time.Duration `mapstructure:"SKITRACK_FRAME_INTERVAL"`
	DetailLevel     int           `mapstructure:"SKITRACK_DETAIL_LEVEL"`
	LogLevel        string        `mapstructure:"SKITRACK_LOG_LEVEL"`
}

// Load reads settings from the environment, falling back to ./.env and then
// to defaults.
func Load() (Config, error) {
	return LoadFrom(".env")
}

// LoadFrom is Load with an explicit env file path. A missing file is not an
// error. Values already present in the environment win over the file.
func LoadFrom(envFile string) (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("SKITRACK_MODE_3D", true)
	v.SetDefault("SKITRACK_SMOOTHING_WINDOW", 1)
	v.SetDefault("SKITRACK_PLAYBACK_SPEED", 1.0)
	v.SetDefault("SKITRACK_FRAME_INTERVAL", playback.DefaultFrameInterval)
	v.SetDefault("SKITRACK_DETAIL_LEVEL", export.DefaultDetail)
	v.SetDefault("SKITRACK_LOG_LEVEL", "info")

	if envFile != "" {
		values, err := godotenv.Read(envFile)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read %s: %w", envFile, err)
		default:
			for key, value := range values {
				v.SetDefault(strings.ToUpper(key), value)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	c.SmoothingWindow = max(0, min(c.SmoothingWindow, MaxSmoothingWindow))
	c.PlaybackSpeed = playback.SnapSpeed(c.PlaybackSpeed)
	if c.FrameInterval <= 0 {
		c.FrameInterval = playback.DefaultFrameInterval
	}
	c.DetailLevel = max(0, c.DetailLevel)
}

// Analysis returns the analyzer settings.
func (c Config) Analysis() track.Config {
	return track.Config{
		Mode3D:          c.Mode3D,
		SmoothingWindow: c.SmoothingWindow,
	}
}

// Level parses LogLevel, defaulting to info for unknown names.
func (c Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
