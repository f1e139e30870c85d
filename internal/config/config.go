// Package config loads mudra runtime settings from MUDRA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Landmark sources.
const (
	SourceCamera = "camera"
	SourceRemote = "remote"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds process-wide settings.
type Config struct {
	Addr    string `env:"MUDRA_ADDR"     envDefault:":8080"`
	DataDir string `env:"MUDRA_DATA_DIR"`
	WebDir  string `env:"MUDRA_WEB_DIR"`
	Profile string `env:"MUDRA_PROFILE"  envDefault:"default"`
	Tray    bool   `env:"MUDRA_TRAY"     envDefault:"true"`

	// Source selects where landmarks come from: the local camera through
	// MediaPipe, or a browser client over the WebSocket.
	Source   string `env:"MUDRA_SOURCE"    envDefault:"camera"`
	CameraID int    `env:"MUDRA_CAMERA_ID" envDefault:"0"`

	RenderFPS    int           `env:"MUDRA_RENDER_FPS"       envDefault:"60"`
	IdleFPS      int           `env:"MUDRA_IDLE_FPS"         envDefault:"5"`
	ActiveFPS    int           `env:"MUDRA_ACTIVE_FPS"       envDefault:"30"`
	MotionThresh float64       `env:"MUDRA_MOTION_THRESHOLD" envDefault:"1.0"`
	IdleTimeout  time.Duration `env:"MUDRA_IDLE_TIMEOUT"     envDefault:"2s"`
}

// Load parses the environment, fills the data directory default and validates.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".mudra")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	switch c.Source {
	case SourceCamera, SourceRemote:
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalid, c.Source)
	}
	if c.RenderFPS <= 0 || c.IdleFPS <= 0 || c.ActiveFPS <= 0 {
		return fmt.Errorf("%w: frame rates must be positive", ErrInvalid)
	}
	if c.MotionThresh <= 0 {
		return fmt.Errorf("%w: motion threshold must be positive", ErrInvalid)
	}
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("%w: idle timeout must be positive", ErrInvalid)
	}
	if c.Profile == "" {
		return fmt.Errorf("%w: profile name is required", ErrInvalid)
	}
	return nil
}

// DBPath returns the sqlite database location inside the data directory.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "mudra.db")
}
