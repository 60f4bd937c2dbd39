package primer

import (
	"fmt"
	"os"

	"github.com/primerar/primer/wallrt/rt/core"
	"gopkg.in/yaml.v3"
)

// Config holds the renderer settings.
type Config struct {
	Logging LoggingConfig      `yaml:"logging"`
	Render  RenderConfig       `yaml:"render"`
	Blend   core.BlendSettings `yaml:"blend"`
	Tiling  core.Tiling        `yaml:"tiling"`
}

type LoggingConfig struct {
	Level string  `yaml:"level"`
	Debug bool    `yaml:"debug"`
	File  LogFile `yaml:"file"`
}

// RenderConfig holds window, projection and overlay settings.
type RenderConfig struct {
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	FovY          float32 `yaml:"fov_y"` // degrees
	Near          float32 `yaml:"near"`
	Far           float32 `yaml:"far"`
	Orientation   string  `yaml:"orientation"`
	Workers       int     `yaml:"workers"`
	SegmentsX     int     `yaml:"segments_x"`
	SegmentsY     int     `yaml:"segments_y"`
	SurfaceOffset float32 `yaml:"surface_offset"`
}

// DefaultConfig returns a Config with the renderer defaults.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level: "info",
			File: LogFile{
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 7,
				Compress:   true,
			},
		},
		Render: RenderConfig{
			Width:         1280,
			Height:        720,
			FovY:          60,
			Near:          core.DefaultNear,
			Far:           core.DefaultFar,
			Orientation:   "portrait",
			SegmentsX:     1,
			SegmentsY:     1,
			SurfaceOffset: core.DefaultSurfaceOffset,
		},
		Blend:  core.DefaultBlendSettings(),
		Tiling: core.DefaultTiling(),
	}
}

// LoadConfig loads configuration with priority: defaults < file.
// An empty path returns the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) Validate() error {
	r := c.Render
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("render size %dx%d must be positive", r.Width, r.Height)
	}
	if r.Near <= 0 || r.Far <= r.Near {
		return fmt.Errorf("clip planes near=%g far=%g: need 0 < near < far", r.Near, r.Far)
	}
	if r.FovY <= 0 || r.FovY >= 180 {
		return fmt.Errorf("fov_y %g out of range (0, 180)", r.FovY)
	}
	if _, err := ParseOrientation(r.Orientation); err != nil {
		return err
	}
	return nil
}

// ParseOrientation maps a config name to an interface orientation.
func ParseOrientation(name string) (core.Orientation, error) {
	switch name {
	case "", "portrait":
		return core.Portrait, nil
	case "portrait-upside-down":
		return core.PortraitUpsideDown, nil
	case "landscape-left":
		return core.LandscapeLeft, nil
	case "landscape-right":
		return core.LandscapeRight, nil
	default:
		return 0, fmt.Errorf("unknown orientation %q", name)
	}
}
