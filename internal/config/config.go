// Package config handles viewer configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/Faultbox/meshport/internal/logger"
)

// Config holds all viewer settings.
type Config struct {
	Graphics  GraphicsConfig  `yaml:"graphics"`
	Assets    AssetsConfig    `yaml:"assets"`
	Placement PlacementConfig `yaml:"placement"`
	Render    RenderConfig    `yaml:"render"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// GraphicsConfig holds display settings.
type GraphicsConfig struct {
	Width      int        `yaml:"width"`
	Height     int        `yaml:"height"`
	Fullscreen bool       `yaml:"fullscreen"`
	VSync      bool       `yaml:"vsync"`
	FOVDegrees float32    `yaml:"fov_degrees"`
	ClearColor [4]float32 `yaml:"clear_color"`

	ScreenshotDir string `yaml:"screenshot_dir"` // P saves the frame here
}

// AssetsConfig controls how referenced files are found and watched.
type AssetsConfig struct {
	SearchPaths   []string      `yaml:"search_paths"`   // Extra directories for mtllib/map_Kd lookup
	Watch         bool          `yaml:"watch"`          // Reload when an input file changes
	WatchDebounce time.Duration `yaml:"watch_debounce"` // Quiet period before a reload
}

// PlacementConfig positions the loaded dataset in the world.
type PlacementConfig struct {
	Offset          [3]float32 `yaml:"offset"`
	Scale           float32    `yaml:"scale"`
	RotationDegrees float32    `yaml:"rotation_degrees"`
}

// RenderConfig holds shading inputs.
type RenderConfig struct {
	ColorCorrection [4]float32 `yaml:"color_correction"`
	LightDirection  [4]float32 `yaml:"light_direction"` // World-space, w = 0
	CameraDistance  float32    `yaml:"camera_distance"`
	Opaque          bool       `yaml:"opaque"`      // Draw the opaque pass
	Transparent     bool       `yaml:"transparent"` // Draw the transparent pass
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:         1280,
			Height:        720,
			VSync:         true,
			FOVDegrees:    45,
			ClearColor:    [4]float32{0.1, 0.1, 0.12, 1},
			ScreenshotDir: "screenshots",
		},
		Assets: AssetsConfig{
			WatchDebounce: 250 * time.Millisecond,
		},
		Placement: PlacementConfig{
			Scale: 1,
		},
		Render: RenderConfig{
			ColorCorrection: [4]float32{1, 1, 1, 1},
			LightDirection:  [4]float32{0.250, 0.866, 0.433, 0},
			CameraDistance:  0.6,
			Opaque:          true,
			Transparent:     true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks values that would make the viewer misbehave.
func (c *Config) Validate() error {
	var errs []error
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		errs = append(errs, fmt.Errorf("graphics: invalid size %dx%d", c.Graphics.Width, c.Graphics.Height))
	}
	if c.Graphics.FOVDegrees <= 0 || c.Graphics.FOVDegrees >= 180 {
		errs = append(errs, fmt.Errorf("graphics: fov_degrees %v out of range (0,180)", c.Graphics.FOVDegrees))
	}
	if c.Placement.Scale <= 0 {
		errs = append(errs, fmt.Errorf("placement: scale must be positive, got %v", c.Placement.Scale))
	}
	if l := c.Render.LightDirection; l[0] == 0 && l[1] == 0 && l[2] == 0 {
		errs = append(errs, errors.New("render: light_direction must not be zero"))
	}
	if c.Render.CameraDistance <= 0 {
		errs = append(errs, fmt.Errorf("render: camera_distance must be positive, got %v", c.Render.CameraDistance))
	}
	if c.Assets.WatchDebounce < 0 {
		errs = append(errs, fmt.Errorf("assets: negative watch_debounce %v", c.Assets.WatchDebounce))
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}
	return errors.Join(errs...)
}
