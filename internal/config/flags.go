package config

import (
	"flag"
	"path/filepath"
	"strings"
)

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagScale      = flag.Float64("scale", 0, "Placement scale factor")
	flagRotate     = flag.Float64("rotate", 0, "Placement rotation in degrees")
	flagWatch      = flag.Bool("watch", false, "Reload inputs when they change on disk")
	flagSearch     = flag.String("search", "", "Extra material/texture search paths")
	flagSaveConfig = flag.Bool("save-config", false, "Write the effective config to the user config directory and exit")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// SaveRequested reports whether --save-config was given.
func SaveRequested() bool {
	return *flagSaveConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWindowed {
		cfg.Graphics.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
	if *flagScale > 0 {
		cfg.Placement.Scale = float32(*flagScale)
	}
	if *flagRotate != 0 {
		cfg.Placement.RotationDegrees = float32(*flagRotate)
	}
	if *flagWatch {
		cfg.Assets.Watch = true
	}
	if *flagSearch != "" {
		for _, p := range filepath.SplitList(*flagSearch) {
			if p = strings.TrimSpace(p); p != "" {
				cfg.Assets.SearchPaths = append(cfg.Assets.SearchPaths, p)
			}
		}
	}
}
