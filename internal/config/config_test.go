package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Graphics.Width != 1280 {
		t.Errorf("expected width 1280, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 720 {
		t.Errorf("expected height 720, got %d", cfg.Graphics.Height)
	}
	if cfg.Graphics.Fullscreen {
		t.Error("expected fullscreen to be false by default")
	}
	if !cfg.Graphics.VSync {
		t.Error("expected vsync to be true by default")
	}

	if cfg.Placement.Scale != 1 {
		t.Errorf("expected scale 1, got %f", cfg.Placement.Scale)
	}
	if cfg.Render.ColorCorrection != [4]float32{1, 1, 1, 1} {
		t.Errorf("unexpected color correction %v", cfg.Render.ColorCorrection)
	}
	if cfg.Render.LightDirection != [4]float32{0.250, 0.866, 0.433, 0} {
		t.Errorf("unexpected light direction %v", cfg.Render.LightDirection)
	}
	if !cfg.Render.Opaque || !cfg.Render.Transparent {
		t.Error("expected both draw passes enabled by default")
	}
	if cfg.Assets.WatchDebounce != 250*time.Millisecond {
		t.Errorf("expected debounce 250ms, got %v", cfg.Assets.WatchDebounce)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
graphics:
  width: 1920
  height: 1080
  fullscreen: true
  vsync: false

assets:
  search_paths: ["textures", "/opt/shared"]
  watch: true
  watch_debounce: 1s

placement:
  offset: [0.5, 0, -1]
  scale: 2
  rotation_degrees: 45

render:
  color_correction: [0.9, 0.9, 1, 1]
  transparent: false

logging:
  level: "debug"
  log_file: "meshview.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Graphics.Width != 1920 || cfg.Graphics.Height != 1080 {
		t.Errorf("expected 1920x1080, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
	}
	if !cfg.Graphics.Fullscreen {
		t.Error("expected fullscreen to be true")
	}
	if cfg.Graphics.VSync {
		t.Error("expected vsync to be false")
	}

	wantPaths := []string{filepath.Join(tmpDir, "textures"), "/opt/shared"}
	if len(cfg.Assets.SearchPaths) != 2 || cfg.Assets.SearchPaths[0] != wantPaths[0] || cfg.Assets.SearchPaths[1] != wantPaths[1] {
		t.Errorf("expected search paths %v, got %v", wantPaths, cfg.Assets.SearchPaths)
	}
	if !cfg.Assets.Watch || cfg.Assets.WatchDebounce != time.Second {
		t.Errorf("unexpected watch settings: %+v", cfg.Assets)
	}

	if cfg.Placement.Offset != [3]float32{0.5, 0, -1} {
		t.Errorf("unexpected offset %v", cfg.Placement.Offset)
	}
	if cfg.Placement.Scale != 2 || cfg.Placement.RotationDegrees != 45 {
		t.Errorf("unexpected placement %+v", cfg.Placement)
	}

	if cfg.Render.Transparent {
		t.Error("expected transparent pass disabled")
	}
	if !cfg.Render.Opaque {
		t.Error("opaque pass should keep its default")
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "meshview.log" {
		t.Errorf("expected log file 'meshview.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
graphics:
  width: not a number
  invalid syntax here
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero width", func(c *Config) { c.Graphics.Width = 0 }, "invalid size"},
		{"bad fov", func(c *Config) { c.Graphics.FOVDegrees = 180 }, "fov_degrees"},
		{"zero scale", func(c *Config) { c.Placement.Scale = 0 }, "scale"},
		{"zero light", func(c *Config) { c.Render.LightDirection = [4]float32{} }, "light_direction"},
		{"negative debounce", func(c *Config) { c.Assets.WatchDebounce = -time.Second }, "watch_debounce"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	os.Chdir(tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("graphics:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find config.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "fullscreen flag",
			setup: func() { *flagFullscreen = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Graphics.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() { *flagFullscreen = false },
		},
		{
			name:  "windowed flag",
			setup: func() { *flagWindowed = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Graphics.Fullscreen {
					t.Error("expected fullscreen to be false with windowed flag")
				}
			},
			teardown: func() { *flagWindowed = false },
		},
		{
			name: "placement flags",
			setup: func() {
				*flagScale = 3
				*flagRotate = -30
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Placement.Scale != 3 {
					t.Errorf("expected scale 3, got %f", cfg.Placement.Scale)
				}
				if cfg.Placement.RotationDegrees != -30 {
					t.Errorf("expected rotation -30, got %f", cfg.Placement.RotationDegrees)
				}
			},
			teardown: func() {
				*flagScale = 0
				*flagRotate = 0
			},
		},
		{
			name: "watch and search flags",
			setup: func() {
				*flagWatch = true
				*flagSearch = "a" + string(filepath.ListSeparator) + " b "
			},
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Assets.Watch {
					t.Error("expected watch enabled")
				}
				if len(cfg.Assets.SearchPaths) != 2 || cfg.Assets.SearchPaths[1] != "b" {
					t.Errorf("unexpected search paths %v", cfg.Assets.SearchPaths)
				}
			},
			teardown: func() {
				*flagWatch = false
				*flagSearch = ""
			},
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Graphics.Width != 2560 || cfg.Graphics.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
graphics:
  width: 1600
  height: 900
placement:
  scale: 4
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Width from the flag, height and scale from the file
	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Graphics.Height)
	}
	if cfg.Placement.Scale != 4 {
		t.Errorf("expected scale 4 from file, got %f", cfg.Placement.Scale)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("placement:\n  scale: -1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); err == nil {
		t.Error("expected Load to reject negative scale")
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Placement.RotationDegrees = 90
	cfg.Assets.WatchDebounce = 2 * time.Second
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if loaded.Placement.RotationDegrees != 90 {
		t.Errorf("expected rotation 90, got %f", loaded.Placement.RotationDegrees)
	}
	if loaded.Assets.WatchDebounce != 2*time.Second {
		t.Errorf("expected debounce 2s, got %v", loaded.Assets.WatchDebounce)
	}
}

func TestSave(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	t.Setenv("APPDATA", tmpDir)

	cfg := Default()
	cfg.Graphics.Width = 640
	path, err := cfg.Save()
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if want := filepath.Join(ConfigDir(), "config.yaml"); path != want {
		t.Errorf("expected %s, got %s", want, path)
	}

	// The saved file is the one Load picks up next
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)
	os.Chdir(tmpDir)
	if found := findConfigFile(); found != path {
		t.Errorf("expected findConfigFile to return %s, got %s", path, found)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if loaded.Graphics.Width != 640 {
		t.Errorf("expected width 640, got %d", loaded.Graphics.Width)
	}
}
