package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Planet.Seed != 3 {
		t.Errorf("expected seed 3, got %d", cfg.Planet.Seed)
	}
	if cfg.Planet.NoiseKind != "turbulence" {
		t.Errorf("expected turbulence noise, got %s", cfg.Planet.NoiseKind)
	}
	if cfg.LOD.ErrorExponent != 1.2 {
		t.Errorf("expected error exponent 1.2, got %f", cfg.LOD.ErrorExponent)
	}
	if cfg.LOD.ErrorThreshold != 0.0015 {
		t.Errorf("expected error threshold 0.0015, got %f", cfg.LOD.ErrorThreshold)
	}
	if cfg.Scheduler.Workers != 6 {
		t.Errorf("expected 6 workers, got %d", cfg.Scheduler.Workers)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "planet.yaml")

	yamlContent := `
planet:
  seed: 42
  radius: 2.5
  noise_kind: perlin

generation:
  block_resolution: 48
  max_depth: 9

lod:
  error_exponent: 1.0
  error_threshold: 0.003

scheduler:
  workers: 2

metrics:
  listen: ":2112"

logging:
  level: "debug"
  log_file: "planet.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Planet.Seed != 42 {
		t.Errorf("expected seed 42, got %d", cfg.Planet.Seed)
	}
	if cfg.Planet.Radius != 2.5 {
		t.Errorf("expected radius 2.5, got %f", cfg.Planet.Radius)
	}
	if cfg.Planet.NoiseKind != "perlin" {
		t.Errorf("expected perlin, got %s", cfg.Planet.NoiseKind)
	}
	// Untouched keys keep their defaults.
	if cfg.Planet.Octaves != 8 {
		t.Errorf("expected default octaves 8, got %d", cfg.Planet.Octaves)
	}
	if cfg.Generation.BlockResolution != 48 {
		t.Errorf("expected resolution 48, got %d", cfg.Generation.BlockResolution)
	}
	if cfg.LOD.ErrorThreshold != 0.003 {
		t.Errorf("expected threshold 0.003, got %f", cfg.LOD.ErrorThreshold)
	}
	if cfg.Scheduler.Workers != 2 {
		t.Errorf("expected 2 workers, got %d", cfg.Scheduler.Workers)
	}
	if cfg.Metrics.Listen != ":2112" {
		t.Errorf("expected metrics listen :2112, got %s", cfg.Metrics.Listen)
	}
	if cfg.Logging.LogFile != "planet.log" {
		t.Errorf("expected log file 'planet.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")

	invalidYAML := `
planet:
  radius: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if err := loadFromFile(Default(), configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if err := loadFromFile(Default(), "/nonexistent/path/planet.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero radius", func(c *Config) { c.Planet.Radius = 0 }},
		{"no octaves", func(c *Config) { c.Planet.Octaves = 0 }},
		{"unknown noise", func(c *Config) { c.Planet.NoiseKind = "simplex" }},
		{"tiny blocks", func(c *Config) { c.Generation.BlockResolution = 3 }},
		{"negative voxel", func(c *Config) { c.Generation.VoxelSize = -1 }},
		{"depth too deep", func(c *Config) { c.Generation.MaxDepth = 31 }},
		{"no root search", func(c *Config) { c.Generation.RootSearchAttempts = 0 }},
		{"zero threshold", func(c *Config) { c.LOD.ErrorThreshold = 0 }},
		{"no workers", func(c *Config) { c.Scheduler.Workers = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "planet.yaml")

	cfg := Default()
	cfg.Planet.Seed = 99
	cfg.Generation.MaxDepth = 5
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("loadFromFile: %v", err)
	}
	if loaded.Planet.Seed != 99 || loaded.Generation.MaxDepth != 5 {
		t.Errorf("round trip lost values: seed=%d depth=%d", loaded.Planet.Seed, loaded.Generation.MaxDepth)
	}
}

func TestSaveToRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planet.yaml")

	cfg := Default()
	cfg.Planet.Radius = 0
	err := cfg.SaveTo(path)
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Errorf("invalid config was written to %s", path)
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
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", tmpDir+"/xdg")

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "planet.yaml"), []byte("planet:\n  seed: 7\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find planet.yaml in current directory")
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
			name:  "seed flag",
			setup: func() { *flagSeed = 1234 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Planet.Seed != 1234 {
					t.Errorf("expected seed 1234, got %d", cfg.Planet.Seed)
				}
			},
			teardown: func() { *flagSeed = 0 },
		},
		{
			name:  "workers and resolution flags",
			setup: func() { *flagWorkers = 3; *flagResolution = 64 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Scheduler.Workers != 3 {
					t.Errorf("expected 3 workers, got %d", cfg.Scheduler.Workers)
				}
				if cfg.Generation.BlockResolution != 64 {
					t.Errorf("expected resolution 64, got %d", cfg.Generation.BlockResolution)
				}
			},
			teardown: func() { *flagWorkers = 0; *flagResolution = 0 },
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
			name:  "metrics flag",
			setup: func() { *flagMetrics = ":9100" },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Metrics.Listen != ":9100" {
					t.Errorf("expected :9100, got %s", cfg.Metrics.Listen)
				}
			},
			teardown: func() { *flagMetrics = "" },
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
	configPath := filepath.Join(t.TempDir(), "planet.yaml")

	yamlContent := `
scheduler:
  workers: 4
planet:
  seed: 11
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWorkers = 8
	defer func() {
		*flagConfig = ""
		*flagWorkers = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Scheduler.Workers != 8 {
		t.Errorf("expected 8 workers from flag, got %d", cfg.Scheduler.Workers)
	}
	if cfg.Planet.Seed != 11 {
		t.Errorf("expected seed 11 from file, got %d", cfg.Planet.Seed)
	}
}
