// Package config handles planet, generation and viewer configuration.
package config

import (
	"errors"
	"fmt"
)

// Config holds all settings.
type Config struct {
	Planet     PlanetConfig     `yaml:"planet"`
	Generation GenerationConfig `yaml:"generation"`
	LOD        LODConfig        `yaml:"lod"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Graphics   GraphicsConfig   `yaml:"graphics"`
	Camera     CameraConfig     `yaml:"camera"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// PlanetConfig describes the density function.
type PlanetConfig struct {
	Seed        int64   `yaml:"seed"`
	Radius      float32 `yaml:"radius"`
	NoiseWeight float32 `yaml:"noise_weight"`
	Frequency   float32 `yaml:"frequency"`
	Octaves     int     `yaml:"octaves"`
	NoiseKind   string  `yaml:"noise_kind"` // "turbulence" or "perlin"
}

// GenerationConfig holds block and octree sizing.
type GenerationConfig struct {
	BlockResolution    int     `yaml:"block_resolution"`
	VoxelSize          float32 `yaml:"voxel_size"` // initial guess for the root search
	MaxDepth           int     `yaml:"max_depth"`  // deepest octree level below the root
	RootSearchAttempts int     `yaml:"root_search_attempts"`
	RequireWideVectors bool    `yaml:"require_wide_vectors"`
}

// LODConfig holds the screen-space error heuristic constants.
type LODConfig struct {
	ErrorExponent  float32 `yaml:"error_exponent"`
	ErrorThreshold float32 `yaml:"error_threshold"`
}

// SchedulerConfig sizes the generation worker pool.
type SchedulerConfig struct {
	Workers int `yaml:"workers"`
}

// GraphicsConfig holds display settings for the viewer.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	Wireframe  bool `yaml:"wireframe"`
	ShowBounds bool `yaml:"show_bounds"`

	SunLongitude float32 `yaml:"sun_longitude"` // degrees around Y
	SunLatitude  float32 `yaml:"sun_latitude"`  // degrees above the horizon
}

// CameraConfig holds the viewer camera settings.
type CameraConfig struct {
	FieldOfView float32    `yaml:"field_of_view"` // degrees
	Speed       float32    `yaml:"speed"`
	Position    [3]float32 `yaml:"position"`
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	Listen string `yaml:"listen"` // empty disables the endpoint
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Planet: PlanetConfig{
			Seed:        3,
			Radius:      1.0,
			NoiseWeight: 3.0,
			Frequency:   1.0,
			Octaves:     8,
			NoiseKind:   "turbulence",
		},
		Generation: GenerationConfig{
			BlockResolution:    32,
			VoxelSize:          0.03,
			MaxDepth:           12,
			RootSearchAttempts: 16,
			RequireWideVectors: false,
		},
		LOD: LODConfig{
			ErrorExponent:  1.2,
			ErrorThreshold: 0.0015,
		},
		Scheduler: SchedulerConfig{
			Workers: 6,
		},
		Graphics: GraphicsConfig{
			Width:        1280,
			Height:       720,
			Fullscreen:   false,
			VSync:        true,
			SunLongitude: 30,
			SunLatitude:  45,
		},
		Camera: CameraConfig{
			FieldOfView: 60,
			Speed:       0.5,
			Position:    [3]float32{0, 0, 3},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

var (
	// ErrInvalid is wrapped by every Validate failure.
	ErrInvalid = errors.New("invalid config")
)

// Validate rejects settings the generator cannot work with.
func (c *Config) Validate() error {
	switch {
	case c.Planet.Radius <= 0:
		return fmt.Errorf("%w: planet.radius must be positive, got %v", ErrInvalid, c.Planet.Radius)
	case c.Planet.Octaves < 1:
		return fmt.Errorf("%w: planet.octaves must be at least 1, got %d", ErrInvalid, c.Planet.Octaves)
	case c.Planet.NoiseKind != "turbulence" && c.Planet.NoiseKind != "perlin":
		return fmt.Errorf("%w: unknown planet.noise_kind %q", ErrInvalid, c.Planet.NoiseKind)
	case c.Generation.BlockResolution < 4:
		return fmt.Errorf("%w: generation.block_resolution must be at least 4, got %d", ErrInvalid, c.Generation.BlockResolution)
	case c.Generation.VoxelSize <= 0:
		return fmt.Errorf("%w: generation.voxel_size must be positive, got %v", ErrInvalid, c.Generation.VoxelSize)
	case c.Generation.MaxDepth < 0 || c.Generation.MaxDepth > 30:
		return fmt.Errorf("%w: generation.max_depth must be in [0, 30], got %d", ErrInvalid, c.Generation.MaxDepth)
	case c.Generation.RootSearchAttempts < 1:
		return fmt.Errorf("%w: generation.root_search_attempts must be at least 1", ErrInvalid)
	case c.LOD.ErrorThreshold <= 0:
		return fmt.Errorf("%w: lod.error_threshold must be positive, got %v", ErrInvalid, c.LOD.ErrorThreshold)
	case c.Scheduler.Workers < 1:
		return fmt.Errorf("%w: scheduler.workers must be at least 1, got %d", ErrInvalid, c.Scheduler.Workers)
	}
	return nil
}
