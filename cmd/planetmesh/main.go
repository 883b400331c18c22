// Package main runs the planet tree headless from a fixed camera and writes
// the resulting surface to an OBJ file.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/Faultbox/voxplanet/internal/config"
	"github.com/Faultbox/voxplanet/internal/engine/camera"
	"github.com/Faultbox/voxplanet/internal/export"
	"github.com/Faultbox/voxplanet/internal/lod"
	"github.com/Faultbox/voxplanet/internal/logger"
	"github.com/Faultbox/voxplanet/internal/voxel"
	"github.com/Faultbox/voxplanet/pkg/math"
)

var (
	flagOut      = flag.String("out", "planet.obj", "Output OBJ path")
	flagPasses   = flag.Int("passes", 32, "Maximum traversal passes")
	flagCompress = flag.Bool("zstd", false, "Compress the output with zstd")
	flagAspect   = flag.Float64("aspect", 16.0/9.0, "Frustum aspect ratio")
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Error("export failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	gen, err := lod.GeneratorFromConfig(cfg)
	if err != nil {
		return err
	}

	var sys *lod.System
	sink := export.NewCollector(func(m *voxel.Mesh) { sys.ReleaseMesh(m) })
	sys, err = lod.NewSystem(lod.SettingsFromConfig(cfg), gen, sink)
	if err != nil {
		return err
	}
	defer sys.Close()

	pos := cfg.Camera.Position
	cam := camera.NewFlyCamera(math.Vec3{X: pos[0], Y: pos[1], Z: pos[2]},
		cfg.Camera.FieldOfView, cfg.Camera.Speed, cfg.Planet.Radius)
	frustum := cam.Frustum(float32(*flagAspect))
	snap := cam.Snapshot()

	start := time.Now()
	for pass := 1; pass <= *flagPasses; pass++ {
		before := sys.Stats().Completed
		sys.Update(frustum, snap)
		sys.Wait()
		st := sys.Stats()
		logger.Debug("Pass done", zap.Int("pass", pass), zap.Stringer("tree", st))
		if st.Completed == before {
			logger.Info("Tree converged", zap.Int("passes", pass), zap.Duration("elapsed", time.Since(start)))
			break
		}
	}

	sum, err := export.SaveOBJ(*flagOut, sink.Snapshot(), *flagCompress)
	if err != nil {
		return err
	}
	info, err := os.Stat(*flagOut)
	if err != nil {
		return err
	}
	st := sys.Stats()
	logger.Info("Mesh written",
		zap.String("file", *flagOut),
		zap.Int("grids", sum.Grids),
		zap.String("vertices", humanize.Comma(int64(sum.Vertices))),
		zap.String("triangles", humanize.Comma(int64(sum.Triangles))),
		zap.String("size", humanize.Bytes(uint64(info.Size()))),
		zap.String("signs", humanize.Bytes(uint64(st.CompressedBytes))),
		zap.String("grid_state", humanize.Bytes(uint64(st.GridBytes))),
	)
	return nil
}
