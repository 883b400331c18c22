// Package viewer implements the interactive planet viewer loop.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/voxplanet/internal/config"
	"github.com/Faultbox/voxplanet/internal/engine/camera"
	"github.com/Faultbox/voxplanet/internal/engine/debug"
	"github.com/Faultbox/voxplanet/internal/engine/input"
	"github.com/Faultbox/voxplanet/internal/engine/lighting"
	"github.com/Faultbox/voxplanet/internal/engine/renderer"
	"github.com/Faultbox/voxplanet/internal/engine/window"
	"github.com/Faultbox/voxplanet/internal/lod"
	"github.com/Faultbox/voxplanet/internal/logger"
	"github.com/Faultbox/voxplanet/internal/voxel"
	"github.com/Faultbox/voxplanet/pkg/math"
)

// Viewer is the main viewer instance.
type Viewer struct {
	cfg     *config.Config
	running bool
	log     *zap.Logger

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	queue    *renderer.Queue
	camera   *camera.FlyCamera
	system   *lod.System
	shots    *debug.ScreenshotCapture
	metrics  *http.Server

	mouseLook bool
	frozen    bool
	frozenCam lod.Camera
	frozenFr  *math.Frustum
}

// New creates the window, the renderer and the planet tree.
func New(cfg *config.Config) (*Viewer, error) {
	v := &Viewer{cfg: cfg, log: logger.Named("viewer")}
	v.log.Info("Initializing viewer",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
		zap.Int64("seed", cfg.Planet.Seed),
	)

	var err error
	v.window, err = window.New(window.Config{
		Title:      "voxplanet",
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	width, height := v.window.Size()
	var sys *lod.System
	v.queue = renderer.NewQueue(func(m *voxel.Mesh) {
		if sys != nil {
			sys.ReleaseMesh(m)
		}
	})
	v.renderer, err = renderer.New(renderer.Config{
		Width:     width,
		Height:    height,
		Wireframe: cfg.Graphics.Wireframe,
		Bounds:    cfg.Graphics.ShowBounds,
		Sun:       lighting.SunDirection(cfg.Graphics.SunLongitude, cfg.Graphics.SunLatitude),
	}, v.queue)
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	gen, err := lod.GeneratorFromConfig(cfg)
	if err != nil {
		v.Close()
		return nil, err
	}
	reg := prometheus.NewRegistry()
	sys, err = lod.NewSystem(lod.SettingsFromConfig(cfg), gen, v.queue, lod.WithRegisterer(reg))
	if err != nil {
		v.Close()
		return nil, fmt.Errorf("failed to build planet: %w", err)
	}
	v.system = sys

	if cfg.Metrics.Listen != "" {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		if err := sys.RegisterMetrics(reg); err != nil {
			v.Close()
			return nil, err
		}
		v.serveMetrics(reg)
	}

	pos := cfg.Camera.Position
	v.camera = camera.NewFlyCamera(math.Vec3{X: pos[0], Y: pos[1], Z: pos[2]},
		cfg.Camera.FieldOfView, cfg.Camera.Speed, cfg.Planet.Radius)
	v.input = input.New()
	v.shots = debug.NewScreenshotCapture("screenshots", "planet")

	v.log.Info("Viewer initialized")
	return v, nil
}

func (v *Viewer) serveMetrics(reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	v.metrics = &http.Server{Addr: v.cfg.Metrics.Listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		v.log.Info("Prometheus /metrics listening", zap.String("addr", v.cfg.Metrics.Listen))
		if err := v.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			v.log.Error("Metrics server failed", zap.Error(err))
		}
	}()
}

// Run starts the main loop.
func (v *Viewer) Run() error {
	v.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	v.log.Info("Starting main loop")
	for v.running {
		now := time.Now()
		dt := float32(now.Sub(lastTime).Seconds())
		lastTime = now

		if v.input.Update() {
			v.running = false
			break
		}
		v.handleEvents()

		v.update(dt)
		v.render()
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			grids, tris := v.renderer.Grids()
			st := v.system.Stats()
			v.window.SetTitle(fmt.Sprintf("voxplanet | %d fps | %d grids | %d tris", frameCount, grids, tris))
			v.log.Debug("Frame stats", zap.Int("fps", frameCount), zap.Stringer("tree", st))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}
	return nil
}

func (v *Viewer) handleEvents() {
	for _, event := range v.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			width, height := v.window.Size()
			v.renderer.Resize(width, height)
		case input.EventMouseDown:
			if event.Button == sdl.BUTTON_RIGHT {
				v.mouseLook = !v.mouseLook
				v.window.CaptureMouse(v.mouseLook)
			}
		case input.EventKeyDown:
			switch event.Key {
			case sdl.SCANCODE_ESCAPE:
				v.running = false
			case sdl.SCANCODE_F1:
				v.renderer.ToggleWireframe()
			case sdl.SCANCODE_F2:
				v.renderer.ToggleBounds()
			case sdl.SCANCODE_F3:
				v.toggleFreeze()
			case sdl.SCANCODE_F12:
				v.screenshot()
			}
		}
	}
}

// toggleFreeze stops feeding the camera to the tree, so refinement can be
// inspected from outside.
func (v *Viewer) toggleFreeze() {
	v.frozen = !v.frozen
	if v.frozen {
		v.frozenCam = v.camera.Snapshot()
		v.frozenFr = v.camera.Frustum(v.window.Aspect())
	}
	v.log.Info("LOD freeze", zap.Bool("frozen", v.frozen))
}

func (v *Viewer) screenshot() {
	pixels, w, h := v.renderer.ReadPixels()
	name, err := v.shots.CaptureFromPixels(pixels, w, h)
	if err != nil {
		v.log.Warn("Screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("Screenshot saved", zap.String("file", name))
}

func (v *Viewer) update(dt float32) {
	if v.mouseLook {
		dx, dy := v.input.MouseDelta()
		v.camera.HandleMouse(dx, dy)
	}
	v.camera.HandleMovement(
		v.input.Axis(sdl.SCANCODE_W, sdl.SCANCODE_S),
		v.input.Axis(sdl.SCANCODE_D, sdl.SCANCODE_A),
		v.input.Axis(sdl.SCANCODE_SPACE, sdl.SCANCODE_LCTRL),
		dt,
	)
	if w := v.input.Wheel(); w != 0 {
		v.camera.Speed *= 1 + 0.1*w
	}

	if v.frozen {
		v.system.Update(v.frozenFr, v.frozenCam)
		return
	}
	v.system.Update(v.camera.Frustum(v.window.Aspect()), v.camera.Snapshot())
}

func (v *Viewer) render() {
	v.renderer.Flush()
	v.renderer.Draw(v.camera.ViewMatrix(), v.camera.ProjectionMatrix(v.window.Aspect()), v.camera.Position)
}

// Close releases everything in reverse order of creation.
func (v *Viewer) Close() {
	v.log.Info("Closing viewer")
	if v.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		_ = v.metrics.Shutdown(ctx)
		cancel()
	}
	if v.system != nil {
		v.system.Close()
	}
	if v.renderer != nil {
		v.renderer.Flush()
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}
