// Package renderer draws the planet's grid meshes with OpenGL.
package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/voxplanet/internal/engine/debug"
	"github.com/Faultbox/voxplanet/internal/engine/shader"
	"github.com/Faultbox/voxplanet/internal/logger"
	"github.com/Faultbox/voxplanet/internal/octree"
	"github.com/Faultbox/voxplanet/pkg/math"
)

// Config holds renderer configuration.
type Config struct {
	Width     int
	Height    int
	Wireframe bool
	Bounds    bool
	Sun       math.Vec3 // unit vector towards the light
}

type gpuGrid struct {
	vao, vbo, ebo uint32
	count         int32
	center        math.Vec3
	radius        float32
}

// Renderer owns the GPU copies of every drawn grid.
type Renderer struct {
	config Config
	queue  *Queue
	log    *zap.Logger

	meshProgram  *shader.Program
	linesProgram *shader.Program
	grids        map[octree.Address]*gpuGrid
	triangles    int

	linesVAO, linesVBO uint32
	lines              []float32
}

// New creates a renderer reading from queue.
// Must be called after the OpenGL context exists.
func New(cfg Config, queue *Queue) (*Renderer, error) {
	r := &Renderer{
		config: cfg,
		queue:  queue,
		log:    logger.Named("renderer"),
		grids:  make(map[octree.Address]*gpuGrid),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.ClearColor(0.02, 0.02, 0.05, 1.0)

	var err error
	if r.meshProgram, err = shader.New(meshVertexShader, meshFragmentShader); err != nil {
		return nil, fmt.Errorf("mesh shader: %w", err)
	}
	if r.linesProgram, err = shader.New(linesVertexShader, linesFragmentShader); err != nil {
		r.meshProgram.Delete()
		return nil, fmt.Errorf("lines shader: %w", err)
	}

	gl.GenVertexArrays(1, &r.linesVAO)
	gl.GenBuffers(1, &r.linesVBO)
	gl.BindVertexArray(r.linesVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.linesVBO)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 3*4, nil)
	gl.EnableVertexAttribArray(0)
	gl.BindVertexArray(0)

	r.Resize(cfg.Width, cfg.Height)
	return r, nil
}

// Close frees every GPU resource.
func (r *Renderer) Close() {
	r.log.Info("Closing renderer", zap.Int("grids", len(r.grids)))
	for addr, g := range r.grids {
		r.free(g)
		delete(r.grids, addr)
	}
	gl.DeleteVertexArrays(1, &r.linesVAO)
	gl.DeleteBuffers(1, &r.linesVBO)
	r.meshProgram.Delete()
	r.linesProgram.Delete()
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("Renderer resized", zap.Int("width", width), zap.Int("height", height))
}

// ToggleWireframe flips polygon mode.
func (r *Renderer) ToggleWireframe() {
	r.config.Wireframe = !r.config.Wireframe
}

// ToggleBounds flips the bounding box overlay.
func (r *Renderer) ToggleBounds() {
	r.config.Bounds = !r.config.Bounds
}

// Grids returns the number of uploaded grids and their triangle total.
func (r *Renderer) Grids() (int, int) {
	return len(r.grids), r.triangles
}

// Flush applies queued adds and removes. Call it on the render thread.
func (r *Renderer) Flush() {
	for _, o := range r.queue.take() {
		if old, ok := r.grids[o.addr]; ok {
			r.free(old)
			delete(r.grids, o.addr)
		}
		if o.add {
			r.grids[o.addr] = r.upload(o.upload)
		}
	}
}

func (r *Renderer) upload(d *gridData) *gpuGrid {
	g := &gpuGrid{
		count:  int32(len(d.indices)),
		center: math.Vec3{X: d.center[0], Y: d.center[1], Z: d.center[2]},
		radius: d.radius,
	}
	gl.GenVertexArrays(1, &g.vao)
	gl.BindVertexArray(g.vao)

	gl.GenBuffers(1, &g.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(d.vertices)*4, unsafe.Pointer(&d.vertices[0]), gl.STATIC_DRAW)

	gl.GenBuffers(1, &g.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(d.indices)*4, unsafe.Pointer(&d.indices[0]), gl.STATIC_DRAW)

	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, vertexStride*4, nil)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, vertexStride*4, unsafe.Pointer(uintptr(3*4)))
	gl.EnableVertexAttribArray(1)

	gl.BindVertexArray(0)
	r.triangles += len(d.indices) / 3
	return g
}

func (r *Renderer) free(g *gpuGrid) {
	gl.DeleteVertexArrays(1, &g.vao)
	gl.DeleteBuffers(1, &g.vbo)
	gl.DeleteBuffers(1, &g.ebo)
	r.triangles -= int(g.count) / 3
}

// Draw renders every uploaded grid.
func (r *Renderer) Draw(view, projection math.Mat4, eye math.Vec3) {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	if r.config.Wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	}

	viewProj := projection.Mul(view)
	r.meshProgram.Use()
	r.meshProgram.SetMat4("uViewProj", viewProj)
	r.meshProgram.SetVec3("uEye", eye)
	r.meshProgram.SetVec3("uLightDir", r.config.Sun)
	for _, g := range r.grids {
		gl.BindVertexArray(g.vao)
		gl.DrawElements(gl.TRIANGLES, g.count, gl.UNSIGNED_INT, nil)
	}
	gl.BindVertexArray(0)

	if r.config.Wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}
	if r.config.Bounds {
		r.drawBounds(viewProj)
	}
}

func (r *Renderer) drawBounds(viewProj math.Mat4) {
	r.lines = r.lines[:0]
	for _, g := range r.grids {
		r.lines = append(r.lines, debug.CubeWireframe(g.center, debug.HalfExtent(g.radius))...)
	}
	if len(r.lines) == 0 {
		return
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, r.linesVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(r.lines)*4, unsafe.Pointer(&r.lines[0]), gl.STREAM_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	r.linesProgram.Use()
	r.linesProgram.SetMat4("uViewProj", viewProj)
	gl.BindVertexArray(r.linesVAO)
	gl.DrawArrays(gl.LINES, 0, int32(len(r.lines)/3))
	gl.BindVertexArray(0)
}

// ReadPixels returns the RGBA contents of the back buffer.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	w, h := r.config.Width, r.config.Height
	pixels := make([]byte, w*h*4)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&pixels[0]))
	return pixels, w, h
}
