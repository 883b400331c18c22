package lod

import (
	"errors"
	"fmt"

	"github.com/DmitriyVTitov/size"
	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Faultbox/voxplanet/internal/config"
	"github.com/Faultbox/voxplanet/internal/logger"
	"github.com/Faultbox/voxplanet/internal/noise"
	"github.com/Faultbox/voxplanet/internal/octree"
	"github.com/Faultbox/voxplanet/internal/scheduler"
	"github.com/Faultbox/voxplanet/internal/voxel"
	"github.com/Faultbox/voxplanet/pkg/math"
)

// ErrNoRootLevel is returned when the root search runs out of attempts.
var ErrNoRootLevel = errors.New("lod: no voxel size contains the whole surface")

// Settings sizes one planet tree.
type Settings struct {
	BlockResolution    int
	VoxelSize          float32
	RootSearchAttempts int
	RequireWideVectors bool
	Workers            int
	Tuning             Tuning
}

// SettingsFromConfig extracts the tree settings from cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		BlockResolution:    cfg.Generation.BlockResolution,
		VoxelSize:          cfg.Generation.VoxelSize,
		RootSearchAttempts: cfg.Generation.RootSearchAttempts,
		RequireWideVectors: cfg.Generation.RequireWideVectors,
		Workers:            cfg.Scheduler.Workers,
		Tuning: Tuning{
			ErrorExponent:  cfg.LOD.ErrorExponent,
			ErrorThreshold: cfg.LOD.ErrorThreshold,
			MaxDepth:       cfg.Generation.MaxDepth,
		},
	}
}

// GeneratorFromConfig builds the density function described by cfg.
func GeneratorFromConfig(cfg *config.Config) (noise.Generator, error) {
	return noise.New(cfg.Planet.NoiseKind, noise.Params{
		Seed:        cfg.Planet.Seed,
		Radius:      cfg.Planet.Radius,
		NoiseWeight: cfg.Planet.NoiseWeight,
		Frequency:   cfg.Planet.Frequency,
		Octaves:     cfg.Planet.Octaves,
	})
}

// Option customizes NewSystem.
type Option func(*systemOptions)

type systemOptions struct {
	log        *zap.Logger
	registerer prometheus.Registerer
	jobs       Submitter
}

// WithLogger sets the logger. The default is logger.Named("lod").
func WithLogger(log *zap.Logger) Option {
	return func(o *systemOptions) { o.log = log }
}

// WithRegisterer registers scheduler metrics with r.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *systemOptions) { o.registerer = r }
}

// WithSubmitter replaces the worker pool. The system does not close it.
func WithSubmitter(jobs Submitter) Option {
	return func(o *systemOptions) { o.jobs = jobs }
}

// System owns one planet tree: the root node, the worker pool and the
// shared state, and drives the traversal once per frame.
type System struct {
	shared *Shared
	root   *Node
	sched  *scheduler.Scheduler
	pool   *voxel.Pool
	log    *zap.Logger
}

// NewSystem searches for a root voxel size that holds the whole surface of
// gen and builds the tree on it.
func NewSystem(s Settings, gen noise.Generator, drawables Drawables, opts ...Option) (*System, error) {
	o := systemOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Named("lod")
	}

	if err := noise.CheckVectorSupport(); err != nil {
		if s.RequireWideVectors {
			return nil, err
		}
		o.log.Warn("Falling back to scalar noise evaluation", zap.Error(err))
	}

	sys := &System{pool: voxel.NewPool(s.BlockResolution), log: o.log}
	jobs := o.jobs
	if jobs == nil {
		sched, err := scheduler.New(scheduler.Options{
			Workers:    s.Workers,
			Registerer: o.registerer,
			Logger:     o.log.Named("scheduler"),
		})
		if err != nil {
			return nil, err
		}
		sys.sched = sched
		jobs = sched
	}
	sys.shared = NewShared(s.Tuning, jobs, sys.pool, drawables, o.log)

	root, compressed, err := FindRootLevel(voxel.Spec{
		Resolution: s.BlockResolution,
		VoxelSize:  s.VoxelSize,
		Noise:      gen,
	}, sys.shared, s.RootSearchAttempts)
	if err != nil {
		if sys.sched != nil {
			sys.sched.Close()
		}
		return nil, err
	}

	sys.root = newNode(octree.Root, root)
	sys.root.grid.compressed = compressed
	sys.shared.register(sys.root)
	o.log.Info("Planet tree ready",
		zap.Int("block_resolution", s.BlockResolution),
		zap.Float32("root_voxel_size", root.VoxelSize),
		zap.Float32("root_extent", root.Extent()),
		zap.Int("max_depth", s.Tuning.MaxDepth))
	return sys, nil
}

// FindRootLevel starts at spec's voxel size and doubles it until one block
// centered on the origin has geometry that stays clear of its boundary. It
// returns the level and the compressed signs of that block.
func FindRootLevel(spec voxel.Spec, shared *Shared, attempts int) (*Level, []byte, error) {
	field := voxel.NewField(spec.Resolution)
	level := NewLevel(spec, shared)
	for i := 0; i < attempts; i++ {
		field.Repurpose(math.Vec3{}, level.Spec)
		field.Randomize()
		_, triangles := field.PreCalculateGeometryData()
		edges := field.EdgePointsUsed()
		shared.log.Debug("Root search",
			zap.Int("attempt", i+1),
			zap.Float32("voxel_size", level.VoxelSize),
			zap.Int("triangles", triangles),
			zap.Bool("touches_boundary", edges.IsAnyUsed()))
		if triangles > 0 && !edges.IsAnyUsed() {
			return level, field.Compress(), nil
		}
		level = level.CoarserLevel()
	}
	return nil, nil, fmt.Errorf("%w after %d attempts from voxel size %v", ErrNoRootLevel, attempts, spec.VoxelSize)
}

// Root returns the root node.
func (s *System) Root() *Node { return s.root }

// RootLevel returns the level of the root node.
func (s *System) RootLevel() *Level { return s.root.level }

// Shared returns the tree's shared state.
func (s *System) Shared() *Shared { return s.shared }

// Update runs one traversal pass. Call it from a single goroutine.
func (s *System) Update(frustum Frustum, camera Camera) {
	s.root.CheckAndIncreaseResolution(frustum, camera)
}

// Wait blocks until the worker pool is idle. It is a no-op with an
// external submitter.
func (s *System) Wait() {
	if s.sched != nil {
		s.sched.Wait()
	}
}

// ReleaseMesh hands a mesh back once the drawables sink no longer needs it.
func (s *System) ReleaseMesh(m *voxel.Mesh) {
	s.pool.PutMesh(m)
}

// Close stops the worker pool and disposes the tree, removing every
// drawable it added.
func (s *System) Close() {
	if s.sched != nil {
		s.sched.Close()
	}
	s.root.Dispose()
	s.log.Info("Planet tree closed")
}

// Stats is a snapshot of the tree.
type Stats struct {
	Nodes           int
	Drawn           int
	MustGenerate    int
	CompressedBytes int // packed sign bitsets
	GridBytes       int // grid state of every node, bitsets included
	Pending         int
	Running         int
	Completed       uint64
}

func (st Stats) String() string {
	return fmt.Sprintf("nodes=%d drawn=%d must=%d signs=%s grids=%s pending=%d running=%d done=%s",
		st.Nodes, st.Drawn, st.MustGenerate,
		humanize.Bytes(uint64(st.CompressedBytes)), humanize.Bytes(uint64(st.GridBytes)),
		st.Pending, st.Running, humanize.Comma(int64(st.Completed)))
}

// Stats walks the shared map. It locks every node briefly.
func (s *System) Stats() Stats {
	st := Stats{
		Nodes:        s.shared.NodeCount(),
		Drawn:        s.shared.Drawn(),
		MustGenerate: s.shared.MustGenerateCount(),
	}
	s.shared.each(func(n *Node) {
		n.mu.Lock()
		st.CompressedBytes += len(n.grid.compressed)
		st.GridBytes += size.Of(n.grid)
		n.mu.Unlock()
	})
	if s.sched != nil {
		st.Pending = s.sched.Pending()
		st.Running = s.sched.Running()
		st.Completed = s.sched.Completed()
	}
	return st
}

// VisibleMeshes calls fn for every node whose grid is drawn.
func (s *System) VisibleMeshes(fn func(n *Node)) {
	s.shared.each(func(n *Node) {
		if n.GridVisible() {
			fn(n)
		}
	})
}
