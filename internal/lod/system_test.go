package lod

import (
	"testing"
	"unsafe"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Faultbox/voxplanet/internal/config"
	"github.com/Faultbox/voxplanet/internal/noise"
	"github.com/Faultbox/voxplanet/internal/octree"
	"github.com/Faultbox/voxplanet/internal/voxel"
	"github.com/Faultbox/voxplanet/pkg/math"
)

func TestFindRootLevelSeed3(t *testing.T) {
	shared := NewShared(Tuning{}, &queue{}, nil, nil, nil)
	level, compressed, err := FindRootLevel(voxel.Spec{
		Resolution: 100,
		VoxelSize:  0.03,
		Noise:      planet(),
	}, shared, 16)
	require.NoError(t, err)

	// The first size is accepted: the block spans ±98*0.03/2 = ±1.47, and
	// density is never positive past MaxExtent = 1 + 2*(3*1/16) = 1.375, so
	// no used point touches a side and no doubling is needed.
	maxExtent := noise.Params{Seed: 3, Radius: 1, NoiseWeight: 3, Frequency: 1, Octaves: 8}.MaxExtent()
	require.Less(t, maxExtent, level.Extent()/2)
	assert.Equal(t, 0, level.Depth)
	assert.InDelta(t, 0.03, level.VoxelSize, 1e-7)
	assert.NotEmpty(t, compressed)
}

func TestFindRootLevelCoarsens(t *testing.T) {
	shared := NewShared(Tuning{}, &queue{}, nil, nil, nil)
	level, _, err := FindRootLevel(voxel.Spec{
		Resolution: 24,
		VoxelSize:  0.01,
		Noise:      planet(),
	}, shared, 16)
	require.NoError(t, err)

	// A block of half-extent 0.11 lies entirely inside the planet.
	assert.Greater(t, level.VoxelSize, float32(0.01))
	assert.Greater(t, level.Extent()/2, float32(0.625))

	field := voxel.NewField(24)
	field.Repurpose(level.Center(octree.Root), level.Spec)
	field.Randomize()
	_, tris := field.PreCalculateGeometryData()
	assert.NotZero(t, tris)
	assert.False(t, field.EdgePointsUsed().IsAnyUsed())
}

func TestFindRootLevelGivesUp(t *testing.T) {
	shared := NewShared(Tuning{}, &queue{}, nil, nil, nil)
	_, _, err := FindRootLevel(voxel.Spec{
		Resolution: 8,
		VoxelSize:  0.001,
		Noise:      planet(),
	}, shared, 2)
	assert.ErrorIs(t, err, ErrNoRootLevel)
}

func newTestSystem(t *testing.T) (*System, *queue, *sink) {
	t.Helper()
	q := &queue{}
	d := newSink(t)
	sys, err := NewSystem(testSettings(), planet(), d, WithSubmitter(q), WithLogger(zap.NewNop()))
	require.NoError(t, err)
	return sys, q, d
}

func TestSystemRefinesToMaxDepth(t *testing.T) {
	sys, q, d := newTestSystem(t)
	converge(t, sys, q, keepAll{}, lookingAtOrigin())

	require.NotZero(t, d.count())
	for _, a := range d.addresses() {
		assert.Equal(t, int32(3), a.Level, "drawn %v", a)
	}
	assert.Equal(t, d.count(), sys.Shared().Drawn())
	assert.False(t, sys.Root().GridVisible())

	st := sys.Stats()
	assert.Equal(t, d.count(), st.Drawn)
	assert.Greater(t, st.Nodes, 1)
	assert.NotZero(t, st.CompressedBytes)
	// Every node's grid struct counts, plus the bitset backing arrays.
	assert.GreaterOrEqual(t, st.GridBytes, st.CompressedBytes+st.Nodes*int(unsafe.Sizeof(Grid{})))
	assert.Contains(t, st.String(), "grids=")
}

func TestFrustumCollapseRemovesEverything(t *testing.T) {
	sys, q, d := newTestSystem(t)
	cam := lookingAtOrigin()
	converge(t, sys, q, keepAll{}, cam)
	drawn := d.count()
	require.NotZero(t, drawn)

	sys.Update(cullAll{}, cam)
	assert.Zero(t, d.count())
	assert.Zero(t, sys.Shared().Drawn())
	assert.Equal(t, d.adds, d.removes)

	// Regeneration restores from the kept signs and reaches the same state.
	converge(t, sys, q, keepAll{}, cam)
	assert.Equal(t, drawn, d.count())
}

func TestCoarseCameraKeepsRoot(t *testing.T) {
	sys, q, d := newTestSystem(t)
	far := NewCamera(math.Vec3{Z: 4000}, math.QuatIdentity(), 1.0471976)
	converge(t, sys, q, keepAll{}, far)

	assert.True(t, sys.Root().GridVisible())
	assert.Equal(t, 1, d.count())
	assert.Nil(t, sys.Root().Children())
}

func TestCloseRemovesDrawables(t *testing.T) {
	sys, q, d := newTestSystem(t)
	converge(t, sys, q, keepAll{}, lookingAtOrigin())
	require.NotZero(t, d.count())

	sys.Close()
	assert.Zero(t, d.count())
	assert.Equal(t, d.adds, d.removes)
	assert.Zero(t, sys.Shared().NodeCount())

	// Jobs still queued after close publish nothing.
	sys.Update(keepAll{}, lookingAtOrigin())
	q.drain()
	assert.Zero(t, d.count())
}

func TestSystemWithScheduler(t *testing.T) {
	d := newSink(t)
	sys, err := NewSystem(testSettings(), planet(), d, WithLogger(zap.NewNop()))
	require.NoError(t, err)

	cam := lookingAtOrigin()
	for i := 0; i < 16; i++ {
		sys.Update(keepAll{}, cam)
		sys.Wait()
	}
	assert.NotZero(t, d.count())
	sys.Close()
	assert.Zero(t, d.count())
}

func TestSettingsFromConfig(t *testing.T) {
	cfg := config.Default()
	s := SettingsFromConfig(cfg)
	assert.Equal(t, cfg.Generation.BlockResolution, s.BlockResolution)
	assert.Equal(t, cfg.Generation.MaxDepth, s.Tuning.MaxDepth)
	assert.Equal(t, cfg.LOD.ErrorThreshold, s.Tuning.ErrorThreshold)
	assert.Equal(t, cfg.Scheduler.Workers, s.Workers)
}

func TestRequireWideVectors(t *testing.T) {
	s := testSettings()
	s.RequireWideVectors = true
	_, err := NewSystem(s, planet(), newSink(t), WithSubmitter(&queue{}), WithLogger(zap.NewNop()))
	if noise.CheckVectorSupport() != nil {
		assert.ErrorIs(t, err, noise.ErrNoWideVectors)
	} else {
		assert.NoError(t, err)
	}
}

func TestGeneratorFromConfig(t *testing.T) {
	cfg := config.Default()
	g, err := GeneratorFromConfig(cfg)
	require.NoError(t, err)
	assert.IsType(t, &noise.Turbulence{}, g)

	cfg.Planet.NoiseKind = "value"
	_, err = GeneratorFromConfig(cfg)
	assert.ErrorIs(t, err, noise.ErrUnknownKind)
}

func TestRegisterMetrics(t *testing.T) {
	sys, q, _ := newTestSystem(t)
	converge(t, sys, q, keepAll{}, lookingAtOrigin())

	reg := prometheus.NewRegistry()
	require.NoError(t, sys.RegisterMetrics(reg))
	families, err := reg.Gather()
	require.NoError(t, err)

	got := map[string]float64{}
	for _, f := range families {
		got[f.GetName()] = f.GetMetric()[0].GetGauge().GetValue()
	}
	assert.Equal(t, float64(sys.Shared().NodeCount()), got["voxplanet_lod_nodes"])
	assert.Equal(t, float64(sys.Shared().Drawn()), got["voxplanet_lod_drawn_grids"])
}
