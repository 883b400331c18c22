// Package export writes drawn planet meshes to Wavefront OBJ files.
package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/Faultbox/voxplanet/internal/octree"
	"github.com/Faultbox/voxplanet/internal/voxel"
)

// Collector is a drawables sink that keeps every live mesh in memory.
type Collector struct {
	release func(*voxel.Mesh)

	mu     sync.Mutex
	meshes map[octree.Address]*voxel.Mesh
}

// NewCollector returns an empty collector. Removed meshes go to release.
func NewCollector(release func(*voxel.Mesh)) *Collector {
	return &Collector{release: release, meshes: make(map[octree.Address]*voxel.Mesh)}
}

// MakeGridDrawable stores mesh under addr.
func (c *Collector) MakeGridDrawable(addr octree.Address, mesh *voxel.Mesh) {
	c.mu.Lock()
	c.meshes[addr] = mesh
	c.mu.Unlock()
}

// RemoveDrawableGrid drops the mesh at addr.
func (c *Collector) RemoveDrawableGrid(addr octree.Address) {
	c.mu.Lock()
	m, ok := c.meshes[addr]
	delete(c.meshes, addr)
	c.mu.Unlock()
	if ok && c.release != nil {
		c.release(m)
	}
}

// Len returns the number of live meshes.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.meshes)
}

// Snapshot returns the live meshes ordered by address.
func (c *Collector) Snapshot() []Grid {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Grid, 0, len(c.meshes))
	for a, m := range c.meshes {
		out = append(out, Grid{Address: a, Mesh: m})
	}
	slices.SortFunc(out, func(a, b Grid) int {
		return strings.Compare(a.Address.String(), b.Address.String())
	})
	return out
}

// Grid is one mesh with the address it was generated for.
type Grid struct {
	Address octree.Address
	Mesh    *voxel.Mesh
}

// Summary counts what an export wrote.
type Summary struct {
	Grids     int
	Vertices  int
	Triangles int
}

// WriteOBJ writes grids as OBJ groups with per-vertex normals.
func WriteOBJ(w io.Writer, grids []Grid) (Summary, error) {
	bw := bufio.NewWriter(w)
	var sum Summary
	fmt.Fprintf(bw, "# voxplanet export, %d grids\n", len(grids))
	base := 1
	for _, g := range grids {
		m := g.Mesh
		fmt.Fprintf(bw, "g %s\n", g.Address)
		for _, p := range m.Positions {
			fmt.Fprintf(bw, "v %g %g %g\n", p.X, p.Y, p.Z)
		}
		for _, mask := range m.Normals {
			n := voxel.FaceNormal(mask)
			fmt.Fprintf(bw, "vn %g %g %g\n", n.X, n.Y, n.Z)
		}
		for i := 0; i+2 < len(m.Indices); i += 3 {
			a, b, c := base+int(m.Indices[i]), base+int(m.Indices[i+1]), base+int(m.Indices[i+2])
			fmt.Fprintf(bw, "f %d//%d %d//%d %d//%d\n", a, a, b, b, c, c)
		}
		base += len(m.Positions)
		sum.Grids++
		sum.Vertices += len(m.Positions)
		sum.Triangles += m.TriangleCount()
	}
	if err := bw.Flush(); err != nil {
		return sum, fmt.Errorf("export: write obj: %w", err)
	}
	return sum, nil
}

// SaveOBJ writes grids to path, zstd compressed when compress is set.
// The file is closed exactly once; a close failure is returned when
// nothing else failed first.
func SaveOBJ(path string, grids []Grid, compress bool) (sum Summary, err error) {
	f, err := os.Create(path)
	if err != nil {
		return Summary{}, fmt.Errorf("export: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("export: close %s: %w", path, cerr)
		}
	}()

	if !compress {
		return WriteOBJ(f, grids)
	}

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return Summary{}, fmt.Errorf("export: zstd: %w", err)
	}
	sum, err = WriteOBJ(enc, grids)
	if cerr := enc.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("export: zstd close: %w", cerr)
	}
	return sum, err
}
