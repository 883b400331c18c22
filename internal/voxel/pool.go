package voxel

import "sync"

// Pool recycles fields and meshes of one resolution across jobs.
type Pool struct {
	resolution int
	fields     sync.Pool
	meshes     sync.Pool
}

// NewPool returns a pool for fields of the given resolution.
func NewPool(resolution int) *Pool {
	p := &Pool{resolution: resolution}
	p.fields.New = func() any { return NewField(resolution) }
	p.meshes.New = func() any { return &Mesh{} }
	return p
}

// Resolution returns the field resolution served by the pool.
func (p *Pool) Resolution() int { return p.resolution }

// Field takes a field from the pool. Repurpose it before use.
func (p *Pool) Field() *Field {
	return p.fields.Get().(*Field)
}

// PutField returns a field. The caller must not touch it afterwards.
func (p *Pool) PutField(f *Field) {
	if f == nil || f.n != p.resolution {
		return
	}
	f.gen = nil
	p.fields.Put(f)
}

// Mesh takes an empty mesh from the pool.
func (p *Pool) Mesh() *Mesh {
	return p.meshes.Get().(*Mesh)
}

// PutMesh returns a mesh once its renderer copy is gone.
func (p *Pool) PutMesh(m *Mesh) {
	if m == nil {
		return
	}
	m.Positions = m.Positions[:0]
	m.Normals = m.Normals[:0]
	m.Indices = m.Indices[:0]
	p.meshes.Put(m)
}
