package geometry

import (
	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/chewxy/math32"
)

// Geometry is one mesh's raw vertex attributes and triangle indices plus its resolved material id,
// as produced by an external loader. Positions are authoritative: the vertex count of a Geometry
// is always len(Positions). Normals and TexCoords are optional and may be shorter than Positions
// (or nil); missing entries are filled by Normalize.
type Geometry struct {
	// Name is an optional identifier used in logs and error messages.
	Name string

	// Positions are the per-vertex model space positions.
	Positions []common.Vec3

	// Normals are the optional per-vertex normals.
	Normals []common.Vec3

	// TexCoords are the optional per-vertex texture coordinates.
	TexCoords []common.Vec2

	// Indices are the local, 0-based triangle indices (three per triangle).
	Indices []uint32

	// MaterialID is the material id resolved upstream. The consolidator never invents one;
	// loaders substitute their default material before consolidation.
	MaterialID uint32
}

// VertexCount returns the number of vertices of the geometry (the position count).
//
// Returns:
//   - int: the vertex count
func (g *Geometry) VertexCount() int {
	return len(g.Positions)
}

// IndexCount returns the number of local triangle indices.
//
// Returns:
//   - int: the index count
func (g *Geometry) IndexCount() int {
	return len(g.Indices)
}

// TriangleCount returns the number of whole triangles described by the indices.
//
// Returns:
//   - int: IndexCount / 3
func (g *Geometry) TriangleCount() int {
	return len(g.Indices) / 3
}

// Bounds is an axis-aligned bounding box.
// An empty box has Min > Max on every axis (see EmptyBounds).
type Bounds struct {
	Min common.Vec3
	Max common.Vec3
}

// EmptyBounds returns an inverted box that becomes valid once a point is added.
//
// Returns:
//   - Bounds: the empty box
func EmptyBounds() Bounds {
	inf := math32.Inf(1)
	return Bounds{
		Min: common.Vec3{inf, inf, inf},
		Max: common.Vec3{-inf, -inf, -inf},
	}
}

// IsEmpty reports whether the box contains no points.
func (b Bounds) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Extend returns the box grown to contain p.
func (b Bounds) Extend(p common.Vec3) Bounds {
	for i := range 3 {
		b.Min[i] = min(b.Min[i], p[i])
		b.Max[i] = max(b.Max[i], p[i])
	}
	return b
}

// Union returns the smallest box containing both b and o.
func (b Bounds) Union(o Bounds) Bounds {
	if o.IsEmpty() {
		return b
	}
	return b.Extend(o.Min).Extend(o.Max)
}

// Center returns the midpoint of the box. The result is undefined for empty boxes.
func (b Bounds) Center() common.Vec3 {
	return common.Vec3{
		(b.Min[0] + b.Max[0]) * 0.5,
		(b.Min[1] + b.Max[1]) * 0.5,
		(b.Min[2] + b.Max[2]) * 0.5,
	}
}

// Corners returns the eight corners of the box.
func (b Bounds) Corners() [8]common.Vec3 {
	var out [8]common.Vec3
	for i := range 8 {
		for axis := range 3 {
			if i&(1<<axis) != 0 {
				out[i][axis] = b.Max[axis]
			} else {
				out[i][axis] = b.Min[axis]
			}
		}
	}
	return out
}

// Transformed returns the axis-aligned box enclosing b after applying the affine matrix m.
//
// Parameters:
//   - m: the column-major affine transform
//
// Returns:
//   - Bounds: the world space box, empty if b is empty
func (b Bounds) Transformed(m common.Mat4) Bounds {
	out := EmptyBounds()
	if b.IsEmpty() {
		return out
	}
	for _, c := range b.Corners() {
		out = out.Extend(common.TransformPoint(m, c))
	}
	return out
}

// ComputeBounds calculates the axis-aligned bounding box of the geometry's positions.
//
// Returns:
//   - Bounds: the bounding box, empty for a geometry without vertices
func (g *Geometry) ComputeBounds() Bounds {
	b := EmptyBounds()
	for _, p := range g.Positions {
		b = b.Extend(p)
	}
	return b
}

// ComputeBoundingRadius calculates the bounding sphere radius around the model space origin,
// measured as the maximum vertex distance from the origin.
//
// Returns:
//   - float32: the maximum distance from the origin
func (g *Geometry) ComputeBoundingRadius() float32 {
	var maxDistSq float32
	for _, p := range g.Positions {
		distSq := p[0]*p[0] + p[1]*p[1] + p[2]*p[2]
		if distSq > maxDistSq {
			maxDistSq = distSq
		}
	}
	return math32.Sqrt(maxDistSq)
}
