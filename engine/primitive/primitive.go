// Package primitive builds procedural geometry records (cubes, planes, spheres) for sample scenes,
// manifests and tests. Every builder returns a geometry.Geometry with local, 0-based indices.
package primitive

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/geometry"
	"github.com/chewxy/math32"
)

// Kind identifies a procedural primitive.
type Kind string

const (
	// KindBox is the minimal 8-vertex cube with shared corners and no normals or texcoords.
	KindBox Kind = "box"
	// KindCube is the faceted 24-vertex cube with per-face normals and texcoords.
	KindCube Kind = "cube"
	// KindPlane is a subdivided XZ plane facing +Y.
	KindPlane Kind = "plane"
	// KindSphere is a UV sphere.
	KindSphere Kind = "sphere"
)

// Params are the shape parameters consumed by New. Zero values fall back to per-kind defaults.
type Params struct {
	// Size is the edge length for boxes, cubes and planes, and the diameter for spheres.
	Size float32
	// Segments is the subdivision count along the first axis (plane X, sphere longitude).
	Segments int
	// Rings is the subdivision count along the second axis (plane Z, sphere latitude).
	Rings int
	// MaterialID is copied to the produced geometry.
	MaterialID uint32
}

// New builds a primitive of the given kind.
//
// Parameters:
//   - name: the geometry name
//   - kind: the primitive kind
//   - p: the shape parameters
//
// Returns:
//   - geometry.Geometry: the generated geometry record
//   - error: error if the kind is unknown
func New(name string, kind Kind, p Params) (geometry.Geometry, error) {
	size := common.Coalesce(p.Size, 1)

	var g geometry.Geometry
	switch kind {
	case KindBox:
		g = Box(size)
	case KindCube:
		g = Cube(size)
	case KindPlane:
		g = Plane(size, common.Coalesce(p.Segments, 1), common.Coalesce(p.Rings, p.Segments, 1))
	case KindSphere:
		g = Sphere(size*0.5, common.Coalesce(p.Segments, 16), common.Coalesce(p.Rings, 8))
	default:
		return geometry.Geometry{}, fmt.Errorf("primitive: unknown kind %q", kind)
	}

	g.Name = name
	g.MaterialID = p.MaterialID
	return g, nil
}

// Box returns an 8-vertex, 12-triangle cube centred on the origin. Corners are shared between faces,
// so only positions are provided; normals and texcoords are left to the attribute normalizer.
//
// Parameters:
//   - size: the edge length
//
// Returns:
//   - geometry.Geometry: the box geometry
func Box(size float32) geometry.Geometry {
	h := size * 0.5
	positions := []common.Vec3{
		{-h, -h, -h}, {h, -h, -h}, {h, h, -h}, {-h, h, -h},
		{-h, -h, h}, {h, -h, h}, {h, h, h}, {-h, h, h},
	}
	indices := []uint32{
		4, 5, 6, 4, 6, 7, // +Z
		1, 0, 3, 1, 3, 2, // -Z
		5, 1, 2, 5, 2, 6, // +X
		0, 4, 7, 0, 7, 3, // -X
		7, 6, 2, 7, 2, 3, // +Y
		0, 1, 5, 0, 5, 4, // -Y
	}
	return geometry.Geometry{Positions: positions, Indices: indices}
}

// Cube returns a faceted 24-vertex cube (6 faces × 4 vertices) with per-face normals and
// per-face [0,1] texture coordinates.
//
// Parameters:
//   - size: the edge length
//
// Returns:
//   - geometry.Geometry: the cube geometry
func Cube(size float32) geometry.Geometry {
	h := size * 0.5

	// Face definitions: 4 positions + normal per face
	type faceData struct {
		positions [4]common.Vec3
		normal    common.Vec3
	}

	faces := []faceData{
		// +X
		{positions: [4]common.Vec3{{h, -h, -h}, {h, h, -h}, {h, h, h}, {h, -h, h}}, normal: common.Vec3{1, 0, 0}},
		// -X
		{positions: [4]common.Vec3{{-h, -h, h}, {-h, h, h}, {-h, h, -h}, {-h, -h, -h}}, normal: common.Vec3{-1, 0, 0}},
		// +Y
		{positions: [4]common.Vec3{{-h, h, -h}, {-h, h, h}, {h, h, h}, {h, h, -h}}, normal: common.Vec3{0, 1, 0}},
		// -Y
		{positions: [4]common.Vec3{{-h, -h, h}, {-h, -h, -h}, {h, -h, -h}, {h, -h, h}}, normal: common.Vec3{0, -1, 0}},
		// +Z
		{positions: [4]common.Vec3{{-h, -h, h}, {h, -h, h}, {h, h, h}, {-h, h, h}}, normal: common.Vec3{0, 0, 1}},
		// -Z
		{positions: [4]common.Vec3{{h, -h, -h}, {-h, -h, -h}, {-h, h, -h}, {h, h, -h}}, normal: common.Vec3{0, 0, -1}},
	}
	faceUVs := [4]common.Vec2{{0, 1}, {0, 0}, {1, 0}, {1, 1}}

	g := geometry.Geometry{
		Positions: make([]common.Vec3, 0, 24),
		Normals:   make([]common.Vec3, 0, 24),
		TexCoords: make([]common.Vec2, 0, 24),
		Indices:   make([]uint32, 0, 36),
	}
	for fi, face := range faces {
		for vi, pos := range face.positions {
			g.Positions = append(g.Positions, pos)
			g.Normals = append(g.Normals, face.normal)
			g.TexCoords = append(g.TexCoords, faceUVs[vi])
		}
		base := uint32(fi * 4)
		g.Indices = append(g.Indices,
			base+0, base+1, base+2,
			base+0, base+2, base+3,
		)
	}
	return g
}

// Plane returns an XZ plane centred on the origin facing +Y, subdivided into segX × segZ quads.
// It has (segX+1)*(segZ+1) vertices and segX*segZ*6 indices.
//
// Parameters:
//   - size: the edge length
//   - segX: the number of quads along X (minimum 1)
//   - segZ: the number of quads along Z (minimum 1)
//
// Returns:
//   - geometry.Geometry: the plane geometry
func Plane(size float32, segX, segZ int) geometry.Geometry {
	segX, segZ = max(segX, 1), max(segZ, 1)
	h := size * 0.5
	nv := (segX + 1) * (segZ + 1)

	g := geometry.Geometry{
		Positions: make([]common.Vec3, 0, nv),
		Normals:   make([]common.Vec3, 0, nv),
		TexCoords: make([]common.Vec2, 0, nv),
		Indices:   make([]uint32, 0, segX*segZ*6),
	}
	for z := 0; z <= segZ; z++ {
		v := float32(z) / float32(segZ)
		for x := 0; x <= segX; x++ {
			u := float32(x) / float32(segX)
			g.Positions = append(g.Positions, common.Vec3{-h + u*size, 0, -h + v*size})
			g.Normals = append(g.Normals, common.Vec3{0, 1, 0})
			g.TexCoords = append(g.TexCoords, common.Vec2{u, v})
		}
	}
	row := uint32(segX + 1)
	for z := 0; z < segZ; z++ {
		for x := 0; x < segX; x++ {
			i0 := uint32(z)*row + uint32(x)
			i1 := i0 + 1
			i2 := i0 + row
			i3 := i2 + 1
			g.Indices = append(g.Indices, i0, i2, i1, i1, i2, i3)
		}
	}
	return g
}

// Sphere returns a UV sphere centred on the origin. It has (segments+1)*(rings+1) vertices
// (the seam and poles are duplicated so texcoords stay continuous) and segments*rings*6 indices.
//
// Parameters:
//   - radius: the sphere radius
//   - segments: the number of longitudinal slices (minimum 3)
//   - rings: the number of latitudinal stacks (minimum 2)
//
// Returns:
//   - geometry.Geometry: the sphere geometry
func Sphere(radius float32, segments, rings int) geometry.Geometry {
	segments, rings = max(segments, 3), max(rings, 2)
	nv := (segments + 1) * (rings + 1)

	g := geometry.Geometry{
		Positions: make([]common.Vec3, 0, nv),
		Normals:   make([]common.Vec3, 0, nv),
		TexCoords: make([]common.Vec2, 0, nv),
		Indices:   make([]uint32, 0, segments*rings*6),
	}
	for r := 0; r <= rings; r++ {
		v := float32(r) / float32(rings)
		theta := v * math32.Pi
		st, ct := math32.Sin(theta), math32.Cos(theta)
		for s := 0; s <= segments; s++ {
			u := float32(s) / float32(segments)
			phi := u * 2 * math32.Pi
			n := common.Normalize3(common.Vec3{st * math32.Cos(phi), ct, st * math32.Sin(phi)})
			g.Positions = append(g.Positions, common.Vec3{n[0] * radius, n[1] * radius, n[2] * radius})
			g.Normals = append(g.Normals, n)
			g.TexCoords = append(g.TexCoords, common.Vec2{u, v})
		}
	}
	row := uint32(segments + 1)
	for r := 0; r < rings; r++ {
		for s := 0; s < segments; s++ {
			i0 := uint32(r)*row + uint32(s)
			i1 := i0 + 1
			i2 := i0 + row
			i3 := i2 + 1
			g.Indices = append(g.Indices, i0, i1, i2, i1, i3, i2)
		}
	}
	return g
}
