package geometry

import "github.com/Carmen-Shannon/oxy-scene/common"

var (
	// DefaultNormal is substituted for missing per-vertex normals so unlit geometry still shades plausibly.
	DefaultNormal = common.Vec3{0, 1, 0}

	// DefaultTexCoord is substituted for missing per-vertex texture coordinates.
	DefaultTexCoord = common.Vec2{0, 0}
)

// Normalize produces the uniform vertex layout for a geometry: exactly len(g.Positions) vertices,
// taking each normal and texture coordinate from the geometry when present at that index and
// falling back to DefaultNormal / DefaultTexCoord otherwise. Missing attributes are not an error.
//
// Parameters:
//   - g: the geometry record to normalize
//
// Returns:
//   - []Vertex: the normalized vertices
func Normalize(g *Geometry) []Vertex {
	out := make([]Vertex, len(g.Positions))
	NormalizeInto(out, g)
	return out
}

// NormalizeInto writes the normalized vertices of g into dst, which must hold exactly
// len(g.Positions) elements. It is used to fill a region of a larger, pre-sized vertex array.
// Panics if dst has the wrong length.
//
// Parameters:
//   - dst: the destination region
//   - g: the geometry record to normalize
func NormalizeInto(dst []Vertex, g *Geometry) {
	if len(dst) != len(g.Positions) {
		panic("geometry: NormalizeInto destination length does not match position count")
	}

	// Position count is authoritative; excess normals or texcoords are ignored.
	for i, pos := range g.Positions {
		dst[i].Position = pos
		if i < len(g.Normals) {
			dst[i].Normal = g.Normals[i]
		} else {
			dst[i].Normal = DefaultNormal
		}
		if i < len(g.TexCoords) {
			dst[i].TexCoord = g.TexCoords[i]
		} else {
			dst[i].TexCoord = DefaultTexCoord
		}
	}
}
