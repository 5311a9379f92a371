// Package verify checks the layout invariants of a consolidated scene the way a downstream backend
// relies on them, and reports every violation found instead of stopping at the first.
package verify

import (
	"bytes"
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/engine/geometry"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
)

// Check names reported in Violation.Check.
const (
	CheckVertexTotal      = "vertex_total"
	CheckIndexTotal       = "index_total"
	CheckFirstOffsets     = "first_offsets"
	CheckVertexContiguity = "vertex_contiguity"
	CheckIndexContiguity  = "index_contiguity"
	CheckIndexRegion      = "index_region"
	CheckTriangleMultiple = "triangle_multiple"
	CheckInstanceParity   = "instance_parity"
	CheckInstanceLinks    = "instance_links"
	CheckIdempotence      = "idempotence"
)

// Violation is one failed property.
type Violation struct {
	Check   string
	Message string
}

func (v Violation) String() string {
	return v.Check + ": " + v.Message
}

// Report is the result of verifying one scene.
type Report struct {
	Scene      string
	Geometries int
	Instances  int
	Vertices   int
	Triangles  int
	Violations []Violation
}

// OK reports whether no property was violated.
func (r *Report) OK() bool {
	return len(r.Violations) == 0
}

// Err returns nil for a clean report, otherwise an error summarising the violations.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	return fmt.Errorf("verify: scene %q: %d violation(s), first: %s", r.Scene, len(r.Violations), r.Violations[0])
}

func (r *Report) addf(check, format string, args ...any) {
	r.Violations = append(r.Violations, Violation{Check: check, Message: fmt.Sprintf(format, args...)})
}

// maxIndexViolations caps the number of per-index violations reported for one geometry.
const maxIndexViolations = 8

// Scene checks every layout property of s:
//   - the descriptor counts sum to the global array lengths
//   - geometry 0 starts at offset 0 and each region starts where the previous one ends
//   - every index of a geometry's region addresses a vertex of the same geometry
//   - the index count is a multiple of 3
//   - there is one transform per instance and every instance link is in range
//
// Parameters:
//   - s: the scene to verify
//
// Returns:
//   - *Report: the verification report
func Scene(s scene.ConsolidatedScene) *Report {
	r := &Report{
		Scene:      s.Name(),
		Geometries: s.GeometryCount(),
		Instances:  s.InstanceCount(),
		Vertices:   s.VertexCount(),
		Triangles:  s.TriangleCount(),
	}

	geoms := s.Geometries()
	indices := s.Indices()
	instances := s.Instances()

	var sumV, sumI uint64
	for i, d := range geoms {
		sumV += uint64(d.VertexCount)
		sumI += uint64(d.IndexCount)

		if i == 0 {
			if d.VertexBufferOffset != 0 || d.IndexBufferOffset != 0 {
				r.addf(CheckFirstOffsets, "geometry 0 starts at vertex %d, index %d", d.VertexBufferOffset, d.IndexBufferOffset)
			}
		} else {
			prev := geoms[i-1]
			if want := uint64(prev.VertexBufferOffset) + uint64(prev.VertexCount); uint64(d.VertexBufferOffset) != want {
				r.addf(CheckVertexContiguity, "geometry %d vertex offset %d, want %d", i, d.VertexBufferOffset, want)
			}
			if want := uint64(prev.IndexBufferOffset) + uint64(prev.IndexCount); uint64(d.IndexBufferOffset) != want {
				r.addf(CheckIndexContiguity, "geometry %d index offset %d, want %d", i, d.IndexBufferOffset, want)
			}
		}

		checkIndexRegion(r, i, d, indices)
	}

	if sumV != uint64(s.VertexCount()) {
		r.addf(CheckVertexTotal, "descriptors cover %d vertices, array holds %d", sumV, s.VertexCount())
	}
	if sumI != uint64(len(indices)) {
		r.addf(CheckIndexTotal, "descriptors cover %d indices, array holds %d", sumI, len(indices))
	}
	if len(indices)%3 != 0 {
		r.addf(CheckTriangleMultiple, "index count %d is not a multiple of 3", len(indices))
	}

	nt := s.Transforms()
	if len(instances) != len(nt) {
		r.addf(CheckInstanceParity, "%d instances but %d transforms", len(instances), len(nt))
	}
	for i, inst := range instances {
		if int(inst.GeometryID) >= len(geoms) {
			r.addf(CheckInstanceLinks, "instance %d geometry id %d out of range", i, inst.GeometryID)
		}
		if int(inst.TransformID) >= len(nt) {
			r.addf(CheckInstanceLinks, "instance %d transform id %d out of range", i, inst.TransformID)
		}
	}

	return r
}

func checkIndexRegion(r *Report, id int, d geometry.GeometryDescriptor, indices []uint32) {
	start, end := uint64(d.IndexBufferOffset), uint64(d.IndexBufferOffset)+uint64(d.IndexCount)
	if end > uint64(len(indices)) {
		r.addf(CheckIndexRegion, "geometry %d index region [%d,%d) exceeds %d indices", id, start, end, len(indices))
		return
	}

	reported := 0
	lo, hi := d.VertexBufferOffset, d.VertexEnd()
	for j := start; j < end; j++ {
		if idx := indices[j]; idx < lo || idx >= hi {
			r.addf(CheckIndexRegion, "geometry %d index slot %d = %d outside [%d,%d)", id, j, idx, lo, hi)
			reported++
			if reported == maxIndexViolations {
				return
			}
		}
	}
}

// Build constructs a scene.
type Build func() (scene.ConsolidatedScene, error)

// Idempotent builds a scene twice and checks both Scene properties and that the two builds marshal to
// byte-identical arrays.
//
// Parameters:
//   - build: the scene constructor to run twice
//
// Returns:
//   - *Report: the report of the first build, including any idempotence violation
//   - error: error if either build fails
func Idempotent(build Build) (*Report, error) {
	a, err := build()
	if err != nil {
		return nil, fmt.Errorf("verify: first build: %w", err)
	}
	b, err := build()
	if err != nil {
		return nil, fmt.Errorf("verify: second build: %w", err)
	}

	r := Scene(a)
	left, right := Marshal(a), Marshal(b)
	for i, name := range ArrayNames {
		if !bytes.Equal(left[i], right[i]) {
			r.addf(CheckIdempotence, "%s array differs between builds (%d vs %d bytes)", name, len(left[i]), len(right[i]))
		}
	}
	return r, nil
}

// ArrayNames labels the arrays returned by Marshal, in order.
var ArrayNames = [5]string{"vertex", "index", "geometry", "instance", "transform"}

// Marshal packs the five arrays of a scene into their GPU byte layouts, in ArrayNames order.
//
// Parameters:
//   - s: the scene to pack
//
// Returns:
//   - [5][]byte: vertex, index, geometry descriptor, instance descriptor and transform bytes
func Marshal(s scene.ConsolidatedScene) [5][]byte {
	return [5][]byte{
		geometry.MarshalVertices(s.Vertices()),
		geometry.MarshalIndices(s.Indices()),
		geometry.MarshalGeometryDescriptors(s.Geometries()),
		geometry.MarshalInstanceDescriptors(s.Instances()),
		geometry.MarshalTransforms(s.Transforms()),
	}
}
