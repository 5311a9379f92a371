package scene

import (
	"math"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-scene/engine/geometry"
	"go.uber.org/zap"
)

// Consolidation is the output of the buffer consolidator: the global vertex and index arrays and
// one descriptor (plus bounding box) per input geometry, in input order.
type Consolidation struct {
	// Vertices is the concatenation of every geometry's normalized vertices.
	Vertices []geometry.Vertex
	// Indices is the concatenation of every geometry's indices, rebased into the global vertex array.
	Indices []uint32
	// Geometries holds one descriptor per input geometry; its position is the geometry id.
	Geometries []geometry.GeometryDescriptor
	// Bounds holds the model space bounding box of each geometry, parallel to Geometries.
	Bounds []geometry.Bounds
	// Radii holds the model space bounding radius of each geometry, parallel to Geometries.
	Radii []float32
}

// offsets is the explicit accumulator threaded through the consolidation fold. It always equals
// the sum of the counts of the strictly preceding geometries.
type offsets struct {
	vertex, index uint32
}

// advance snapshots the accumulator into the geometry's descriptor and returns the accumulator
// for the next geometry. Empty geometries produce a zero-count descriptor without advancing.
func (o offsets) advance(id int, g *geometry.Geometry) (geometry.GeometryDescriptor, offsets, error) {
	nv, ni := uint64(len(g.Positions)), uint64(len(g.Indices))
	if end := uint64(o.vertex) + nv; end > math.MaxUint32 {
		return geometry.GeometryDescriptor{}, o, violation(ViolationOffsetOverflow, id, g, 0, end, math.MaxUint32)
	}
	if end := uint64(o.index) + ni; end > math.MaxUint32 {
		return geometry.GeometryDescriptor{}, o, violation(ViolationOffsetOverflow, id, g, 0, end, math.MaxUint32)
	}

	desc := geometry.GeometryDescriptor{
		VertexBufferOffset: o.vertex,
		IndexBufferOffset:  o.index,
		VertexCount:        uint32(nv),
		IndexCount:         uint32(ni),
		MaterialID:         g.MaterialID,
	}
	return desc, offsets{vertex: o.vertex + uint32(nv), index: o.index + uint32(ni)}, nil
}

// Consolidate concatenates the geometries, in order, into global vertex and index arrays on the
// calling goroutine. The order of geometries is significant and becomes the geometry id ordering.
// A structural violation in any geometry aborts the whole consolidation.
//
// Parameters:
//   - geometries: the ordered geometry records
//
// Returns:
//   - *Consolidation: the global arrays and per-geometry descriptors
//   - error: a *StructuralViolationError if any geometry breaks its structural invariants
func Consolidate(geometries []geometry.Geometry) (*Consolidation, error) {
	return consolidate(geometries, newBuildConfig())
}

func consolidate(geometries []geometry.Geometry, cfg *buildConfig) (*Consolidation, error) {
	// Pass 1: validate and fold the offsets. Nothing is written until every geometry passed.
	descriptors := make([]geometry.GeometryDescriptor, len(geometries))
	acc := offsets{}
	for i := range geometries {
		g := &geometries[i]
		if err := checkGeometry(i, g); err != nil {
			return nil, err
		}
		var err error
		descriptors[i], acc, err = acc.advance(i, g)
		if err != nil {
			return nil, err
		}
	}

	c := &Consolidation{
		Vertices:   make([]geometry.Vertex, acc.vertex),
		Indices:    make([]uint32, acc.index),
		Geometries: descriptors,
		Bounds:     make([]geometry.Bounds, len(geometries)),
		Radii:      make([]float32, len(geometries)),
	}

	// Pass 2: every geometry owns a disjoint region, so regions may be filled in any order.
	pool := cfg.pool(len(geometries))
	if pool == nil {
		for i := range geometries {
			c.fill(i, &geometries[i])
		}
	} else {
		var wg sync.WaitGroup
		for i := range geometries {
			wg.Add(1)
			id := i // capture for closure
			pool.SubmitTask(worker.Task{
				ID: id,
				Do: func() (any, error) {
					defer wg.Done()
					c.fill(id, &geometries[id])
					return nil, nil
				},
			})
		}
		wg.Wait()
	}

	if cfg.logger.Core().Enabled(zap.DebugLevel) {
		for i, d := range descriptors {
			cfg.logger.Debug("consolidated geometry",
				zap.Int("geometry", i),
				zap.String("name", geometries[i].Name),
				zap.Uint32("vertexOffset", d.VertexBufferOffset),
				zap.Uint32("indexOffset", d.IndexBufferOffset),
				zap.Uint32("vertexCount", d.VertexCount),
				zap.Uint32("indexCount", d.IndexCount),
				zap.Uint32("material", d.MaterialID),
				zap.Float32("radius", c.Radii[i]),
			)
		}
	}

	return c, nil
}

// fill writes one geometry's normalized vertices and rebased indices into its region.
func (c *Consolidation) fill(id int, g *geometry.Geometry) {
	d := c.Geometries[id]
	geometry.NormalizeInto(c.Vertices[d.VertexBufferOffset:d.VertexEnd()], g)

	base := d.VertexBufferOffset
	dst := c.Indices[d.IndexBufferOffset:d.IndexEnd()]
	for j, local := range g.Indices {
		dst[j] = local + base
	}

	c.Bounds[id] = g.ComputeBounds()
	c.Radii[id] = g.ComputeBoundingRadius()
}

// checkGeometry verifies the structural invariants the upstream loader must guarantee.
func checkGeometry(id int, g *geometry.Geometry) error {
	nv := uint64(len(g.Positions))
	if len(g.Normals) > len(g.Positions) {
		return violation(ViolationAttributeLength, id, g, 0, uint64(len(g.Normals)), nv+1)
	}
	if len(g.TexCoords) > len(g.Positions) {
		return violation(ViolationAttributeLength, id, g, 0, uint64(len(g.TexCoords)), nv+1)
	}
	if len(g.Indices)%3 != 0 {
		return violation(ViolationPartialTriangle, id, g, len(g.Indices)-1, uint64(len(g.Indices)), uint64(len(g.Indices)/3*3))
	}
	for j, idx := range g.Indices {
		if uint64(idx) >= nv {
			return violation(ViolationIndexOutOfRange, id, g, j, uint64(idx), nv)
		}
	}
	return nil
}

func violation(kind ViolationKind, id int, g *geometry.Geometry, pos int, value, limit uint64) *StructuralViolationError {
	return &StructuralViolationError{
		Kind:         kind,
		Geometry:     id,
		GeometryName: g.Name,
		Instance:     -1,
		Position:     pos,
		Value:        value,
		Limit:        limit,
	}
}

// newWorkerPool creates the bounded pool used to fill geometry regions in parallel.
// Its workers run until the pool is stopped.
func newWorkerPool(workers int) worker.DynamicWorkerPool {
	return worker.NewDynamicWorkerPool(workers, 256, 1*time.Second)
}
