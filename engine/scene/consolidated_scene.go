// Package scene consolidates independently loaded geometries and their instances into global,
// offset-addressed arrays for indirect-access GPU ray tracing pipelines.
//
// Lookup path used by hit shaders and by Triangle:
//
//	instance id -> InstanceDescriptor -> GeometryID -> GeometryDescriptor
//	           -> (VertexBufferOffset, IndexBufferOffset) -> global vertex / index arrays
package scene

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-scene/engine/geometry"
	"go.uber.org/zap"
)

// consolidatedScene is the implementation of the ConsolidatedScene interface.
// Every field is written once by NewConsolidatedScene and never mutated afterwards.
type consolidatedScene struct {
	name       string
	vertices   []geometry.Vertex
	indices    []uint32
	geometries []geometry.GeometryDescriptor
	bounds     []geometry.Bounds
	radii      []float32
	instances  []geometry.InstanceDescriptor
	transforms []geometry.Transform
}

// ConsolidatedScene is the immutable output aggregate of consolidation: the global vertex array,
// the global (rebased) index array, the geometry descriptor array, the instance descriptor array and
// the transform array. It is safe for concurrent use by any number of readers. Slice accessors return
// copies; to change geometry, build a new ConsolidatedScene.
type ConsolidatedScene interface {
	// Name returns the scene's identifier.
	Name() string

	// Vertices returns a copy of the global vertex array.
	//
	// Returns:
	//   - []geometry.Vertex: the vertices of every geometry, in geometry id order
	Vertices() []geometry.Vertex

	// Indices returns a copy of the global index array. Every index is already rebased into the
	// global vertex array.
	//
	// Returns:
	//   - []uint32: three indices per triangle
	Indices() []uint32

	// Geometries returns a copy of the geometry descriptor array.
	//
	// Returns:
	//   - []geometry.GeometryDescriptor: one descriptor per geometry id
	Geometries() []geometry.GeometryDescriptor

	// Instances returns a copy of the instance descriptor array.
	//
	// Returns:
	//   - []geometry.InstanceDescriptor: one descriptor per instance id
	Instances() []geometry.InstanceDescriptor

	// Transforms returns a copy of the transform array.
	//
	// Returns:
	//   - []geometry.Transform: one transform per instance, indexed by TransformID
	Transforms() []geometry.Transform

	// Geometry returns the descriptor of a geometry id.
	//
	// Parameters:
	//   - id: the geometry id
	//
	// Returns:
	//   - geometry.GeometryDescriptor: the descriptor
	//   - bool: false if id is out of range
	Geometry(id uint32) (geometry.GeometryDescriptor, bool)

	// Instance returns the descriptor of an instance id.
	//
	// Parameters:
	//   - id: the instance id
	//
	// Returns:
	//   - geometry.InstanceDescriptor: the descriptor
	//   - bool: false if id is out of range
	Instance(id uint32) (geometry.InstanceDescriptor, bool)

	// Transform returns the transform at a transform id.
	//
	// Parameters:
	//   - id: the transform id
	//
	// Returns:
	//   - geometry.Transform: the transform
	//   - bool: false if id is out of range
	Transform(id uint32) (geometry.Transform, bool)

	// GeometryVertices returns a copy of one geometry's region of the global vertex array.
	//
	// Parameters:
	//   - id: the geometry id
	//
	// Returns:
	//   - []geometry.Vertex: the geometry's vertices, nil if id is out of range
	GeometryVertices(id uint32) []geometry.Vertex

	// GeometryIndices returns a copy of one geometry's region of the global index array.
	// The indices are global (rebased), not local.
	//
	// Parameters:
	//   - id: the geometry id
	//
	// Returns:
	//   - []uint32: the geometry's indices, nil if id is out of range
	GeometryIndices(id uint32) []uint32

	// Bounds returns the model space bounding box of a geometry.
	//
	// Parameters:
	//   - id: the geometry id
	//
	// Returns:
	//   - geometry.Bounds: the box, empty for geometries without vertices
	//   - bool: false if id is out of range
	Bounds(id uint32) (geometry.Bounds, bool)

	// BoundingRadius returns the radius of the model space sphere around the origin that encloses a
	// geometry, as used for coarse instance culling.
	//
	// Parameters:
	//   - id: the geometry id
	//
	// Returns:
	//   - float32: the radius, 0 for geometries without vertices
	//   - bool: false if id is out of range
	BoundingRadius(id uint32) (float32, bool)

	// InstanceBounds returns the world space bounding box of an instance, enclosing its geometry's
	// box transformed by the instance transform.
	//
	// Parameters:
	//   - id: the instance id
	//
	// Returns:
	//   - geometry.Bounds: the world space box
	//   - bool: false if id is out of range
	InstanceBounds(id uint32) (geometry.Bounds, bool)

	// WorldBounds returns the union of every instance's world space bounding box.
	//
	// Returns:
	//   - geometry.Bounds: the scene box, empty if the scene has no visible geometry
	WorldBounds() geometry.Bounds

	// Triangle resolves one triangle of an instance through the descriptor tables, exactly as a hit
	// shader does.
	//
	// Parameters:
	//   - instanceID: the instance id
	//   - primitiveID: the triangle index within the instance's geometry
	//
	// Returns:
	//   - [3]geometry.Vertex: the triangle's vertices in model space
	//   - error: error if either id is out of range
	Triangle(instanceID, primitiveID uint32) ([3]geometry.Vertex, error)

	// VertexCount returns the length of the global vertex array.
	VertexCount() int

	// IndexCount returns the length of the global index array.
	IndexCount() int

	// TriangleCount returns IndexCount / 3.
	TriangleCount() int

	// GeometryCount returns the number of geometry descriptors.
	GeometryCount() int

	// InstanceCount returns the number of instance descriptors (and transforms).
	InstanceCount() int

	// Validate checks the scene's internal consistency: the index count is a multiple of 3, every
	// geometry region lies inside the global arrays, and every instance references an existing geometry
	// and transform.
	//
	// Returns:
	//   - error: an error wrapping ErrInvalidScene listing every problem, or nil
	Validate() error
}

var _ ConsolidatedScene = &consolidatedScene{}

// NewConsolidatedScene consolidates the geometries (in order) and links the instances (in order) into
// a frozen ConsolidatedScene. Construction runs to completion before the scene is returned; no partially
// consistent scene is ever returned.
//
// Parameters:
//   - geometries: the ordered geometry records; their positions become geometry ids
//   - instances: the ordered instances referencing geometry ids
//   - options: a variadic list of SceneBuilderOption functions
//
// Returns:
//   - ConsolidatedScene: the consolidated scene
//   - error: a *StructuralViolationError for malformed input, or an ErrInvalidScene error if the self check fails
func NewConsolidatedScene(geometries []geometry.Geometry, instances []Instance, options ...SceneBuilderOption) (ConsolidatedScene, error) {
	cfg := newBuildConfig()
	for _, opt := range options {
		opt(cfg)
	}

	c, err := consolidate(geometries, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to consolidate scene %q: %w", cfg.name, err)
	}

	l, err := Link(instances, len(c.Geometries))
	if err != nil {
		return nil, fmt.Errorf("failed to link scene %q: %w", cfg.name, err)
	}

	s := &consolidatedScene{
		name:       cfg.name,
		vertices:   c.Vertices,
		indices:    c.Indices,
		geometries: c.Geometries,
		bounds:     c.Bounds,
		radii:      c.Radii,
		instances:  l.Instances,
		transforms: l.Transforms,
	}

	if cfg.validate {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}

	cfg.logger.Info("consolidated scene",
		zap.String("scene", s.name),
		zap.Int("geometries", s.GeometryCount()),
		zap.Int("instances", s.InstanceCount()),
		zap.Int("vertices", s.VertexCount()),
		zap.Int("triangles", s.TriangleCount()),
	)

	return s, nil
}

func (s *consolidatedScene) Name() string {
	return s.name
}

func (s *consolidatedScene) Vertices() []geometry.Vertex {
	return slices.Clone(s.vertices)
}

func (s *consolidatedScene) Indices() []uint32 {
	return slices.Clone(s.indices)
}

func (s *consolidatedScene) Geometries() []geometry.GeometryDescriptor {
	return slices.Clone(s.geometries)
}

func (s *consolidatedScene) Instances() []geometry.InstanceDescriptor {
	return slices.Clone(s.instances)
}

func (s *consolidatedScene) Transforms() []geometry.Transform {
	return slices.Clone(s.transforms)
}

func (s *consolidatedScene) Geometry(id uint32) (geometry.GeometryDescriptor, bool) {
	if uint64(id) >= uint64(len(s.geometries)) {
		return geometry.GeometryDescriptor{}, false
	}
	return s.geometries[id], true
}

func (s *consolidatedScene) Instance(id uint32) (geometry.InstanceDescriptor, bool) {
	if uint64(id) >= uint64(len(s.instances)) {
		return geometry.InstanceDescriptor{}, false
	}
	return s.instances[id], true
}

func (s *consolidatedScene) Transform(id uint32) (geometry.Transform, bool) {
	if uint64(id) >= uint64(len(s.transforms)) {
		return geometry.Transform{}, false
	}
	return s.transforms[id], true
}

func (s *consolidatedScene) GeometryVertices(id uint32) []geometry.Vertex {
	d, ok := s.Geometry(id)
	if !ok {
		return nil
	}
	return slices.Clone(s.vertices[d.VertexBufferOffset:d.VertexEnd()])
}

func (s *consolidatedScene) GeometryIndices(id uint32) []uint32 {
	d, ok := s.Geometry(id)
	if !ok {
		return nil
	}
	return slices.Clone(s.indices[d.IndexBufferOffset:d.IndexEnd()])
}

func (s *consolidatedScene) Bounds(id uint32) (geometry.Bounds, bool) {
	if uint64(id) >= uint64(len(s.bounds)) {
		return geometry.EmptyBounds(), false
	}
	return s.bounds[id], true
}

func (s *consolidatedScene) BoundingRadius(id uint32) (float32, bool) {
	if uint64(id) >= uint64(len(s.radii)) {
		return 0, false
	}
	return s.radii[id], true
}

func (s *consolidatedScene) InstanceBounds(id uint32) (geometry.Bounds, bool) {
	inst, ok := s.Instance(id)
	if !ok {
		return geometry.EmptyBounds(), false
	}
	b, _ := s.Bounds(inst.GeometryID)
	t, _ := s.Transform(inst.TransformID)
	return b.Transformed(t.Matrix), true
}

func (s *consolidatedScene) WorldBounds() geometry.Bounds {
	out := geometry.EmptyBounds()
	for i := range s.instances {
		b, _ := s.InstanceBounds(uint32(i))
		out = out.Union(b)
	}
	return out
}

func (s *consolidatedScene) Triangle(instanceID, primitiveID uint32) ([3]geometry.Vertex, error) {
	var tri [3]geometry.Vertex

	inst, ok := s.Instance(instanceID)
	if !ok {
		return tri, fmt.Errorf("scene: instance %d out of range (%d instances)", instanceID, len(s.instances))
	}
	geo, ok := s.Geometry(inst.GeometryID)
	if !ok {
		return tri, fmt.Errorf("scene: instance %d references geometry %d out of range", instanceID, inst.GeometryID)
	}
	if primitiveID >= geo.TriangleCount() {
		return tri, fmt.Errorf("scene: primitive %d out of range for geometry %d (%d triangles)", primitiveID, inst.GeometryID, geo.TriangleCount())
	}

	base := geo.IndexBufferOffset + primitiveID*3
	for k := range 3 {
		tri[k] = s.vertices[s.indices[base+uint32(k)]]
	}
	return tri, nil
}

func (s *consolidatedScene) VertexCount() int {
	return len(s.vertices)
}

func (s *consolidatedScene) IndexCount() int {
	return len(s.indices)
}

func (s *consolidatedScene) TriangleCount() int {
	return len(s.indices) / 3
}

func (s *consolidatedScene) GeometryCount() int {
	return len(s.geometries)
}

func (s *consolidatedScene) InstanceCount() int {
	return len(s.instances)
}

func (s *consolidatedScene) Validate() error {
	var errs []error

	if len(s.indices)%3 != 0 {
		errs = append(errs, fmt.Errorf("index count %d is not a multiple of 3", len(s.indices)))
	}

	nv, ni := uint64(len(s.vertices)), uint64(len(s.indices))
	for i, d := range s.geometries {
		if end := uint64(d.VertexBufferOffset) + uint64(d.VertexCount); end > nv {
			errs = append(errs, fmt.Errorf("geometry %d vertex region ends at %d past %d vertices", i, end, nv))
		}
		if end := uint64(d.IndexBufferOffset) + uint64(d.IndexCount); end > ni {
			errs = append(errs, fmt.Errorf("geometry %d index region ends at %d past %d indices", i, end, ni))
		}
	}

	if len(s.bounds) != len(s.geometries) || len(s.radii) != len(s.geometries) {
		errs = append(errs, fmt.Errorf("%d bounds and %d radii for %d geometries", len(s.bounds), len(s.radii), len(s.geometries)))
	}

	if len(s.instances) != len(s.transforms) {
		errs = append(errs, fmt.Errorf("%d instances but %d transforms", len(s.instances), len(s.transforms)))
	}
	ng, nt := uint64(len(s.geometries)), uint64(len(s.transforms))
	for i, inst := range s.instances {
		if uint64(inst.GeometryID) >= ng {
			errs = append(errs, fmt.Errorf("instance %d geometry id %d out of range (%d geometries)", i, inst.GeometryID, ng))
		}
		if uint64(inst.TransformID) >= nt {
			errs = append(errs, fmt.Errorf("instance %d transform id %d out of range (%d transforms)", i, inst.TransformID, nt))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w %q: %w", ErrInvalidScene, s.name, errors.Join(errs...))
}
