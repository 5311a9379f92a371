package verify

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/engine/geometry"
	"github.com/Carmen-Shannon/oxy-scene/engine/primitive"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tampered overrides the arrays of a real scene to simulate corrupted layouts.
type tampered struct {
	scene.ConsolidatedScene
	geometries []geometry.GeometryDescriptor
	indices    []uint32
	instances  []geometry.InstanceDescriptor
	transforms []geometry.Transform
}

func (t *tampered) Geometries() []geometry.GeometryDescriptor {
	if t.geometries != nil {
		return t.geometries
	}
	return t.ConsolidatedScene.Geometries()
}

func (t *tampered) Indices() []uint32 {
	if t.indices != nil {
		return t.indices
	}
	return t.ConsolidatedScene.Indices()
}

func (t *tampered) Instances() []geometry.InstanceDescriptor {
	if t.instances != nil {
		return t.instances
	}
	return t.ConsolidatedScene.Instances()
}

func (t *tampered) Transforms() []geometry.Transform {
	if t.transforms != nil {
		return t.transforms
	}
	return t.ConsolidatedScene.Transforms()
}

func buildSample(t *testing.T) scene.ConsolidatedScene {
	t.Helper()
	s, err := scene.NewConsolidatedScene(
		[]geometry.Geometry{primitive.Box(1), primitive.Plane(1, 2, 2), primitive.Cube(1)},
		[]scene.Instance{scene.NewInstance(0), scene.NewInstance(2), scene.NewInstance(2)},
		scene.WithName("sample"),
	)
	require.NoError(t, err)
	return s
}

func checks(r *Report) []string {
	var out []string
	for _, v := range r.Violations {
		out = append(out, v.Check)
	}
	return out
}

func TestSceneClean(t *testing.T) {
	r := Scene(buildSample(t))
	assert.True(t, r.OK(), "%v", r.Violations)
	assert.NoError(t, r.Err())
	assert.Equal(t, "sample", r.Scene)
	assert.Equal(t, 3, r.Geometries)
	assert.Equal(t, 3, r.Instances)
	assert.Equal(t, 8+9+24, r.Vertices)
	assert.Equal(t, 12+8+12, r.Triangles)
}

func TestSceneEmpty(t *testing.T) {
	s, err := scene.NewConsolidatedScene(nil, nil)
	require.NoError(t, err)
	assert.True(t, Scene(s).OK())
}

func TestSceneDetectsGap(t *testing.T) {
	s := buildSample(t)
	geoms := s.Geometries()
	geoms[1].VertexBufferOffset++
	geoms[2].IndexBufferOffset--

	r := Scene(&tampered{ConsolidatedScene: s, geometries: geoms})
	assert.False(t, r.OK())
	assert.Contains(t, checks(r), CheckVertexContiguity)
	assert.Contains(t, checks(r), CheckIndexContiguity)
	assert.Contains(t, checks(r), CheckIndexRegion)
	assert.Error(t, r.Err())
}

func TestSceneDetectsBadFirstOffsetAndTotals(t *testing.T) {
	s := buildSample(t)
	geoms := s.Geometries()
	geoms[0].VertexBufferOffset = 1
	geoms[2].VertexCount++

	r := Scene(&tampered{ConsolidatedScene: s, geometries: geoms})
	assert.Contains(t, checks(r), CheckFirstOffsets)
	assert.Contains(t, checks(r), CheckVertexTotal)
}

func TestSceneDetectsForeignIndex(t *testing.T) {
	s := buildSample(t)
	indices := s.Indices()
	indices[0] = 20 // inside the cube region, not the box region

	r := Scene(&tampered{ConsolidatedScene: s, indices: indices})
	require.Len(t, r.Violations, 1)
	assert.Equal(t, CheckIndexRegion, r.Violations[0].Check)
	assert.Equal(t, "index_region: geometry 0 index slot 0 = 20 outside [0,8)", r.Violations[0].String())
}

func TestSceneCapsIndexViolations(t *testing.T) {
	s := buildSample(t)
	indices := s.Indices()
	for i := range 36 {
		indices[i] = 1000
	}
	r := Scene(&tampered{ConsolidatedScene: s, indices: indices})
	assert.Len(t, r.Violations, maxIndexViolations)
}

func TestSceneDetectsTruncatedIndices(t *testing.T) {
	s := buildSample(t)
	indices := s.Indices()[:s.IndexCount()-1]
	r := Scene(&tampered{ConsolidatedScene: s, indices: indices})
	assert.Contains(t, checks(r), CheckIndexTotal)
	assert.Contains(t, checks(r), CheckTriangleMultiple)
	assert.Contains(t, checks(r), CheckIndexRegion)
}

func TestSceneDetectsInstanceProblems(t *testing.T) {
	s := buildSample(t)
	instances := s.Instances()
	instances[1].GeometryID = 3
	instances[2].TransformID = 9

	r := Scene(&tampered{ConsolidatedScene: s, instances: instances, transforms: s.Transforms()[:2]})
	assert.Contains(t, checks(r), CheckInstanceParity)
	assert.Contains(t, checks(r), CheckInstanceLinks)
}

func TestIdempotent(t *testing.T) {
	r, err := Idempotent(func() (scene.ConsolidatedScene, error) {
		return buildSample(t), nil
	})
	require.NoError(t, err)
	assert.True(t, r.OK(), "%v", r.Violations)
}

func TestIdempotentDetectsDrift(t *testing.T) {
	n := 0
	r, err := Idempotent(func() (scene.ConsolidatedScene, error) {
		n++
		return scene.NewConsolidatedScene([]geometry.Geometry{primitive.Plane(1, n, 1)}, []scene.Instance{scene.NewInstance(0)})
	})
	require.NoError(t, err)
	assert.Contains(t, checks(r), CheckIdempotence)
}

func TestIdempotentBuildError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Idempotent(func() (scene.ConsolidatedScene, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}

func TestMarshal(t *testing.T) {
	s := buildSample(t)
	arrays := Marshal(s)
	assert.Len(t, arrays[0], s.VertexCount()*geometry.VertexSize)
	assert.Len(t, arrays[1], s.IndexCount()*geometry.IndexSize)
	assert.Len(t, arrays[2], s.GeometryCount()*geometry.GeometryDescriptorSize)
	assert.Len(t, arrays[3], s.InstanceCount()*geometry.InstanceDescriptorSize)
	assert.Len(t, arrays[4], s.InstanceCount()*geometry.TransformSize)
}
