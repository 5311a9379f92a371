package manifest

import (
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/geometry"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoadGallery(t *testing.T) {
	m, err := Load("testdata/gallery.yaml")
	require.NoError(t, err)

	assert.Equal(t, "gallery", m.Name)
	assert.Equal(t, 2, m.Workers)
	lvl, err := m.Level()
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, lvl)

	geoms, instances, err := m.Build()
	require.NoError(t, err)
	require.Len(t, geoms, 4)
	require.Len(t, instances, 5)

	assert.Equal(t, "floor", geoms[0].Name)
	assert.Equal(t, 25, geoms[0].VertexCount())
	assert.Equal(t, uint32(1), geoms[1].MaterialID)
	assert.Nil(t, geoms[2].TexCoords)
	assert.NotNil(t, geoms[2].Normals)
	assert.Equal(t, []uint32{0, 1, 2}, geoms[3].Indices)
	assert.Nil(t, geoms[3].Normals)

	assert.Equal(t, uint32(1), instances[1].GeometryID)
	assert.Equal(t, geometry.InstanceFlagOpaque|geometry.InstanceFlagNoShadow, instances[3].Flags)
	assert.Equal(t, geometry.InstanceFlagDoubleSided, instances[4].Flags)
	assert.True(t, instances[0].Transform.IsIdentity())

	s, err := scene.NewConsolidatedScene(geoms, instances, m.Options()...)
	require.NoError(t, err)
	assert.Equal(t, "gallery", s.Name())
	assert.Equal(t, 5, s.InstanceCount())
}

func TestGroupComposesParentTransform(t *testing.T) {
	m, err := Parse(strings.NewReader(`
geometries:
  - {name: c, kind: box}
groups:
  - {name: g, translate: [10, 0, 0], rotate: [0, 90, 0]}
instances:
  - {geometry: c, group: g, translate: [0, 0, 1]}
`))
	require.NoError(t, err)
	_, instances, err := m.Build()
	require.NoError(t, err)

	// The local +Z offset is rotated onto +X by the group's yaw, then translated.
	p := common.TransformPoint(instances[0].Transform, common.Vec3{})
	assert.InDelta(t, 11, p[0], 1e-5)
	assert.InDelta(t, 0, p[1], 1e-5)
	assert.InDelta(t, 0, p[2], 1e-5)
}

func TestParseDefaults(t *testing.T) {
	m, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, "scene", m.Name)
	assert.Equal(t, 1, m.Workers)
	assert.Equal(t, "info", m.LogLevel)

	geoms, instances, err := m.Build()
	require.NoError(t, err)
	assert.Empty(t, geoms)
	assert.Empty(t, instances)
}

func TestScaleSplat(t *testing.T) {
	m, err := Parse(strings.NewReader(`
geometries: [{name: c, kind: box}]
instances: [{geometry: c, scale: 2}]
`))
	require.NoError(t, err)
	_, instances, err := m.Build()
	require.NoError(t, err)
	assert.Equal(t, common.Vec3{2, 2, 2}, common.TransformPoint(instances[0].Transform, common.Vec3{1, 1, 1}))
}

func TestValidationOption(t *testing.T) {
	m, err := Parse(strings.NewReader("validate: false\n"))
	require.NoError(t, err)
	require.NotNil(t, m.Validate)
	assert.Len(t, m.Options(), 3)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown field", "nmae: x\n"},
		{"negative workers", "workers: -2\n"},
		{"malformed", "geometries: {\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		message string
	}{
		{"unknown geometry", "instances: [{geometry: nope}]\n", `unknown geometry "nope"`},
		{"unknown group", "geometries: [{name: c, kind: box}]\ninstances: [{geometry: c, group: g}]\n", `unknown group "g"`},
		{"duplicate name", "geometries: [{name: c, kind: box}, {name: c, kind: cube}]\n", `duplicate geometry name "c"`},
		{"duplicate group", "groups: [{name: g}, {name: g, translate: [1, 0, 0]}]\n", `duplicate group name "g"`},
		{"unknown kind", "geometries: [{name: c, kind: torus}]\n", `unknown kind "torus"`},
		{"unknown flag", "geometries: [{name: c, kind: box}]\ninstances: [{geometry: c, flags: [shiny]}]\n", "shiny"},
		{"bad translate", "geometries: [{name: c, kind: box}]\ninstances: [{geometry: c, translate: [1, 2]}]\n", "translate needs 1 or 3 components"},
		{"bad position", "geometries: [{name: m, kind: mesh, positions: [[0, 0]]}]\n", "positions[0] needs 3 components"},
		{"inline arrays on primitive", "geometries: [{name: c, kind: box, indices: [0, 1, 2]}]\n", "inline arrays require kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse(strings.NewReader(tt.doc))
			require.NoError(t, err)
			_, _, err = m.Build()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestLevelError(t *testing.T) {
	m, err := Parse(strings.NewReader("log_level: loud\n"))
	require.NoError(t, err)
	_, err = m.Level()
	assert.ErrorIs(t, err, ErrInvalidManifest)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("testdata/missing.yaml")
	assert.Error(t, err)
}

func TestInlineMeshViolationSurfacesFromScene(t *testing.T) {
	m, err := Parse(strings.NewReader(`
geometries:
  - name: bad
    kind: mesh
    positions: [[0, 0, 0], [1, 0, 0], [0, 1, 0]]
    indices: [0, 1, 3]
instances: [{geometry: bad}]
`))
	require.NoError(t, err)
	geoms, instances, err := m.Build()
	require.NoError(t, err)

	_, err = scene.NewConsolidatedScene(geoms, instances, m.Options()...)
	assert.ErrorIs(t, err, scene.ErrStructuralViolation)
}
