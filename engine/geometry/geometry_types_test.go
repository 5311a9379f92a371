package geometry

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/stretchr/testify/assert"
)

func TestComputeBounds(t *testing.T) {
	g := &Geometry{Positions: []common.Vec3{{-1, 0, 2}, {3, -4, 0}, {0, 1, 1}}}
	b := g.ComputeBounds()
	assert.False(t, b.IsEmpty())
	assert.Equal(t, common.Vec3{-1, -4, 0}, b.Min)
	assert.Equal(t, common.Vec3{3, 1, 2}, b.Max)
	assert.Equal(t, common.Vec3{1, -1.5, 1}, b.Center())
	assert.InDelta(t, 5, g.ComputeBoundingRadius(), 1e-6)
}

func TestEmptyBounds(t *testing.T) {
	g := &Geometry{}
	assert.True(t, g.ComputeBounds().IsEmpty())
	assert.Equal(t, float32(0), g.ComputeBoundingRadius())

	b := Bounds{Min: common.Vec3{0, 0, 0}, Max: common.Vec3{1, 1, 1}}
	assert.Equal(t, b, b.Union(EmptyBounds()))
	assert.Equal(t, b, EmptyBounds().Union(b))
	assert.True(t, EmptyBounds().Transformed(common.IdentityMat4()).IsEmpty())
}

func TestBoundsTransformed(t *testing.T) {
	b := Bounds{Min: common.Vec3{-1, -1, -1}, Max: common.Vec3{1, 1, 1}}
	m := common.TRS(common.Vec3{10, 0, 0}, common.Vec3{}, common.Vec3{2, 1, 1})
	w := b.Transformed(m)
	assert.Equal(t, common.Vec3{8, -1, -1}, w.Min)
	assert.Equal(t, common.Vec3{12, 1, 1}, w.Max)
}

func TestGeometryCounts(t *testing.T) {
	g := &Geometry{Positions: make([]common.Vec3, 4), Indices: []uint32{0, 1, 2, 0, 2, 3}}
	assert.Equal(t, 4, g.VertexCount())
	assert.Equal(t, 6, g.IndexCount())
	assert.Equal(t, 2, g.TriangleCount())
}
