package renderer

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/geometry"
	"github.com/Carmen-Shannon/oxy-scene/engine/primitive"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// fakeDevice hands out placeholder buffers and records every descriptor it receives.
type fakeDevice struct {
	descriptors []wgpu.BufferInitDescriptor
	buffers     []*wgpu.Buffer
	failAt      int
}

func (d *fakeDevice) CreateBufferInit(desc *wgpu.BufferInitDescriptor) (*wgpu.Buffer, error) {
	if d.failAt > 0 && len(d.descriptors)+1 == d.failAt {
		return nil, errors.New("out of memory")
	}
	d.descriptors = append(d.descriptors, *desc)
	buf := &wgpu.Buffer{}
	d.buffers = append(d.buffers, buf)
	return buf, nil
}

type write struct {
	buffer *wgpu.Buffer
	offset uint64
	data   []byte
}

type fakeQueue struct {
	writes []write
	err    error
}

func (q *fakeQueue) WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte) error {
	if q.err != nil {
		return q.err
	}
	q.writes = append(q.writes, write{buf, offset, data})
	return nil
}

// trackReleases swaps the buffer release hook for the duration of a test.
func trackReleases(t *testing.T) *[]*wgpu.Buffer {
	t.Helper()
	var released []*wgpu.Buffer
	prev := releaseBuffer
	releaseBuffer = func(b *wgpu.Buffer) { released = append(released, b) }
	t.Cleanup(func() { releaseBuffer = prev })
	return &released
}

func buildScene(t *testing.T) scene.ConsolidatedScene {
	t.Helper()
	s, err := scene.NewConsolidatedScene(
		[]geometry.Geometry{primitive.Cube(1), primitive.Plane(4, 2, 2)},
		[]scene.Instance{scene.NewInstance(0), scene.NewInstance(1), scene.NewInstance(0, scene.WithTRS(common.Vec3{2, 0, 0}, common.Vec3{}, common.Vec3{1, 1, 1}))},
		scene.WithName("upload"),
	)
	require.NoError(t, err)
	return s
}

func TestUploadScene(t *testing.T) {
	released := trackReleases(t)
	core, logs := observer.New(zapcore.InfoLevel)
	dev := &fakeDevice{}
	s := buildScene(t)

	bufs, err := UploadScene(dev, s, WithLogger(zap.New(core)))
	require.NoError(t, err)
	require.Len(t, dev.descriptors, 5)

	staged := Stage(s)
	for i, kind := range BufferKinds {
		desc := dev.descriptors[i]
		assert.Equal(t, "upload "+kind.String()+" Buffer", desc.Label)
		assert.Equal(t, staged.Bytes(kind), desc.Contents)
		assert.Equal(t, kind.Usage(), desc.Usage)
		assert.Same(t, dev.buffers[i], bufs.Buffer(kind))
		assert.Equal(t, uint64(len(staged.Bytes(kind))), bufs.BufferSize(kind))
	}
	assert.Same(t, dev.buffers[0], bufs.VertexBuffer())
	assert.Same(t, dev.buffers[1], bufs.IndexBuffer())
	assert.Same(t, dev.buffers[2], bufs.GeometryBuffer())
	assert.Same(t, dev.buffers[3], bufs.InstanceBuffer())
	assert.Same(t, dev.buffers[4], bufs.TransformBuffer())

	assert.Equal(t, "upload", bufs.Label())
	assert.Equal(t, s.VertexCount(), bufs.VertexCount())
	assert.Equal(t, s.IndexCount(), bufs.IndexCount())
	assert.Equal(t, 3, bufs.InstanceCount())

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, int64(staged.Total()), logs.All()[0].ContextMap()["bytes"])

	bufs.Release()
	assert.Len(t, *released, 5)
	assert.Nil(t, bufs.VertexBuffer())
	assert.Zero(t, bufs.BufferSize(BufferTransform))

	bufs.Release()
	assert.Len(t, *released, 5)
}

func TestUploadSkipsEmptyArrays(t *testing.T) {
	trackReleases(t)
	s, err := scene.NewConsolidatedScene([]geometry.Geometry{{Name: "empty"}}, nil)
	require.NoError(t, err)

	dev := &fakeDevice{}
	bufs, err := UploadScene(dev, s, WithLabel("sparse"))
	require.NoError(t, err)

	// Only the geometry descriptor array is non-empty.
	require.Len(t, dev.descriptors, 1)
	assert.Equal(t, "sparse Geometry Descriptor Buffer", dev.descriptors[0].Label)
	assert.Nil(t, bufs.VertexBuffer())
	assert.Nil(t, bufs.IndexBuffer())
	assert.NotNil(t, bufs.GeometryBuffer())
	assert.Nil(t, bufs.InstanceBuffer())
	assert.Nil(t, bufs.TransformBuffer())
}

func TestUploadFailureReleasesCreatedBuffers(t *testing.T) {
	released := trackReleases(t)
	dev := &fakeDevice{failAt: 3}

	bufs, err := UploadScene(dev, buildScene(t))
	require.Error(t, err)
	assert.Nil(t, bufs)
	assert.Contains(t, err.Error(), "Geometry Descriptor buffer")
	assert.Equal(t, dev.buffers, *released)
}

func TestUpdateTransforms(t *testing.T) {
	trackReleases(t)
	bufs, err := UploadScene(&fakeDevice{}, buildScene(t))
	require.NoError(t, err)

	q := &fakeQueue{}
	moved := []geometry.Transform{{Matrix: common.TRS(common.Vec3{0, 5, 0}, common.Vec3{}, common.Vec3{1, 1, 1})}}
	require.NoError(t, UpdateTransforms(q, bufs, 2, moved))
	require.Len(t, q.writes, 1)
	assert.Same(t, bufs.TransformBuffer(), q.writes[0].buffer)
	assert.Equal(t, uint64(2*geometry.TransformSize), q.writes[0].offset)
	assert.Equal(t, geometry.MarshalTransforms(moved), q.writes[0].data)

	assert.NoError(t, UpdateTransforms(q, bufs, 0, nil))
	assert.Len(t, q.writes, 1)

	err = UpdateTransforms(q, bufs, 2, append(moved, moved...))
	assert.ErrorContains(t, err, "exceed 3 uploaded transforms")

	q.err = errors.New("device lost")
	assert.ErrorIs(t, UpdateTransforms(q, bufs, 0, moved), q.err)

	bufs.Release()
	assert.ErrorIs(t, UpdateTransforms(q, bufs, 0, moved), ErrReleased)
}

func TestBufferKind(t *testing.T) {
	assert.Equal(t, wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst|wgpu.BufferUsageVertex, BufferVertex.Usage())
	assert.Equal(t, wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst|wgpu.BufferUsageIndex, BufferIndex.Usage())
	assert.Equal(t, wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst, BufferTransform.Usage())
	assert.Equal(t, "Unknown", BufferKind(9).String())
	assert.Zero(t, BufferKind(9).Stride())
}

func TestStage(t *testing.T) {
	s := buildScene(t)
	staged := Stage(s)
	assert.Equal(t, s.VertexCount(), staged.Len(BufferVertex))
	assert.Equal(t, s.IndexCount(), staged.Len(BufferIndex))
	assert.Equal(t, s.GeometryCount(), staged.Len(BufferGeometry))
	assert.Equal(t, s.InstanceCount(), staged.Len(BufferInstance))
	assert.Equal(t, s.InstanceCount(), staged.Len(BufferTransform))
	assert.Nil(t, staged.Bytes(BufferKind(-1)))
	assert.Zero(t, staged.Len(BufferKind(7)))
}
