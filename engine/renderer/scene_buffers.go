package renderer

import (
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// releaseBuffer frees a GPU buffer. Tests replace it to run against fake handles.
var releaseBuffer = (*wgpu.Buffer).Release

// sceneBuffers is the unexported implementation of SceneBuffers.
type sceneBuffers struct {
	mu sync.Mutex

	// label is a debug label added for convenience.
	label string

	// buffers holds the GPU buffer of each array, nil where the array was empty.
	buffers [bufferKindCount]*wgpu.Buffer
	// sizes holds the byte size of each created buffer.
	sizes [bufferKindCount]uint64

	vertexCount   int
	indexCount    int
	instanceCount int
}

// SceneBuffers holds the GPU buffers of one uploaded consolidated scene. Backends bind the descriptor,
// transform and global arrays as storage buffers and follow the instance → geometry → offset lookup path
// inside their shaders.
type SceneBuffers interface {
	// Release releases every GPU buffer held by this scene. Calling Release twice is a no-op.
	Release()

	// Label returns the debug label for this scene.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Buffer returns the GPU buffer of one array, or nil if the array was empty or the buffers were released.
	//
	// Parameters:
	//   - kind: the array to look up
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(kind BufferKind) *wgpu.Buffer

	// BufferSize returns the byte size of one array's buffer, 0 when no buffer was created.
	//
	// Parameters:
	//   - kind: the array to look up
	//
	// Returns:
	//   - uint64: the buffer size in bytes
	BufferSize(kind BufferKind) uint64

	// VertexBuffer returns the global vertex buffer, or nil if not created.
	//
	// Returns:
	//   - *wgpu.Buffer: the vertex buffer or nil
	VertexBuffer() *wgpu.Buffer

	// IndexBuffer returns the global index buffer, or nil if not created.
	//
	// Returns:
	//   - *wgpu.Buffer: the index buffer or nil
	IndexBuffer() *wgpu.Buffer

	// GeometryBuffer returns the geometry descriptor buffer, or nil if not created.
	//
	// Returns:
	//   - *wgpu.Buffer: the geometry descriptor buffer or nil
	GeometryBuffer() *wgpu.Buffer

	// InstanceBuffer returns the instance descriptor buffer, or nil if not created.
	//
	// Returns:
	//   - *wgpu.Buffer: the instance descriptor buffer or nil
	InstanceBuffer() *wgpu.Buffer

	// TransformBuffer returns the transform buffer, or nil if not created.
	//
	// Returns:
	//   - *wgpu.Buffer: the transform buffer or nil
	TransformBuffer() *wgpu.Buffer

	// VertexCount returns the number of vertices uploaded.
	VertexCount() int

	// IndexCount returns the number of indices uploaded.
	IndexCount() int

	// InstanceCount returns the number of instances uploaded.
	InstanceCount() int
}

var _ SceneBuffers = &sceneBuffers{}

func (b *sceneBuffers) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, buf := range b.buffers {
		if buf != nil {
			releaseBuffer(buf)
			b.buffers[i] = nil
			b.sizes[i] = 0
		}
	}
}

func (b *sceneBuffers) Label() string {
	return b.label
}

func (b *sceneBuffers) Buffer(kind BufferKind) *wgpu.Buffer {
	if kind < 0 || kind >= bufferKindCount {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffers[kind]
}

func (b *sceneBuffers) BufferSize(kind BufferKind) uint64 {
	if kind < 0 || kind >= bufferKindCount {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sizes[kind]
}

func (b *sceneBuffers) VertexBuffer() *wgpu.Buffer {
	return b.Buffer(BufferVertex)
}

func (b *sceneBuffers) IndexBuffer() *wgpu.Buffer {
	return b.Buffer(BufferIndex)
}

func (b *sceneBuffers) GeometryBuffer() *wgpu.Buffer {
	return b.Buffer(BufferGeometry)
}

func (b *sceneBuffers) InstanceBuffer() *wgpu.Buffer {
	return b.Buffer(BufferInstance)
}

func (b *sceneBuffers) TransformBuffer() *wgpu.Buffer {
	return b.Buffer(BufferTransform)
}

func (b *sceneBuffers) VertexCount() int {
	return b.vertexCount
}

func (b *sceneBuffers) IndexCount() int {
	return b.indexCount
}

func (b *sceneBuffers) InstanceCount() int {
	return b.instanceCount
}
