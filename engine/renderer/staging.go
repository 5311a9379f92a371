package renderer

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/geometry"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

// BufferKind identifies one of the five consolidated scene arrays.
type BufferKind int

const (
	BufferVertex BufferKind = iota
	BufferIndex
	BufferGeometry
	BufferInstance
	BufferTransform

	bufferKindCount
)

// BufferKinds lists every BufferKind in upload order.
var BufferKinds = [bufferKindCount]BufferKind{BufferVertex, BufferIndex, BufferGeometry, BufferInstance, BufferTransform}

func (k BufferKind) String() string {
	switch k {
	case BufferVertex:
		return "Vertex"
	case BufferIndex:
		return "Index"
	case BufferGeometry:
		return "Geometry Descriptor"
	case BufferInstance:
		return "Instance Descriptor"
	case BufferTransform:
		return "Transform"
	default:
		return "Unknown"
	}
}

// Usage returns the GPU buffer usage of the kind. Every array is readable from shaders as a storage
// buffer; the vertex and index arrays are also bindable for rasterized debug views.
//
// Returns:
//   - wgpu.BufferUsage: the usage flags
func (k BufferKind) Usage() wgpu.BufferUsage {
	usage := wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
	switch k {
	case BufferVertex:
		usage |= wgpu.BufferUsageVertex
	case BufferIndex:
		usage |= wgpu.BufferUsageIndex
	}
	return usage
}

// Stride returns the byte size of one element of the kind.
//
// Returns:
//   - int: the element size in bytes
func (k BufferKind) Stride() int {
	switch k {
	case BufferVertex:
		return geometry.VertexSize
	case BufferIndex:
		return geometry.IndexSize
	case BufferGeometry:
		return geometry.GeometryDescriptorSize
	case BufferInstance:
		return geometry.InstanceDescriptorSize
	case BufferTransform:
		return geometry.TransformSize
	default:
		return 0
	}
}

// StagingData holds the little-endian bytes of the five scene arrays exactly as they are uploaded.
type StagingData struct {
	Data [bufferKindCount][]byte
}

// Stage packs a consolidated scene into its GPU byte layouts.
//
// Parameters:
//   - s: the scene to pack
//
// Returns:
//   - *StagingData: the packed arrays
func Stage(s scene.ConsolidatedScene) *StagingData {
	return &StagingData{Data: [bufferKindCount][]byte{
		BufferVertex:    geometry.MarshalVertices(s.Vertices()),
		BufferIndex:     geometry.MarshalIndices(s.Indices()),
		BufferGeometry:  geometry.MarshalGeometryDescriptors(s.Geometries()),
		BufferInstance:  geometry.MarshalInstanceDescriptors(s.Instances()),
		BufferTransform: geometry.MarshalTransforms(s.Transforms()),
	}}
}

// Bytes returns the staged bytes of one array.
func (d *StagingData) Bytes(kind BufferKind) []byte {
	if kind < 0 || kind >= bufferKindCount {
		return nil
	}
	return d.Data[kind]
}

// Len returns the element count of one staged array.
func (d *StagingData) Len(kind BufferKind) int {
	stride := kind.Stride()
	if stride == 0 {
		return 0
	}
	return len(d.Bytes(kind)) / stride
}

// Total returns the summed byte size of all staged arrays.
func (d *StagingData) Total() int {
	total := 0
	for _, b := range d.Data {
		total += len(b)
	}
	return total
}
