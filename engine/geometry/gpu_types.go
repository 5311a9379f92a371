package geometry

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-scene/common"
)

// Byte sizes of the GPU-visible structures. They are flat structures-of-scalars so backends can
// upload the arrays verbatim and index them directly from hit shaders.
const (
	VertexSize             = 32
	GeometryDescriptorSize = 20
	InstanceDescriptorSize = 12
	TransformSize          = 64
	IndexSize              = 4
)

// Vertex is the interleaved GPU representation of one point on a surface.
// Size: 32 bytes (no padding).
type Vertex struct {
	Position [3]float32 // offset  0: vertex position in model space (12 bytes)
	Normal   [3]float32 // offset 12: vertex normal (12 bytes)
	TexCoord [2]float32 // offset 24: UV texture coordinate (8 bytes)
}

// Size returns the size of the Vertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (v *Vertex) Size() int {
	return int(unsafe.Sizeof(*v))
}

// Marshal serializes the Vertex into a little endian byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload.
func (v *Vertex) Marshal() []byte {
	buf := make([]byte, VertexSize)
	v.put(buf)
	return buf
}

func (v *Vertex) put(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(v.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(v.Normal[0]))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(v.Normal[1]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(v.Normal[2]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(v.TexCoord[0]))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(v.TexCoord[1]))
}

// GeometryDescriptor locates one geometry's region within the global vertex and index arrays.
// Size: 20 bytes (five u32, no padding).
type GeometryDescriptor struct {
	VertexBufferOffset uint32 // offset  0: first vertex of this geometry in the global vertex array
	IndexBufferOffset  uint32 // offset  4: first index of this geometry in the global index array
	VertexCount        uint32 // offset  8: number of vertices
	IndexCount         uint32 // offset 12: number of indices (three per triangle)
	MaterialID         uint32 // offset 16: resolved material id
}

// Size returns the size of the GeometryDescriptor struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (d *GeometryDescriptor) Size() int {
	return int(unsafe.Sizeof(*d))
}

// Marshal serializes the GeometryDescriptor into a little endian byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 20-byte buffer ready for GPU upload.
func (d *GeometryDescriptor) Marshal() []byte {
	buf := make([]byte, GeometryDescriptorSize)
	d.put(buf)
	return buf
}

func (d *GeometryDescriptor) put(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], d.VertexBufferOffset)
	binary.LittleEndian.PutUint32(buf[4:8], d.IndexBufferOffset)
	binary.LittleEndian.PutUint32(buf[8:12], d.VertexCount)
	binary.LittleEndian.PutUint32(buf[12:16], d.IndexCount)
	binary.LittleEndian.PutUint32(buf[16:20], d.MaterialID)
}

// Empty reports whether the geometry has nothing to draw.
func (d *GeometryDescriptor) Empty() bool {
	return d.VertexCount == 0 || d.IndexCount == 0
}

// TriangleCount returns IndexCount / 3.
func (d *GeometryDescriptor) TriangleCount() uint32 {
	return d.IndexCount / 3
}

// VertexEnd returns the exclusive end of this geometry's vertex region.
func (d *GeometryDescriptor) VertexEnd() uint32 {
	return d.VertexBufferOffset + d.VertexCount
}

// IndexEnd returns the exclusive end of this geometry's index region.
func (d *GeometryDescriptor) IndexEnd() uint32 {
	return d.IndexBufferOffset + d.IndexCount
}

// InstanceFlags is a bitmask of per-instance options read by hit shaders.
type InstanceFlags uint32

const (
	// InstanceFlagDoubleSided disables back-face culling for the instance.
	InstanceFlagDoubleSided InstanceFlags = 1 << iota
	// InstanceFlagOpaque marks the instance as opaque so any-hit shaders may be skipped.
	InstanceFlagOpaque
	// InstanceFlagNoShadow excludes the instance from shadow rays.
	InstanceFlagNoShadow
)

var instanceFlagNames = []struct {
	flag InstanceFlags
	name string
}{
	{InstanceFlagDoubleSided, "double_sided"},
	{InstanceFlagOpaque, "opaque"},
	{InstanceFlagNoShadow, "no_shadow"},
}

// Has reports whether all bits of f are set.
func (flags InstanceFlags) Has(f InstanceFlags) bool {
	return flags&f == f
}

func (flags InstanceFlags) String() string {
	if flags == 0 {
		return "none"
	}
	var parts []string
	rest := flags
	for _, n := range instanceFlagNames {
		if flags.Has(n.flag) {
			parts = append(parts, n.name)
			rest &^= n.flag
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// ParseInstanceFlag resolves a flag name (e.g. "double_sided") to its bit.
//
// Parameters:
//   - name: the flag name, case insensitive
//
// Returns:
//   - InstanceFlags: the flag bit
//   - error: error if the name is unknown
func ParseInstanceFlag(name string) (InstanceFlags, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, n := range instanceFlagNames {
		if n.name == key {
			return n.flag, nil
		}
	}
	return 0, fmt.Errorf("unknown instance flag %q", name)
}

// InstanceDescriptor links a placed instance to its geometry and its transform.
// Size: 12 bytes (three u32, no padding).
type InstanceDescriptor struct {
	GeometryID  uint32        // offset 0: index into the geometry descriptor array
	TransformID uint32        // offset 4: index into the transform array
	Flags       InstanceFlags // offset 8: instance flag bitmask
}

// Size returns the size of the InstanceDescriptor struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (d *InstanceDescriptor) Size() int {
	return int(unsafe.Sizeof(*d))
}

// Marshal serializes the InstanceDescriptor into a little endian byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 12-byte buffer ready for GPU upload.
func (d *InstanceDescriptor) Marshal() []byte {
	buf := make([]byte, InstanceDescriptorSize)
	d.put(buf)
	return buf
}

func (d *InstanceDescriptor) put(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], d.GeometryID)
	binary.LittleEndian.PutUint32(buf[4:8], d.TransformID)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(d.Flags))
}

// Transform is the GPU representation of one instance's object-to-world matrix.
// Size: 64 bytes (mat4x4<f32>, column-major).
type Transform struct {
	Matrix common.Mat4 // offset 0: 4×4 object-to-world transform matrix (64 bytes)
}

// Size returns the size of the Transform struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (t *Transform) Size() int {
	return int(unsafe.Sizeof(*t))
}

// Marshal serializes the Transform into a little endian byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload.
func (t *Transform) Marshal() []byte {
	buf := make([]byte, TransformSize)
	t.put(buf)
	return buf
}

func (t *Transform) put(buf []byte) {
	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(t.Matrix[i]))
	}
}

// MarshalVertices packs a vertex array into one contiguous little endian buffer.
func MarshalVertices(vs []Vertex) []byte {
	buf := make([]byte, len(vs)*VertexSize)
	for i := range vs {
		vs[i].put(buf[i*VertexSize:])
	}
	return buf
}

// MarshalIndices packs an index array into one contiguous little endian buffer.
func MarshalIndices(idx []uint32) []byte {
	buf := make([]byte, len(idx)*IndexSize)
	for i, v := range idx {
		binary.LittleEndian.PutUint32(buf[i*IndexSize:], v)
	}
	return buf
}

// MarshalGeometryDescriptors packs a geometry descriptor array into one contiguous little endian buffer.
func MarshalGeometryDescriptors(ds []GeometryDescriptor) []byte {
	buf := make([]byte, len(ds)*GeometryDescriptorSize)
	for i := range ds {
		ds[i].put(buf[i*GeometryDescriptorSize:])
	}
	return buf
}

// MarshalInstanceDescriptors packs an instance descriptor array into one contiguous little endian buffer.
func MarshalInstanceDescriptors(ds []InstanceDescriptor) []byte {
	buf := make([]byte, len(ds)*InstanceDescriptorSize)
	for i := range ds {
		ds[i].put(buf[i*InstanceDescriptorSize:])
	}
	return buf
}

// MarshalTransforms packs a transform array into one contiguous little endian buffer.
func MarshalTransforms(ts []Transform) []byte {
	buf := make([]byte, len(ts)*TransformSize)
	for i := range ts {
		ts[i].put(buf[i*TransformSize:])
	}
	return buf
}
