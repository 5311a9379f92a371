// package common contains common types that are used throughout this module. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

// Vec2 is a two component float32 vector, used for texture coordinates.
type Vec2 = [2]float32

// Vec3 is a three component float32 vector, used for positions and normals.
type Vec3 = [3]float32

// Mat4 is a 4x4 float32 matrix stored in column-major order (OpenGL/WebGPU convention).
// Element (row r, column c) lives at index c*4+r.
type Mat4 [16]float32

// IdentityMat4 returns a new 4x4 identity matrix.
//
// Returns:
//   - Mat4: the identity matrix
func IdentityMat4() Mat4 {
	var m Mat4
	Identity(m[:])
	return m
}

// IsIdentity reports whether the matrix is exactly the identity matrix.
//
// Returns:
//   - bool: true if every element matches the identity matrix
func (m Mat4) IsIdentity() bool {
	return m == IdentityMat4()
}

// Translation returns the translation component (fourth column) of the matrix.
//
// Returns:
//   - Vec3: the x, y, z translation
func (m Mat4) Translation() Vec3 {
	return Vec3{m[12], m[13], m[14]}
}
