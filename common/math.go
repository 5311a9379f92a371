package common

import (
	"github.com/chewxy/math32"
)

// Identity resets a 4x4 matrix (flat slice) to the identity matrix.
// The matrix is stored in column-major order.
//
// Parameters:
//   - m: destination slice (must be at least 16 elements)
func Identity(m []float32) {
	for i := range m {
		m[i] = 0
	}
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
}

// Mul4 multiplies two 4x4 matrices and stores the result in out.
// All matrices are stored in column-major order (OpenGL/WebGPU convention).
// Result: out = a * b
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - a: left-hand matrix (16 elements)
//   - b: right-hand matrix (16 elements)
func Mul4(out, a, b []float32) {
	var buf [16]float32
	for i := 0; i < 4; i++ { // column of B
		for j := 0; j < 4; j++ { // row of A
			sum := float32(0)
			for k := 0; k < 4; k++ {
				sum += a[k*4+j] * b[i*4+k]
			}
			buf[i*4+j] = sum
		}
	}
	copy(out, buf[:])
}

// BuildModelMatrix constructs a 4x4 model matrix from position, Euler rotation, and scale.
// The rotation order is Y * X * Z (yaw-pitch-roll). All matrices are column-major.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - posX, posY, posZ: translation in world space
//   - rotX, rotY, rotZ: rotation angles in radians around each axis
//   - scaleX, scaleY, scaleZ: scale factors along each axis
func BuildModelMatrix(out []float32, posX, posY, posZ, rotX, rotY, rotZ, scaleX, scaleY, scaleZ float32) {
	cx, sx := math32.Cos(rotX), math32.Sin(rotX)
	cy, sy := math32.Cos(rotY), math32.Sin(rotY)
	cz, sz := math32.Cos(rotZ), math32.Sin(rotZ)

	// R = Ry * Rx * Rz, column-major
	out[0] = (cy*cz + sy*sx*sz) * scaleX
	out[1] = (cx * sz) * scaleX
	out[2] = (-sy*cz + cy*sx*sz) * scaleX
	out[3] = 0

	out[4] = (cy*-sz + sy*sx*cz) * scaleY
	out[5] = (cx * cz) * scaleY
	out[6] = (sy*sz + cy*sx*cz) * scaleY
	out[7] = 0

	out[8] = (sy * cx) * scaleZ
	out[9] = (-sx) * scaleZ
	out[10] = (cy * cx) * scaleZ
	out[11] = 0

	out[12] = posX
	out[13] = posY
	out[14] = posZ
	out[15] = 1
}

// TRS builds a column-major model matrix from translation, Euler rotation (radians) and scale.
// It is a value-returning convenience around BuildModelMatrix.
//
// Parameters:
//   - translate: translation in world space
//   - rotate: rotation angles in radians around X, Y and Z
//   - scale: scale factors along each axis
//
// Returns:
//   - Mat4: the composed model matrix
func TRS(translate, rotate, scale Vec3) Mat4 {
	var m Mat4
	BuildModelMatrix(m[:],
		translate[0], translate[1], translate[2],
		rotate[0], rotate[1], rotate[2],
		scale[0], scale[1], scale[2],
	)
	return m
}

// TransformPoint applies a column-major 4x4 affine matrix to a point (w = 1).
//
// Parameters:
//   - m: the affine matrix
//   - p: the point to transform
//
// Returns:
//   - Vec3: the transformed point
func TransformPoint(m Mat4, p Vec3) Vec3 {
	return Vec3{
		m[0]*p[0] + m[4]*p[1] + m[8]*p[2] + m[12],
		m[1]*p[0] + m[5]*p[1] + m[9]*p[2] + m[13],
		m[2]*p[0] + m[6]*p[1] + m[10]*p[2] + m[14],
	}
}

// Length3 returns the Euclidean length of a 3 component vector.
//
// Parameters:
//   - v: the vector
//
// Returns:
//   - float32: the vector length
func Length3(v Vec3) float32 {
	return math32.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Normalize3 returns v scaled to unit length, or v unchanged when its length is zero.
//
// Parameters:
//   - v: the vector to normalize
//
// Returns:
//   - Vec3: the unit-length vector
func Normalize3(v Vec3) Vec3 {
	l := Length3(v)
	if l == 0 {
		return v
	}
	return Vec3{v[0] / l, v[1] / l, v[2] / l}
}
