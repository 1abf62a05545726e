package engine

import (
	"math"

	"github.com/draftkit/draftkit/backend-go/internal/geometry"
)

// Matrix2D represents a 2D affine transformation matrix.
// Layout: [a, b, c, d, e, f] representing:
// | a  c  e |
// | b  d  f |
// | 0  0  1 |
type Matrix2D [6]float64

// Identity returns the identity matrix.
func Identity() Matrix2D {
	return Matrix2D{1, 0, 0, 1, 0, 0}
}

// TranslateBy returns a translation matrix.
func TranslateBy(dx, dy float64) Matrix2D {
	return Matrix2D{1, 0, 0, 1, dx, dy}
}

// RotateAbout returns a rotation by angle radians about center.
func RotateAbout(center geometry.Point, angle float64) Matrix2D {
	cos := math.Cos(angle)
	sin := math.Sin(angle)
	return Matrix2D{
		cos, sin, -sin, cos,
		center.X - cos*center.X + sin*center.Y,
		center.Y - sin*center.X - cos*center.Y,
	}
}

// ScaleAbout returns a uniform scale by factor about origin.
func ScaleAbout(origin geometry.Point, factor float64) Matrix2D {
	return Matrix2D{
		factor, 0, 0, factor,
		origin.X * (1 - factor),
		origin.Y * (1 - factor),
	}
}

// MirrorAcross returns a reflection across the line through p1 and p2.
// Coincident points degenerate to the identity.
func MirrorAcross(p1, p2 geometry.Point) Matrix2D {
	d := p2.Sub(p1)
	l2 := d.Dot(d)
	if l2 < geometry.Epsilon {
		return Identity()
	}
	// Reflection of the linear part: householder on the unit direction.
	cos2 := (d.X*d.X - d.Y*d.Y) / l2
	sin2 := 2 * d.X * d.Y / l2
	// Conjugate by the translation that moves p1 to the origin.
	return Matrix2D{
		cos2, sin2, sin2, -cos2,
		p1.X - cos2*p1.X - sin2*p1.Y,
		p1.Y - sin2*p1.X + cos2*p1.Y,
	}
}

// Multiply multiplies this matrix by another: result = m * other.
// This applies 'other' first, then 'm'.
func (m Matrix2D) Multiply(other Matrix2D) Matrix2D {
	return Matrix2D{
		m[0]*other[0] + m[2]*other[1],
		m[1]*other[0] + m[3]*other[1],
		m[0]*other[2] + m[2]*other[3],
		m[1]*other[2] + m[3]*other[3],
		m[0]*other[4] + m[2]*other[5] + m[4],
		m[1]*other[4] + m[3]*other[5] + m[5],
	}
}

// Apply transforms a point.
func (m Matrix2D) Apply(p geometry.Point) geometry.Point {
	return geometry.Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// ApplyVector transforms a direction vector, ignoring translation.
func (m Matrix2D) ApplyVector(v geometry.Point) geometry.Point {
	return geometry.Point{
		X: m[0]*v.X + m[2]*v.Y,
		Y: m[1]*v.X + m[3]*v.Y,
	}
}

// Determinant returns the determinant of the linear part.
func (m Matrix2D) Determinant() float64 {
	return m[0]*m[3] - m[1]*m[2]
}

// Invert returns the inverse of the matrix, or Identity if not invertible.
func (m Matrix2D) Invert() Matrix2D {
	det := m.Determinant()
	if det == 0 {
		return Identity()
	}

	invDet := 1.0 / det
	return Matrix2D{
		m[3] * invDet,
		-m[1] * invDet,
		-m[2] * invDet,
		m[0] * invDet,
		(m[2]*m[5] - m[3]*m[4]) * invDet,
		(m[1]*m[4] - m[0]*m[5]) * invDet,
	}
}

// RotationAngle returns the rotation the matrix applies to the +X axis.
func (m Matrix2D) RotationAngle() float64 {
	return math.Atan2(m[1], m[0])
}

// UniformScale returns the length-scale factor of the matrix,
// sqrt(|det|), which is exact for similarity transforms.
func (m Matrix2D) UniformScale() float64 {
	return math.Sqrt(math.Abs(m.Determinant()))
}

// IsMirroring reports whether the matrix flips orientation.
func (m Matrix2D) IsMirroring() bool {
	return m.Determinant() < 0
}

// IsIdentity checks if this is the identity matrix (within epsilon).
func (m Matrix2D) IsIdentity() bool {
	return math.Abs(m[0]-1) < geometry.Epsilon &&
		math.Abs(m[1]) < geometry.Epsilon &&
		math.Abs(m[2]) < geometry.Epsilon &&
		math.Abs(m[3]-1) < geometry.Epsilon &&
		math.Abs(m[4]) < geometry.Epsilon &&
		math.Abs(m[5]) < geometry.Epsilon
}
