package core

import "math"

// Mat4 is a 4×4 transform stored column-major: element (row r, column c)
// lives at index c*4+r. Points are column vectors, so A.Mul(B) applies B
// first and A second.
type Mat4 [16]float64

// Identity returns the identity transform.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// At returns the element at row r, column c.
func (m Mat4) At(r, c int) float64 {
	return m[c*4+r]
}

// Row returns row r as four values.
func (m Mat4) Row(r int) [4]float64 {
	return [4]float64{m[r], m[4+r], m[8+r], m[12+r]}
}

// Mul returns m × n.
func (m Mat4) Mul(n Mat4) Mat4 {
	var out Mat4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[k*4+r] * n[c*4+k]
			}
			out[c*4+r] = sum
		}
	}
	return out
}

// Translation returns a transform moving points by t.
func Translation(t Vec3) Mat4 {
	m := Identity()
	m[12], m[13], m[14] = t.X, t.Y, t.Z
	return m
}

// Scaling returns a uniform scale transform.
func Scaling(s float64) Mat4 {
	m := Identity()
	m[0], m[5], m[10] = s, s, s
	return m
}

// ScalingXYZ returns a per-axis scale transform.
func ScalingXYZ(sx, sy, sz float64) Mat4 {
	m := Identity()
	m[0], m[5], m[10] = sx, sy, sz
	return m
}

// TransformPoint applies m to the point p (w=1) and returns the
// homogeneous result without dividing by w.
func (m Mat4) TransformPoint(p Vec3) (x, y, z, w float64) {
	x = m[0]*p.X + m[4]*p.Y + m[8]*p.Z + m[12]
	y = m[1]*p.X + m[5]*p.Y + m[9]*p.Z + m[13]
	z = m[2]*p.X + m[6]*p.Y + m[10]*p.Z + m[14]
	w = m[3]*p.X + m[7]*p.Y + m[11]*p.Z + m[15]
	return x, y, z, w
}

// TransformDir applies only the linear part of m to the direction d.
func (m Mat4) TransformDir(d Vec3) Vec3 {
	return Vec3{
		X: m[0]*d.X + m[4]*d.Y + m[8]*d.Z,
		Y: m[1]*d.X + m[5]*d.Y + m[9]*d.Z,
		Z: m[2]*d.X + m[6]*d.Y + m[10]*d.Z,
	}
}

// IsFinite reports whether every element is neither NaN nor Inf.
func (m Mat4) IsFinite() bool {
	for _, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// IsIdentity reports whether m equals the identity exactly.
func (m Mat4) IsIdentity() bool {
	return m == Identity()
}
