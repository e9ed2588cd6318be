package core

import "math"

// LookAt builds the view transform for a camera at eye looking at center.
// up need not be unit length nor orthogonal to the view direction.
//
// The rotation rows are {right, correctedUp, -forward}, composed with a
// translation by -eye, so eye space looks down -Z. If eye == center, up is
// zero, or up is parallel to the view direction, the identity is returned.
func LookAt(eye, center, up Vec3) Mat4 {
	f, ok := center.Sub(eye).Normalize()
	if !ok {
		return Identity()
	}
	u, ok := up.Normalize()
	if !ok {
		return Identity()
	}
	s, ok := f.Cross(u).Normalize()
	if !ok {
		return Identity()
	}
	u = s.Cross(f)

	rot := Mat4{
		s.X, u.X, -f.X, 0,
		s.Y, u.Y, -f.Y, 0,
		s.Z, u.Z, -f.Z, 0,
		0, 0, 0, 1,
	}
	view := rot.Mul(Translation(eye.Scale(-1)))
	if !view.IsFinite() {
		return Identity()
	}
	return view
}

// Frustum is a symmetric perspective frustum: [-FW,FW] × [-FH,FH] on the
// near plane, clipped to [Near, Far].
type Frustum struct {
	FW, FH    float64
	Near, Far float64
}

// FrustumFor derives the frustum for a vertical field of view in degrees.
// ok is false for inputs that cannot form a frustum.
func FrustumFor(fovYDeg, aspect, near, far float64) (Frustum, bool) {
	if !(fovYDeg > 0 && fovYDeg < 180) || !(aspect > 0) || !(near > 0) || !(far > near) {
		return Frustum{}, false
	}
	if math.IsInf(aspect, 0) || math.IsInf(far, 0) {
		return Frustum{}, false
	}
	fovY := fovYDeg * math.Pi / 180.0
	fH := math.Tan(fovY/2) * near
	return Frustum{FW: fH * aspect, FH: fH, Near: near, Far: far}, true
}

// Matrix returns the fixed-function glFrustum projection for f.
func (f Frustum) Matrix() Mat4 {
	l, r := -f.FW, f.FW
	b, t := -f.FH, f.FH
	n, fa := f.Near, f.Far

	var m Mat4
	m[0] = 2 * n / (r - l)
	m[5] = 2 * n / (t - b)
	m[8] = (r + l) / (r - l)
	m[9] = (t + b) / (t - b)
	m[10] = -(fa + n) / (fa - n)
	m[11] = -1
	m[14] = -2 * fa * n / (fa - n)
	return m
}

// Perspective returns the projection transform, or the identity when the
// inputs are degenerate.
func Perspective(fovYDeg, aspect, near, far float64) Mat4 {
	f, ok := FrustumFor(fovYDeg, aspect, near, far)
	if !ok {
		return Identity()
	}
	return f.Matrix()
}

// Camera is the fixed overhead vantage point.
type Camera struct {
	Eye, Center, Up Vec3

	FovYDeg   float64
	Near, Far float64
}

// DefaultCamera looks straight down on the orbital plane from 60 units up,
// nudged slightly along +Z so up=(0,0,-1) is never parallel to the view.
func DefaultCamera() Camera {
	return Camera{
		Eye:     Vec3{X: 0, Y: 60, Z: 0.01},
		Center:  Vec3{},
		Up:      Vec3{X: 0, Y: 0, Z: -1},
		FovYDeg: 45,
		Near:    0.1,
		Far:     500,
	}
}

// View returns the camera's view transform.
func (c Camera) View() Mat4 {
	return LookAt(c.Eye, c.Center, c.Up)
}

// Aspect returns width/height with a zero height clamped to one pixel.
func Aspect(width, height int) float64 {
	if height <= 0 {
		height = 1
	}
	if width <= 0 {
		width = 1
	}
	return float64(width) / float64(height)
}

// Frustum returns the frustum for a viewport of the given pixel size.
func (c Camera) Frustum(width, height int) (Frustum, bool) {
	return FrustumFor(c.FovYDeg, Aspect(width, height), c.Near, c.Far)
}

// Projection returns the projection transform for a viewport of the given
// pixel size.
func (c Camera) Projection(width, height int) Mat4 {
	return Perspective(c.FovYDeg, Aspect(width, height), c.Near, c.Far)
}
