package render

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/signalsfoundry/orrery/core"
	"github.com/signalsfoundry/orrery/model"
)

// DefaultShade is how far an unlit face is darkened toward black.
const DefaultShade = 0.35

// Rasterizer draws meshes into a Framebuffer with a less-or-equal depth test.
type Rasterizer struct {
	fb *Framebuffer

	// Light is the world-space direction toward the light.
	Light core.Vec3
	// Shade in [0,1]; zero disables lighting entirely.
	Shade float64
}

// NewRasterizer returns a rasterizer lit from straight above the orbital
// plane, toward the overhead camera.
func NewRasterizer(fb *Framebuffer) *Rasterizer {
	return &Rasterizer{fb: fb, Light: core.Vec3{Y: 1}, Shade: DefaultShade}
}

// Framebuffer returns the draw target.
func (r *Rasterizer) Framebuffer() *Framebuffer { return r.fb }

type screenVertex struct {
	x, y, z float64
}

// project maps p through mvp into window coordinates. ok is false when the
// vertex lies at or behind the eye plane (w <= 0).
func (r *Rasterizer) project(mvp core.Mat4, p core.Vec3) (screenVertex, bool) {
	x, y, z, w := mvp.TransformPoint(p)
	if !(w > 0) || math.IsInf(w, 0) {
		return screenVertex{}, false
	}
	nx, ny, nz := x/w, y/w, z/w
	return screenVertex{
		x: (nx + 1) * 0.5 * float64(r.fb.Width()),
		y: (1 - ny) * 0.5 * float64(r.fb.Height()),
		z: (nz + 1) * 0.5,
	}, true
}

// DrawTriangles rasterizes a triangle mesh. world is the model-to-world
// transform used for lighting; mvp maps model space to clip space. Emissive
// surfaces ignore lighting. It returns the number of triangles that reached
// the rasterization stage.
func (r *Rasterizer) DrawTriangles(m *Mesh, mvp, world core.Mat4, c model.RGB, emissive bool) int {
	if m == nil || m.Primitive != Triangles || r.fb.Width() == 0 || r.fb.Height() == 0 {
		return 0
	}

	proj := make([]screenVertex, len(m.Vertices))
	visible := make([]bool, len(m.Vertices))
	for i, v := range m.Vertices {
		proj[i], visible[i] = r.project(mvp, v)
	}

	base := colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped()
	light, lightOK := r.Light.Normalize()
	flat := toRGBA(base)

	drawn := 0
	for t := 0; t+2 < len(m.Indices); t += 3 {
		i0, i1, i2 := m.Indices[t], m.Indices[t+1], m.Indices[t+2]
		if !visible[i0] || !visible[i1] || !visible[i2] {
			continue
		}
		col := flat
		if !emissive && lightOK && r.Shade > 0 && m.Normals != nil {
			col = r.shadeFace(base, world, light, m.Normals[i0], m.Normals[i1], m.Normals[i2])
		}
		if r.fillTriangle(proj[i0], proj[i1], proj[i2], col) {
			drawn++
		}
	}
	return drawn
}

func (r *Rasterizer) shadeFace(base colorful.Color, world core.Mat4, light core.Vec3, n0, n1, n2 core.Vec3) color.RGBA {
	n, ok := world.TransformDir(n0.Add(n1).Add(n2)).Normalize()
	if !ok {
		return toRGBA(base)
	}
	lambert := math.Max(0, n.Dot(light))
	return toRGBA(base.BlendLab(colorful.Color{}, (1-lambert)*r.Shade))
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// fillTriangle scan-converts one triangle, sampling at pixel centers with
// depth interpolated linearly in window space. It reports whether the
// triangle had non-zero area.
func (r *Rasterizer) fillTriangle(a, b, c screenVertex, col color.RGBA) bool {
	area := edge(a, b, c.x, c.y)
	if area == 0 || math.IsNaN(area) {
		return false
	}

	minX, maxX := pixelSpan(math.Min(a.x, math.Min(b.x, c.x)), math.Max(a.x, math.Max(b.x, c.x)), r.fb.Width())
	minY, maxY := pixelSpan(math.Min(a.y, math.Min(b.y, c.y)), math.Max(a.y, math.Max(b.y, c.y)), r.fb.Height())

	inv := 1 / area
	for py := minY; py <= maxY; py++ {
		sy := float64(py) + 0.5
		for px := minX; px <= maxX; px++ {
			sx := float64(px) + 0.5
			w0 := edge(b, c, sx, sy) * inv
			w1 := edge(c, a, sx, sy) * inv
			w2 := edge(a, b, sx, sy) * inv
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := w0*a.z + w1*b.z + w2*c.z
			r.fb.plot(px, py, z, col)
		}
	}
	return true
}

// edge is twice the signed area of (a, b, p).
func edge(a, b screenVertex, px, py float64) float64 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

// DrawLineLoop draws a closed polyline through the mesh vertices. Segments
// with an endpoint at or behind the eye plane are skipped. It returns the
// number of segments drawn.
func (r *Rasterizer) DrawLineLoop(m *Mesh, mvp core.Mat4, c model.RGB) int {
	if m == nil || m.Primitive != LineLoop || len(m.Vertices) < 2 || r.fb.Width() == 0 || r.fb.Height() == 0 {
		return 0
	}
	n := len(m.Vertices)
	col := ToRGBA(c)

	proj := make([]screenVertex, n)
	visible := make([]bool, n)
	for i, v := range m.Vertices {
		proj[i], visible[i] = r.project(mvp, v)
	}

	drawn := 0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		if !visible[i] || !visible[j] {
			continue
		}
		if r.drawSegment(proj[i], proj[j], col) {
			drawn++
		}
	}
	return drawn
}

func (r *Rasterizer) drawSegment(a, b screenVertex, col color.RGBA) bool {
	t0, t1, ok := clipSegment(a, b, float64(r.fb.Width()), float64(r.fb.Height()))
	if !ok {
		return false
	}
	dx, dy, dz := b.x-a.x, b.y-a.y, b.z-a.z
	p := screenVertex{a.x + t0*dx, a.y + t0*dy, a.z + t0*dz}
	q := screenVertex{a.x + t1*dx, a.y + t1*dy, a.z + t1*dz}

	steps := int(math.Ceil(math.Max(math.Abs(q.x-p.x), math.Abs(q.y-p.y))))
	if steps == 0 {
		r.fb.plot(int(p.x), int(p.y), p.z, col)
		return true
	}
	for s := 0; s <= steps; s++ {
		t := float64(s) / float64(steps)
		x := p.x + t*(q.x-p.x)
		y := p.y + t*(q.y-p.y)
		z := p.z + t*(q.z-p.z)
		r.fb.plot(int(math.Floor(x)), int(math.Floor(y)), z, col)
	}
	return true
}

// clipSegment clips a→b to [0,w)×[0,h) (Liang-Barsky) and returns the
// parametric range that survives.
func clipSegment(a, b screenVertex, w, h float64) (float64, float64, bool) {
	t0, t1 := 0.0, 1.0
	dx, dy := b.x-a.x, b.y-a.y
	// Keep the far edges strictly inside so floor() stays in range.
	maxX, maxY := math.Nextafter(w, 0), math.Nextafter(h, 0)
	for _, e := range [4][2]float64{
		{-dx, a.x},
		{dx, maxX - a.x},
		{-dy, a.y},
		{dy, maxY - a.y},
	} {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return 0, 0, false
			}
			if t > t0 {
				t0 = t
			}
		} else {
			if t < t0 {
				return 0, 0, false
			}
			if t < t1 {
				t1 = t
			}
		}
	}
	return t0, t1, true
}

// pixelSpan converts a window-space interval to inclusive pixel indices
// within [0,n).
func pixelSpan(lo, hi float64, n int) (int, int) {
	lo = math.Max(0, math.Floor(lo))
	hi = math.Min(float64(n-1), math.Ceil(hi))
	if !(lo <= hi) {
		return 0, -1
	}
	return int(lo), int(hi)
}
