package render

import (
	"math"
	"sync"

	"github.com/signalsfoundry/orrery/core"
)

// Primitive selects how a mesh's indices are assembled.
type Primitive int

const (
	Triangles Primitive = iota
	LineLoop
)

// Mesh is an immutable, pre-built vertex buffer. Meshes are shared between
// draws and goroutines and must never be modified.
type Mesh struct {
	Primitive Primitive
	Vertices  []core.Vec3
	// Normals is parallel to Vertices; nil for line meshes.
	Normals []core.Vec3
	// Indices holds vertex triples for Triangles and is nil for LineLoop,
	// which connects Vertices in order and closes back to the first.
	Indices []int
}

// TriangleCount returns the number of triangles the mesh assembles.
func (m *Mesh) TriangleCount() int {
	if m.Primitive != Triangles {
		return 0
	}
	return len(m.Indices) / 3
}

type meshKey struct {
	prim Primitive
	a, b int
}

var (
	meshMu    sync.Mutex
	meshCache = map[meshKey]*Mesh{}
)

func cachedMesh(key meshKey, build func() *Mesh) *Mesh {
	meshMu.Lock()
	defer meshMu.Unlock()
	if m, ok := meshCache[key]; ok {
		return m
	}
	m := build()
	meshCache[key] = m
	return m
}

// UnitSphere returns a radius-1 sphere centered at the origin, tessellated
// into slices around the Y axis and stacks from pole to pole. Results are
// cached per tessellation.
func UnitSphere(slices, stacks int) *Mesh {
	if slices < 3 {
		slices = 3
	}
	if stacks < 2 {
		stacks = 2
	}
	return cachedMesh(meshKey{Triangles, slices, stacks}, func() *Mesh {
		return buildSphere(slices, stacks)
	})
}

func buildSphere(slices, stacks int) *Mesh {
	cols := slices + 1
	verts := make([]core.Vec3, 0, (stacks+1)*cols)
	for i := 0; i <= stacks; i++ {
		phi := math.Pi * float64(i) / float64(stacks)
		sinPhi, cosPhi := math.Sincos(phi)
		for j := 0; j <= slices; j++ {
			theta := 2 * math.Pi * float64(j) / float64(slices)
			sinT, cosT := math.Sincos(theta)
			verts = append(verts, core.Vec3{X: sinPhi * cosT, Y: cosPhi, Z: sinPhi * sinT})
		}
	}

	idx := make([]int, 0, stacks*slices*6)
	for i := 0; i < stacks; i++ {
		for j := 0; j < slices; j++ {
			a := i*cols + j
			b := a + cols
			// The pole rows collapse one triangle of each quad to zero area.
			if i != 0 {
				idx = append(idx, a, b, a+1)
			}
			if i != stacks-1 {
				idx = append(idx, a+1, b, b+1)
			}
		}
	}

	// On a unit sphere the normal is the position.
	normals := make([]core.Vec3, len(verts))
	copy(normals, verts)

	return &Mesh{Primitive: Triangles, Vertices: verts, Normals: normals, Indices: idx}
}

// UnitCircle returns a radius-1 line loop in the XZ plane starting at +X and
// advancing toward +Z, matching the orbit parameterization.
func UnitCircle(segments int) *Mesh {
	if segments < 3 {
		segments = 3
	}
	return cachedMesh(meshKey{LineLoop, segments, 0}, func() *Mesh {
		verts := make([]core.Vec3, segments)
		for i := range verts {
			theta := 2 * math.Pi * float64(i) / float64(segments)
			sinT, cosT := math.Sincos(theta)
			verts[i] = core.Vec3{X: cosT, Z: sinT}
		}
		return &Mesh{Primitive: LineLoop, Vertices: verts}
	})
}
