// Package mesh turns a quadstack into a renderable surface: one horizontal
// quad per layer boundary, merged greedily along grid rows.
package mesh

import (
	"github.com/voxelsplace/quadstack/quadstack"
	"github.com/voxelsplace/quadstack/stack"
)

type Vertex struct {
	Position [3]float32
	Color    string
}

type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

// Quads is the number of quads in the mesh.
func (m *Mesh) Quads() int { return len(m.Indices) / 6 }

type surface[M stack.Material] struct {
	height   float32
	material M
}

type run[M stack.Material] struct {
	surface[M]
	start int
}

// Generate meshes the top of every layer boundary of t. Glb output is Y up,
// so terrain heights go to Y and grid rows to Z.
func Generate[M stack.Material](t *quadstack.Tree[M]) (*Mesh, error) {
	m := &Mesh{}
	for y := 0; y < t.Rows; y++ {
		var open []run[M]
		for x := 0; x <= t.Cols; x++ {
			var cur stack.Stack[M]
			if x < t.Cols {
				var err error
				if cur, err = t.Column(x, y); err != nil {
					return nil, err
				}
			}

			next := make([]run[M], 0, len(cur))
			for _, r := range open {
				if contains(cur, r.surface) {
					next = append(next, r)
				} else {
					addQuad(m, t.Origin, t.Spacing, r, x, y)
				}
			}
			for _, iv := range cur {
				s := surface[M]{height: iv.Height, material: iv.Material}
				if !started(next, s) {
					next = append(next, run[M]{surface: s, start: x})
				}
			}
			open = next
		}
	}
	return m, nil
}

func contains[M stack.Material](s stack.Stack[M], sf surface[M]) bool {
	for _, iv := range s {
		if iv.Height == sf.height && iv.Material == sf.material {
			return true
		}
	}
	return false
}

func started[M stack.Material](runs []run[M], s surface[M]) bool {
	for _, r := range runs {
		if r.surface == s {
			return true
		}
	}
	return false
}

// addQuad emits the run covering columns [r.start, end) of row y.
func addQuad[M stack.Material](m *Mesh, origin, spacing [2]float32, r run[M], end, y int) {
	x0 := origin[0] + float32(r.start)*spacing[0]
	x1 := origin[0] + float32(end)*spacing[0]
	z0 := origin[1] + float32(y)*spacing[1]
	z1 := z0 + spacing[1]
	h := r.height
	color := Color(r.material)

	base := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices,
		Vertex{Position: [3]float32{x0, h, z0}, Color: color},
		Vertex{Position: [3]float32{x0, h, z1}, Color: color},
		Vertex{Position: [3]float32{x1, h, z1}, Color: color},
		Vertex{Position: [3]float32{x1, h, z0}, Color: color},
	)
	m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
}
