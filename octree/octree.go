// Package octree stores a voxel volume as a tree of uniform boxes. It is
// used to compare footprints against the layered representations.
package octree

import (
	"unsafe"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/voxelsplace/quadstack/stack"
)

const none int32 = -1

type node[M stack.Material] struct {
	lo, hi   [3]int32
	children [8]int32
	value    M
}

func (n *node[M]) isLeaf() bool {
	for _, c := range n.children {
		if c != none {
			return false
		}
	}
	return true
}

// Octree is an arena of nodes. Node 0 is the root and covers the whole
// volume.
type Octree[M stack.Material] struct {
	Dim     [3]int
	Spacing [3]float32
	Origin  [3]float32

	nodes []node[M]
}

// Build subdivides src until every box holds a single value.
func Build[M stack.Material](src stack.VoxelSource[M]) *Octree[M] {
	x, y, z := src.Dimension()
	t := &Octree[M]{
		Dim:     [3]int{x, y, z},
		Spacing: src.Spacing(),
		Origin:  src.Origin(),
	}
	t.build(src, [3]int32{}, [3]int32{int32(x), int32(y), int32(z)})
	return t
}

func (t *Octree[M]) build(src stack.VoxelSource[M], lo, hi [3]int32) int32 {
	idx := int32(len(t.nodes))
	t.nodes = append(t.nodes, node[M]{
		lo:       lo,
		hi:       hi,
		children: [8]int32{none, none, none, none, none, none, none, none},
	})
	if empty(lo, hi) {
		return idx
	}

	value, uniform := uniformValue(src, lo, hi)
	if uniform {
		t.nodes[idx].value = value
		return idx
	}

	var half [3]int32
	for a := range half {
		half[a] = (lo[a] + hi[a] + 1) / 2
	}
	for o := 0; o < 8; o++ {
		clo, chi := octant(lo, hi, half, o)
		if empty(clo, chi) {
			continue
		}
		c := t.build(src, clo, chi)
		t.nodes[idx].children[o] = c
	}
	return idx
}

// octant returns the bounds of child o. Bit 0 of o selects the upper x half,
// bit 1 the upper y half and bit 2 the upper z half.
func octant(lo, hi, half [3]int32, o int) (clo, chi [3]int32) {
	for a := 0; a < 3; a++ {
		if o&(1<<a) == 0 {
			clo[a], chi[a] = lo[a], half[a]
		} else {
			clo[a], chi[a] = half[a], hi[a]
		}
	}
	return clo, chi
}

func empty(lo, hi [3]int32) bool {
	return lo[0] >= hi[0] || lo[1] >= hi[1] || lo[2] >= hi[2]
}

func uniformValue[M stack.Material](src stack.VoxelSource[M], lo, hi [3]int32) (M, bool) {
	first := src.Get(int(lo[0]), int(lo[1]), int(lo[2]))
	for z := lo[2]; z < hi[2]; z++ {
		for x := lo[0]; x < hi[0]; x++ {
			for y := lo[1]; y < hi[1]; y++ {
				if src.Get(int(x), int(y), int(z)) != first {
					return first, false
				}
			}
		}
	}
	return first, true
}

// Value returns the voxel at (x, y, z).
func (t *Octree[M]) Value(x, y, z int) (M, error) {
	var zero M
	if x < 0 || y < 0 || z < 0 || x >= t.Dim[0] || y >= t.Dim[1] || z >= t.Dim[2] {
		return zero, errors.New("voxel out of range").
			WithType(stack.ErrTypeOutOfRange).
			WithTag("x", x).
			WithTag("y", y).
			WithTag("z", z)
	}

	p := [3]int32{int32(x), int32(y), int32(z)}
	n := &t.nodes[0]
	for !n.isLeaf() {
		o := 0
		for a := 0; a < 3; a++ {
			if p[a] >= (n.lo[a]+n.hi[a]+1)/2 {
				o |= 1 << a
			}
		}
		n = &t.nodes[n.children[o]]
	}
	return n.value, nil
}

// Decompress expands the tree back into a dense volume.
func (t *Octree[M]) Decompress() *stack.VoxelModel[M] {
	v := stack.NewVoxelModel[M](t.Dim[0], t.Dim[1], t.Dim[2], t.Spacing, t.Origin)
	for i := range t.nodes {
		n := &t.nodes[i]
		if !n.isLeaf() || empty(n.lo, n.hi) {
			continue
		}
		for z := n.lo[2]; z < n.hi[2]; z++ {
			for x := n.lo[0]; x < n.hi[0]; x++ {
				for y := n.lo[1]; y < n.hi[1]; y++ {
					v.Set(int(x), int(y), int(z), n.value)
				}
			}
		}
	}
	return v
}

// Leaves counts the uniform boxes.
func (t *Octree[M]) Leaves() int {
	leaves := 0
	for i := range t.nodes {
		if t.nodes[i].isLeaf() {
			leaves++
		}
	}
	return leaves
}

func (t *Octree[M]) Nodes() int { return len(t.nodes) }

// MemorySize is the number of bytes held by the node arena.
func (t *Octree[M]) MemorySize() int {
	var n node[M]
	return len(t.nodes) * int(unsafe.Sizeof(n))
}
