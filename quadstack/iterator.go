package quadstack

import (
	"bufio"
	"fmt"
	"io"
	"unsafe"
)

// Iterator walks the nodes of a tree in level order.
type Iterator struct {
	children func(int32) ([4]int32, bool)
	queue    []int32
	current  int32
}

// Iterator returns a level order iterator starting at the root.
//
//	it := t.Iterator()
//	for it.Next() {
//		n := t.Node(it.Index())
//	}
func (t *Tree[M]) Iterator() *Iterator {
	return &Iterator{
		children: func(i int32) ([4]int32, bool) {
			n := &t.nodes[i]
			return n.Children, !n.IsLeaf()
		},
		queue:   []int32{0},
		current: leaf,
	}
}

// Next advances to the next node and reports whether there was one.
func (it *Iterator) Next() bool {
	if it.current != leaf {
		if children, ok := it.children(it.current); ok {
			it.queue = append(it.queue, children[:]...)
		}
	}
	if len(it.queue) == 0 {
		it.current = leaf
		return false
	}
	it.current = it.queue[0]
	it.queue = it.queue[1:]
	return true
}

// Index returns the arena index of the current node.
func (it *Iterator) Index() int32 { return it.current }

// TreeHeight is the number of levels of the tree.
func (t *Tree[M]) TreeHeight() int {
	height := 0
	it := t.Iterator()
	for it.Next() {
		height = max(height, t.nodes[it.Index()].Level+1)
	}
	return height
}

// MinLevel is the level of the shallowest leaf.
func (t *Tree[M]) MinLevel() int {
	it := t.Iterator()
	for it.Next() {
		if n := &t.nodes[it.Index()]; n.IsLeaf() {
			return n.Level
		}
	}
	return 0
}

// Leaves counts the reachable leaves.
func (t *Tree[M]) Leaves() int {
	n := 0
	it := t.Iterator()
	for it.Next() {
		if t.nodes[it.Index()].IsLeaf() {
			n++
		}
	}
	return n
}

// MemoryReport breaks down the bytes used by a tree.
type MemoryReport struct {
	// Attributes is the size of the node headers and generalized stacks.
	Attributes int `json:"attributes"`
	// Fields is the size of the pooled fields, compressed when encoded.
	Fields    int `json:"fields"`
	Nodes     int `json:"nodes"`
	Intervals int `json:"intervals"`
}

func (r MemoryReport) Total() int { return r.Attributes + r.Fields }

// MemorySize reports the footprint of the reachable nodes and of the field
// pool.
func (t *Tree[M]) MemorySize() MemoryReport {
	var r MemoryReport
	entry := int(unsafe.Sizeof(Interval[M]{}))

	it := t.Iterator()
	for it.Next() {
		n := &t.nodes[it.Index()]
		r.Nodes++
		r.Intervals += len(n.Stack)
		// stack size, interval start and first child
		r.Attributes += 3*4 + len(n.Stack)*entry
	}
	for _, f := range t.fields {
		r.Fields += f.MemorySize()
	}
	return r
}

// Print writes one block per node in depth first order with the node
// footprint, its entries and, for owned fields, their samples.
func (t *Tree[M]) Print(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "#Dimension\n%d %d\n#Tree\n", t.Cols, t.Rows)
	t.print(bw, 0)
	return bw.Flush()
}

func (t *Tree[M]) print(w *bufio.Writer, ni int32) {
	n := &t.nodes[ni]
	fmt.Fprintf(w, "level %d %s stack %d\n", n.Level, n.Box, len(n.Stack))
	for _, iv := range n.Stack {
		switch {
		case iv.Kind != Layer:
			fmt.Fprintf(w, "  %s\n", iv.Kind)
		case iv.Field.Shared:
			fmt.Fprintf(w, "  %d shared %d at (%d,%d)\n", iv.Material, iv.Field.Index, iv.Field.DX, iv.Field.DY)
		default:
			fmt.Fprintf(w, "  %d owns %d\n", iv.Material, iv.Field.Index)
			f := t.fields[iv.Field.Index]
			for row := 0; row < f.Rows; row++ {
				w.WriteString("   ")
				for col := 0; col < f.Cols; col++ {
					fmt.Fprintf(w, " %g", f.At(col, row))
				}
				w.WriteByte('\n')
			}
		}
	}
	if !n.IsLeaf() {
		for _, c := range n.Children {
			t.print(w, c)
		}
	}
}
