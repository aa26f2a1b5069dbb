package quadstack

import (
	"sort"

	"github.com/voxelsplace/quadstack/stack"
)

// Sample returns the material at height h of cell (x, y). Every Layer entry
// on the path from the root is resolved at the cell and the one with the
// smallest boundary at or above h wins. The descent stops at the first node
// without a wildcard. When nothing resolves, the attached terrain answers if
// there is one; otherwise ok is false.
func (t *Tree[M]) Sample(x, y int, h float32) (m M, ok bool) {
	if x < 0 || y < 0 || x >= t.Cols || y >= t.Rows {
		return m, false
	}

	var best float32
	t.walk(x, y, func(iv Interval[M], boundary float32) {
		if boundary >= h && (!ok || boundary < best) {
			m, best, ok = iv.Material, boundary, true
		}
	})
	if ok {
		return m, true
	}

	if t.terrain != nil {
		if s := t.terrain.At(x, y); len(s) > 0 {
			if a := s.Attribute(h); a != M(stack.Unknown) {
				return a, true
			}
		}
	}
	return m, false
}

// Column rebuilds the full stack of cell (x, y) from the tree.
func (t *Tree[M]) Column(x, y int) (stack.Stack[M], error) {
	if x < 0 || y < 0 || x >= t.Cols || y >= t.Rows {
		return nil, outOfRange(x, y, t.Cols, t.Rows)
	}

	var entries stack.Stack[M]
	t.walk(x, y, func(iv Interval[M], boundary float32) {
		entries = append(entries, stack.Interval[M]{Height: boundary, Material: iv.Material})
	})
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Height < entries[j].Height })

	s := make(stack.Stack[M], 0, len(entries))
	for _, e := range entries {
		s.Add(e.Material, e.Height)
	}
	return s, nil
}

// walk calls fn for every Layer entry on the path to cell (x, y) with its
// boundary height at the cell.
func (t *Tree[M]) walk(x, y int, fn func(iv Interval[M], boundary float32)) {
	ni := int32(0)
	for {
		n := &t.nodes[ni]
		for _, iv := range n.Stack {
			if iv.hasField() {
				fn(iv, t.fieldAt(iv, n.Box, x, y))
			}
		}
		if n.IsLeaf() || !n.hasWildcard() {
			return
		}

		next := leaf
		for _, c := range n.Children {
			if t.nodes[c].Box.Contains(x, y) {
				next = c
				break
			}
		}
		if next == leaf {
			return
		}
		ni = next
	}
}
