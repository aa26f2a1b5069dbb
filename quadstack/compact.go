package quadstack

import (
	"github.com/voxelsplace/quadstack/heightfield"
	"github.com/voxelsplace/quadstack/stack"
)

// shared is one entry of an alignment: either a wildcard or a material
// matched at index[q] of every active quadrant.
type shared[M stack.Material] struct {
	wildcard bool
	material M
	index    [4]int32
}

// aligner finds the longest order preserving agreement between the stacks of
// the active quadrants. Only Layer entries can agree.
type aligner[M stack.Material] struct {
	seqs   [4][]Interval[M]
	active [4]bool
	memo   map[[8]int32][]shared[M]
}

func newAligner[M stack.Material](seqs [4][]Interval[M], active [4]bool) *aligner[M] {
	return &aligner[M]{
		seqs:   seqs,
		active: active,
		memo:   make(map[[8]int32][]shared[M]),
	}
}

func (a *aligner[M]) align() []shared[M] {
	var start, end [4]int32
	for q := range a.seqs {
		end[q] = int32(len(a.seqs[q]))
	}
	return a.compact(start, end)
}

// compact aligns the ranges [start[q], end[q]). Agreeing prefixes and
// suffixes are hoisted; otherwise every quadruple of agreeing positions is
// tried and the branch with the most shared entries is kept behind a leading
// wildcard.
func (a *aligner[M]) compact(start, end [4]int32) []shared[M] {
	var key [8]int32
	copy(key[:4], start[:])
	copy(key[4:], end[:])
	if r, ok := a.memo[key]; ok {
		return r
	}

	r := a.solve(start, end)
	a.memo[key] = r
	return r
}

func (a *aligner[M]) solve(start, end [4]int32) []shared[M] {
	empty, total := 0, 0
	for q := range a.seqs {
		if !a.active[q] {
			continue
		}
		total++
		if start[q] >= end[q] {
			empty++
		}
	}
	switch {
	case empty == total:
		return nil
	case empty > 0:
		return []shared[M]{{wildcard: true}}
	}

	if m, ok := a.agree(start); ok {
		next := start
		for q := range next {
			next[q]++
		}
		rest := a.compact(next, end)
		out := make([]shared[M], 0, len(rest)+1)
		out = append(out, shared[M]{material: m, index: start})
		return append(out, rest...)
	}

	var last [4]int32
	for q := range last {
		last[q] = end[q] - 1
	}
	if m, ok := a.agree(last); ok {
		rest := a.compact(start, last)
		out := make([]shared[M], 0, len(rest)+1)
		out = append(out, rest...)
		return append(out, shared[M]{material: m, index: last})
	}

	var best []shared[M]
	bestScore := 0
	var pos [4]int32
	var search func(q int)
	search = func(q int) {
		if q == 4 {
			if _, ok := a.agree(pos); !ok {
				return
			}
			remaining := int32(-1)
			for i := range pos {
				if a.active[i] && (remaining < 0 || end[i]-pos[i] < remaining) {
					remaining = end[i] - pos[i]
				}
			}
			if int(remaining) <= bestScore {
				return
			}
			branch := a.compact(pos, end)
			if score := countShared(branch); score > bestScore {
				best, bestScore = branch, score
			}
			return
		}
		if !a.active[q] {
			pos[q] = start[q]
			search(q + 1)
			return
		}
		for c := start[q]; c < end[q]; c++ {
			if a.seqs[q][c].Kind != Layer {
				continue
			}
			pos[q] = c
			search(q + 1)
		}
	}
	search(0)

	out := make([]shared[M], 0, len(best)+1)
	out = append(out, shared[M]{wildcard: true})
	return append(out, best...)
}

// agree reports the material shared by the Layer entries at pos of every
// active quadrant.
func (a *aligner[M]) agree(pos [4]int32) (M, bool) {
	var m M
	found := false
	for q := range a.seqs {
		if !a.active[q] {
			continue
		}
		iv := a.seqs[q][pos[q]]
		if iv.Kind != Layer {
			return m, false
		}
		if !found {
			m, found = iv.Material, true
			continue
		}
		if iv.Material != m {
			return m, false
		}
	}
	return m, found
}

func countShared[M stack.Material](s []shared[M]) int {
	n := 0
	for _, e := range s {
		if !e.wildcard {
			n++
		}
	}
	return n
}

// Promote merges sibling stacks bottom-up. Entries shared by every non empty
// child move to the parent with a merged field; the children keep only their
// residual. Nodes are promoted once, so running Promote again is a no-op.
func (t *Tree[M]) Promote() {
	t.promote(0)
}

func (t *Tree[M]) promote(ni int32) {
	n := &t.nodes[ni]
	if n.IsLeaf() || n.promoted {
		return
	}
	children := n.Children
	for _, c := range children {
		t.promote(c)
	}

	var seqs [4][]Interval[M]
	var active [4]bool
	for q, c := range children {
		seqs[q] = t.nodes[c].Stack
		active[q] = !t.nodes[c].Box.Empty()
	}
	merged := newAligner(seqs, active).align()

	entries := make([]Interval[M], 0, len(merged))
	hoisted := 0
	for _, e := range merged {
		if e.wildcard {
			entries = append(entries, Interval[M]{Kind: Wildcard, Field: FieldRef{Index: -1}})
			continue
		}
		entries = append(entries, Interval[M]{
			Material: e.material,
			Kind:     Layer,
			Field:    FieldRef{Index: t.merge(ni, e, active)},
		})
		hoisted++
	}
	for q, c := range children {
		if active[q] {
			t.shrink(c, q, merged)
		}
	}

	n = &t.nodes[ni]
	n.Stack = entries
	n.promoted = true
	instrumentPromotion(hoisted)
}

// shrink removes from child c the entries absorbed by the parent.
func (t *Tree[M]) shrink(c int32, q int, merged []shared[M]) {
	absorbed := make(map[int32]bool)
	for _, e := range merged {
		if !e.wildcard {
			absorbed[e.index[q]] = true
		}
	}
	if len(absorbed) == 0 {
		return
	}

	n := &t.nodes[c]
	residual := make([]Interval[M], 0, len(n.Stack)-len(absorbed))
	for i, iv := range n.Stack {
		if !absorbed[int32(i)] {
			residual = append(residual, iv)
		}
	}
	if len(residual) == 0 {
		residual = append(residual, Interval[M]{Kind: Unknown, Field: FieldRef{Index: -1}})
	}
	n.Stack = residual
}

// merge builds the parent footprint field of a shared entry by pasting the
// matched child fields at their offsets.
func (t *Tree[M]) merge(ni int32, e shared[M], active [4]bool) int32 {
	n := &t.nodes[ni]
	b := n.Box
	origin := [2]float32{
		t.Origin[0] + float32(b.MinX)*t.Spacing[0],
		t.Origin[1] + float32(b.MinY)*t.Spacing[1],
	}
	f := heightfield.New(b.Cols(), b.Rows(), origin, t.Spacing)
	for q, c := range n.Children {
		if !active[q] {
			continue
		}
		child := &t.nodes[c]
		iv := child.Stack[e.index[q]]
		f.Paste(t.view(iv, child.Box), child.Box.MinX-b.MinX, child.Box.MinY-b.MinY)
	}
	return t.addField(f)
}
