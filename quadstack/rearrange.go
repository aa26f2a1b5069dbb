package quadstack

import (
	"github.com/voxelsplace/quadstack/heightfield"
)

// RearrangeHeightFields renumbers the field pool in level order and drops
// fields nothing references. A field equal to one already kept is shared with
// it. Afterwards every pooled field has exactly one owning entry.
func (t *Tree[M]) RearrangeHeightFields() {
	byHash := make(map[uint64][]int32)
	pool := make([]*heightfield.HeightField, 0, len(t.fields))

	it := t.Iterator()
	for it.Next() {
		ni := it.Index()
		n := &t.nodes[ni]

		for i, iv := range n.Stack {
			if !iv.hasField() {
				continue
			}
			f := t.view(iv, n.Box)
			h := f.Fingerprint()

			if ref, ok := findContent(pool, byHash[h], f); ok {
				n.Stack[i].Field = ref
				instrumentSharedField()
				continue
			}

			idx := int32(len(pool))
			pool = append(pool, f)
			byHash[h] = append(byHash[h], idx)
			n.Stack[i].Field = FieldRef{Index: idx}
		}
	}

	t.fields = pool
	t.resolved = false
}

func findContent(pool []*heightfield.HeightField, candidates []int32, f *heightfield.HeightField) (FieldRef, bool) {
	for _, idx := range candidates {
		if pool[idx].Equal(f) {
			return FieldRef{Index: idx, Shared: true}, true
		}
	}
	return FieldRef{}, false
}

// HeightResolution returns the smallest nonzero resolution over the pooled
// fields, or 0 when every field is flat. The value is memoized.
func (t *Tree[M]) HeightResolution() float32 {
	if t.resolved {
		return t.resolution
	}
	var res float32
	for _, f := range t.fields {
		if r := f.Resolution(); r > 0 && (res == 0 || r < res) {
			res = r
		}
	}
	t.resolution = res
	t.resolved = true
	return res
}

// CompressHeightFields encodes every pooled field in level order with
// resolution as quantization step.
func (t *Tree[M]) CompressHeightFields(resolution float32) {
	for _, f := range t.fields {
		if f.IsCompressed() {
			continue
		}
		c := f.Compress(resolution, t.opts.Codec)
		instrumentCompression(c)
	}
}
