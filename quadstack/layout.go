package quadstack

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/voxelsplace/quadstack/heightfield"
	"github.com/voxelsplace/quadstack/morton"
	"github.com/voxelsplace/quadstack/stack"
)

// LayoutNode is a node in the flat, level ordered export. The four children
// of a node are stored consecutively from FirstChild; 0 marks a leaf.
type LayoutNode struct {
	StackSize     uint32 `json:"stack_size"`
	IntervalStart uint32 `json:"interval_start"`
	FirstChild    uint32 `json:"first_child"`
}

// LayoutInterval is a generalized stack entry. FieldSlice is -1 for entries
// without a field.
type LayoutInterval[M stack.Material] struct {
	Material   M     `json:"material"`
	Kind       Kind  `json:"kind"`
	FieldSlice int32 `json:"field_slice"`
	OwnerLevel int32 `json:"owner_level"`
	DX         int32 `json:"dx"`
	DY         int32 `json:"dy"`
}

// LayoutField is one encoded field with its optional mipmap pyramids.
type LayoutField struct {
	Cols      int32                     `json:"cols"`
	Rows      int32                     `json:"rows"`
	Origin    [2]float32                `json:"origin"`
	Min       float32                   `json:"min"`
	Max       float32                   `json:"max"`
	Offset    float32                   `json:"offset"`
	BlockCols int32                     `json:"block_cols"`
	BlockRows int32                     `json:"block_rows"`
	Policy    heightfield.Policy        `json:"policy"`
	Blocks    []heightfield.BlockHeader `json:"blocks"`
	Words     []uint32                  `json:"words"`
	MinMipmap []heightfield.Level       `json:"min_mipmap,omitempty"`
	MaxMipmap []heightfield.Level       `json:"max_mipmap,omitempty"`
}

// Layout is the flat form of a compressed tree, laid out for upload into
// buffers and for persistence.
type Layout[M stack.Material] struct {
	Cols       int32      `json:"cols"`
	Rows       int32      `json:"rows"`
	Origin     [2]float32 `json:"origin"`
	Spacing    [2]float32 `json:"spacing"`
	MinHeight  float32    `json:"min_height"`
	MaxHeight  float32    `json:"max_height"`
	Resolution float32    `json:"resolution"`

	Nodes     []LayoutNode        `json:"nodes"`
	Intervals []LayoutInterval[M] `json:"intervals"`
	Fields    []LayoutField       `json:"fields"`
}

// Export flattens the tree in level order. Fields that are not compressed yet
// are encoded with the tree resolution and codec options.
func (t *Tree[M]) Export(withMipmaps bool) *Layout[M] {
	l := &Layout[M]{
		Cols:       int32(t.Cols),
		Rows:       int32(t.Rows),
		Origin:     t.Origin,
		Spacing:    t.Spacing,
		MinHeight:  t.MinHeight,
		MaxHeight:  t.MaxHeight,
		Resolution: t.HeightResolution(),
	}

	var order []int32
	pos := make(map[int32]uint32, len(t.nodes))
	it := t.Iterator()
	for it.Next() {
		pos[it.Index()] = uint32(len(order))
		order = append(order, it.Index())
	}

	ownerLevel := make([]int32, len(t.fields))
	for i := range ownerLevel {
		ownerLevel[i] = -1
	}
	for _, ni := range order {
		n := &t.nodes[ni]
		for _, iv := range n.Stack {
			if iv.hasField() && !iv.Field.Shared && ownerLevel[iv.Field.Index] < 0 {
				ownerLevel[iv.Field.Index] = int32(n.Level)
			}
		}
	}

	l.Nodes = make([]LayoutNode, len(order))
	for i, ni := range order {
		n := &t.nodes[ni]
		ln := LayoutNode{
			StackSize:     uint32(len(n.Stack)),
			IntervalStart: uint32(len(l.Intervals)),
		}
		if !n.IsLeaf() {
			ln.FirstChild = pos[n.Children[0]]
		}
		l.Nodes[i] = ln

		for _, iv := range n.Stack {
			li := LayoutInterval[M]{
				Material:   iv.Material,
				Kind:       iv.Kind,
				FieldSlice: -1,
				OwnerLevel: -1,
			}
			if iv.hasField() {
				li.FieldSlice = iv.Field.Index
				li.OwnerLevel = ownerLevel[iv.Field.Index]
				li.DX, li.DY = iv.Field.DX, iv.Field.DY
			}
			l.Intervals = append(l.Intervals, li)
		}
	}

	l.Fields = make([]LayoutField, len(t.fields))
	for i, f := range t.fields {
		c := f.Compressor()
		if c == nil {
			c = heightfield.NewCompressor(f, l.Resolution, t.opts.Codec)
		}
		bc, br := c.BlockSize()
		lf := LayoutField{
			Cols:      int32(f.Cols),
			Rows:      int32(f.Rows),
			Origin:    f.Origin,
			Min:       f.Min,
			Max:       f.Max,
			Offset:    c.Offset(),
			BlockCols: int32(bc),
			BlockRows: int32(br),
			Policy:    c.Policy(),
			Blocks:    c.Blocks(),
			Words:     c.Words(),
		}
		if withMipmaps {
			lf.MinMipmap = heightfield.NewMipmap(f, heightfield.Min).Levels
			lf.MaxMipmap = heightfield.NewMipmap(f, heightfield.Max).Levels
		}
		l.Fields[i] = lf
	}
	return l
}

// FromLayout rebuilds a sampleable tree. The result has no terrain attached
// and is already promoted and compressed.
func FromLayout[M stack.Material](l *Layout[M], opts Options) (*Tree[M], error) {
	if l.Cols <= 0 || l.Rows <= 0 || len(l.Nodes) == 0 {
		return nil, errors.New("layout has no nodes").
			WithType(ErrTypeLayout).
			WithTag("cols", l.Cols).
			WithTag("rows", l.Rows)
	}

	t := &Tree[M]{
		Cols:       int(l.Cols),
		Rows:       int(l.Rows),
		Origin:     l.Origin,
		Spacing:    l.Spacing,
		MinHeight:  l.MinHeight,
		MaxHeight:  l.MaxHeight,
		opts:       opts,
		maxLevels:  morton.CeilLog2(max(int(l.Cols), int(l.Rows))) + 1,
		resolution: l.Resolution,
		resolved:   true,
	}

	t.fields = make([]*heightfield.HeightField, len(l.Fields))
	for i, lf := range l.Fields {
		f, err := restoreField(lf, l.Spacing)
		if err != nil {
			return nil, errors.New("invalid layout field").
				WithType(ErrTypeLayout).
				WithTag("field", i).
				Wrap(err)
		}
		t.fields[i] = f
	}

	t.nodes = make([]Node[M], len(l.Nodes))
	t.nodes[0] = newNode[M](Box{0, 0, t.Cols, t.Rows}, 0)
	placed := make([]bool, len(l.Nodes))
	placed[0] = true
	owned := make([]bool, len(t.fields))
	for i, ln := range l.Nodes {
		if !placed[i] {
			return nil, errors.New("layout node is not reachable").
				WithType(ErrTypeLayout).
				WithTag("node", i)
		}
		n := &t.nodes[i]
		n.promoted = true

		if ln.FirstChild != 0 {
			first := int(ln.FirstChild)
			if first <= i || first+3 >= len(l.Nodes) || placed[first] {
				return nil, errors.New("layout child index out of range").
					WithType(ErrTypeLayout).
					WithTag("node", i).
					WithTag("first_child", first)
			}
			for q := 0; q < 4; q++ {
				t.nodes[first+q] = newNode[M](n.Box.Quadrant(q), n.Level+1)
				placed[first+q] = true
				n.Children[q] = int32(first + q)
			}
		}

		start, end := int(ln.IntervalStart), int(ln.IntervalStart)+int(ln.StackSize)
		if end > len(l.Intervals) {
			return nil, errors.New("layout interval range out of bounds").
				WithType(ErrTypeLayout).
				WithTag("node", i).
				WithTag("start", start).
				WithTag("size", ln.StackSize)
		}
		n.Stack = make([]Interval[M], 0, ln.StackSize)
		for _, li := range l.Intervals[start:end] {
			iv := Interval[M]{Material: li.Material, Kind: li.Kind, Field: FieldRef{Index: -1}}
			if li.Kind == Layer {
				if li.FieldSlice < 0 || int(li.FieldSlice) >= len(t.fields) {
					return nil, errors.New("layout field slice out of range").
						WithType(ErrTypeLayout).
						WithTag("node", i).
						WithTag("slice", li.FieldSlice)
				}
				f := t.fields[li.FieldSlice]
				if li.DX < 0 || li.DY < 0 ||
					int(li.DX)+n.Box.Cols() > f.Cols || int(li.DY)+n.Box.Rows() > f.Rows {
					return nil, errors.New("layout field window out of bounds").
						WithType(ErrTypeLayout).
						WithTag("node", i).
						WithTag("slice", li.FieldSlice)
				}
				iv.Field = FieldRef{
					Index:  li.FieldSlice,
					Shared: owned[li.FieldSlice],
					DX:     li.DX,
					DY:     li.DY,
				}
				owned[li.FieldSlice] = true
			} else if li.Kind != Wildcard && li.Kind != Unknown {
				return nil, errors.New("unknown layout interval kind").
					WithType(ErrTypeLayout).
					WithTag("node", i).
					WithTag("kind", li.Kind)
			}
			n.Stack = append(n.Stack, iv)
		}
	}
	return t, nil
}

func restoreField(lf LayoutField, spacing [2]float32) (*heightfield.HeightField, error) {
	if lf.Cols <= 0 || lf.Rows <= 0 {
		return nil, errors.New("empty field")
	}
	opts := heightfield.Options{
		BlockCols: int(lf.BlockCols),
		BlockRows: int(lf.BlockRows),
		Policy:    lf.Policy,
	}
	c := heightfield.RestoreCompressor(int(lf.Cols), int(lf.Rows), lf.Offset, opts, lf.Blocks, lf.Words)

	bc, br := c.BlockSize()
	n := int(lf.Cols) * int(lf.Rows)
	size := bc * br
	if lf.Cols <= 1 || lf.Rows <= 1 {
		size = 1
	}
	if want := (n + size - 1) / size; len(lf.Blocks) != want {
		return nil, errors.New("unexpected block count").
			WithTag("blocks", len(lf.Blocks)).
			WithTag("expected", want)
	}

	available := uint64(len(lf.Words)) * 32
	for i, h := range lf.Blocks {
		if h.Bits == 0 {
			continue
		}
		if h.Bits > 32 {
			return nil, errors.New("block width out of range").
				WithTag("block", i).
				WithTag("bits", h.Bits)
		}
		count := uint64(min(size, n-i*size))
		extent := uint64(h.Pointer) + count*uint64(h.Bits)
		if lf.Policy == heightfield.WordAligned {
			perWord := uint64(32 / h.Bits)
			extent = uint64(h.Pointer) + (count+perWord-1)/perWord*32
		}
		if extent > available {
			return nil, errors.New("block exceeds packed words").
				WithTag("block", i)
		}
	}
	return heightfield.FromCompressor(c, lf.Origin, spacing, lf.Min, lf.Max), nil
}
