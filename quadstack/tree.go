package quadstack

import (
	"fmt"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/voxelsplace/quadstack/heightfield"
	"github.com/voxelsplace/quadstack/morton"
	"github.com/voxelsplace/quadstack/stack"
)

const leaf int32 = -1

// Quadrant order of a node's children.
const (
	NW = heightfield.NW
	NE = heightfield.NE
	SW = heightfield.SW
	SE = heightfield.SE
)

// Kind tells what a tree level interval stands for.
type Kind uint8

const (
	// Layer is a material layer whose boundary is stored in a field.
	Layer Kind = iota
	// Wildcard marks entries of the children that diverge and were not
	// promoted.
	Wildcard
	// Unknown is the placeholder left in a child whose entries were all
	// promoted.
	Unknown
)

func (k Kind) String() string {
	switch k {
	case Layer:
		return "layer"
	case Wildcard:
		return "wildcard"
	case Unknown:
		return "unknown"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// FieldRef points into the field pool. An owned reference covers the node
// footprint exactly. A shared one reads the window of the pooled field that
// starts at (DX, DY).
type FieldRef struct {
	Index  int32
	Shared bool
	DX, DY int32
}

// Interval is one entry of a generalized stack.
type Interval[M stack.Material] struct {
	Material M
	Kind     Kind
	Field    FieldRef
}

func (i Interval[M]) hasField() bool { return i.Kind == Layer }

// Box is the footprint [MinX,MaxX) x [MinY,MaxY) of a node in grid cells.
type Box struct {
	MinX, MinY int
	MaxX, MaxY int
}

func (b Box) Cols() int { return b.MaxX - b.MinX }

func (b Box) Rows() int { return b.MaxY - b.MinY }

func (b Box) Area() int { return b.Cols() * b.Rows() }

func (b Box) Empty() bool { return b.Cols() <= 0 || b.Rows() <= 0 }

func (b Box) Contains(x, y int) bool {
	return x >= b.MinX && x < b.MaxX && y >= b.MinY && y < b.MaxY
}

// Quadrant returns the footprint of child q. Quadrants of boxes narrower than
// two cells can be empty.
func (b Box) Quadrant(q int) Box {
	hx, hy := (b.MinX+b.MaxX)/2, (b.MinY+b.MaxY)/2
	switch q {
	case NW:
		return Box{b.MinX, hy, hx, b.MaxY}
	case NE:
		return Box{hx, hy, b.MaxX, b.MaxY}
	case SW:
		return Box{b.MinX, b.MinY, hx, hy}
	default:
		return Box{hx, b.MinY, b.MaxX, hy}
	}
}

func (b Box) String() string {
	return fmt.Sprintf("[%d,%d)x[%d,%d)", b.MinX, b.MaxX, b.MinY, b.MaxY)
}

// Node is one quadtree cell.
type Node[M stack.Material] struct {
	Stack    []Interval[M]
	Children [4]int32
	Box      Box
	Level    int

	promoted bool
}

func (n *Node[M]) IsLeaf() bool { return n.Children[0] == leaf }

func (n *Node[M]) hasWildcard() bool {
	for _, iv := range n.Stack {
		if iv.Kind == Wildcard {
			return true
		}
	}
	return false
}

// Strategy selects how the tree is built.
type Strategy uint8

const (
	// Promote decomposes to maximal uniform regions and merges siblings
	// bottom-up.
	Promote Strategy = iota
	// Classify stops at the first uniform level and does not merge.
	Classify
)

func (s Strategy) String() string {
	if s == Classify {
		return "classify"
	}
	return "promote"
}

func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "", "promote":
		return Promote, nil
	case "classify":
		return Classify, nil
	default:
		return Promote, errors.Newf("unknown strategy %q", s)
	}
}

// Options configures Build.
type Options struct {
	Strategy Strategy
	Codec    heightfield.Options
}

func DefaultOptions() Options {
	return Options{
		Strategy: Promote,
		Codec:    heightfield.DefaultOptions(),
	}
}

// Tree is a QuadStack: a quadtree of generalized stacks over a stack based
// representation. Nodes live in an arena and fields in a pool; both are
// dropped with the tree.
type Tree[M stack.Material] struct {
	Cols, Rows int
	Origin     [2]float32
	Spacing    [2]float32
	MinHeight  float32
	MaxHeight  float32

	nodes   []Node[M]
	fields  []*heightfield.HeightField
	terrain *stack.Representation[M]
	opts    Options

	maxLevels  int
	resolution float32
	resolved   bool
}

// New returns a tree holding only an unclassified root over rep.
func New[M stack.Material](rep *stack.Representation[M], opts Options) *Tree[M] {
	t := &Tree[M]{
		Cols:      rep.Cols,
		Rows:      rep.Rows,
		Origin:    rep.Origin,
		Spacing:   rep.Spacing,
		MinHeight: rep.MinHeight,
		MaxHeight: rep.MaxHeight,
		terrain:   rep,
		opts:      opts,
		maxLevels: morton.CeilLog2(max(rep.Cols, rep.Rows, 1)) + 1,
	}
	t.nodes = append(t.nodes, newNode[M](Box{0, 0, rep.Cols, rep.Rows}, 0))
	return t
}

func newNode[M stack.Material](b Box, level int) Node[M] {
	return Node[M]{
		Children: [4]int32{leaf, leaf, leaf, leaf},
		Box:      b,
		Level:    level,
	}
}

// Build runs the whole pipeline: decomposition, promotion, field
// rearrangement and compression. The height resolution is computed before the
// tree is returned so that concurrent readers never write to it.
func Build[M stack.Material](rep *stack.Representation[M], opts Options) (*Tree[M], error) {
	if rep == nil || rep.Cols <= 0 || rep.Rows <= 0 {
		return nil, errors.New("cannot build a quadstack from an empty representation").
			WithType(stack.ErrTypeMalformed)
	}

	t := New(rep, opts)
	log := logs.WithTag("cols", rep.Cols).
		WithTag("rows", rep.Rows).
		WithTag("strategy", opts.Strategy.String())

	phase := func(name string, fn func()) {
		start := time.Now()
		fn()
		instrumentPhase(name, start)
		log.WithTag("phase", name).
			WithTag("duration", time.Since(start).String()).
			Debug("quadstack phase done")
	}

	if opts.Strategy == Classify {
		phase("classify", t.Classify)
	} else {
		phase("decompose", t.Decompose)
		phase("promote", t.Promote)
	}
	phase("rearrange", t.RearrangeHeightFields)

	var resolution float32
	phase("resolution", func() { resolution = t.HeightResolution() })
	phase("compress", func() { t.CompressHeightFields(resolution) })

	mem := t.MemorySize()
	leaves := t.Leaves()
	instrumentNodes(leaves, mem.Nodes-leaves)
	log.WithTag("nodes", mem.Nodes).
		WithTag("intervals", mem.Intervals).
		WithTag("fields", len(t.fields)).
		WithTag("bytes", mem.Total()).
		Info("quadstack built")
	return t, nil
}

// Classify builds the tree top-down, stopping at the first uniform level.
func (t *Tree[M]) Classify() {
	t.descend(0)
}

// Decompose splits the tree down to maximal uniform regions. Promote is
// expected to follow.
func (t *Tree[M]) Decompose() {
	t.descend(0)
}

func (t *Tree[M]) descend(ni int32) {
	if t.unify(ni) || !t.divisible(ni) {
		return
	}
	t.subdivide(ni)
	for _, c := range t.nodes[ni].Children {
		t.descend(c)
	}
}

func (t *Tree[M]) divisible(ni int32) bool {
	return t.nodes[ni].Box.Area() > 1
}

// unify makes ni a leaf when every cell of its footprint has the same
// material sequence. One field per layer is created, holding each cell's
// boundary height.
func (t *Tree[M]) unify(ni int32) bool {
	b := t.nodes[ni].Box
	if b.Empty() {
		t.nodes[ni].Stack = nil
		return true
	}

	first := t.terrain.At(b.MinX, b.MinY)
	for y := b.MinY; y < b.MaxY; y++ {
		for x := b.MinX; x < b.MaxX; x++ {
			if !stack.CompareAttributes(first, t.terrain.At(x, y)) {
				return false
			}
		}
	}

	origin := [2]float32{
		t.Origin[0] + float32(b.MinX)*t.Spacing[0],
		t.Origin[1] + float32(b.MinY)*t.Spacing[1],
	}
	entries := make([]Interval[M], len(first))
	for i, iv := range first {
		f := heightfield.New(b.Cols(), b.Rows(), origin, t.Spacing)
		for y := b.MinY; y < b.MaxY; y++ {
			for x := b.MinX; x < b.MaxX; x++ {
				f.Set(x-b.MinX, y-b.MinY, t.terrain.At(x, y)[i].Height)
			}
		}
		entries[i] = Interval[M]{
			Material: iv.Material,
			Kind:     Layer,
			Field:    FieldRef{Index: t.addField(f)},
		}
	}
	t.nodes[ni].Stack = entries
	return true
}

// subdivide creates the four children of ni. Until promoted, the node only
// holds a wildcard.
func (t *Tree[M]) subdivide(ni int32) {
	b := t.nodes[ni].Box
	level := t.nodes[ni].Level + 1
	for q := 0; q < 4; q++ {
		t.nodes = append(t.nodes, newNode[M](b.Quadrant(q), level))
		t.nodes[ni].Children[q] = int32(len(t.nodes) - 1)
	}
	t.nodes[ni].Stack = []Interval[M]{{Kind: Wildcard, Field: FieldRef{Index: -1}}}
}

func (t *Tree[M]) addField(f *heightfield.HeightField) int32 {
	t.fields = append(t.fields, f)
	t.resolved = false
	return int32(len(t.fields) - 1)
}

// Root returns the root node.
func (t *Tree[M]) Root() *Node[M] { return &t.nodes[0] }

// Node returns the node at arena index i.
func (t *Tree[M]) Node(i int32) *Node[M] { return &t.nodes[i] }

// Field returns the pooled field at index i.
func (t *Tree[M]) Field(i int32) *heightfield.HeightField { return t.fields[i] }

func (t *Tree[M]) Fields() []*heightfield.HeightField { return t.fields }

func (t *Tree[M]) Options() Options { return t.opts }

// MaxLevels is ceil(log2(max(cols, rows))) + 1, the depth of a fully
// subdivided tree.
func (t *Tree[M]) MaxLevels() int { return t.maxLevels }

// Terrain returns the representation used as sampling fallback, if any.
func (t *Tree[M]) Terrain() *stack.Representation[M] { return t.terrain }

// SetTerrain swaps the representation used as sampling fallback. A nil
// terrain disables the fallback.
func (t *Tree[M]) SetTerrain(rep *stack.Representation[M]) { t.terrain = rep }

// fieldAt resolves the boundary height of entry iv of a node with footprint b
// at grid cell (x, y).
func (t *Tree[M]) fieldAt(iv Interval[M], b Box, x, y int) float32 {
	ref := iv.Field
	return t.fields[ref.Index].At(x-b.MinX+int(ref.DX), y-b.MinY+int(ref.DY))
}

// view returns the field of entry iv over footprint b.
func (t *Tree[M]) view(iv Interval[M], b Box) *heightfield.HeightField {
	f := t.fields[iv.Field.Index]
	if !iv.Field.Shared && f.Cols == b.Cols() && f.Rows == b.Rows() {
		return f
	}
	return f.Window(int(iv.Field.DX), int(iv.Field.DY), b.Cols(), b.Rows())
}
