package stack

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// Representation is a grid of stacks (stack based representation) together
// with its placement in world space.
type Representation[M Material] struct {
	Origin        [2]float32
	Spacing       [2]float32
	Cols, Rows    int
	MinHeight     float32
	MaxHeight     float32
	AttributeName string

	stacks []Stack[M]
}

// NewRepresentation returns a grid of empty stacks.
func NewRepresentation[M Material](cols, rows int, origin, spacing [2]float32, minHeight, maxHeight float32) *Representation[M] {
	return &Representation[M]{
		Origin:    origin,
		Spacing:   spacing,
		Cols:      cols,
		Rows:      rows,
		MinHeight: minHeight,
		MaxHeight: maxHeight,
		stacks:    make([]Stack[M], cols*rows),
	}
}

// FromVoxels scans every column of src bottom-up and inserts one interval per
// voxel, ending at (z+1)*spacingZ + minHeight.
func FromVoxels[M Material](src VoxelSource[M]) *Representation[M] {
	dimX, dimY, dimZ := src.Dimension()
	spacing := src.Spacing()
	origin := src.Origin()

	minHeight := origin[2]
	maxHeight := origin[2] + spacing[2]*float32(dimZ)

	r := NewRepresentation[M](dimX, dimY,
		[2]float32{origin[0], origin[1]},
		[2]float32{spacing[0], spacing[1]},
		minHeight, maxHeight)
	r.AttributeName = src.AttributeName()

	layers := dimZ
	if spacing[2] > 0 {
		layers = int(math.Round(float64((maxHeight - minHeight) / spacing[2])))
	}

	for x := 0; x < dimX; x++ {
		for y := 0; y < dimY; y++ {
			s := make(Stack[M], 0, 4)
			for z := 0; z < layers; z++ {
				height := float32(z+1)*spacing[2] + minHeight
				s.Add(src.Get(x, y, z), height)
			}
			r.stacks[x+y*dimX] = s
		}
	}
	return r
}

func (r *Representation[M]) inside(col, row int) bool {
	return col >= 0 && row >= 0 && col < r.Cols && row < r.Rows
}

// Stack returns the stack of a cell.
func (r *Representation[M]) Stack(col, row int) (Stack[M], error) {
	if !r.inside(col, row) {
		return nil, errors.New("stack out of range").
			WithType(ErrTypeOutOfRange).
			WithTag("col", col).
			WithTag("row", row).
			WithTag("cols", r.Cols).
			WithTag("rows", r.Rows)
	}
	return r.stacks[col+row*r.Cols], nil
}

// At returns the stack of a cell that is known to be inside the grid.
func (r *Representation[M]) At(col, row int) Stack[M] {
	return r.stacks[col+row*r.Cols]
}

func (r *Representation[M]) SetStack(col, row int, s Stack[M]) error {
	if !r.inside(col, row) {
		return errors.New("stack out of range").
			WithType(ErrTypeOutOfRange).
			WithTag("col", col).
			WithTag("row", row)
	}
	r.stacks[col+row*r.Cols] = s
	return nil
}

// MaxStack returns the length of the longest stack.
func (r *Representation[M]) MaxStack() int {
	longest := 0
	for _, s := range r.stacks {
		longest = max(longest, len(s))
	}
	return longest
}

// MemorySize is the number of bytes used by every interval of the grid.
func (r *Representation[M]) MemorySize() int {
	size := 0
	for _, s := range r.stacks {
		size += s.MemorySize()
	}
	return size
}

// Resolution returns the cell spacing used for quadtree footprints.
func (r *Representation[M]) Resolution() float32 {
	return r.Spacing[0]
}

// ToVoxels samples every column at the centre of each layer of thickness dz
// between MinHeight and MaxHeight. Space above a column is Unknown.
func (r *Representation[M]) ToVoxels(dz float32) *VoxelModel[M] {
	layers := 0
	if dz > 0 {
		layers = int(math.Round(float64((r.MaxHeight - r.MinHeight) / dz)))
	}
	v := NewVoxelModel[M](r.Cols, r.Rows, layers,
		[3]float32{r.Spacing[0], r.Spacing[1], dz},
		[3]float32{r.Origin[0], r.Origin[1], r.MinHeight})
	if r.AttributeName != "" {
		v.Attribute = r.AttributeName
	}
	for y := 0; y < r.Rows; y++ {
		for x := 0; x < r.Cols; x++ {
			s := r.At(x, y)
			for z := 0; z < layers; z++ {
				v.Set(x, y, z, s.Attribute(r.MinHeight+(float32(z)+0.5)*dz))
			}
		}
	}
	return v
}
