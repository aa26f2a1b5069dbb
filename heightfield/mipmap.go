package heightfield

import "math/bits"

// Reduction selects how four samples collapse into one mipmap cell.
type Reduction uint8

const (
	Max Reduction = iota
	Min
)

// Level is one resolution of a Mipmap. Diff flags cells whose non null
// sources disagreed.
type Level struct {
	Cols   int
	Rows   int
	Values []float32
	Diff   []bool
}

func (l *Level) At(col, row int) float32 { return l.Values[col+row*l.Cols] }

// Mipmap is a min or max pyramid over a field. Level 0 is the field itself
// and level l has max(dim>>l, 1) cells per axis.
type Mipmap struct {
	Reduction Reduction
	NullData  float32
	Levels    []Level
}

// NewMipmap builds floor(log2(max(cols, rows)))+1 levels.
func NewMipmap(f *HeightField, r Reduction) *Mipmap {
	m := &Mipmap{Reduction: r, NullData: f.NullData}
	if f.Len() == 0 {
		return m
	}

	count := bits.Len(uint(max(f.Cols, f.Rows)))
	m.Levels = make([]Level, 0, count)
	m.Levels = append(m.Levels, Level{
		Cols:   f.Cols,
		Rows:   f.Rows,
		Values: f.Values(),
		Diff:   make([]bool, f.Len()),
	})
	for l := 1; l < count; l++ {
		m.Levels = append(m.Levels, m.reduce(&m.Levels[l-1], max(f.Cols>>l, 1), max(f.Rows>>l, 1)))
	}
	return m
}

func (m *Mipmap) reduce(prev *Level, cols, rows int) Level {
	lvl := Level{
		Cols:   cols,
		Rows:   rows,
		Values: make([]float32, cols*rows),
		Diff:   make([]bool, cols*rows),
	}
	for y := 0; y < rows; y++ {
		y0 := min(2*y, prev.Rows-1)
		y1 := min(y0+1, prev.Rows-1)
		for x := 0; x < cols; x++ {
			x0 := min(2*x, prev.Cols-1)
			x1 := min(x0+1, prev.Cols-1)

			out, diff := m.NullData, false
			for _, v := range [4]float32{
				prev.At(x0, y0), prev.At(x1, y0),
				prev.At(x0, y1), prev.At(x1, y1),
			} {
				if v == m.NullData {
					continue
				}
				if out == m.NullData {
					out = v
					continue
				}
				if v != out {
					diff = true
				}
				if (m.Reduction == Max && v > out) || (m.Reduction == Min && v < out) {
					out = v
				}
			}
			lvl.Values[x+y*cols] = out
			lvl.Diff[x+y*cols] = diff
		}
	}
	return lvl
}

// MemorySize is the number of bytes of every level's samples.
func (m *Mipmap) MemorySize() int {
	size := 0
	for _, l := range m.Levels {
		size += 4*len(l.Values) + len(l.Diff)
	}
	return size
}
