package morton

// Axis is the direction along which a Division is split.
type Axis uint8

const (
	// SplitColumns cuts the region left | right.
	SplitColumns Axis = iota
	// SplitRows cuts the region bottom / top.
	SplitRows
)

// Division tiles a cols x rows rectangle with unit cells and power-of-two
// squares, each of which is indexed with plain bit interleaving. Codes of a
// later tile are offset by the area of every tile before it.
type Division struct {
	Cols, Rows int
	split      *Split
}

// Split is the inner node of a Division.
type Split struct {
	Axis   Axis
	At     int // size of First along Axis
	First  Division
	Second Division
}

// NewDivision builds the tiling for a cols x rows rectangle.
func NewDivision(cols, rows int) Division {
	d := Division{Cols: cols, Rows: rows}
	if cols <= 0 || rows <= 0 {
		return d
	}
	if cols == 1 && rows == 1 {
		return d
	}
	if cols == rows && IsPowerOf2(cols) {
		return d
	}

	block := min(LastPowerOf2(cols), LastPowerOf2(rows))
	switch {
	case IsPowerOf2(rows) && cols >= rows:
		d.split = &Split{
			Axis:   SplitColumns,
			At:     rows,
			First:  NewDivision(rows, rows),
			Second: NewDivision(cols-rows, rows),
		}
	case rows > 1:
		d.split = &Split{
			Axis:   SplitRows,
			At:     block,
			First:  NewDivision(cols, block),
			Second: NewDivision(cols, rows-block),
		}
	default:
		d.split = &Split{
			Axis:   SplitColumns,
			At:     1,
			First:  NewDivision(1, rows),
			Second: NewDivision(cols-1, rows),
		}
	}
	return d
}

func (d Division) IsLeaf() bool { return d.split == nil }

// Split returns the inner split, if any.
func (d Division) Split() (Split, bool) {
	if d.split == nil {
		return Split{}, false
	}
	return *d.split, true
}

func (d Division) Area() int { return d.Cols * d.Rows }

// Leaves counts the tiles of the division.
func (d Division) Leaves() int {
	if d.split == nil {
		if d.Area() == 0 {
			return 0
		}
		return 1
	}
	return d.split.First.Leaves() + d.split.Second.Leaves()
}

// Encode returns the curve position of (col, row). Coordinates must be
// inside the rectangle.
func (d Division) Encode(col, row int) int {
	code := 0
	for d.split != nil {
		s := d.split
		if s.Axis == SplitColumns {
			if col < s.At {
				d = s.First
				continue
			}
			col -= s.At
		} else {
			if row < s.At {
				d = s.First
				continue
			}
			row -= s.At
		}
		code += s.First.Area()
		d = s.Second
	}
	if d.Cols == 1 && d.Rows == 1 {
		return code
	}
	return code + int(Encode2(uint32(col), uint32(row)))
}

// Decode is the inverse of Encode for codes in [0, Area()).
func (d Division) Decode(code int) (col, row int) {
	for d.split != nil {
		s := d.split
		first := s.First.Area()
		if code < first {
			d = s.First
			continue
		}
		code -= first
		if s.Axis == SplitColumns {
			col += s.At
		} else {
			row += s.At
		}
		d = s.Second
	}
	if d.Cols == 1 && d.Rows == 1 {
		return col, row
	}
	c, r := Decode2(uint32(code))
	return col + int(c), row + int(r)
}
