package morton

import "sync"

// Curve is the precomputed Morton order of one rectangle. It is immutable and
// safe for concurrent use.
type Curve struct {
	div Division

	// codes maps the linear index (col + row*cols) to the curve position and
	// order maps the position back.
	codes []uint32
	order []uint32
}

type curveKey struct{ cols, rows int }

var (
	curvesMu sync.Mutex
	curves   = make(map[curveKey]*Curve)
)

// For returns the shared curve of a cols x rows rectangle, building it on
// first use.
func For(cols, rows int) *Curve {
	k := curveKey{cols, rows}
	curvesMu.Lock()
	defer curvesMu.Unlock()
	if c, ok := curves[k]; ok {
		return c
	}
	c := NewCurve(cols, rows)
	curves[k] = c
	return c
}

// NewCurve builds an uncached curve.
func NewCurve(cols, rows int) *Curve {
	c := &Curve{div: NewDivision(cols, rows)}
	total := c.div.Area()
	c.codes = make([]uint32, total)
	c.order = make([]uint32, total)
	for code := 0; code < total; code++ {
		col, row := c.div.Decode(code)
		lin := col + row*cols
		c.codes[lin] = uint32(code)
		c.order[code] = uint32(lin)
	}
	return c
}

func (c *Curve) Cols() int { return c.div.Cols }

func (c *Curve) Rows() int { return c.div.Rows }

func (c *Curve) Len() int { return len(c.codes) }

func (c *Curve) Division() Division { return c.div }

// Encode returns the curve position of (col, row).
func (c *Curve) Encode(col, row int) int {
	return int(c.codes[col+row*c.div.Cols])
}

// Decode returns the cell at curve position code.
func (c *Curve) Decode(code int) (col, row int) {
	lin := int(c.order[code])
	return lin % c.div.Cols, lin / c.div.Cols
}
