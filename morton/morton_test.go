package morton

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSpreadBits(t *testing.T) {
	require.Equal(t, uint32(0), SpreadBits(0))
	require.Equal(t, uint32(0x5), SpreadBits(0x3))
	require.Equal(t, uint32(0x55555555), SpreadBits(0xFFFF))

	for v := uint32(0); v < 1<<16; v += 7 {
		require.Equal(t, v, UnspreadBits(SpreadBits(v)))
	}
}

func TestEncode2(t *testing.T) {
	// Z order over a 2x2 block: (0,0) (1,0) (0,1) (1,1)
	require.Equal(t, uint32(0), Encode2(0, 0))
	require.Equal(t, uint32(1), Encode2(1, 0))
	require.Equal(t, uint32(2), Encode2(0, 1))
	require.Equal(t, uint32(3), Encode2(1, 1))

	col, row := Decode2(Encode2(1234, 4321))
	require.Equal(t, uint32(1234), col)
	require.Equal(t, uint32(4321), row)
}

func TestPowerOf2Helpers(t *testing.T) {
	tests := []struct {
		v          int
		next, last int
		pow2       bool
		ceilLog2   int
	}{
		{v: 1, next: 1, last: 1, pow2: true, ceilLog2: 0},
		{v: 2, next: 2, last: 2, pow2: true, ceilLog2: 1},
		{v: 3, next: 4, last: 2, pow2: false, ceilLog2: 2},
		{v: 5, next: 8, last: 4, pow2: false, ceilLog2: 3},
		{v: 16, next: 16, last: 16, pow2: true, ceilLog2: 4},
		{v: 17, next: 32, last: 16, pow2: false, ceilLog2: 5},
	}

	for _, test := range tests {
		t.Run(fmt.Sprint(test.v), func(t *testing.T) {
			require.Equal(t, test.next, NextPowerOf2(test.v))
			require.Equal(t, test.last, LastPowerOf2(test.v))
			require.Equal(t, test.pow2, IsPowerOf2(test.v))
			require.Equal(t, test.ceilLog2, CeilLog2(test.v))
		})
	}

	require.False(t, IsPowerOf2(0))
	require.Equal(t, uint16(8), NextPowerOf2(uint16(7)))
}

func TestDivisionLeaves(t *testing.T) {
	require.True(t, NewDivision(1, 1).IsLeaf())
	require.True(t, NewDivision(8, 8).IsLeaf())
	require.False(t, NewDivision(3, 4).IsLeaf())

	d := NewDivision(6, 4)
	s, ok := d.Split()
	require.True(t, ok)
	require.Equal(t, SplitColumns, s.Axis)
	require.Equal(t, 4, s.At)
	require.True(t, s.First.IsLeaf())

	d = NewDivision(3, 5)
	s, ok = d.Split()
	require.True(t, ok)
	require.Equal(t, SplitRows, s.Axis)
	require.Equal(t, 2, s.At)
}

func TestDivisionPowerOf2SquareMatchesInterleave(t *testing.T) {
	d := NewDivision(8, 8)
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			require.Equal(t, int(Encode2(uint32(col), uint32(row))), d.Encode(col, row))
		}
	}
}

func TestCurveBijection(t *testing.T) {
	for cols := 1; cols <= 13; cols++ {
		for rows := 1; rows <= 13; rows++ {
			c := NewCurve(cols, rows)
			seen := make([]bool, cols*rows)

			for row := 0; row < rows; row++ {
				for col := 0; col < cols; col++ {
					code := c.Division().Encode(col, row)
					require.GreaterOrEqual(t, code, 0)
					require.Less(t, code, cols*rows, "%dx%d (%d,%d)", cols, rows, col, row)
					require.False(t, seen[code], "%dx%d duplicate code %d", cols, rows, code)
					seen[code] = true

					gotCol, gotRow := c.Division().Decode(code)
					require.Equal(t, col, gotCol)
					require.Equal(t, row, gotRow)

					require.Equal(t, code, c.Encode(col, row))
					gotCol, gotRow = c.Decode(code)
					require.Equal(t, col, gotCol)
					require.Equal(t, row, gotRow)
				}
			}
		}
	}
}

func TestForIsCached(t *testing.T) {
	a := For(5, 7)
	b := For(5, 7)
	require.Same(t, a, b)
	require.Equal(t, 35, a.Len())
	require.Equal(t, 5, a.Cols())
	require.Equal(t, 7, a.Rows())
}
