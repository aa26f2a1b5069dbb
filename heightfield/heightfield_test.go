package heightfield

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func seqField(cols, rows int) *HeightField {
	values := make([]float32, cols*rows)
	for i := range values {
		values[i] = float32(i)
	}
	return FromValues(cols, rows, values)
}

func TestNewIsNull(t *testing.T) {
	f := New(3, 2, [2]float32{1, 2}, [2]float32{0.5, 0.5})
	require.Equal(t, 6, f.Len())
	require.Equal(t, NullData, f.At(2, 1))
	require.Equal(t, NullData, f.Min)

	f.Set(2, 1, 4)
	f.Set(0, 0, -2)
	require.Equal(t, float32(-2), f.Min)
	require.Equal(t, float32(4), f.Max)
}

func TestCropAndQuadrants(t *testing.T) {
	f := seqField(4, 4)
	f.Origin = [2]float32{10, 20}
	f.Spacing = [2]float32{2, 2}

	c := f.Crop(1, 2, 3, 4)
	require.Equal(t, 2, c.Cols)
	require.Equal(t, 2, c.Rows)
	require.Equal(t, [2]float32{12, 24}, c.Origin)
	require.Equal(t, []float32{9, 10, 13, 14}, c.Values())
	require.Equal(t, float32(9), c.Min)
	require.Equal(t, float32(14), c.Max)

	require.Equal(t, []float32{8, 9, 12, 13}, f.Quadrant(NW).Values())
	require.Equal(t, []float32{10, 11, 14, 15}, f.Quadrant(NE).Values())
	require.Equal(t, []float32{0, 1, 4, 5}, f.Quadrant(SW).Values())
	require.Equal(t, []float32{2, 3, 6, 7}, f.Quadrant(SE).Values())

	thin := seqField(1, 3)
	require.Equal(t, 0, thin.Quadrant(SW).Len())
	require.Equal(t, []float32{0}, thin.Quadrant(SE).Values())
	require.Equal(t, []float32{1, 2}, thin.Quadrant(NE).Values())

	cp := f.Copy()
	cp.Set(0, 0, 100)
	require.Equal(t, float32(0), f.At(0, 0))
}

func TestPasteAndWindows(t *testing.T) {
	f := seqField(4, 4)
	parent := New(4, 4, [2]float32{}, [2]float32{1, 1})
	for _, q := range []struct{ id, dx, dy int }{{NW, 0, 2}, {NE, 2, 2}, {SW, 0, 0}, {SE, 2, 0}} {
		parent.Paste(f.Quadrant(q.id), q.dx, q.dy)
	}
	require.True(t, parent.Equal(f))

	w := f.Window(1, 1, 2, 3)
	require.True(t, w.EqualWindow(f, 1, 1))
	require.False(t, w.EqualWindow(f, 0, 1))
	require.False(t, w.EqualWindow(f, 3, 3))
	require.False(t, w.Equal(f))
	require.Equal(t, f.Fingerprint(), parent.Fingerprint())
	require.NotEqual(t, f.Fingerprint(), w.Fingerprint())
}

func TestResolution(t *testing.T) {
	f := FromValues(3, 2, []float32{5, 1, 3.5, 1, NullData, 9})
	require.Equal(t, float32(1.5), f.Resolution())

	flat := FromValues(2, 2, []float32{2, 2, 2, 2})
	require.Equal(t, float32(0), flat.Resolution())

	// brute force agrees
	r := rand.New(rand.NewSource(7))
	values := make([]float32, 64)
	for i := range values {
		values[i] = float32(r.Intn(400)) * 0.25
	}
	var want float32
	for i := range values {
		for j := range values {
			d := values[i] - values[j]
			if d > 0 && (want == 0 || d < want) {
				want = d
			}
		}
	}
	require.Equal(t, want, FromValues(8, 8, values).Resolution())
}

func TestMipmap(t *testing.T) {
	f := FromValues(5, 3, []float32{
		1, 2, 3, 4, 5,
		6, 7, 8, 9, 10,
		11, NullData, 13, 14, 15,
	})

	mx := NewMipmap(f, Max)
	require.Len(t, mx.Levels, 3)
	require.Equal(t, 5, mx.Levels[0].Cols)
	require.Equal(t, 2, mx.Levels[1].Cols)
	require.Equal(t, 1, mx.Levels[1].Rows)
	require.Equal(t, 1, mx.Levels[2].Cols)
	require.Equal(t, 1, mx.Levels[2].Rows)

	require.Equal(t, []float32{7, 9}, mx.Levels[1].Values)
	require.Equal(t, []bool{true, true}, mx.Levels[1].Diff)
	require.Equal(t, []float32{9}, mx.Levels[2].Values)

	mn := NewMipmap(f, Min)
	require.Equal(t, []float32{1, 3}, mn.Levels[1].Values)
	require.Equal(t, []float32{1}, mn.Levels[2].Values)

	nulls := FromValues(2, 2, []float32{NullData, NullData, NullData, 4})
	m := NewMipmap(nulls, Min)
	require.Len(t, m.Levels, 2)
	require.Equal(t, []float32{4}, m.Levels[1].Values)
	require.Equal(t, []bool{false}, m.Levels[1].Diff)

	all := NewMipmap(FromValues(2, 1, []float32{NullData, NullData}), Max)
	require.Equal(t, []float32{NullData}, all.Levels[1].Values)
}
