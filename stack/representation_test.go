package stack

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
)

// makeTestVolume returns a 3x2x4 volume: material 1 in the two lowest voxels,
// then material 2, except column (2,1) which is all material 3.
func makeTestVolume() *VoxelModel[int32] {
	v := NewVoxelModel[int32](3, 2, 4, [3]float32{1, 1, 0.5}, [3]float32{10, 20, -1})
	for x := 0; x < 3; x++ {
		for y := 0; y < 2; y++ {
			for z := 0; z < 4; z++ {
				m := int32(1)
				if z >= 2 {
					m = 2
				}
				if x == 2 && y == 1 {
					m = 3
				}
				v.Set(x, y, z, m)
			}
		}
	}
	return v
}

func TestFromVoxels(t *testing.T) {
	r := FromVoxels[int32](makeTestVolume())

	require.Equal(t, 3, r.Cols)
	require.Equal(t, 2, r.Rows)
	require.Equal(t, [2]float32{10, 20}, r.Origin)
	require.Equal(t, float32(-1), r.MinHeight)
	require.Equal(t, float32(1), r.MaxHeight)
	require.Equal(t, "material", r.AttributeName)

	s, err := r.Stack(0, 0)
	require.NoError(t, err)
	require.Equal(t, Stack[int32]{{0, 1}, {1, 2}}, s)

	s, err = r.Stack(2, 1)
	require.NoError(t, err)
	require.Equal(t, Stack[int32]{{1, 3}}, s)

	require.Equal(t, 2, r.MaxStack())
	require.Equal(t, 11*8, r.MemorySize())
}

func TestToVoxels(t *testing.T) {
	src := makeTestVolume()
	v := FromVoxels[int32](src).ToVoxels(src.Space[2])

	require.Equal(t, src.Dim, v.Dim)
	require.Equal(t, src.Orig, v.Orig)
	require.Equal(t, src.Data, v.Data)
}

func TestRepresentationOutOfRange(t *testing.T) {
	r := NewRepresentation[int32](2, 2, [2]float32{}, [2]float32{1, 1}, 0, 1)

	for _, c := range [][2]int{{-1, 0}, {2, 0}, {0, 2}, {5, 5}} {
		_, err := r.Stack(c[0], c[1])
		require.Error(t, err)
		require.True(t, errors.IsType(err, ErrTypeOutOfRange))

		err = r.SetStack(c[0], c[1], nil)
		require.True(t, errors.IsType(err, ErrTypeOutOfRange))
	}

	require.NoError(t, r.SetStack(1, 1, Stack[int32]{{1, 4}}))
	require.Equal(t, Stack[int32]{{1, 4}}, r.At(1, 1))
}

func TestTextRoundTrip(t *testing.T) {
	r := FromVoxels[int32](makeTestVolume())
	require.NoError(t, r.SetStack(1, 0, nil))

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, r))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Equal(t, "Origin 10 20", lines[0])
	require.Equal(t, "Dimension 3 2", lines[1])
	require.Equal(t, "Spacing 1 1", lines[2])
	require.Equal(t, "Height -1 1", lines[3])
	require.Equal(t, "1|0$2|1$", lines[4])
	require.Equal(t, "999|1$", lines[5])
	require.Len(t, lines, 4+6)

	got, err := ReadText[int32](&buf)
	require.NoError(t, err)
	require.Equal(t, r.Cols, got.Cols)
	require.Equal(t, r.Rows, got.Rows)
	require.Equal(t, r.Origin, got.Origin)
	require.Equal(t, r.Spacing, got.Spacing)
	require.Equal(t, r.MinHeight, got.MinHeight)
	require.Equal(t, r.MaxHeight, got.MaxHeight)
	for row := 0; row < r.Rows; row++ {
		for col := 0; col < r.Cols; col++ {
			require.Equal(t, len(r.At(col, row)), len(got.At(col, row)))
			for i, iv := range r.At(col, row) {
				require.Equal(t, iv, got.At(col, row)[i])
			}
		}
	}
}

func TestReadTextMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "bad header", input: "Origin 0 0\nDimensions 1 1\n"},
		{name: "bad number", input: "Origin a 0\nDimension 1 1\nSpacing 1 1\nHeight 0 1\n1|1$\n"},
		{name: "truncated", input: "Origin 0 0\nDimension 2 1\nSpacing 1 1\nHeight 0 1\n1|1$\n"},
		{name: "token without height", input: "Origin 0 0\nDimension 1 1\nSpacing 1 1\nHeight 0 1\n1$\n"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ReadText[int32](strings.NewReader(test.input))
			require.Error(t, err)
			require.True(t, errors.IsType(err, ErrTypeMalformed))
		})
	}
}

func TestBinaryVoxelsRoundTrip(t *testing.T) {
	v := makeTestVolume()
	for _, width := range []int{2, 4} {
		var buf bytes.Buffer
		require.NoError(t, WriteBinaryVoxels(&buf, v, width))
		require.Equal(t, 40+width*len(v.Data), buf.Len())

		got, err := ReadBinaryVoxels[int32](&buf)
		require.NoError(t, err)
		require.Equal(t, v.Dim, got.Dim)
		require.Equal(t, v.Space, got.Space)
		require.Equal(t, v.Orig, got.Orig)
		require.Equal(t, v.Data, got.Data)
	}

	_, err := ReadBinaryVoxels[int32](bytes.NewReader([]byte{1, 2, 3}))
	require.True(t, errors.IsType(err, ErrTypeMalformed))
}

func TestVTKRoundTrip(t *testing.T) {
	v := makeTestVolume()
	v.Attribute = "lithology"

	var buf bytes.Buffer
	require.NoError(t, WriteVTK(&buf, v))

	got, err := ReadVTK[int16](&buf)
	require.NoError(t, err)
	require.Equal(t, v.Dim, got.Dim)
	require.Equal(t, v.Space, got.Space)
	require.Equal(t, v.Orig, got.Orig)
	require.Equal(t, "lithology", got.AttributeName())
	for i := range v.Data {
		require.Equal(t, int16(v.Data[i]), got.Data[i])
	}

	_, err = ReadVTK[int16](strings.NewReader("# vtk\nx\nASCII\nDATASET STRUCTURED_POINTS\nDIMENSIONS 2 2\n"))
	require.True(t, errors.IsType(err, ErrTypeMalformed))
}
