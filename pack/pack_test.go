package pack

import (
	"path/filepath"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/voxelsplace/quadstack/quadstack"
	"github.com/voxelsplace/quadstack/stack"
)

func testTree[M stack.Material](t *testing.T) (*quadstack.Tree[M], *stack.Representation[M]) {
	rep := stack.NewRepresentation[M](11, 7, [2]float32{5, -3}, [2]float32{2, 2}, 0, 16)
	for y := 0; y < rep.Rows; y++ {
		for x := 0; x < rep.Cols; x++ {
			var s stack.Stack[M]
			s.Add(1, 1+float32((x*y)%3)*0.5)
			s.Add(M(2+x/4), 4+float32(x%2)*0.25)
			if y > 2 {
				s.Add(9, 6+float32(y)*0.125)
			}
			require.NoError(t, rep.SetStack(x, y, s))
		}
	}
	tree, err := quadstack.Build(rep, quadstack.DefaultOptions())
	require.NoError(t, err)
	return tree, rep
}

func requireSameSamples[M stack.Material](t *testing.T, want, got *quadstack.Tree[M], rep *stack.Representation[M]) {
	t.Helper()
	for y := 0; y < rep.Rows; y++ {
		for x := 0; x < rep.Cols; x++ {
			for _, iv := range rep.At(x, y) {
				a, aok := want.Sample(x, y, iv.Height)
				b, bok := got.Sample(x, y, iv.Height)
				require.Equal(t, aok, bok)
				require.Equal(t, a, b)
				require.Equal(t, iv.Material, b)
			}
		}
	}
}

func TestRoundTrip(t *testing.T) {
	tree, rep := testTree[int32](t)
	tree.SetTerrain(nil)
	model := New(tree)

	for _, comp := range []Compression{None, Zlib, Zstd, S2, Best} {
		t.Run(comp.String(), func(t *testing.T) {
			data, err := Marshal(model, comp)
			require.NoError(t, err)
			require.Equal(t, magic, string(data[:len(magic)]))

			got, stored, err := Unmarshal[int32](data)
			require.NoError(t, err)
			if comp != Best {
				require.Equal(t, comp, stored)
			}
			require.Equal(t, model.ID, got.ID)
			require.Equal(t, model.Layout.Nodes, got.Layout.Nodes)
			require.Equal(t, model.Layout.Intervals, got.Layout.Intervals)
			require.Equal(t, model.Layout.Resolution, got.Layout.Resolution)

			restored, err := got.Tree(quadstack.DefaultOptions())
			require.NoError(t, err)
			requireSameSamples(t, tree, restored, rep)
		})
	}
}

func TestBestIsSmallest(t *testing.T) {
	tree, _ := testTree[uint16](t)
	model := New(tree)

	best, err := Marshal(model, Best)
	require.NoError(t, err)
	for _, comp := range codecs {
		data, err := Marshal(model, comp)
		require.NoError(t, err)
		require.LessOrEqual(t, len(best), len(data), comp.String())
	}
}

func TestSaveLoad(t *testing.T) {
	tree, rep := testTree[int64](t)
	tree.SetTerrain(nil)
	model := New(tree)

	path := filepath.Join(t.TempDir(), "terrain.qstk")
	require.NoError(t, Save(path, model, Zstd))

	got, err := Load[int64](path)
	require.NoError(t, err)
	restored, err := got.Tree(quadstack.DefaultOptions())
	require.NoError(t, err)
	requireSameSamples(t, tree, restored, rep)

	_, err = Load[int64](filepath.Join(t.TempDir(), "missing.qstk"))
	require.Error(t, err)
}

func TestUnmarshalErrors(t *testing.T) {
	tree, _ := testTree[int32](t)
	data, err := Marshal(New(tree), None)
	require.NoError(t, err)

	corrupt := func(fn func(b []byte) []byte) []byte {
		b := append([]byte(nil), data...)
		return fn(b)
	}

	tests := []struct {
		name    string
		data    []byte
		errType string
	}{
		{
			name:    "bad magic",
			data:    corrupt(func(b []byte) []byte { b[0] = 'X'; return b }),
			errType: ErrTypeFormat,
		},
		{
			name:    "short",
			data:    data[:4],
			errType: ErrTypeFormat,
		},
		{
			name:    "bad version",
			data:    corrupt(func(b []byte) []byte { b[len(magic)] = 9; return b }),
			errType: ErrTypeFormat,
		},
		{
			name:    "bad compression",
			data:    corrupt(func(b []byte) []byte { b[len(magic)+1] = 42; return b }),
			errType: ErrTypeFormat,
		},
		{
			name:    "flipped content byte",
			data:    corrupt(func(b []byte) []byte { b[headerSize+20] ^= 0xff; return b }),
			errType: ErrTypeChecksum,
		},
		{
			name:    "truncated",
			data:    data[:len(data)-12],
			errType: ErrTypeChecksum,
		},
		{
			name:    "no checksum",
			data:    data[:headerSize+3],
			errType: ErrTypeFormat,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, _, err := Unmarshal[int32](test.data)
			require.Error(t, err)
			require.True(t, errors.IsType(err, test.errType))
		})
	}
}

func TestMaterialWidthMismatch(t *testing.T) {
	tree, _ := testTree[int32](t)
	data, err := Marshal(New(tree), S2)
	require.NoError(t, err)

	_, _, err = Unmarshal[uint16](data)
	require.True(t, errors.IsType(err, ErrTypeFormat))
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{None, Zlib, Zstd, S2, Best} {
		got, err := ParseCompression(c.String())
		require.NoError(t, err)
		require.Equal(t, c, got)
	}
	_, err := ParseCompression("lz4")
	require.Error(t, err)
}
