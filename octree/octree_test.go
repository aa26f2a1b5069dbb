package octree

import (
	"math/rand"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/voxelsplace/quadstack/stack"
)

func terrainVolume(dx, dy, dz int, seed int64) *stack.VoxelModel[uint16] {
	r := rand.New(rand.NewSource(seed))
	v := stack.NewVoxelModel[uint16](dx, dy, dz, [3]float32{1, 1, 1}, [3]float32{})
	for x := 0; x < dx; x++ {
		for y := 0; y < dy; y++ {
			ground := r.Intn(dz + 1)
			for z := 0; z < dz; z++ {
				switch {
				case z < ground/2:
					v.Set(x, y, z, 1)
				case z < ground:
					v.Set(x, y, z, 2)
				}
			}
		}
	}
	return v
}

func TestValueMatchesSource(t *testing.T) {
	dims := [][3]int{{1, 1, 1}, {2, 2, 2}, {3, 5, 7}, {8, 8, 8}, {9, 4, 1}}
	for i, d := range dims {
		v := terrainVolume(d[0], d[1], d[2], int64(i))
		tree := Build[uint16](v)

		for z := 0; z < d[2]; z++ {
			for x := 0; x < d[0]; x++ {
				for y := 0; y < d[1]; y++ {
					got, err := tree.Value(x, y, z)
					require.NoError(t, err)
					require.Equal(t, v.Get(x, y, z), got, "voxel (%d,%d,%d) of %v", x, y, z, d)
				}
			}
		}
		require.Equal(t, v.Data, tree.Decompress().Data)
	}
}

func TestUniformVolumeIsOneLeaf(t *testing.T) {
	v := stack.NewVoxelModel[int32](4, 4, 4, [3]float32{1, 1, 1}, [3]float32{})
	for i := range v.Data {
		v.Data[i] = 3
	}
	tree := Build[int32](v)
	require.Equal(t, 1, tree.Nodes())
	require.Equal(t, 1, tree.Leaves())
	require.Less(t, tree.MemorySize(), v.MemorySize())

	got, err := tree.Value(3, 3, 3)
	require.NoError(t, err)
	require.Equal(t, int32(3), got)
}

func TestSingleVoxelDiffers(t *testing.T) {
	v := stack.NewVoxelModel[int32](2, 2, 2, [3]float32{1, 1, 1}, [3]float32{})
	v.Set(1, 0, 1, 5)
	tree := Build[int32](v)
	require.Equal(t, 9, tree.Nodes())
	require.Equal(t, 8, tree.Leaves())
}

func TestValueOutOfRange(t *testing.T) {
	tree := Build[uint16](terrainVolume(2, 3, 4, 1))
	_, err := tree.Value(2, 0, 0)
	require.True(t, errors.IsType(err, stack.ErrTypeOutOfRange))
	_, err = tree.Value(0, 0, -1)
	require.Error(t, err)
}
