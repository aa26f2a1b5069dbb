package utils

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
	"github.com/voxelsplace/quadstack/heightfield"
	"github.com/voxelsplace/quadstack/pack"
	"github.com/voxelsplace/quadstack/quadstack"
	"github.com/voxelsplace/quadstack/stack"
)

func TestParseConfig(t *testing.T) {
	conf, err := ParseConfig([]byte("block_size: 4\npolicy: word-aligned\ncompression: s2\nstrategy: classify\nworkers: 2\n"))
	require.NoError(t, err)
	require.Equal(t, 4, conf.BlockSize)
	require.Equal(t, 2, conf.Workers)
	require.Equal(t, "info", conf.LogLevel)

	opts, err := conf.BuildOptions()
	require.NoError(t, err)
	require.Equal(t, quadstack.Classify, opts.Strategy)
	require.Equal(t, heightfield.WordAligned, opts.Codec.Policy)
	require.Equal(t, 4, opts.Codec.BlockCols)

	comp, err := conf.PackCompression()
	require.NoError(t, err)
	require.Equal(t, pack.S2, comp)

	conf.Strategy = "bogus"
	_, err = conf.BuildOptions()
	require.Error(t, err)

	_, err = ParseConfig([]byte("workers: [1"))
	require.Error(t, err)
}

func TestLoadConfigFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qstool.yaml")
	require.NoError(t, os.WriteFile(path, []byte("compression: zlib\nlog_level: debug\n"), 0644))
	t.Setenv(configEnv, path)
	t.Setenv(logLevelEnv, "warn")

	conf, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "zlib", conf.Compression)
	require.Equal(t, "warn", conf.LogLevel)
	require.Equal(t, DefaultConfig().BlockSize, conf.BlockSize)

	t.Setenv(configEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = LoadConfig()
	require.Error(t, err)
}

func TestGenerateTerrain(t *testing.T) {
	a := GenerateTerrain(20, 12, 4, 7)
	b := GenerateTerrain(20, 12, 4, 7)
	require.Equal(t, a, b)

	for y := 0; y < a.Rows; y++ {
		for x := 0; x < a.Cols; x++ {
			s := a.At(x, y)
			require.NotEmpty(t, s)
			for i := 1; i < len(s); i++ {
				require.Greater(t, s[i].Height, s[i-1].Height)
				require.NotEqual(t, s[i].Material, s[i-1].Material)
			}
			require.LessOrEqual(t, s.TotalHeight(), a.MaxHeight)
		}
	}
}

func TestPipeline(t *testing.T) {
	dir := t.TempDir()
	sbrPath := filepath.Join(dir, "terrain.sbr")
	qsPath := filepath.Join(dir, "terrain.qstk")
	backPath := filepath.Join(dir, "back.sbr")
	glbPath := filepath.Join(dir, "terrain.glb")
	conf := DefaultConfig()

	require.NoError(t, RunGenTerrain(24, 17, 5, 3, sbrPath))
	require.NoError(t, RunSBR2QS(sbrPath, qsPath, conf))
	require.NoError(t, RunVerify(context.Background(), sbrPath, qsPath, conf))

	require.NoError(t, RunQS2SBR(qsPath, backPath, conf))
	want, err := ReadSBR(sbrPath)
	require.NoError(t, err)
	got, err := ReadSBR(backPath)
	require.NoError(t, err)
	for y := 0; y < want.Rows; y++ {
		for x := 0; x < want.Cols; x++ {
			require.Equal(t, want.At(x, y), got.At(x, y))
		}
	}

	s := want.At(5, 9)
	var out bytes.Buffer
	require.NoError(t, RunSample(&out, qsPath, 5, 9, s[0].Height, conf))
	require.Equal(t, fmt.Sprintln(s[0].Material), out.String())
	out.Reset()
	require.NoError(t, RunSample(&out, qsPath, 5, 9, s.TotalHeight()+1, conf))
	require.Equal(t, "none\n", out.String())
	require.True(t, errors.IsType(RunSample(&out, qsPath, 24, 0, 0, conf), stack.ErrTypeOutOfRange))

	require.NoError(t, RunQS2GLB(qsPath, glbPath, conf))
	glb, err := os.ReadFile(glbPath)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(glb), "glTF"))
}

func TestVerifyDetectsMismatch(t *testing.T) {
	rep := GenerateTerrain(16, 16, 3, 11)
	tree, err := quadstack.Build(rep, quadstack.DefaultOptions())
	require.NoError(t, err)
	tree.SetTerrain(nil)
	require.NoError(t, Verify(context.Background(), rep, tree, 4))

	s := rep.At(7, 3).Clone()
	s[0].Material += 1000
	require.NoError(t, rep.SetStack(7, 3, s))

	err = Verify(context.Background(), rep, tree, 4)
	require.Error(t, err)
	require.True(t, errors.IsType(err, ErrTypeMismatch))

	other := GenerateTerrain(8, 8, 3, 11)
	require.True(t, errors.IsType(Verify(context.Background(), other, tree, 1), ErrTypeMismatch))
}

func TestVoxelInputs(t *testing.T) {
	dir := t.TempDir()
	v := stack.NewVoxelModel[Material](6, 5, 4, [3]float32{1, 1, 1}, [3]float32{})
	for x := 0; x < 6; x++ {
		for y := 0; y < 5; y++ {
			for z := 0; z < 4; z++ {
				m := Material(1)
				if z >= 2+x%2 {
					m = 2
				}
				v.Set(x, y, z, m)
			}
		}
	}

	raw := filepath.Join(dir, "terrain.raw")
	var buf bytes.Buffer
	require.NoError(t, stack.WriteBinaryVoxels(&buf, v, 2))
	require.NoError(t, os.WriteFile(raw, buf.Bytes(), 0644))

	vtk := filepath.Join(dir, "terrain.vtk")
	buf.Reset()
	require.NoError(t, stack.WriteVTK(&buf, v))
	require.NoError(t, os.WriteFile(vtk, buf.Bytes(), 0644))

	conf := DefaultConfig()
	rep := stack.FromVoxels[Material](v)
	for in, run := range map[string]func(string, string, Config) error{raw: RunVox2QS, vtk: RunVTK2QS} {
		out := in + ".qstk"
		require.NoError(t, run(in, out, conf))
		tree, err := LoadTree(out, conf)
		require.NoError(t, err)
		require.NoError(t, Verify(context.Background(), rep, tree, 2))
	}
}

func TestStats(t *testing.T) {
	rep := GenerateTerrain(32, 32, 4, 5)
	conf := DefaultConfig()
	r, err := Stats(rep, conf)
	require.NoError(t, err)
	require.Equal(t, 32, r.Cols)
	require.Greater(t, r.Intervals, 0)
	require.Greater(t, r.PackBytes, 0)
	require.Greater(t, r.VoxelLayers, 0)
	require.Greater(t, r.OctreeLeaves, 0)
	require.Equal(t, rep.MemorySize(), r.SBRBytes)

	path := filepath.Join(t.TempDir(), "terrain.sbr")
	require.NoError(t, WriteSBR(path, rep))
	var out bytes.Buffer
	require.NoError(t, RunStats(&out, path, conf))

	var decoded Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	require.Equal(t, r.Intervals, decoded.Intervals)
	require.Equal(t, r.QuadStack, decoded.QuadStack)
}
