package api

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/voxelsplace/quadstack/stack"
	"github.com/voxelsplace/quadstack/utils"
)

func TestRoundTrip(t *testing.T) {
	rep := utils.GenerateTerrain(19, 13, 4, 2)
	var sbr bytes.Buffer
	require.NoError(t, stack.WriteText(&sbr, rep))

	data, err := SBRToPack(sbr.Bytes(), utils.DefaultConfig())
	require.NoError(t, err)

	back, err := PackToSBR(data)
	require.NoError(t, err)
	require.Equal(t, sbr.String(), string(back))

	s := rep.At(4, 4)
	m, ok, err := Sample(data, 4, 4, s.TotalHeight())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, s[len(s)-1].Material, m)

	_, _, err = Sample(data, -1, 0, 0)
	require.Error(t, err)

	glb, err := PackToGLB(data)
	require.NoError(t, err)
	require.Equal(t, "glTF", string(glb[:4]))

	report, err := Stats(sbr.Bytes(), utils.DefaultConfig())
	require.NoError(t, err)
	require.Contains(t, string(report), `"pack_bytes"`)
}

func TestInvalidInput(t *testing.T) {
	_, err := SBRToPack([]byte("not an sbr"), utils.DefaultConfig())
	require.Error(t, err)
	_, err = PackToSBR([]byte("QSTKPACK"))
	require.Error(t, err)
	_, err = PackToGLB(nil)
	require.Error(t, err)
}
