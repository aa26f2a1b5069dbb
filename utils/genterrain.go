package utils

import (
	"math"
	"math/rand"

	"github.com/voxelsplace/quadstack/stack"
)

// noiseCell is the size in cells of one lattice step of the value noise.
const noiseCell = 8

// heightStep quantizes generated boundaries.
const heightStep = 0.125

// valueNoise is a lattice of random values in [0, 1) sampled with bilinear
// interpolation.
type valueNoise struct {
	cols, rows int
	lattice    []float64
}

func newValueNoise(cols, rows int, r *rand.Rand) *valueNoise {
	n := &valueNoise{
		cols: cols/noiseCell + 2,
		rows: rows/noiseCell + 2,
	}
	n.lattice = make([]float64, n.cols*n.rows)
	for i := range n.lattice {
		n.lattice[i] = r.Float64()
	}
	return n
}

func (n *valueNoise) at(x, y int) float64 {
	fx, fy := float64(x)/noiseCell, float64(y)/noiseCell
	x0, y0 := int(fx), int(fy)
	tx, ty := fx-float64(x0), fy-float64(y0)
	v := func(i, j int) float64 { return n.lattice[i+j*n.cols] }
	top := v(x0, y0)*(1-tx) + v(x0+1, y0)*tx
	bottom := v(x0, y0+1)*(1-tx) + v(x0+1, y0+1)*tx
	return top*(1-ty) + bottom*ty
}

// GenerateTerrain builds a layered terrain of cols x rows cells. Each layer
// has a smooth thickness, thins out to nothing in places and switches to an
// alternate material over some patches, so that neighbouring columns share
// most but not all of their layers.
func GenerateTerrain(cols, rows, layers int, seed int64) *stack.Representation[Material] {
	r := rand.New(rand.NewSource(seed))
	thickness := make([]*valueNoise, layers)
	patches := make([]*valueNoise, layers)
	for l := range thickness {
		thickness[l] = newValueNoise(cols, rows, r)
		patches[l] = newValueNoise(cols, rows, r)
	}

	rep := stack.NewRepresentation[Material](cols, rows, [2]float32{}, [2]float32{1, 1}, 0, 0)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			var s stack.Stack[Material]
			h := 0.0
			for l := 0; l < layers; l++ {
				t := thickness[l].at(x, y)
				if l > 0 && t < 0.2 {
					continue
				}
				h += math.Round((0.5+3*t)/heightStep) * heightStep
				m := Material(l + 1)
				if patches[l].at(x, y) > 0.75 {
					m += 100
				}
				s.Add(m, float32(h))
			}
			rep.MaxHeight = max(rep.MaxHeight, s.TotalHeight())
			_ = rep.SetStack(x, y, s)
		}
	}
	return rep
}

// RunGenTerrain writes a generated terrain as text SBR.
func RunGenTerrain(cols, rows, layers int, seed int64, outPath string) error {
	return WriteSBR(outPath, GenerateTerrain(cols, rows, layers, seed))
}
