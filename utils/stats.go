package utils

import (
	"io"
	"math"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/segmentio/encoding/json"
	"github.com/voxelsplace/quadstack/octree"
	"github.com/voxelsplace/quadstack/pack"
	"github.com/voxelsplace/quadstack/quadstack"
	"github.com/voxelsplace/quadstack/stack"
)

// maxVoxels bounds the volume rasterized for the voxel and octree figures.
const maxVoxels = 1 << 26

// Report compares the footprint of one terrain in every representation.
type Report struct {
	Cols       int     `json:"cols"`
	Rows       int     `json:"rows"`
	Intervals  int     `json:"intervals"`
	Resolution float32 `json:"resolution"`

	VoxelLayers  int `json:"voxel_layers"`
	VoxelBytes   int `json:"voxel_bytes"`
	OctreeNodes  int `json:"octree_nodes"`
	OctreeLeaves int `json:"octree_leaves"`
	OctreeBytes  int `json:"octree_bytes"`

	SBRBytes   int                    `json:"sbr_bytes"`
	QuadStack  quadstack.MemoryReport `json:"quadstack"`
	Leaves     int                    `json:"leaves"`
	TreeHeight int                    `json:"tree_height"`
	Fields     int                    `json:"fields"`
	PackBytes  int                    `json:"pack_bytes"`
}

// RunStats builds the quadstack of an SBR and writes a JSON size report.
func RunStats(w io.Writer, inPath string, conf Config) error {
	rep, err := ReadSBR(inPath)
	if err != nil {
		return err
	}
	r, err := Stats(rep, conf)
	if err != nil {
		return err
	}

	var data []byte
	if conf.LogIndent {
		data, err = json.MarshalIndent(r, "", "  ")
	} else {
		data, err = json.Marshal(r)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// Stats computes the report of rep.
func Stats(rep *stack.Representation[Material], conf Config) (Report, error) {
	opts, err := conf.BuildOptions()
	if err != nil {
		return Report{}, err
	}
	comp, err := conf.PackCompression()
	if err != nil {
		return Report{}, err
	}
	tree, err := quadstack.Build(rep, opts)
	if err != nil {
		return Report{}, err
	}

	r := Report{
		Cols:       rep.Cols,
		Rows:       rep.Rows,
		Resolution: tree.HeightResolution(),
		SBRBytes:   rep.MemorySize(),
		QuadStack:  tree.MemorySize(),
		Leaves:     tree.Leaves(),
		TreeHeight: tree.TreeHeight(),
		Fields:     len(tree.Fields()),
	}
	for y := 0; y < rep.Rows; y++ {
		for x := 0; x < rep.Cols; x++ {
			r.Intervals += len(rep.At(x, y))
		}
	}

	data, err := pack.Marshal(pack.New(tree), comp)
	if err != nil {
		return Report{}, err
	}
	r.PackBytes = len(data)

	dz := r.Resolution
	if dz <= 0 {
		dz = rep.MaxHeight - rep.MinHeight
	}
	if dz > 0 {
		layers := int(math.Round(float64((rep.MaxHeight - rep.MinHeight) / dz)))
		if layers*rep.Cols*rep.Rows > maxVoxels {
			logs.WithTag("layers", layers).
				WithTag("cells", rep.Cols*rep.Rows).
				Warn("volume too large, skipping voxel and octree sizes")
			return r, nil
		}
		v := rep.ToVoxels(dz)
		oct := octree.Build[Material](v)
		r.VoxelLayers = layers
		r.VoxelBytes = v.MemorySize()
		r.OctreeNodes = oct.Nodes()
		r.OctreeLeaves = oct.Leaves()
		r.OctreeBytes = oct.MemorySize()
	}
	return r, nil
}
