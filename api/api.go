// Package api exposes the tool's conversions on in-memory buffers.
package api

import (
	"bytes"

	"github.com/segmentio/encoding/json"
	"github.com/voxelsplace/quadstack/mesh"
	"github.com/voxelsplace/quadstack/pack"
	"github.com/voxelsplace/quadstack/quadstack"
	"github.com/voxelsplace/quadstack/stack"
	"github.com/voxelsplace/quadstack/utils"
)

// SBRToPack compresses a text SBR into pack bytes.
func SBRToPack(sbr []byte, conf utils.Config) ([]byte, error) {
	rep, err := stack.ReadText[utils.Material](bytes.NewReader(sbr))
	if err != nil {
		return nil, err
	}
	opts, err := conf.BuildOptions()
	if err != nil {
		return nil, err
	}
	comp, err := conf.PackCompression()
	if err != nil {
		return nil, err
	}
	tree, err := quadstack.Build(rep, opts)
	if err != nil {
		return nil, err
	}
	return pack.Marshal(pack.New(tree), comp)
}

func loadTree(data []byte) (*quadstack.Tree[utils.Material], error) {
	model, _, err := pack.Unmarshal[utils.Material](data)
	if err != nil {
		return nil, err
	}
	return model.Tree(quadstack.DefaultOptions())
}

// PackToSBR expands pack bytes back into a text SBR.
func PackToSBR(data []byte) ([]byte, error) {
	tree, err := loadTree(data)
	if err != nil {
		return nil, err
	}
	rep, err := utils.Expand(tree)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := stack.WriteText(&out, rep); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// PackToGLB meshes pack bytes into a binary glTF.
func PackToGLB(data []byte) ([]byte, error) {
	tree, err := loadTree(data)
	if err != nil {
		return nil, err
	}
	m, err := mesh.Generate(tree)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := mesh.WriteGLB(&out, m); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Sample returns the material at height h of cell (x, y) of a pack.
func Sample(data []byte, x, y int, h float32) (utils.Material, bool, error) {
	tree, err := loadTree(data)
	if err != nil {
		return 0, false, err
	}
	if _, err := tree.Column(x, y); err != nil {
		return 0, false, err
	}
	m, ok := tree.Sample(x, y, h)
	return m, ok, nil
}

// Stats returns the JSON size report of a text SBR.
func Stats(sbr []byte, conf utils.Config) ([]byte, error) {
	rep, err := stack.ReadText[utils.Material](bytes.NewReader(sbr))
	if err != nil {
		return nil, err
	}
	r, err := utils.Stats(rep, conf)
	if err != nil {
		return nil, err
	}
	return json.Marshal(r)
}
