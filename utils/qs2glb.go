package utils

import (
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/voxelsplace/quadstack/mesh"
)

// RunQS2GLB meshes the layer boundaries of a pack into a binary glTF file.
func RunQS2GLB(inPath, outPath string, conf Config) error {
	tree, err := LoadTree(inPath, conf)
	if err != nil {
		return err
	}
	m, err := mesh.Generate(tree)
	if err != nil {
		return err
	}
	if err := mesh.SaveGLB(outPath, m); err != nil {
		return err
	}
	logs.WithTag("path", outPath).
		WithTag("quads", m.Quads()).
		Info("glb saved")
	return nil
}
