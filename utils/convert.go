package utils

import (
	"bufio"
	"os"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/voxelsplace/quadstack/pack"
	"github.com/voxelsplace/quadstack/quadstack"
	"github.com/voxelsplace/quadstack/stack"
)

// Material is the material id type used by the command line tool.
type Material = int32

// ReadSBR loads a stack based representation in the text format.
func ReadSBR(path string) (*stack.Representation[Material], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rep, err := stack.ReadText[Material](bufio.NewReader(f))
	if err != nil {
		return nil, errors.New("reading sbr failed").
			WithTag("path", path).
			Wrap(err)
	}
	return rep, nil
}

// WriteSBR writes rep in the text format.
func WriteSBR(path string, rep *stack.Representation[Material]) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := stack.WriteText(f, rep); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadTree reads a pack and rebuilds its tree.
func LoadTree(path string, conf Config) (*quadstack.Tree[Material], error) {
	model, err := pack.Load[Material](path)
	if err != nil {
		return nil, errors.New("loading pack failed").
			WithTag("path", path).
			Wrap(err)
	}
	opts, err := conf.BuildOptions()
	if err != nil {
		return nil, err
	}
	return model.Tree(opts)
}

func buildAndSave(rep *stack.Representation[Material], outPath string, conf Config) error {
	opts, err := conf.BuildOptions()
	if err != nil {
		return err
	}
	comp, err := conf.PackCompression()
	if err != nil {
		return err
	}

	start := time.Now()
	tree, err := quadstack.Build(rep, opts)
	if err != nil {
		return err
	}
	model := pack.New(tree)
	if err := pack.Save(outPath, model, comp); err != nil {
		return err
	}

	mem := tree.MemorySize()
	logs.WithTag("model", model.ID.String()).
		WithTag("path", outPath).
		WithTag("sbr_bytes", rep.MemorySize()).
		WithTag("quadstack_bytes", mem.Total()).
		WithTag("duration", time.Since(start).String()).
		Info("quadstack saved")
	return nil
}

// RunSBR2QS compresses a text SBR into a pack.
func RunSBR2QS(inPath, outPath string, conf Config) error {
	rep, err := ReadSBR(inPath)
	if err != nil {
		return err
	}
	return buildAndSave(rep, outPath, conf)
}

// RunVox2QS compresses a raw voxel volume into a pack.
func RunVox2QS(inPath, outPath string, conf Config) error {
	v, err := stack.ReadBinaryVoxelsFile[Material](inPath)
	if err != nil {
		return err
	}
	return buildAndSave(stack.FromVoxels[Material](v), outPath, conf)
}

// RunVTK2QS compresses a legacy VTK structured points volume into a pack.
func RunVTK2QS(inPath, outPath string, conf Config) error {
	f, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer f.Close()

	v, err := stack.ReadVTK[Material](f)
	if err != nil {
		return errors.New("reading vtk failed").
			WithTag("path", inPath).
			Wrap(err)
	}
	return buildAndSave(stack.FromVoxels[Material](v), outPath, conf)
}

// RunQS2SBR expands a pack back into a text SBR.
func RunQS2SBR(inPath, outPath string, conf Config) error {
	tree, err := LoadTree(inPath, conf)
	if err != nil {
		return err
	}
	rep, err := Expand(tree)
	if err != nil {
		return err
	}
	return WriteSBR(outPath, rep)
}

// Expand rebuilds every column of tree.
func Expand(tree *quadstack.Tree[Material]) (*stack.Representation[Material], error) {
	rep := stack.NewRepresentation[Material](tree.Cols, tree.Rows, tree.Origin, tree.Spacing, tree.MinHeight, tree.MaxHeight)
	for y := 0; y < tree.Rows; y++ {
		for x := 0; x < tree.Cols; x++ {
			s, err := tree.Column(x, y)
			if err != nil {
				return nil, err
			}
			if err := rep.SetStack(x, y, s); err != nil {
				return nil, err
			}
		}
	}
	return rep, nil
}
