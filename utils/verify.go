package utils

import (
	"context"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/voxelsplace/quadstack/quadstack"
	"github.com/voxelsplace/quadstack/stack"
	"golang.org/x/sync/errgroup"
)

// ErrTypeMismatch is the type of errors returned when a tree does not
// reproduce its source.
const ErrTypeMismatch = "quadstack_verify_mismatch"

// RunVerify checks that the pack at qsPath reproduces every column of the
// SBR at sbrPath.
func RunVerify(ctx context.Context, sbrPath, qsPath string, conf Config) error {
	rep, err := ReadSBR(sbrPath)
	if err != nil {
		return err
	}
	tree, err := LoadTree(qsPath, conf)
	if err != nil {
		return err
	}
	if err := Verify(ctx, rep, tree, conf.Workers); err != nil {
		return err
	}
	logs.WithTag("sbr", sbrPath).
		WithTag("pack", qsPath).
		WithTag("cells", rep.Cols*rep.Rows).
		Info("pack verified")
	return nil
}

// Verify compares rep and tree row by row on up to workers goroutines and
// stops at the first mismatch. The tree is only read.
func Verify(ctx context.Context, rep *stack.Representation[Material], tree *quadstack.Tree[Material], workers int) error {
	if rep.Cols != tree.Cols || rep.Rows != tree.Rows {
		return errors.New("dimensions differ").
			WithType(ErrTypeMismatch).
			WithTag("sbr", [2]int{rep.Cols, rep.Rows}).
			WithTag("quadstack", [2]int{tree.Cols, tree.Rows})
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for y := 0; y < rep.Rows; y++ {
		y := y
		g.Go(func() error {
			for x := 0; x < rep.Cols; x++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := verifyCell(rep, tree, x, y); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func verifyCell(rep *stack.Representation[Material], tree *quadstack.Tree[Material], x, y int) error {
	want := rep.At(x, y)
	got, err := tree.Column(x, y)
	if err != nil {
		return err
	}
	if len(got) != len(want) {
		return errors.New("column length differs").
			WithType(ErrTypeMismatch).
			WithTag("x", x).
			WithTag("y", y).
			WithTag("expected_intervals", len(want)).
			WithTag("intervals", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			return errors.New("column interval differs").
				WithType(ErrTypeMismatch).
				WithTag("x", x).
				WithTag("y", y).
				WithTag("interval", i).
				WithTag("expected_material", want[i].Material).
				WithTag("material", got[i].Material).
				WithTag("expected_height", want[i].Height).
				WithTag("height", got[i].Height)
		}
	}
	return nil
}
