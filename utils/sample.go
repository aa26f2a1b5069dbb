package utils

import (
	"fmt"
	"io"
)

// RunSample prints the material at height h of cell (x, y), or "none" when
// nothing is stored there.
func RunSample(w io.Writer, inPath string, x, y int, h float32, conf Config) error {
	tree, err := LoadTree(inPath, conf)
	if err != nil {
		return err
	}
	if _, err := tree.Column(x, y); err != nil {
		return err
	}
	m, ok := tree.Sample(x, y, h)
	if !ok {
		_, err = fmt.Fprintln(w, "none")
		return err
	}
	_, err = fmt.Fprintln(w, m)
	return err
}
