package stack

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// ReadVTK parses a legacy ASCII VTK STRUCTURED_POINTS file holding one
// CELL_DATA scalar per voxel. Point dimensions are converted to cell counts.
// Scalars are stored in file order, which matches the VoxelModel layout.
func ReadVTK[M Material](r io.Reader) (*VoxelModel[M], error) {
	br := bufio.NewReader(r)
	for i := 0; i < 4; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			return nil, malformed("vtk header is truncated", err)
		}
	}
	rest, err := io.ReadAll(br)
	if err != nil {
		return nil, malformed("reading vtk body failed", err)
	}
	tokens := strings.Fields(string(rest))
	pos := 0

	next := func() (string, error) {
		if pos >= len(tokens) {
			return "", io.ErrUnexpectedEOF
		}
		t := tokens[pos]
		pos++
		return t, nil
	}
	ints := func(n int) ([]int, error) {
		out := make([]int, n)
		for i := range out {
			t, err := next()
			if err != nil {
				return nil, err
			}
			if out[i], err = strconv.Atoi(t); err != nil {
				return nil, err
			}
		}
		return out, nil
	}
	floats := func(n int) ([3]float32, error) {
		var out [3]float32
		for i := 0; i < n; i++ {
			t, err := next()
			if err != nil {
				return out, err
			}
			f, err := strconv.ParseFloat(t, 32)
			if err != nil {
				return out, err
			}
			out[i] = float32(f)
		}
		return out, nil
	}
	expect := func(keyword string) error {
		t, err := next()
		if err != nil {
			return err
		}
		if !strings.EqualFold(t, keyword) {
			return fmt.Errorf("expected %s, found %q", keyword, t)
		}
		return nil
	}

	var (
		dims            []int
		spacing, origin [3]float32
		count           []int
		attribute       string
	)
	if err := expect("DIMENSIONS"); err != nil {
		return nil, malformed("vtk dimensions", err)
	}
	if dims, err = ints(3); err != nil {
		return nil, malformed("vtk dimensions", err)
	}
	if err := expect("SPACING"); err != nil {
		return nil, malformed("vtk spacing", err)
	}
	if spacing, err = floats(3); err != nil {
		return nil, malformed("vtk spacing", err)
	}
	if err := expect("ORIGIN"); err != nil {
		return nil, malformed("vtk origin", err)
	}
	if origin, err = floats(3); err != nil {
		return nil, malformed("vtk origin", err)
	}
	if err := expect("CELL_DATA"); err != nil {
		return nil, malformed("vtk cell data", err)
	}
	if count, err = ints(1); err != nil {
		return nil, malformed("vtk cell data", err)
	}
	if err := expect("SCALARS"); err != nil {
		return nil, malformed("vtk scalars", err)
	}
	if attribute, err = next(); err != nil {
		return nil, malformed("vtk scalars", err)
	}
	if _, err = next(); err != nil { // scalar type
		return nil, malformed("vtk scalars", err)
	}
	// the lookup table line may be preceded by an optional component count
	for {
		t, err := next()
		if err != nil {
			return nil, malformed("vtk lookup table", err)
		}
		if strings.EqualFold(t, "LOOKUP_TABLE") {
			break
		}
	}
	if _, err = next(); err != nil {
		return nil, malformed("vtk lookup table", err)
	}

	v := NewVoxelModel[M](max(dims[0]-1, 0), max(dims[1]-1, 0), max(dims[2]-1, 0), spacing, origin)
	v.Attribute = attribute
	if count[0] != len(v.Data) {
		return nil, errors.New("vtk cell count does not match dimensions").
			WithType(ErrTypeMalformed).
			WithTag("cells", count[0]).
			WithTag("expected", len(v.Data))
	}
	for i := range v.Data {
		t, err := next()
		if err != nil {
			return nil, malformed("vtk data is truncated", err)
		}
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return nil, malformed("vtk data", err)
		}
		v.Data[i] = M(n)
	}
	return v, nil
}

// WriteVTK writes v as a legacy ASCII STRUCTURED_POINTS file.
func WriteVTK[M Material](w io.Writer, v *VoxelModel[M]) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# vtk DataFile Version 3.0")
	fmt.Fprintln(bw, "dataset")
	fmt.Fprintln(bw, "ASCII")
	fmt.Fprintln(bw, "DATASET STRUCTURED_POINTS")
	fmt.Fprintf(bw, "DIMENSIONS %d %d %d\n", v.Dim[0]+1, v.Dim[1]+1, v.Dim[2]+1)
	fmt.Fprintf(bw, "SPACING %g %g %g\n", v.Space[0], v.Space[1], v.Space[2])
	fmt.Fprintf(bw, "ORIGIN %g %g %g\n", v.Orig[0], v.Orig[1], v.Orig[2])
	fmt.Fprintf(bw, "CELL_DATA %d\n", len(v.Data))
	fmt.Fprintf(bw, "SCALARS %s int\n", v.Attribute)
	fmt.Fprintln(bw, "LOOKUP_TABLE default")
	for i, m := range v.Data {
		if i > 0 {
			bw.WriteByte(' ')
		}
		bw.WriteString(strconv.FormatInt(int64(m), 10))
	}
	bw.WriteByte('\n')
	return bw.Flush()
}

func malformed(msg string, err error) error {
	return errors.New(msg).
		WithType(ErrTypeMalformed).
		Wrap(err)
}
