package stack

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// WriteText writes r in the line oriented SBR interchange format:
//
//	Origin x y
//	Dimension cols rows
//	Spacing x y
//	Height min max
//
// followed by one line per cell (rows outer, columns inner) of
// "material|height$" tokens. Empty cells are written as the Unknown material
// at the max height.
func WriteText[M Material](w io.Writer, r *Representation[M]) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("Origin " + formatFloat(r.Origin[0]) + " " + formatFloat(r.Origin[1]) + "\n")
	bw.WriteString("Dimension " + strconv.Itoa(r.Cols) + " " + strconv.Itoa(r.Rows) + "\n")
	bw.WriteString("Spacing " + formatFloat(r.Spacing[0]) + " " + formatFloat(r.Spacing[1]) + "\n")
	bw.WriteString("Height " + formatFloat(r.MinHeight) + " " + formatFloat(r.MaxHeight) + "\n")

	for row := 0; row < r.Rows; row++ {
		for col := 0; col < r.Cols; col++ {
			s := r.At(col, row)
			if len(s) == 0 {
				bw.WriteString(strconv.Itoa(Unknown) + "|" + formatFloat(r.MaxHeight) + "$")
			}
			for _, iv := range s {
				bw.WriteString(strconv.FormatInt(int64(iv.Material), 10))
				bw.WriteByte('|')
				bw.WriteString(formatFloat(iv.Height))
				bw.WriteByte('$')
			}
			bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

// ReadText parses the SBR interchange format written by WriteText. A cell
// holding only the Unknown sentinel is read back as an empty stack.
func ReadText[M Material](rd io.Reader) (*Representation[M], error) {
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var (
		origin, spacing [2]float32
		dims            [2]int
		heights         [2]float32
	)
	headers := []struct {
		key   string
		parse func(a, b string) error
	}{
		{"Origin", func(a, b string) error { return parsePair(a, b, &origin) }},
		{"Dimension", func(a, b string) error {
			var err error
			if dims[0], err = strconv.Atoi(a); err != nil {
				return err
			}
			dims[1], err = strconv.Atoi(b)
			return err
		}},
		{"Spacing", func(a, b string) error { return parsePair(a, b, &spacing) }},
		{"Height", func(a, b string) error { return parsePair(a, b, &heights) }},
	}

	for _, h := range headers {
		if !sc.Scan() {
			return nil, errors.New("sbr header is truncated").
				WithType(ErrTypeMalformed).
				WithTag("expected", h.key).
				Wrap(scanErr(sc))
		}
		fields := strings.Fields(sc.Text())
		if len(fields) != 3 || fields[0] != h.key {
			return nil, errors.New("invalid sbr header line").
				WithType(ErrTypeMalformed).
				WithTag("expected", h.key).
				WithTag("line", sc.Text())
		}
		if err := h.parse(fields[1], fields[2]); err != nil {
			return nil, errors.New("invalid sbr header value").
				WithType(ErrTypeMalformed).
				WithTag("key", h.key).
				Wrap(err)
		}
	}
	if dims[0] < 0 || dims[1] < 0 {
		return nil, errors.New("negative sbr dimension").
			WithType(ErrTypeMalformed).
			WithTag("dimension", dims)
	}

	r := NewRepresentation[M](dims[0], dims[1], origin, spacing, heights[0], heights[1])
	for row := 0; row < r.Rows; row++ {
		for col := 0; col < r.Cols; col++ {
			if !sc.Scan() {
				return nil, errors.New("sbr data is truncated").
					WithType(ErrTypeMalformed).
					WithTag("col", col).
					WithTag("row", row).
					Wrap(scanErr(sc))
			}
			s, err := parseCell[M](sc.Text())
			if err != nil {
				return nil, errors.New("invalid sbr cell").
					WithType(ErrTypeMalformed).
					WithTag("col", col).
					WithTag("row", row).
					Wrap(err)
			}
			r.stacks[col+row*r.Cols] = s
		}
	}
	return r, nil
}

func scanErr(sc *bufio.Scanner) error {
	if err := sc.Err(); err != nil {
		return err
	}
	return io.ErrUnexpectedEOF
}

func parsePair(a, b string, dst *[2]float32) error {
	x, err := strconv.ParseFloat(a, 32)
	if err != nil {
		return err
	}
	y, err := strconv.ParseFloat(b, 32)
	if err != nil {
		return err
	}
	dst[0], dst[1] = float32(x), float32(y)
	return nil
}

func parseCell[M Material](line string) (Stack[M], error) {
	var s Stack[M]
	tokens := strings.Split(strings.TrimSpace(line), "$")
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		mat, height, ok := strings.Cut(tok, "|")
		if !ok {
			return nil, errors.Newf("token %q has no height", tok)
		}
		m, err := strconv.ParseInt(mat, 10, 64)
		if err != nil {
			return nil, err
		}
		h, err := strconv.ParseFloat(height, 32)
		if err != nil {
			return nil, err
		}
		s.Add(M(m), float32(h))
	}
	if s.IsUnknown() {
		return nil, nil
	}
	return s, nil
}
