package heightfield

import (
	"encoding/binary"
	"math"
	"sort"
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

// NullData marks a sample that carries no height.
const NullData float32 = -999

// Quadrants of a field, using the same split as the quadtree: the first half
// of each axis is [0, n/2).
const (
	NW = iota
	NE
	SW
	SE
)

// HeightField is a dense grid of boundary heights over a rectangular
// footprint. Samples are stored at col + row*Cols.
//
// Once compressed, the raw buffer is released and every read goes through the
// attached Compressor.
type HeightField struct {
	Origin   [2]float32
	Spacing  [2]float32
	Cols     int
	Rows     int
	Min      float32
	Max      float32
	NullData float32

	data []float32
	comp *Compressor

	resolution float32
	resolved   bool
}

// New returns a cols x rows field filled with NullData.
func New(cols, rows int, origin, spacing [2]float32) *HeightField {
	f := &HeightField{
		Origin:   origin,
		Spacing:  spacing,
		Cols:     cols,
		Rows:     rows,
		NullData: NullData,
		data:     make([]float32, cols*rows),
	}
	f.Fill(NullData)
	return f
}

// FromValues wraps values, stored at col + row*cols, in a field with unit
// spacing.
func FromValues(cols, rows int, values []float32) *HeightField {
	f := &HeightField{
		Spacing:  [2]float32{1, 1},
		Cols:     cols,
		Rows:     rows,
		NullData: NullData,
		data:     values,
	}
	f.updateBounds()
	return f
}

// FromCompressor rebuilds a compressed field from its codec.
func FromCompressor(c *Compressor, origin, spacing [2]float32, lo, hi float32) *HeightField {
	return &HeightField{
		Origin:   origin,
		Spacing:  spacing,
		Cols:     c.cols,
		Rows:     c.rows,
		Min:      lo,
		Max:      hi,
		NullData: NullData,
		comp:     c,
	}
}

func (f *HeightField) Len() int { return f.Cols * f.Rows }

// At returns the sample at (col, row).
func (f *HeightField) At(col, row int) float32 {
	if f.comp != nil {
		return f.comp.At(col, row)
	}
	return f.data[col+row*f.Cols]
}

// Set writes one sample. A compressed field is decompressed first.
func (f *HeightField) Set(col, row int, v float32) {
	f.Decompress()
	f.data[col+row*f.Cols] = v
	f.resolved = false
	if v == f.NullData {
		return
	}
	if f.Min == f.NullData && f.Max == f.NullData {
		f.Min, f.Max = v, v
		return
	}
	f.Min = min(f.Min, v)
	f.Max = max(f.Max, v)
}

func (f *HeightField) Fill(v float32) {
	f.Decompress()
	for i := range f.data {
		f.data[i] = v
	}
	f.resolved = false
	f.updateBounds()
}

// Values returns a decoded copy of every sample.
func (f *HeightField) Values() []float32 {
	if f.comp == nil {
		return append([]float32(nil), f.data...)
	}
	out := make([]float32, f.Len())
	for row := 0; row < f.Rows; row++ {
		for col := 0; col < f.Cols; col++ {
			out[col+row*f.Cols] = f.comp.At(col, row)
		}
	}
	return out
}

// Copy returns a deep, uncompressed copy of f.
func (f *HeightField) Copy() *HeightField {
	c := *f
	c.data = f.Values()
	c.comp = nil
	return &c
}

// Crop returns the sub rectangle [minX,maxX) x [minY,maxY) as a new field.
func (f *HeightField) Crop(minX, minY, maxX, maxY int) *HeightField {
	c := &HeightField{
		Origin: [2]float32{
			f.Origin[0] + float32(minX)*f.Spacing[0],
			f.Origin[1] + float32(minY)*f.Spacing[1],
		},
		Spacing:  f.Spacing,
		Cols:     maxX - minX,
		Rows:     maxY - minY,
		NullData: f.NullData,
		data:     make([]float32, (maxX-minX)*(maxY-minY)),
	}
	for row := minY; row < maxY; row++ {
		for col := minX; col < maxX; col++ {
			c.data[(col-minX)+(row-minY)*c.Cols] = f.At(col, row)
		}
	}
	c.updateBounds()
	return c
}

// Quadrant returns one of NW, NE, SW or SE. Quadrants of a field narrower
// than two cells may be empty.
func (f *HeightField) Quadrant(q int) *HeightField {
	hx, hy := f.Cols/2, f.Rows/2
	switch q {
	case NW:
		return f.Crop(0, hy, hx, f.Rows)
	case NE:
		return f.Crop(hx, hy, f.Cols, f.Rows)
	case SW:
		return f.Crop(0, 0, hx, hy)
	default:
		return f.Crop(hx, 0, f.Cols, hy)
	}
}

// Window returns the cols x rows rectangle starting at (dx, dy).
func (f *HeightField) Window(dx, dy, cols, rows int) *HeightField {
	return f.Crop(dx, dy, dx+cols, dy+rows)
}

// Paste copies src into f with its first sample at (dx, dy).
func (f *HeightField) Paste(src *HeightField, dx, dy int) {
	f.Decompress()
	for row := 0; row < src.Rows; row++ {
		for col := 0; col < src.Cols; col++ {
			f.data[(col+dx)+(row+dy)*f.Cols] = src.At(col, row)
		}
	}
	f.resolved = false
	f.updateBounds()
}

// Equal reports whether both fields have the same dimensions and samples.
func (f *HeightField) Equal(o *HeightField) bool {
	if f.Cols != o.Cols || f.Rows != o.Rows {
		return false
	}
	return f.EqualWindow(o, 0, 0)
}

// EqualWindow reports whether f matches the window of o starting at (dx, dy).
func (f *HeightField) EqualWindow(o *HeightField, dx, dy int) bool {
	if dx < 0 || dy < 0 || dx+f.Cols > o.Cols || dy+f.Rows > o.Rows {
		return false
	}
	for row := 0; row < f.Rows; row++ {
		for col := 0; col < f.Cols; col++ {
			if f.At(col, row) != o.At(col+dx, row+dy) {
				return false
			}
		}
	}
	return true
}

// Fingerprint hashes the dimensions and samples of f.
func (f *HeightField) Fingerprint() uint64 {
	d := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[:4], uint32(f.Cols))
	binary.LittleEndian.PutUint32(buf[4:], uint32(f.Rows))
	d.Write(buf[:])
	for _, v := range f.Values() {
		binary.LittleEndian.PutUint32(buf[:4], math.Float32bits(v))
		d.Write(buf[:4])
	}
	return d.Sum64()
}

// Resolution returns the smallest nonzero absolute difference between two
// samples, or 0 when every sample is equal. NullData samples are ignored.
// The value is memoized.
func (f *HeightField) Resolution() float32 {
	if f.resolved {
		return f.resolution
	}
	values := f.Values()
	n := 0
	for _, v := range values {
		if v != f.NullData {
			values[n] = v
			n++
		}
	}
	values = values[:n]
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	var res float32
	for i := 1; i < len(values); i++ {
		d := values[i] - values[i-1]
		if d > 0 && (res == 0 || d < res) {
			res = d
		}
	}
	f.resolution = res
	f.resolved = true
	return res
}

// Compress encodes f with offset as quantization step and releases the raw
// samples.
func (f *HeightField) Compress(offset float32, opts Options) *Compressor {
	f.Resolution()
	c := NewCompressor(f, offset, opts)
	f.comp = c
	f.data = nil
	return c
}

// Decompress restores the raw samples of a compressed field.
func (f *HeightField) Decompress() {
	if f.comp == nil {
		return
	}
	f.data = f.Values()
	f.comp = nil
}

func (f *HeightField) Compressor() *Compressor { return f.comp }

func (f *HeightField) IsCompressed() bool { return f.comp != nil }

// MemorySize is the number of bytes held by the samples, or by the codec once
// compressed.
func (f *HeightField) MemorySize() int {
	size := int(unsafe.Sizeof(*f))
	if f.comp != nil {
		return size + f.comp.MemorySize()
	}
	return size + 4*len(f.data)
}

func (f *HeightField) updateBounds() {
	f.Min, f.Max = f.NullData, f.NullData
	first := true
	for _, v := range f.data {
		if v == f.NullData {
			continue
		}
		if first {
			f.Min, f.Max = v, v
			first = false
			continue
		}
		f.Min = min(f.Min, v)
		f.Max = max(f.Max, v)
	}
}
