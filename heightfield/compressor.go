package heightfield

import (
	"fmt"
	"math"
	"math/bits"
	"unsafe"

	"github.com/voxelsplace/quadstack/morton"
)

// DefaultBlockSize is the block width and height used when none is set.
const DefaultBlockSize = 8

// rawBits marks a block whose values are stored as IEEE-754 bit patterns.
const rawBits = 32

// maxQuantBits is the widest quantized block before falling back to raw.
const maxQuantBits = 24

// Policy selects how quantized values are laid out in words.
type Policy uint8

const (
	// Dense packs values contiguously; a value may straddle two words.
	Dense Policy = iota
	// WordAligned starts every block on a word boundary and never splits a
	// value across words.
	WordAligned
)

func (p Policy) String() string {
	switch p {
	case Dense:
		return "dense"
	case WordAligned:
		return "word-aligned"
	default:
		return fmt.Sprintf("policy(%d)", uint8(p))
	}
}

// ParsePolicy parses the String form of a policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "dense":
		return Dense, nil
	case "word-aligned", "aligned":
		return WordAligned, nil
	default:
		return Dense, fmt.Errorf("unknown packing policy %q", s)
	}
}

// Options configures a Compressor.
type Options struct {
	BlockCols int
	BlockRows int
	Policy    Policy
}

// DefaultOptions returns 8x8 dense blocks.
func DefaultOptions() Options {
	return Options{
		BlockCols: DefaultBlockSize,
		BlockRows: DefaultBlockSize,
		Policy:    Dense,
	}
}

// BlockHeader describes one encoded block: its minimum, the width of every
// quantized value and the bit offset of its first value.
type BlockHeader struct {
	Base    float32
	Bits    uint8
	Pointer uint32
}

// Compressor is a block based, random access codec for one field. Cells are
// visited in Morton order and grouped into blocks of consecutive codes. Each
// value is stored as round((v-base)/offset) in the smallest width that holds
// the block maximum.
type Compressor struct {
	cols, rows int
	blockCols  int
	blockRows  int
	blockSize  int
	offset     float32
	policy     Policy
	curve      *morton.Curve
	blocks     []BlockHeader
	words      []uint32
}

func newCompressor(cols, rows int, offset float32, opts Options) *Compressor {
	if opts.BlockCols <= 0 {
		opts.BlockCols = DefaultBlockSize
	}
	if opts.BlockRows <= 0 {
		opts.BlockRows = DefaultBlockSize
	}
	c := &Compressor{
		cols:      cols,
		rows:      rows,
		blockCols: min(opts.BlockCols, cols),
		blockRows: min(opts.BlockRows, rows),
		offset:    offset,
		policy:    opts.Policy,
		curve:     morton.For(cols, rows),
	}
	c.blockSize = c.blockCols * c.blockRows
	if cols <= 1 || rows <= 1 {
		c.blockSize = 1
	}
	return c
}

// NewCompressor encodes every sample of f.
func NewCompressor(f *HeightField, offset float32, opts Options) *Compressor {
	c := newCompressor(f.Cols, f.Rows, offset, opts)
	n := f.Len()
	if n == 0 {
		return c
	}

	ordered := make([]float32, n)
	for code := range ordered {
		col, row := c.curve.Decode(code)
		ordered[code] = f.At(col, row)
	}

	w := newBitWriter(n / 4)
	c.blocks = make([]BlockHeader, 0, (n+c.blockSize-1)/c.blockSize)
	for start := 0; start < n; start += c.blockSize {
		end := min(start+c.blockSize, n)
		c.blocks = append(c.blocks, c.encodeBlock(w, ordered[start:end]))
	}
	c.words = w.finish()
	return c
}

// RestoreCompressor rebuilds a codec from previously encoded blocks and
// words.
func RestoreCompressor(cols, rows int, offset float32, opts Options, blocks []BlockHeader, words []uint32) *Compressor {
	c := newCompressor(cols, rows, offset, opts)
	c.blocks = blocks
	c.words = words
	return c
}

func (c *Compressor) encodeBlock(w *bitWriter, values []float32) BlockHeader {
	base := values[0]
	for _, v := range values[1:] {
		base = min(base, v)
	}

	quant := make([]uint32, len(values))
	width, ok := c.quantize(base, values, quant)
	if !ok {
		width = rawBits
		for i, v := range values {
			quant[i] = math.Float32bits(v)
		}
	}

	h := BlockHeader{Base: base, Bits: width}
	if width == 0 {
		return h
	}
	if c.policy == WordAligned {
		w.align()
	}
	h.Pointer = w.pos()

	perWord := 32 / int(width)
	for i, q := range quant {
		if c.policy == WordAligned && i > 0 && i%perWord == 0 {
			w.align()
		}
		w.writeBits(q, width)
	}
	return h
}

// quantize fills quant and reports the bit width, or false when the block
// cannot be reproduced exactly.
func (c *Compressor) quantize(base float32, values []float32, quant []uint32) (uint8, bool) {
	allEqual := true
	for _, v := range values {
		if v != base {
			allEqual = false
			break
		}
	}
	if allEqual && !math.IsNaN(float64(base)) {
		return 0, true
	}
	if !(c.offset > 0) || math.IsInf(float64(c.offset), 0) {
		return 0, false
	}

	var maxQ uint32
	for i, v := range values {
		q := math.Round((float64(v) - float64(base)) / float64(c.offset))
		if !(q >= 0) || q >= 1<<maxQuantBits {
			return 0, false
		}
		quant[i] = uint32(q)
		if reconstruct(base, c.offset, quant[i]) != v {
			return 0, false
		}
		maxQ = max(maxQ, quant[i])
	}
	return uint8(bits.Len32(maxQ)), true
}

func reconstruct(base, offset float32, q uint32) float32 {
	return float32(float64(base) + float64(q)*float64(offset))
}

// At decodes the sample at (col, row). It does not mutate the codec.
func (c *Compressor) At(col, row int) float32 {
	code := c.curve.Encode(col, row)
	h := c.blocks[code/c.blockSize]
	if h.Bits == 0 {
		return h.Base
	}
	within := uint32(code % c.blockSize)

	pos := h.Pointer + within*uint32(h.Bits)
	if c.policy == WordAligned {
		perWord := 32 / uint32(h.Bits)
		pos = h.Pointer + (within/perWord)*32 + (within%perWord)*uint32(h.Bits)
	}

	q := readBits(c.words, pos, h.Bits)
	if h.Bits == rawBits {
		return math.Float32frombits(q)
	}
	return reconstruct(h.Base, c.offset, q)
}

func (c *Compressor) Blocks() []BlockHeader { return c.blocks }

func (c *Compressor) Words() []uint32 { return c.words }

// BlockSize returns the clamped block width and height.
func (c *Compressor) BlockSize() (cols, rows int) { return c.blockCols, c.blockRows }

func (c *Compressor) Policy() Policy { return c.policy }

func (c *Compressor) Offset() float32 { return c.offset }

// MemorySize is the number of bytes held by the block headers and words.
func (c *Compressor) MemorySize() int {
	return len(c.blocks)*int(unsafe.Sizeof(BlockHeader{})) + 4*len(c.words)
}
