// Package pack persists compressed quadstacks. A pack is the magic, a version
// byte, a compression byte and the (possibly compressed) content. The content
// ends with an xxhash64 checksum of everything before it.
package pack

import (
	"bytes"
	"encoding/binary"
	"io"
	"unsafe"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/voxelsplace/quadstack/heightfield"
	"github.com/voxelsplace/quadstack/quadstack"
	"github.com/voxelsplace/quadstack/stack"
)

const (
	// ErrTypeFormat is the type of errors returned for data that is not a
	// valid pack.
	ErrTypeFormat = "pack_invalid_format"
	// ErrTypeChecksum is the type of errors returned when the content does
	// not match its checksum.
	ErrTypeChecksum = "pack_checksum_mismatch"
)

const (
	magic   = "QSTKPACK"
	version = 1

	headerSize   = len(magic) + 2
	checksumSize = 8
)

// Model is a persisted terrain: an identifier and the flat tree.
type Model[M stack.Material] struct {
	ID     uuid.UUID
	Layout *quadstack.Layout[M]
}

// New exports t under a fresh identifier.
func New[M stack.Material](t *quadstack.Tree[M]) *Model[M] {
	return &Model[M]{
		ID:     uuid.New(),
		Layout: t.Export(false),
	}
}

// Tree rebuilds a sampleable tree from the model.
func (m *Model[M]) Tree(opts quadstack.Options) (*quadstack.Tree[M], error) {
	return quadstack.FromLayout(m.Layout, opts)
}

func materialWidth[M stack.Material]() uint8 {
	var m M
	return uint8(unsafe.Sizeof(m))
}

type terrainHeader struct {
	Cols       int32
	Rows       int32
	Origin     [2]float32
	Spacing    [2]float32
	MinHeight  float32
	MaxHeight  float32
	Resolution float32
}

type intervalRecord struct {
	Kind       uint8
	FieldSlice int32
	OwnerLevel int32
	DX, DY     int32
}

type fieldRecord struct {
	Cols      int32
	Rows      int32
	Origin    [2]float32
	Min       float32
	Max       float32
	Offset    float32
	BlockCols int32
	BlockRows int32
	Policy    uint8
	Blocks    uint32
	Words     uint32
}

// Marshal encodes m. With Best every codec is tried and the smallest output
// wins.
func Marshal[M stack.Material](m *Model[M], comp Compression) ([]byte, error) {
	if m.Layout == nil {
		return nil, errors.New("model has no layout").WithType(ErrTypeFormat)
	}
	l := m.Layout

	var content bytes.Buffer
	content.Write(m.ID[:])
	content.WriteByte(materialWidth[M]())
	_ = binary.Write(&content, binary.LittleEndian, terrainHeader{
		Cols:       l.Cols,
		Rows:       l.Rows,
		Origin:     l.Origin,
		Spacing:    l.Spacing,
		MinHeight:  l.MinHeight,
		MaxHeight:  l.MaxHeight,
		Resolution: l.Resolution,
	})

	_ = binary.Write(&content, binary.LittleEndian, uint32(len(l.Nodes)))
	_ = binary.Write(&content, binary.LittleEndian, l.Nodes)

	_ = binary.Write(&content, binary.LittleEndian, uint32(len(l.Intervals)))
	for _, iv := range l.Intervals {
		writeMaterial(&content, iv.Material)
		_ = binary.Write(&content, binary.LittleEndian, intervalRecord{
			Kind:       uint8(iv.Kind),
			FieldSlice: iv.FieldSlice,
			OwnerLevel: iv.OwnerLevel,
			DX:         iv.DX,
			DY:         iv.DY,
		})
	}

	_ = binary.Write(&content, binary.LittleEndian, uint32(len(l.Fields)))
	for _, f := range l.Fields {
		_ = binary.Write(&content, binary.LittleEndian, fieldRecord{
			Cols:      f.Cols,
			Rows:      f.Rows,
			Origin:    f.Origin,
			Min:       f.Min,
			Max:       f.Max,
			Offset:    f.Offset,
			BlockCols: f.BlockCols,
			BlockRows: f.BlockRows,
			Policy:    uint8(f.Policy),
			Blocks:    uint32(len(f.Blocks)),
			Words:     uint32(len(f.Words)),
		})
		_ = binary.Write(&content, binary.LittleEndian, f.Blocks)
		_ = binary.Write(&content, binary.LittleEndian, f.Words)
	}
	_ = binary.Write(&content, binary.LittleEndian, xxhash.Sum64(content.Bytes()))

	var body []byte
	var err error
	if comp == Best {
		comp, body, err = smallest(content.Bytes())
	} else {
		body, err = compress(comp, content.Bytes())
	}
	if err != nil {
		return nil, errors.New("compressing pack content failed").
			WithTag("compression", comp.String()).
			Wrap(err)
	}

	out := make([]byte, 0, headerSize+len(body))
	out = append(out, magic...)
	out = append(out, version, byte(comp))
	return append(out, body...), nil
}

// Unmarshal decodes a pack holding materials of type M and reports the codec
// its content was stored with.
func Unmarshal[M stack.Material](data []byte) (*Model[M], Compression, error) {
	if len(data) < headerSize || string(data[:len(magic)]) != magic {
		return nil, None, errors.New("not a quadstack pack").WithType(ErrTypeFormat)
	}
	if v := data[len(magic)]; v != version {
		return nil, None, errors.New("unsupported pack version").
			WithType(ErrTypeFormat).
			WithTag("version", v)
	}
	comp := Compression(data[len(magic)+1])
	content, err := decompress(comp, data[headerSize:])
	if err != nil {
		return nil, comp, errors.New("decompressing pack content failed").
			WithType(ErrTypeFormat).
			WithTag("compression", comp.String()).
			Wrap(err)
	}

	if len(content) < checksumSize {
		return nil, comp, errors.New("pack content truncated").WithType(ErrTypeFormat)
	}
	body := content[:len(content)-checksumSize]
	sum := binary.LittleEndian.Uint64(content[len(body):])
	if got := xxhash.Sum64(body); got != sum {
		return nil, comp, errors.New("pack checksum mismatch").
			WithType(ErrTypeChecksum).
			WithTag("expected", sum).
			WithTag("actual", got)
	}

	m, err := decode[M](body)
	if err != nil {
		return nil, comp, err
	}
	return m, comp, nil
}

func decode[M stack.Material](body []byte) (*Model[M], error) {
	r := &reader{r: bytes.NewReader(body)}

	m := &Model[M]{Layout: &quadstack.Layout[M]{}}
	r.read(m.ID[:])
	var width uint8
	r.read(&width)
	if r.err == nil && width != materialWidth[M]() {
		return nil, errors.New("material width mismatch").
			WithType(ErrTypeFormat).
			WithTag("width", width).
			WithTag("expected", materialWidth[M]())
	}

	var hdr terrainHeader
	r.read(&hdr)
	l := m.Layout
	l.Cols, l.Rows = hdr.Cols, hdr.Rows
	l.Origin, l.Spacing = hdr.Origin, hdr.Spacing
	l.MinHeight, l.MaxHeight = hdr.MinHeight, hdr.MaxHeight
	l.Resolution = hdr.Resolution

	if n := r.count(binary.Size(quadstack.LayoutNode{})); n > 0 {
		l.Nodes = make([]quadstack.LayoutNode, n)
		r.read(l.Nodes)
	}

	ivSize := int(materialWidth[M]()) + binary.Size(intervalRecord{})
	if n := r.count(ivSize); n > 0 {
		l.Intervals = make([]quadstack.LayoutInterval[M], n)
		for i := range l.Intervals {
			var rec intervalRecord
			l.Intervals[i].Material = readMaterial[M](r)
			r.read(&rec)
			l.Intervals[i].Kind = quadstack.Kind(rec.Kind)
			l.Intervals[i].FieldSlice = rec.FieldSlice
			l.Intervals[i].OwnerLevel = rec.OwnerLevel
			l.Intervals[i].DX, l.Intervals[i].DY = rec.DX, rec.DY
		}
	}

	if n := r.count(binary.Size(fieldRecord{})); n > 0 {
		l.Fields = make([]quadstack.LayoutField, n)
		for i := range l.Fields {
			var rec fieldRecord
			r.read(&rec)
			f := quadstack.LayoutField{
				Cols:      rec.Cols,
				Rows:      rec.Rows,
				Origin:    rec.Origin,
				Min:       rec.Min,
				Max:       rec.Max,
				Offset:    rec.Offset,
				BlockCols: rec.BlockCols,
				BlockRows: rec.BlockRows,
				Policy:    heightfield.Policy(rec.Policy),
			}
			if rec.Blocks > 0 && r.fits(int(rec.Blocks), binary.Size(heightfield.BlockHeader{})) {
				f.Blocks = make([]heightfield.BlockHeader, rec.Blocks)
				r.read(f.Blocks)
			}
			if rec.Words > 0 && r.fits(int(rec.Words), 4) {
				f.Words = make([]uint32, rec.Words)
				r.read(f.Words)
			}
			l.Fields[i] = f
		}
	}

	if r.err != nil {
		return nil, errors.New("pack content truncated").
			WithType(ErrTypeFormat).
			Wrap(r.err)
	}
	if r.r.Len() != 0 {
		return nil, errors.New("trailing bytes in pack content").
			WithType(ErrTypeFormat).
			WithTag("bytes", r.r.Len())
	}
	return m, nil
}

func writeMaterial[M stack.Material](w io.Writer, m M) {
	switch materialWidth[M]() {
	case 2:
		_ = binary.Write(w, binary.LittleEndian, uint16(m))
	case 4:
		_ = binary.Write(w, binary.LittleEndian, uint32(m))
	default:
		_ = binary.Write(w, binary.LittleEndian, uint64(m))
	}
}

func readMaterial[M stack.Material](r *reader) M {
	switch materialWidth[M]() {
	case 2:
		var v uint16
		r.read(&v)
		return M(v)
	case 4:
		var v uint32
		r.read(&v)
		return M(v)
	default:
		var v uint64
		r.read(&v)
		return M(v)
	}
}

// reader keeps the first error so that decoding can run straight through.
type reader struct {
	r   *bytes.Reader
	err error
}

func (r *reader) read(v any) {
	if r.err != nil {
		return
	}
	if b, ok := v.([]byte); ok {
		_, r.err = io.ReadFull(r.r, b)
		return
	}
	r.err = binary.Read(r.r, binary.LittleEndian, v)
}

// count reads an element count and checks that that many elements of at least
// size bytes can still follow.
func (r *reader) count(size int) int {
	var n uint32
	r.read(&n)
	if !r.fits(int(n), size) {
		return 0
	}
	return int(n)
}

func (r *reader) fits(n, size int) bool {
	if r.err != nil {
		return false
	}
	if uint64(n)*uint64(size) > uint64(r.r.Len()) {
		r.err = io.ErrUnexpectedEOF
		return false
	}
	return true
}
