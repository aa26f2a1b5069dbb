package stack

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"unsafe"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// VoxelSource is a dense voxel volume the representation can be built from.
type VoxelSource[M Material] interface {
	Dimension() (x, y, z int)
	Spacing() [3]float32
	Origin() [3]float32
	AttributeName() string
	Get(x, y, z int) M
}

// VoxelModel is an in-memory VoxelSource. Voxels are stored at
// y + dimY*(x + dimX*z).
type VoxelModel[M Material] struct {
	Dim       [3]int
	Space     [3]float32
	Orig      [3]float32
	Attribute string
	Data      []M
}

func NewVoxelModel[M Material](dimX, dimY, dimZ int, spacing, origin [3]float32) *VoxelModel[M] {
	return &VoxelModel[M]{
		Dim:       [3]int{dimX, dimY, dimZ},
		Space:     spacing,
		Orig:      origin,
		Attribute: "material",
		Data:      make([]M, dimX*dimY*dimZ),
	}
}

func (v *VoxelModel[M]) index(x, y, z int) int {
	return y + v.Dim[1]*(x+v.Dim[0]*z)
}

func (v *VoxelModel[M]) Dimension() (x, y, z int) { return v.Dim[0], v.Dim[1], v.Dim[2] }
func (v *VoxelModel[M]) Spacing() [3]float32      { return v.Space }
func (v *VoxelModel[M]) Origin() [3]float32       { return v.Orig }
func (v *VoxelModel[M]) AttributeName() string    { return v.Attribute }
func (v *VoxelModel[M]) Get(x, y, z int) M        { return v.Data[v.index(x, y, z)] }
func (v *VoxelModel[M]) Set(x, y, z int, m M)     { v.Data[v.index(x, y, z)] = m }

func (v *VoxelModel[M]) MinHeight() float32 { return v.Orig[2] }

func (v *VoxelModel[M]) MaxHeight() float32 {
	return v.Orig[2] + v.Space[2]*float32(v.Dim[2])
}

func (v *VoxelModel[M]) MemorySize() int {
	var m M
	return len(v.Data) * int(unsafe.Sizeof(m))
}

// binaryVoxelHeader is the fixed 40 byte header of a raw voxel file.
type binaryVoxelHeader struct {
	BytesPerVoxel int32
	Dimension     [3]int32
	Spacing       [3]float32
	Origin        [3]float32
}

// ReadBinaryVoxelsFile loads a raw voxel file from disk.
func ReadBinaryVoxelsFile[M Material](path string) (*VoxelModel[M], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ReadBinaryVoxels[M](bytes.NewReader(data))
}

// ReadBinaryVoxels parses a raw voxel volume: a little endian header followed
// by dimX*dimY*dimZ voxels of 1, 2 or 4 bytes each.
func ReadBinaryVoxels[M Material](r io.Reader) (*VoxelModel[M], error) {
	var hdr binaryVoxelHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, errors.New("reading voxel header failed").
			WithType(ErrTypeMalformed).
			Wrap(err)
	}
	for _, d := range hdr.Dimension {
		if d < 0 {
			return nil, errors.New("negative voxel dimension").
				WithType(ErrTypeMalformed).
				WithTag("dimension", hdr.Dimension)
		}
	}

	v := NewVoxelModel[M](int(hdr.Dimension[0]), int(hdr.Dimension[1]), int(hdr.Dimension[2]), hdr.Spacing, hdr.Origin)
	n := len(v.Data)

	switch hdr.BytesPerVoxel {
	case 1:
		buf := make([]int8, n)
		if err := binary.Read(r, binary.LittleEndian, buf); err != nil {
			return nil, truncated(err)
		}
		for i, b := range buf {
			v.Data[i] = M(b)
		}
	case 2:
		buf := make([]int16, n)
		if err := binary.Read(r, binary.LittleEndian, buf); err != nil {
			return nil, truncated(err)
		}
		for i, b := range buf {
			v.Data[i] = M(b)
		}
	case 4:
		buf := make([]int32, n)
		if err := binary.Read(r, binary.LittleEndian, buf); err != nil {
			return nil, truncated(err)
		}
		for i, b := range buf {
			v.Data[i] = M(b)
		}
	default:
		return nil, errors.New("unsupported voxel width").
			WithType(ErrTypeMalformed).
			WithTag("bytes_per_voxel", hdr.BytesPerVoxel)
	}
	return v, nil
}

func truncated(err error) error {
	return errors.New("reading voxel data failed").
		WithType(ErrTypeMalformed).
		Wrap(err)
}

// WriteBinaryVoxels writes v in the raw voxel format with 2 or 4 bytes per
// voxel.
func WriteBinaryVoxels[M Material](w io.Writer, v *VoxelModel[M], bytesPerVoxel int) error {
	hdr := binaryVoxelHeader{
		BytesPerVoxel: int32(bytesPerVoxel),
		Dimension:     [3]int32{int32(v.Dim[0]), int32(v.Dim[1]), int32(v.Dim[2])},
		Spacing:       v.Space,
		Origin:        v.Orig,
	}
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, hdr)
	switch bytesPerVoxel {
	case 2:
		out := make([]int16, len(v.Data))
		for i, m := range v.Data {
			out[i] = int16(m)
		}
		_ = binary.Write(&buf, binary.LittleEndian, out)
	case 4:
		out := make([]int32, len(v.Data))
		for i, m := range v.Data {
			out[i] = int32(m)
		}
		_ = binary.Write(&buf, binary.LittleEndian, out)
	default:
		return errors.New("unsupported voxel width").
			WithType(ErrTypeMalformed).
			WithTag("bytes_per_voxel", bytesPerVoxel)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
