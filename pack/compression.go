package pack

import (
	"bytes"
	"io"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// Compression is the codec applied to the content section of a pack.
type Compression uint8

const (
	None Compression = 0
	Zlib Compression = 1
	Zstd Compression = 2
	S2   Compression = 3

	// Best is never stored: Marshal tries every codec and keeps the smallest
	// output.
	Best Compression = 0xff
)

var codecs = []Compression{None, Zlib, Zstd, S2}

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case Zlib:
		return "zlib"
	case Zstd:
		return "zstd"
	case S2:
		return "s2"
	case Best:
		return "best"
	default:
		return "unknown"
	}
}

func ParseCompression(s string) (Compression, error) {
	switch s {
	case "none":
		return None, nil
	case "zlib":
		return Zlib, nil
	case "", "zstd":
		return Zstd, nil
	case "s2":
		return S2, nil
	case "best":
		return Best, nil
	default:
		return None, errors.Newf("unknown compression %q", s).
			WithType(ErrTypeFormat)
	}
}

func compress(c Compression, content []byte) ([]byte, error) {
	switch c {
	case None:
		return content, nil
	case Zlib:
		var buf bytes.Buffer
		zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
		if err != nil {
			return nil, err
		}
		if _, err := zw.Write(content); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case Zstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(content, nil), nil
	case S2:
		return s2.EncodeBetter(nil, content), nil
	default:
		return nil, errors.New("unsupported compression").
			WithType(ErrTypeFormat).
			WithTag("compression", uint8(c))
	}
}

func decompress(c Compression, data []byte) ([]byte, error) {
	switch c {
	case None:
		return data, nil
	case Zlib:
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case Zstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(data, nil)
	case S2:
		return s2.Decode(nil, data)
	default:
		return nil, errors.New("unsupported compression").
			WithType(ErrTypeFormat).
			WithTag("compression", uint8(c))
	}
}

// smallest compresses content with every codec and returns the shortest
// result.
func smallest(content []byte) (Compression, []byte, error) {
	best, out := None, content
	for _, c := range codecs[1:] {
		b, err := compress(c, content)
		if err != nil {
			return None, nil, err
		}
		if len(b) < len(out) {
			best, out = c, b
		}
	}
	return best, out, nil
}
