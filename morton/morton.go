package morton

import (
	"math/bits"

	"golang.org/x/exp/constraints"
)

// SpreadBits inserts a zero bit between each of the low 16 bits of v.
func SpreadBits(v uint32) uint32 {
	v &= 0x0000FFFF
	v = (v | (v << 8)) & 0x00FF00FF
	v = (v | (v << 4)) & 0x0F0F0F0F
	v = (v | (v << 2)) & 0x33333333
	v = (v | (v << 1)) & 0x55555555
	return v
}

// UnspreadBits is the inverse of SpreadBits.
func UnspreadBits(v uint32) uint32 {
	v &= 0x55555555
	v = (v ^ (v >> 1)) & 0x33333333
	v = (v ^ (v >> 2)) & 0x0F0F0F0F
	v = (v ^ (v >> 4)) & 0x00FF00FF
	v = (v ^ (v >> 8)) & 0x0000FFFF
	return v
}

// Encode2 interleaves col (even bits) and row (odd bits).
func Encode2(col, row uint32) uint32 {
	return SpreadBits(col) | (SpreadBits(row) << 1)
}

func Decode2(code uint32) (col, row uint32) {
	return UnspreadBits(code), UnspreadBits(code >> 1)
}

func IsPowerOf2[T constraints.Integer](v T) bool {
	return v > 0 && v&(v-1) == 0
}

// NextPowerOf2 returns the smallest power of two >= v (1 for v <= 1).
func NextPowerOf2[T constraints.Integer](v T) T {
	if v <= 1 {
		return 1
	}
	return T(1) << bits.Len64(uint64(v-1))
}

// LastPowerOf2 returns the largest power of two <= v (0 for v <= 0).
func LastPowerOf2[T constraints.Integer](v T) T {
	if v <= 0 {
		return 0
	}
	return T(1) << (bits.Len64(uint64(v)) - 1)
}

// CeilLog2 returns ceil(log2(v)) for v >= 1.
func CeilLog2[T constraints.Integer](v T) int {
	if v <= 1 {
		return 0
	}
	return bits.Len64(uint64(v - 1))
}
