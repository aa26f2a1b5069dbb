package heightfield

// bitWriter packs values LSB first into 32-bit words.
type bitWriter struct {
	words []uint32
	acc   uint64
	n     uint8
}

func newBitWriter(capacity int) *bitWriter {
	return &bitWriter{words: make([]uint32, 0, capacity)}
}

func (w *bitWriter) writeBits(v uint32, bits uint8) {
	if bits == 0 {
		return
	}
	w.acc |= (uint64(v) & (1<<bits - 1)) << w.n
	w.n += bits
	for w.n >= 32 {
		w.words = append(w.words, uint32(w.acc))
		w.acc >>= 32
		w.n -= 32
	}
}

// pos returns the bit offset of the next write.
func (w *bitWriter) pos() uint32 {
	return uint32(len(w.words))*32 + uint32(w.n)
}

// align pads the pending word so the next write starts a new word.
func (w *bitWriter) align() {
	if w.n > 0 {
		w.words = append(w.words, uint32(w.acc))
		w.acc = 0
		w.n = 0
	}
}

func (w *bitWriter) finish() []uint32 {
	w.align()
	return w.words
}

// readBits extracts bits bits starting at bit offset pos. A value may straddle
// two words.
func readBits(words []uint32, pos uint32, bits uint8) uint32 {
	if bits == 0 {
		return 0
	}
	i, off := pos/32, pos%32
	v := uint64(words[i]) >> off
	if off+uint32(bits) > 32 {
		v |= uint64(words[i+1]) << (32 - off)
	}
	return uint32(v & (1<<bits - 1))
}
