package bits

// WindowBits is the width of the sliding window used by Walk.
const WindowBits = 16

// MaxFieldWidth is the widest field Walk can read.
//
// The window advances one byte at a time, so up to 7 bits of it may still
// be unconsumed when a field starts. A field of width N therefore needs a
// window of N+7 bits; with WindowBits = 16 that caps N at 9, which is also
// the widest angle the HE compressed beamforming report defines.
const MaxFieldWidth = WindowBits - 7

// Mask returns a mask covering the low width bits.
func Mask(width uint) uint64 {
	return 1<<width - 1
}

// Field extracts width bits of word starting at bit offset, counted from
// the least significant bit.
//
//	//              110
//	//            |>---<|
//	Field(0b0001101, 1, 3) == 0b110
func Field(word uint64, offset, width uint) uint64 {
	return (word >> offset) & Mask(width)
}

// LoadLE40 assembles the first five bytes of b into a little-endian
// 40-bit word. The caller must ensure len(b) >= 5.
func LoadLE40(b []byte) uint64 {
	_ = b[4]
	return uint64(b[0]) |
		uint64(b[1])<<8 |
		uint64(b[2])<<16 |
		uint64(b[3])<<24 |
		uint64(b[4])<<32
}

// PatternBits returns the number of bits one repetition of pattern spans.
func PatternBits(pattern []uint8) int {
	n := 0
	for _, w := range pattern {
		n += int(w)
	}
	return n
}

// Walk reads chunks repetitions of pattern from stream, LSB first, and
// returns one row of len(pattern) values per repetition.
//
// The first two bytes seed a 16-bit window; bits are consumed from its
// low end. When the next field does not fit above the cursor, the window
// shifts right by one byte and the next input byte enters at the top.
// The window carries over from one chunk to the next.
//
// Walk does not validate its input. stream must hold at least two bytes
// and chunks*PatternBits(pattern) bits, and every width must be in
// [1, MaxFieldWidth]; otherwise Walk may panic or return garbage.
func Walk(stream []byte, pattern []uint8, chunks int) [][]uint16 {
	masks := make([]uint16, len(pattern))
	for i, w := range pattern {
		masks[i] = uint16(Mask(uint(w)))
	}

	window := uint16(stream[0]) | uint16(stream[1])<<8
	cursor := uint(0) // bits of window already consumed
	next := 2         // next stream byte to shift in

	n := len(pattern)
	backing := make([]uint16, chunks*n)
	rows := make([][]uint16, chunks)

	for c := range rows {
		row := backing[c*n : (c+1)*n : (c+1)*n]
		for i, w := range pattern {
			for cursor+uint(w) > WindowBits {
				window = window>>8 | uint16(stream[next])<<8
				cursor -= 8
				next++
			}
			row[i] = (window >> cursor) & masks[i]
			cursor += uint(w)
		}
		rows[c] = row
	}

	return rows
}
