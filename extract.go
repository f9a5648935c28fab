package bfi

import (
	"github.com/llehouerou/go-bfi/internal/bits"
)

// AngleMatrix holds the quantized angle codes of one report: one row per
// subcarrier, one value per pattern entry, in pattern order.
type AngleMatrix [][]uint16

// Subcarriers returns the number of rows.
func (m AngleMatrix) Subcarriers() int {
	return len(m)
}

// Extract unpacks the angle codes described by l from stream.
//
// Bits are read LSB first through a 16-bit window that advances a byte at
// a time, continuously across subcarriers. All preconditions are checked
// before any byte is read:
//   - every width must be in [1, MaxBitfieldWidth] (*BitfieldWidthError)
//   - stream must hold at least two bytes to seed the window
//   - stream must hold l.TotalBits() bits (*InsufficientBitsError)
func Extract(stream []byte, l Layout) (AngleMatrix, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}

	available := len(stream) * 8
	required := l.TotalBits()

	if len(stream) < 2 {
		return nil, &InsufficientBitsError{
			Required:  max(required, bits.WindowBits),
			Available: available,
		}
	}
	if required > available {
		return nil, &InsufficientBitsError{
			Required:  required,
			Available: available,
		}
	}

	return AngleMatrix(bits.Walk(stream, l.Pattern, int(l.NumSubcarriers))), nil
}
