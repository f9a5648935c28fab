package bfi

import (
	"strconv"

	"github.com/llehouerou/go-bfi/internal/bits"
	"github.com/llehouerou/go-bfi/internal/tables"
)

// MaxBitfieldWidth is the widest angle field Extract accepts.
const MaxBitfieldWidth = bits.MaxFieldWidth

// Layout describes how a beamforming angle payload is packed: Pattern
// lists the bit width of every angle of one subcarrier in transmission
// order, and NumSubcarriers is how many times the pattern repeats.
type Layout struct {
	Pattern        []uint8 `json:"bitfield_pattern"`
	NumSubcarriers uint16  `json:"num_subcarrier"`
}

// ChunkBits returns the number of bits one subcarrier occupies.
func (l Layout) ChunkBits() int {
	return bits.PatternBits(l.Pattern)
}

// TotalBits returns the number of payload bits the layout consumes.
func (l Layout) TotalBits() int {
	return l.ChunkBits() * int(l.NumSubcarriers)
}

// MarshalJSON encodes Pattern as an array of numbers, where the default
// []uint8 encoding would produce base64.
func (l Layout) MarshalJSON() ([]byte, error) {
	b := append(make([]byte, 0, 48+4*len(l.Pattern)), `{"bitfield_pattern":[`...)
	for i, w := range l.Pattern {
		if i > 0 {
			b = append(b, ',')
		}
		b = strconv.AppendUint(b, uint64(w), 10)
	}
	b = append(b, `],"num_subcarrier":`...)
	b = strconv.AppendUint(b, uint64(l.NumSubcarriers), 10)
	return append(b, '}'), nil
}

// Validate checks that every width is in [1, MaxBitfieldWidth]. It
// reports the first offending width.
func (l Layout) Validate() error {
	for _, w := range l.Pattern {
		if w == 0 || w > MaxBitfieldWidth {
			return &BitfieldWidthError{Given: w, Allowed: MaxBitfieldWidth}
		}
	}
	return nil
}

// ResolveLayout derives the extraction layout of a report from its HE
// MIMO Control field.
//
// The phi/psi widths come from (codebook_info, feedback_type), the angle
// order from (nr_index, nc_index) and the subcarrier count from
// (grouping, bandwidth). Undefined combinations return a
// *HeaderCombinationError.
func ResolveLayout(h HeMimoControl) (Layout, error) {
	widths, ok := tables.AngleBitsFor(h.CodebookInfo, h.FeedbackType)
	if !ok {
		err := &HeaderCombinationError{
			Fields: "codebook_info/feedback_type",
			Values: [2]uint8{h.CodebookInfo, h.FeedbackType},
		}
		if h.FeedbackType == tables.FeedbackCQI {
			err.Reason = "CQI feedback carries no angles"
		}
		return Layout{}, err
	}

	order, ok := tables.AngleOrder(h.NrIndex, h.NcIndex)
	if !ok {
		return Layout{}, &HeaderCombinationError{
			Fields: "nr_index/nc_index",
			Values: [2]uint8{h.NrIndex, h.NcIndex},
		}
	}

	count, ok := tables.NumSubcarriers(h.Grouping, h.Bandwidth.Code())
	if !ok {
		return Layout{}, &HeaderCombinationError{
			Fields: "grouping/bandwidth",
			Values: [2]uint8{h.Grouping, h.Bandwidth.Code()},
		}
	}

	pattern := make([]uint8, len(order))
	for i, a := range order {
		pattern[i] = widths.Width(a)
	}

	l := Layout{Pattern: pattern, NumSubcarriers: count}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}
