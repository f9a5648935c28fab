package tables

// Angle identifies one of the two Givens rotation angle kinds in a
// compressed steering matrix.
type Angle uint8

// Angle kinds.
const (
	Phi Angle = 0
	Psi Angle = 1
)

// String returns "phi" or "psi".
func (a Angle) String() string {
	switch a {
	case Phi:
		return "phi"
	case Psi:
		return "psi"
	default:
		return "unknown"
	}
}

// Feedback types carried in the HE MIMO Control field.
const (
	FeedbackSU  = 0 // single user
	FeedbackMU  = 1 // multi user
	FeedbackCQI = 2 // channel quality only, no angles
)

// AngleBits holds the quantization width of each angle kind.
type AngleBits struct {
	Phi uint8
	Psi uint8
}

// Width returns the width for angle kind a.
func (b AngleBits) Width(a Angle) uint8 {
	if a == Psi {
		return b.Psi
	}
	return b.Phi
}

// angleBits is indexed by [codebook_info][feedback_type] for the SU and
// MU feedback types.
var angleBits = [2][2]AngleBits{
	{{Phi: 4, Psi: 2}, {Phi: 7, Psi: 5}}, // codebook 0: SU, MU
	{{Phi: 6, Psi: 4}, {Phi: 9, Psi: 7}}, // codebook 1: SU, MU
}

// AngleBitsFor returns the phi/psi widths for a codebook and feedback type.
// ok is false for CQI feedback and for out-of-range inputs.
func AngleBitsFor(codebookInfo, feedbackType uint8) (AngleBits, bool) {
	if codebookInfo > 1 || feedbackType > FeedbackMU {
		return AngleBits{}, false
	}
	return angleBits[codebookInfo][feedbackType], true
}

// Angle orders, named by rows x columns of the steering matrix.
var (
	order2x1 = []Angle{Phi, Psi}
	order3x1 = []Angle{Phi, Phi, Psi, Psi}
	order3x2 = []Angle{Phi, Phi, Psi, Psi, Phi, Psi}
	order4x1 = []Angle{Phi, Phi, Phi, Psi, Psi, Psi}
	order4x2 = []Angle{Phi, Phi, Phi, Psi, Psi, Psi, Phi, Phi, Psi, Psi}
	order4x3 = []Angle{Phi, Phi, Phi, Psi, Psi, Psi, Phi, Phi, Psi, Psi, Phi, Psi}
)

// angleOrders is indexed by [nr_index][nc_index]. nil entries are
// undefined.
var angleOrders = [8][8][]Angle{
	1: {0: order2x1, 2: order2x1},
	2: {0: order3x1, 1: order3x2, 2: order3x2},
	3: {0: order4x1, 1: order4x2, 2: order4x3, 3: order4x3},
}

// AngleOrder returns the order of angles within one subcarrier for the
// zero-based row and column indices. The returned slice is shared and
// must not be modified.
func AngleOrder(nrIndex, ncIndex uint8) ([]Angle, bool) {
	if nrIndex >= 8 || ncIndex >= 8 {
		return nil, false
	}
	order := angleOrders[nrIndex][ncIndex]
	return order, order != nil
}

// AngleOrderKey is a (nr_index, nc_index) pair with a defined angle order.
type AngleOrderKey struct {
	NrIndex uint8
	NcIndex uint8
}

// AngleOrderKeys lists every pair AngleOrder accepts, in table order.
func AngleOrderKeys() []AngleOrderKey {
	var keys []AngleOrderKey
	for nr := range angleOrders {
		for nc, order := range angleOrders[nr] {
			if order != nil {
				keys = append(keys, AngleOrderKey{NrIndex: uint8(nr), NcIndex: uint8(nc)})
			}
		}
	}
	return keys
}
