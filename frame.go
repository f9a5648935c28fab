package bfi

// Offsets within a header-relative beamforming report.
const (
	// SNRSize is the size of the average SNR field that follows the HE
	// MIMO Control field. It is skipped, not decoded.
	SNRSize = 2

	// PayloadOffset is where the packed angle payload starts.
	PayloadOffset = HeaderSize + SNRSize
)

// DecodedFrame holds the result of decoding one beamforming report.
type DecodedFrame struct {
	Timestamp   float64     `json:"timestamp"` // seconds, supplied by the caller
	DialogToken uint8       `json:"token_number"`
	Angles      AngleMatrix `json:"bfa_angles"`
}

// DecodeFrame decodes a beamforming report.
//
// b starts at the HE MIMO Control field. Everything from PayloadOffset to
// the end of b is treated as angle payload, so the caller must already
// have removed the link-layer framing and the FCS. Trailing bytes beyond
// the layout are ignored.
//
// The first error of the decode stages is returned unchanged; no partial
// frame is ever returned.
func DecodeFrame(b []byte, timestamp float64) (DecodedFrame, error) {
	r, err := Inspect(b, timestamp)
	if err != nil {
		return DecodedFrame{}, err
	}
	return r.Frame, nil
}

// FrameReport is the full decode of one report, for debugging and
// tooling.
type FrameReport struct {
	Header HeMimoControl `json:"header"`
	Layout Layout        `json:"layout"`
	Frame  DecodedFrame  `json:"frame"`
}

// Inspect decodes b like DecodeFrame but also returns the header and the
// layout it resolved to.
func Inspect(b []byte, timestamp float64) (FrameReport, error) {
	h, err := DecodeHeader(b)
	if err != nil {
		return FrameReport{}, err
	}

	l, err := ResolveLayout(h)
	if err != nil {
		return FrameReport{}, err
	}

	var payload []byte
	if len(b) > PayloadOffset {
		payload = b[PayloadOffset:]
	}

	angles, err := Extract(payload, l)
	if err != nil {
		return FrameReport{}, err
	}

	return FrameReport{
		Header: h,
		Layout: l,
		Frame: DecodedFrame{
			Timestamp:   timestamp,
			DialogToken: h.DialogTokenNumber,
			Angles:      angles,
		},
	}, nil
}
