// Package bfi decodes beamforming feedback information (BFI) from IEEE
// 802.11ax HE compressed beamforming reports.
//
// A report starts with the 40-bit HE MIMO Control field, followed by a
// 2-byte average SNR field and the densely packed, LSB-first angle
// payload. Decoding happens in three pure stages:
//
//	h, err := bfi.DecodeHeader(report)  // HE MIMO Control sub-fields
//	l, err := bfi.ResolveLayout(h)      // bit widths per subcarrier
//	m, err := bfi.Extract(report[bfi.PayloadOffset:], l)
//
// DecodeFrame runs all three and returns the dialog token with the angle
// matrix:
//
//	frame, err := bfi.DecodeFrame(report, timestamp)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for sc, angles := range frame.Angles {
//	    // angles holds the quantized phi and psi codes of subcarrier sc
//	}
//
// # Input
//
// The report must already be stripped of radiotap, 802.11 and action
// framing and of the trailing FCS. The internal/capture package does this
// for pcap files and live monitor-mode interfaces.
//
// # Errors
//
// All failures are returned as values that unwrap to one of the Error
// kinds, so callers can choose per frame whether to skip or abort:
//
//	if errors.Is(err, bfi.ErrInvalidHeaderCombination) {
//	    // CQI report or unsupported antenna configuration
//	}
//
// # Thread Safety
//
// All functions are stateless and safe for concurrent use. Input buffers
// are never retained or modified.
//
// # Reference
//
// IEEE Std 802.11ax-2021, 9.4.1.64 (HE MIMO Control field) and 9.4.1.65
// (HE Compressed Beamforming Report field).
package bfi
