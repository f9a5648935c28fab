package bfi

import (
	"github.com/llehouerou/go-bfi/internal/bits"
)

// HeaderSize is the size of the HE MIMO Control field in bytes.
const HeaderSize = 5

// HeMimoControl contains the decoded HE MIMO Control field that precedes
// every HE compressed beamforming report.
//
// Field structure (40 bits, little endian, LSB first):
//   - nc_index: 3 bits (columns - 1)
//   - nr_index: 3 bits (rows - 1)
//   - bw: 2 bits (bandwidth code)
//   - grouping: 1 bit (0: Ng=4, 1: Ng=16)
//   - codebook_info: 1 bit
//   - feedback_type: 2 bits (0=SU, 1=MU, 2=CQI)
//   - remaining_feedback_segments: 3 bits
//   - first_feedback_segment: 1 bit
//   - ru_start_index: 7 bits
//   - ru_end_index: 7 bits
//   - sounding_dialog_token_number: 6 bits
//   - reserved: 4 bits
type HeMimoControl struct {
	NcIndex                   uint8     `json:"nc_index"`
	NrIndex                   uint8     `json:"nr_index"`
	Bandwidth                 Bandwidth `json:"bandwidth"`
	Grouping                  uint8     `json:"grouping"`
	CodebookInfo              uint8     `json:"codebook_info"`
	FeedbackType              uint8     `json:"feedback_type"`
	RemainingFeedbackSegments uint8     `json:"remaining_feedback_segments"`
	FirstFeedbackSegment      uint8     `json:"first_feedback_segment"`
	RUStartIndex              uint8     `json:"ru_start_index"`
	RUEndIndex                uint8     `json:"ru_end_index"`
	DialogTokenNumber         uint8     `json:"dialog_token_number"`
	Reserved                  uint8     `json:"reserved"`
}

// Bit offset and width of each HE MIMO Control subfield.
const (
	ncIndexOffset, ncIndexWidth                     = 0, 3
	nrIndexOffset, nrIndexWidth                     = 3, 3
	bandwidthOffset, bandwidthWidth                 = 6, 2
	groupingOffset, groupingWidth                   = 8, 1
	codebookInfoOffset, codebookInfoWidth           = 9, 1
	feedbackTypeOffset, feedbackTypeWidth           = 10, 2
	remainingSegmentsOffset, remainingSegmentsWidth = 12, 3
	firstSegmentOffset, firstSegmentWidth           = 15, 1
	ruStartOffset, ruStartWidth                     = 16, 7
	ruEndOffset, ruEndWidth                         = 23, 7
	dialogTokenOffset, dialogTokenWidth             = 30, 6
	reservedOffset, reservedWidth                   = 36, 4
)

// DecodeHeader decodes the HE MIMO Control field from the first
// HeaderSize bytes of b. Extra bytes are ignored.
func DecodeHeader(b []byte) (HeMimoControl, error) {
	if len(b) < HeaderSize {
		return HeMimoControl{}, &InsufficientBitsError{
			Required:  HeaderSize * 8,
			Available: len(b) * 8,
		}
	}

	word := bits.LoadLE40(b)
	field := func(offset, width uint) uint8 {
		return uint8(bits.Field(word, offset, width))
	}

	bw, err := BandwidthFromCode(field(bandwidthOffset, bandwidthWidth))
	if err != nil {
		return HeMimoControl{}, err
	}

	return HeMimoControl{
		NcIndex:                   field(ncIndexOffset, ncIndexWidth),
		NrIndex:                   field(nrIndexOffset, nrIndexWidth),
		Bandwidth:                 bw,
		Grouping:                  field(groupingOffset, groupingWidth),
		CodebookInfo:              field(codebookInfoOffset, codebookInfoWidth),
		FeedbackType:              field(feedbackTypeOffset, feedbackTypeWidth),
		RemainingFeedbackSegments: field(remainingSegmentsOffset, remainingSegmentsWidth),
		FirstFeedbackSegment:      field(firstSegmentOffset, firstSegmentWidth),
		RUStartIndex:              field(ruStartOffset, ruStartWidth),
		RUEndIndex:                field(ruEndOffset, ruEndWidth),
		DialogTokenNumber:         field(dialogTokenOffset, dialogTokenWidth),
		Reserved:                  field(reservedOffset, reservedWidth),
	}, nil
}

// Columns returns the number of beamformed columns (Nc).
func (h HeMimoControl) Columns() int {
	return int(h.NcIndex) + 1
}

// Rows returns the number of beamformer antennas (Nr).
func (h HeMimoControl) Rows() int {
	return int(h.NrIndex) + 1
}
