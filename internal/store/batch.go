package store

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/llehouerou/go-bfi"
)

// Batch holds decoded frames column by column, the layout of the parquet
// and columnar JSON outputs.
type Batch struct {
	Timestamps []float64
	TokenNums  []uint8
	BFAAngles  [][][]uint16
}

// NewBatch returns a Batch holding frames.
func NewBatch(frames []bfi.DecodedFrame) *Batch {
	b := &Batch{
		Timestamps: make([]float64, 0, len(frames)),
		TokenNums:  make([]uint8, 0, len(frames)),
		BFAAngles:  make([][][]uint16, 0, len(frames)),
	}
	for _, f := range frames {
		b.Append(f)
	}
	return b
}

// Append adds one frame.
func (b *Batch) Append(f bfi.DecodedFrame) {
	b.Timestamps = append(b.Timestamps, f.Timestamp)
	b.TokenNums = append(b.TokenNums, f.DialogToken)
	b.BFAAngles = append(b.BFAAngles, f.Angles)
}

// Len returns the number of frames.
func (b *Batch) Len() int { return len(b.Timestamps) }

// Frames converts the batch back to frames.
func (b *Batch) Frames() []bfi.DecodedFrame {
	frames := make([]bfi.DecodedFrame, b.Len())
	for i := range frames {
		frames[i] = bfi.DecodedFrame{
			Timestamp:   b.Timestamps[i],
			DialogToken: b.TokenNums[i],
			Angles:      b.BFAAngles[i],
		}
	}
	return frames
}

// Reset empties the batch, keeping its storage.
func (b *Batch) Reset() {
	b.Timestamps = b.Timestamps[:0]
	b.TokenNums = b.TokenNums[:0]
	b.BFAAngles = b.BFAAngles[:0]
}

// columns is the JSON shape of a Batch. Token numbers are widened so they
// encode as numbers rather than base64.
type columns struct {
	Timestamps []float64    `json:"timestamps"`
	TokenNums  []uint32     `json:"token_nums"`
	BFAAngles  [][][]uint16 `json:"bfa_angles"`
}

// MarshalJSON encodes the batch as three parallel arrays.
func (b *Batch) MarshalJSON() ([]byte, error) {
	c := columns{
		Timestamps: b.Timestamps,
		TokenNums:  make([]uint32, len(b.TokenNums)),
		BFAAngles:  b.BFAAngles,
	}
	for i, t := range b.TokenNums {
		c.TokenNums[i] = uint32(t)
	}
	if c.Timestamps == nil {
		c.Timestamps = []float64{}
	}
	if c.BFAAngles == nil {
		c.BFAAngles = [][][]uint16{}
	}
	return json.Marshal(c)
}

// UnmarshalJSON decodes the three-array form written by MarshalJSON.
func (b *Batch) UnmarshalJSON(data []byte) error {
	var c columns
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}
	if len(c.TokenNums) != len(c.Timestamps) || len(c.BFAAngles) != len(c.Timestamps) {
		return fmt.Errorf("store: batch columns of unequal length: %d, %d, %d",
			len(c.Timestamps), len(c.TokenNums), len(c.BFAAngles))
	}
	b.Timestamps = c.Timestamps
	b.TokenNums = make([]uint8, len(c.TokenNums))
	for i, t := range c.TokenNums {
		b.TokenNums[i] = uint8(t)
	}
	b.BFAAngles = c.BFAAngles
	return nil
}
