package bfi

import (
	"fmt"
	"strconv"
)

// Bandwidth is the channel width signalled by the 2-bit BW subfield of
// the HE MIMO Control field. Its value is the on-air code.
type Bandwidth uint8

// Bandwidths.
const (
	Bandwidth20  Bandwidth = 0
	Bandwidth40  Bandwidth = 1
	Bandwidth80  Bandwidth = 2
	Bandwidth160 Bandwidth = 3 // 160 MHz or 80+80 MHz
)

var bandwidthMHz = [4]uint32{20, 40, 80, 160}

// BandwidthFromCode converts a BW subfield code to a Bandwidth.
// Codes above 3 return a *HeaderFieldError.
func BandwidthFromCode(code uint8) (Bandwidth, error) {
	if int(code) >= len(bandwidthMHz) {
		return 0, &HeaderFieldError{Field: "bandwidth", Value: code}
	}
	return Bandwidth(code), nil
}

// Code returns the BW subfield code.
func (b Bandwidth) Code() uint8 {
	return uint8(b)
}

// MHz returns the channel width in MHz, or 0 for an invalid value.
func (b Bandwidth) MHz() uint32 {
	if int(b) < len(bandwidthMHz) {
		return bandwidthMHz[b]
	}
	return 0
}

// Hz returns the channel width in Hz.
func (b Bandwidth) Hz() uint32 {
	return b.MHz() * 1_000_000
}

func (b Bandwidth) String() string {
	if mhz := b.MHz(); mhz != 0 {
		return strconv.FormatUint(uint64(mhz), 10) + "MHz"
	}
	return "Bandwidth(" + strconv.Itoa(int(b)) + ")"
}

// MarshalText encodes the bandwidth as its String form.
func (b Bandwidth) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText parses the String form, such as "80MHz".
func (b *Bandwidth) UnmarshalText(text []byte) error {
	for code, mhz := range bandwidthMHz {
		if string(text) == strconv.FormatUint(uint64(mhz), 10)+"MHz" {
			*b = Bandwidth(code)
			return nil
		}
	}
	return fmt.Errorf("bfi: invalid bandwidth %q: %w", text, ErrInvalidHeaderField)
}
