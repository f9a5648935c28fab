// Package capture extracts HE compressed beamforming reports from
// radiotap-encapsulated 802.11 captures, read either from pcap/pcapng
// files or from a monitor-mode interface.
package capture

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// Capture errors.
var (
	ErrNotBeamforming      = errors.New("capture: not an HE compressed beamforming frame")
	ErrUnsupportedLinkType = errors.New("capture: unsupported link type")
	ErrLiveUnavailable     = errors.New("capture: live capture requires a cgo build with libpcap")
)

// Action frame identifiers of an HE compressed beamforming/CQI report.
const (
	CategoryHE                    = 30
	ActionHECompressedBeamforming = 0
)

// LinkType is the only link type a capture may have.
const LinkType = layers.LinkTypeIEEE80211Radio

// DefaultFilter selects Action No Ack management frames.
const DefaultFilter = "wlan[0] == 0xe0"

// Frame is one beamforming report found in a capture.
type Frame struct {
	// Data starts at the HE MIMO Control field and ends before the FCS.
	Data []byte
	// Timestamp is the capture time in seconds since the Unix epoch.
	Timestamp float64
	// Index is the position of the packet in the capture, counting every
	// packet, including skipped ones.
	Index int
}

// Timestamp converts a capture time to seconds with microsecond
// resolution.
func Timestamp(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond()/1000)*1e-6
}

// Locator finds the beamforming report inside a radiotap packet. It keeps
// decoding state between calls, so it must not be shared between
// goroutines.
type Locator struct {
	radiotap layers.RadioTap
	dot11    layers.Dot11
	action   layers.Dot11MgmtActionNoAck
	parser   *gopacket.DecodingLayerParser
	decoded  []gopacket.LayerType
}

// NewLocator returns a ready Locator.
func NewLocator() *Locator {
	l := &Locator{decoded: make([]gopacket.LayerType, 0, 4)}
	l.parser = gopacket.NewDecodingLayerParser(layers.LayerTypeRadioTap,
		&l.radiotap, &l.dot11, &l.action)
	l.parser.IgnoreUnsupported = true
	return l
}

// Locate returns the report of packet, from the HE MIMO Control field up
// to the byte before the FCS. The returned slice may alias packet.
//
// Packets that decode but are not HE compressed beamforming action
// frames return an error wrapping ErrNotBeamforming.
func (l *Locator) Locate(packet []byte) ([]byte, error) {
	// RadioTap flags of the previous packet decide whether Dot11 strips an
	// FCS, so no layer may carry over.
	l.radiotap, l.dot11, l.action = layers.RadioTap{}, layers.Dot11{}, layers.Dot11MgmtActionNoAck{}
	if err := l.parser.DecodeLayers(packet, &l.decoded); err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}

	found := false
	for _, t := range l.decoded {
		if t == layers.LayerTypeDot11MgmtActionNoAck {
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: no action no ack layer", ErrNotBeamforming)
	}

	body := l.action.Contents
	if len(body) < 2 {
		return nil, fmt.Errorf("%w: action body of %d bytes", ErrNotBeamforming, len(body))
	}
	if body[0] != CategoryHE || body[1] != ActionHECompressedBeamforming {
		return nil, fmt.Errorf("%w: category %d action %d", ErrNotBeamforming, body[0], body[1])
	}
	return body[2:], nil
}

// Locate is a convenience wrapper that allocates a Locator per call.
func Locate(packet []byte) ([]byte, error) {
	return NewLocator().Locate(packet)
}
