//go:build !cgo

package capture

import (
	"context"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// LiveSource is unavailable without cgo.
type LiveSource struct{}

// OpenLive always fails with ErrLiveUnavailable.
func OpenLive(context.Context, LiveConfig) (*LiveSource, error) {
	return nil, ErrLiveUnavailable
}

// ReadPacketData implements gopacket.PacketDataSource.
func (s *LiveSource) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	return nil, gopacket.CaptureInfo{}, ErrLiveUnavailable
}

// LinkType returns LinkType.
func (s *LiveSource) LinkType() layers.LinkType { return LinkType }

// Stats is not supported.
func (s *LiveSource) Stats() (received, dropped int, err error) {
	return 0, 0, ErrLiveUnavailable
}

// Close does nothing.
func (s *LiveSource) Close() error { return nil }
