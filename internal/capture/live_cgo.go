//go:build cgo

package capture

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// LiveSource reads packets from a monitor-mode interface.
type LiveSource struct {
	ctx    context.Context
	handle *pcap.Handle
}

// OpenLive activates a capture on cfg.Interface with rfmon enabled. Reads
// return io.EOF once ctx is done.
func OpenLive(ctx context.Context, cfg LiveConfig) (*LiveSource, error) {
	cfg = cfg.withDefaults()

	inactive, err := pcap.NewInactiveHandle(cfg.Interface)
	if err != nil {
		return nil, fmt.Errorf("capture: %s: %w", cfg.Interface, err)
	}
	defer inactive.CleanUp()

	for _, step := range []struct {
		name string
		err  error
	}{
		{"rfmon", inactive.SetRFMon(true)},
		{"immediate mode", inactive.SetImmediateMode(!cfg.Buffered)},
		{"snaplen", inactive.SetSnapLen(cfg.Snaplen)},
		{"timeout", inactive.SetTimeout(cfg.Timeout)},
	} {
		if step.err != nil {
			return nil, fmt.Errorf("capture: %s: set %s: %w", cfg.Interface, step.name, step.err)
		}
	}

	handle, err := inactive.Activate()
	if err != nil {
		return nil, fmt.Errorf("capture: %s: activate: %w", cfg.Interface, err)
	}

	if lt := handle.LinkType(); lt != LinkType {
		handle.Close()
		return nil, fmt.Errorf("%w: %s has %v, is it in monitor mode?", ErrUnsupportedLinkType, cfg.Interface, lt)
	}
	if err := handle.SetBPFFilter(cfg.Filter); err != nil {
		handle.Close()
		return nil, fmt.Errorf("capture: %s: filter %q: %w", cfg.Interface, cfg.Filter, err)
	}

	return &LiveSource{ctx: ctx, handle: handle}, nil
}

// ReadPacketData implements gopacket.PacketDataSource.
func (s *LiveSource) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	for {
		if s.ctx.Err() != nil {
			return nil, gopacket.CaptureInfo{}, io.EOF
		}
		data, ci, err := s.handle.ReadPacketData()
		if errors.Is(err, pcap.NextErrorTimeoutExpired) {
			continue
		}
		return data, ci, err
	}
}

// LinkType returns the link type of the interface.
func (s *LiveSource) LinkType() layers.LinkType {
	return s.handle.LinkType()
}

// Stats returns the packets received and dropped by the kernel.
func (s *LiveSource) Stats() (received, dropped int, err error) {
	st, err := s.handle.Stats()
	if err != nil {
		return 0, 0, err
	}
	return st.PacketsReceived, st.PacketsDropped, nil
}

// Close stops the capture.
func (s *LiveSource) Close() error {
	s.handle.Close()
	return nil
}
