package capture

import (
	"context"
	"errors"
	"io"

	"github.com/google/gopacket"

	"github.com/llehouerou/go-bfi/internal/logger"
)

// Reader yields the beamforming reports of a packet source, skipping
// every other packet.
type Reader struct {
	src     gopacket.PacketDataSource
	loc     *Locator
	log     logger.Logger
	packets int
	skipped int
}

// NewReader returns a Reader over src. A nil log discards output.
func NewReader(src gopacket.PacketDataSource, log logger.Logger) *Reader {
	if log == nil {
		log = logger.Discard()
	}
	return &Reader{src: src, loc: NewLocator(), log: log}
}

// Next returns the next beamforming report. It returns io.EOF when the
// source is exhausted and any other source error unchanged.
func (r *Reader) Next() (Frame, error) {
	for {
		data, ci, err := r.src.ReadPacketData()
		if err != nil {
			return Frame{}, err
		}
		index := r.packets
		r.packets++

		body, err := r.loc.Locate(data)
		if err != nil {
			r.skipped++
			if !errors.Is(err, ErrNotBeamforming) {
				r.log.Debug("undecodable packet", "index", index, "len", len(data), "error", err)
			}
			continue
		}

		return Frame{
			Data:      body,
			Timestamp: Timestamp(ci.Timestamp),
			Index:     index,
		}, nil
	}
}

// Packets returns the number of packets read so far.
func (r *Reader) Packets() int { return r.packets }

// Skipped returns the number of packets that carried no beamforming
// report.
func (r *Reader) Skipped() int { return r.skipped }

// ReadAll reads until the source is exhausted. ctx is checked between
// packets.
func (r *Reader) ReadAll(ctx context.Context) ([]Frame, error) {
	var frames []Frame
	for {
		if err := ctx.Err(); err != nil {
			return frames, err
		}
		f, err := r.Next()
		if errors.Is(err, io.EOF) {
			r.log.Debug("capture exhausted", "packets", r.packets, "frames", len(frames), "skipped", r.skipped)
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames = append(frames, f)
	}
}
