package capture

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"golang.org/x/sys/unix"
)

// Source is a packet source with a single link type.
type Source interface {
	gopacket.PacketDataSource
	LinkType() layers.LinkType
}

// pcapng section header block type, identical in both byte orders.
const pcapngMagic = 0x0A0D0D0A

// NewSource reads a pcap or pcapng stream from r. The format is detected
// from the first four bytes. The link type must be LinkType.
func NewSource(r io.Reader) (Source, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("capture: read file magic: %w", err)
	}

	var src Source
	if binary.LittleEndian.Uint32(magic) == pcapngMagic {
		src, err = pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
	} else {
		src, err = pcapgo.NewReader(br)
	}
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}

	if lt := src.LinkType(); lt != LinkType {
		return nil, fmt.Errorf("%w: %v (want %v)", ErrUnsupportedLinkType, lt, LinkType)
	}
	return src, nil
}

// File is a capture file opened for reading.
type File struct {
	Source
	f    *os.File
	data []byte // read-only mapping of f, nil if not mapped
}

// OpenFile opens a pcap or pcapng file. Regular files are mapped
// read-only; if mmap is unavailable the file is read through.
func OpenFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}

	file := &File{f: f}
	var r io.Reader = f
	if data, ok := mapFile(f); ok {
		file.data = data
		r = bytes.NewReader(data)
	}

	src, err := NewSource(r)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	file.Source = src
	return file, nil
}

func mapFile(f *os.File) ([]byte, bool) {
	st, err := f.Stat()
	if err != nil || !st.Mode().IsRegular() {
		return nil, false
	}
	size := st.Size()
	if size <= 0 || size > int64(int(^uint(0)>>1)) {
		return nil, false
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Close releases the mapping and closes the file. Packets already read
// stay valid; pcapgo copies each one out of the input.
func (f *File) Close() error {
	var err error
	if f.data != nil {
		err = unix.Munmap(f.data)
		f.data = nil
	}
	if cerr := f.f.Close(); err == nil {
		err = cerr
	}
	return err
}
