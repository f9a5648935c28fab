package main

import (
	"io"

	"github.com/goccy/go-json"

	"github.com/llehouerou/go-bfi"
	"github.com/llehouerou/go-bfi/internal/metrics"
	"github.com/llehouerou/go-bfi/internal/store"
)

// frameSink prints and batches decoded frames. w and out are optional.
type frameSink struct {
	w       store.Writer
	format  store.Format
	size    int
	pending []bfi.DecodedFrame
	enc     *json.Encoder
	metrics *metrics.Metrics

	frames  int
	batches int
}

func newFrameSink(w store.Writer, format store.Format, batchSize int, out io.Writer, m *metrics.Metrics) *frameSink {
	if batchSize < 1 {
		batchSize = 1
	}
	s := &frameSink{w: w, format: format, size: batchSize, metrics: m}
	if out != nil {
		s.enc = json.NewEncoder(out)
	}
	return s
}

func (s *frameSink) Add(f bfi.DecodedFrame) error {
	s.frames++
	if s.enc != nil {
		if err := s.enc.Encode(f); err != nil {
			return err
		}
	}
	if s.w == nil {
		return nil
	}
	s.pending = append(s.pending, f)
	if len(s.pending) >= s.size {
		return s.Flush()
	}
	return nil
}

// Flush writes the pending frames as one batch.
func (s *frameSink) Flush() error {
	if s.w == nil || len(s.pending) == 0 {
		return nil
	}
	if err := s.w.Write(s.pending); err != nil {
		return err
	}
	s.metrics.BatchWritten(string(s.format))
	s.batches++
	s.pending = s.pending[:0]
	return nil
}

// Close flushes and closes the writer.
func (s *frameSink) Close() error {
	if s.w == nil {
		return nil
	}
	err := s.Flush()
	if cerr := s.w.Close(); err == nil {
		err = cerr
	}
	s.w = nil
	return err
}

// openOutput creates the output writer, or returns nil when path is
// empty.
func openOutput(path, format string) (store.Writer, store.Format, error) {
	if path == "" {
		return nil, "", nil
	}
	var (
		f   store.Format
		err error
	)
	if format != "" {
		f, err = store.ParseFormat(format)
	} else {
		f, err = store.FormatFromPath(path)
	}
	if err != nil {
		return nil, "", err
	}
	w, err := store.Create(path, f)
	if err != nil {
		return nil, "", err
	}
	return w, f, nil
}
