package store

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/llehouerou/go-bfi"
)

// jsonLinesWriter writes one JSON object per frame and line.
type jsonLinesWriter struct {
	bw     *bufio.Writer
	enc    *json.Encoder
	closed bool
}

func newJSONLinesWriter(w io.Writer) *jsonLinesWriter {
	bw := bufio.NewWriter(w)
	return &jsonLinesWriter{bw: bw, enc: json.NewEncoder(bw)}
}

func (j *jsonLinesWriter) Write(frames []bfi.DecodedFrame) error {
	if j.closed {
		return errClosed
	}
	for _, f := range frames {
		if err := j.enc.Encode(f); err != nil {
			return fmt.Errorf("store: jsonl: %w", err)
		}
	}
	return j.bw.Flush()
}

func (j *jsonLinesWriter) Close() error {
	if j.closed {
		return nil
	}
	j.closed = true
	return j.bw.Flush()
}

// ReadJSONLines reads frames written by a JSON lines Writer.
func ReadJSONLines(r io.Reader) ([]bfi.DecodedFrame, error) {
	dec := json.NewDecoder(r)
	var frames []bfi.DecodedFrame
	for {
		var f bfi.DecodedFrame
		err := dec.Decode(&f)
		if errors.Is(err, io.EOF) {
			return frames, nil
		}
		if err != nil {
			return frames, fmt.Errorf("store: jsonl line %d: %w", len(frames)+1, err)
		}
		frames = append(frames, f)
	}
}

// columnarWriter collects every frame and writes a single Batch document
// on Close.
type columnarWriter struct {
	w      io.Writer
	batch  Batch
	closed bool
}

func newColumnarWriter(w io.Writer) *columnarWriter {
	return &columnarWriter{w: w}
}

func (c *columnarWriter) Write(frames []bfi.DecodedFrame) error {
	if c.closed {
		return errClosed
	}
	for _, f := range frames {
		c.batch.Append(f)
	}
	return nil
}

func (c *columnarWriter) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	data, err := json.Marshal(&c.batch)
	if err != nil {
		return fmt.Errorf("store: json: %w", err)
	}
	if _, err := c.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("store: json: %w", err)
	}
	return nil
}

// ReadColumnar reads a document written by a columnar JSON Writer.
func ReadColumnar(r io.Reader) (*Batch, error) {
	var b Batch
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("store: json: %w", err)
	}
	return &b, nil
}
