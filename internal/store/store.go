// Package store persists decoded beamforming frames as parquet, JSON lines
// or columnar JSON.
package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/llehouerou/go-bfi"
)

// ErrUnknownFormat is returned for unrecognised format names and file
// extensions.
var ErrUnknownFormat = errors.New("store: unknown output format")

// Format is an output encoding.
type Format string

// Output formats.
const (
	FormatParquet   Format = "parquet"
	FormatJSONLines Format = "jsonl"
	FormatJSON      Format = "json"
)

// Formats lists every supported format.
var Formats = []Format{FormatParquet, FormatJSONLines, FormatJSON}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatParquet, FormatJSONLines, FormatJSON:
		return f, nil
	case "ndjson":
		return FormatJSONLines, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FormatFromPath picks a format from the file extension of path.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return FormatParquet, nil
	case ".jsonl", ".ndjson":
		return FormatJSONLines, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// Writer appends decoded frames to an output. Frames passed to one Write
// call form one batch; Close finishes the output and must always be
// called.
type Writer interface {
	Write(frames []bfi.DecodedFrame) error
	Close() error
}

// NewWriter returns a Writer encoding to w. Close does not close w.
func NewWriter(w io.Writer, f Format) (Writer, error) {
	switch f {
	case FormatParquet:
		return newParquetWriter(w), nil
	case FormatJSONLines:
		return newJSONLinesWriter(w), nil
	case FormatJSON:
		return newColumnarWriter(w), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// Create creates or truncates the file at path and returns a Writer in
// format f. An empty f picks the format from the file extension.
func Create(path string, f Format) (Writer, error) {
	if f == "" {
		var err error
		if f, err = FormatFromPath(path); err != nil {
			return nil, err
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	w, err := NewWriter(file, f)
	if err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return nil, err
	}
	return &fileWriter{Writer: w, file: file}, nil
}

type fileWriter struct {
	Writer
	file *os.File
}

func (w *fileWriter) Close() error {
	err := w.Writer.Close()
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("store: %s: %w", w.file.Name(), err)
	}
	return nil
}

// errClosed is returned by writes after Close.
var errClosed = errors.New("store: writer closed")
