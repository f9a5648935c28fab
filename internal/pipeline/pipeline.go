// Package pipeline decodes the beamforming reports found by the capture
// package, either as a bounded parallel batch or as a sequential stream.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/llehouerou/go-bfi"
	"github.com/llehouerou/go-bfi/internal/capture"
	"github.com/llehouerou/go-bfi/internal/logger"
	"github.com/llehouerou/go-bfi/internal/metrics"
)

// Options controls decoding.
type Options struct {
	// Workers bounds concurrent decodes; 0 selects GOMAXPROCS.
	Workers int
	// SkipMalformed records undecodable frames in Result.Rejected
	// instead of aborting.
	SkipMalformed bool

	Metrics *metrics.Metrics // optional
	Log     logger.Logger    // optional
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (o Options) log() logger.Logger {
	if o.Log == nil {
		return logger.Discard()
	}
	return o.Log
}

// FrameError is a decode failure of the frame at Index in the capture.
type FrameError struct {
	Index int
	Err   error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %d: %v", e.Index, e.Err)
}

func (e *FrameError) Unwrap() error { return e.Err }

// Result is the outcome of DecodeAll.
type Result struct {
	Frames   []bfi.DecodedFrame
	Rejected []FrameError
}

type slot struct {
	frame bfi.DecodedFrame
	err   error
}

// DecodeAll decodes frames with at most opts.Workers goroutines. Frames
// in the result keep the input order.
//
// Unless opts.SkipMalformed is set, the first undecodable frame in input
// order aborts the run with a *FrameError. ctx is checked before each
// frame is scheduled; a canceled run returns ctx.Err().
func DecodeAll(ctx context.Context, frames []capture.Frame, opts Options) (Result, error) {
	slots := make([]slot, len(frames))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())

	scheduled := 0
	for i := range frames {
		if gctx.Err() != nil {
			break
		}
		scheduled++
		g.Go(func() error {
			start := time.Now()
			f, err := bfi.DecodeFrame(frames[i].Data, frames[i].Timestamp)
			opts.Metrics.ObserveDecode(time.Since(start), err)

			slots[i] = slot{frame: f, err: err}
			if err != nil && !opts.SkipMalformed {
				return err
			}
			return nil
		})
	}
	werr := g.Wait()

	var res Result
	for i, s := range slots[:scheduled] {
		if s.err == nil {
			res.Frames = append(res.Frames, s.frame)
			continue
		}
		fe := FrameError{Index: frames[i].Index, Err: s.err}
		if !opts.SkipMalformed {
			return Result{}, &fe
		}
		opts.log().Debug("rejected frame", "index", fe.Index, "kind", bfi.Kind(s.err).Name(), "error", s.err)
		res.Rejected = append(res.Rejected, fe)
	}

	if werr != nil {
		return Result{}, werr
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	opts.log().Info("decoded frames", "frames", len(res.Frames), "rejected", len(res.Rejected))
	return res, nil
}

// FrameReader is satisfied by *capture.Reader.
type FrameReader interface {
	Next() (capture.Frame, error)
}

// Stats counts the frames a Stream call handled.
type Stats struct {
	Decoded  int
	Rejected int
}

// Stream decodes frames from r one at a time and passes each to sink,
// until r returns io.EOF, sink fails or ctx is done. Undecodable frames
// abort the stream unless opts.SkipMalformed is set. opts.Workers is
// ignored.
func Stream(ctx context.Context, r FrameReader, opts Options, sink func(bfi.DecodedFrame) error) (Stats, error) {
	var st Stats
	log := opts.log()

	for {
		if err := ctx.Err(); err != nil {
			return st, err
		}

		in, err := r.Next()
		if errors.Is(err, io.EOF) {
			return st, nil
		}
		if err != nil {
			return st, err
		}

		start := time.Now()
		f, err := bfi.DecodeFrame(in.Data, in.Timestamp)
		opts.Metrics.ObserveDecode(time.Since(start), err)
		if err != nil {
			if !opts.SkipMalformed {
				return st, &FrameError{Index: in.Index, Err: err}
			}
			st.Rejected++
			log.Debug("rejected frame", "index", in.Index, "kind", bfi.Kind(err).Name(), "error", err)
			continue
		}

		st.Decoded++
		if err := sink(f); err != nil {
			return st, err
		}
	}
}
