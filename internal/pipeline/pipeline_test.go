package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/llehouerou/go-bfi"
	"github.com/llehouerou/go-bfi/internal/capture"
	"github.com/llehouerou/go-bfi/internal/metrics"
)

// validReport is a 2x1, 40 MHz, Ng=16 report with dialog token token.
func validReport(token uint8, fill byte) []byte {
	word := uint64(1<<3|1<<6|1<<8) | uint64(token)<<30
	b := make([]byte, bfi.PayloadOffset, bfi.PayloadOffset+24)
	for i := range bfi.HeaderSize {
		b[i] = byte(word >> (8 * i))
	}
	return append(b, bytes.Repeat([]byte{fill}, 24)...)
}

func testFrames(n int, bad ...int) []capture.Frame {
	isBad := map[int]bool{}
	for _, i := range bad {
		isBad[i] = true
	}
	frames := make([]capture.Frame, n)
	for i := range frames {
		data := validReport(uint8(i%64), byte(i))
		if isBad[i] {
			data = data[:bfi.HeaderSize+1]
		}
		frames[i] = capture.Frame{Data: data, Timestamp: float64(i), Index: i * 2}
	}
	return frames
}

func TestDecodeAll(t *testing.T) {
	frames := testFrames(50)

	for _, workers := range []int{0, 1, 3, 64} {
		res, err := DecodeAll(context.Background(), frames, Options{Workers: workers})
		if err != nil {
			t.Fatalf("workers=%d: DecodeAll: %v", workers, err)
		}
		if len(res.Frames) != len(frames) || len(res.Rejected) != 0 {
			t.Fatalf("workers=%d: got %d frames, %d rejected", workers, len(res.Frames), len(res.Rejected))
		}
		for i, f := range res.Frames {
			want, _ := bfi.DecodeFrame(frames[i].Data, frames[i].Timestamp)
			if diff := cmp.Diff(want, f); diff != "" {
				t.Fatalf("workers=%d: frame %d mismatch (-want +got):\n%s", workers, i, diff)
			}
		}
	}
}

func TestDecodeAll_SkipMalformed(t *testing.T) {
	m := metrics.New()
	frames := testFrames(10, 2, 7)

	res, err := DecodeAll(context.Background(), frames, Options{Workers: 4, SkipMalformed: true, Metrics: m})
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}

	if len(res.Frames) != 8 {
		t.Errorf("got %d frames, want 8", len(res.Frames))
	}
	if len(res.Rejected) != 2 || res.Rejected[0].Index != 4 || res.Rejected[1].Index != 14 {
		t.Fatalf("Rejected = %+v, want capture indices 4 and 14", res.Rejected)
	}
	for _, r := range res.Rejected {
		if !errors.Is(&r, bfi.ErrInsufficientBits) {
			t.Errorf("rejected %d: %v is not ErrInsufficientBits", r.Index, r.Err)
		}
	}
	// Order of the survivors is the input order.
	for i := 1; i < len(res.Frames); i++ {
		if res.Frames[i].Timestamp <= res.Frames[i-1].Timestamp {
			t.Fatalf("frames out of order at %d", i)
		}
	}

	if got := testutil.ToFloat64(m.FramesDecoded); got != 8 {
		t.Errorf("FramesDecoded = %v, want 8", got)
	}
	if got := testutil.ToFloat64(m.FramesRejected.WithLabelValues("insufficient_bits")); got != 2 {
		t.Errorf("FramesRejected = %v, want 2", got)
	}
}

func TestDecodeAll_Abort(t *testing.T) {
	frames := testFrames(40, 9, 30)

	for _, workers := range []int{1, 8} {
		res, err := DecodeAll(context.Background(), frames, Options{Workers: workers})

		var fe *FrameError
		if !errors.As(err, &fe) {
			t.Fatalf("workers=%d: error = %v, want *FrameError", workers, err)
		}
		if fe.Index != 18 {
			t.Errorf("workers=%d: first failure at capture index %d, want 18", workers, fe.Index)
		}
		if !errors.Is(err, bfi.ErrInsufficientBits) {
			t.Errorf("workers=%d: %v does not unwrap to ErrInsufficientBits", workers, err)
		}
		if res.Frames != nil {
			t.Errorf("workers=%d: got partial result", workers)
		}
	}
}

func TestDecodeAll_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := DecodeAll(ctx, testFrames(5), Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestDecodeAll_Empty(t *testing.T) {
	res, err := DecodeAll(context.Background(), nil, Options{})
	if err != nil || len(res.Frames) != 0 {
		t.Errorf("DecodeAll(nil) = %+v, %v", res, err)
	}
}

type sliceReader struct {
	frames []capture.Frame
	err    error
}

func (r *sliceReader) Next() (capture.Frame, error) {
	if len(r.frames) == 0 {
		if r.err != nil {
			return capture.Frame{}, r.err
		}
		return capture.Frame{}, io.EOF
	}
	f := r.frames[0]
	r.frames = r.frames[1:]
	return f, nil
}

func TestStream(t *testing.T) {
	var got []uint8
	sink := func(f bfi.DecodedFrame) error {
		got = append(got, f.DialogToken)
		return nil
	}

	st, err := Stream(context.Background(), &sliceReader{frames: testFrames(5, 3)},
		Options{SkipMalformed: true}, sink)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if st != (Stats{Decoded: 4, Rejected: 1}) {
		t.Errorf("Stats = %+v", st)
	}
	if diff := cmp.Diff([]uint8{0, 1, 2, 4}, got); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestStream_Errors(t *testing.T) {
	noop := func(bfi.DecodedFrame) error { return nil }

	t.Run("malformed aborts", func(t *testing.T) {
		st, err := Stream(context.Background(), &sliceReader{frames: testFrames(5, 1)}, Options{}, noop)
		var fe *FrameError
		if !errors.As(err, &fe) || fe.Index != 2 {
			t.Errorf("error = %v, want FrameError at 2", err)
		}
		if st.Decoded != 1 {
			t.Errorf("Decoded = %d, want 1", st.Decoded)
		}
	})

	t.Run("source error", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := Stream(context.Background(), &sliceReader{err: boom}, Options{}, noop)
		if !errors.Is(err, boom) {
			t.Errorf("error = %v, want boom", err)
		}
	})

	t.Run("sink error", func(t *testing.T) {
		full := errors.New("disk full")
		_, err := Stream(context.Background(), &sliceReader{frames: testFrames(3)}, Options{},
			func(bfi.DecodedFrame) error { return full })
		if !errors.Is(err, full) {
			t.Errorf("error = %v, want disk full", err)
		}
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Stream(ctx, &sliceReader{frames: testFrames(3)}, Options{}, noop)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})
}
