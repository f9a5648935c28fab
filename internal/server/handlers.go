package server

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/llehouerou/go-bfi"
	"github.com/llehouerou/go-bfi/internal/capture"
	"github.com/llehouerou/go-bfi/internal/pipeline"
	"github.com/llehouerou/go-bfi/internal/store"
)

const (
	routeDecodeFrame   = "/v1/frames/decode"
	routeDecodeCapture = "/v1/captures"
)

// DecodeFrameRequest carries one header-relative report as hex.
type DecodeFrameRequest struct {
	Data      string  `json:"data"`
	Timestamp float64 `json:"timestamp"`
}

// CaptureResponse is the result of decoding an uploaded capture. Data
// holds the frames in the columnar batch layout.
type CaptureResponse struct {
	ID       string       `json:"id"`
	Packets  int          `json:"packets"`
	Frames   int          `json:"frames"`
	Skipped  int          `json:"skipped"`
	Rejected []ErrorBody  `json:"rejected"`
	Data     *store.Batch `json:"data"`
}

func newSessionID() string {
	return uuid.NewString()
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}

// parseHex accepts hex with optional whitespace or colon separators.
func parseHex(s string) ([]byte, error) {
	s = strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == ':' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	}), "")
	if s == "" {
		return nil, newInvalidRequest("data: empty report")
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, newInvalidRequest(fmt.Sprintf("data: %v", err))
	}
	return b, nil
}

func (s *Server) handleDecodeFrame(c *echo.Context) error {
	req, err := decodeJSON[DecodeFrameRequest](io.LimitReader(c.Request().Body, s.cfg.MaxUploadBytes))
	if err != nil {
		return s.writeBadRequest(c, routeDecodeFrame, err.Error())
	}
	data, err := parseHex(req.Data)
	if err != nil {
		return s.writeBadRequest(c, routeDecodeFrame, err.Error())
	}

	start := time.Now()
	report, err := bfi.Inspect(data, req.Timestamp)
	s.metrics.ObserveDecode(time.Since(start), err)
	if err != nil {
		return s.writeDecodeError(c, routeDecodeFrame, err, nil)
	}
	return s.respond(c, routeDecodeFrame, http.StatusOK, report)
}

func (s *Server) skipMalformed(c *echo.Context) (bool, error) {
	q := c.QueryParam("skip_malformed")
	if q == "" {
		return s.cfg.SkipMalformed, nil
	}
	v, err := strconv.ParseBool(q)
	if err != nil {
		return false, newInvalidRequest(fmt.Sprintf("skip_malformed: invalid boolean %q", q))
	}
	return v, nil
}

func (s *Server) handleDecodeCapture(c *echo.Context) error {
	skip, err := s.skipMalformed(c)
	if err != nil {
		return s.writeBadRequest(c, routeDecodeCapture, err.Error())
	}

	body := http.MaxBytesReader(c.Response(), c.Request().Body, s.cfg.MaxUploadBytes)
	raw, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg := fmt.Sprintf("capture exceeds %d bytes", tooLarge.Limit)
			return s.writeError(c, routeDecodeCapture, http.StatusRequestEntityTooLarge, "invalid_request_error", msg)
		}
		return s.writeBadRequest(c, routeDecodeCapture, err.Error())
	}
	s.metrics.ObserveUpload(int64(len(raw)))

	src, err := capture.NewSource(bytes.NewReader(raw))
	if err != nil {
		return s.writeBadRequest(c, routeDecodeCapture, err.Error())
	}

	id := s.newID()
	log := s.log.With("session", id)
	ctx := c.Request().Context()

	r := capture.NewReader(src, log)
	frames, err := r.ReadAll(ctx)
	if err != nil {
		return s.writeBadRequest(c, routeDecodeCapture, fmt.Sprintf("read capture: %v", err))
	}
	s.metrics.AddSkipped(r.Skipped())

	res, err := pipeline.DecodeAll(ctx, frames, pipeline.Options{
		Workers:       s.cfg.Workers,
		SkipMalformed: skip,
		Metrics:       s.metrics,
		Log:           log,
	})
	if err != nil {
		var fe *pipeline.FrameError
		if errors.As(err, &fe) {
			index := fe.Index
			return s.writeDecodeError(c, routeDecodeCapture, fe.Err, &index)
		}
		return s.writeError(c, routeDecodeCapture, http.StatusServiceUnavailable, "canceled", err.Error())
	}

	rejected := make([]ErrorBody, 0, len(res.Rejected))
	for _, fe := range res.Rejected {
		index := fe.Index
		rejected = append(rejected, ErrorBody{
			Message: fe.Err.Error(),
			Type:    bfi.Kind(fe.Err).Name(),
			Index:   &index,
		})
	}

	log.Info("capture decoded",
		"packets", r.Packets(),
		"frames", len(res.Frames),
		"skipped", r.Skipped(),
		"rejected", len(rejected))

	return s.respond(c, routeDecodeCapture, http.StatusOK, CaptureResponse{
		ID:       id,
		Packets:  r.Packets(),
		Frames:   len(res.Frames),
		Skipped:  r.Skipped(),
		Rejected: rejected,
		Data:     store.NewBatch(res.Frames),
	})
}
