package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/llehouerou/go-bfi"
)

func TestObserveDecode(t *testing.T) {
	m := New()

	m.ObserveDecode(time.Microsecond, nil)
	m.ObserveDecode(time.Microsecond, nil)
	_, err := bfi.DecodeHeader(nil)
	m.ObserveDecode(time.Microsecond, err)

	if got := testutil.ToFloat64(m.FramesDecoded); got != 2 {
		t.Errorf("FramesDecoded = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.FramesRejected.WithLabelValues("insufficient_bits")); got != 1 {
		t.Errorf("FramesRejected{insufficient_bits} = %v, want 1", got)
	}
}

func TestCounters(t *testing.T) {
	m := New()
	m.AddSkipped(3)
	m.AddSkipped(0)
	m.AddSkipped(-1)
	m.BatchWritten("parquet")
	m.ObserveRequest("/v1/frames/decode", 422)

	if got := testutil.ToFloat64(m.PacketsSkipped); got != 3 {
		t.Errorf("PacketsSkipped = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.BatchesWritten.WithLabelValues("parquet")); got != 1 {
		t.Errorf("BatchesWritten{parquet} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/v1/frames/decode", "422")); got != 1 {
		t.Errorf("HTTPRequests = %v, want 1", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	// Must not panic.
	m.ObserveDecode(time.Second, nil)
	m.AddSkipped(1)
	m.BatchWritten("json")
	m.ObserveRequest("/", 200)
	m.ObserveUpload(10)
	if m.Registry() != nil {
		t.Error("nil Metrics has a registry")
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 404 {
		t.Errorf("nil handler status = %d, want 404", rec.Code)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveDecode(time.Millisecond, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{"bfi_decode_frames_total 1", "bfi_decode_duration_seconds_bucket", "go_goroutines"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}
