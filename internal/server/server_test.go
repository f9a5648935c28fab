package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/labstack/echo/v5"

	"github.com/llehouerou/go-bfi"
	"github.com/llehouerou/go-bfi/internal/capture"
	"github.com/llehouerou/go-bfi/internal/metrics"
)

// reportHex is a 2x1, 40 MHz, Ng=16 report with dialog token 42 whose
// 32 subcarriers all hold phi=5, psi=2.
var reportHex = "48010080" + "0a" + "aabb" + strings.Repeat("655996", 8)

func testReport(t *testing.T) []byte {
	t.Helper()
	b, err := parseHex(reportHex)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func newTestServer(cfg Config) (*Server, *echo.Echo) {
	s := New(cfg, metrics.New(), nil)
	s.newID = func() string { return "session-1" }
	e := echo.New()
	s.Register(e)
	return s, e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func doUpload(t *testing.T, e *echo.Echo, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, "application/vnd.tcpdump.pcap")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v body=%s", err, rec.Body.String())
	}
	return resp.Error
}

// beamformingPacket wraps a report in radiotap, an Action No Ack header
// and the HE compressed beamforming action fields.
func beamformingPacket(report []byte) []byte {
	p := []byte{0x00, 0x00, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00}
	hdr := make([]byte, 24)
	hdr[0] = 0xE0
	p = append(p, hdr...)
	p = append(p, capture.CategoryHE, capture.ActionHECompressedBeamforming)
	return append(p, report...)
}

func beaconPacket() []byte {
	p := []byte{0x00, 0x00, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00}
	hdr := make([]byte, 24)
	hdr[0] = 0x80
	return append(p, hdr...)
}

func pcapFile(t *testing.T, pkts ...[]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := pcapgo.NewWriter(&buf)
	if err := w.WriteFileHeader(65535, layers.LinkTypeIEEE80211Radio); err != nil {
		t.Fatal(err)
	}
	base := time.Unix(1700000000, 0)
	for i, p := range pkts {
		ci := gopacket.CaptureInfo{
			Timestamp:     base.Add(time.Duration(i) * 500 * time.Millisecond),
			CaptureLength: len(p),
			Length:        len(p),
		}
		if err := w.WritePacket(ci, p); err != nil {
			t.Fatal(err)
		}
	}
	return buf.Bytes()
}

func TestHealth(t *testing.T) {
	_, e := newTestServer(Config{})

	rec := doJSON(t, e, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	var got healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != "ok" || got.Version.Version == "" {
		t.Errorf("unexpected health %+v", got)
	}
}

type frameResponse struct {
	Header bfi.HeMimoControl `json:"header"`
	Layout struct {
		Pattern        []int `json:"bitfield_pattern"`
		NumSubcarriers int   `json:"num_subcarrier"`
	} `json:"layout"`
	Frame struct {
		Timestamp   float64    `json:"timestamp"`
		TokenNumber int        `json:"token_number"`
		Angles      [][]uint16 `json:"bfa_angles"`
	} `json:"frame"`
}

func TestDecodeFrame(t *testing.T) {
	_, e := newTestServer(Config{})

	rec := doJSON(t, e, http.MethodPost, "/v1/frames/decode", `{"data":"`+reportHex+`","timestamp":2.5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}

	var got frameResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Header.NrIndex != 1 || got.Header.Bandwidth != bfi.Bandwidth40 || got.Header.DialogTokenNumber != 42 {
		t.Errorf("unexpected header %+v", got.Header)
	}
	if diff := cmp.Diff([]int{4, 2}, got.Layout.Pattern); diff != "" {
		t.Errorf("pattern mismatch (-want +got):\n%s", diff)
	}
	if got.Layout.NumSubcarriers != 32 {
		t.Errorf("num_subcarrier = %d, want 32", got.Layout.NumSubcarriers)
	}
	if got.Frame.Timestamp != 2.5 || got.Frame.TokenNumber != 42 {
		t.Errorf("unexpected frame metadata %+v", got.Frame)
	}
	if len(got.Frame.Angles) != 32 {
		t.Fatalf("got %d subcarriers, want 32", len(got.Frame.Angles))
	}
	for i, row := range got.Frame.Angles {
		if !cmp.Equal(row, []uint16{5, 2}) {
			t.Fatalf("subcarrier %d = %v, want [5 2]", i, row)
		}
	}
}

func TestDecodeFrame_Separators(t *testing.T) {
	_, e := newTestServer(Config{})

	spaced := "48:01:00:80:0a aa bb\n" + strings.Repeat("65 59 96 ", 8)
	rec := doJSON(t, e, http.MethodPost, "/v1/frames/decode", `{"data":"`+strings.ReplaceAll(spaced, "\n", `\n`)+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestDecodeFrame_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		status   int
		wantType string
	}{
		{"malformed json", `{"data":`, http.StatusBadRequest, "invalid_request_error"},
		{"unknown field", `{"data":"00","snr":1}`, http.StatusBadRequest, "invalid_request_error"},
		{"empty data", `{"data":""}`, http.StatusBadRequest, "invalid_request_error"},
		{"bad hex", `{"data":"zz"}`, http.StatusBadRequest, "invalid_request_error"},
		{"odd hex", `{"data":"480"}`, http.StatusBadRequest, "invalid_request_error"},
		{"short header", `{"data":"4801"}`, http.StatusUnprocessableEntity, "insufficient_bits"},
		{"truncated payload", `{"data":"` + reportHex[:len(reportHex)-2] + `"}`, http.StatusUnprocessableEntity, "insufficient_bits"},
		{"CQI report", `{"data":"0808000000` + strings.Repeat("00", 64) + `"}`, http.StatusUnprocessableEntity, "invalid_header_combination"},
	}

	_, e := newTestServer(Config{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, e, http.MethodPost, "/v1/frames/decode", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status: got %d want %d body=%s", rec.Code, tt.status, rec.Body.String())
			}
			got := decodeError(t, rec)
			if got.Type != tt.wantType || got.Message == "" {
				t.Errorf("error = %+v, want type %q", got, tt.wantType)
			}
			if got.Index != nil {
				t.Errorf("single frame error carries index %d", *got.Index)
			}
		})
	}
}

func TestDecodeCapture(t *testing.T) {
	_, e := newTestServer(Config{SkipMalformed: true, Workers: 2})

	good := testReport(t)
	body := pcapFile(t,
		beamformingPacket(good),
		beaconPacket(),
		beamformingPacket(good[:bfi.HeaderSize+1]),
		beamformingPacket(good),
	)

	rec := doUpload(t, e, "/v1/captures", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}

	var got struct {
		ID       string      `json:"id"`
		Packets  int         `json:"packets"`
		Frames   int         `json:"frames"`
		Skipped  int         `json:"skipped"`
		Rejected []ErrorBody `json:"rejected"`
		Data     struct {
			Timestamps []float64    `json:"timestamps"`
			TokenNums  []int        `json:"token_nums"`
			BFAAngles  [][][]uint16 `json:"bfa_angles"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if got.ID != "session-1" {
		t.Errorf("id = %q, want session-1", got.ID)
	}
	if got.Packets != 4 || got.Frames != 2 || got.Skipped != 1 {
		t.Errorf("packets, frames, skipped = %d, %d, %d; want 4, 2, 1", got.Packets, got.Frames, got.Skipped)
	}
	if len(got.Rejected) != 1 {
		t.Fatalf("got %d rejections, want 1", len(got.Rejected))
	}
	if r := got.Rejected[0]; r.Type != "insufficient_bits" || r.Index == nil || *r.Index != 2 {
		t.Errorf("unexpected rejection %+v", r)
	}

	if diff := cmp.Diff([]int{42, 42}, got.Data.TokenNums); diff != "" {
		t.Errorf("token_nums mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{1700000000, 1700000001.5}, got.Data.Timestamps); diff != "" {
		t.Errorf("timestamps mismatch (-want +got):\n%s", diff)
	}
	if len(got.Data.BFAAngles) != 2 || len(got.Data.BFAAngles[1]) != 32 {
		t.Errorf("unexpected bfa_angles shape")
	}
}

func TestDecodeCapture_Abort(t *testing.T) {
	_, e := newTestServer(Config{SkipMalformed: true})

	good := testReport(t)
	body := pcapFile(t,
		beaconPacket(),
		beamformingPacket(good),
		beamformingPacket(good[:bfi.HeaderSize]),
	)

	rec := doUpload(t, e, "/v1/captures?skip_malformed=false", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	got := decodeError(t, rec)
	if got.Type != "insufficient_bits" || got.Index == nil || *got.Index != 2 {
		t.Errorf("unexpected error %+v", got)
	}
}

func TestDecodeCapture_Errors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   []byte
		limit  int64
		status int
	}{
		{"garbage", "/v1/captures", []byte("not a capture at all"), 0, http.StatusBadRequest},
		{"empty", "/v1/captures", nil, 0, http.StatusBadRequest},
		{"too large", "/v1/captures", bytes.Repeat([]byte{0}, 64), 16, http.StatusRequestEntityTooLarge},
		{"bad flag", "/v1/captures?skip_malformed=maybe", nil, 0, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, e := newTestServer(Config{MaxUploadBytes: tt.limit})
			rec := doUpload(t, e, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status: got %d want %d body=%s", rec.Code, tt.status, rec.Body.String())
			}
			if got := decodeError(t, rec); got.Type != "invalid_request_error" {
				t.Errorf("type = %q, want invalid_request_error", got.Type)
			}
		})
	}
}

func TestDecodeCapture_Truncated(t *testing.T) {
	_, e := newTestServer(Config{})

	body := pcapFile(t, beamformingPacket(testReport(t)))
	rec := doUpload(t, e, "/v1/captures", body[:len(body)-10])
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestMetrics(t *testing.T) {
	_, e := newTestServer(Config{})

	doJSON(t, e, http.MethodPost, "/v1/frames/decode", `{"data":"`+reportHex+`"}`)
	doJSON(t, e, http.MethodPost, "/v1/frames/decode", `{"data":"00"}`)

	rec := doJSON(t, e, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	out, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`bfi_decode_frames_total 1`,
		`bfi_decode_rejected_total{kind="insufficient_bits"} 1`,
		`bfi_http_requests_total{code="200",route="/v1/frames/decode"} 1`,
		`bfi_http_requests_total{code="422",route="/v1/frames/decode"} 1`,
	} {
		if !strings.Contains(string(out), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestMetrics_Disabled(t *testing.T) {
	e := echo.New()
	New(Config{}, nil, nil).Register(e)

	rec := doJSON(t, e, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rec.Code)
	}

	// Handlers still work without metrics.
	rec = doJSON(t, e, http.MethodPost, "/v1/frames/decode", `{"data":"`+reportHex+`"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("decode status: got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestParseHex(t *testing.T) {
	got, err := parseHex("de:ad be\tef\r\n")
	if err != nil {
		t.Fatalf("parseHex: %v", err)
	}
	if !bytes.Equal(got, []byte{0xDE, 0xAD, 0xBE, 0xEF}) {
		t.Errorf("parseHex = % x", got)
	}
}
