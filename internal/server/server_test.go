package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	stdimage "image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jmylchreest/contrastlens/internal/config"
	"github.com/jmylchreest/contrastlens/internal/image"
)

type fakeLoader struct {
	bm  *image.Bitmap
	err error
	got string
}

func (f *fakeLoader) Load(_ context.Context, path string) (*image.Bitmap, error) {
	f.got = path
	return f.bm, f.err
}

// stripedBitmap fails contrast in every 16px block.
func stripedBitmap(width, height int) *image.Bitmap {
	bm := image.NewBitmap(width, height)
	for x := 0; x < width; x += 4 {
		v := uint8(128)
		if (x/4)%2 == 1 {
			v = 100
		}
		bm.Fill(x, 0, 4, height, v, v, v)
	}
	return bm
}

func newTestServer(t *testing.T, loader *fakeLoader) http.Handler {
	t.Helper()
	opts := Options{Config: config.Default()}
	if loader != nil {
		opts.Loader = loader
	}
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s.Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	rec := doJSON(t, newTestServer(t, nil), http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decode[map[string]string](t, rec)
	if body["status"] != "available" {
		t.Errorf("status = %q, want available", body["status"])
	}
}

func TestAnalyzeURL(t *testing.T) {
	loader := &fakeLoader{bm: stripedBitmap(32, 32)}
	h := newTestServer(t, loader)

	rec := doJSON(t, h, http.MethodPost, "/v1/analyze?threshold=1.0", AnalyzeRequest{URL: "https://example.com/shot.png"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if loader.got != "https://example.com/shot.png" {
		t.Errorf("loader got %q", loader.got)
	}

	resp := decode[AnalyzeResponse](t, rec)
	if resp.Total != 4 || len(resp.Results) != 4 {
		t.Errorf("Total = %d, results = %d, want 4 and 4", resp.Total, len(resp.Results))
	}
	if resp.Width != 32 || resp.BlockSize != 16 {
		t.Errorf("Width = %d BlockSize = %d", resp.Width, resp.BlockSize)
	}
}

func TestAnalyzeThresholdHidesResults(t *testing.T) {
	h := newTestServer(t, &fakeLoader{bm: stripedBitmap(32, 32)})

	rec := doJSON(t, h, http.MethodPost, "/v1/analyze?threshold=3", AnalyzeRequest{URL: "https://example.com/a.png"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decode[AnalyzeResponse](t, rec)
	if resp.Total != 4 {
		t.Errorf("Total = %d, want 4 regardless of threshold", resp.Total)
	}
	if len(resp.Results) != 0 {
		t.Errorf("results = %d, want 0 at threshold 3", len(resp.Results))
	}
	if resp.Summary.Count != 0 {
		t.Errorf("Summary.Count = %d, want 0 to match the shown results", resp.Summary.Count)
	}
}

func TestAnalyzeMultipart(t *testing.T) {
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, 32, 32))
	copy(img.Pix, stripedBitmap(32, 32).Pix)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("image", "shot.png")
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if err := png.Encode(fw, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/analyze?block_size=16&threshold=1", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	newTestServer(t, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if resp := decode[AnalyzeResponse](t, rec); resp.Total != 4 {
		t.Errorf("Total = %d, want 4", resp.Total)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       any
		loader     *fakeLoader
		wantStatus int
	}{
		{name: "bad block size", path: "/v1/analyze?block_size=0", body: AnalyzeRequest{URL: "https://example.com"}, wantStatus: http.StatusBadRequest},
		{name: "bad threshold", path: "/v1/analyze?threshold=abc", body: AnalyzeRequest{URL: "https://example.com"}, wantStatus: http.StatusBadRequest},
		{name: "threshold out of range", path: "/v1/analyze?threshold=0.5", body: AnalyzeRequest{URL: "https://example.com"}, wantStatus: http.StatusBadRequest},
		{name: "private url", path: "/v1/analyze", body: AnalyzeRequest{URL: "http://127.0.0.1/a.png"}, wantStatus: http.StatusBadRequest},
		{name: "missing url", path: "/v1/analyze", body: AnalyzeRequest{}, wantStatus: http.StatusBadRequest},
		{
			name:       "fetch failure",
			path:       "/v1/analyze",
			body:       AnalyzeRequest{URL: "https://example.com/a.png"},
			loader:     &fakeLoader{err: errors.New("connection refused")},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "fetch timeout",
			path:       "/v1/analyze",
			body:       AnalyzeRequest{URL: "https://example.com/a.png"},
			loader:     &fakeLoader{err: context.DeadlineExceeded},
			wantStatus: http.StatusGatewayTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := tt.loader
			if loader == nil {
				loader = &fakeLoader{bm: stripedBitmap(16, 16)}
			}
			rec := doJSON(t, newTestServer(t, loader), http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if resp := decode[ErrorResponse](t, rec); resp.Error == "" {
				t.Error("error response missing error field")
			}
		})
	}
}

func TestFilter(t *testing.T) {
	h := newTestServer(t, nil)
	body := map[string]any{
		"results": []map[string]any{
			{"x": 0, "y": 0, "ratio": 1.5, "score": 0.8},
			{"x": 16, "y": 0, "ratio": 2.5, "score": 0.1},
		},
		"threshold": 2.0,
	}

	rec := doJSON(t, h, http.MethodPost, "/v1/filter", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decode[FilterResponse](t, rec)
	if resp.Total != 2 || len(resp.Results) != 1 || resp.Results[0].X != 16 {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Summary.Count != 1 || resp.Summary.MeanRatio != 2.5 {
		t.Errorf("Summary = %+v, want it computed over the shown result", resp.Summary)
	}

	body["threshold"] = 40.0
	if rec := doJSON(t, h, http.MethodPost, "/v1/filter", body); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for out-of-range threshold", rec.Code)
	}
}

func TestPair(t *testing.T) {
	h := newTestServer(t, nil)

	rec := doJSON(t, h, http.MethodPost, "/v1/pair", PairRequest{Background: "#808080", Text: "#646464", X: 5, Y: 6})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decode[map[string]any](t, rec)
	if resp["compliant"] != false {
		t.Errorf("compliant = %v, want false", resp["compliant"])
	}
	if resp["x"] != float64(5) {
		t.Errorf("x = %v, want 5", resp["x"])
	}

	rec = doJSON(t, h, http.MethodPost, "/v1/pair", PairRequest{Background: "#fff", Text: "oops"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for bad colour", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t, &fakeLoader{bm: stripedBitmap(32, 32)})
	doJSON(t, h, http.MethodPost, "/v1/analyze", AnalyzeRequest{URL: "https://example.com/a.png"})

	rec := doJSON(t, h, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	out := rec.Body.String()
	for _, want := range []string{`contrastlens_scans_total{status="success"} 1`, "contrastlens_violations_total 4"} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
