package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"ChartSentinel/internal/cache"
	"ChartSentinel/internal/model"
	"ChartSentinel/internal/recorder"
)

type fakeRecorder struct {
	recorder.NoopRecorder
	rows      []model.IndicatorRow
	gotLimit  int
	gotSymbol string
}

func (f *fakeRecorder) LatestIndicators(_ context.Context, symbol string, _ model.Interval, limit int) ([]model.IndicatorRow, error) {
	f.gotLimit, f.gotSymbol = limit, symbol
	if limit < len(f.rows) {
		return f.rows[len(f.rows)-limit:], nil
	}
	return f.rows, nil
}

func newTestServer(t *testing.T, rec *fakeRecorder, fc cache.FrameCache) *Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "test_counter_total", Help: "x"}))
	return NewServer(":0", NewHandler(rec, fc), reg)
}

func do(t *testing.T, s *Server, path string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.Echo().ServeHTTP(w, req)
	var resp Response
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return w, resp
}

func sampleRows(n int) []model.IndicatorRow {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]model.IndicatorRow, n)
	for i := range rows {
		rows[i] = model.IndicatorRow{Time: t0.Add(time.Duration(i) * time.Hour), Close: float64(100 + i), RSI: model.NaN()}
	}
	return rows
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, &fakeRecorder{}, cache.NewMemoryCache(0, 0))

	w, resp := do(t, s, "/healthz")
	if w.Code != http.StatusOK || resp.Status != http.StatusOK {
		t.Fatalf("healthz = %d", w.Code)
	}

	w, _ = do(t, s, "/metrics")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "test_counter_total") {
		t.Errorf("metrics output missing counter: %d\n%s", w.Code, w.Body.String())
	}
}

func TestIndicators(t *testing.T) {
	rec := &fakeRecorder{rows: sampleRows(5)}
	s := newTestServer(t, rec, cache.NewMemoryCache(0, 0))

	w, _ := do(t, s, "/api/v1/indicators/btcusdt/4h?limit=2")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if rec.gotLimit != 2 || rec.gotSymbol != "BTCUSDT" {
		t.Errorf("recorder called with %s limit %d", rec.gotSymbol, rec.gotLimit)
	}
	var body struct {
		Data model.IndicatorFrame `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Data.Rows) != 2 || body.Data.Rows[1].Close != 104 || body.Data.Rows[1].RSI.Valid() {
		t.Errorf("rows = %+v", body.Data.Rows)
	}
	if body.Data.Interval != model.Interval4h {
		t.Errorf("interval = %s", body.Data.Interval)
	}

	do(t, s, "/api/v1/indicators/BTCUSDT/1d")
	if rec.gotLimit != 100 {
		t.Errorf("default limit = %d", rec.gotLimit)
	}
}

func TestIndicatorsValidation(t *testing.T) {
	s := newTestServer(t, &fakeRecorder{}, cache.NewMemoryCache(0, 0))
	for _, path := range []string{
		"/api/v1/indicators/BTCUSDT/2h",
		"/api/v1/indicators/BTCUSDT/4h?limit=5000",
		"/api/v1/indicators/BTC-USDT/4h",
	} {
		w, resp := do(t, s, path)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d", path, w.Code)
		}
		if resp.Data == nil {
			t.Errorf("%s: expected validation errors", path)
		}
	}
}

func TestLatestPrefersCache(t *testing.T) {
	rec := &fakeRecorder{rows: sampleRows(3)}
	fc := cache.NewMemoryCache(time.Hour, time.Minute)
	s := newTestServer(t, rec, fc)

	// cache miss falls back to the recorder
	w, _ := do(t, s, "/api/v1/latest/BTCUSDT/15m")
	if w.Code != http.StatusOK || rec.gotLimit != 1 {
		t.Fatalf("fallback status %d limit %d", w.Code, rec.gotLimit)
	}

	fc.PutLatest(context.Background(), "ETHUSDT", model.Interval15m, model.IndicatorRow{Close: 2500})
	rec.gotLimit = 0
	w, _ = do(t, s, "/api/v1/latest/ethusdt/15m")
	var body struct {
		Data model.IndicatorRow `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if w.Code != http.StatusOK || body.Data.Close != 2500 || rec.gotLimit != 0 {
		t.Errorf("cache hit: status %d close %v recorder limit %d", w.Code, body.Data.Close, rec.gotLimit)
	}
}

func TestLatestNotFound(t *testing.T) {
	s := newTestServer(t, &fakeRecorder{}, cache.NewMemoryCache(0, 0))
	w, _ := do(t, s, "/api/v1/latest/BTCUSDT/4h")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d", w.Code)
	}
}

func TestReportsEmpty(t *testing.T) {
	s := newTestServer(t, &fakeRecorder{}, cache.NewMemoryCache(0, 0))
	w, _ := do(t, s, "/api/v1/reports/BTCUSDT/4h")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"data":[]`) {
		t.Errorf("status %d body %s", w.Code, w.Body.String())
	}
}
