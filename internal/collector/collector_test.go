package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"ChartSentinel/internal/model"
)

func klineJSON(openMs int64, open, high, low, cl, vol string) string {
	return fmt.Sprintf(`[%d,"%s","%s","%s","%s","%s",%d,"0",10,"0","0","0"]`, openMs, open, high, low, cl, vol, openMs+59999)
}

func TestParseKline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/klines" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("symbol") != "BTCUSDT" || q.Get("interval") != "4h" || q.Get("limit") != "1000" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if r.Header.Get("X-MBX-APIKEY") != "k" {
			t.Error("expected api key header")
		}
		fmt.Fprintf(w, "[%s,%s]",
			klineJSON(1700000000000, "37000.10", "37100.00", "36900.50", "37050.25", "12.5"),
			klineJSON(1700014400000, "37050.25", "37200.00", "37000.00", "37150.00", "8"))
	}))
	defer srv.Close()

	f := NewBinanceFetcher(srv.URL, "k", "")
	bars, err := f.FetchCandles(context.Background(), "BTCUSDT", model.Interval4h, time.UnixMilli(1700000000000))
	if err != nil {
		t.Fatal(err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	b := bars[0]
	if b.Open != 37000.10 || b.High != 37100 || b.Low != 36900.50 || b.Close != 37050.25 || b.Volume != 12.5 {
		t.Errorf("unexpected bar %+v", b)
	}
	if !b.Time.Equal(time.UnixMilli(1700000000000)) {
		t.Errorf("unexpected time %s", b.Time)
	}
}

func TestFetchCandles_Paging(t *testing.T) {
	const step = int64(15 * 60 * 1000)
	base := int64(1700000000000)
	total := klinesLimit + 250
	calls := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		from, _ := strconv.ParseInt(r.URL.Query().Get("startTime"), 10, 64)
		var rows []string
		for i := 0; i < total; i++ {
			ts := base + int64(i)*step
			if ts < from {
				continue
			}
			rows = append(rows, klineJSON(ts, "1", "2", "0.5", "1.5", "3"))
			if len(rows) == klinesLimit {
				break
			}
		}
		fmt.Fprintf(w, "[%s]", strings.Join(rows, ","))
	}))
	defer srv.Close()

	f := NewBinanceFetcher(srv.URL, "", "")
	bars, err := f.FetchCandles(context.Background(), "ETHUSDT", model.Interval15m, time.UnixMilli(base))
	if err != nil {
		t.Fatal(err)
	}
	if len(bars) != total {
		t.Fatalf("expected %d bars, got %d", total, len(bars))
	}
	if calls != 2 {
		t.Errorf("expected 2 pages, got %d", calls)
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			t.Fatalf("bars out of order at %d", i)
		}
	}
}

func TestFetchCandles_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":-1121,"msg":"Invalid symbol."}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	f := NewBinanceFetcher(srv.URL, "", "")
	_, err := f.FetchCandles(context.Background(), "NOPE", model.Interval1d, time.Now())
	if err == nil || !strings.Contains(err.Error(), "status 400") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestFetchCandles_BadDecimal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "[%s]", klineJSON(1700000000000, "abc", "2", "1", "1.5", "3"))
	}))
	defer srv.Close()

	f := NewBinanceFetcher(srv.URL, "", "")
	if _, err := f.FetchCandles(context.Background(), "BTCUSDT", model.Interval1d, time.Now()); err == nil {
		t.Fatal("expected decimal parse error")
	}
}

func TestDedupe(t *testing.T) {
	t0 := time.Unix(0, 0)
	bars := []model.OHLCV{
		{Time: t0.Add(2 * time.Hour), Close: 3},
		{Time: t0, Close: 1},
		{Time: t0.Add(2 * time.Hour), Close: 4},
	}
	out := dedupe(bars)
	if len(out) != 2 || out[0].Close != 1 || out[1].Close != 4 {
		t.Errorf("unexpected dedupe result %+v", out)
	}
}

func TestCollect_Mock(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m := &MockFetcher{Price: 60000, Now: func() time.Time { return now }}
	c := NewCollector(m, 50)
	c.now = func() time.Time { return now }

	s, err := c.Collect(context.Background(), "BTCUSDT", model.Interval4h)
	if err != nil {
		t.Fatal(err)
	}
	// 25 weeks of 4h bars
	if s.Len() < 25*7*6 || s.Len() > 25*7*6+1 {
		t.Errorf("unexpected bar count %d", s.Len())
	}
	if s.Symbol != "BTCUSDT" || s.Interval != model.Interval4h {
		t.Errorf("unexpected series key %s %s", s.Symbol, s.Interval)
	}
}

func TestCollect_Insufficient(t *testing.T) {
	m := &MockFetcher{Bars: generateMockBars(100, time.Hour, time.Unix(0, 0), time.Unix(0, 0).Add(10*time.Hour))}
	c := NewCollector(m, 50)
	_, err := c.Collect(context.Background(), "BTCUSDT", model.Interval1d)
	if !model.IsInsufficientData(err) {
		t.Fatalf("expected insufficient data, got %v", err)
	}
}

func TestCollect_FetchError(t *testing.T) {
	boom := errors.New("boom")
	c := NewCollector(&MockFetcher{Err: boom}, 50)
	_, err := c.Collect(context.Background(), "BTCUSDT", model.Interval1d)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped fetch error, got %v", err)
	}
	if _, err := c.Collect(context.Background(), "BTCUSDT", model.Interval("2h")); err == nil {
		t.Error("expected unknown interval error")
	}
}
