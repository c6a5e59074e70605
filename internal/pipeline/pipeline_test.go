package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"ChartSentinel/internal/model"
)

func testSeries(t *testing.T, n int) *model.CandleSeries {
	t.Helper()
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, n)
	for i := range bars {
		base := 30000 + 15*float64(i) + 900*math.Sin(float64(i)/9)
		open := base - 20*math.Cos(float64(i))
		cl := base + 20*math.Sin(float64(i)/2)
		bars[i] = model.OHLCV{
			Time:   t0.Add(time.Duration(i) * 4 * time.Hour),
			Open:   open,
			High:   math.Max(open, cl) + 60,
			Low:    math.Min(open, cl) - 60,
			Close:  cl,
			Volume: 500 + float64(i%13)*25,
		}
	}
	s, err := model.NewCandleSeries("BTCUSDT", model.Interval4h, bars)
	if err != nil {
		t.Fatalf("build series: %v", err)
	}
	return s
}

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	if p.MinRows != 50 || p.MinorPivotWindow != 10 || p.FibWindow != 20 || p.PatternWindow != 10 || p.PatternTolerance != 0.02 {
		t.Errorf("unexpected defaults %+v", p)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	if p.Floor() != 50 {
		t.Errorf("expected floor 50, got %d", p.Floor())
	}
	p.MinRows = 5
	if p.Floor() != 20 {
		t.Errorf("floor should rise to the fib window, got %d", p.Floor())
	}
}

func TestParamsValidate(t *testing.T) {
	p := DefaultParams()
	p.PatternTolerance = 0
	if err := p.Validate(); err == nil {
		t.Error("expected tolerance error")
	}
	p = DefaultParams()
	p.PatternWindow = 1
	if err := p.Validate(); err == nil {
		t.Error("expected window error")
	}
}

func TestRun_Alignment(t *testing.T) {
	s := testSeries(t, 300)
	f, err := Run(s, DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	if f.Len() != s.Len() {
		t.Fatalf("frame has %d rows, series has %d", f.Len(), s.Len())
	}
	if f.Symbol != "BTCUSDT" || f.Interval != model.Interval4h {
		t.Errorf("unexpected frame key %s %s", f.Symbol, f.Interval)
	}
	for i, r := range f.Rows {
		if !r.Time.Equal(s.Bars[i].Time) || r.Close != s.Bars[i].Close {
			t.Fatalf("row %d not aligned with bar %d", i, i)
		}
	}
}

func TestRun_EMA200Filled(t *testing.T) {
	f, err := Run(testSeries(t, 300), DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range f.Rows {
		if !r.EMA200.Valid() || !r.EMA25.Valid() {
			t.Fatalf("row %d has an undefined EMA", i)
		}
	}
	if f.Rows[0].SMA200.Valid() {
		t.Error("sma_200 keeps its warmup gap")
	}
	if f.Rows[0].Pivot.Valid() {
		t.Error("major pivot is undefined on row 0")
	}
	if !f.Rows[1].Pivot.Valid() {
		t.Error("major pivot is defined from row 1")
	}
	for i := 0; i < 19; i++ {
		if f.Rows[i].Fib382.Valid() {
			t.Fatalf("fib_38_2 row %d should be undefined", i)
		}
	}
}

func TestRun_Deterministic(t *testing.T) {
	s := testSeries(t, 260)
	a, err := Run(s, DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	b, err := Run(s, DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	if !bytes.Equal(ja, jb) {
		t.Error("two runs over the same series differ")
	}
}

func TestRun_DoesNotMutateSeries(t *testing.T) {
	s := testSeries(t, 120)
	before := make([]model.OHLCV, len(s.Bars))
	copy(before, s.Bars)
	if _, err := Run(s, DefaultParams()); err != nil {
		t.Fatal(err)
	}
	for i := range before {
		if before[i] != s.Bars[i] {
			t.Fatalf("bar %d changed", i)
		}
	}
}

func TestRun_RowFloor(t *testing.T) {
	s := testSeries(t, 40)
	_, err := Run(s, DefaultParams())
	var ide *model.InsufficientDataError
	if !errors.As(err, &ide) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
	if ide.Have != 40 || ide.Need != 50 {
		t.Errorf("unexpected error fields %+v", ide)
	}

	p := DefaultParams()
	p.MinRows = 30
	f, err := Run(s, p)
	if err != nil {
		t.Fatalf("lowered floor should run: %v", err)
	}
	if f.Len() != 40 {
		t.Errorf("expected 40 rows, got %d", f.Len())
	}
}

func TestRun_NilSeries(t *testing.T) {
	if _, err := Run(nil, DefaultParams()); err == nil {
		t.Error("expected error")
	}
}
