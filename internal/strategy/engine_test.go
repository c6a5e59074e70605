package strategy

import (
	"math"
	"strings"
	"testing"

	"ChartSentinel/internal/model"
)

func findFactor(t *testing.T, b *model.Bias, name string) model.FactorScore {
	t.Helper()
	for _, f := range b.Factors {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("factor %q not found", name)
	return model.FactorScore{}
}

func neutralRow() model.IndicatorRow {
	return model.IndicatorRow{
		Close:         100,
		RSI:           50,
		MACD:          0.2,
		MACDDiff:      0,
		EMA25:         101,
		EMA50:         99,
		EMA100:        102,
		EMA200:        100,
		SMA50:         100,
		SMA200:        101,
		BollingerHigh: 110,
		BollingerMid:  100,
		BollingerLow:  90,
		StochK:        50,
		CCI:           0,
		WilliamsR:     -50,
	}
}

func TestEvaluate_Neutral(t *testing.T) {
	b := Evaluate(neutralRow())
	if len(b.Factors) != 7 {
		t.Fatalf("expected 7 factors, got %d", len(b.Factors))
	}
	var weights float64
	for _, f := range b.Factors {
		weights += f.Weight
	}
	if math.Abs(weights-1.0) > 1e-9 {
		t.Errorf("weights sum to %.3f", weights)
	}
	if b.Tier.Label != "Neutral" {
		t.Errorf("expected Neutral, got %s (score %.3f)", b.Tier.Label, b.TotalScore)
	}
	if b.WarningMsg != "" {
		t.Errorf("unexpected warning: %s", b.WarningMsg)
	}
}

func TestEvaluate_StrongUptrend(t *testing.T) {
	row := model.IndicatorRow{
		Close:         130,
		RSI:           45,
		MACD:          2,
		MACDDiff:      0.5,
		EMA25:         125,
		EMA50:         120,
		EMA100:        115,
		EMA200:        110,
		SMA50:         120,
		SMA200:        105,
		BollingerHigh: 140,
		BollingerLow:  110,
		StochK:        50,
		CCI:           20,
		WilliamsR:     -50,
		Cross25x50:    model.CrossUp,
		DoubleBottom:  1,
	}
	b := Evaluate(row)
	if b.TotalScore < 0.6 {
		t.Errorf("expected bullish score, got %.3f", b.TotalScore)
	}
	ema := findFactor(t, b, "EMA stack")
	if ema.RawScore != 2.0 {
		t.Errorf("EMA stack = %.1f", ema.RawScore)
	}
	if !strings.Contains(ema.Commentary, "25_cross_ema_50 up") {
		t.Errorf("commentary should mention the cross: %q", ema.Commentary)
	}
	if len(b.Patterns) != 1 || b.Patterns[0] != "double_bottom" {
		t.Errorf("patterns = %v", b.Patterns)
	}
}

func TestEvaluate_Overbought(t *testing.T) {
	row := neutralRow()
	row.RSI = 90
	row.StochK = 95
	row.CCI = 250
	row.WilliamsR = -5
	b := Evaluate(row)
	if b.WarningMsg == "" {
		t.Error("expected overbought warning for RSI > 85")
	}
	if f := findFactor(t, b, "Oscillators"); f.RawScore != -2.0 {
		t.Errorf("oscillator score = %.3f", f.RawScore)
	}
	if b.TotalScore >= 0 {
		t.Errorf("expected negative score, got %.3f", b.TotalScore)
	}
}

func TestEvaluate_WarmupRow(t *testing.T) {
	row := model.IndicatorRow{
		Close: 100, RSI: model.NaN(), MACD: model.NaN(), MACDDiff: model.NaN(),
		EMA25: 100, EMA50: 100, EMA100: 100, EMA200: 100,
		SMA50: model.NaN(), SMA200: model.NaN(),
		BollingerHigh: model.NaN(), BollingerLow: model.NaN(),
		StochK: model.NaN(), CCI: model.NaN(), WilliamsR: model.NaN(),
	}
	b := Evaluate(row)
	for _, name := range []string{"RSI", "MACD", "SMA200 deviation", "Oscillators", "Bollinger position"} {
		f := findFactor(t, b, name)
		if f.RawScore != 0 || f.Commentary != "n/a" {
			t.Errorf("%s: expected unavailable, got %+v", name, f)
		}
	}
	if b.TotalScore != 0 {
		t.Errorf("total = %.3f", b.TotalScore)
	}
}

func TestMapTier_AllBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		label string
	}{
		{2.0, "Strong Bullish"},
		{1.2, "Strong Bullish"},
		{1.0, "Bullish"},
		{0.6, "Bullish"},
		{0.3, "Mildly Bullish"},
		{0.2, "Mildly Bullish"},
		{0.0, "Neutral"},
		{-0.2, "Neutral"},
		{-0.5, "Mildly Bearish"},
		{-0.6, "Mildly Bearish"},
		{-1.0, "Bearish"},
		{-1.2, "Bearish"},
		{-1.3, "Strong Bearish"},
		{-2.0, "Strong Bearish"},
	}
	for _, tt := range tests {
		tier := mapTier(tt.score)
		if tier.Label != tt.label {
			t.Errorf("score %.1f: expected %q, got %q", tt.score, tt.label, tier.Label)
		}
	}
}

func TestBollingerPosition_NonlinearLogic(t *testing.T) {
	row := neutralRow()
	row.Close = 111 // above the upper band

	if f := scoreBollingerPosition(row, 0); f.RawScore != -1.0 {
		t.Errorf("should cap at -1 when other factors avg >= -1, got %.1f", f.RawScore)
	}
	if f := scoreBollingerPosition(row, -1.2); f.RawScore != -2.0 {
		t.Errorf("should be -2 when other factors avg < -1, got %.1f", f.RawScore)
	}

	row.Close = 89
	if f := scoreBollingerPosition(row, 0); f.RawScore != 1.0 {
		t.Errorf("lower extreme should cap at 1, got %.1f", f.RawScore)
	}
	if f := scoreBollingerPosition(row, 1.5); f.RawScore != 2.0 {
		t.Errorf("lower extreme with bullish read should be 2, got %.1f", f.RawScore)
	}
}

func TestScorePatterns_Clamped(t *testing.T) {
	row := model.IndicatorRow{DoubleTop: 1, HeadAndShoulders: 1, Wedge: 1}
	f := scorePatterns(row)
	if f.RawScore != -2.0 {
		t.Errorf("expected clamp at -2, got %.2f", f.RawScore)
	}
	if f.Commentary != "wedge, double_top, head_and_shoulders" {
		t.Errorf("commentary = %q", f.Commentary)
	}
}

func TestScoreEMAStack_Bear(t *testing.T) {
	row := model.IndicatorRow{Close: 80, EMA25: 85, EMA50: 90, EMA100: 95, EMA200: 100}
	if f := scoreEMAStack(row); f.RawScore != -2.0 || f.Commentary != "bear stack" {
		t.Errorf("got %+v", f)
	}
}
