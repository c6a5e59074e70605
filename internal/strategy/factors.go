package strategy

import (
	"fmt"
	"strings"

	"ChartSentinel/internal/calculator"
	"ChartSentinel/internal/model"
)

func factor(name string, score, weight float64, commentary string) model.FactorScore {
	return model.FactorScore{
		Name:       name,
		RawScore:   score,
		Weight:     weight,
		Weighted:   score * weight,
		Commentary: commentary,
	}
}

func unavailable(name string, weight float64) model.FactorScore {
	return factor(name, 0, weight, "n/a")
}

// scoreRSI reads RSI(14) as a reversal gauge: oversold scores positive.
// Weight: 0.20
func scoreRSI(row model.IndicatorRow) model.FactorScore {
	const name, weight = "RSI", 0.20
	if !row.RSI.Valid() {
		return unavailable(name, weight)
	}
	rsi := row.RSI.Float()
	var score float64
	switch {
	case rsi <= 25:
		score = 2.0
	case rsi <= 30:
		score = 1.5
	case rsi <= 40:
		score = 1.0
	case rsi <= 45:
		score = 0.5
	case rsi <= 55:
		score = 0
	case rsi <= 60:
		score = -0.5
	case rsi <= 70:
		score = -1.0
	case rsi <= 80:
		score = -1.5
	default:
		score = -2.0
	}
	return factor(name, score, weight, fmt.Sprintf("RSI=%.0f", rsi))
}

// scoreMACD reads the histogram sign and the MACD line side of zero.
// Weight: 0.15
func scoreMACD(row model.IndicatorRow) model.FactorScore {
	const name, weight = "MACD", 0.15
	if !row.MACD.Valid() || !row.MACDDiff.Valid() {
		return unavailable(name, weight)
	}
	macd, hist := row.MACD.Float(), row.MACDDiff.Float()
	var score float64
	switch {
	case hist > 0 && macd > 0:
		score = 1.5
	case hist > 0:
		score = 1.0
	case hist < 0 && macd < 0:
		score = -1.5
	case hist < 0:
		score = -1.0
	}
	return factor(name, score, weight, fmt.Sprintf("hist %+.4g", hist))
}

// scoreEMAStack checks the ordering of price and the four EMAs, and notes a
// cross on the latest row.
// Weight: 0.20
// Bull stack: close > EMA25 > EMA50 > EMA100 > EMA200
func scoreEMAStack(row model.IndicatorRow) model.FactorScore {
	const name, weight = "EMA stack", 0.20
	if !row.EMA25.Valid() || !row.EMA50.Valid() || !row.EMA100.Valid() || !row.EMA200.Valid() {
		return unavailable(name, weight)
	}
	c := row.Close
	e25, e50, e100, e200 := row.EMA25.Float(), row.EMA50.Float(), row.EMA100.Float(), row.EMA200.Float()

	bullStack := c > e25 && e25 > e50 && e50 > e100 && e100 > e200
	bearStack := c < e25 && e25 < e50 && e50 < e100 && e100 < e200

	var score float64
	var commentary string
	switch {
	case bullStack:
		score, commentary = 2.0, "bull stack"
	case bearStack:
		score, commentary = -2.0, "bear stack"
	case c > e200 && e50 > e200:
		score, commentary = 1.0, "above EMA200"
	case c < e200 && e50 < e200:
		score, commentary = -1.0, "below EMA200"
	default:
		commentary = "mixed"
	}

	for _, nc := range row.Crosses() {
		if nc.Cross != model.CrossNone {
			commentary += fmt.Sprintf(", %s %s", strings.TrimPrefix(nc.Name, "ema_"), nc.Cross)
		}
	}
	return factor(name, score, weight, commentary)
}

// scoreSMA200Deviation scores how far the close sits from SMA200, trend-following.
// Weight: 0.15
func scoreSMA200Deviation(row model.IndicatorRow) model.FactorScore {
	const name, weight = "SMA200 deviation", 0.15
	if !row.SMA200.Valid() || row.SMA200.Float() == 0 {
		return unavailable(name, weight)
	}
	sma := row.SMA200.Float()
	deviation := (row.Close - sma) / sma * 100

	var score float64
	switch {
	case deviation <= -20:
		score = -2.0
	case deviation <= -10:
		score = -1.5
	case deviation <= -5:
		score = -1.0
	case deviation <= 0:
		score = -0.5
	case deviation <= 5:
		score = 0.5
	case deviation <= 10:
		score = 1.0
	case deviation <= 20:
		score = 1.5
	default:
		score = 2.0
	}

	commentary := fmt.Sprintf("%+.1f%%", deviation)
	if row.SMA50.Valid() {
		if row.SMA50.Float() > sma {
			commentary += ", SMA50 above"
		} else {
			commentary += ", SMA50 below"
		}
	}
	return factor(name, score, weight, commentary)
}

// scoreOscillators combines Stochastic %K, CCI and Williams %R extremes.
// Each defined oscillator votes +1 when oversold and -1 when overbought.
// Weight: 0.10
func scoreOscillators(row model.IndicatorRow) model.FactorScore {
	const name, weight = "Oscillators", 0.10
	var votes, seen int
	var notes []string

	if row.StochK.Valid() {
		seen++
		switch k := row.StochK.Float(); {
		case k <= 20:
			votes++
			notes = append(notes, "stoch oversold")
		case k >= 80:
			votes--
			notes = append(notes, "stoch overbought")
		}
	}
	if row.CCI.Valid() {
		seen++
		switch cci := row.CCI.Float(); {
		case cci <= -100:
			votes++
			notes = append(notes, "CCI oversold")
		case cci >= 100:
			votes--
			notes = append(notes, "CCI overbought")
		}
	}
	if row.WilliamsR.Valid() {
		seen++
		switch wr := row.WilliamsR.Float(); {
		case wr <= -80:
			votes++
			notes = append(notes, "%R oversold")
		case wr >= -20:
			votes--
			notes = append(notes, "%R overbought")
		}
	}
	if seen == 0 {
		return unavailable(name, weight)
	}
	if len(notes) == 0 {
		notes = append(notes, "neutral")
	}
	score := float64(votes) * 2.0 / 3.0
	return factor(name, score, weight, strings.Join(notes, ", "))
}

// scoreBollingerPosition scores where the close sits within the Bollinger bands.
// Weight: 0.10
// Above the upper 95% of the band the score is -2 only when the other factors
// average below -1, otherwise it caps at -1. The lower end mirrors this.
func scoreBollingerPosition(row model.IndicatorRow, otherFactorsAvg float64) model.FactorScore {
	const name, weight = "Bollinger position", 0.10
	if !row.BollingerHigh.Valid() || !row.BollingerLow.Valid() {
		return unavailable(name, weight)
	}
	p, err := calculator.Position(row.Close, row.BollingerHigh.Float(), row.BollingerLow.Float())
	if err != nil {
		return unavailable(name, weight)
	}
	pos := p * 100

	var score float64
	switch {
	case pos <= 5:
		if otherFactorsAvg > 1 {
			score = 2.0
		} else {
			score = 1.0
		}
	case pos <= 20:
		score = 1.5
	case pos <= 30:
		score = 1.0
	case pos <= 40:
		score = 0.5
	case pos <= 60:
		score = 0
	case pos <= 70:
		score = -0.5
	case pos <= 80:
		score = -1.0
	case pos <= 95:
		score = -1.5
	default:
		if otherFactorsAvg < -1 {
			score = -2.0
		} else {
			score = -1.0
		}
	}
	return factor(name, score, weight, fmt.Sprintf("position=%.0f%%", pos))
}

// patternTilt is the directional lean of each chart pattern. Wedges,
// triangles and gaps are continuation shapes with no lean of their own.
var patternTilt = map[string]float64{
	"double_bottom":      1.0,
	"harmonic":           0.5,
	"double_top":         -1.0,
	"head_and_shoulders": -1.5,
}

// scorePatterns sums the lean of patterns flagged on the row, clamped to [-2, 2].
// Weight: 0.10
func scorePatterns(row model.IndicatorRow) model.FactorScore {
	const name, weight = "Patterns", 0.10
	patterns := row.Patterns()
	if len(patterns) == 0 {
		return factor(name, 0, weight, "none")
	}
	var score float64
	for _, p := range patterns {
		score += patternTilt[p]
	}
	score = min(max(score, -2.0), 2.0)
	return factor(name, score, weight, strings.Join(patterns, ", "))
}
