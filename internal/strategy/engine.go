package strategy

import (
	"fmt"

	"ChartSentinel/internal/model"
)

// Tiers maps a total score to a descriptive bias label, highest first.
var Tiers = []struct {
	MinScore float64
	Tier     model.BiasTier
}{
	{1.2, model.BiasTier{Label: "Strong Bullish", Emoji: "🚀"}},
	{0.6, model.BiasTier{Label: "Bullish", Emoji: "🟢"}},
	{0.2, model.BiasTier{Label: "Mildly Bullish", Emoji: "📈"}},
	{-0.2, model.BiasTier{Label: "Neutral", Emoji: "⚖️"}},
	{-0.6, model.BiasTier{Label: "Mildly Bearish", Emoji: "📉"}},
	{-1.2, model.BiasTier{Label: "Bearish", Emoji: "🔴"}},
}

// DefaultTier is the lowest tier for scores < -1.2.
var DefaultTier = model.BiasTier{Label: "Strong Bearish", Emoji: "🧊"}

func mapTier(totalScore float64) model.BiasTier {
	for _, t := range Tiers {
		if totalScore >= t.MinScore {
			return t.Tier
		}
	}
	return DefaultTier
}

// Evaluate reads the latest indicator row and returns a descriptive bias.
// Undefined indicators score zero.
func Evaluate(row model.IndicatorRow) *model.Bias {
	fRSI := scoreRSI(row)
	fMACD := scoreMACD(row)
	fEMA := scoreEMAStack(row)
	fSMA := scoreSMA200Deviation(row)
	fOsc := scoreOscillators(row)
	fPat := scorePatterns(row)

	// Band position needs the rest of the read to justify its extreme score.
	otherFactorsAvg := (fRSI.RawScore + fMACD.RawScore + fEMA.RawScore + fSMA.RawScore + fOsc.RawScore + fPat.RawScore) / 6.0
	fBB := scoreBollingerPosition(row, otherFactorsAvg)

	factors := []model.FactorScore{fRSI, fMACD, fEMA, fSMA, fOsc, fBB, fPat}

	var totalScore float64
	for _, f := range factors {
		totalScore += f.Weighted
	}

	bias := &model.Bias{
		Factors:    factors,
		TotalScore: totalScore,
		Tier:       mapTier(totalScore),
		Patterns:   row.Patterns(),
	}

	if row.RSI.Valid() {
		switch rsi := row.RSI.Float(); {
		case rsi > 85:
			bias.WarningMsg = fmt.Sprintf("⚠️ RSI %.0f: overbought extreme", rsi)
		case rsi < 15:
			bias.WarningMsg = fmt.Sprintf("⚠️ RSI %.0f: oversold extreme", rsi)
		}
	}
	return bias
}
