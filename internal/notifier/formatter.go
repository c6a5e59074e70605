package notifier

import (
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"

	"ChartSentinel/internal/model"
)

// price renders a level at the symbol's display precision.
func price(v model.Value, precision int) string {
	if !v.Valid() {
		return "n/a"
	}
	return decimal.NewFromFloat(v.Float()).StringFixed(int32(precision))
}

func num(v model.Value, format string) string {
	if !v.Valid() {
		return "n/a"
	}
	return fmt.Sprintf(format, v.Float())
}

// FormatIndicatorReport formats the last row of frame and its bias into a
// Telegram HTML message.
func FormatIndicatorReport(label string, interval model.Interval, precision int, frame *model.IndicatorFrame, bias *model.Bias) string {
	if frame == nil || frame.Len() == 0 {
		return fmt.Sprintf("📊 <b>%s %s</b>\nNo data", html.EscapeString(label), interval)
	}
	row := frame.Last()
	var b strings.Builder

	fmt.Fprintf(&b, "📊 <b>%s %s</b> | %s UTC\n", html.EscapeString(label), interval, row.Time.UTC().Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Close: %s\n\n", price(model.Value(row.Close), precision))

	b.WriteString("📈 <b>Oscillators</b>\n")
	fmt.Fprintf(&b, "RSI(14): %s | Stoch %%K/%%D: %s/%s\n", num(row.RSI, "%.1f"), num(row.StochK, "%.1f"), num(row.StochD, "%.1f"))
	fmt.Fprintf(&b, "MACD: %s | signal %s | hist %s\n", num(row.MACD, "%.2f"), num(row.MACDSignal, "%.2f"), num(row.MACDDiff, "%+.2f"))
	fmt.Fprintf(&b, "CCI(20): %s | Williams %%R: %s | ATR(14): %s\n", num(row.CCI, "%.1f"), num(row.WilliamsR, "%.1f"), price(row.ATR, precision))
	fmt.Fprintf(&b, "Bollinger: %s / %s / %s\n\n", price(row.BollingerLow, precision), price(row.BollingerMid, precision), price(row.BollingerHigh, precision))

	b.WriteString("📐 <b>Moving averages</b>\n")
	fmt.Fprintf(&b, "EMA 25/50/100/200: %s / %s / %s / %s\n",
		price(row.EMA25, precision), price(row.EMA50, precision), price(row.EMA100, precision), price(row.EMA200, precision))
	fmt.Fprintf(&b, "SMA 50/200: %s / %s\n", price(row.SMA50, precision), price(row.SMA200, precision))
	b.WriteString("Crosses: ")
	b.WriteString(formatCrosses(row))
	b.WriteString("\n\n")

	b.WriteString("🎯 <b>Levels</b>\n")
	fmt.Fprintf(&b, "Pivot: %s | R1 %s | S1 %s | R2 %s | S2 %s\n",
		price(row.Pivot, precision), price(row.PivotRes1, precision), price(row.PivotSup1, precision),
		price(row.PivotRes2, precision), price(row.PivotSup2, precision))
	fmt.Fprintf(&b, "Minor: %s | R1 %s | S1 %s | R2 %s | S2 %s\n",
		price(row.MinorPivot, precision), price(row.MinorPivotRes1, precision), price(row.MinorPivotSup1, precision),
		price(row.MinorPivotRes2, precision), price(row.MinorPivotSup2, precision))
	fmt.Fprintf(&b, "Fib 38.2%%: %s | 61.8%%: %s\n\n", price(row.Fib382, precision), price(row.Fib618, precision))

	patterns := row.Patterns()
	if len(patterns) == 0 {
		b.WriteString("🧩 <b>Patterns:</b> none\n")
	} else {
		fmt.Fprintf(&b, "🧩 <b>Patterns:</b> %s\n", strings.Join(patterns, ", "))
	}

	if bias != nil {
		b.WriteString("\n")
		b.WriteString(FormatBias(bias))
	}
	return b.String()
}

// FormatBias renders the factor table and tier.
func FormatBias(bias *model.Bias) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⚖️ <b>Bias:</b> %s %s (%+.3f)\n", bias.Tier.Label, bias.Tier.Emoji, bias.TotalScore)
	for _, f := range bias.Factors {
		fmt.Fprintf(&b, "  %s (%s): %+.1f (×%.2f) = %+.3f\n",
			f.Name, html.EscapeString(f.Commentary), f.RawScore, f.Weight, f.Weighted)
	}
	if bias.WarningMsg != "" {
		fmt.Fprintf(&b, "\n%s\n", bias.WarningMsg)
	}
	return b.String()
}

func formatCrosses(row model.IndicatorRow) string {
	var parts []string
	for _, nc := range row.Crosses() {
		if nc.Cross == model.CrossNone {
			continue
		}
		pair := strings.ReplaceAll(strings.TrimPrefix(nc.Name, "ema_"), "_cross_ema_", "/")
		parts = append(parts, fmt.Sprintf("%s %s", pair, nc.Cross))
	}
	if len(parts) == 0 {
		return "none on the last bar"
	}
	return strings.Join(parts, ", ")
}

// FormatHelp lists the bot commands.
func FormatHelp(symbols []string, intervals []model.Interval) string {
	ivs := make([]string, len(intervals))
	for i, iv := range intervals {
		ivs[i] = iv.String()
	}
	var b strings.Builder
	b.WriteString("🤖 <b>ChartSentinel commands</b>\n\n")
	b.WriteString("/report SYMBOL INTERVAL - run a report now\n")
	b.WriteString("/latest SYMBOL INTERVAL - show the last computed row\n")
	b.WriteString("/help - this message\n\n")
	fmt.Fprintf(&b, "Symbols: %s\nIntervals: %s", strings.Join(symbols, ", "), strings.Join(ivs, ", "))
	return b.String()
}
