package model

import "time"

// IndicatorRow holds every derived field for one candle, aligned by position.
type IndicatorRow struct {
	Time  time.Time `json:"time" db:"-"`
	Close float64   `json:"close" db:"-"`

	RSI        Value `json:"rsi" db:"rsi"`
	MACD       Value `json:"macd" db:"macd"`
	MACDSignal Value `json:"macd_signal" db:"macd_signal"`
	MACDDiff   Value `json:"macd_diff" db:"macd_diff"`

	EMA25  Value `json:"ema_25" db:"ema_25"`
	EMA50  Value `json:"ema_50" db:"ema_50"`
	EMA100 Value `json:"ema_100" db:"ema_100"`
	EMA200 Value `json:"ema_200" db:"ema_200"`
	SMA50  Value `json:"sma_50" db:"sma_50"`
	SMA200 Value `json:"sma_200" db:"sma_200"`

	BollingerHigh Value `json:"bollinger_hband" db:"bollinger_hband"`
	BollingerMid  Value `json:"bollinger_mband" db:"bollinger_mband"`
	BollingerLow  Value `json:"bollinger_lband" db:"bollinger_lband"`

	Cross25x50   Cross `json:"ema_25_cross_ema_50" db:"ema_25_cross_ema_50"`
	Cross25x100  Cross `json:"ema_25_cross_ema_100" db:"ema_25_cross_ema_100"`
	Cross25x200  Cross `json:"ema_25_cross_ema_200" db:"ema_25_cross_ema_200"`
	Cross50x100  Cross `json:"ema_50_cross_ema_100" db:"ema_50_cross_ema_100"`
	Cross50x200  Cross `json:"ema_50_cross_ema_200" db:"ema_50_cross_ema_200"`
	Cross100x200 Cross `json:"ema_100_cross_ema_200" db:"ema_100_cross_ema_200"`

	Pivot     Value `json:"pivot" db:"pivot"`
	PivotRes1 Value `json:"pivot_res1" db:"pivot_res1"`
	PivotSup1 Value `json:"pivot_sup1" db:"pivot_sup1"`
	PivotRes2 Value `json:"pivot_res2" db:"pivot_res2"`
	PivotSup2 Value `json:"pivot_sup2" db:"pivot_sup2"`

	MinorPivot     Value `json:"minor_pivot" db:"minor_pivot"`
	MinorPivotRes1 Value `json:"minor_pivot_res1" db:"minor_pivot_res1"`
	MinorPivotSup1 Value `json:"minor_pivot_sup1" db:"minor_pivot_sup1"`
	MinorPivotRes2 Value `json:"minor_pivot_res2" db:"minor_pivot_res2"`
	MinorPivotSup2 Value `json:"minor_pivot_sup2" db:"minor_pivot_sup2"`

	Fib382 Value `json:"fib_38_2" db:"fib_38_2"`
	Fib618 Value `json:"fib_61_8" db:"fib_61_8"`

	StochK    Value `json:"stoch_k" db:"stoch_k"`
	StochD    Value `json:"stoch_d" db:"stoch_d"`
	CCI       Value `json:"cci" db:"cci"`
	ATR       Value `json:"atr" db:"atr"`
	OBV       Value `json:"obv" db:"obv"`
	WilliamsR Value `json:"williams_r" db:"williams_r"`

	Wedge            int `json:"wedge_pattern" db:"wedge_pattern"`
	Triangle         int `json:"triangle_pattern" db:"triangle_pattern"`
	DoubleTop        int `json:"double_top_pattern" db:"double_top_pattern"`
	DoubleBottom     int `json:"double_bottom_pattern" db:"double_bottom_pattern"`
	FVG              int `json:"fvg_pattern" db:"fvg_pattern"`
	HeadAndShoulders int `json:"head_and_shoulders" db:"head_and_shoulders"`
	Harmonic         int `json:"harmonic_pattern" db:"harmonic_pattern"`
}

// Patterns returns the names of the pattern flags set on the row.
func (r *IndicatorRow) Patterns() []string {
	var out []string
	for _, p := range []struct {
		name string
		flag int
	}{
		{"wedge", r.Wedge},
		{"triangle", r.Triangle},
		{"double_top", r.DoubleTop},
		{"double_bottom", r.DoubleBottom},
		{"fvg", r.FVG},
		{"head_and_shoulders", r.HeadAndShoulders},
		{"harmonic", r.Harmonic},
	} {
		if p.flag == 1 {
			out = append(out, p.name)
		}
	}
	return out
}

// Crosses returns the six EMA pair classifications keyed by column name.
func (r *IndicatorRow) Crosses() []NamedCross {
	return []NamedCross{
		{"ema_25_cross_ema_50", r.Cross25x50},
		{"ema_25_cross_ema_100", r.Cross25x100},
		{"ema_25_cross_ema_200", r.Cross25x200},
		{"ema_50_cross_ema_100", r.Cross50x100},
		{"ema_50_cross_ema_200", r.Cross50x200},
		{"ema_100_cross_ema_200", r.Cross100x200},
	}
}

// NamedCross pairs a cross column name with its value.
type NamedCross struct {
	Name  string
	Cross Cross
}

// IndicatorFrame is the derived row set for one candle series, same length and order.
// It is built once per pipeline run and never mutated afterwards.
type IndicatorFrame struct {
	Symbol   string         `json:"symbol"`
	Interval Interval       `json:"interval"`
	Rows     []IndicatorRow `json:"rows"`
}

// Len returns the number of rows.
func (f *IndicatorFrame) Len() int { return len(f.Rows) }

// Last returns the most recent row. It panics on an empty frame.
func (f *IndicatorFrame) Last() IndicatorRow { return f.Rows[len(f.Rows)-1] }

// Tail returns the last n rows (all rows when n exceeds the length).
func (f *IndicatorFrame) Tail(n int) []IndicatorRow {
	if n <= 0 || n >= len(f.Rows) {
		return f.Rows
	}
	return f.Rows[len(f.Rows)-n:]
}

// Field is one named column of an IndicatorRow. Value holds a Value, a Cross or an int flag.
type Field struct {
	Name  string
	Value any
}

// Fields returns the derived columns in storage order, excluding time and close.
func (r *IndicatorRow) Fields() []Field {
	return []Field{
		{"rsi", r.RSI},
		{"macd", r.MACD},
		{"macd_signal", r.MACDSignal},
		{"macd_diff", r.MACDDiff},
		{"ema_25", r.EMA25},
		{"ema_50", r.EMA50},
		{"ema_100", r.EMA100},
		{"ema_200", r.EMA200},
		{"sma_50", r.SMA50},
		{"sma_200", r.SMA200},
		{"bollinger_hband", r.BollingerHigh},
		{"bollinger_mband", r.BollingerMid},
		{"bollinger_lband", r.BollingerLow},
		{"ema_25_cross_ema_50", r.Cross25x50},
		{"ema_25_cross_ema_100", r.Cross25x100},
		{"ema_25_cross_ema_200", r.Cross25x200},
		{"ema_50_cross_ema_100", r.Cross50x100},
		{"ema_50_cross_ema_200", r.Cross50x200},
		{"ema_100_cross_ema_200", r.Cross100x200},
		{"pivot", r.Pivot},
		{"pivot_res1", r.PivotRes1},
		{"pivot_sup1", r.PivotSup1},
		{"pivot_res2", r.PivotRes2},
		{"pivot_sup2", r.PivotSup2},
		{"minor_pivot", r.MinorPivot},
		{"minor_pivot_res1", r.MinorPivotRes1},
		{"minor_pivot_sup1", r.MinorPivotSup1},
		{"minor_pivot_res2", r.MinorPivotRes2},
		{"minor_pivot_sup2", r.MinorPivotSup2},
		{"fib_38_2", r.Fib382},
		{"fib_61_8", r.Fib618},
		{"stoch_k", r.StochK},
		{"stoch_d", r.StochD},
		{"cci", r.CCI},
		{"atr", r.ATR},
		{"obv", r.OBV},
		{"williams_r", r.WilliamsR},
		{"wedge_pattern", r.Wedge},
		{"triangle_pattern", r.Triangle},
		{"double_top_pattern", r.DoubleTop},
		{"double_bottom_pattern", r.DoubleBottom},
		{"fvg_pattern", r.FVG},
		{"head_and_shoulders", r.HeadAndShoulders},
		{"harmonic_pattern", r.Harmonic},
	}
}
