package recorder

import (
	"fmt"
	"strings"
)

// indicatorColumns lists the indicator table value columns in IndicatorRow order.
// Names match the db tags on model.IndicatorRow.
var indicatorColumns = []struct {
	name, kind string
}{
	{"rsi", "DOUBLE PRECISION"},
	{"macd", "DOUBLE PRECISION"},
	{"macd_signal", "DOUBLE PRECISION"},
	{"macd_diff", "DOUBLE PRECISION"},
	{"ema_25", "DOUBLE PRECISION"},
	{"ema_50", "DOUBLE PRECISION"},
	{"ema_100", "DOUBLE PRECISION"},
	{"ema_200", "DOUBLE PRECISION"},
	{"sma_50", "DOUBLE PRECISION"},
	{"sma_200", "DOUBLE PRECISION"},
	{"bollinger_hband", "DOUBLE PRECISION"},
	{"bollinger_mband", "DOUBLE PRECISION"},
	{"bollinger_lband", "DOUBLE PRECISION"},
	{"ema_25_cross_ema_50", "TEXT"},
	{"ema_25_cross_ema_100", "TEXT"},
	{"ema_25_cross_ema_200", "TEXT"},
	{"ema_50_cross_ema_100", "TEXT"},
	{"ema_50_cross_ema_200", "TEXT"},
	{"ema_100_cross_ema_200", "TEXT"},
	{"pivot", "DOUBLE PRECISION"},
	{"pivot_res1", "DOUBLE PRECISION"},
	{"pivot_sup1", "DOUBLE PRECISION"},
	{"pivot_res2", "DOUBLE PRECISION"},
	{"pivot_sup2", "DOUBLE PRECISION"},
	{"minor_pivot", "DOUBLE PRECISION"},
	{"minor_pivot_res1", "DOUBLE PRECISION"},
	{"minor_pivot_sup1", "DOUBLE PRECISION"},
	{"minor_pivot_res2", "DOUBLE PRECISION"},
	{"minor_pivot_sup2", "DOUBLE PRECISION"},
	{"fib_38_2", "DOUBLE PRECISION"},
	{"fib_61_8", "DOUBLE PRECISION"},
	{"stoch_k", "DOUBLE PRECISION"},
	{"stoch_d", "DOUBLE PRECISION"},
	{"cci", "DOUBLE PRECISION"},
	{"atr", "DOUBLE PRECISION"},
	{"obv", "DOUBLE PRECISION"},
	{"williams_r", "DOUBLE PRECISION"},
	{"wedge_pattern", "INTEGER"},
	{"triangle_pattern", "INTEGER"},
	{"double_top_pattern", "INTEGER"},
	{"double_bottom_pattern", "INTEGER"},
	{"fvg_pattern", "INTEGER"},
	{"head_and_shoulders", "INTEGER"},
	{"harmonic_pattern", "INTEGER"},
}

var candleColumns = []string{"open", "high", "low", "close", "volume"}

func migrations() []string {
	var ind strings.Builder
	for _, c := range indicatorColumns {
		fmt.Fprintf(&ind, "\t\t\t%s %s,\n", c.name, c.kind)
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS candles (
			symbol TEXT NOT NULL,
			tf     TEXT NOT NULL,
			ts     BIGINT NOT NULL,
			open   DOUBLE PRECISION,
			high   DOUBLE PRECISION,
			low    DOUBLE PRECISION,
			close  DOUBLE PRECISION,
			volume DOUBLE PRECISION,
			PRIMARY KEY (symbol, tf, ts)
		)`,
		`CREATE TABLE IF NOT EXISTS indicators (
			symbol TEXT NOT NULL,
			tf     TEXT NOT NULL,
			ts     BIGINT NOT NULL,
` + ind.String() + `			PRIMARY KEY (symbol, tf, ts)
		)`,
		`CREATE TABLE IF NOT EXISTS reports (
			run_id     TEXT NOT NULL,
			symbol     TEXT NOT NULL,
			tf         TEXT NOT NULL,
			created_at BIGINT NOT NULL,
			close      DOUBLE PRECISION,
			bias_score DOUBLE PRECISION,
			bias_label TEXT,
			summary    TEXT,
			narrative  TEXT,
			delivered  BOOLEAN,
			PRIMARY KEY (run_id, symbol, tf)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_key ON reports(symbol, tf, created_at)`,
	}
}

// upsertQuery builds a named INSERT keyed by (symbol, tf, ts) that overwrites
// the listed columns on conflict.
func upsertQuery(table string, cols []string) string {
	names := append([]string{"symbol", "tf", "ts"}, cols...)
	binds := make([]string, len(names))
	for i, n := range names {
		binds[i] = ":" + n
	}
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = excluded.%s", c, c)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (symbol, tf, ts) DO UPDATE SET %s",
		table, strings.Join(names, ", "), strings.Join(binds, ", "), strings.Join(sets, ", "))
}

func indicatorColumnNames() []string {
	out := make([]string, len(indicatorColumns))
	for i, c := range indicatorColumns {
		out[i] = c.name
	}
	return out
}
