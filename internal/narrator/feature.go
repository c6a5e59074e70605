package narrator

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"ChartSentinel/internal/model"
)

const timeLayout = "2006-01-02 15:04:05"

// FeatureTable renders the last rows of the candle series merged with the
// indicator frame as CSV. Floats use precision decimals and undefined values
// are left empty.
func FeatureTable(series *model.CandleSeries, frame *model.IndicatorFrame, rows, precision int) (string, error) {
	if series == nil || frame == nil {
		return "", fmt.Errorf("feature table: nil input")
	}
	if series.Len() != frame.Len() {
		return "", fmt.Errorf("feature table: series has %d rows, frame has %d", series.Len(), frame.Len())
	}
	start := 0
	if rows > 0 && rows < frame.Len() {
		start = frame.Len() - rows
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	var empty model.IndicatorRow
	header := []string{"timestamp", "open", "high", "low", "close", "volume"}
	for _, f := range empty.Fields() {
		header = append(header, f.Name)
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	record := make([]string, 0, len(header))
	for i := start; i < frame.Len(); i++ {
		bar, row := series.Bars[i], frame.Rows[i]
		record = record[:0]
		record = append(record,
			bar.Time.UTC().Format(timeLayout),
			fixed(bar.Open, precision),
			fixed(bar.High, precision),
			fixed(bar.Low, precision),
			fixed(bar.Close, precision),
			fixed(bar.Volume, precision),
		)
		for _, f := range row.Fields() {
			record = append(record, cell(f.Value, precision))
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func fixed(f float64, precision int) string {
	v := model.Value(f)
	if !v.Valid() {
		return ""
	}
	return decimal.NewFromFloat(f).StringFixed(int32(precision))
}

func cell(v any, precision int) string {
	switch x := v.(type) {
	case model.Value:
		return fixed(x.Float(), precision)
	case model.Cross:
		return x.String()
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprint(x)
	}
}
