package recorder

import (
	"context"
	"time"

	"ChartSentinel/internal/model"
)

// ReportRecord is one delivered (or attempted) report.
type ReportRecord struct {
	RunID     string         `db:"run_id" json:"run_id"`
	Symbol    string         `db:"symbol" json:"symbol"`
	Interval  model.Interval `db:"tf" json:"interval"`
	CreatedAt time.Time      `db:"-" json:"created_at"`
	Created   int64          `db:"created_at" json:"-"`
	Close     float64        `db:"close" json:"close"`
	BiasScore float64        `db:"bias_score" json:"bias_score"`
	BiasLabel string         `db:"bias_label" json:"bias_label"`
	Summary   string         `db:"summary" json:"summary"`
	Narrative string         `db:"narrative" json:"narrative,omitempty"`
	Delivered bool           `db:"delivered" json:"delivered"`
}

// Recorder persists candles, indicator frames and reports.
type Recorder interface {
	RecordCandles(ctx context.Context, series *model.CandleSeries) error
	RecordIndicators(ctx context.Context, frame *model.IndicatorFrame) error
	RecordReport(ctx context.Context, rec *ReportRecord) error
	// LatestIndicators returns up to limit most recent rows, oldest first.
	LatestIndicators(ctx context.Context, symbol string, interval model.Interval, limit int) ([]model.IndicatorRow, error)
	LatestReports(ctx context.Context, symbol string, interval model.Interval, limit int) ([]ReportRecord, error)
	Close() error
}
