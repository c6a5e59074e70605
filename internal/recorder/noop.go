package recorder

import (
	"context"

	"ChartSentinel/internal/model"
)

// NoopRecorder is a no-op implementation used when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordCandles(context.Context, *model.CandleSeries) error      { return nil }
func (n *NoopRecorder) RecordIndicators(context.Context, *model.IndicatorFrame) error { return nil }
func (n *NoopRecorder) RecordReport(context.Context, *ReportRecord) error             { return nil }
func (n *NoopRecorder) LatestIndicators(context.Context, string, model.Interval, int) ([]model.IndicatorRow, error) {
	return nil, nil
}
func (n *NoopRecorder) LatestReports(context.Context, string, model.Interval, int) ([]ReportRecord, error) {
	return nil, nil
}
func (n *NoopRecorder) Close() error { return nil }
