package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the Prometheus collectors for report cycles.
type Recorder struct {
	runsTotal     *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	deliveries    *prometheus.CounterVec
	patterns      *prometheus.CounterVec
	lastClose     *prometheus.GaugeVec
	biasScore     *prometheus.GaugeVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		runsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartsentinel_runs_total",
				Help: "Report cycles by outcome",
			},
			[]string{"symbol", "interval", "outcome"},
		),
		stageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chartsentinel_stage_duration_seconds",
				Help:    "Duration of report cycle stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		deliveries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartsentinel_deliveries_total",
				Help: "Messages handed to the notifier by result",
			},
			[]string{"kind", "result"},
		),
		patterns: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartsentinel_patterns_detected_total",
				Help: "Patterns flagged on the latest row of a report",
			},
			[]string{"symbol", "interval", "pattern"},
		),
		lastClose: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "chartsentinel_last_close",
				Help: "Close of the latest bar seen by a report cycle",
			},
			[]string{"symbol", "interval"},
		),
		biasScore: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "chartsentinel_bias_score",
				Help: "Total bias score of the latest report",
			},
			[]string{"symbol", "interval"},
		),
	}
}

// RecordRun counts a finished report cycle. Outcome is ok, skipped or error.
func (r *Recorder) RecordRun(symbol, interval, outcome string) {
	r.runsTotal.WithLabelValues(symbol, interval, outcome).Inc()
}

// ObserveStage records how long a stage took since start.
func (r *Recorder) ObserveStage(stage string, start time.Time) {
	r.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// RecordDelivery counts a notifier call.
func (r *Recorder) RecordDelivery(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.deliveries.WithLabelValues(kind, result).Inc()
}

// RecordReport updates the per-pair gauges and pattern counters.
func (r *Recorder) RecordReport(symbol, interval string, closePrice, score float64, patterns []string) {
	r.lastClose.WithLabelValues(symbol, interval).Set(closePrice)
	r.biasScore.WithLabelValues(symbol, interval).Set(score)
	for _, p := range patterns {
		r.patterns.WithLabelValues(symbol, interval, p).Inc()
	}
}
