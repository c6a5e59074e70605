package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ChartSentinel/internal/config"
	"ChartSentinel/internal/model"
	"ChartSentinel/internal/narrator"
	"ChartSentinel/internal/notifier"
	"ChartSentinel/internal/pipeline"
	"ChartSentinel/internal/recorder"
	"ChartSentinel/internal/strategy"
)

// RunReport executes one full report cycle for a pair and returns what was recorded.
func (s *Scheduler) RunReport(ctx context.Context, sym config.Symbol, interval model.Interval) (*recorder.ReportRecord, error) {
	runID := uuid.NewString()
	logger := log.With().Str("run_id", runID).Str("symbol", sym.Name).Str("interval", interval.String()).Logger()
	tf := interval.String()

	locked, err := s.Cache.Lock(ctx, sym.Name, interval)
	if err != nil {
		logger.Warn().Err(err).Msg("lock unavailable, running without it")
	} else if !locked {
		logger.Warn().Msg("previous cycle still running, skipping")
		s.Metrics.RecordRun(sym.Name, tf, "skipped")
		return nil, ErrRunInProgress
	} else {
		defer func() {
			if err := s.Cache.Unlock(context.WithoutCancel(ctx), sym.Name, interval); err != nil {
				logger.Warn().Err(err).Msg("unlock")
			}
		}()
	}

	start := time.Now()
	series, err := s.Collector.Collect(ctx, sym.Name, interval)
	s.Metrics.ObserveStage("collect", start)
	if err != nil {
		return nil, s.fail(logger, sym.Name, tf, "collect", err)
	}

	start = time.Now()
	frame, err := pipeline.Run(series, s.opts.Params)
	s.Metrics.ObserveStage("pipeline", start)
	if err != nil {
		return nil, s.fail(logger, sym.Name, tf, "pipeline", err)
	}
	logger.Info().Int("rows", frame.Len()).Dur("took", time.Since(start)).Msg("calculated indicators")

	start = time.Now()
	if err := s.Recorder.RecordCandles(ctx, series); err != nil {
		logger.Error().Err(err).Msg("store candles")
	}
	if err := s.Recorder.RecordIndicators(ctx, frame); err != nil {
		logger.Error().Err(err).Msg("store indicators")
	}
	s.Metrics.ObserveStage("record", start)

	last := frame.Last()
	if err := s.Cache.PutLatest(ctx, sym.Name, interval, last); err != nil {
		logger.Warn().Err(err).Msg("cache latest row")
	}

	bias := strategy.Evaluate(last)
	summary := notifier.FormatIndicatorReport(sym.Label(), interval, sym.Precision, frame, bias)
	narrative := s.narrate(ctx, logger, sym, interval, series, frame)

	start = time.Now()
	err = s.Notifier.SendWithRetry(ctx, summary, notifier.ModeHTML, s.opts.MaxRetries)
	s.Metrics.RecordDelivery("summary", err)
	delivered := err == nil
	if err != nil {
		logger.Error().Err(err).Msg("send summary")
	}
	if narrative != "" {
		err = s.Notifier.SendWithRetry(ctx, narrative, notifier.ModeMarkdown, s.opts.MaxRetries)
		s.Metrics.RecordDelivery("narrative", err)
		if err != nil {
			delivered = false
			logger.Error().Err(err).Msg("send narrative")
		}
	}
	s.Metrics.ObserveStage("deliver", start)

	rec := &recorder.ReportRecord{
		RunID:     runID,
		Symbol:    sym.Name,
		Interval:  interval,
		CreatedAt: time.Now().UTC(),
		Close:     last.Close,
		BiasScore: bias.TotalScore,
		BiasLabel: bias.Tier.Label,
		Summary:   summary,
		Narrative: narrative,
		Delivered: delivered,
	}
	if err := s.Recorder.RecordReport(ctx, rec); err != nil {
		logger.Error().Err(err).Msg("store report")
	}

	s.Metrics.RecordReport(sym.Name, tf, last.Close, bias.TotalScore, bias.Patterns)
	s.Metrics.RecordRun(sym.Name, tf, "ok")
	logger.Info().Float64("bias", bias.TotalScore).Str("tier", bias.Tier.Label).
		Strs("patterns", bias.Patterns).Bool("delivered", delivered).Msg("report cycle done")
	return rec, nil
}

// fail logs a cycle-ending error. Short history is a skip, not an error.
func (s *Scheduler) fail(logger zerolog.Logger, symbol, tf, stage string, err error) error {
	var ide *model.InsufficientDataError
	if errors.As(err, &ide) {
		logger.Warn().Err(err).Str("stage", stage).Msg("not enough history, skipping")
		s.Metrics.RecordRun(symbol, tf, "skipped")
		return err
	}
	logger.Error().Err(err).Str("stage", stage).Msg("report cycle failed")
	s.Metrics.RecordRun(symbol, tf, "error")
	return err
}

func (s *Scheduler) narrate(ctx context.Context, logger zerolog.Logger, sym config.Symbol, interval model.Interval,
	series *model.CandleSeries, frame *model.IndicatorFrame) string {
	if s.Narrator == nil || !s.Narrator.Enabled() {
		return ""
	}
	start := time.Now()
	defer s.Metrics.ObserveStage("narrate", start)

	features, err := narrator.FeatureTable(series, frame, s.opts.NarratorRows, sym.Precision)
	if err != nil {
		logger.Error().Err(err).Msg("build feature table")
		return ""
	}
	last := frame.Last()
	text, err := s.Narrator.Narrate(ctx, narrator.Request{
		Label:     sym.Label(),
		Interval:  interval.String(),
		Close:     formatPrice(last.Close, sym.Precision),
		Date:      last.Time,
		Precision: sym.Precision,
		Features:  features,
	})
	if err != nil {
		logger.Error().Err(err).Msg("generate narrative")
		return ""
	}
	return text
}
