package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"ChartSentinel/internal/cache"
	"ChartSentinel/internal/config"
	"ChartSentinel/internal/metrics"
	"ChartSentinel/internal/model"
	"ChartSentinel/internal/narrator"
	"ChartSentinel/internal/notifier"
	"ChartSentinel/internal/pipeline"
	"ChartSentinel/internal/recorder"
)

// ErrRunInProgress is returned when another cycle holds the pair's lock.
var ErrRunInProgress = errors.New("report cycle already running")

// SeriesCollector fetches a validated candle series.
type SeriesCollector interface {
	Collect(ctx context.Context, symbol string, interval model.Interval) (*model.CandleSeries, error)
}

// Narrator writes the optional narrative part of a report.
type Narrator interface {
	Enabled() bool
	Narrate(ctx context.Context, req narrator.Request) (string, error)
}

// Options holds the static settings of a Scheduler.
type Options struct {
	Symbols      []config.Symbol
	Cron         map[model.Interval]string
	Concurrency  int
	Params       pipeline.Params
	NarratorRows int
	MaxRetries   int
}

// Scheduler manages the cron entries and runs report cycles.
type Scheduler struct {
	Cron      *cron.Cron
	Collector SeriesCollector
	Recorder  recorder.Recorder
	Cache     cache.FrameCache
	Notifier  notifier.Notifier
	Narrator  Narrator
	Metrics   *metrics.Recorder
	Ctx       context.Context

	opts Options
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, opts Options, col SeriesCollector, rec recorder.Recorder,
	fc cache.FrameCache, n notifier.Notifier, nar Narrator, m *metrics.Recorder) *Scheduler {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.NarratorRows < 1 {
		opts.NarratorRows = 400
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
		Collector: col,
		Recorder:  rec,
		Cache:     fc,
		Notifier:  n,
		Narrator:  nar,
		Metrics:   m,
		Ctx:       ctx,
		opts:      opts,
	}
}

// Intervals returns the scheduled intervals ordered by bar duration.
func (s *Scheduler) Intervals() []model.Interval {
	out := make([]model.Interval, 0, len(s.opts.Cron))
	for iv := range s.opts.Cron {
		out = append(out, iv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Spec().Bar < out[j].Spec().Bar })
	return out
}

// RegisterAll adds one cron entry per configured interval.
func (s *Scheduler) RegisterAll() error {
	for _, iv := range s.Intervals() {
		iv := iv
		spec := s.opts.Cron[iv]
		if _, err := s.Cron.AddFunc(spec, func() { s.RunInterval(s.Ctx, iv) }); err != nil {
			return fmt.Errorf("register %s task %q: %w", iv, spec, err)
		}
		log.Info().Str("interval", iv.String()).Str("cron", spec).Msg("registered report task")
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("entries", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunAllNow runs every scheduled interval once, smallest first.
func (s *Scheduler) RunAllNow(ctx context.Context) {
	for _, iv := range s.Intervals() {
		s.RunInterval(ctx, iv)
	}
}

// RunInterval runs one report cycle per symbol, at most Concurrency at a time.
// Failures are logged per symbol and joined into the returned error.
func (s *Scheduler) RunInterval(ctx context.Context, interval model.Interval) error {
	log.Info().Str("interval", interval.String()).Int("symbols", len(s.opts.Symbols)).Msg("running report task")

	sem := make(chan struct{}, s.opts.Concurrency)
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, sym := range s.opts.Symbols {
		sym := sym
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			if _, err := s.RunReport(ctx, sym, interval); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s %s: %w", sym.Name, interval, err))
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}
