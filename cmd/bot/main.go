package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"ChartSentinel/internal/api"
	"ChartSentinel/internal/cache"
	"ChartSentinel/internal/collector"
	"ChartSentinel/internal/config"
	"ChartSentinel/internal/logger"
	"ChartSentinel/internal/metrics"
	"ChartSentinel/internal/model"
	"ChartSentinel/internal/narrator"
	"ChartSentinel/internal/notifier"
	"ChartSentinel/internal/recorder"
	"ChartSentinel/internal/scheduler"
)

func main() {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := logger.Init(cfg.Log); err != nil {
		log.Fatal().Err(err).Msg("init logger")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Str("config", cfgPath).Msg("ChartSentinel starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init fetcher
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "mock":
		fetcher = &collector.MockFetcher{Price: 60000}
	default:
		fetcher = collector.NewBinanceFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	}
	log.Info().Str("source", fetcher.Name()).Msg("data source ready")
	col := collector.NewCollector(fetcher, cfg.Pipeline.Floor())

	// Init recorder
	var rec recorder.Recorder
	switch cfg.Database.Driver {
	case "sqlite":
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	case "postgres":
		pr, err := recorder.NewPostgresRecorder(ctx, cfg.Database.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("init postgres recorder")
		}
		rec = pr
	default:
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	// Init cache
	var fc cache.FrameCache
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(cache.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.KeyPrefix,
			TTL:      cfg.Redis.TTL,
			LockTTL:  cfg.Redis.LockTTL,
		})
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, using in-memory cache")
			fc = cache.NewMemoryCache(cfg.Redis.TTL, cfg.Redis.LockTTL)
		} else {
			fc = rc
		}
	} else {
		fc = cache.NewMemoryCache(cfg.Redis.TTL, cfg.Redis.LockTTL)
	}
	defer fc.Close()

	// Init notifier
	var tn *notifier.TelegramNotifier
	var sender notifier.Notifier = notifier.LogNotifier{}
	if !cfg.Telegram.Disabled {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.APIBase, cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		sender = tn
	}

	nar := narrator.NewClient(narrator.Options{
		BaseURL:  cfg.Narrator.BaseURL,
		APIKey:   cfg.Narrator.APIKey,
		Model:    cfg.Narrator.Model,
		Language: cfg.Narrator.Language,
		Timeout:  cfg.Narrator.Timeout,
		ProxyURL: cfg.Proxy,
	})
	if !nar.Enabled() {
		log.Info().Msg("narrator disabled: no api key")
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Init scheduler
	cronSpecs := make(map[model.Interval]string, len(cfg.DataSource.Intervals))
	for _, iv := range cfg.Intervals() {
		cronSpecs[iv] = cfg.Schedule.Cron[iv.String()]
	}
	sched := scheduler.NewScheduler(ctx, scheduler.Options{
		Symbols:      cfg.DataSource.Symbols,
		Cron:         cronSpecs,
		Concurrency:  cfg.Schedule.Concurrency,
		Params:       cfg.Pipeline,
		NarratorRows: cfg.Narrator.Rows,
		MaxRetries:   3,
	}, col, rec, fc, sender, nar, m)
	if err := sched.RegisterAll(); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	// HTTP API
	srv := api.NewServer(cfg.HTTP.Addr, api.NewHandler(rec, fc), reg)
	srv.Start()
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := srv.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("stop http server")
		}
	}()

	// Start Telegram polling
	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	// Optional: run immediately on start
	if cfg.Schedule.RunOnStart {
		log.Info().Msg("run_on_start enabled, executing all intervals now")
		go sched.RunAllNow(ctx)
	}

	log.Info().Msg("ChartSentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping...")
	cancel()
}
