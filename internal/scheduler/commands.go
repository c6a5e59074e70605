package scheduler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"ChartSentinel/internal/cache"
	"ChartSentinel/internal/config"
	"ChartSentinel/internal/model"
	"ChartSentinel/internal/notifier"
	"ChartSentinel/internal/strategy"
)

func formatPrice(v float64, precision int) string {
	return decimal.NewFromFloat(v).StringFixed(int32(precision))
}

// HandleCommand processes a user command and returns a reply.
//
//	/report SYMBOL INTERVAL  run a report cycle now; the report itself is the reply
//	/latest SYMBOL INTERVAL  show the last computed row
//	/help                    list commands
func (s *Scheduler) HandleCommand(ctx context.Context, text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return s.help()
	}
	// "/report@SomeBot" in group chats
	cmd, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")

	switch cmd {
	case "/report":
		sym, iv, errMsg := s.parsePair(cmd, fields[1:])
		if errMsg != "" {
			return errMsg
		}
		if _, err := s.RunReport(ctx, sym, iv); err != nil {
			switch {
			case errors.Is(err, ErrRunInProgress):
				return fmt.Sprintf("⏳ A %s %s report is already running", sym.Name, iv)
			case model.IsInsufficientData(err):
				return fmt.Sprintf("⚠️ Not enough history for %s %s", sym.Name, iv)
			default:
				return fmt.Sprintf("❌ Report for %s %s failed: %s", sym.Name, iv, html.EscapeString(err.Error()))
			}
		}
		return ""
	case "/latest":
		sym, iv, errMsg := s.parsePair(cmd, fields[1:])
		if errMsg != "" {
			return errMsg
		}
		return s.latest(ctx, sym, iv)
	default:
		return s.help()
	}
}

func (s *Scheduler) help() string {
	names := make([]string, len(s.opts.Symbols))
	for i, sym := range s.opts.Symbols {
		names[i] = sym.Name
	}
	return notifier.FormatHelp(names, s.Intervals())
}

func (s *Scheduler) parsePair(cmd string, args []string) (config.Symbol, model.Interval, string) {
	usage := fmt.Sprintf("Usage: %s SYMBOL INTERVAL", cmd)
	if len(args) != 2 {
		return config.Symbol{}, "", usage
	}
	var sym config.Symbol
	found := false
	for _, cand := range s.opts.Symbols {
		if strings.EqualFold(cand.Name, args[0]) {
			sym, found = cand, true
			break
		}
	}
	if !found {
		return config.Symbol{}, "", fmt.Sprintf("Unknown symbol %s\n%s", html.EscapeString(args[0]), usage)
	}
	iv := model.Interval(strings.ToLower(args[1]))
	if _, ok := s.opts.Cron[iv]; !ok {
		return config.Symbol{}, "", fmt.Sprintf("Unknown interval %s\n%s", html.EscapeString(args[1]), usage)
	}
	return sym, iv, ""
}

func (s *Scheduler) latest(ctx context.Context, sym config.Symbol, iv model.Interval) string {
	row, err := s.Cache.Latest(ctx, sym.Name, iv)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Warn().Err(err).Str("symbol", sym.Name).Msg("cache read failed")
		}
		rows, err := s.Recorder.LatestIndicators(ctx, sym.Name, iv, 1)
		if err != nil {
			log.Error().Err(err).Str("symbol", sym.Name).Msg("load latest row")
			return "❌ Could not load the latest row"
		}
		if len(rows) == 0 {
			return fmt.Sprintf("No data for %s %s yet", sym.Name, iv)
		}
		row = &rows[0]
	}
	frame := &model.IndicatorFrame{Symbol: sym.Name, Interval: iv, Rows: []model.IndicatorRow{*row}}
	return notifier.FormatIndicatorReport(sym.Label(), iv, sym.Precision, frame, strategy.Evaluate(*row))
}
