package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"ChartSentinel/internal/model"
)

const (
	DefaultBinanceURL = "https://api.binance.com"
	klinesLimit       = 1000
	maxKlinePages     = 200
)

// BinanceFetcher implements Fetcher using the Binance spot klines endpoint.
type BinanceFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewBinanceFetcher creates a new fetcher with optional proxy support.
func NewBinanceFetcher(baseURL, apiKey, proxyURL string) *BinanceFetcher {
	if baseURL == "" {
		baseURL = DefaultBinanceURL
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &BinanceFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *BinanceFetcher) Name() string { return "binance" }

// FetchCandles pages through klines from start until a short page comes back.
func (f *BinanceFetcher) FetchCandles(ctx context.Context, symbol string, interval model.Interval, start time.Time) ([]model.OHLCV, error) {
	var bars []model.OHLCV
	from := start.UnixMilli()
	for page := 0; page < maxKlinePages; page++ {
		batch, err := f.fetchPage(ctx, symbol, interval, from)
		if err != nil {
			return nil, err
		}
		bars = append(bars, batch...)
		if len(batch) < klinesLimit {
			break
		}
		from = batch[len(batch)-1].Time.UnixMilli() + 1
	}
	log.Debug().Str("symbol", symbol).Str("interval", interval.String()).Int("bars", len(bars)).Msg("binance klines fetched")
	return dedupe(bars), nil
}

func (f *BinanceFetcher) fetchPage(ctx context.Context, symbol string, interval model.Interval, from int64) ([]model.OHLCV, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval.String())
	q.Set("startTime", strconv.FormatInt(from, 10))
	q.Set("limit", strconv.Itoa(klinesLimit))
	endpoint := fmt.Sprintf("%s/api/v3/klines?%s", f.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("X-MBX-APIKEY", f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch klines: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch klines: status %d, body: %s", resp.StatusCode, string(body))
	}

	var rows [][]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode klines: %w", err)
	}
	bars := make([]model.OHLCV, 0, len(rows))
	for i, row := range rows {
		bar, err := parseKline(row)
		if err != nil {
			return nil, fmt.Errorf("kline %d: %w", i, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// parseKline reads [openTime, open, high, low, close, volume, ...] where the
// prices and volume are decimal strings.
func parseKline(row []json.RawMessage) (model.OHLCV, error) {
	if len(row) < 6 {
		return model.OHLCV{}, fmt.Errorf("expected at least 6 fields, got %d", len(row))
	}
	var openTime int64
	if err := json.Unmarshal(row[0], &openTime); err != nil {
		return model.OHLCV{}, fmt.Errorf("open time: %w", err)
	}
	vals := make([]float64, 5)
	for k := range vals {
		var s string
		if err := json.Unmarshal(row[k+1], &s); err != nil {
			return model.OHLCV{}, fmt.Errorf("field %d: %w", k+1, err)
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return model.OHLCV{}, fmt.Errorf("field %d: %w", k+1, err)
		}
		vals[k] = d.InexactFloat64()
	}
	return model.OHLCV{
		Time:   time.UnixMilli(openTime).UTC(),
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}

// dedupe sorts bars chronologically and keeps the last bar seen for each open time.
func dedupe(bars []model.OHLCV) []model.OHLCV {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	out := bars[:0]
	for _, b := range bars {
		if len(out) > 0 && out[len(out)-1].Time.Equal(b.Time) {
			out[len(out)-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
