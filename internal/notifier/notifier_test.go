package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"ChartSentinel/internal/model"
)

type fakeTelegram struct {
	mu       sync.Mutex
	requests []sendMessageRequest
	// handle returns the status and body for the nth sendMessage call.
	handle func(n int, req sendMessageRequest) (int, string)
}

func (f *fakeTelegram) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/sendMessage") {
			http.NotFound(w, r)
			return
		}
		var req sendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		f.mu.Lock()
		f.requests = append(f.requests, req)
		n := len(f.requests)
		f.mu.Unlock()
		status, body := f.handle(n, req)
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func okBody(id int) string {
	b, _ := json.Marshal(map[string]any{"ok": true, "result": map[string]int{"message_id": id}})
	return string(b)
}

func newTestNotifier(url string) *TelegramNotifier {
	n := NewTelegramNotifier(url, "TOKEN", "-100", "")
	n.backoff = time.Millisecond
	return n
}

func TestSplit(t *testing.T) {
	parts := Split(strings.Repeat("a", 5000), MaxMessageLength)
	if len(parts) != 2 || len(parts[0]) != 4096 || len(parts[1]) != 904 {
		t.Fatalf("unexpected split: %d parts", len(parts))
	}
	// multi-byte characters count once each
	parts = Split(strings.Repeat("é", 10), 4)
	if len(parts) != 3 || parts[2] != "éé" {
		t.Errorf("rune split = %q", parts)
	}
	if Split("", 10) != nil {
		t.Error("empty text should give no parts")
	}
}

func TestSendChainsParts(t *testing.T) {
	fake := &fakeTelegram{handle: func(n int, _ sendMessageRequest) (int, string) {
		return http.StatusOK, okBody(100 + n)
	}}
	n := newTestNotifier(fake.server(t).URL)

	text := strings.Repeat("x", 9000)
	if err := n.Send(context.Background(), text, ModeHTML); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(fake.requests) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(fake.requests))
	}
	wantReply := []int{0, 101, 102}
	for i, req := range fake.requests {
		if req.ReplyToMessageID != wantReply[i] {
			t.Errorf("part %d reply_to = %d, want %d", i, req.ReplyToMessageID, wantReply[i])
		}
		if req.ChatID != "-100" || req.ParseMode != "HTML" {
			t.Errorf("part %d: %+v", i, req)
		}
	}
	if got := n.LastMessageID(); got != 103 {
		t.Errorf("LastMessageID = %d", got)
	}
}

func TestSendFallsBackToPlain(t *testing.T) {
	fake := &fakeTelegram{handle: func(n int, req sendMessageRequest) (int, string) {
		if req.ParseMode != "" {
			return http.StatusBadRequest, `{"ok":false,"description":"Bad Request: can't parse entities"}`
		}
		return http.StatusOK, okBody(7)
	}}
	n := newTestNotifier(fake.server(t).URL)

	if err := n.Send(context.Background(), "*broken_markdown", ModeMarkdown); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(fake.requests) != 2 || fake.requests[1].ParseMode != "" {
		t.Errorf("expected markdown then plain, got %+v", fake.requests)
	}
}

func TestSendWithRetry(t *testing.T) {
	fake := &fakeTelegram{handle: func(n int, _ sendMessageRequest) (int, string) {
		if n < 3 {
			return http.StatusInternalServerError, `{"ok":false}`
		}
		return http.StatusOK, okBody(1)
	}}
	n := newTestNotifier(fake.server(t).URL)

	if err := n.SendWithRetry(context.Background(), "hello", ModeHTML, 3); err != nil {
		t.Fatalf("SendWithRetry: %v", err)
	}
	if len(fake.requests) != 3 {
		t.Errorf("expected 3 attempts, got %d", len(fake.requests))
	}
}

func TestSendWithRetryExhausted(t *testing.T) {
	fake := &fakeTelegram{handle: func(int, sendMessageRequest) (int, string) {
		return http.StatusBadGateway, "bad gateway"
	}}
	n := newTestNotifier(fake.server(t).URL)

	err := n.SendWithRetry(context.Background(), "hello", ModeHTML, 2)
	if err == nil || !strings.Contains(err.Error(), "retries exhausted") {
		t.Fatalf("expected exhausted error, got %v", err)
	}
	if len(fake.requests) != 3 {
		t.Errorf("expected 3 attempts, got %d", len(fake.requests))
	}
}

func TestStartPolling(t *testing.T) {
	var (
		mu      sync.Mutex
		replies []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			if r.URL.Query().Get("offset") == "0" {
				w.Write([]byte(`{"ok":true,"result":[{"update_id":41,"message":{"text":" /help ","chat":{"id":5}}}]}`))
				return
			}
			time.Sleep(10 * time.Millisecond)
			w.Write([]byte(`{"ok":true,"result":[]}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var req sendMessageRequest
			json.NewDecoder(r.Body).Decode(&req)
			mu.Lock()
			replies = append(replies, req.Text)
			mu.Unlock()
			w.Write([]byte(okBody(1)))
		}
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan string, 1)
	done := make(chan struct{})
	go func() {
		n.StartPolling(ctx, func(_ context.Context, cmd string) string {
			got <- cmd
			return "pong"
		})
		close(done)
	}()

	select {
	case cmd := <-got:
		if cmd != "/help" {
			t.Errorf("command = %q", cmd)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler not called")
	}
	// let the reply go out before stopping
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("polling did not stop")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(replies) != 1 || replies[0] != "pong" {
		t.Errorf("replies = %v", replies)
	}
}

func reportFrame() *model.IndicatorFrame {
	row := model.IndicatorRow{
		Time:          time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Close:         42000.6,
		RSI:           55.24,
		MACD:          120.5,
		MACDSignal:    100.25,
		MACDDiff:      20.25,
		EMA25:         41900.4,
		EMA50:         41000,
		EMA100:        40000,
		EMA200:        38000,
		SMA50:         41000,
		SMA200:        model.NaN(),
		Pivot:         41950,
		Fib382:        40500.123,
		Fib618:        model.NaN(),
		Cross25x50:    model.CrossUp,
		Cross100x200:  model.CrossDown,
		DoubleBottom:  1,
		FVG:           1,
		BollingerHigh: 43000,
		BollingerMid:  42000,
		BollingerLow:  41000,
	}
	return &model.IndicatorFrame{Symbol: "BTCUSDT", Interval: model.Interval4h, Rows: []model.IndicatorRow{row}}
}

func TestFormatIndicatorReport(t *testing.T) {
	bias := &model.Bias{
		TotalScore: 0.45,
		Tier:       model.BiasTier{Label: "Mildly Bullish", Emoji: "📈"},
		Factors:    []model.FactorScore{{Name: "RSI", RawScore: 0, Weight: 0.2, Commentary: "RSI=55"}},
	}
	msg := FormatIndicatorReport("BTC/USDT", model.Interval4h, 0, reportFrame(), bias)

	for _, want := range []string{
		"<b>BTC/USDT 4h</b> | 2024-03-01 12:00 UTC",
		"Close: 42001",
		"RSI(14): 55.2",
		"EMA 25/50/100/200: 41900 / 41000 / 40000 / 38000",
		"SMA 50/200: 41000 / n/a",
		"Crosses: 25/50 up, 100/200 down",
		"Fib 38.2%: 40500 | 61.8%: n/a",
		"Patterns:</b> double_bottom, fvg",
		"Bias:</b> Mildly Bullish 📈 (+0.450)",
		"RSI (RSI=55): +0.0 (×0.20) = +0.000",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("report missing %q\n%s", want, msg)
		}
	}
}

func TestFormatIndicatorReportPrecision(t *testing.T) {
	msg := FormatIndicatorReport("ETHUSDT", model.Interval1d, 2, reportFrame(), nil)
	if !strings.Contains(msg, "Close: 42000.60") {
		t.Errorf("expected two decimals:\n%s", msg)
	}
	if strings.Contains(msg, "Bias") {
		t.Error("nil bias should omit the bias section")
	}
}

func TestFormatIndicatorReportEmpty(t *testing.T) {
	msg := FormatIndicatorReport("ETHUSDT", model.Interval1d, 2, &model.IndicatorFrame{}, nil)
	if !strings.Contains(msg, "No data") {
		t.Errorf("got %q", msg)
	}
}
