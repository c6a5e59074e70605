package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// MaxMessageLength is Telegram's per-message character limit.
const MaxMessageLength = 4096

// ParseMode selects how Telegram renders message text.
type ParseMode string

const (
	ModeHTML     ParseMode = "HTML"
	ModeMarkdown ParseMode = "Markdown"
	ModePlain    ParseMode = ""
)

// Notifier delivers text to the configured chat.
type Notifier interface {
	Send(ctx context.Context, text string, mode ParseMode) error
	SendWithRetry(ctx context.Context, text string, mode ParseMode, maxRetries int) error
}

// errParse marks a message Telegram rejected because of its formatting.
var errParse = errors.New("telegram rejected message entities")

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	APIBase  string
	Client   *http.Client

	// backoff is the first retry delay; it doubles per attempt.
	backoff time.Duration

	mu     sync.Mutex
	lastID int
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(apiBase, botToken, chatID, proxyURL string) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if apiBase == "" {
		apiBase = "https://api.telegram.org"
	}
	return &TelegramNotifier{
		BotToken: botToken,
		ChatID:   chatID,
		APIBase:  strings.TrimRight(apiBase, "/"),
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		backoff: time.Second,
	}
}

func (t *TelegramNotifier) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.APIBase, t.BotToken, method)
}

// LastMessageID returns the id of the most recently delivered message part.
func (t *TelegramNotifier) LastMessageID() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastID
}

// Split cuts text into parts of at most limit characters.
func Split(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	var parts []string
	for i := 0; i < len(runes); i += limit {
		end := min(i+limit, len(runes))
		parts = append(parts, string(runes[i:end]))
	}
	return parts
}

// Send delivers text as one or more messages. Each part after the first
// replies to the previous one.
func (t *TelegramNotifier) Send(ctx context.Context, text string, mode ParseMode) error {
	return t.SendWithRetry(ctx, text, mode, 0)
}

// SendWithRetry is Send with exponential backoff retry per part, so a failed
// part never re-sends the parts already delivered.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, mode ParseMode, maxRetries int) error {
	parts := Split(text, MaxMessageLength)
	replyTo := 0
	for n, part := range parts {
		id, err := t.sendPartWithRetry(ctx, part, mode, replyTo, maxRetries)
		if err != nil {
			return fmt.Errorf("part %d/%d: %w", n+1, len(parts), err)
		}
		replyTo = id
	}
	if replyTo != 0 {
		t.mu.Lock()
		t.lastID = replyTo
		t.mu.Unlock()
	}
	return nil
}

func (t *TelegramNotifier) sendPartWithRetry(ctx context.Context, text string, mode ParseMode, replyTo, maxRetries int) (int, error) {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		id, err := t.sendPart(ctx, text, mode, replyTo)
		if err == nil {
			return id, nil
		}
		lastErr = err
		if i == maxRetries {
			break
		}
		backoff := t.backoff * time.Duration(1<<uint(i))
		log.Warn().Err(err).Int("attempt", i+1).Int("max", maxRetries+1).Dur("backoff", backoff).Msg("telegram send failed, retrying")
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(backoff):
		}
	}
	if maxRetries == 0 {
		return 0, lastErr
	}
	return 0, fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}

// sendPart posts one message. A formatting rejection is retried once as plain text.
func (t *TelegramNotifier) sendPart(ctx context.Context, text string, mode ParseMode, replyTo int) (int, error) {
	id, err := t.post(ctx, text, mode, replyTo)
	if errors.Is(err, errParse) && mode != ModePlain {
		log.Warn().Err(err).Msg("could not send formatted message, falling back to plain text")
		return t.post(ctx, text, ModePlain, replyTo)
	}
	return id, err
}

type sendMessageRequest struct {
	ChatID           string `json:"chat_id"`
	Text             string `json:"text"`
	ParseMode        string `json:"parse_mode,omitempty"`
	ReplyToMessageID int    `json:"reply_to_message_id,omitempty"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int `json:"message_id"`
	} `json:"result"`
}

func (t *TelegramNotifier) post(ctx context.Context, text string, mode ParseMode, replyTo int) (int, error) {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:           t.ChatID,
		Text:             text,
		ParseMode:        string(mode),
		ReplyToMessageID: replyTo,
	})
	if err != nil {
		return 0, fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusBadRequest && bytes.Contains(respBody, []byte("can't parse entities")) {
			return 0, fmt.Errorf("%w: %s", errParse, string(respBody))
		}
		return 0, fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var out sendMessageResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	if !out.OK {
		return 0, fmt.Errorf("telegram API error: %s", out.Description)
	}
	return out.Result.MessageID, nil
}

// LogNotifier writes messages to the log instead of a chat. It is used when
// Telegram delivery is disabled.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, text string, mode ParseMode) error {
	log.Info().Str("mode", string(mode)).Int("chars", len([]rune(text))).Msg("telegram disabled, message not sent")
	log.Debug().Msg(text)
	return nil
}

func (n LogNotifier) SendWithRetry(ctx context.Context, text string, mode ParseMode, _ int) error {
	return n.Send(ctx, text, mode)
}
