// Package narrator asks an OpenAI-compatible chat completions endpoint for a
// written technical read of a feature table.
package narrator

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
	"time"

	"github.com/rs/zerolog/log"
)

const systemPrompt = "You are a master of Crypto Technical Analysis."

// ErrDisabled is returned by Narrate when no API key is configured.
var ErrDisabled = errors.New("narrator disabled: no api key")

// Options configures NewClient.
type Options struct {
	BaseURL  string
	APIKey   string
	Model    string
	Language string
	Timeout  time.Duration
	ProxyURL string
}

// Client calls the chat completions API.
type Client struct {
	baseURL  string
	apiKey   string
	model    string
	language string
	http     *http.Client
}

func NewClient(opts Options) *Client {
	transport := &http.Transport{}
	if opts.ProxyURL != "" {
		if u, err := url.Parse(opts.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}
	if opts.Language == "" {
		opts.Language = "English"
	}
	return &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		apiKey:   opts.APIKey,
		model:    opts.Model,
		language: opts.Language,
		http:     &http.Client{Timeout: opts.Timeout, Transport: transport},
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool { return c != nil && c.apiKey != "" }

// Request carries what the narrative needs besides the feature table.
type Request struct {
	Label     string // display name, e.g. "BTC/USDT"
	Interval  string
	Close     string // formatted at the symbol's precision
	Date      time.Time
	Precision int
	Features  string // CSV from FeatureTable
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) prompt(req Request) string {
	template := fmt.Sprintf(`_%s technical analysis by an AI_

Symbol: *%s*
Interval: *%s*
Current price: *%s*
Date: *%s*

*Technical indicators:*
- EMA: {ema_read}
- MACD: {macd_read}
- RSI: {rsi_read}
- SMA: {sma_read}
- Stochastic: {stoch_read}
- CCI: {cci_read}
- ATR: {atr_value}
- OBV: {obv_value}
- Williams %%R: {williams_r_read}

*Fibonacci, trend lines, major and minor pivots:*
{fibo_trend_pivot_analysis}

*Support and resistance:*
- Support: {support_level}
- Resistance: {resistance_level}

*Outlook for the next day and the next week:*
{outlook}

*Note: this is an AI generated analysis and only a tool.*`,
		req.Label, req.Label, req.Interval, req.Close, req.Date.UTC().Format("2006-01-02 15:04"))

	digits := "integer numbers only"
	if req.Precision > 0 {
		digits = fmt.Sprintf("numbers with %d decimals", req.Precision)
	}
	return fmt.Sprintf(`Provide a technical analysis in %s for the following data using this template.
Use price action and smart money concepts in your analysis.
Use %s.
If any pattern or FVG is detected mention it in your analysis. Also describe Elliott waves, the wave count and the Elliott wave forecast.
Describe the market only. Do not give entries, leverage, targets or stop losses.

%s

Data:
%s`, c.language, digits, template, req.Features)
}

// Narrate returns the sanitized narrative with the channel footer appended.
func (c *Client) Narrate(ctx context.Context, req Request) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: c.prompt(req)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("chat completions: %w", err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat completions: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var out chatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("chat completions: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("chat completions: empty response")
	}

	log.Info().Str("model", c.model).Str("label", req.Label).Str("interval", req.Interval).
		Dur("took", time.Since(start)).Msg("generated analysis")

	text := Sanitize(out.Choices[0].Message.Content)
	text += "\n\n\n_Stay with us for more analysis!_"
	text += "\n#crypto #technical\\_analysis " + hashtag(req.Label)
	return text, nil
}
