// Package remote sends single-turn queries to an OpenAI-compatible
// chat-completion endpoint.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pario-ai/rex/pkg/log"
	"github.com/pario-ai/rex/pkg/models"
)

// Defaults mirror the OpenRouter setup rex ships with.
const (
	DefaultURL         = "https://openrouter.ai/api/v1/chat/completions"
	DefaultSource      = "GPT-4o via OpenRouter"
	DefaultMaxTokens   = 1000
	DefaultTemperature = 0.7

	errNoCredential = "No API key set. Save your key in configuration."
)

// Options configures a Client. Zero values select the defaults.
// Timeout of zero means no timeout.
type Options struct {
	URL         string
	Source      string
	MaxTokens   int
	Temperature *float64
	Timeout     time.Duration
	HTTPClient  *http.Client
}

// Client makes one best-effort request per call. It never retries.
type Client struct {
	url         string
	source      string
	maxTokens   int
	temperature float64
	client      *http.Client
	now         func() time.Time
}

// New creates a Client from opts.
func New(opts Options) *Client {
	c := &Client{
		url:         opts.URL,
		source:      opts.Source,
		maxTokens:   opts.MaxTokens,
		temperature: DefaultTemperature,
		client:      opts.HTTPClient,
		now:         time.Now,
	}
	if c.url == "" {
		c.url = DefaultURL
	}
	if c.source == "" {
		c.source = DefaultSource
	}
	if c.maxTokens <= 0 {
		c.maxTokens = DefaultMaxTokens
	}
	if opts.Temperature != nil {
		c.temperature = *opts.Temperature
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: opts.Timeout}
	}
	return c
}

// Complete asks model to answer query. Failures are reported in the result,
// never as a Go error; an empty credential fails without any network I/O.
func (c *Client) Complete(ctx context.Context, query, credential, model string) models.CompletionResult {
	if credential == "" {
		return models.CompletionResult{Error: errNoCredential}
	}

	body, err := json.Marshal(models.ChatCompletionRequest{
		Model:       model,
		Messages:    []models.ChatMessage{{Role: "user", Content: query}},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return failure(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return failure(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		log.Warnw("remote request failed", "model", model, "error", err)
		return failure(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(fmt.Errorf("read response: %w", err))
	}
	log.Debugw("remote response", "model", model, "status", resp.StatusCode, "latency", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.CompletionResult{
			Error: fmt.Sprintf("API Error %d: %s", resp.StatusCode, respBody),
		}
	}

	var chatResp models.ChatCompletionResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return failure(err)
	}

	responseModel := chatResp.Model
	if responseModel == "" {
		responseModel = model
	}
	return models.CompletionResult{
		Success:   true,
		Response:  answerText(chatResp),
		Source:    c.source,
		Timestamp: models.Timestamp(c.now()),
		TokenInfo: tokenInfo(chatResp.Usage),
		Model:     responseModel,
		Usage:     chatResp.Usage,
	}
}

func failure(err error) models.CompletionResult {
	return models.CompletionResult{Error: "Error: " + err.Error()}
}

func answerText(resp models.ChatCompletionResponse) string {
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
		return ""
	}
	return resp.Choices[0].Message.Content
}

// tokenInfo renders "(Tokens: N)", "(Tokens: N/A)" when the total is absent
// or zero, and "" when there is no usage object at all.
func tokenInfo(u *models.Usage) string {
	if u == nil {
		return ""
	}
	if total := u.Total(); total != 0 {
		return fmt.Sprintf("(Tokens: %d)", total)
	}
	return "(Tokens: N/A)"
}
