// Package ai talks to an OpenAI-compatible chat-completion endpoint.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultSystemPrompt frames every request
const DefaultSystemPrompt = "You are an exam assistant. Answer exactly in the format the question asks for."

// Config holds the transport settings
type Config struct {
	Endpoint          string
	Model             string
	SystemPrompt      string
	Temperature       float64
	Timeout           time.Duration
	MaxRetries        int
	BaseDelay         time.Duration
	RequestsPerMinute int
}

// Message is a single chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the request payload
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature float64   `json:"temperature"`
}

// ChatChoice is a choice in the response
type ChatChoice struct {
	FinishReason string  `json:"finish_reason"`
	Index        int     `json:"index"`
	Message      Message `json:"message"`
}

// ChatResponse is the response payload
type ChatResponse struct {
	Choices []ChatChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Client sends prompts to the chat-completion endpoint
type Client struct {
	client      *http.Client
	config      Config
	rateLimiter *RateLimiter
	logger      *log.Logger
}

// NewClient creates a Client
func NewClient(config Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(config.Endpoint) == "" {
		return nil, errors.New("AI endpoint is required")
	}
	if strings.TrimSpace(config.Model) == "" {
		return nil, errors.New("AI model is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = time.Second
	}
	if config.SystemPrompt == "" {
		config.SystemPrompt = DefaultSystemPrompt
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Client{
		client:      &http.Client{Timeout: config.Timeout},
		config:      config,
		rateLimiter: PerMinute(config.RequestsPerMinute),
		logger:      logger,
	}, nil
}

func (c *Client) newChatRequest(prompt string) *ChatRequest {
	return &ChatRequest{
		Model: c.config.Model,
		Messages: []Message{
			{Role: "system", Content: c.config.SystemPrompt},
			{Role: "user", Content: prompt},
		},
		Stream:      false,
		Temperature: c.config.Temperature,
	}
}

// Send posts prompt authorised by secret and returns the first choice's
// content. Transport problems never surface as Go errors, only as a failed
// Result.
func (c *Client) Send(ctx context.Context, prompt, secret string) Result {
	body, err := json.Marshal(c.newChatRequest(prompt))
	if err != nil {
		return Failure(KindRequest, fmt.Sprintf("failed to marshal request body: %v", err))
	}

	var last Result
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return Failure(KindCanceled, err.Error())
		}

		if attempt > 0 {
			c.logger.Debug("Retrying AI request", "attempt", attempt, "max_retries", c.config.MaxRetries)
		}

		var retry bool
		last, retry = c.do(ctx, body, secret)
		if last.OK || !retry || attempt == c.config.MaxRetries {
			break
		}

		delay := c.config.BaseDelay * time.Duration(1<<uint(attempt))
		delay += time.Duration(rand.Int63n(int64(delay)/2 + 1))
		c.logger.Debug("Backing off before retry", "delay", delay, "kind", last.ErrorKind)

		select {
		case <-ctx.Done():
			return Failure(KindCanceled, ctx.Err().Error())
		case <-time.After(delay):
		}
	}
	return last
}

// do performs one attempt and reports whether a failure is worth retrying
func (c *Client) do(ctx context.Context, body []byte, secret string) (Result, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Failure(KindRequest, fmt.Sprintf("failed to create request: %v", err)), false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+secret)

	resp, err := c.client.Do(req)
	if err != nil {
		r := classify(ctx, err)
		return r, r.ErrorKind != KindCanceled
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		r := classify(ctx, err)
		return r, r.ErrorKind != KindCanceled
	}

	if resp.StatusCode != http.StatusOK {
		kind := KindHTTPStatus
		if resp.StatusCode == http.StatusTooManyRequests {
			kind = KindRateLimited
		}
		c.logger.Error("AI API returned non-OK status", "status", resp.StatusCode, "response", truncate(string(data), 200))
		retry := kind == KindRateLimited || resp.StatusCode >= http.StatusInternalServerError
		return Failure(kind, fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(string(data), 200))), retry
	}

	var parsed ChatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return Failure(KindDecode, fmt.Sprintf("failed to decode AI API response: %v", err)), false
	}
	if parsed.Error != nil {
		return Failure(KindHTTPStatus, fmt.Sprintf("%s (%s)", parsed.Error.Message, parsed.Error.Type)), false
	}
	if len(parsed.Choices) == 0 {
		return Failure(KindEmpty, "AI API returned empty choices array"), false
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return Failure(KindEmpty, "AI API returned empty content"), false
	}
	return Success(content), false
}

func classify(ctx context.Context, err error) Result {
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return Failure(KindCanceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded), isTimeout(err):
		return Failure(KindTimeout, err.Error())
	default:
		return Failure(KindNetwork, err.Error())
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
