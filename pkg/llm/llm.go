package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/expensetracker/expenses/internal/config"
	"github.com/expensetracker/expenses/internal/metrics"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

var (
	// ErrDisabled is returned when no API key is configured. No request is made.
	ErrDisabled      = errors.New("llm provider is not configured")
	ErrEmptyResponse = errors.New("llm provider returned no content")
)

const maxErrorBody = 512

type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Request struct {
	// Purpose labels the call in metrics and logs, e.g. categorize or insights.
	Purpose     string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

type Client interface {
	Complete(ctx context.Context, request Request) (string, error)
}

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

// HTTPClient calls an OpenAI compatible chat completion endpoint.
type HTTPClient struct {
	cfg        config.LLM
	httpClient *http.Client
}

func NewHTTPClient(cfg config.LLM) *HTTPClient {
	return &HTTPClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *HTTPClient) Complete(ctx context.Context, request Request) (string, error) {
	if c.cfg.APIKey == "" {
		metrics.RecordLLMCall(request.Purpose, "disabled", 0)
		return "", ErrDisabled
	}

	start := time.Now()
	content, err := c.complete(ctx, request)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		log.Warnf("llm %s call failed: %v", request.Purpose, err)
	}
	metrics.RecordLLMCall(request.Purpose, outcome, time.Since(start))
	return content, err
}

func (c *HTTPClient) complete(ctx context.Context, request Request) (string, error) {
	body, err := json.Marshal(chatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    request.Messages,
		Temperature: request.Temperature,
		MaxTokens:   request.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode chat completion request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read chat completion response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(payload) > maxErrorBody {
			payload = payload[:maxErrorBody]
		}
		return "", fmt.Errorf("chat completion returned status %d: %s", resp.StatusCode, payload)
	}
	if !gjson.ValidBytes(payload) {
		return "", fmt.Errorf("chat completion returned invalid json")
	}

	content := strings.TrimSpace(gjson.GetBytes(payload, "choices.0.message.content").String())
	if content == "" {
		return "", ErrEmptyResponse
	}
	log.Tracef("llm %s response: %s", request.Purpose, content)
	return content, nil
}
