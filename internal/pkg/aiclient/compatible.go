package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/docagent/server/internal/config"
	"github.com/docagent/server/internal/pkg/apperr"
	"go.uber.org/zap"
)

const maxResponseBytes = 8 << 20

// compatibleClient speaks the OpenAI chat-completions wire format over plain HTTP.
type compatibleClient struct {
	http        *http.Client
	endpoint    string
	apiKey      string
	model       string
	temperature float64
	logger      *zap.Logger
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	Stream      bool      `json:"stream"`
}

func newCompatibleClient(cfg config.AIConfig, httpClient *http.Client, logger *zap.Logger) *compatibleClient {
	return &compatibleClient{
		http:        httpClient,
		endpoint:    strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      logger,
	}
}

func (c *compatibleClient) Chat(ctx context.Context, messages []Message) (string, error) {
	c.logger.Debug("chat completion", zap.Int("messages", len(messages)))

	resp, err := c.post(ctx, messages, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", apperr.Upstream(fmt.Errorf("read response: %w", err))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content *string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", apperr.Upstream(fmt.Errorf("decode response: %w", err))
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == nil {
		return "", apperr.Upstreamf("malformed response: missing choices[0].message.content")
	}
	return *result.Choices[0].Message.Content, nil
}

func (c *compatibleClient) ChatStream(ctx context.Context, messages []Message, sink Sink) {
	s := once(sink)
	c.logger.Debug("chat completion stream", zap.Int("messages", len(messages)))

	resp, err := c.post(ctx, messages, true)
	if err != nil {
		s.OnError(err)
		return
	}
	defer resp.Body.Close()

	consumeEventStream(resp.Body, s, c.logger)
}

func (c *compatibleClient) post(ctx context.Context, messages []Message, stream bool) (*http.Response, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		Stream:      stream,
	})
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("encode chat request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("build chat request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.Upstream(err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		resp.Body.Close()
		c.logger.Error("chat completion failed", zap.Int("status", resp.StatusCode), zap.String("body", truncateText(string(snippet), 500)))
		return nil, apperr.Upstreamf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return resp, nil
}
