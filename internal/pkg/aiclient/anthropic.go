package aiclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	anthropicclient "github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/docagent/server/internal/config"
	"github.com/docagent/server/internal/pkg/apperr"
	"go.uber.org/zap"
)

type anthropicClient struct {
	client      anthropicclient.Client
	model       string
	temperature float64
	maxTokens   int64
	logger      *zap.Logger
}

func newAnthropicClient(cfg config.AIConfig, httpClient *http.Client, logger *zap.Logger) *anthropicClient {
	opts := []anthropicoption.RequestOption{
		anthropicoption.WithAPIKey(cfg.APIKey),
		anthropicoption.WithMaxRetries(0),
		anthropicoption.WithHTTPClient(httpClient),
	}
	if endpoint := strings.TrimSpace(cfg.BaseURL); endpoint != "" {
		opts = append(opts, anthropicoption.WithBaseURL(strings.TrimRight(endpoint, "/")+"/"))
	}
	return &anthropicClient{
		client:      anthropicclient.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   int64(cfg.MaxTokens),
		logger:      logger,
	}
}

// params folds system messages into the system blocks and merges consecutive turns of one role.
func (c *anthropicClient) params(messages []Message) anthropicclient.MessageNewParams {
	var system []anthropicclient.TextBlockParam
	var turns []anthropicclient.MessageParam
	var pending []string
	var pendingRole Role

	flush := func() {
		if len(pending) == 0 {
			return
		}
		block := anthropicclient.NewTextBlock(strings.Join(pending, "\n\n"))
		switch pendingRole {
		case RoleAssistant:
			turns = append(turns, anthropicclient.NewAssistantMessage(block))
		case RoleUser, RoleSystem:
			turns = append(turns, anthropicclient.NewUserMessage(block))
		}
		pending = nil
	}

	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, anthropicclient.TextBlockParam{Text: m.Content})
		case RoleUser, RoleAssistant:
			if m.Role != pendingRole {
				flush()
				pendingRole = m.Role
			}
			pending = append(pending, m.Content)
		}
	}
	flush()

	return anthropicclient.MessageNewParams{
		Model:       anthropicclient.Model(c.model),
		MaxTokens:   c.maxTokens,
		System:      system,
		Messages:    turns,
		Temperature: anthropicclient.Float(c.temperature),
	}
}

func (c *anthropicClient) Chat(ctx context.Context, messages []Message) (string, error) {
	resp, err := c.client.Messages.New(ctx, c.params(messages))
	if err != nil {
		return "", apperr.Upstream(err)
	}

	var full strings.Builder
	found := false
	for _, block := range resp.Content {
		if text, ok := block.AsAny().(anthropicclient.TextBlock); ok {
			full.WriteString(text.Text)
			found = true
		}
	}
	if !found {
		return "", apperr.Upstreamf("malformed response: no text content block")
	}
	return full.String(), nil
}

func (c *anthropicClient) ChatStream(ctx context.Context, messages []Message, sink Sink) {
	s := once(sink)
	stream := c.client.Messages.NewStreaming(ctx, c.params(messages))
	defer stream.Close()

	for stream.Next() {
		event := stream.Current()
		delta, ok := event.AsAny().(anthropicclient.ContentBlockDeltaEvent)
		if !ok {
			continue
		}
		if text, ok := delta.Delta.AsAny().(anthropicclient.TextDelta); ok && strings.TrimSpace(text.Text) != "" {
			s.OnChunk(text.Text)
		}
	}
	if err := stream.Err(); err != nil {
		s.OnError(apperr.Upstream(fmt.Errorf("anthropic stream: %w", err)))
		return
	}
	s.OnComplete()
}
