package aiclient

import (
	"context"
	"fmt"
	"net/http"
	neturl "net/url"
	"strings"

	"github.com/docagent/server/internal/config"
	"github.com/docagent/server/internal/pkg/apperr"
	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"
	"go.uber.org/zap"
)

// openAIClient uses the official SDK against api.openai.com or any base_url.
type openAIClient struct {
	client      openaiclient.Client
	model       string
	temperature float64
	logger      *zap.Logger
}

func newOpenAIClient(cfg config.AIConfig, httpClient *http.Client, logger *zap.Logger) *openAIClient {
	opts := []openaioption.RequestOption{
		openaioption.WithAPIKey(cfg.APIKey),
		openaioption.WithMaxRetries(0),
		openaioption.WithHTTPClient(httpClient),
	}
	if normalized := normalizeOpenAIBaseURL(cfg.BaseURL); normalized != "" {
		opts = append(opts, openaioption.WithBaseURL(normalized+"/"))
	}
	return &openAIClient{
		client:      openaiclient.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      logger,
	}
}

func (c *openAIClient) params(messages []Message) openaiclient.ChatCompletionNewParams {
	out := make([]openaiclient.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openaiclient.SystemMessage(m.Content))
		case RoleUser:
			out = append(out, openaiclient.UserMessage(m.Content))
		case RoleAssistant:
			out = append(out, openaiclient.AssistantMessage(m.Content))
		}
	}
	return openaiclient.ChatCompletionNewParams{
		Model:       openaiclient.ChatModel(c.model),
		Messages:    out,
		Temperature: openaiclient.Float(c.temperature),
	}
}

func (c *openAIClient) Chat(ctx context.Context, messages []Message) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, c.params(messages))
	if err != nil {
		return "", apperr.Upstream(err)
	}
	if len(resp.Choices) == 0 {
		return "", apperr.Upstreamf("malformed response: missing choices[0].message.content")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *openAIClient) ChatStream(ctx context.Context, messages []Message, sink Sink) {
	s := once(sink)
	stream := c.client.Chat.Completions.NewStreaming(ctx, c.params(messages))
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if content := chunk.Choices[0].Delta.Content; strings.TrimSpace(content) != "" {
			s.OnChunk(content)
		}
	}
	if err := stream.Err(); err != nil {
		s.OnError(apperr.Upstream(fmt.Errorf("openai stream: %w", err)))
		return
	}
	s.OnComplete()
}

// normalizeOpenAIBaseURL makes sure the path ends with /v1.
func normalizeOpenAIBaseURL(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		return ""
	}
	parsed, err := neturl.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return strings.TrimRight(base, "/")
	}

	path := strings.TrimRight(parsed.Path, "/")
	if !strings.HasSuffix(path, "/v1") {
		path += "/v1"
	}
	parsed.Path = path
	return strings.TrimRight(parsed.String(), "/")
}
