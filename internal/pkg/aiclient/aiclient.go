// Package aiclient talks to chat-completion providers in single-shot and streaming modes.
package aiclient

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/docagent/server/internal/config"
	"go.uber.org/zap"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged entry of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func System(content string) Message    { return Message{Role: RoleSystem, Content: content} }
func User(content string) Message      { return Message{Role: RoleUser, Content: content} }
func Assistant(content string) Message { return Message{Role: RoleAssistant, Content: content} }

// Sink receives a streamed reply. OnComplete and OnError are terminal.
type Sink interface {
	OnChunk(text string)
	OnComplete()
	OnError(err error)
}

// SinkFuncs adapts plain functions to Sink. Nil fields are ignored.
type SinkFuncs struct {
	Chunk    func(string)
	Complete func()
	Error    func(error)
}

func (s SinkFuncs) OnChunk(text string) {
	if s.Chunk != nil {
		s.Chunk(text)
	}
}

func (s SinkFuncs) OnComplete() {
	if s.Complete != nil {
		s.Complete()
	}
}

func (s SinkFuncs) OnError(err error) {
	if s.Error != nil {
		s.Error(err)
	}
}

// Client is shared by every service that needs a model.
type Client interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	// ChatStream blocks until the stream ends. Exactly one terminal callback fires.
	ChatStream(ctx context.Context, messages []Message, sink Sink)
}

// onceSink drops chunks after a terminal callback and lets only the first terminal through.
type onceSink struct {
	sink Sink
	done atomic.Bool
}

func once(sink Sink) *onceSink {
	if s, ok := sink.(*onceSink); ok {
		return s
	}
	return &onceSink{sink: sink}
}

func (s *onceSink) OnChunk(text string) {
	if s.done.Load() {
		return
	}
	s.sink.OnChunk(text)
}

func (s *onceSink) OnComplete() {
	if s.done.CompareAndSwap(false, true) {
		s.sink.OnComplete()
	}
}

func (s *onceSink) OnError(err error) {
	if s.done.CompareAndSwap(false, true) {
		s.sink.OnError(err)
	}
}

func (s *onceSink) finished() bool { return s.done.Load() }

// New builds the client selected by cfg.Provider.
func New(cfg config.AIConfig, logger *zap.Logger) (Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("AiClient")
	httpClient := newHTTPClient(cfg.ConnectTimeout(), cfg.ReadTimeout())

	switch cfg.Provider {
	case config.ProviderOpenAICompatible:
		return newCompatibleClient(cfg, httpClient, logger), nil
	case config.ProviderOpenAI:
		return newOpenAIClient(cfg, httpClient, logger), nil
	case config.ProviderAnthropic:
		return newAnthropicClient(cfg, httpClient, logger), nil
	}
	return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
}

// newHTTPClient bounds dial+TLS by connect, and both the wait for headers and
// every idle gap in the body by read.
func newHTTPClient(connect, read time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: connect, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   connect,
		ResponseHeaderTimeout: read,
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: &idleTimeoutTransport{base: transport, timeout: read}}
}
