package aiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/docagent/server/internal/config"
	"github.com/docagent/server/internal/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSink struct {
	mu        sync.Mutex
	chunks    []string
	completed int
	errs      []error
}

func (r *recordingSink) OnChunk(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunks = append(r.chunks, text)
}

func (r *recordingSink) OnComplete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed++
}

func (r *recordingSink) OnError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func newTestClient(t *testing.T, handler http.HandlerFunc, readTimeoutMs int) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(config.AIConfig{
		Provider:         config.ProviderOpenAICompatible,
		BaseURL:          srv.URL + "/v1",
		APIKey:           "sk-test",
		Model:            "test-model",
		Temperature:      0.7,
		ConnectTimeoutMs: 1000,
		ReadTimeoutMs:    readTimeoutMs,
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func writeFrames(w http.ResponseWriter, frames ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	for _, f := range frames {
		fmt.Fprintf(w, "%s\n\n", f)
	}
}

func TestChat_SendsRequestAndReturnsContent(t *testing.T) {
	var got chatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"hello there"}}]}`)
	}, 1000)

	reply, err := client.Chat(context.Background(), []Message{System("be brief"), User("hi")})

	require.NoError(t, err)
	assert.Equal(t, "hello there", reply)
	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, 0.7, got.Temperature)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, RoleSystem, got.Messages[0].Role)
	assert.Equal(t, "hi", got.Messages[1].Content)
}

func TestChat_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"non-2xx", http.StatusBadGateway, `{"error":"down"}`, "status 502"},
		{"missing content", http.StatusOK, `{"choices":[{"message":{"role":"assistant"}}]}`, "missing choices[0].message.content"},
		{"empty choices", http.StatusOK, `{"choices":[]}`, "missing choices[0].message.content"},
		{"not json", http.StatusOK, `<html>`, "decode response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}, 1000)

			_, err := client.Chat(context.Background(), []Message{User("hi")})

			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindUpstream))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestChat_TransportErrorIsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	client, err := New(config.AIConfig{
		Provider: config.ProviderOpenAICompatible, BaseURL: url, Model: "m",
		ConnectTimeoutMs: 500, ReadTimeoutMs: 500,
	}, nil)
	require.NoError(t, err)

	_, err = client.Chat(context.Background(), []Message{User("hi")})
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
}

func TestChatStream_ForwardsChunksAndCompletesOnce(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)
		writeFrames(w,
			`data: {"choices":[{"delta":{"role":"assistant"}}]}`,
			`data: {"choices":[{"delta":{"content":"Hel"}}]}`,
			`data: {not json`,
			`data: {"choices":[{"delta":{"content":"   "}}]}`,
			`: keep-alive comment`,
			`data: {"choices":[{"delta":{"content":"lo"}}]}`,
			`data: [DONE]`,
			`data: {"choices":[{"delta":{"content":"ignored"}}]}`,
		)
	}, 1000)

	sink := &recordingSink{}
	client.ChatStream(context.Background(), []Message{User("hi")}, sink)

	assert.Equal(t, []string{"Hel", "lo"}, sink.chunks)
	assert.Equal(t, 1, sink.completed)
	assert.Empty(t, sink.errs)
}

func TestChatStream_EOFWithoutDoneCompletes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeFrames(w, `data: {"choices":[{"delta":{"content":"partial"}}]}`)
	}, 1000)

	sink := &recordingSink{}
	client.ChatStream(context.Background(), []Message{User("hi")}, sink)

	assert.Equal(t, []string{"partial"}, sink.chunks)
	assert.Equal(t, 1, sink.completed)
	assert.Empty(t, sink.errs)
}

func TestChatStream_ErrorFrameStops(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeFrames(w,
			`data: {"choices":[{"delta":{"content":"a"}}]}`,
			`data: {"error":{"message":"quota exceeded"}}`,
			`data: {"choices":[{"delta":{"content":"b"}}]}`,
			`data: [DONE]`,
		)
	}, 1000)

	sink := &recordingSink{}
	client.ChatStream(context.Background(), []Message{User("hi")}, sink)

	assert.Equal(t, []string{"a"}, sink.chunks)
	assert.Zero(t, sink.completed)
	require.Len(t, sink.errs, 1)
	assert.True(t, apperr.Is(sink.errs[0], apperr.KindUpstream))
	assert.Contains(t, sink.errs[0].Error(), "quota exceeded")
}

func TestChatStream_Non2xx(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"bad key"}}`)
	}, 1000)

	sink := &recordingSink{}
	client.ChatStream(context.Background(), []Message{User("hi")}, sink)

	assert.Empty(t, sink.chunks)
	assert.Zero(t, sink.completed)
	require.Len(t, sink.errs, 1)
	assert.Contains(t, sink.errs[0].Error(), "status 401")
}

func TestChatStream_IdleTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeFrames(w, `data: {"choices":[{"delta":{"content":"first"}}]}`)
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 150)

	sink := &recordingSink{}
	start := time.Now()
	client.ChatStream(context.Background(), []Message{User("hi")}, sink)

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, []string{"first"}, sink.chunks)
	require.Len(t, sink.errs, 1)
	assert.True(t, errors.Is(sink.errs[0], ErrIdleTimeout), sink.errs[0].Error())
}

func TestOnceSink_SingleTerminal(t *testing.T) {
	inner := &recordingSink{}
	s := once(inner)

	s.OnChunk("x")
	s.OnError(errors.New("first"))
	s.OnComplete()
	s.OnError(errors.New("second"))
	s.OnChunk("late")

	assert.Equal(t, []string{"x"}, inner.chunks)
	assert.Zero(t, inner.completed)
	require.Len(t, inner.errs, 1)
	assert.EqualError(t, inner.errs[0], "first")
	assert.True(t, s.finished())
	assert.Same(t, s, once(s))
}

func TestAnthropicParams_FoldsSystemAndMergesTurns(t *testing.T) {
	c := newAnthropicClient(config.AIConfig{Model: "claude-test", MaxTokens: 512, Temperature: 0.5}, http.DefaultClient, zap.NewNop())

	p := c.params([]Message{
		System("role"),
		System("document"),
		User("q1"),
		User("q2"),
		Assistant("a1"),
		User("q3"),
	})

	require.Len(t, p.System, 2)
	assert.Equal(t, "document", p.System[1].Text)
	require.Len(t, p.Messages, 3)
	assert.EqualValues(t, "user", p.Messages[0].Role)
	assert.Equal(t, "q1\n\nq2", p.Messages[0].Content[0].OfText.Text)
	assert.EqualValues(t, "assistant", p.Messages[1].Role)
	assert.EqualValues(t, 512, p.MaxTokens)
}

func TestNormalizeOpenAIBaseURL(t *testing.T) {
	assert.Equal(t, "https://api.example.com/v1", normalizeOpenAIBaseURL("https://api.example.com"))
	assert.Equal(t, "https://api.example.com/v1", normalizeOpenAIBaseURL("https://api.example.com/v1/"))
	assert.Equal(t, "", normalizeOpenAIBaseURL("  "))
	assert.True(t, strings.HasSuffix(normalizeOpenAIBaseURL("http://proxy:8080/openai"), "/openai/v1"))
}
