package chat

import (
	"bufio"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/docagent/server/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(svc *Service, owner string) *gin.Engine {
	r := gin.New()
	NewHandler(svc, nil).RegisterRoutes(r.Group("/api/v1"), middleware.WithOwner(owner))
	return r
}

func readEvents(t *testing.T, body string) []streamEvent {
	t.Helper()
	var out []streamEvent
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev streamEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		out = append(out, ev)
	}
	return out
}

func TestHandler_Send(t *testing.T) {
	f := newFixture("text")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/send", strings.NewReader(`{"documentId":"doc-1","message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")

	newTestRouter(f.svc, "alice").ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"reply":"It is about testing."}`, w.Body.String())
}

func TestHandler_SendUpstreamFailureIs502(t *testing.T) {
	f := newFixture("text")
	f.ai.err = errors.New("status 500: boom")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/send", strings.NewReader(`{"documentId":"doc-1","message":"hi"}`))

	newTestRouter(f.svc, "alice").ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestHandler_StreamFrames(t *testing.T) {
	f := newFixture("text")
	f.ai.chunks = []string{"Hel", "lo"}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/stream", strings.NewReader(`{"documentId":"doc-1","message":"hi"}`))

	newTestRouter(f.svc, "alice").ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))
	assert.Equal(t, []streamEvent{
		{Type: "token", Data: "Hel"},
		{Type: "token", Data: "lo"},
		{Type: "done", Data: ""},
	}, readEvents(t, w.Body.String()))
}

func TestHandler_StreamErrorFrame(t *testing.T) {
	f := newFixture("text")
	f.ai.err = errors.New("reset")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/stream", strings.NewReader(`{"documentId":"doc-1","message":"hi"}`))

	newTestRouter(f.svc, "alice").ServeHTTP(w, req)

	assert.Equal(t, []streamEvent{{Type: "error", Data: "AI service error"}}, readEvents(t, w.Body.String()))
}

func TestHandler_StreamPreconditionIsPlainError(t *testing.T) {
	f := newFixture("text")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/stream", strings.NewReader(`{"documentId":"doc-1","message":"hi"}`))

	newTestRouter(f.svc, "mallory").ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
}

func TestHandler_HistoryAndClear(t *testing.T) {
	f := newFixture("text")
	f.seed(3)
	r := newTestRouter(f.svc, "alice")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/chat/history?documentId=doc-1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data, 3)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/chat/history?documentId=doc-1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted":3}`, w.Body.String())
}
