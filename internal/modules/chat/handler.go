package chat

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/docagent/server/internal/middleware"
	"github.com/docagent/server/internal/pkg/apperr"
	"github.com/docagent/server/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SendMessageDTO struct {
	DocumentID   string `json:"documentId"   binding:"required"`
	Message      string `json:"message"`
	SelectedText string `json:"selectedText"`
}

type Handler struct {
	svc    *Service
	logger *zap.Logger
}

func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger.Named("ChatHandler")}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, mws ...gin.HandlerFunc) {
	g := rg.Group("/chat", mws...)
	g.POST("/send", h.send)
	g.POST("/stream", h.stream)
	g.GET("/history", h.history)
	g.DELETE("/history", h.clear)
}

// POST /chat/send
func (h *Handler) send(c *gin.Context) {
	var dto SendMessageDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "documentId is required")
		return
	}
	reply, err := h.svc.SendMessage(c.Request.Context(), dto.DocumentID, dto.Message, dto.SelectedText, middleware.Owner(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{"reply": reply})
}

type streamEvent struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// sseWriter serializes frames onto the response and flushes each one. The
// event-stream headers go out with the first frame, so precondition
// failures can still answer with a plain error envelope.
type sseWriter struct {
	mu      sync.Mutex
	c       *gin.Context
	started bool
}

func (w *sseWriter) send(typ, data string) {
	payload, _ := json.Marshal(streamEvent{Type: typ, Data: data})
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		w.started = true
		w.c.Header("Content-Type", "text/event-stream")
		w.c.Header("Cache-Control", "no-cache")
		w.c.Header("Connection", "keep-alive")
		w.c.Header("X-Accel-Buffering", "no")
		w.c.Status(http.StatusOK)
	}
	fmt.Fprintf(w.c.Writer, "data: %s\n\n", payload)
	w.c.Writer.Flush()
}

func (w *sseWriter) OnChunk(text string) { w.send("token", text) }
func (w *sseWriter) OnComplete() { w.send("done", "") }
func (w *sseWriter) OnError(err error) {
	middleware.MarkFailed(w.c)
	w.send("error", apperr.PublicMessage(err))
}

// POST /chat/stream
func (h *Handler) stream(c *gin.Context) {
	var dto SendMessageDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "documentId is required")
		return
	}
	err := h.svc.StreamMessage(c.Request.Context(), dto.DocumentID, dto.Message, dto.SelectedText, middleware.Owner(c), &sseWriter{c: c})
	if err != nil {
		h.fail(c, err)
	}
}

// GET /chat/history?documentId=
func (h *Handler) history(c *gin.Context) {
	items, err := h.svc.History(c.Request.Context(), c.Query("documentId"), middleware.Owner(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, items)
}

// DELETE /chat/history?documentId=
func (h *Handler) clear(c *gin.Context) {
	n, err := h.svc.Clear(c.Request.Context(), c.Query("documentId"), middleware.Owner(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": n})
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindInternal, apperr.KindUpstream:
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	response.Error(c, err)
}
