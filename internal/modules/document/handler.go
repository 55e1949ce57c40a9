package document

import (
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/docagent/server/internal/middleware"
	"github.com/docagent/server/internal/pkg/apperr"
	"github.com/docagent/server/internal/pkg/pagination"
	"github.com/docagent/server/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	svc    *Service
	logger *zap.Logger
}

func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger.Named("DocumentHandler")}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, mws ...gin.HandlerFunc) {
	g := rg.Group("/documents", mws...)
	g.POST("/upload", h.upload)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.GET("/:id/file", h.file)
}

// POST /documents/upload
func (h *Handler) upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	max := h.svc.MaxBytes()
	if max > 0 && fh.Size > max {
		response.Error(c, errTooLarge(max))
		return
	}

	f, err := fh.Open()
	if err != nil {
		h.fail(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()

	var r io.Reader = f
	if max > 0 {
		r = io.LimitReader(f, max+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		h.fail(c, fmt.Errorf("read upload: %w", err))
		return
	}

	doc, deduped, err := h.svc.Ingest(c.Request.Context(), data, fh.Filename, middleware.Owner(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	if deduped {
		response.OK(c, doc)
		return
	}
	response.Created(c, doc)
}

// GET /documents?page=&size=
func (h *Handler) list(c *gin.Context) {
	items, pag, err := h.svc.List(c.Request.Context(), middleware.Owner(c), pagination.FromContext(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Paged(c, items, pag)
}

// GET /documents/:id
func (h *Handler) get(c *gin.Context) {
	doc, err := h.svc.Get(c.Request.Context(), c.Param("id"), middleware.Owner(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, doc)
}

// GET /documents/:id/file
func (h *Handler) file(c *gin.Context) {
	rc, doc, err := h.svc.Open(c.Request.Context(), c.Param("id"), middleware.Owner(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", "inline; filename*=UTF-8''"+url.PathEscape(doc.FileName))
	c.DataFromReader(http.StatusOK, doc.FileSize, pdfContentType, rc, nil)
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindInternal, apperr.KindUpstream, apperr.KindExtraction:
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	response.Error(c, err)
}
