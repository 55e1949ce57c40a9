package translation

import (
	"github.com/docagent/server/internal/middleware"
	"github.com/docagent/server/internal/models"
	"github.com/docagent/server/internal/pkg/apperr"
	"github.com/docagent/server/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type StartTranslationDTO struct {
	DocumentID string `json:"documentId" binding:"required"`
	TargetLang string `json:"targetLang"`
	Style      string `json:"style"`
}

type jobResponse struct {
	*models.TranslationJob
	Segments []models.Segment `json:"segments"`
}

type Handler struct {
	svc    *Service
	logger *zap.Logger
}

func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger.Named("TranslationHandler")}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, mws ...gin.HandlerFunc) {
	g := rg.Group("/translations", mws...)
	g.POST("", h.start)
	g.GET("/latest", h.latest)
	g.GET("/:id", h.get)
}

// POST /translations
func (h *Handler) start(c *gin.Context) {
	var dto StartTranslationDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "documentId is required")
		return
	}
	job, err := h.svc.Start(c.Request.Context(), dto.DocumentID, dto.TargetLang, dto.Style, middleware.Owner(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	out, err := toResponse(job)
	if err != nil {
		h.fail(c, err)
		return
	}
	// Start finishes its own jobs; a running job belongs to another caller.
	if job.Status == models.TranslationRunning {
		response.Accepted(c, out)
		return
	}
	response.OK(c, out)
}

// GET /translations/latest?documentId=&targetLang=
func (h *Handler) latest(c *gin.Context) {
	job, err := h.svc.Latest(c.Request.Context(), c.Query("documentId"), c.Query("targetLang"), middleware.Owner(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, job)
}

// GET /translations/:id
func (h *Handler) get(c *gin.Context) {
	job, err := h.svc.Get(c.Request.Context(), c.Param("id"), middleware.Owner(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, job)
}

func (h *Handler) respond(c *gin.Context, job *models.TranslationJob) {
	out, err := toResponse(job)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, out)
}

func toResponse(job *models.TranslationJob) (jobResponse, error) {
	segments, err := job.Segments()
	if err != nil {
		return jobResponse{}, apperr.Internal(err)
	}
	if segments == nil {
		segments = []models.Segment{}
	}
	return jobResponse{TranslationJob: job, Segments: segments}, nil
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindInternal, apperr.KindUpstream:
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	response.Error(c, err)
}
