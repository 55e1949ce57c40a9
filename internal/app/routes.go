package app

import (
	"github.com/docagent/server/internal/middleware"
	"github.com/docagent/server/internal/modules/chat"
	"github.com/docagent/server/internal/modules/document"
	"github.com/docagent/server/internal/modules/health"
	"github.com/docagent/server/internal/modules/translation"
	"github.com/docagent/server/internal/pkg/response"
	"github.com/docagent/server/internal/repository"
	"github.com/gin-gonic/gin"
)

const apiPrefix = "/api/v1"

type services struct {
	documents   *document.Service
	chat        *chat.Service
	translation *translation.Service
}

func (a *App) registerRoutes() services {
	r := a.router
	db := a.deps.DB
	logger := a.logger

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	docRepo := repository.NewDocumentRepository(db)
	msgRepo := repository.NewChatMessageRepository(db)
	jobRepo := repository.NewTranslationJobRepository(db)

	docSvc := document.NewService(docRepo, a.deps.Blobs, a.deps.Extractor, a.cfg.Upload.MaxBytes(), document.WithLogger(logger))
	builder := chat.NewContextBuilder(msgRepo, a.cfg.Chat.HistoryLimit, a.cfg.Chat.SummaryChars)
	chatSvc := chat.NewService(docSvc, msgRepo, builder, a.deps.AI, chat.WithLogger(logger))
	translationSvc := translation.NewService(docSvc, jobRepo, a.deps.AI, translation.WithLogger(logger))

	api := r.Group(apiPrefix)
	var pinger health.Pinger
	if a.deps.Redis != nil {
		pinger = a.deps.Redis
	}
	health.RegisterRoutes(api, db, pinger, a.sched, a.started)

	var limited []gin.HandlerFunc
	if a.cfg.RateLimit.Enabled && a.deps.Redis != nil {
		limited = append(limited, middleware.RateLimit(a.deps.Redis.Raw(), a.cfg.RateLimit.PerSecond))
	}
	uploads, chats := limited, limited
	if a.deps.Redis != nil {
		rdb := a.deps.Redis.Raw()
		uploads = append(append([]gin.HandlerFunc{}, limited...), middleware.Idempotence(rdb))
		// A repeated chat message is a new turn; only an explicit key deduplicates it.
		chats = append(append([]gin.HandlerFunc{}, limited...), middleware.Idempotence(rdb, middleware.HeaderOnly()))
	}

	document.NewHandler(docSvc, logger).RegisterRoutes(api, uploads...)
	chat.NewHandler(chatSvc, logger).RegisterRoutes(api, chats...)
	translation.NewHandler(translationSvc, logger).RegisterRoutes(api, limited...)

	return services{documents: docSvc, chat: chatSvc, translation: translationSvc}
}
