package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/docagent/server/internal/config"
	"github.com/docagent/server/internal/database"
	"github.com/docagent/server/internal/middleware"
	"github.com/docagent/server/internal/pkg/aiclient"
	"github.com/docagent/server/internal/pkg/blob"
	pkgcron "github.com/docagent/server/internal/pkg/cron"
	"github.com/docagent/server/internal/pkg/pdftext"
	pkgredis "github.com/docagent/server/internal/pkg/redis"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the external collaborators of the server.
type Deps struct {
	DB        *gorm.DB
	Redis     *pkgredis.Client
	Blobs     blob.Store
	Extractor pdftext.Extractor
	AI        aiclient.Client
}

// App holds all application dependencies.
type App struct {
	cfg     *config.AppConfig
	router  *gin.Engine
	deps    Deps
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	sched   *pkgcron.Scheduler
	started time.Time
}

// New connects every backing service described by cfg and builds the app.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	loc, err := applyTimezone(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	rc, err := pkgredis.Connect(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	blobs, err := blob.New(ctx, cfg.Storage, cfg.UploadDir(), logger)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	extractor, err := pdftext.New(cfg.Extraction)
	if err != nil {
		return nil, fmt.Errorf("extraction: %w", err)
	}

	ai, err := aiclient.New(cfg.AI, logger)
	if err != nil {
		return nil, fmt.Errorf("ai client: %w", err)
	}

	logger.Info("backends ready",
		zap.String("timezone", loc.String()),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("extraction", cfg.Extraction.Engine),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("ai_model", cfg.AI.Model))

	return NewWithDeps(logger, cfg, Deps{DB: db, Redis: rc, Blobs: blobs, Extractor: extractor, AI: ai}), nil
}

// NewWithDeps builds the router and background jobs on top of ready deps.
func NewWithDeps(logger *zap.Logger, cfg *config.AppConfig, deps Deps) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.MaxMultipartMemory = 8 << 20
	router.Use(gin.Recovery())
	router.Use(newCORS(cfg))
	router.Use(middleware.Session(cfg.Session))
	router.Use(middleware.Logger(logger))

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		cfg:     cfg,
		router:  router,
		deps:    deps,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		sched:   pkgcron.New(logger),
		started: time.Now(),
	}
	services := a.registerRoutes()
	registerCronJobs(a.sched, services.translation, cfg.Translation)
	return a
}

// Start launches the background jobs.
func (a *App) Start() { a.sched.Start(a.ctx) }

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops background jobs and closes the stores.
func (a *App) Shutdown() {
	a.cancel()
	a.sched.Wait()
	if a.deps.Redis != nil {
		if err := a.deps.Redis.Close(); err != nil {
			a.logger.Warn("close redis", zap.Error(err))
		}
	}
	if a.deps.DB != nil {
		if sqlDB, err := a.deps.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
