// Package translation translates a document paragraph by paragraph and keeps
// the result as a cached job.
package translation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/docagent/server/internal/models"
	"github.com/docagent/server/internal/pkg/aiclient"
	"github.com/docagent/server/internal/pkg/apperr"
	"github.com/docagent/server/internal/repository"
	"go.uber.org/zap"
)

// DocumentResolver loads a document scoped to its owner.
type DocumentResolver interface {
	Get(ctx context.Context, id, owner string) (*models.Document, error)
}

type Service struct {
	docs   DocumentResolver
	jobs   repository.TranslationJobRepository
	ai     aiclient.Client
	logger *zap.Logger
}

type ServiceOption func(*Service)

func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l.Named("TranslationService")
		}
	}
}

func NewService(docs DocumentResolver, jobs repository.TranslationJobRepository, ai aiclient.Client, opts ...ServiceOption) *Service {
	s := &Service{docs: docs, jobs: jobs, ai: ai, logger: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start translates the document into targetLang and returns the finished job.
// A finished job for the same language and style is returned as is. When
// another caller is already translating the same key, its running job is
// returned instead.
func (s *Service) Start(ctx context.Context, documentID, targetLang, style, owner string) (*models.TranslationJob, error) {
	targetLang = strings.TrimSpace(targetLang)
	if targetLang == "" {
		return nil, apperr.Validation("targetLang is required")
	}
	st, err := models.ParseTranslationStyle(style)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}

	doc, err := s.docs.Get(ctx, documentID, owner)
	if err != nil {
		return nil, err
	}

	if cached, err := s.cached(ctx, doc.ID, targetLang, st); err != nil || cached != nil {
		return cached, err
	}

	key := models.RunningKeyFor(doc.ID, targetLang, st)
	job := &models.TranslationJob{
		DocumentID: doc.ID,
		SourceLang: models.SourceLangAuto,
		TargetLang: targetLang,
		Style:      st,
		Status:     models.TranslationRunning,
		RunningKey: &key,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return s.inFlight(ctx, doc.ID, targetLang, st, key)
		}
		return nil, apperr.Internal(fmt.Errorf("create translation job: %w", err))
	}

	s.logger.Info("translation started",
		zap.String("job", job.ID),
		zap.String("document", doc.ID),
		zap.String("target", targetLang),
		zap.String("style", string(st)))

	payload, err := s.translate(ctx, job, doc.Text)
	if err != nil {
		s.fail(ctx, job, err)
		if apperr.KindOf(err) != apperr.KindUpstream {
			err = apperr.Internal(err)
		}
		return nil, err
	}

	if err := s.jobs.Complete(context.WithoutCancel(ctx), job.ID, payload); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// The stale sweeper failed the job while it was running.
			return nil, apperr.Internal(fmt.Errorf("complete translation job %s: job is no longer running", job.ID))
		}
		s.fail(ctx, job, err)
		return nil, apperr.Internal(fmt.Errorf("complete translation job: %w", err))
	}

	job.Status = models.TranslationDone
	job.Payload = &payload
	job.RunningKey = nil
	s.logger.Info("translation done", zap.String("job", job.ID))
	return job, nil
}

// cached returns the latest done job for the key, or nil when there is none.
func (s *Service) cached(ctx context.Context, documentID, targetLang string, style models.TranslationStyle) (*models.TranslationJob, error) {
	latest, err := s.jobs.Latest(ctx, repository.JobQuery{DocumentID: documentID, TargetLang: targetLang, Style: style})
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, apperr.Internal(fmt.Errorf("find latest translation: %w", err))
	}
	if latest.Status == models.TranslationDone {
		s.logger.Debug("translation cache hit", zap.String("job", latest.ID))
		return latest, nil
	}
	return nil, nil
}

// inFlight resolves a lost insert race to the job holding key. If that job
// finished in between, its result is returned from the cache.
func (s *Service) inFlight(ctx context.Context, documentID, targetLang string, style models.TranslationStyle, key string) (*models.TranslationJob, error) {
	running, err := s.jobs.FindRunning(ctx, key)
	if err == nil {
		return running, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Internal(fmt.Errorf("find running translation: %w", err))
	}
	cached, err := s.cached(ctx, documentID, targetLang, style)
	if err != nil {
		return nil, err
	}
	if cached == nil {
		return nil, apperr.Internal(fmt.Errorf("translation %s ended without result", key))
	}
	return cached, nil
}

// translate runs the segments strictly in order and stops at the first failure.
func (s *Service) translate(ctx context.Context, job *models.TranslationJob, text string) (string, error) {
	segments := SplitSegments(text)
	s.logger.Debug("translation segments", zap.String("job", job.ID), zap.Int("count", len(segments)))

	out := make([]models.Segment, 0, len(segments))
	for i, seg := range segments {
		translated, err := s.ai.Chat(ctx, translateMessages(seg, job.SourceLang, job.TargetLang, job.Style))
		if err != nil {
			return "", apperr.Upstream(fmt.Errorf("segment %d: %w", i, err))
		}
		out = append(out, models.Segment{Index: i, Original: seg, Translated: translated})
	}

	payload, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode translation payload: %w", err)
	}
	return string(payload), nil
}

// fail moves the job to failed even when the request was cancelled.
func (s *Service) fail(ctx context.Context, job *models.TranslationJob, cause error) {
	s.logger.Warn("translation failed", zap.String("job", job.ID), zap.Error(cause))
	if err := s.jobs.Fail(context.WithoutCancel(ctx), job.ID); err != nil {
		s.logger.Error("mark translation failed", zap.String("job", job.ID), zap.Error(err))
		return
	}
	job.Status = models.TranslationFailed
	job.Payload = nil
	job.RunningKey = nil
}

// Get returns a job whose document belongs to owner.
func (s *Service) Get(ctx context.Context, jobID, owner string) (*models.TranslationJob, error) {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("translation not found")
		}
		return nil, apperr.Internal(fmt.Errorf("find translation: %w", err))
	}
	if _, err := s.docs.Get(ctx, job.DocumentID, owner); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.NotFound("translation not found")
		}
		return nil, err
	}
	return job, nil
}

// Latest returns the newest job of any style for the document and language.
func (s *Service) Latest(ctx context.Context, documentID, targetLang, owner string) (*models.TranslationJob, error) {
	if strings.TrimSpace(targetLang) == "" {
		return nil, apperr.Validation("targetLang is required")
	}
	if _, err := s.docs.Get(ctx, documentID, owner); err != nil {
		return nil, err
	}
	job, err := s.jobs.Latest(ctx, repository.JobQuery{DocumentID: documentID, TargetLang: strings.TrimSpace(targetLang)})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("translation not found")
		}
		return nil, apperr.Internal(fmt.Errorf("find latest translation: %w", err))
	}
	return job, nil
}

// FailStale fails running jobs older than maxAge so their key can be reused.
func (s *Service) FailStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	n, err := s.jobs.FailStale(ctx, time.Now().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("fail stale translations: %w", err)
	}
	if n > 0 {
		s.logger.Warn("stale translations failed", zap.Int64("count", n), zap.Duration("max_age", maxAge))
	}
	return n, nil
}
