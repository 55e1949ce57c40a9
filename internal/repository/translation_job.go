package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/docagent/server/internal/models"
	"gorm.io/gorm"
)

type translationJobRepo struct {
	db *gorm.DB
}

func NewTranslationJobRepository(db *gorm.DB) TranslationJobRepository {
	return &translationJobRepo{db: db}
}

func (r *translationJobRepo) Create(ctx context.Context, job *models.TranslationJob) error {
	if !job.Status.Valid() || !job.Style.Valid() {
		return fmt.Errorf("create translation job: invalid status %q or style %q", job.Status, job.Style)
	}
	return translate(r.db.WithContext(ctx).Create(job).Error)
}

func (r *translationJobRepo) FindByID(ctx context.Context, id string) (*models.TranslationJob, error) {
	var job models.TranslationJob
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		return nil, translate(err)
	}
	return &job, nil
}

func (r *translationJobRepo) FindRunning(ctx context.Context, runningKey string) (*models.TranslationJob, error) {
	var job models.TranslationJob
	err := r.db.WithContext(ctx).
		Where("running_key = ? AND status = ?", runningKey, models.TranslationRunning).
		First(&job).Error
	if err != nil {
		return nil, translate(err)
	}
	return &job, nil
}

func (r *translationJobRepo) Latest(ctx context.Context, q JobQuery) (*models.TranslationJob, error) {
	tx := r.db.WithContext(ctx).Model(&models.TranslationJob{})
	if q.DocumentID != "" {
		tx = tx.Where("document_id = ?", q.DocumentID)
	}
	if q.TargetLang != "" {
		tx = tx.Where("target_lang = ?", q.TargetLang)
	}
	if q.Style != "" {
		tx = tx.Where("style = ?", q.Style)
	}
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}

	var job models.TranslationJob
	if err := tx.Order("created_at DESC").Order("id DESC").First(&job).Error; err != nil {
		return nil, translate(err)
	}
	return &job, nil
}

func (r *translationJobRepo) Complete(ctx context.Context, id, payload string) error {
	return r.transition(ctx, id, models.TranslationDone, map[string]any{"payload": payload})
}

func (r *translationJobRepo) Fail(ctx context.Context, id string) error {
	return r.transition(ctx, id, models.TranslationFailed, map[string]any{"payload": nil})
}

// transition moves a running job to the terminal status to and releases its
// running key. A job that already left Running yields ErrConflict.
func (r *translationJobRepo) transition(ctx context.Context, id string, to models.TranslationStatus, fields map[string]any) error {
	if !to.Terminal() {
		return fmt.Errorf("translation job %s: %q is not a terminal status", id, to)
	}
	fields["status"] = to
	fields["running_key"] = nil
	fields["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).
		Model(&models.TranslationJob{}).
		Where("id = ? AND status = ?", id, models.TranslationRunning).
		Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (r *translationJobRepo) FailStale(ctx context.Context, startedBefore time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.TranslationJob{}).
		Where("status = ? AND created_at < ?", models.TranslationRunning, startedBefore).
		Updates(map[string]any{
			"status":      models.TranslationFailed,
			"payload":     nil,
			"running_key": nil,
			"updated_at":  time.Now(),
		})
	return res.RowsAffected, translate(res.Error)
}
