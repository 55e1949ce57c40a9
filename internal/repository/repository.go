// Package repository holds the narrow record stores used by the services.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/docagent/server/internal/models"
	"github.com/docagent/server/internal/pkg/pagination"
	"github.com/docagent/server/internal/pkg/response"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrConflict is returned when a compare-and-set update matched no row.
	ErrConflict = errors.New("record state changed")
)

type DocumentRepository interface {
	FindReadyByDigest(ctx context.Context, owner, digest string) (*models.Document, error)
	FindByIDAndOwner(ctx context.Context, id, owner string) (*models.Document, error)
	Create(ctx context.Context, doc *models.Document) error
	ListReady(ctx context.Context, owner string, q pagination.Query) ([]models.Document, response.Pagination, error)
}

type ChatMessageRepository interface {
	Create(ctx context.Context, msg *models.ChatMessage) error
	// Recent returns up to limit messages, newest first.
	Recent(ctx context.Context, documentID, owner string, limit int) ([]models.ChatMessage, error)
	// List returns every message in chronological order.
	List(ctx context.Context, documentID, owner string) ([]models.ChatMessage, error)
	DeleteAll(ctx context.Context, documentID, owner string) (int64, error)
}

// JobQuery filters translation jobs. Empty fields are ignored.
type JobQuery struct {
	DocumentID string
	TargetLang string
	Style      models.TranslationStyle
	Status     models.TranslationStatus
}

type TranslationJobRepository interface {
	// Create returns ErrDuplicate when a running job already holds the same running key.
	Create(ctx context.Context, job *models.TranslationJob) error
	FindByID(ctx context.Context, id string) (*models.TranslationJob, error)
	FindRunning(ctx context.Context, runningKey string) (*models.TranslationJob, error)
	Latest(ctx context.Context, q JobQuery) (*models.TranslationJob, error)
	// Complete and Fail only move a running job; otherwise they return ErrConflict.
	Complete(ctx context.Context, id, payload string) error
	Fail(ctx context.Context, id string) error
	FailStale(ctx context.Context, startedBefore time.Time) (int64, error)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}
