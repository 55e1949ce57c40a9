package repository

import (
	"context"
	"fmt"

	"github.com/docagent/server/internal/models"
	"github.com/docagent/server/internal/pkg/pagination"
	"github.com/docagent/server/internal/pkg/response"
	"gorm.io/gorm"
)

type documentRepo struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) FindReadyByDigest(ctx context.Context, owner, digest string) (*models.Document, error) {
	var doc models.Document
	err := r.db.WithContext(ctx).
		Where("owner = ? AND digest = ? AND status = ?", owner, digest, models.DocumentReady).
		First(&doc).Error
	if err != nil {
		return nil, translate(err)
	}
	return &doc, nil
}

func (r *documentRepo) FindByIDAndOwner(ctx context.Context, id, owner string) (*models.Document, error) {
	var doc models.Document
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner = ?", id, owner).
		First(&doc).Error
	if err != nil {
		return nil, translate(err)
	}
	return &doc, nil
}

func (r *documentRepo) Create(ctx context.Context, doc *models.Document) error {
	if !doc.Status.Valid() {
		return fmt.Errorf("create document: invalid status %q", doc.Status)
	}
	return translate(r.db.WithContext(ctx).Create(doc).Error)
}

func (r *documentRepo) ListReady(ctx context.Context, owner string, q pagination.Query) ([]models.Document, response.Pagination, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Document{}).
		Omit("text").
		Where("owner = ? AND status = ?", owner, models.DocumentReady).
		Order("created_at DESC").
		Session(&gorm.Session{})

	var docs []models.Document
	pag, err := pagination.Paginate(query, q, &docs)
	if err != nil {
		return nil, response.Pagination{}, fmt.Errorf("list documents: %w", err)
	}
	return docs, pag, nil
}
