package repository

import (
	"context"
	"fmt"

	"github.com/docagent/server/internal/models"
	"gorm.io/gorm"
)

type chatMessageRepo struct {
	db *gorm.DB
}

func NewChatMessageRepository(db *gorm.DB) ChatMessageRepository {
	return &chatMessageRepo{db: db}
}

func (r *chatMessageRepo) Create(ctx context.Context, msg *models.ChatMessage) error {
	if !msg.Role.Valid() {
		return fmt.Errorf("create chat message: invalid role %q", msg.Role)
	}
	return translate(r.db.WithContext(ctx).Create(msg).Error)
}

func (r *chatMessageRepo) Recent(ctx context.Context, documentID, owner string, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		return nil, nil
	}
	var out []models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("document_id = ? AND owner = ?", documentID, owner).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	return out, translate(err)
}

func (r *chatMessageRepo) List(ctx context.Context, documentID, owner string) ([]models.ChatMessage, error) {
	var out []models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("document_id = ? AND owner = ?", documentID, owner).
		Order("created_at ASC").
		Order("id ASC").
		Find(&out).Error
	return out, translate(err)
}

func (r *chatMessageRepo) DeleteAll(ctx context.Context, documentID, owner string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("document_id = ? AND owner = ?", documentID, owner).
		Delete(&models.ChatMessage{})
	return res.RowsAffected, translate(res.Error)
}
