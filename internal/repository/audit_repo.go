package repository

import (
	"context"

	"royaltriangle/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Create(ctx context.Context, log *models.AuditLog) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(log).Error, "create audit log")
}
