package repository

import (
	"context"
	"time"

	"royaltriangle/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(n).Error, "create notification")
}

func (r *NotificationRepository) ListByUserID(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	var list []models.Notification
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, errors.Wrap(err, "list notifications")
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID uint, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read_at", at)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "mark notification %d read", id)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
