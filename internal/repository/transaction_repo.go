package repository

import (
	"context"
	"time"

	"royaltriangle/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

type TransactionFilter struct {
	Type   string
	Status string
	UserID uint
	Page
}

func (r *TransactionRepository) Create(ctx context.Context, t *models.Transaction) error {
	return wrap(r.db.WithContext(ctx).Create(t).Error, "create %s transaction", t.Type)
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uint) (*models.Transaction, error) {
	var t models.Transaction
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, wrap(err, "get transaction %d", id)
	}
	return &t, nil
}

// ListByUser returns the newest transactions of a user first.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]models.Transaction, error) {
	var list []models.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&list).Error
	return list, errors.Wrapf(err, "list transactions of user %d", userID)
}

func (r *TransactionRepository) List(ctx context.Context, f TransactionFilter) ([]models.Transaction, int64, error) {
	p := f.Page.Normalize()
	q := r.db.WithContext(ctx).Model(&models.Transaction{})
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count transactions")
	}
	var list []models.Transaction
	err := q.Preload("User").Order("created_at DESC, id DESC").Limit(p.Limit).Offset(p.Offset()).Find(&list).Error
	return list, total, errors.Wrap(err, "list transactions")
}

// Transition moves a transaction from one status to another only if it still
// holds the expected status. When settledAt is given the row must not have been
// settled before. It reports whether the row was updated.
func (r *TransactionRepository) Transition(ctx context.Context, id uint, from, to string, settledAt *time.Time) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("id = ? AND status = ?", id, from)
	updates := map[string]interface{}{"status": to}
	if settledAt != nil {
		q = q.Where("settled_at IS NULL")
		updates["settled_at"] = *settledAt
	}
	res := q.Updates(updates)
	if res.Error != nil {
		return false, errors.Wrapf(res.Error, "transition transaction %d to %s", id, to)
	}
	return res.RowsAffected == 1, nil
}

// SumByUser totals amounts of a user's transactions of one type and status.
func (r *TransactionRepository) SumByUser(ctx context.Context, userID uint, txType, status string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND type = ? AND status = ?", userID, txType, status).
		Row().
		Scan(&total)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "sum %s transactions of user %d", txType, userID)
	}
	return total, nil
}
