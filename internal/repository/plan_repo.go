package repository

import (
	"context"

	"royaltriangle/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) GetByName(ctx context.Context, name string) (*models.Plan, error) {
	var p models.Plan
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&p).Error; err != nil {
		return nil, wrap(err, "get plan %s", name)
	}
	return &p, nil
}

func (r *PlanRepository) List(ctx context.Context) ([]models.Plan, error) {
	var list []models.Plan
	err := r.db.WithContext(ctx).Order("price DESC").Find(&list).Error
	return list, errors.Wrap(err, "list plans")
}

// Upsert creates the plan or overwrites its price and payout.
func (r *PlanRepository) Upsert(ctx context.Context, p *models.Plan) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "payout", "updated_at"}),
	}).Create(p).Error
	return errors.Wrapf(err, "upsert plan %s", p.Name)
}
