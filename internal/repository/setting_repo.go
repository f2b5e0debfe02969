package repository

import (
	"context"

	"royaltriangle/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// keyColumn lets the dialect quote the reserved word "key".
var keyColumn = clause.Column{Name: "key"}

// GetMany returns the stored values for keys; absent keys are omitted.
func (r *SettingRepository) GetMany(ctx context.Context, keys []string) (map[string]string, error) {
	values := make([]interface{}, len(keys))
	for i, k := range keys {
		values[i] = k
	}
	var list []models.SystemSetting
	err := r.db.WithContext(ctx).Where(clause.IN{Column: keyColumn, Values: values}).Find(&list).Error
	if err != nil {
		return nil, errors.Wrap(err, "get settings")
	}
	out := make(map[string]string, len(list))
	for _, s := range list {
		out[s.Key] = s.Value
	}
	return out, nil
}

func (r *SettingRepository) Set(ctx context.Context, key, value string) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{keyColumn},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&models.SystemSetting{Key: key, Value: value}).Error
	return errors.Wrapf(err, "set setting %s", key)
}

// SeedDefaults inserts default settings if they don't already exist.
func (r *SettingRepository) SeedDefaults(ctx context.Context, defaults map[string]string) error {
	for k, v := range defaults {
		err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.SystemSetting{Key: k, Value: v}).Error
		if err != nil {
			return errors.Wrapf(err, "seed setting %s", k)
		}
	}
	return nil
}
