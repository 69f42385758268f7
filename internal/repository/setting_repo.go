package repository

import (
	"context"
	"time"

	"treasuryroi/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

type settingModel struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value;type:text"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (settingModel) TableName() string { return "settings" }

func (r *SettingRepository) Get(ctx context.Context, key string) (*domain.Setting, error) {
	var m settingModel
	tx := r.db.WithContext(ctx).Where("key = ?", key).First(&m)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &domain.Setting{Key: m.Key, Value: m.Value, UpdatedAt: m.UpdatedAt}, nil
}

func (r *SettingRepository) GetAll(ctx context.Context) ([]domain.Setting, error) {
	var models []settingModel
	if err := r.db.WithContext(ctx).Order("key ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Setting, 0, len(models))
	for _, m := range models {
		out = append(out, domain.Setting{Key: m.Key, Value: m.Value, UpdatedAt: m.UpdatedAt})
	}
	return out, nil
}

// Set upserts a single key.
func (r *SettingRepository) Set(ctx context.Context, key, value string) error {
	m := settingModel{Key: key, Value: value, UpdatedAt: time.Now()}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&m).Error
}
