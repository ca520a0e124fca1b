package database

import (
	"context"
	"sort"

	"github.com/rpupo63/rpgm-blog/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepo struct {
	db *gorm.DB
}

func NewSettingRepo(db *gorm.DB) *SettingRepo {
	return &SettingRepo{db}
}

// FindByPath returns the properties of a settings node
func (r *SettingRepo) FindByPath(ctx context.Context, path string) (map[string]string, error) {
	var settings []models.Setting
	if err := r.db.WithContext(ctx).Where("path = ?", path).Find(&settings).Error; err != nil {
		return nil, err
	}

	values := make(map[string]string, len(settings))
	for _, s := range settings {
		values[s.Key] = s.Value
	}
	return values, nil
}

// Upsert writes all properties of a node in one transaction. Either every
// key is stored or none is.
func (r *SettingRepo) Upsert(ctx context.Context, path string, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	settings := make([]models.Setting, 0, len(keys))
	for _, k := range keys {
		settings = append(settings, models.Setting{Path: path, Key: k, Value: values[k]})
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "path"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).Create(&settings).Error
	})
}
