package database

import (
	"context"

	"github.com/rpupo63/rpgm-blog/models"
	"gorm.io/gorm"
)

type AssetRepo struct {
	db *gorm.DB
}

func NewAssetRepo(db *gorm.DB) *AssetRepo {
	return &AssetRepo{db}
}

// FindByPath returns the asset stored at path, or nil
func (r *AssetRepo) FindByPath(ctx context.Context, path string) (*models.Asset, error) {
	var asset models.Asset
	err := r.db.WithContext(ctx).Where("path = ?", path).First(&asset).Error
	if err != nil {
		return nil, notFoundAsNil(err)
	}
	return &asset, nil
}

// FindByParent lists the assets directly below parentPath without their bytes
func (r *AssetRepo) FindByParent(ctx context.Context, parentPath string) ([]models.Asset, error) {
	var assets []models.Asset
	err := r.db.WithContext(ctx).
		Omit("data").
		Where("parent_path = ?", parentPath).
		Order("name ASC").
		Find(&assets).Error
	return assets, err
}

// Replace deletes any asset at the same path and stores asset in its place
func (r *AssetRepo) Replace(ctx context.Context, asset *models.Asset) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("path = ?", asset.Path).Delete(&models.Asset{}).Error; err != nil {
			return err
		}
		return tx.Create(asset).Error
	})
}
