package database

import (
	"context"

	"github.com/rpupo63/rpgm-blog/models"
	"gorm.io/gorm"
)

type AccessRepo struct {
	db *gorm.DB
}

func NewAccessRepo(db *gorm.DB) *AccessRepo {
	return &AccessRepo{db}
}

// Transaction runs fn against a repo bound to one transaction.
func (r *AccessRepo) Transaction(ctx context.Context, fn func(repo *AccessRepo) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewAccessRepo(tx))
	})
}

// EnsureGroup creates the group when no group with that ID exists and
// reports whether it did.
func (r *AccessRepo) EnsureGroup(ctx context.Context, group *models.UserGroup) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", group.ID).FirstOrCreate(group)
	return result.RowsAffected > 0, result.Error
}

func (r *AccessRepo) FindGroups(ctx context.Context) ([]models.UserGroup, error) {
	var groups []models.UserGroup
	err := r.db.WithContext(ctx).Order("id ASC").Find(&groups).Error
	return groups, err
}

// ClearEntries removes every entry attached to path
func (r *AccessRepo) ClearEntries(ctx context.Context, path string) error {
	return r.db.WithContext(ctx).Where("path = ?", path).Delete(&models.AccessControlEntry{}).Error
}

func (r *AccessRepo) AddEntries(ctx context.Context, entries []models.AccessControlEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

// FindEntries returns all entries ordered by path and position
func (r *AccessRepo) FindEntries(ctx context.Context) ([]models.AccessControlEntry, error) {
	var entries []models.AccessControlEntry
	err := r.db.WithContext(ctx).Order("path ASC").Order("position ASC").Find(&entries).Error
	return entries, err
}
