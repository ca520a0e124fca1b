package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/rpupo63/rpgm-blog/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db}
}

// FindByID returns a user by its ID, or nil when it does not exist
func (r *UserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, notFoundAsNil(err)
	}
	return &user, nil
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, notFoundAsNil(err)
	}
	return &user, nil
}

// Add inserts a new user into the database
func (r *UserRepo) Add(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// AddMember puts the user in the group. Existing memberships are left alone.
func (r *UserRepo) AddMember(ctx context.Context, groupID string, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.GroupMember{GroupID: groupID, UserID: userID}).Error
}

func (r *UserRepo) IsMember(ctx context.Context, groupID string, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	return count > 0, err
}

// FindAll returns every user ordered by username
func (r *UserRepo) FindAll(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Order("username ASC").Find(&users).Error
	return users, err
}

func (r *UserRepo) FindMemberships(ctx context.Context) ([]models.GroupMember, error) {
	var members []models.GroupMember
	err := r.db.WithContext(ctx).Order("group_id ASC").Find(&members).Error
	return members, err
}

func (r *UserRepo) GroupExists(ctx context.Context, groupID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserGroup{}).Where("id = ?", groupID).Count(&count).Error
	return count > 0, err
}

// RemoveMember takes the user out of the group and reports whether they were in it.
func (r *UserRepo) RemoveMember(ctx context.Context, groupID string, userID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMember{})
	return result.RowsAffected > 0, result.Error
}
