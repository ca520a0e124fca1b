package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/rpupo63/rpgm-blog/models"
	"gorm.io/gorm"
)

type CommentRepo struct {
	db *gorm.DB
}

func NewCommentRepo(db *gorm.DB) *CommentRepo {
	return &CommentRepo{db}
}

// FindDisplayedUnder returns displayed comments below root, newest first
func (r *CommentRepo) FindDisplayedUnder(ctx context.Context, root string) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Where("display = ? AND path LIKE ?", true, root+"/%").
		Order("created_at DESC").
		Order("path ASC").
		Find(&comments).Error
	return comments, err
}

// FindByPost returns all comments of a post, oldest first
func (r *CommentRepo) FindByPost(ctx context.Context, postPath string) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Where("post_path = ?", postPath).
		Order("created_at ASC").
		Order("path ASC").
		Find(&comments).Error
	return comments, err
}

// FindByID returns a comment by its ID, or nil when it does not exist
func (r *CommentRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).First(&comment, "id = ?", id).Error
	if err != nil {
		return nil, notFoundAsNil(err)
	}
	return &comment, nil
}

// FindByName returns the comment of a post with the given node name, or nil
func (r *CommentRepo) FindByName(ctx context.Context, postPath, name string) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).
		Where("post_path = ? AND name = ?", postPath, name).
		First(&comment).Error
	if err != nil {
		return nil, notFoundAsNil(err)
	}
	return &comment, nil
}

// Add inserts a new comment into the database
func (r *CommentRepo) Add(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// Update sets the given columns on one comment and reports whether it existed
func (r *CommentRepo) Update(ctx context.Context, id uuid.UUID, fields map[string]any) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CountChildren counts the comments stored directly below parentPath
func (r *CommentRepo) CountChildren(ctx context.Context, parentPath string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Comment{}).Where("parent_path = ?", parentPath).Count(&count).Error
	return count, err
}
