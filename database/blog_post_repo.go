package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/rpupo63/rpgm-blog/models"
	"gorm.io/gorm"
)

type BlogPostRepo struct {
	db *gorm.DB
}

func NewBlogPostRepo(db *gorm.DB) *BlogPostRepo {
	return &BlogPostRepo{db}
}

func (r *BlogPostRepo) newest(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("created_at DESC").
		Order("path ASC")
}

// FindAll returns every post, newest first, regardless of visibility
func (r *BlogPostRepo) FindAll(ctx context.Context) ([]*models.BlogPost, error) {
	var blogPosts []*models.BlogPost
	err := r.newest(ctx).Find(&blogPosts).Error
	return blogPosts, err
}

// FindPublished returns visible posts newest first. A limit of 0 means no limit.
func (r *BlogPostRepo) FindPublished(ctx context.Context, offset, limit int) ([]*models.BlogPost, error) {
	if offset < 0 {
		offset = 0
	}

	query := r.newest(ctx).Where("visible = ?", true).Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}

	var blogPosts []*models.BlogPost
	err := query.Find(&blogPosts).Error
	return blogPosts, err
}

func (r *BlogPostRepo) CountPublished(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.BlogPost{}).Where("visible = ?", true).Count(&count).Error
	return count, err
}

// FindByID returns a blog post by its ID, or nil when it does not exist
func (r *BlogPostRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.BlogPost, error) {
	var blogPost models.BlogPost
	err := r.db.WithContext(ctx).Preload("Tags").First(&blogPost, "id = ?", id).Error
	if err != nil {
		return nil, notFoundAsNil(err)
	}
	return &blogPost, nil
}

// FindByPath returns the post stored at path, or nil
func (r *BlogPostRepo) FindByPath(ctx context.Context, path string) (*models.BlogPost, error) {
	var blogPost models.BlogPost
	err := r.db.WithContext(ctx).
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("path = ?", path).
		First(&blogPost).Error
	if err != nil {
		return nil, notFoundAsNil(err)
	}
	return &blogPost, nil
}

// Save inserts or updates the post and replaces its keywords in one transaction
func (r *BlogPostRepo) Save(ctx context.Context, blogPost *models.BlogPost, keywords []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		blogPost.Tags = nil
		if err := tx.Omit("Tags").Save(blogPost).Error; err != nil {
			return err
		}

		tags, err := NewBlogTagRepo(tx).Replace(ctx, blogPost.ID, keywords)
		if err != nil {
			return err
		}
		blogPost.Tags = tags
		return nil
	})
}
