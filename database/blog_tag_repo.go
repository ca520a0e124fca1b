package database

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rpupo63/rpgm-blog/models"
	"gorm.io/gorm"
)

type BlogTagRepo struct {
	db *gorm.DB
}

func NewBlogTagRepo(db *gorm.DB) *BlogTagRepo {
	return &BlogTagRepo{db}
}

// FindByPost returns the keywords of a post in stored order
func (r *BlogTagRepo) FindByPost(ctx context.Context, blogPostID uuid.UUID) ([]models.BlogTag, error) {
	var blogTags []models.BlogTag
	err := r.db.WithContext(ctx).
		Where("blog_post_id = ?", blogPostID).
		Order("position ASC").
		Find(&blogTags).Error
	return blogTags, err
}

// Replace drops the post's keywords and stores values instead. Blank and
// repeated values are skipped.
func (r *BlogTagRepo) Replace(ctx context.Context, blogPostID uuid.UUID, values []string) ([]models.BlogTag, error) {
	db := r.db.WithContext(ctx)
	if err := db.Where("blog_post_id = ?", blogPostID).Delete(&models.BlogTag{}).Error; err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(values))
	tags := make([]models.BlogTag, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" || seen[value] {
			continue
		}
		seen[value] = true
		tags = append(tags, models.BlogTag{BlogPostID: blogPostID, Value: value, Position: len(tags)})
	}

	if len(tags) == 0 {
		return tags, nil
	}
	if err := db.Create(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}
