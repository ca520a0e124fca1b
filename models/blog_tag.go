package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BlogTag is one keyword of a blog post.
type BlogTag struct {
	ID         uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	BlogPostID uuid.UUID `json:"blogPostId" db:"blog_post_id" gorm:"type:uuid;not null;index:idx_blog_tag_blog_post_id;uniqueIndex:idx_blog_tag_unique"`
	Value      string    `json:"value" db:"value" gorm:"type:text;not null;uniqueIndex:idx_blog_tag_unique"`
	Position   int       `json:"-" db:"position" gorm:"type:integer;not null;default:0"`
}

func (t *BlogTag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
