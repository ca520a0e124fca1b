package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BlogPost is a post stored under /blog/{year}/{month}/{slug}. Path is the
// post's identity in URLs and in the mirrored comments tree.
type BlogPost struct {
	ID          uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	Path        string    `json:"path" db:"path" gorm:"type:text;not null;uniqueIndex"`
	Slug        string    `json:"url" db:"slug" gorm:"type:text;not null"`
	Title       string    `json:"title" db:"title" gorm:"type:text;not null"`
	Description string    `json:"description" db:"description" gorm:"type:text"`
	Content     string    `json:"content" db:"content" gorm:"type:text"`
	Image       string    `json:"image,omitempty" db:"image" gorm:"type:text"`
	Month       int       `json:"month" db:"month" gorm:"type:integer;not null"`
	Year        int       `json:"year" db:"year" gorm:"type:integer;not null"`
	Visible     bool      `json:"visible" db:"visible" gorm:"not null;index"`
	Author      string    `json:"author" db:"author" gorm:"type:text"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at" gorm:"not null;index"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
	Tags        []BlogTag `json:"tags,omitempty" gorm:"foreignKey:BlogPostID;references:ID;constraint:OnDelete:CASCADE"`
}

func (p *BlogPost) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Keywords returns the tag values in stored order.
func (p BlogPost) Keywords() []string {
	keywords := make([]string, 0, len(p.Tags))
	for _, tag := range p.Tags {
		keywords = append(keywords, tag.Value)
	}
	return keywords
}
