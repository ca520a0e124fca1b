package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SpamStatusSpam = "spam"
	SpamStatusHam  = "ham"
)

// Comment lives in the comments tree that mirrors the blog tree. Top level
// comments sit directly under the mirrored post path, replies one level below.
type Comment struct {
	ID         uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	Path       string    `json:"path" db:"path" gorm:"type:text;not null;uniqueIndex"`
	ParentPath string    `json:"parentPath" db:"parent_path" gorm:"type:text;not null;index"`
	Name       string    `json:"name" db:"name" gorm:"type:text;not null"`
	PostPath   string    `json:"postPath" db:"post_path" gorm:"type:text;not null;index"`
	Author     string    `json:"author" db:"author" gorm:"type:text"`
	Text       string    `json:"comment" db:"comment" gorm:"column:comment;type:text"`
	Display    bool      `json:"display" db:"display" gorm:"not null;index"`
	Edited     bool      `json:"edited" db:"edited" gorm:"not null"`
	SpamStatus string    `json:"spamStatus,omitempty" db:"spam_status" gorm:"type:text"`
	UserIP     string    `json:"userIp,omitempty" db:"user_ip" gorm:"type:text"`
	UserAgent  string    `json:"userAgent,omitempty" db:"user_agent" gorm:"type:text"`
	Referrer   string    `json:"referrer,omitempty" db:"referrer" gorm:"type:text"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at" gorm:"not null;index"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
