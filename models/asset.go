package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Asset is an uploaded file. Data is empty when the bytes are kept in object
// storage instead of the database.
type Asset struct {
	ID          uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	Path        string    `json:"path" db:"path" gorm:"type:text;not null;uniqueIndex"`
	ParentPath  string    `json:"parentPath" db:"parent_path" gorm:"type:text;not null;index"`
	Name        string    `json:"name" db:"name" gorm:"type:text;not null"`
	ContentType string    `json:"contentType" db:"content_type" gorm:"type:text"`
	Size        int64     `json:"size" db:"size" gorm:"not null"`
	Data        []byte    `json:"-" db:"data"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

func (a *Asset) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
