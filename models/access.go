package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PrivilegeRead = "read"
	PrivilegeAll  = "all"
)

// AccessControlEntry grants or denies a privilege on a path to a principal.
// Entries of one path are applied in Position order.
type AccessControlEntry struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	Path      string    `json:"path" db:"path" gorm:"type:text;not null;index"`
	Principal string    `json:"principal" db:"principal" gorm:"type:text;not null"`
	Privilege string    `json:"privilege" db:"privilege" gorm:"type:text;not null"`
	Allow     bool      `json:"allow" db:"allow" gorm:"not null"`
	Position  int       `json:"position" db:"position" gorm:"type:integer;not null"`
}

func (e *AccessControlEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
