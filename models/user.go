package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	GroupAuthors = "authors"
	GroupTesters = "testers"

	PrincipalEveryone = "everyone"
)

type User struct {
	ID           uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	Username     string    `json:"username" db:"username" gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string    `json:"-" db:"password_hash" gorm:"type:text;not null"`
	IsAdmin      bool      `json:"isAdmin" db:"is_admin" gorm:"not null"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// UserGroup is a named principal such as "authors".
type UserGroup struct {
	ID          string `json:"id" db:"id" gorm:"type:text;primaryKey"`
	DisplayName string `json:"displayName" db:"display_name" gorm:"type:text;not null"`
}

type GroupMember struct {
	GroupID string    `json:"groupId" db:"group_id" gorm:"type:text;primaryKey"`
	UserID  uuid.UUID `json:"userId" db:"user_id" gorm:"type:uuid;primaryKey"`
}
