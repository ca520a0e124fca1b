package database

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

type Database struct {
	db           *gorm.DB
	blogPostRepo *BlogPostRepo
	blogTagRepo  *BlogTagRepo
	commentRepo  *CommentRepo
	userRepo     *UserRepo
	accessRepo   *AccessRepo
	settingRepo  *SettingRepo
	assetRepo    *AssetRepo
}

// New initializes a new Database struct with each repository using a shared GORM database instance
func New(db *gorm.DB) Database {
	return Database{
		db:           db,
		blogPostRepo: NewBlogPostRepo(db),
		blogTagRepo:  NewBlogTagRepo(db),
		commentRepo:  NewCommentRepo(db),
		userRepo:     NewUserRepo(db),
		accessRepo:   NewAccessRepo(db),
		settingRepo:  NewSettingRepo(db),
		assetRepo:    NewAssetRepo(db),
	}
}

// Accessor methods for each repository

func (d Database) BlogPostRepo() *BlogPostRepo {
	return d.blogPostRepo
}

func (d Database) BlogTagRepo() *BlogTagRepo {
	return d.blogTagRepo
}

func (d Database) CommentRepo() *CommentRepo {
	return d.commentRepo
}

func (d Database) UserRepo() *UserRepo {
	return d.userRepo
}

func (d Database) AccessRepo() *AccessRepo {
	return d.accessRepo
}

func (d Database) SettingRepo() *SettingRepo {
	return d.settingRepo
}

func (d Database) AssetRepo() *AssetRepo {
	return d.assetRepo
}

// Ping checks that the connection is usable.
func (d Database) Ping(ctx context.Context) error {
	var result int
	return d.db.WithContext(ctx).Raw("SELECT 1").Scan(&result).Error
}

// IsUniqueViolation reports whether err came from a unique constraint.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

func notFoundAsNil(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
