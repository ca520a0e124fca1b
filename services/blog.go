package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rpupo63/rpgm-blog/content"
	"github.com/rpupo63/rpgm-blog/database"
	"github.com/rpupo63/rpgm-blog/models"
	"github.com/rpupo63/rpgm-blog/pagination"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrPostNotFound = errors.New("blog post not found")
	ErrInvalidPost  = errors.New("invalid blog post")
)

// PostInput is the editable part of a post.
type PostInput struct {
	Title       string `validate:"required"`
	URL         string `validate:"omitempty,excludesall=/?#"`
	Description string
	Content     string
	// Keywords replaces the stored keywords; nil keeps them.
	Keywords []string
	Month    int `validate:"min=1,max=12"`
	Year     int `validate:"min=1,max=9999"`
	Visible  bool
	// Image is the location of an uploaded image; empty keeps the stored one.
	Image string
}

type BlogService struct {
	logger   zerolog.Logger
	posts    *database.BlogPostRepo
	validate *validator.Validate
}

func NewBlogService(posts *database.BlogPostRepo) *BlogService {
	return &BlogService{
		logger:   log.With().Str("service", "blog").Logger(),
		posts:    posts,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// ListAllPosts returns every post newest first, hidden ones included.
func (s *BlogService) ListAllPosts(ctx context.Context) ([]*models.BlogPost, error) {
	posts, err := s.posts.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// ListPublishedPosts skips offset visible posts and returns up to limit of
// the rest, newest first. A limit of 0 returns all of them.
func (s *BlogService) ListPublishedPosts(ctx context.Context, offset, limit int) ([]*models.BlogPost, error) {
	if limit < 0 {
		limit = 0
	}
	posts, err := s.posts.FindPublished(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list published posts: %w", err)
	}
	return posts, nil
}

func (s *BlogService) CountPublishedPosts(ctx context.Context) (int64, error) {
	count, err := s.posts.CountPublished(ctx)
	if err != nil {
		return 0, fmt.Errorf("count published posts: %w", err)
	}
	return count, nil
}

// PageCount is the number of pages of pageSize visible posts.
func (s *BlogService) PageCount(ctx context.Context, pageSize int) (int, error) {
	if pageSize <= 0 {
		return 0, nil
	}
	count, err := s.CountPublishedPosts(ctx)
	if err != nil {
		return 0, err
	}
	return pagination.TotalPages(count, pageSize), nil
}

// PublishedPage returns one page of visible posts with its navigation links.
func (s *BlogService) PublishedPage(ctx context.Context, page, pageSize int, basePath string) (*pagination.Pagination[*models.BlogPost], error) {
	count, err := s.CountPublishedPosts(ctx)
	if err != nil {
		return nil, err
	}

	paginate := pagination.Paginate{Page: page, Limit: pageSize, NumItems: count}
	posts, err := s.ListPublishedPosts(ctx, paginate.Offset(), pageSize)
	if err != nil {
		return nil, err
	}
	return pagination.MakePagination(posts, paginate, basePath), nil
}

func (s *BlogService) GetPost(ctx context.Context, loc content.Location) (*models.BlogPost, error) {
	post, err := s.posts.FindByPath(ctx, loc.String())
	if err != nil {
		return nil, fmt.Errorf("find post %s: %w", loc, err)
	}
	if post == nil {
		return nil, fmt.Errorf("%w: %s", ErrPostNotFound, loc)
	}
	return post, nil
}

// SavePost creates the post at /blog/{year}/{MM}/{slug} or updates the one
// already there. An update keeps the creation time, and the stored image and
// keywords unless new ones are given.
func (s *BlogService) SavePost(ctx context.Context, in PostInput, author string) (*models.BlogPost, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPost, err)
	}

	slug := content.Slug(in.Title, in.URL)
	if slug == "" {
		return nil, fmt.Errorf("%w: no usable characters for a link in %q", ErrInvalidPost, in.Title)
	}
	loc := content.PostLocation(in.Year, in.Month, slug)

	post, err := s.posts.FindByPath(ctx, loc.String())
	if err != nil {
		return nil, fmt.Errorf("find post %s: %w", loc, err)
	}

	keywords := in.Keywords
	if post == nil {
		post = &models.BlogPost{Path: loc.String()}
	} else {
		if in.Image == "" {
			in.Image = post.Image
		}
		if keywords == nil {
			keywords = post.Keywords()
		}
	}

	post.Slug = slug
	post.Title = in.Title
	post.Description = in.Description
	post.Content = in.Content
	post.Image = in.Image
	post.Month = in.Month
	post.Year = in.Year
	post.Visible = in.Visible
	post.Author = author

	if err := s.posts.Save(ctx, post, keywords); err != nil {
		return nil, fmt.Errorf("save post %s: %w", loc, err)
	}

	s.logger.Info().Str("path", post.Path).Str("author", author).Msg("saved blog post")
	return post, nil
}
