package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rpupo63/rpgm-blog/content"
	"github.com/rpupo63/rpgm-blog/database"
	"github.com/rpupo63/rpgm-blog/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrCommentNotFound     = errors.New("comment not found")
	ErrReplyTargetNotFound = errors.New("reply target not found")
	ErrCommentNameTaken    = errors.New("comment name already taken")
	ErrEmptyComment        = errors.New("comment text is required")
)

// SpamChecker classifies comments and learns from moderator corrections.
type SpamChecker interface {
	CheckComment(ctx context.Context, candidate SpamCandidate) (bool, error)
	SubmitSpam(ctx context.Context, candidate SpamCandidate) error
	SubmitHam(ctx context.Context, candidate SpamCandidate) error
}

// CommentNotifier is told about every stored comment.
type CommentNotifier interface {
	NotifyNewComment(ctx context.Context, post *models.BlogPost, comment *models.Comment)
}

// NewComment is a visitor submission.
type NewComment struct {
	PostPath string
	// ReplyTo is the name or ID of the comment being answered.
	ReplyTo   string
	Author    string
	Text      string
	UserIP    string
	UserAgent string
	Referrer  string
}

type CommentService struct {
	logger   zerolog.Logger
	comments *database.CommentRepo
	posts    *database.BlogPostRepo
	spam     SpamChecker
	notifier CommentNotifier
	namer    *commentNamer
	siteURL  string
}

type CommentOption func(*CommentService)

func WithSpamChecker(spam SpamChecker) CommentOption {
	return func(s *CommentService) {
		s.spam = spam
	}
}

func WithCommentNotifier(notifier CommentNotifier) CommentOption {
	return func(s *CommentService) {
		s.notifier = notifier
	}
}

func WithSiteURL(siteURL string) CommentOption {
	return func(s *CommentService) {
		s.siteURL = strings.TrimRight(siteURL, "/")
	}
}

func NewCommentService(comments *database.CommentRepo, posts *database.BlogPostRepo, opts ...CommentOption) *CommentService {
	s := &CommentService{
		logger:   log.With().Str("service", "comments").Logger(),
		comments: comments,
		posts:    posts,
		namer:    defaultCommentNamer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListComments returns every displayed comment of the site, newest first.
func (s *CommentService) ListComments(ctx context.Context) ([]*models.Comment, error) {
	comments, err := s.comments.FindDisplayedUnder(ctx, content.CommentsPath)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// AddComment stores a comment under the post's mirrored comments path.
// Replies to a reply are attached to the same top level comment, so threads
// are never deeper than two levels.
func (s *CommentService) AddComment(ctx context.Context, in NewComment) (*models.Comment, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, ErrEmptyComment
	}

	postLoc, err := content.NewLocation(in.PostPath)
	if err != nil {
		return nil, err
	}
	post, err := s.posts.FindByPath(ctx, postLoc.String())
	if err != nil {
		return nil, fmt.Errorf("find post %s: %w", postLoc, err)
	}
	if post == nil {
		return nil, fmt.Errorf("%w: %s", ErrPostNotFound, postLoc)
	}

	root, err := content.Mirror(postLoc, content.RootComments)
	if err != nil {
		return nil, err
	}

	parent := root
	if replyTo := strings.TrimSpace(in.ReplyTo); replyTo != "" {
		target, err := s.findReplyTarget(ctx, postLoc, replyTo)
		if err != nil {
			return nil, err
		}
		if content.Location(target.ParentPath) == root {
			parent = content.Location(target.Path)
		} else {
			parent = content.Location(target.ParentPath)
		}
	}

	name := s.namer.next()
	comment := &models.Comment{
		Path:       parent.Child(name).String(),
		ParentPath: parent.String(),
		Name:       name,
		PostPath:   postLoc.String(),
		Author:     strings.TrimSpace(in.Author),
		Text:       in.Text,
		Display:    true,
		UserIP:     in.UserIP,
		UserAgent:  in.UserAgent,
		Referrer:   in.Referrer,
	}

	if s.spam != nil {
		spam, err := s.spam.CheckComment(ctx, s.candidate(comment))
		switch {
		case errors.Is(err, ErrSpamServiceDisabled):
		case err != nil:
			s.logger.Warn().Err(err).Str("post", postLoc.String()).Msg("spam check failed, storing comment unverified")
		case spam:
			comment.Display = false
			comment.SpamStatus = models.SpamStatusSpam
		}
	}

	if err := s.comments.Add(ctx, comment); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrCommentNameTaken, comment.Path)
		}
		return nil, fmt.Errorf("store comment: %w", err)
	}

	s.logger.Info().Str("path", comment.Path).Bool("display", comment.Display).Msg("stored comment")

	if s.notifier != nil {
		s.notifier.NotifyNewComment(ctx, post, comment)
	}
	return comment, nil
}

func (s *CommentService) findReplyTarget(ctx context.Context, postLoc content.Location, replyTo string) (*models.Comment, error) {
	var (
		target *models.Comment
		err    error
	)
	if id, parseErr := uuid.Parse(replyTo); parseErr == nil {
		target, err = s.comments.FindByID(ctx, id)
	} else {
		target, err = s.comments.FindByName(ctx, postLoc.String(), replyTo)
	}
	if err != nil {
		return nil, fmt.Errorf("find reply target %s: %w", replyTo, err)
	}
	if target == nil || target.PostPath != postLoc.String() {
		return nil, fmt.Errorf("%w: %s", ErrReplyTargetNotFound, replyTo)
	}
	return target, nil
}

func (s *CommentService) GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	comment, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find comment %s: %w", id, err)
	}
	if comment == nil {
		return nil, fmt.Errorf("%w: %s", ErrCommentNotFound, id)
	}
	return comment, nil
}

// DeleteComment hides the comment. Nothing is removed from storage.
func (s *CommentService) DeleteComment(ctx context.Context, id uuid.UUID) error {
	return s.update(ctx, id, map[string]any{"display": false})
}

// EditComment replaces the text and marks the comment as edited.
func (s *CommentService) EditComment(ctx context.Context, id uuid.UUID, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyComment
	}
	return s.update(ctx, id, map[string]any{"comment": text, "edited": true})
}

func (s *CommentService) update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	found, err := s.comments.Update(ctx, id, fields)
	if err != nil {
		return fmt.Errorf("update comment %s: %w", id, err)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrCommentNotFound, id)
	}
	return nil
}

// MarkAsSpam reports the comment to the spam service and hides it. It
// returns false when the comment is unknown or the service call fails.
func (s *CommentService) MarkAsSpam(ctx context.Context, id uuid.UUID) bool {
	return s.mark(ctx, id, models.SpamStatusSpam)
}

// MarkAsHam reports the comment as legitimate and shows it again.
func (s *CommentService) MarkAsHam(ctx context.Context, id uuid.UUID) bool {
	return s.mark(ctx, id, models.SpamStatusHam)
}

func (s *CommentService) mark(ctx context.Context, id uuid.UUID, status string) bool {
	logger := s.logger.With().Str("commentId", id.String()).Str("status", status).Logger()
	if s.spam == nil {
		logger.Warn().Msg("no spam service configured")
		return false
	}

	comment, err := s.GetComment(ctx, id)
	if err != nil {
		logger.Warn().Err(err).Msg("could not load comment")
		return false
	}

	candidate := s.candidate(comment)
	if status == models.SpamStatusSpam {
		err = s.spam.SubmitSpam(ctx, candidate)
	} else {
		err = s.spam.SubmitHam(ctx, candidate)
	}
	if err != nil {
		logger.Error().Err(err).Msg("spam service rejected submission")
		return false
	}

	if err := s.update(ctx, id, map[string]any{"spam_status": status, "display": status == models.SpamStatusHam}); err != nil {
		logger.Error().Err(err).Msg("could not record spam status")
		return false
	}
	return true
}

func (s *CommentService) candidate(comment *models.Comment) SpamCandidate {
	return SpamCandidate{
		UserIP:    comment.UserIP,
		UserAgent: comment.UserAgent,
		Referrer:  comment.Referrer,
		Permalink: s.siteURL + PostLink(comment.PostPath, false),
		Author:    comment.Author,
		Content:   comment.Text,
	}
}

// NumberOfReplies counts the comments directly below comment.
func (s *CommentService) NumberOfReplies(ctx context.Context, comment *models.Comment) (int64, error) {
	count, err := s.comments.CountChildren(ctx, comment.Path)
	if err != nil {
		return 0, fmt.Errorf("count replies of %s: %w", comment.Path, err)
	}
	return count, nil
}

// GetParentPost finds the post a comment belongs to by mirroring its parent
// into the blog tree, falling back to its grandparent for replies.
func (s *CommentService) GetParentPost(ctx context.Context, comment *models.Comment) (*models.BlogPost, error) {
	parent := content.Location(comment.ParentPath)

	for _, candidate := range []content.Location{parent, parent.Parent()} {
		loc, err := content.Mirror(candidate, content.RootBlog)
		if err != nil {
			continue
		}
		post, err := s.posts.FindByPath(ctx, loc.String())
		if err != nil {
			return nil, fmt.Errorf("find post %s: %w", loc, err)
		}
		if post != nil {
			return post, nil
		}
	}
	return nil, fmt.Errorf("%w: parent of %s", ErrPostNotFound, comment.Path)
}

// CommentsView builds the two level thread of displayed comments of a post.
// Replies to a hidden comment are hidden with it.
func (s *CommentService) CommentsView(ctx context.Context, postPath content.Location) (CommentsView, error) {
	root, err := content.Mirror(postPath, content.RootComments)
	if err != nil {
		return CommentsView{}, err
	}

	comments, err := s.comments.FindByPost(ctx, postPath.String())
	if err != nil {
		return CommentsView{}, fmt.Errorf("list comments of %s: %w", postPath, err)
	}

	replies := make(map[string][]CommentView)
	for _, c := range comments {
		if c.Display && c.ParentPath != root.String() {
			replies[c.ParentPath] = append(replies[c.ParentPath], newCommentView(c))
		}
	}

	view := CommentsView{Comments: []CommentView{}}
	for _, c := range comments {
		if !c.Display || c.ParentPath != root.String() {
			continue
		}
		top := newCommentView(c)
		top.Replies = replies[c.Path]
		view.Comments = append(view.Comments, top)
		view.Count += 1 + len(top.Replies)
	}
	return view, nil
}

func newCommentView(c *models.Comment) CommentView {
	return CommentView{
		ID:      c.ID.String(),
		Author:  c.Author,
		Comment: c.Text,
		Date:    formatDate(c.CreatedAt, CommentDateFormat),
		Path:    c.Name,
		Edited:  c.Edited,
	}
}
