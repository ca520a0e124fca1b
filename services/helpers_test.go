package services

import (
	"context"
	"testing"
	"time"

	"github.com/rpupo63/rpgm-blog/database"
	"github.com/rpupo63/rpgm-blog/database/dbtest"
	"github.com/rpupo63/rpgm-blog/models"
	"github.com/stretchr/testify/require"
)

func newTestDatabase(t *testing.T) database.Database {
	t.Helper()
	return database.New(dbtest.New(t))
}

func seedPost(t *testing.T, db database.Database, path string, visible bool, created time.Time) *models.BlogPost {
	t.Helper()

	post := &models.BlogPost{
		Path:      path,
		Slug:      "slug",
		Title:     "Title of " + path,
		Month:     int(created.Month()),
		Year:      created.Year(),
		Visible:   visible,
		CreatedAt: created,
	}
	require.NoError(t, db.BlogPostRepo().Save(context.Background(), post, nil))
	return post
}

type stubSpamChecker struct {
	spam      bool
	checkErr  error
	submitErr error
	checked   []SpamCandidate
	spamSent  []SpamCandidate
	hamSent   []SpamCandidate
}

func (s *stubSpamChecker) CheckComment(_ context.Context, c SpamCandidate) (bool, error) {
	s.checked = append(s.checked, c)
	return s.spam, s.checkErr
}

func (s *stubSpamChecker) SubmitSpam(_ context.Context, c SpamCandidate) error {
	s.spamSent = append(s.spamSent, c)
	return s.submitErr
}

func (s *stubSpamChecker) SubmitHam(_ context.Context, c SpamCandidate) error {
	s.hamSent = append(s.hamSent, c)
	return s.submitErr
}

type recordingNotifier struct {
	comments []*models.Comment
}

func (n *recordingNotifier) NotifyNewComment(_ context.Context, _ *models.BlogPost, c *models.Comment) {
	n.comments = append(n.comments, c)
}
