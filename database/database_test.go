package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/rpgm-blog/database"
	"github.com/rpupo63/rpgm-blog/database/dbtest"
	"github.com/rpupo63/rpgm-blog/models"
	"github.com/stretchr/testify/require"
)

func seedPost(t *testing.T, repo *database.BlogPostRepo, path string, visible bool, created time.Time) *models.BlogPost {
	t.Helper()

	post := &models.BlogPost{
		Path:      path,
		Slug:      "slug",
		Title:     path,
		Month:     int(created.Month()),
		Year:      created.Year(),
		Visible:   visible,
		CreatedAt: created,
	}
	require.NoError(t, repo.Save(context.Background(), post, nil))
	return post
}

func TestBlogPostRepoFindPublished(t *testing.T) {
	db := database.New(dbtest.New(t))
	repo := db.BlogPostRepo()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	seedPost(t, repo, "/blog/2024/01/a", true, base)
	seedPost(t, repo, "/blog/2024/01/b", false, base.Add(time.Hour))
	seedPost(t, repo, "/blog/2024/01/c", true, base.Add(2*time.Hour))
	seedPost(t, repo, "/blog/2024/01/d", true, base.Add(3*time.Hour))

	all, err := repo.FindPublished(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "/blog/2024/01/d", all[0].Path)
	require.Equal(t, "/blog/2024/01/a", all[2].Path)

	page, err := repo.FindPublished(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "/blog/2024/01/c", page[0].Path)

	rest, err := repo.FindPublished(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	require.Equal(t, "/blog/2024/01/a", rest[0].Path)

	count, err := repo.CountPublished(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 3, count)

	everything, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, everything, 4)
}

func TestBlogPostRepoSaveReplacesKeywords(t *testing.T) {
	db := database.New(dbtest.New(t))
	repo := db.BlogPostRepo()
	ctx := context.Background()

	post := &models.BlogPost{Path: "/blog/2024/02/tags", Slug: "tags", Title: "Tags", Month: 2, Year: 2024}
	require.NoError(t, repo.Save(ctx, post, []string{"go", "rpg", "go", " "}))
	require.Len(t, post.Tags, 2)

	post.Title = "Tags, again"
	require.NoError(t, repo.Save(ctx, post, []string{"dice"}))

	stored, err := repo.FindByPath(ctx, "/blog/2024/02/tags")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, "Tags, again", stored.Title)
	require.Equal(t, []string{"dice"}, stored.Keywords())

	missing, err := repo.FindByPath(ctx, "/blog/2024/02/nope")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestCommentRepoUniquePath(t *testing.T) {
	db := database.New(dbtest.New(t))
	repo := db.CommentRepo()
	ctx := context.Background()

	first := &models.Comment{Path: "/comments/x/comment_1", ParentPath: "/comments/x", Name: "comment_1", PostPath: "/blog/x", Display: true}
	require.NoError(t, repo.Add(ctx, first))

	dup := &models.Comment{Path: "/comments/x/comment_1", ParentPath: "/comments/x", Name: "comment_1", PostPath: "/blog/x", Display: true}
	err := repo.Add(ctx, dup)
	require.Error(t, err)
	require.True(t, database.IsUniqueViolation(err))

	ok, err := repo.Update(ctx, first.ID, map[string]any{"display": false})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.Update(ctx, uuid.New(), map[string]any{"display": false})
	require.NoError(t, err)
	require.False(t, ok)

	displayed, err := repo.FindDisplayedUnder(ctx, "/comments")
	require.NoError(t, err)
	require.Empty(t, displayed)
}

func TestSettingRepoUpsert(t *testing.T) {
	db := database.New(dbtest.New(t))
	repo := db.SettingRepo()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "/admin/config/system", map[string]string{"a": "1", "b": "2"}))
	require.NoError(t, repo.Upsert(ctx, "/admin/config/system", map[string]string{"b": "3"}))

	values, err := repo.FindByPath(ctx, "/admin/config/system")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"a": "1", "b": "3"}, values)

	other, err := repo.FindByPath(ctx, "/admin/config/email")
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestAssetRepoReplace(t *testing.T) {
	db := database.New(dbtest.New(t))
	repo := db.AssetRepo()
	ctx := context.Background()

	first := &models.Asset{Path: "/assets/images/a.png", ParentPath: "/assets/images", Name: "a.png", Data: []byte("one"), Size: 3}
	require.NoError(t, repo.Replace(ctx, first))

	second := &models.Asset{Path: "/assets/images/a.png", ParentPath: "/assets/images", Name: "a.png", Data: []byte("two!"), Size: 4}
	require.NoError(t, repo.Replace(ctx, second))

	stored, err := repo.FindByPath(ctx, "/assets/images/a.png")
	require.NoError(t, err)
	require.Equal(t, []byte("two!"), stored.Data)

	listed, err := repo.FindByParent(ctx, "/assets/images")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.EqualValues(t, 4, listed[0].Size)
}

func TestColumnMismatchReportOnFreshSchema(t *testing.T) {
	report, err := database.ColumnMismatchReport(dbtest.New(t))
	require.NoError(t, err)
	require.Empty(t, report)
}
