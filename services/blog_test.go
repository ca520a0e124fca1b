package services

import (
	"context"
	"testing"
	"time"

	"github.com/rpupo63/rpgm-blog/content"
	"github.com/stretchr/testify/require"
)

func TestListPublishedPosts(t *testing.T) {
	db := newTestDatabase(t)
	svc := NewBlogService(db.BlogPostRepo())
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, visible := range []bool{true, true, false, true, true, true} {
		seedPost(t, db, content.PostLocation(2024, 3, string(rune('a'+i))).String(), visible, base.Add(time.Duration(i)*time.Hour))
	}

	all, err := svc.ListPublishedPosts(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		require.True(t, all[i-1].CreatedAt.After(all[i].CreatedAt))
		require.True(t, all[i].Visible)
	}

	first, err := svc.ListPublishedPosts(ctx, 0, 2)
	require.NoError(t, err)
	second, err := svc.ListPublishedPosts(ctx, 2, 2)
	require.NoError(t, err)
	third, err := svc.ListPublishedPosts(ctx, 4, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.Len(t, second, 2)
	require.Len(t, third, 1)

	seen := map[string]bool{}
	for _, page := range [][]string{{first[0].Path, first[1].Path}, {second[0].Path, second[1].Path}, {third[0].Path}} {
		for _, p := range page {
			require.False(t, seen[p], "post %s listed twice", p)
			seen[p] = true
		}
	}

	negative, err := svc.ListPublishedPosts(ctx, -4, 1)
	require.NoError(t, err)
	require.Equal(t, first[0].Path, negative[0].Path)

	allPosts, err := svc.ListAllPosts(ctx)
	require.NoError(t, err)
	require.Len(t, allPosts, 6)
}

func TestPageCount(t *testing.T) {
	db := newTestDatabase(t)
	svc := NewBlogService(db.BlogPostRepo())
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	pages, err := svc.PageCount(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, 0, pages)

	for i := 0; i < 6; i++ {
		seedPost(t, db, content.PostLocation(2024, 3, string(rune('a'+i))).String(), true, base.Add(time.Duration(i)*time.Minute))
	}

	pages, err = svc.PageCount(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, 2, pages)

	pages, err = svc.PageCount(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, 0, pages)

	page, err := svc.PublishedPage(ctx, 2, 5, "/blog")
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	require.True(t, page.LastPage)
	require.Equal(t, "/blog?page=1", page.PreviousPath)
}

func TestOrderingTieBreakIsStable(t *testing.T) {
	db := newTestDatabase(t)
	svc := NewBlogService(db.BlogPostRepo())
	ctx := context.Background()
	same := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	seedPost(t, db, "/blog/2024/03/b", true, same)
	seedPost(t, db, "/blog/2024/03/a", true, same)
	seedPost(t, db, "/blog/2024/03/c", true, same)

	first, err := svc.ListPublishedPosts(ctx, 0, 2)
	require.NoError(t, err)
	rest, err := svc.ListPublishedPosts(ctx, 2, 2)
	require.NoError(t, err)

	require.Equal(t, "/blog/2024/03/a", first[0].Path)
	require.Equal(t, "/blog/2024/03/b", first[1].Path)
	require.Equal(t, "/blog/2024/03/c", rest[0].Path)
}

func TestSavePost(t *testing.T) {
	db := newTestDatabase(t)
	svc := NewBlogService(db.BlogPostRepo())
	ctx := context.Background()

	created, err := svc.SavePost(ctx, PostInput{
		Title:    "Dice & Dragons",
		Content:  "first",
		Keywords: []string{"dice", "dragons"},
		Month:    4,
		Year:     2024,
		Image:    "/assets/images/cover.png",
	}, "author-1")
	require.NoError(t, err)
	require.Equal(t, "/blog/2024/04/dice-dragons", created.Path)
	require.Equal(t, "author-1", created.Author)

	updated, err := svc.SavePost(ctx, PostInput{
		Title:   "Dice & Dragons",
		Content: "second",
		Month:   4,
		Year:    2024,
		Visible: true,
	}, "author-2")
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)

	stored, err := svc.GetPost(ctx, content.Location(created.Path))
	require.NoError(t, err)
	require.Equal(t, "second", stored.Content)
	require.Equal(t, "/assets/images/cover.png", stored.Image)
	require.Equal(t, []string{"dice", "dragons"}, stored.Keywords())
	require.True(t, stored.Visible)
	require.Equal(t, "author-2", stored.Author)

	withURL, err := svc.SavePost(ctx, PostInput{Title: "Another", URL: "custom", Month: 12, Year: 2023}, "a")
	require.NoError(t, err)
	require.Equal(t, "/blog/2023/12/custom", withURL.Path)
}

func TestSavePostValidation(t *testing.T) {
	db := newTestDatabase(t)
	svc := NewBlogService(db.BlogPostRepo())
	ctx := context.Background()

	cases := []PostInput{
		{Title: " ", Month: 1, Year: 2024},
		{Title: "x", Month: 13, Year: 2024},
		{Title: "x", Month: 1, Year: 0},
		{Title: "x", URL: "a/b", Month: 1, Year: 2024},
		{Title: "日本", Month: 1, Year: 2024},
	}
	for _, in := range cases {
		_, err := svc.SavePost(ctx, in, "a")
		require.ErrorIs(t, err, ErrInvalidPost)
	}

	_, err := svc.GetPost(ctx, "/blog/2024/01/missing")
	require.ErrorIs(t, err, ErrPostNotFound)
}

func TestNewPostView(t *testing.T) {
	db := newTestDatabase(t)
	post := seedPost(t, db, "/blog/2024/05/view", true, time.Date(2024, 5, 7, 15, 4, 0, 0, time.UTC))
	post.Image = "/assets/images/v.png"

	view := NewPostView(post, ViewOptions{BaseURL: "https://rpgm.example/", ListView: true})
	require.Equal(t, "2024-05-07", view.PublishedDate)
	require.Equal(t, "May 07, 2024", view.DisplayDate)
	require.Equal(t, "https://rpgm.example/assets/images/v.png", view.ImageAbsolutePath)
	require.Equal(t, "/blog/2024/05/view.html", view.Link)
	require.True(t, view.ListView)

	extensionless := NewPostView(post, ViewOptions{ExtensionlessURLs: true})
	require.Equal(t, "/blog/2024/05/view", extensionless.Link)
}
