package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rpupo63/rpgm-blog/content"
	"github.com/rpupo63/rpgm-blog/database"
	"github.com/rpupo63/rpgm-blog/services"
	"github.com/stretchr/testify/require"
)

type blogListBody struct {
	BlogName   string `json:"blogName"`
	Pagination struct {
		Data       []services.PostView `json:"data"`
		Page       int                 `json:"currentPage"`
		TotalPages int                 `json:"totalPages"`
		NextPath   string              `json:"nextPath"`
	} `json:"pagination"`
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decode[HealthResponse](t, rec).Status)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	req := func(body string) *http.Request {
		r, _ := http.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
		return r
	}

	rec := env.do(req(`{"username":"admin","password":"admin-pw"}`), "")
	require.Equal(t, http.StatusOK, rec.Code)
	token := decode[LoginResponse](t, rec).Token
	userID, err := env.svc.Tokens.Parse(token)
	require.NoError(t, err)
	require.Equal(t, env.admin.ID, userID)

	rec = env.do(req(`{"username":"admin","password":"wrong"}`), "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(req(`{`), "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListPostsPaginates(t *testing.T) {
	env := newTestEnv(t)
	env.savePost("One", "one", 1, true)
	env.savePost("Two", "two", 2, true)
	env.savePost("Three", "three", 3, true)
	env.savePost("Draft", "draft", 4, false)

	rec := env.get("/blog", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[blogListBody](t, rec)
	require.Equal(t, services.DefaultBlogName, body.BlogName)
	require.Len(t, body.Pagination.Data, 2)
	require.Equal(t, 1, body.Pagination.Page)
	require.Equal(t, 2, body.Pagination.TotalPages)
	require.Equal(t, "/blog?page=2", body.Pagination.NextPath)
	require.True(t, body.Pagination.Data[0].ListView)

	body = decode[blogListBody](t, env.get("/blog?page=2", ""))
	require.Len(t, body.Pagination.Data, 1)

	body = decode[blogListBody](t, env.get("/blog?page=abc", ""))
	require.Equal(t, 1, body.Pagination.Page)
}

func TestGetPost(t *testing.T) {
	env := newTestEnv(t)
	env.savePost("Hello", "hello", 5, true)
	env.savePost("Secret", "secret", 5, false)

	rec := env.get("/blog/2024/05/hello.html", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[BlogPostResponse](t, rec)
	require.Equal(t, "/blog/2024/05/hello", body.Post.Path)
	require.Equal(t, "/blog/2024/05/hello.html", body.Post.Link)
	require.False(t, body.Post.ListView)
	require.Empty(t, body.Comments.Comments)
	require.Empty(t, body.RecaptchaSiteKey)

	body = decode[BlogPostResponse](t, env.get("/blog/2024/5/hello.list.html", ""))
	require.True(t, body.Post.ListView)

	require.Equal(t, http.StatusNotFound, env.get("/blog/2024/05/missing", "").Code)
	require.Equal(t, http.StatusBadRequest, env.get("/blog/2024/13/hello", "").Code)

	require.Equal(t, http.StatusNotFound, env.get("/blog/2024/05/secret", "").Code)
	require.Equal(t, http.StatusNotFound, env.get("/blog/2024/05/secret", env.readerToken).Code)
	require.Equal(t, http.StatusOK, env.get("/blog/2024/05/secret", env.adminToken).Code)
}

func TestAddCommentRedirectsAndStores(t *testing.T) {
	env := newTestEnv(t)
	env.savePost("Hello", "hello", 5, true)
	ctx := context.Background()
	postLoc := content.PostLocation(2024, 5, "hello")

	rec := env.postForm(http.MethodPost, "/blog/2024/05/hello/comment", url.Values{
		"author":  {"Ada"},
		"comment": {"First!"},
	}, "")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/blog/2024/05/hello.html", rec.Header().Get("Location"))

	thread, err := env.svc.Comments.CommentsView(ctx, postLoc)
	require.NoError(t, err)
	require.Len(t, thread.Comments, 1)
	require.Equal(t, "Ada", thread.Comments[0].Author)

	rec = env.postForm(http.MethodPost, "/blog/2024/05/hello/comment", url.Values{
		"author":           {"Grace"},
		"comment":          {"Welcome"},
		"reply-to-comment": {thread.Comments[0].Path},
	}, "")
	require.Equal(t, http.StatusSeeOther, rec.Code)

	thread, err = env.svc.Comments.CommentsView(ctx, postLoc)
	require.NoError(t, err)
	require.Len(t, thread.Comments, 1)
	require.Len(t, thread.Comments[0].Replies, 1)
	require.Equal(t, 2, thread.Count)

	body := decode[BlogPostResponse](t, env.get("/blog/2024/05/hello", ""))
	require.Equal(t, 2, body.Comments.Count)
}

func TestAddCommentRejectedStillRedirects(t *testing.T) {
	env := newTestEnv(t)
	env.savePost("Hello", "hello", 5, true)
	postLoc := content.PostLocation(2024, 5, "hello")

	for name, form := range map[string]url.Values{
		"empty text":      {"author": {"Ada"}},
		"unknown reply":   {"comment": {"Hi"}, "reply-to-comment": {"comment_1"}},
		"unknown address": nil,
	} {
		t.Run(name, func(t *testing.T) {
			path := "/blog/2024/05/hello/comment"
			if form == nil {
				path = "/blog/2024/05/nowhere/comment"
				form = url.Values{"comment": {"Hi"}}
			}
			rec := env.postForm(http.MethodPost, path, form, "")
			require.Equal(t, http.StatusSeeOther, rec.Code)
		})
	}

	thread, err := env.svc.Comments.CommentsView(context.Background(), postLoc)
	require.NoError(t, err)
	require.Zero(t, thread.Count)
}

func TestAddCommentNeedsRecaptchaWhenEnabled(t *testing.T) {
	env := newTestEnv(t)
	env.savePost("Hello", "hello", 5, true)
	ctx := context.Background()
	require.NoError(t, env.svc.Settings.Recaptcha.Update(ctx, "site-key", "secret-key", true))

	body := decode[BlogPostResponse](t, env.get("/blog/2024/05/hello", ""))
	require.Equal(t, "site-key", body.RecaptchaSiteKey)

	rec := env.postForm(http.MethodPost, "/blog/2024/05/hello/comment", url.Values{"comment": {"Hi"}}, "")
	require.Equal(t, http.StatusSeeOther, rec.Code)

	thread, err := env.svc.Comments.CommentsView(ctx, content.PostLocation(2024, 5, "hello"))
	require.NoError(t, err)
	require.Zero(t, thread.Count)
}

func TestAddCommentThrottled(t *testing.T) {
	env := newTestEnv(t, func(_ database.Database, s *Services) { s.Throttle = denyThrottle{} })
	env.savePost("Hello", "hello", 5, true)

	rec := env.postForm(http.MethodPost, "/blog/2024/05/hello/comment", url.Values{"comment": {"Hi"}}, "")
	require.Equal(t, http.StatusSeeOther, rec.Code)

	thread, err := env.svc.Comments.CommentsView(context.Background(), content.PostLocation(2024, 5, "hello"))
	require.NoError(t, err)
	require.Zero(t, thread.Count)
}

func TestExtensionlessLinks(t *testing.T) {
	env := newTestEnv(t)
	env.savePost("Hello", "hello", 5, true)
	require.NoError(t, env.svc.Settings.System.Update(context.Background(), services.SystemConfig{
		BlogName:          "RPGM",
		ExtensionlessURLs: true,
	}))

	body := decode[BlogPostResponse](t, env.get("/blog/2024/05/hello", ""))
	require.Equal(t, "/blog/2024/05/hello", body.Post.Link)

	rec := env.postForm(http.MethodPost, "/blog/2024/05/hello/comment", url.Values{"comment": {"Hi"}}, "")
	require.Equal(t, "/blog/2024/05/hello", rec.Header().Get("Location"))
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t)

	preflight := func(origin string) *http.Request {
		req, _ := http.NewRequest(http.MethodOptions, "/admin/posts", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		return req
	}

	rec := env.do(preflight(testOrigin), "")
	require.Equal(t, testOrigin, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = env.do(preflight("https://elsewhere.example"), "")
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestPostLinksFromTitles(t *testing.T) {
	env := newTestEnv(t)

	for _, title := range []string{"Don't panic", "Café notes", "A/B testing"} {
		t.Run(title, func(t *testing.T) {
			post := env.savePost(title, "", 5, true)
			link := services.PostLink(post.Path, false)
			require.Equal(t, http.StatusOK, env.get(link, "").Code, link)

			rec := env.postForm(http.MethodPost, post.Path+"/comment", url.Values{"comment": {"Nice"}}, "")
			require.Equal(t, http.StatusSeeOther, rec.Code)
			require.Equal(t, link, rec.Header().Get("Location"))

			thread, err := env.svc.Comments.CommentsView(context.Background(), content.Location(post.Path))
			require.NoError(t, err)
			require.Equal(t, 1, thread.Count)
		})
	}
}

func TestClientIP(t *testing.T) {
	proxies := parseTrustedProxies([]string{"10.0.0.0/8", "2001:db8::1", "bogus"})
	require.Len(t, proxies, 2)

	tests := []struct {
		name      string
		remote    string
		forwarded []string
		want      string
	}{
		{name: "direct", remote: "203.0.113.7:5000", want: "203.0.113.7"},
		{name: "untrusted peer ignores header", remote: "203.0.113.7:5000", forwarded: []string{"198.51.100.1"}, want: "203.0.113.7"},
		{name: "trusted peer", remote: "10.1.2.3:5000", forwarded: []string{"198.51.100.1"}, want: "198.51.100.1"},
		{name: "forged prefix", remote: "10.1.2.3:5000", forwarded: []string{"1.1.1.1, 198.51.100.1"}, want: "198.51.100.1"},
		{name: "proxy chain", remote: "10.1.2.3:5000", forwarded: []string{"198.51.100.1, 10.9.9.9"}, want: "198.51.100.1"},
		{name: "repeated headers", remote: "10.1.2.3:5000", forwarded: []string{"1.1.1.1", "198.51.100.2"}, want: "198.51.100.2"},
		{name: "trusted peer without header", remote: "10.1.2.3:5000", want: "10.1.2.3"},
		{name: "ipv6 proxy", remote: "[2001:db8::1]:443", forwarded: []string{"198.51.100.3"}, want: "198.51.100.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.RemoteAddr = tt.remote
			for _, f := range tt.forwarded {
				req.Header.Add("X-Forwarded-For", f)
			}
			require.Equal(t, tt.want, proxies.clientIP(req))
		})
	}
}

func TestForwardedHeaderCannotDodgeThrottle(t *testing.T) {
	redisServer := miniredis.RunT(t)
	throttle, err := services.NewRedisThrottle("redis://"+redisServer.Addr(), 1, time.Minute)
	require.NoError(t, err)
	defer throttle.Close()

	env := newTestEnv(t, func(_ database.Database, s *Services) { s.Throttle = throttle })
	env.savePost("Hello", "hello", 5, true)

	comment := func(remote, forwarded string) {
		req := httptest.NewRequest(http.MethodPost, "/blog/2024/05/hello/comment", strings.NewReader(url.Values{"comment": {"Hi"}}.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.RemoteAddr = remote
		if forwarded != "" {
			req.Header.Set("X-Forwarded-For", forwarded)
		}
		require.Equal(t, http.StatusSeeOther, env.do(req, "").Code)
	}
	count := func() int {
		thread, err := env.svc.Comments.CommentsView(context.Background(), content.PostLocation(2024, 5, "hello"))
		require.NoError(t, err)
		return thread.Count
	}

	for i := 0; i < 5; i++ {
		comment("203.0.113.7:5000", fmt.Sprintf("198.51.100.%d", i+1))
	}
	require.Equal(t, 1, count())

	comment("10.0.0.5:5000", "198.51.100.1")
	comment("10.0.0.5:5000", "198.51.100.2")
	require.Equal(t, 3, count())

	comment("10.0.0.5:5000", "198.51.100.9, 198.51.100.1")
	require.Equal(t, 3, count())
}
