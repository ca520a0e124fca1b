package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rpupo63/rpgm-blog/database"
	"github.com/rpupo63/rpgm-blog/database/dbtest"
	"github.com/rpupo63/rpgm-blog/models"
	"github.com/rpupo63/rpgm-blog/services"
	"github.com/stretchr/testify/require"
)

const (
	testBaseURL = "https://rpgm.example"
	testOrigin  = "https://admin.rpgm.example"
	testProxies = "10.0.0.0/8, 2001:db8::1"
)

type testEnv struct {
	t      *testing.T
	db     database.Database
	svc    Services
	router http.Handler
	admin  *models.User
	// adminToken belongs to an administrator, readerToken to a user outside
	// the authors group.
	adminToken  string
	readerToken string
}

func newTestEnv(t *testing.T, opts ...func(database.Database, *Services)) *testEnv {
	t.Helper()

	db := database.New(dbtest.New(t))
	ctx := context.Background()

	settings := services.NewSettings(db.SettingRepo())
	require.NoError(t, settings.Load(ctx))

	access := services.NewAccessService(db.AccessRepo())
	require.NoError(t, access.EnsureGroupsAndPermissions(ctx))

	users := services.NewUserService(db.UserRepo())
	svc := Services{
		Users:     users,
		Tokens:    services.NewTokenIssuer("test-secret", time.Hour),
		Access:    access,
		Blog:      services.NewBlogService(db.BlogPostRepo()),
		Comments:  services.NewCommentService(db.CommentRepo(), db.BlogPostRepo(), services.WithSiteURL(testBaseURL)),
		Settings:  settings,
		Uploads:   services.NewFileUploadService(services.NewDBAssetStore(db.AssetRepo())),
		Recaptcha: services.NewRecaptchaVerifier(settings.Recaptcha),
	}
	for _, opt := range opts {
		opt(db, &svc)
	}

	env := &testEnv{
		t:   t,
		db:  db,
		svc: svc,
		router: newRouter(db, svc, withConfig(map[string]string{
			"BASE_URL":         testBaseURL,
			"BLOG_PAGE_SIZE":   "2",
			"ACCEPTED_ORIGINS": testOrigin,
			"TRUSTED_PROXIES":  testProxies,
		})),
	}

	admin, err := users.CreateUser(ctx, "admin", "admin-pw", true)
	require.NoError(t, err)
	env.admin = admin
	env.adminToken = env.tokenFor(admin)

	reader, err := users.CreateUser(ctx, "reader", "reader-pw", false)
	require.NoError(t, err)
	env.readerToken = env.tokenFor(reader)

	return env
}

func (e *testEnv) tokenFor(user *models.User) string {
	e.t.Helper()
	token, err := e.svc.Tokens.Issue(user)
	require.NoError(e.t, err)
	return token
}

func (e *testEnv) do(req *http.Request, token string) *httptest.ResponseRecorder {
	e.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(path, token string) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil), token)
}

func (e *testEnv) postForm(method, path string, form url.Values, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(req, token)
}

type formFile struct {
	field, name string
	data        []byte
}

func (e *testEnv) postMultipart(path string, fields url.Values, files []formFile, token string) *httptest.ResponseRecorder {
	e.t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, values := range fields {
		for _, v := range values {
			require.NoError(e.t, writer.WriteField(key, v))
		}
	}
	for _, f := range files {
		part, err := writer.CreateFormFile(f.field, f.name)
		require.NoError(e.t, err)
		_, err = part.Write(f.data)
		require.NoError(e.t, err)
	}
	require.NoError(e.t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return e.do(req, token)
}

func (e *testEnv) savePost(title, slug string, month int, visible bool) *models.BlogPost {
	e.t.Helper()
	post, err := e.svc.Blog.SavePost(context.Background(), services.PostInput{
		Title:   title,
		URL:     slug,
		Content: "Body of " + title,
		Month:   month,
		Year:    2024,
		Visible: visible,
	}, "admin")
	require.NoError(e.t, err)
	return post
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type denyThrottle struct{}

func (denyThrottle) Allow(context.Context, string) bool { return false }
