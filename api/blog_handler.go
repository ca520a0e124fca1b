package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/rpgm-blog/content"
	"github.com/rpupo63/rpgm-blog/errs"
	"github.com/rpupo63/rpgm-blog/models"
	"github.com/rpupo63/rpgm-blog/pagination"
	"github.com/rpupo63/rpgm-blog/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// blogHandler serves the public blog pages and takes visitor comments.
type blogHandler struct {
	responder Responder
	logger    zerolog.Logger
	blog      *services.BlogService
	comments  *services.CommentService
	users     *services.UserService
	system    services.SystemSettings
	recaptcha *services.RecaptchaVerifier
	throttle  services.CommentThrottle
	site      siteOptions
}

func newBlogHandler(
	blog *services.BlogService,
	comments *services.CommentService,
	users *services.UserService,
	system services.SystemSettings,
	recaptcha *services.RecaptchaVerifier,
	throttle services.CommentThrottle,
	site siteOptions,
) blogHandler {
	logger := log.With().Str("handlerName", "blogHandler").Logger()

	return blogHandler{
		responder: NewResponder(logger),
		logger:    logger,
		blog:      blog,
		comments:  comments,
		users:     users,
		system:    system,
		recaptcha: recaptcha,
		throttle:  throttle,
		site:      site,
	}
}

// BlogListResponse is one page of the public blog listing
type BlogListResponse struct {
	BlogName   string                                    `json:"blogName"`
	Pagination *pagination.Pagination[services.PostView] `json:"pagination"`
}

// BlogPostResponse is a single post with its comment thread
type BlogPostResponse struct {
	BlogName         string                `json:"blogName"`
	Post             services.PostView     `json:"post"`
	Comments         services.CommentsView `json:"comments"`
	RecaptchaSiteKey string                `json:"recaptchaSiteKey,omitempty"`
}

func (h blogHandler) viewOptions(listView bool) services.ViewOptions {
	return services.ViewOptions{
		BaseURL:           h.site.baseURL,
		ExtensionlessURLs: h.system.ExtensionlessURLs(),
		ListView:          listView,
	}
}

// listPosts returns a page of published posts
// @Summary List published posts
// @Tags Blog
// @Produce json
// @Param page query int false "Page number, starting at 1"
// @Success 200 {object} BlogListResponse
// @Failure 500 {object} ErrorResponse "Internal Server Error - Error fetching blog posts"
// @Router /blog [get]
func (h blogHandler) listPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := pagination.ParsePage(r.URL.Query().Get(pagination.Parameter))

		result, err := h.blog.PublishedPage(r.Context(), page, h.site.pageSize, content.BlogPath)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "blog_posts", err))
			return
		}

		opts := h.viewOptions(true)
		h.responder.WriteJSON(w, BlogListResponse{
			BlogName: h.system.BlogName(),
			Pagination: pagination.HydratePagination(result, func(post *models.BlogPost) services.PostView {
				return services.NewPostView(post, opts)
			}),
		})
	}
}

// postRequest is a post address taken from the URL. The slug may end in
// .html and may carry the .list selector before it.
type postRequest struct {
	location content.Location
	listView bool
}

func parsePostRequest(r *http.Request) (postRequest, error) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return postRequest{}, errs.NewBadRequestError("invalid year")
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		return postRequest{}, errs.NewBadRequestError("invalid month")
	}

	slug := strings.TrimSuffix(chi.URLParam(r, "slug"), ".html")
	listView := false
	if trimmed, ok := strings.CutSuffix(slug, "."+services.ListViewSelector); ok {
		slug = trimmed
		listView = true
	}
	if slug == "" || strings.Contains(slug, "/") {
		return postRequest{}, errs.NewBadRequestError("invalid slug")
	}

	return postRequest{location: content.PostLocation(year, month, slug), listView: listView}, nil
}

// canSeeHidden reports whether the caller may read invisible posts.
func (h blogHandler) canSeeHidden(ctx context.Context) bool {
	userID, err := ctxGetUserID(ctx)
	if err != nil {
		return false
	}
	return h.users.IsAuthorable(ctx, userID)
}

// getPost returns a post and its displayed comments
// @Summary Get blog post
// @Tags Blog
// @Produce json
// @Param year path int true "Year"
// @Param month path int true "Month"
// @Param slug path string true "Slug, optionally with .list and .html"
// @Success 200 {object} BlogPostResponse
// @Failure 400 {object} ErrorResponse "Bad Request - Malformed post address"
// @Failure 404 {object} ErrorResponse "Not Found - Blog post not found"
// @Router /blog/{year}/{month}/{slug} [get]
func (h blogHandler) getPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := parsePostRequest(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		post, err := h.blog.GetPost(r.Context(), req.location)
		if err != nil {
			h.responder.WriteError(w, serviceError("find", "blog_post", err))
			return
		}
		if !post.Visible && !h.canSeeHidden(r.Context()) {
			h.responder.WriteError(w, errs.NewNotFoundError("blog post not found"))
			return
		}

		thread, err := h.comments.CommentsView(r.Context(), req.location)
		if err != nil {
			h.responder.WriteError(w, serviceError("find", "comments", err))
			return
		}

		response := BlogPostResponse{
			BlogName: h.system.BlogName(),
			Post:     services.NewPostView(post, h.viewOptions(req.listView)),
			Comments: thread,
		}
		if h.recaptcha != nil && h.recaptcha.Enabled() {
			response.RecaptchaSiteKey = h.recaptcha.SiteKey()
		}

		h.responder.WriteJSON(w, response)
	}
}

// addComment stores a visitor comment and sends the visitor back to the post
// @Summary Comment on a blog post
// @Tags Blog
// @Accept x-www-form-urlencoded
// @Param author formData string false "Display name"
// @Param comment formData string true "Comment text"
// @Param reply-to-comment formData string false "Name or ID of the comment being answered"
// @Param g-recaptcha-response formData string false "reCAPTCHA token"
// @Success 303 "Redirect back to the post"
// @Failure 400 {object} ErrorResponse "Bad Request - Malformed post address"
// @Router /blog/{year}/{month}/{slug}/comment [post]
func (h blogHandler) addComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := parsePostRequest(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		defer http.Redirect(w, r, services.PostLink(req.location.String(), h.system.ExtensionlessURLs()), http.StatusSeeOther)

		logger := h.logger.With().Str("post", req.location.String()).Logger()
		ip := h.site.proxies.clientIP(r)

		if !h.throttle.Allow(r.Context(), ip) {
			logger.Warn().Str("client", ip).Msg("comment rejected by throttle")
			return
		}

		if h.recaptcha != nil && h.recaptcha.Enabled() {
			ok, err := h.recaptcha.Validate(r.Context(), r.FormValue("g-recaptcha-response"), ip)
			if !ok {
				logger.Info().Err(err).Msg("comment failed recaptcha")
				return
			}
		}

		_, err = h.comments.AddComment(r.Context(), services.NewComment{
			PostPath:  req.location.String(),
			ReplyTo:   r.FormValue("reply-to-comment"),
			Author:    r.FormValue("author"),
			Text:      r.FormValue("comment"),
			UserIP:    ip,
			UserAgent: r.UserAgent(),
			Referrer:  r.Referer(),
		})
		switch {
		case errors.Is(err, services.ErrPostNotFound), errors.Is(err, services.ErrEmptyComment), errors.Is(err, services.ErrReplyTargetNotFound):
			logger.Info().Err(err).Msg("comment rejected")
		case err != nil:
			logger.Error().Err(err).Msg("could not store comment")
		}
	}
}
