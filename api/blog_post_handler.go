package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rpupo63/rpgm-blog/content"
	"github.com/rpupo63/rpgm-blog/errs"
	"github.com/rpupo63/rpgm-blog/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const maxFormMemory = 32 << 20

type blogPostHandler struct {
	responder Responder
	logger    zerolog.Logger
	blog      *services.BlogService
	users     *services.UserService
	uploads   *services.FileUploadService
	system    services.SystemSettings
	site      siteOptions
}

func newBlogPostHandler(blog *services.BlogService, users *services.UserService, uploads *services.FileUploadService, system services.SystemSettings, site siteOptions) blogPostHandler {
	logger := log.With().Str("handlerName", "blogPostHandler").Logger()

	return blogPostHandler{
		responder: NewResponder(logger),
		logger:    logger,
		blog:      blog,
		users:     users,
		uploads:   uploads,
		system:    system,
		site:      site,
	}
}

// BlogPostCollection is every post of the blog, hidden ones included
type BlogPostCollection struct {
	BlogPosts []services.PostView `json:"blogPosts"`
	Total     int                 `json:"total"`
}

func (h blogPostHandler) viewOptions() services.ViewOptions {
	return services.ViewOptions{BaseURL: h.site.baseURL, ExtensionlessURLs: h.system.ExtensionlessURLs()}
}

// getAllBlogPosts retrieves all blog posts with their keywords
// @Summary Get all blog posts
// @Description Retrieves every blog post, newest first, including hidden ones
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} BlogPostCollection "List of blog posts"
// @Failure 404 {object} ErrorResponse "Not Found - Caller may not author posts"
// @Failure 500 {object} ErrorResponse "Internal Server Error - Error fetching blog posts"
// @Router /admin/posts [get]
func (h blogPostHandler) getAllBlogPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := currentAuthor(r, h.users); !ok {
			h.responder.WriteError(w, errs.NewNotFoundError("page not found"))
			return
		}

		posts, err := h.blog.ListAllPosts(r.Context())
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "blog_posts", err))
			return
		}

		opts := h.viewOptions()
		response := BlogPostCollection{BlogPosts: make([]services.PostView, 0, len(posts))}
		for _, post := range posts {
			response.BlogPosts = append(response.BlogPosts, services.NewPostView(post, opts))
		}
		response.Total = len(response.BlogPosts)

		h.responder.WriteJSON(w, response)
	}
}

// parseForm reads a multipart or urlencoded body.
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(maxFormMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}

func formInt(r *http.Request, field string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(r.FormValue(field)))
	if err != nil {
		return 0, errs.NewBadRequestErrorWithField("invalid number", field, "must be a whole number")
	}
	return value, nil
}

// savePost creates a blog post or updates the one at the same address
// @Summary Save blog post
// @Description Creates or updates the post at /blog/{year}/{month}/{url}. An image file is stored under /assets/images.
// @Tags Admin
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param url formData string false "URL slug, defaults to the escaped title"
// @Param description formData string false "Description"
// @Param content formData string false "Content"
// @Param keywords formData []string false "Keywords" collectionFormat(multi)
// @Param visible formData bool false "Whether the post is published"
// @Param month formData int true "Month"
// @Param year formData int true "Year"
// @Param image formData file false "Post image"
// @Success 200 {object} services.PostView "Saved blog post"
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid blog post data"
// @Failure 404 {object} ErrorResponse "Not Found - Caller may not author posts"
// @Failure 500 {object} ErrorResponse "Internal Server Error - Error saving blog post"
// @Router /admin/posts [post]
func (h blogPostHandler) savePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentAuthor(r, h.users)
		if !ok {
			h.responder.WriteError(w, errs.NewNotFoundError("page not found"))
			return
		}

		if err := parseForm(r); err != nil {
			h.logger.Error().Err(err).Msg("Failed to parse blog post form")
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}

		month, err := formInt(r, "month")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		year, err := formInt(r, "year")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		visible, _ := strconv.ParseBool(r.FormValue("visible"))
		in := services.PostInput{
			Title:       r.FormValue("title"),
			URL:         r.FormValue("url"),
			Description: r.FormValue("description"),
			Content:     r.FormValue("content"),
			Keywords:    r.Form["keywords"],
			Month:       month,
			Year:        year,
			Visible:     visible,
		}

		image, err := h.uploads.UploadFile(r.Context(), r.MultipartForm, content.MustLocation(content.ImagesPath))
		if err != nil {
			h.responder.WriteError(w, serviceError("upload", "asset", err))
			return
		}
		in.Image = image.String()

		author := userID.String()
		if user, err := h.users.FindUser(r.Context(), userID); err != nil {
			h.logger.Error().Err(err).Msg("Could not get user")
		} else if user != nil {
			author = user.Username
		}

		post, err := h.blog.SavePost(r.Context(), in, author)
		if err != nil {
			h.responder.WriteError(w, serviceError("save", "blog_post", err))
			return
		}

		h.responder.WriteJSON(w, services.NewPostView(post, h.viewOptions()))
	}
}
