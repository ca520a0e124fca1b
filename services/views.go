package services

import (
	"strings"
	"time"

	"github.com/rpupo63/rpgm-blog/models"
)

const (
	PublishedDateFormat = "2006-01-02"
	DisplayDateFormat   = "January 02, 2006"
	CommentDateFormat   = "January 02, 2006 at 03:04 PM"
	ListViewSelector    = "list"
	htmlExtension       = ".html"
)

// PostView is what the post templates render.
type PostView struct {
	ID                string   `json:"id"`
	Path              string   `json:"path"`
	Link              string   `json:"link"`
	Title             string   `json:"title"`
	Month             int      `json:"month"`
	Year              int      `json:"year"`
	URL               string   `json:"url"`
	Visible           bool     `json:"visible"`
	Keywords          []string `json:"keywords"`
	Image             string   `json:"image,omitempty"`
	ImageAbsolutePath string   `json:"imageAbsolutePath,omitempty"`
	Content           string   `json:"content"`
	Description       string   `json:"description"`
	Author            string   `json:"author"`
	ListView          bool     `json:"listView"`
	PublishedDate     string   `json:"publishedDate"`
	DisplayDate       string   `json:"displayDate"`
}

// ViewOptions control how links are rendered.
type ViewOptions struct {
	BaseURL           string
	ExtensionlessURLs bool
	ListView          bool
}

func NewPostView(post *models.BlogPost, opts ViewOptions) PostView {
	view := PostView{
		ID:            post.ID.String(),
		Path:          post.Path,
		Link:          PostLink(post.Path, opts.ExtensionlessURLs),
		Title:         post.Title,
		Month:         post.Month,
		Year:          post.Year,
		URL:           post.Slug,
		Visible:       post.Visible,
		Keywords:      post.Keywords(),
		Image:         post.Image,
		Content:       post.Content,
		Description:   post.Description,
		Author:        post.Author,
		ListView:      opts.ListView,
		PublishedDate: formatDate(post.CreatedAt, PublishedDateFormat),
		DisplayDate:   formatDate(post.CreatedAt, DisplayDateFormat),
	}

	if post.Image != "" {
		view.ImageAbsolutePath = strings.TrimRight(opts.BaseURL, "/") + post.Image
	}
	return view
}

// PostLink is the public URL of a post path.
func PostLink(path string, extensionless bool) string {
	if extensionless {
		return path
	}
	return path + htmlExtension
}

// CommentView is one rendered comment. Replies is only set on top level
// comments.
type CommentView struct {
	ID      string        `json:"id"`
	Author  string        `json:"author"`
	Comment string        `json:"comment"`
	Date    string        `json:"date"`
	Path    string        `json:"path"`
	Edited  bool          `json:"edited"`
	Replies []CommentView `json:"replies,omitempty"`
}

type CommentsView struct {
	Comments []CommentView `json:"comments"`
	Count    int           `json:"count"`
}

func formatDate(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(layout)
}
