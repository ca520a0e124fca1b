// Package content holds the path conventions shared by posts, comments,
// settings and assets. Every stored item is addressed by an absolute,
// slash-separated location under one of a few fixed roots.
package content

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	BlogPath     = "/blog"
	CommentsPath = "/comments"
	AdminPath    = "/admin"
	AssetsPath   = "/assets"
	ImagesPath   = AssetsPath + "/images"
	ConfigPath   = AdminPath + "/config"
)

var (
	ErrInvalidLocation = errors.New("invalid location")
	ErrNotUnderRoot    = errors.New("location is not under the expected root")
)

type Root int

const (
	RootBlog Root = iota
	RootComments
	RootAdmin
	RootAssets
)

func (r Root) Path() string {
	switch r {
	case RootBlog:
		return BlogPath
	case RootComments:
		return CommentsPath
	case RootAdmin:
		return AdminPath
	case RootAssets:
		return AssetsPath
	}
	return ""
}

func (r Root) String() string {
	return strings.TrimPrefix(r.Path(), "/")
}

// Location is a cleaned absolute path.
type Location string

// NewLocation validates and cleans raw. Relative paths and paths containing
// ".." segments are rejected.
func NewLocation(raw string) (Location, error) {
	if raw == "" || !strings.HasPrefix(raw, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidLocation, raw)
	}
	for _, segment := range strings.Split(raw, "/") {
		if segment == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidLocation, raw)
		}
	}
	return Location(path.Clean(raw)), nil
}

// MustLocation is NewLocation for constant paths.
func MustLocation(raw string) Location {
	loc, err := NewLocation(raw)
	if err != nil {
		panic(err)
	}
	return loc
}

func (l Location) String() string {
	return string(l)
}

func (l Location) Parent() Location {
	return Location(path.Dir(string(l)))
}

func (l Location) Name() string {
	return path.Base(string(l))
}

func (l Location) Child(name string) Location {
	return Location(path.Join(string(l), name))
}

// Under reports whether l is r's root path or below it.
func (l Location) Under(r Root) bool {
	prefix := r.Path()
	return string(l) == prefix || strings.HasPrefix(string(l), prefix+"/")
}

// Depth counts the segments of l below r, or -1 when l is not under r.
func (l Location) Depth(r Root) int {
	if !l.Under(r) {
		return -1
	}
	rest := strings.TrimPrefix(strings.TrimPrefix(string(l), r.Path()), "/")
	if rest == "" {
		return 0
	}
	return strings.Count(rest, "/") + 1
}

// RootOf returns the root l lives under.
func RootOf(l Location) (Root, bool) {
	for _, r := range []Root{RootBlog, RootComments, RootAdmin, RootAssets} {
		if l.Under(r) {
			return r, true
		}
	}
	return 0, false
}

// Mirror maps a location between the blog tree and the comments tree by
// swapping the leading root segment. Anything outside those two trees is an
// error rather than being returned unchanged.
func Mirror(l Location, to Root) (Location, error) {
	if to != RootBlog && to != RootComments {
		return "", fmt.Errorf("%w: cannot mirror into %s", ErrNotUnderRoot, to.Path())
	}

	var from Root
	switch {
	case l.Under(RootBlog):
		from = RootBlog
	case l.Under(RootComments):
		from = RootComments
	default:
		return "", fmt.Errorf("%w: %s", ErrNotUnderRoot, l)
	}

	return Location(to.Path() + strings.TrimPrefix(string(l), from.Path())), nil
}

// PostLocation builds /blog/{year}/{MM}/{slug}.
func PostLocation(year, month int, slug string) Location {
	return Location(fmt.Sprintf("%s/%d/%02d/%s", BlogPath, year, month, slug))
}

// Slug returns the link segment of a post: urlPart when set, otherwise the
// title. The result only holds lowercase ASCII letters, digits, '_' and
// single hyphens, so it reads the same escaped and unescaped. Accents are
// folded and apostrophes dropped. It is empty when nothing usable is left.
func Slug(title, urlPart string) string {
	source := strings.TrimSpace(urlPart)
	if source == "" {
		source = strings.TrimSpace(title)
	}

	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), source)
	if err != nil {
		folded = source
	}
	folded = cases.Lower(language.Und).String(folded)

	var b strings.Builder
	gap := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			if gap && b.Len() > 0 {
				b.WriteByte('-')
			}
			gap = false
			b.WriteRune(r)
		case r == '\'', r == '’':
		default:
			gap = true
		}
	}
	return b.String()
}

// SettingsLocation is where a named settings node is stored.
func SettingsLocation(name string) Location {
	return Location(ConfigPath + "/" + name)
}
