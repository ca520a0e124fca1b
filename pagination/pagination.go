// Package pagination builds page metadata and page links for listings.
package pagination

import (
	"math"
	"strconv"
)

const (
	DefaultPageSize = 5
	Parameter       = "page"
)

// Paginate describes the requested page and the total number of items.
type Paginate struct {
	Page     int
	Limit    int
	NumItems int64
}

// Offset is the number of items before the requested page. Pages at or
// below 1 start at 0.
func (p Paginate) Offset() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// ParsePage reads a page number, falling back to 1 when raw is not a number.
func ParsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 1
	}
	return page
}

// TotalPages is ceil(numItems / pageSize), or 0 for a non-positive pageSize.
func TotalPages(numItems int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int(math.Ceil(float64(numItems) / float64(pageSize)))
}

type Link struct {
	Page    int    `json:"page"`
	Path    string `json:"path"`
	Current bool   `json:"current"`
}

// Pagination holds one page of data with its metadata and navigation links.
//
// NextPage and PreviousPage are nil when there is no such page.
type Pagination[T any] struct {
	Data         []T    `json:"data"`
	Page         int    `json:"currentPage"`
	Total        int64  `json:"total"`
	PageSize     int    `json:"pageSize"`
	TotalPages   int    `json:"totalPages"`
	NextPage     *int   `json:"nextPage,omitempty"`
	PreviousPage *int   `json:"previousPage,omitempty"`
	FirstPage    bool   `json:"firstPage"`
	LastPage     bool   `json:"lastPage"`
	PreviousPath string `json:"previousPath"`
	NextPath     string `json:"nextPath"`
	Pages        []Link `json:"pages"`
}

// MakePagination builds the page. basePath is the listing URL without a
// query string; links are basePath?page=N.
func MakePagination[T any](data []T, paginate Paginate, basePath string) *Pagination[T] {
	totalPages := TotalPages(paginate.NumItems, paginate.Limit)
	current := paginate.Page

	pagination := Pagination[T]{
		Data:         data,
		Page:         current,
		Total:        paginate.NumItems,
		PageSize:     paginate.Limit,
		TotalPages:   totalPages,
		FirstPage:    current == 1,
		LastPage:     current == totalPages,
		PreviousPath: pagePath(basePath, current-1),
		NextPath:     pagePath(basePath, current+1),
		Pages:        make([]Link, 0, totalPages),
	}

	if current < totalPages {
		p := current + 1
		pagination.NextPage = &p
	}

	if current > 1 && current <= totalPages {
		p := current - 1
		pagination.PreviousPage = &p
	}

	for x := 1; x <= totalPages; x++ {
		pagination.Pages = append(pagination.Pages, Link{
			Page:    x,
			Path:    pagePath(basePath, x),
			Current: x == current,
		})
	}

	return &pagination
}

// HydratePagination maps the data of a page to another type, keeping all
// metadata.
func HydratePagination[S any, D any](source *Pagination[S], mapper func(S) D) *Pagination[D] {
	mappedData := make([]D, len(source.Data))
	for i, item := range source.Data {
		mappedData[i] = mapper(item)
	}

	return &Pagination[D]{
		Data:         mappedData,
		Page:         source.Page,
		Total:        source.Total,
		PageSize:     source.PageSize,
		TotalPages:   source.TotalPages,
		NextPage:     source.NextPage,
		PreviousPage: source.PreviousPage,
		FirstPage:    source.FirstPage,
		LastPage:     source.LastPage,
		PreviousPath: source.PreviousPath,
		NextPath:     source.NextPath,
		Pages:        source.Pages,
	}
}

func pagePath(basePath string, page int) string {
	return basePath + "?" + Parameter + "=" + strconv.Itoa(page)
}
