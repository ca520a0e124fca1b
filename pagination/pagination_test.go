package pagination

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOffset(t *testing.T) {
	require.Equal(t, 0, Paginate{Page: 0, Limit: 5}.Offset())
	require.Equal(t, 0, Paginate{Page: 1, Limit: 5}.Offset())
	require.Equal(t, 0, Paginate{Page: -3, Limit: 5}.Offset())
	require.Equal(t, 10, Paginate{Page: 3, Limit: 5}.Offset())
	require.Equal(t, 0, Paginate{Page: 3, Limit: 0}.Offset())
}

func TestParsePage(t *testing.T) {
	require.Equal(t, 4, ParsePage("4"))
	require.Equal(t, 1, ParsePage(""))
	require.Equal(t, 1, ParsePage("four"))
	require.Equal(t, -2, ParsePage("-2"))
}

func TestTotalPages(t *testing.T) {
	require.Equal(t, 0, TotalPages(0, 5))
	require.Equal(t, 1, TotalPages(5, 5))
	require.Equal(t, 2, TotalPages(6, 5))
	require.Equal(t, 0, TotalPages(6, 0))
	require.Equal(t, 0, TotalPages(6, -1))
}

func TestMakePagination(t *testing.T) {
	page := MakePagination([]string{"c", "d"}, Paginate{Page: 2, Limit: 2, NumItems: 5}, "/blog")

	require.Equal(t, 3, page.TotalPages)
	require.False(t, page.FirstPage)
	require.False(t, page.LastPage)
	require.Equal(t, "/blog?page=1", page.PreviousPath)
	require.Equal(t, "/blog?page=3", page.NextPath)
	require.NotNil(t, page.NextPage)
	require.Equal(t, 3, *page.NextPage)
	require.NotNil(t, page.PreviousPage)
	require.Equal(t, 1, *page.PreviousPage)

	require.Len(t, page.Pages, 3)
	for i, link := range page.Pages {
		require.Equal(t, i+1, link.Page)
		require.Equal(t, "/blog?page="+strconv.Itoa(i+1), link.Path)
		require.Equal(t, i == 1, link.Current)
	}
}

func TestMakePaginationEdges(t *testing.T) {
	first := MakePagination([]int{1}, Paginate{Page: 1, Limit: 5, NumItems: 1}, "/blog")
	require.True(t, first.FirstPage)
	require.True(t, first.LastPage)
	require.Nil(t, first.NextPage)
	require.Nil(t, first.PreviousPage)

	empty := MakePagination([]int{}, Paginate{Page: 1, Limit: 5}, "/blog")
	require.Equal(t, 0, empty.TotalPages)
	require.Empty(t, empty.Pages)
}

func TestHydratePagination(t *testing.T) {
	source := MakePagination([]int{1, 2}, Paginate{Page: 1, Limit: 2, NumItems: 4}, "/blog")
	mapped := HydratePagination(source, strconv.Itoa)

	require.Equal(t, []string{"1", "2"}, mapped.Data)
	require.Equal(t, source.TotalPages, mapped.TotalPages)
	require.Equal(t, source.Pages, mapped.Pages)
}
