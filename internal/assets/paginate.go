package assets

import (
	"net/url"
	"strconv"
)

// DefaultPageSize is used when the request does not name a usable size.
const DefaultPageSize = 20

// MaxPageSize caps pageSize.
const MaxPageSize = 500

// ParsePaging reads page, pageSize and query from a request's query string.
// Missing or invalid numbers fall back to page 1 and DefaultPageSize.
func ParsePaging(q url.Values) (page, pageSize int, query string) {
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err = strconv.Atoi(q.Get("pageSize"))
	if err != nil || pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize, q.Get("query")
}

// Paginate slices list into the requested page. A page past the end is
// empty rather than an error.
func Paginate(list []Asset, page, pageSize int) Page {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	total := len(list)
	start := total
	if page-1 < (total+pageSize-1)/pageSize {
		start = (page - 1) * pageSize
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	items := make([]Asset, end-start)
	copy(items, list[start:end])

	return Page{
		Assets:   items,
		Total:    total,
		Page:     page,
		Pages:    (total + pageSize - 1) / pageSize,
		PageSize: pageSize,
	}
}
