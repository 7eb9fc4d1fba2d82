package catalog

import (
	"net/url"
	"strconv"
)

// ListQueryArgs identifies one view of the list endpoint. The zero value
// requests the whole collection with no server-side paging or sorting.
type ListQueryArgs struct {
	Page      int    // 1-based
	Limit     int    // page size
	SortBy    string // column, empty for none
	SortOrder string // "asc" or "desc"
}

// All reports whether a requests the full, unpaged collection.
func (a ListQueryArgs) All() bool {
	return a == ListQueryArgs{}
}

// Values renders a as query parameters. The zero value renders as no
// parameters at all.
func (a ListQueryArgs) Values() url.Values {
	v := url.Values{}
	if a.All() {
		return v
	}
	if a.Page > 0 {
		v.Set("page", strconv.Itoa(a.Page))
	}
	if a.Limit > 0 {
		v.Set("limit", strconv.Itoa(a.Limit))
	}
	if a.SortBy != "" {
		v.Set("sortBy", a.SortBy)
		v.Set("sort", a.SortOrder)
	}
	return v
}

// Key is the normalized cache key for a. Equal args always produce equal
// keys; parameter order is fixed.
func (a ListQueryArgs) Key() string {
	if a.All() {
		return "*"
	}
	return a.Values().Encode()
}
