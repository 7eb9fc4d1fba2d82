package catalog

// Paginate returns the rows of the given 1-based page and the metadata that
// describes it. Pages past the end are empty.
func Paginate(books []Book, page, limit int) ([]Book, Pagination) {
	if page < 1 {
		page = 1
	}
	total := len(books)
	if limit < 1 {
		limit = max(total, 1)
	}
	totalPages := (total + limit - 1) / limit
	meta := Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalBooks:  total,
		Limit:       limit,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}
	start := (page - 1) * limit
	if start >= total {
		return []Book{}, meta
	}
	end := min(start+limit, total)
	return books[start:end], meta
}
