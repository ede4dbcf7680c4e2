package repositories

// Pagination carries page/limit and sorting options for list queries.
// Services validate the values; repositories only apply them.
type Pagination struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string // "ASC" or "DESC"
}

// Offset returns the row offset for the current page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}
