package pagination

// DefaultLimit is the page size the API applies when a response omits it.
const DefaultLimit = 30

// Cursor tracks the position within a paginated resource.
type Cursor struct {
	Limit       int `json:"limit"`
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
	TotalCount  int `json:"total_count"`
}

// New returns the cursor a controller starts with: page 1 of 1.
func New(limit int) Cursor {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return Cursor{
		Limit:       limit,
		CurrentPage: 1,
		TotalPages:  1,
	}
}

// Normalize fills in what a partial meta object leaves out. A missing page
// count is derived from TotalCount and Limit.
func (c Cursor) Normalize() Cursor {
	if c.Limit <= 0 {
		c.Limit = DefaultLimit
	}
	if c.CurrentPage < 1 {
		c.CurrentPage = 1
	}
	if c.TotalCount < 0 {
		c.TotalCount = 0
	}
	if c.TotalPages <= 0 && c.TotalCount > 0 {
		c.TotalPages = TotalPagesFor(c.TotalCount, c.Limit)
	}
	if c.TotalPages < 0 {
		c.TotalPages = 0
	}
	return c
}

// HasNextPage reports whether a page after the current one exists.
func (c Cursor) HasNextPage() bool {
	return c.CurrentPage < c.TotalPages
}

// HasPreviousPage reports whether a page before the current one exists.
func (c Cursor) HasPreviousPage() bool {
	return c.CurrentPage > 1
}

// IsFirstPage reports whether the cursor is on page 1.
func (c Cursor) IsFirstPage() bool {
	return c.CurrentPage == 1
}

// IsLastPage reports whether the cursor is on the final page.
func (c Cursor) IsLastPage() bool {
	return c.CurrentPage == c.TotalPages
}

// Offset is the zero-based index of the first item on the current page.
func (c Cursor) Offset() int {
	if c.CurrentPage < 1 || c.Limit <= 0 {
		return 0
	}
	return (c.CurrentPage - 1) * c.Limit
}

// PageRange returns up to maxVisible page numbers centred on the current
// page and clamped to [1, TotalPages], for page pickers.
func (c Cursor) PageRange(maxVisible int) []int {
	if maxVisible <= 0 || c.TotalPages <= 0 {
		return nil
	}
	half := maxVisible / 2
	start := max(1, c.CurrentPage-half)
	end := min(c.TotalPages, start+maxVisible-1)
	start = max(1, end-maxVisible+1)

	pages := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	return pages
}

// TotalPagesFor returns ceil(totalCount/limit).
func TotalPagesFor(totalCount, limit int) int {
	if totalCount <= 0 || limit <= 0 {
		return 0
	}
	return (totalCount + limit - 1) / limit
}
