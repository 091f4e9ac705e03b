package pagination

const (
	// CatalogPageSize is the number of books per catalog page.
	CatalogPageSize = 6
	// WindowSize is how many page links are shown at once.
	WindowSize = 5
)

// Page describes one page of a numbered listing plus its link window.
type Page struct {
	Number         int   `json:"page"`
	PageSize       int   `json:"page_size"`
	TotalItems     int64 `json:"total_items"`
	TotalPages     int   `json:"total_pages"`
	HasPrevious    bool  `json:"has_previous"`
	HasNext        bool  `json:"has_next"`
	WindowStart    int   `json:"window_start"`
	WindowEnd      int   `json:"window_end"`
	HasPrevWindow  bool  `json:"has_prev_window"`
	HasNextWindow  bool  `json:"has_next_window"`
	PrevWindowPage int   `json:"prev_window_page"`
	NextWindowPage int   `json:"next_window_page"`
}

// Offset is the row offset of the page's first item.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PageSize
}

// Pages lists the page numbers in the current window.
func (p Page) Pages() []int {
	out := make([]int, 0, p.WindowEnd-p.WindowStart+1)
	for n := p.WindowStart; n <= p.WindowEnd; n++ {
		out = append(out, n)
	}
	return out
}

// NewPage clamps the requested page into [1, totalPages] and computes the
// sliding window of WindowSize links around it. An empty listing still has one page.
func NewPage(requested int, pageSize int, totalItems int64) Page {
	if pageSize <= 0 {
		pageSize = CatalogPageSize
	}
	totalPages := int((totalItems + int64(pageSize) - 1) / int64(pageSize))
	if totalPages < 1 {
		totalPages = 1
	}

	page := requested
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := ((page-1)/WindowSize)*WindowSize + 1
	end := start + WindowSize - 1
	if end > totalPages {
		end = totalPages
	}

	prev := start - 1
	if prev < 1 {
		prev = 1
	}
	next := end + 1
	if next > totalPages {
		next = totalPages
	}

	return Page{
		Number:         page,
		PageSize:       pageSize,
		TotalItems:     totalItems,
		TotalPages:     totalPages,
		HasPrevious:    page > 1,
		HasNext:        page < totalPages,
		WindowStart:    start,
		WindowEnd:      end,
		HasPrevWindow:  start > 1,
		HasNextWindow:  end < totalPages,
		PrevWindowPage: prev,
		NextWindowPage: next,
	}
}
