package response

type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int64 `json:"total_pages"`
	TotalItems int64 `json:"total_items"`
	HasMore    bool  `json:"has_more"`
	From       int   `json:"from"`
	To         int   `json:"to"`
}

// NewPagination describes a page of itemCount rows out of total.
func NewPagination(page, pageSize int, total int64, itemCount int) *Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	totalPages := (total + int64(pageSize) - 1) / int64(pageSize)
	p := &Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		TotalItems: total,
		HasMore:    int64(page) < totalPages,
	}
	if itemCount > 0 {
		p.From = (page-1)*pageSize + 1
		p.To = p.From + itemCount - 1
	}
	return p
}
