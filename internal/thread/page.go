package thread

// MaxLimit caps the page size of any listing
const MaxLimit = 100

// Page is one slice of top-level nodes; replies are always complete
type Page struct {
	Page          int     `json:"page"`
	Limit         int     `json:"limit"`
	TotalTopLevel int     `json:"total_top_level"`
	Comments      []*Node `json:"comments"`
}

// Clamp forces page and limit to at least 1 and limit to at most MaxLimit
func Clamp(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// Offset returns the index of the first item on a page, saturating at total
// so very large page numbers cannot overflow.
func Offset(page, limit, total int) int {
	if page-1 > total/limit {
		return total
	}
	start := (page - 1) * limit
	if start > total {
		return total
	}
	return start
}

// Paginate slices the roots of forest. Pages past the end are empty.
func Paginate(forest []*Node, page, limit int) Page {
	page, limit = Clamp(page, limit)
	total := len(forest)

	start := Offset(page, limit, total)
	end := start + limit
	if end > total {
		end = total
	}

	items := make([]*Node, end-start)
	copy(items, forest[start:end])

	return Page{
		Page:          page,
		Limit:         limit,
		TotalTopLevel: total,
		Comments:      items,
	}
}
