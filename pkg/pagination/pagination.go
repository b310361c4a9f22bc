package pagination

const (
	// FirstPage is the page requested when none is provided.
	FirstPage = 1
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 10
	// MaxLimit caps how many rows any page can request.
	MaxLimit = 100
)

// Params holds page-number pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Normalize applies the page and limit defaults.
func (p Params) Normalize() Params {
	return Params{Page: NormalizePage(p.Page), Limit: NormalizeLimit(p.Limit)}
}

// NormalizePage clamps the page number to the first page.
func NormalizePage(page int) int {
	if page < FirstPage {
		return FirstPage
	}
	return page
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Page describes where a listing sits within its result set.
type Page struct {
	Current int `json:"currentPage"`
	Total   int `json:"totalPages"`
}

// NewPage normalizes the values reported by the catalog. An empty result set
// still has one page.
func NewPage(current, total int) Page {
	if total < FirstPage {
		total = FirstPage
	}
	current = NormalizePage(current)
	if current > total {
		current = total
	}
	return Page{Current: current, Total: total}
}

// HasPrevious is false on the first page.
func (p Page) HasPrevious() bool {
	return p.Current > FirstPage
}

// HasNext is false on the last page.
func (p Page) HasNext() bool {
	return p.Current < p.Total
}

// Previous returns the previous page number, or the current page on the first page.
func (p Page) Previous() int {
	if !p.HasPrevious() {
		return p.Current
	}
	return p.Current - 1
}

// Next returns the next page number, or the current page on the last page.
func (p Page) Next() int {
	if !p.HasNext() {
		return p.Current
	}
	return p.Current + 1
}
