package dashboard

import "github.com/Ashfaaq98/health-console/internal/health"

// PageSize is the number of events per page.
const PageSize = 10

// TotalPages returns ceil(n / PageSize).
func TotalPages(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + PageSize - 1) / PageSize
}

// PageBounds returns the half-open index range of page within n events.
func PageBounds(page, n int) (start, end int, err error) {
	if page < 1 || page > TotalPages(n) {
		return 0, 0, health.ErrInvalidPage
	}
	start = (page - 1) * PageSize
	end = start + PageSize
	if end > n {
		end = n
	}
	return start, end, nil
}
