package optimizer

import "github.com/custodia-labs/phonematch-core/internal/core/domain"

// Paginate returns the requested page of items and its description.
// The page is clamped to [1, totalPages]; an empty result is page 1 of 0.
func Paginate[T any](items []T, page, pageSize int) ([]T, domain.Pagination) {
	pageSize = max(1, min(pageSize, MaxPageSize))
	total := len(items)
	totalPages := (total + pageSize - 1) / pageSize

	if page < 1 || totalPages == 0 {
		page = 1
	} else if page > totalPages {
		page = totalPages
	}

	p := domain.Pagination{
		CurrentPage: page,
		PageSize:    pageSize,
		TotalItems:  total,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
	if p.HasNext {
		next := page + 1
		p.NextPage = &next
	}
	if p.HasPrevious {
		prev := page - 1
		p.PreviousPage = &prev
	}

	start := (page - 1) * pageSize
	if start >= total {
		return []T{}, p
	}
	end := min(start+pageSize, total)
	return items[start:end], p
}
