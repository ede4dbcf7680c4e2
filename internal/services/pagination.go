package services

import (
	"katalog/internal/apperrors"
	"katalog/internal/repositories"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// normalizePagination applies defaults and validates pagination input.
// sortBy is checked against a per-resource whitelist so the value can be
// interpolated into an ORDER BY clause.
func normalizePagination(page, limit int, sortBy, sortOrder string, allowedSort map[string]bool, defaultSort string) (repositories.Pagination, error) {
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = defaultPageSize
	}
	if page < 1 {
		return repositories.Pagination{}, apperrors.NewValidation("page must be greater than 0")
	}
	if limit < 1 || limit > maxPageSize {
		return repositories.Pagination{}, apperrors.NewValidation("limit must be between 1 and %d", maxPageSize)
	}

	if sortBy == "" {
		sortBy = defaultSort
	}
	if !allowedSort[sortBy] {
		return repositories.Pagination{}, apperrors.NewValidation("cannot sort by %q", sortBy)
	}

	switch sortOrder {
	case "":
		sortOrder = "DESC"
	case "ASC", "DESC":
	default:
		return repositories.Pagination{}, apperrors.NewValidation("sort order must be ASC or DESC")
	}

	return repositories.Pagination{
		Page:      page,
		Limit:     limit,
		SortBy:    sortBy,
		SortOrder: sortOrder,
	}, nil
}
