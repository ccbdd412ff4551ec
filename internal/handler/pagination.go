package handler

import (
	"net/http"
	"strconv"
)

const MaxLimit = 100

type PaginationParams struct {
	Page  int
	Limit int
}

// ParsePagination reads page and limit. A missing or invalid page is 1.
func ParsePagination(r *http.Request, defaultLimit int) PaginationParams {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit := ParseLimit(r, defaultLimit)

	if page < 1 {
		page = 1
	}

	return PaginationParams{
		Page:  page,
		Limit: limit,
	}
}

// ParseLimit falls back to defaultLimit for a missing or non-positive limit
// and caps it at MaxLimit.
func ParseLimit(r *http.Request, defaultLimit int) int {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		return defaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
