package services

import (
	"fmt"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Pagination is a validated page request.
type Pagination struct {
	Page  int
	Limit int
}

// ParsePagination reads the page and limit query values. Empty values take
// the defaults; anything below 1 or non-numeric is rejected and limit is
// capped at MaxLimit.
func ParsePagination(page, limit string) (Pagination, error) {
	p := Pagination{Page: DefaultPage, Limit: DefaultLimit}
	if page != "" {
		n, err := strconv.Atoi(page)
		if err != nil || n < 1 {
			return p, fmt.Errorf("page: must be a positive integer")
		}
		p.Page = n
	}
	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 {
			return p, fmt.Errorf("limit: must be a positive integer")
		}
		p.Limit = min(n, MaxLimit)
	}
	return p, nil
}

// Offset is the number of rows skipped before this page
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

func pagedList(key string, items interface{}, total int, p Pagination) payload {
	return payload{
		key:          items,
		"totalCount": total,
		"page":       p.Page,
		"limit":      p.Limit,
	}
}
