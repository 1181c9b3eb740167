package catalog

import (
	"math"
	"strconv"
	"strings"
)

const (
	DefaultPage  int64 = 1
	DefaultLimit int64 = 8
	MaxLimit     int64 = 100
)

// PageLimits bounds pagination. Zero values fall back to the package defaults.
type PageLimits struct {
	DefaultLimit int64
	MaxLimit     int64
}

// Pagination is the resolved page window. Skip is (Page-1)*Limit.
type Pagination struct {
	Page  int64
	Limit int64
	Skip  int64
}

// Paginate coerces raw page and limit values. Missing, non-numeric and
// non-positive values take the defaults; limit is clamped to the maximum.
func Paginate(pageRaw, limitRaw string, limits PageLimits) Pagination {
	defLimit := limits.DefaultLimit
	if defLimit <= 0 {
		defLimit = DefaultLimit
	}
	maxLimit := limits.MaxLimit
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	if defLimit > maxLimit {
		defLimit = maxLimit
	}

	page := positiveOr(pageRaw, DefaultPage)
	limit := positiveOr(limitRaw, defLimit)
	if limit > maxLimit {
		limit = maxLimit
	}
	if page > math.MaxInt64/limit {
		page = math.MaxInt64 / limit
	}
	return Pagination{Page: page, Limit: limit, Skip: (page - 1) * limit}
}

// TotalPages is ceil(total/limit).
func (p Pagination) TotalPages(total int64) int64 {
	if total <= 0 || p.Limit <= 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}

func positiveOr(raw string, fallback int64) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
