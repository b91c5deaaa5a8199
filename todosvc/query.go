package todosvc

import "math"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	maxPage = math.MaxInt32
)

// ListQuery selects a window of one owner's todos, optionally narrowed to
// those whose title or description contains Search, ignoring case.
type ListQuery struct {
	OwnerID uint64
	Page    int
	Limit   int
	Search  string
}

// NewListQuery clamps page to [1, maxPage] and limit to [1, MaxLimit].
// Callers substitute DefaultPage and DefaultLimit for absent values.
func NewListQuery(ownerID uint64, page, limit int, search string) ListQuery {
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return ListQuery{OwnerID: ownerID, Page: page, Limit: limit, Search: search}
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}
