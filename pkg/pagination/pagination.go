package pagination

import (
	"github.com/cobaltcommerce/cobalt-backend/pkg/types"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many rows any list query can request.
	MaxLimit = 100
)

// Params holds offset pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Normalize clamps page and limit into their allowed ranges.
func (p Params) Normalize() Params {
	page := p.Page
	if page <= 0 {
		page = 1
	}
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Params{Page: page, Limit: limit}
}

// Offset returns the row offset for the normalized page.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// Meta renders the response pagination block for the given total row count.
func (p Params) Meta(total int64) types.Pagination {
	n := p.Normalize()
	totalPages := int(total / int64(n.Limit))
	if total%int64(n.Limit) != 0 {
		totalPages++
	}
	return types.Pagination{
		Total:      total,
		Page:       n.Page,
		Limit:      n.Limit,
		TotalPages: totalPages,
	}
}
