// Package paging provides offset pagination shared by list endpoints.
package paging

// Params holds the unified pagination parameters
type Params struct {
	Page  int `json:"page" form:"page"`
	Limit int `json:"limit" form:"limit"`
}

// Result holds the pagination result
type Result[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	NumOfPages int64 `json:"num_of_pages"`
}

const (
	defaultLimit = 10
	maxLimit     = 100
)

// NormalizeParams ensures that Page and Limit are within an acceptable range
func NormalizeParams(params Params) Params {
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Limit <= 0 || params.Limit > maxLimit {
		params.Limit = defaultLimit
	}
	return params
}

// Skip returns the number of documents to skip for the params.
func (p Params) Skip() int64 {
	return int64(p.Page-1) * int64(p.Limit)
}

// NewResult builds a Result from items and the total match count.
func NewResult[T any](items []T, total int64, params Params) *Result[T] {
	if items == nil {
		items = make([]T, 0)
	}
	numOfPages := total / int64(params.Limit)
	if total%int64(params.Limit) != 0 {
		numOfPages++
	}
	return &Result[T]{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		Limit:      params.Limit,
		NumOfPages: numOfPages,
	}
}
