// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"strings"
	"time"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/types"
	"bizbook/internal/domain"
)

// --- Dates ---

// DateLayout is the short date form accepted next to RFC3339.
const DateLayout = types.DateLayout

// Date is a JSON date that accepts both RFC3339 and YYYY-MM-DD.
type Date = types.Date

// ParseDate accepts RFC3339 or YYYY-MM-DD and returns UTC.
func ParseDate(s string) (time.Time, error) {
	return types.ParseDate(s)
}

// OptionalDate parses a query parameter; empty yields nil.
func OptionalDate(name, value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := ParseDate(value)
	if err != nil {
		return nil, apperror.NewValidation(err.Error()).WithDetail("field", name)
	}
	return &t, nil
}

// --- List Response ---

// ListResponse wraps list results with pagination.
type ListResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// NewListResponse maps a domain page to response items.
func NewListResponse[E, T any](res domain.ListResult[E], mapFn func(E) T) ListResponse[T] {
	items := make([]T, len(res.Items))
	for i, item := range res.Items {
		items[i] = mapFn(item)
	}
	return ListResponse[T]{
		Items:      items,
		TotalCount: res.TotalCount,
		Limit:      res.Limit,
		Offset:     res.Offset,
	}
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// --- Success Response ---

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// --- Deletion ---

// SetDeletionMarkRequest toggles the soft-delete mark of a catalog entry.
type SetDeletionMarkRequest struct {
	Marked bool `json:"marked"`
}
