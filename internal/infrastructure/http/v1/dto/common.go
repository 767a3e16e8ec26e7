// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"resido/internal/core/id"
	"resido/internal/domain"
)

// --- Pagination ---

// PaginationResponse contains pagination metadata.
type PaginationResponse struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"perPage"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}

// NewPaginationResponse creates pagination response.
func NewPaginationResponse(page, perPage int, totalItems int64) PaginationResponse {
	totalPages := 0
	if perPage > 0 {
		totalPages = int(totalItems) / perPage
		if int(totalItems)%perPage > 0 {
			totalPages++
		}
	}
	return PaginationResponse{
		Page:       page,
		PerPage:    perPage,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}
}

// --- List Response ---

// ListResponse wraps one page of results.
type ListResponse[T any] struct {
	Items      []T                `json:"items"`
	Pagination PaginationResponse `json:"pagination"`
}

// FromListResult maps every item of res with fn.
func FromListResult[S, T any](res domain.ListResult[S], fn func(S) T) ListResponse[T] {
	items := make([]T, len(res.Items))
	for i, item := range res.Items {
		items[i] = fn(item)
	}
	return ListResponse[T]{
		Items:      items,
		Pagination: NewPaginationResponse(res.Page, res.PerPage, res.Total),
	}
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the body ErrorHandler renders.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
