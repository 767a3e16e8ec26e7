// Package domain provides the contracts shared by the domain packages.
package domain

import (
	"context"

	"resido/internal/core/id"
	"resido/internal/domain/filter"
)

// ListResult is one page of a listing.
type ListResult[T any] struct {
	Items   []T   `json:"items"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"perPage"`
}

// NewListResult builds a result for the given page window.
func NewListResult[T any](items []T, total int64, page filter.Page) ListResult[T] {
	if items == nil {
		items = []T{}
	}
	return ListResult[T]{
		Items:   items,
		Total:   total,
		Page:    page.Number(),
		PerPage: page.Limit,
	}
}

// CRUDRepository is the persistence contract for simple table-backed entities.
type CRUDRepository[T any] interface {
	Create(ctx context.Context, entity T) error
	GetByID(ctx context.Context, id id.ID) (T, error)
	Update(ctx context.Context, entity T) error
	Delete(ctx context.Context, id id.ID) error
}

// HookEvent represents lifecycle event type.
type HookEvent string

const (
	BeforeCreate HookEvent = "before_create"
	BeforeUpdate HookEvent = "before_update"
	BeforeDelete HookEvent = "before_delete"
)

// Hook is a function that runs at specific lifecycle points.
type Hook[T any] func(ctx context.Context, entity T) error

// HookRegistry stores lifecycle hooks for an entity type.
type HookRegistry[T any] struct {
	hooks map[HookEvent][]Hook[T]
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{hooks: make(map[HookEvent][]Hook[T])}
}

// On registers a hook for the specified event.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes the hooks of event in registration order, stopping at the first error.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, entity T) error {
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}
