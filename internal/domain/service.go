package domain

import (
	"context"
	"fmt"

	"resido/internal/core/apperror"
	"resido/internal/core/entity"
	"resido/internal/core/id"
	"resido/internal/core/tx"
)

// CRUDService runs validation, hooks and the write transaction around a CRUDRepository.
type CRUDService[T entity.Validatable] struct {
	repo       CRUDRepository[T]
	txManager  tx.Manager
	hooks      *HookRegistry[T]
	entityName string
}

// NewCRUDService creates a CRUD service for entityName.
func NewCRUDService[T entity.Validatable](repo CRUDRepository[T], txm tx.Manager, entityName string) *CRUDService[T] {
	return &CRUDService[T]{
		repo:       repo,
		txManager:  txm,
		hooks:      NewHookRegistry[T](),
		entityName: entityName,
	}
}

// Hooks returns the hook registry for external registration.
func (s *CRUDService[T]) Hooks() *HookRegistry[T] {
	return s.hooks
}

// Create validates and inserts entity.
func (s *CRUDService[T]) Create(ctx context.Context, e T) error {
	if err := s.validate(ctx, e); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.hooks.Run(ctx, BeforeCreate, e); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, e); err != nil {
			return fmt.Errorf("create %s: %w", s.entityName, err)
		}
		return nil
	})
}

// GetByID loads one entity.
func (s *CRUDService[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	e, err := s.repo.GetByID(ctx, entityID)
	if err != nil {
		return e, s.normalizeGetErr(err, entityID)
	}
	return e, nil
}

// Update validates and saves entity.
func (s *CRUDService[T]) Update(ctx context.Context, e T) error {
	if err := s.validate(ctx, e); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.hooks.Run(ctx, BeforeUpdate, e); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, e); err != nil {
			return fmt.Errorf("update %s: %w", s.entityName, err)
		}
		return nil
	})
}

// Delete removes the entity.
func (s *CRUDService[T]) Delete(ctx context.Context, entityID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		e, err := s.repo.GetByID(ctx, entityID)
		if err != nil {
			return s.normalizeGetErr(err, entityID)
		}
		if err := s.hooks.Run(ctx, BeforeDelete, e); err != nil {
			return err
		}
		return s.repo.Delete(ctx, entityID)
	})
}

func (s *CRUDService[T]) validate(ctx context.Context, e T) error {
	err := e.Validate(ctx)
	if err == nil || apperror.IsAppError(err) {
		return err
	}
	return apperror.NewValidation(err.Error())
}

func (s *CRUDService[T]) normalizeGetErr(err error, entityID id.ID) error {
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(s.entityName, entityID.String())
	}
	if apperror.IsAppError(err) {
		return err
	}
	return fmt.Errorf("get %s %s: %w", s.entityName, entityID, err)
}
