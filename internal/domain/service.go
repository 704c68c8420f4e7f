package domain

import (
	"context"
	"fmt"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/tx"
	"pharmaledger/pkg/logger"
)

// CatalogService provides validated CRUD for a pharmacy-scoped catalog.
type CatalogService[T CatalogEntity] struct {
	repo       CatalogRepository[T]
	txManager  tx.Manager
	hooks      *HookRegistry[T]
	entityName string
}

// NewCatalogService creates a new catalog service.
func NewCatalogService[T CatalogEntity](repo CatalogRepository[T], txm tx.Manager, entityName string) *CatalogService[T] {
	return &CatalogService[T]{
		repo:       repo,
		txManager:  txm,
		hooks:      NewHookRegistry[T](),
		entityName: entityName,
	}
}

// Hooks returns the hook registry for external registration.
func (s *CatalogService[T]) Hooks() *HookRegistry[T] {
	return s.hooks
}

func (s *CatalogService[T]) validate(entity T) error {
	if err := entity.Validate(); err != nil {
		if apperror.IsAppError(err) {
			return err
		}
		return apperror.NewValidation(err.Error())
	}
	return nil
}

func (s *CatalogService[T]) normalizeGetErr(err error, entityID id.ID) error {
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(s.entityName, entityID.String())
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewInternal(err).WithDetail("entity", s.entityName)
}

// Create validates and stores a new entity.
func (s *CatalogService[T]) Create(ctx context.Context, entity T) error {
	if err := s.validate(entity); err != nil {
		return err
	}
	if err := s.hooks.Run(ctx, BeforeCreate, entity); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, entity); err != nil {
			return fmt.Errorf("create %s: %w", s.entityName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, AfterCreate, entity); err != nil {
		logger.Warn(ctx, "after-create hook failed", "entity", s.entityName, "error", err)
	}
	return nil
}

// GetByID retrieves entity by ID.
func (s *CatalogService[T]) GetByID(ctx context.Context, pharmacyID, entityID id.ID) (T, error) {
	entity, err := s.repo.GetByID(ctx, pharmacyID, entityID)
	if err != nil {
		return entity, s.normalizeGetErr(err, entityID)
	}
	return entity, nil
}

// Update validates and stores an existing entity.
func (s *CatalogService[T]) Update(ctx context.Context, entity T) error {
	if err := s.validate(entity); err != nil {
		return err
	}
	if err := s.hooks.Run(ctx, BeforeUpdate, entity); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, entity); err != nil {
			if apperror.IsAppError(err) {
				return err
			}
			return fmt.Errorf("update %s: %w", s.entityName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, AfterUpdate, entity); err != nil {
		logger.Warn(ctx, "after-update hook failed", "entity", s.entityName, "error", err)
	}
	return nil
}

// Delete marks the entity deleted. Referencing documents keep their copy of its name.
func (s *CatalogService[T]) Delete(ctx context.Context, pharmacyID, entityID id.ID) error {
	entity, err := s.repo.GetByID(ctx, pharmacyID, entityID)
	if err != nil {
		return s.normalizeGetErr(err, entityID)
	}
	if err := s.hooks.Run(ctx, BeforeDelete, entity); err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.SetDeletionMark(ctx, pharmacyID, entityID, true)
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", s.entityName, err)
	}

	if err := s.hooks.Run(ctx, AfterDelete, entity); err != nil {
		logger.Warn(ctx, "after-delete hook failed", "entity", s.entityName, "error", err)
	}
	return nil
}

// List retrieves entities with filtering.
func (s *CatalogService[T]) List(ctx context.Context, pharmacyID id.ID, filter ListFilter) (ListResult[T], error) {
	return s.repo.List(ctx, pharmacyID, filter.Normalized())
}
