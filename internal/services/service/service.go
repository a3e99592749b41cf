package service

import (
	"context"
	"errors"
	"sync"

	serviceserrors "fluxor/internal/services/errors"
	"fluxor/internal/services/repository"
	"fluxor/pkg/config"
	apperrors "fluxor/pkg/errors"
	"fluxor/pkg/model"
	"fluxor/pkg/sanitizer"
	"fluxor/pkg/validation"
)

type CatalogService interface {
	Create(ctx context.Context, service *model.Service) error
	GetByID(ctx context.Context, id string) (*model.Service, error)
	GetAll(ctx context.Context, onlyActive bool, kind string, limit int, offset int64) ([]*model.Service, int64, error)
	Update(ctx context.Context, id string, updates *model.ServiceUpdate) (*model.Service, error)
	Delete(ctx context.Context, id string) error
}

type catalogService struct {
	repo      repository.ServiceRepository
	validator *validation.Validator
	cfg       *config.Config
}

func NewCatalogService(repo repository.ServiceRepository, validator *validation.Validator, cfg *config.Config) CatalogService {
	return &catalogService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *catalogService) Create(ctx context.Context, service *model.Service) error {
	s.sanitize(service)
	service.Active = true
	if err := s.validate(service); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, service); err != nil {
		s.cfg.Log.Error("Failed to create service", "error", err)
		return apperrors.Internal("Failed to create service", err)
	}

	s.cfg.Log.Info("Service created successfully", "id", service.ID)
	return nil
}

func (s *catalogService) GetByID(ctx context.Context, id string) (*model.Service, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Service ID cannot be empty")
	}

	service, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, serviceserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Service", id)
		}
		if errors.Is(err, serviceserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid service ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve service", err)
	}

	return service, nil
}

func (s *catalogService) GetAll(ctx context.Context, onlyActive bool, kind string, limit int, offset int64) ([]*model.Service, int64, error) {
	var count int64
	var services []*model.Service
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, onlyActive, kind)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count services", "error", errCount)
			errCount = apperrors.Internal("Failed to count services", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		services, errFind = s.repo.FindAll(ctx, onlyActive, kind, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list services", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve services", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return services, count, nil
}

func (s *catalogService) Update(ctx context.Context, id string, updates *model.ServiceUpdate) (*model.Service, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Struct(updates); err != nil {
		s.cfg.Log.Warn("Service update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.merge(existing, updates)
	s.sanitize(merged)
	if err := s.validate(merged); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, serviceserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Service", id)
		}
		s.cfg.Log.Error("Failed to update service", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update service", err)
	}

	s.cfg.Log.Info("Service updated successfully", "id", id)
	return merged, nil
}

func (s *catalogService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Service ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, serviceserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Service", id)
		}
		if errors.Is(err, serviceserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid service ID format")
		}
		return apperrors.Internal("Failed to delete service", err)
	}

	s.cfg.Log.Info("Service deleted successfully", "id", id)
	return nil
}

// --- Helpers ---

func (s *catalogService) sanitize(svc *model.Service) {
	svc.Name = sanitizer.TrimAndNormalize(svc.Name)
	svc.Kind = sanitizer.TrimAndNormalize(svc.Kind)
	svc.Description = sanitizer.TrimAndNormalize(svc.Description)
}

func (s *catalogService) merge(existing *model.Service, updates *model.ServiceUpdate) *model.Service {
	merged := *existing

	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.Kind != "" {
		merged.Kind = updates.Kind
	}
	if updates.Description != nil {
		merged.Description = *updates.Description
	}
	if updates.Duration != nil {
		merged.Duration = *updates.Duration
	}
	if updates.Price != nil {
		merged.Price = *updates.Price
	}
	if updates.AllowedProfessionals != nil {
		merged.AllowedProfessionals = *updates.AllowedProfessionals
	}
	if updates.Active != nil {
		merged.Active = *updates.Active
	}

	return &merged
}

func (s *catalogService) validate(service *model.Service) error {
	if err := s.validator.Struct(service); err != nil {
		s.cfg.Log.Warn("Service validation failed", "error", err)
		return apperrors.Validation("Service validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}
