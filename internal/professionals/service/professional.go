package service

import (
	"context"
	"errors"
	"sync"

	professionalserrors "fluxor/internal/professionals/errors"
	"fluxor/internal/professionals/repository"
	"fluxor/pkg/config"
	apperrors "fluxor/pkg/errors"
	"fluxor/pkg/model"
	"fluxor/pkg/sanitizer"
	"fluxor/pkg/validation"
)

type ProfessionalService interface {
	Create(ctx context.Context, professional *model.Professional) error
	GetByID(ctx context.Context, id string) (*model.Professional, error)
	GetAll(ctx context.Context, onlyActive bool, limit int, offset int64) ([]*model.Professional, int64, error)
	Update(ctx context.Context, id string, updates *model.ProfessionalUpdate) (*model.Professional, error)
	Delete(ctx context.Context, id string) error
}

type professionalService struct {
	repo      repository.ProfessionalRepository
	validator *validation.Validator
	cfg       *config.Config
}

func NewProfessionalService(repo repository.ProfessionalRepository, validator *validation.Validator, cfg *config.Config) ProfessionalService {
	return &professionalService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *professionalService) Create(ctx context.Context, professional *model.Professional) error {
	s.sanitize(professional)
	professional.Active = true
	if err := s.validate(professional); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, professional); err != nil {
		s.cfg.Log.Error("Failed to create professional", "error", err)
		return apperrors.Internal("Failed to create professional", err)
	}

	s.cfg.Log.Info("Professional created successfully", "id", professional.ID)
	return nil
}

func (s *professionalService) GetByID(ctx context.Context, id string) (*model.Professional, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Professional ID cannot be empty")
	}

	professional, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, professionalserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Professional", id)
		}
		if errors.Is(err, professionalserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid professional ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve professional", err)
	}

	return professional, nil
}

func (s *professionalService) GetAll(ctx context.Context, onlyActive bool, limit int, offset int64) ([]*model.Professional, int64, error) {
	var count int64
	var professionals []*model.Professional
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, onlyActive)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count professionals", "error", errCount)
			errCount = apperrors.Internal("Failed to count professionals", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		professionals, errFind = s.repo.FindAll(ctx, onlyActive, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list professionals", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve professionals", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return professionals, count, nil
}

func (s *professionalService) Update(ctx context.Context, id string, updates *model.ProfessionalUpdate) (*model.Professional, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Struct(updates); err != nil {
		s.cfg.Log.Warn("Professional update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.merge(existing, updates)
	s.sanitize(merged)
	if err := s.validate(merged); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, professionalserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Professional", id)
		}
		s.cfg.Log.Error("Failed to update professional", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update professional", err)
	}

	s.cfg.Log.Info("Professional updated successfully", "id", id)
	return merged, nil
}

func (s *professionalService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Professional ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, professionalserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Professional", id)
		}
		if errors.Is(err, professionalserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid professional ID format")
		}
		return apperrors.Internal("Failed to delete professional", err)
	}

	s.cfg.Log.Info("Professional deleted successfully", "id", id)
	return nil
}

// --- Helpers ---

func (s *professionalService) sanitize(p *model.Professional) {
	p.Name = sanitizer.NormalizeName(p.Name)
	p.Specialty = sanitizer.TrimAndNormalize(p.Specialty)
	p.Registration = sanitizer.TrimAndNormalize(p.Registration)
	p.Phone = sanitizer.SanitizePhone(p.Phone)
	p.Email = sanitizer.NormalizeEmail(p.Email)
}

func (s *professionalService) merge(existing *model.Professional, updates *model.ProfessionalUpdate) *model.Professional {
	merged := *existing

	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.Specialty != "" {
		merged.Specialty = updates.Specialty
	}
	if updates.Registration != nil {
		merged.Registration = *updates.Registration
	}
	if updates.Phone != "" {
		merged.Phone = updates.Phone
	}
	if updates.Email != "" {
		merged.Email = updates.Email
	}
	if updates.Active != nil {
		merged.Active = *updates.Active
	}

	return &merged
}

func (s *professionalService) validate(professional *model.Professional) error {
	if err := s.validator.Struct(professional); err != nil {
		s.cfg.Log.Warn("Professional validation failed", "error", err)
		return apperrors.Validation("Professional validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}
