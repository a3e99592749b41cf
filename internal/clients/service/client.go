package service

import (
	"context"
	"errors"
	"sync"

	clientserrors "fluxor/internal/clients/errors"
	"fluxor/internal/clients/repository"
	"fluxor/pkg/config"
	apperrors "fluxor/pkg/errors"
	"fluxor/pkg/model"
	"fluxor/pkg/sanitizer"
	"fluxor/pkg/validation"
)

type ClientService interface {
	Create(ctx context.Context, client *model.Client) error
	GetByID(ctx context.Context, id string) (*model.Client, error)
	GetAll(ctx context.Context, search string, limit int, offset int64) ([]*model.Client, int64, error)
	Update(ctx context.Context, id string, updates *model.ClientUpdate) (*model.Client, error)
	Delete(ctx context.Context, id string) error
}

type clientService struct {
	repo      repository.ClientRepository
	validator *validation.Validator
	cfg       *config.Config
}

func NewClientService(repo repository.ClientRepository, validator *validation.Validator, cfg *config.Config) ClientService {
	return &clientService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *clientService) Create(ctx context.Context, client *model.Client) error {
	s.sanitize(client)
	s.applyDefaults(client)
	if err := s.validate(client); err != nil {
		return err
	}
	if err := s.checkDocumentFree(ctx, client.Document, ""); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, client); err != nil {
		s.cfg.Log.Error("Failed to create client", "error", err)
		return apperrors.Internal("Failed to create client", err)
	}

	s.cfg.Log.Info("Client created successfully", "id", client.ID)
	return nil
}

func (s *clientService) GetByID(ctx context.Context, id string) (*model.Client, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Client ID cannot be empty")
	}

	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, clientserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Client", id)
		}
		if errors.Is(err, clientserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid client ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve client", err)
	}

	return client, nil
}

func (s *clientService) GetAll(ctx context.Context, search string, limit int, offset int64) ([]*model.Client, int64, error) {
	var count int64
	var clients []*model.Client
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, search)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count clients", "error", errCount)
			errCount = apperrors.Internal("Failed to count clients", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		clients, errFind = s.repo.FindAll(ctx, search, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list clients", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve clients", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return clients, count, nil
}

func (s *clientService) Update(ctx context.Context, id string, updates *model.ClientUpdate) (*model.Client, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Struct(updates); err != nil {
		s.cfg.Log.Warn("Client update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.merge(existing, updates)
	s.sanitize(merged)
	if err := s.validate(merged); err != nil {
		return nil, err
	}
	if merged.Document != existing.Document {
		if err := s.checkDocumentFree(ctx, merged.Document, id); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, clientserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Client", id)
		}
		s.cfg.Log.Error("Failed to update client", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update client", err)
	}

	s.cfg.Log.Info("Client updated successfully", "id", id)
	return merged, nil
}

func (s *clientService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Client ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, clientserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Client", id)
		}
		if errors.Is(err, clientserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid client ID format")
		}
		return apperrors.Internal("Failed to delete client", err)
	}

	s.cfg.Log.Info("Client deleted successfully", "id", id)
	return nil
}

// --- Helpers ---

func (s *clientService) sanitize(c *model.Client) {
	c.Name = sanitizer.NormalizeName(c.Name)
	c.Email = sanitizer.NormalizeEmail(c.Email)
	c.Phone = sanitizer.SanitizePhone(c.Phone)
	c.Document = sanitizer.DigitsOnly(c.Document)
	c.Address = sanitizer.TrimAndNormalize(c.Address)
	c.Notes = sanitizer.TrimAndNormalize(c.Notes)
}

func (s *clientService) applyDefaults(c *model.Client) {
	c.Active = true
}

func (s *clientService) merge(existing *model.Client, updates *model.ClientUpdate) *model.Client {
	merged := *existing

	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.Email != "" {
		merged.Email = updates.Email
	}
	if updates.Phone != "" {
		merged.Phone = updates.Phone
	}
	if updates.Document != "" {
		merged.Document = updates.Document
	}
	if updates.BirthDate != nil {
		merged.BirthDate = updates.BirthDate
	}
	if updates.Address != nil {
		merged.Address = *updates.Address
	}
	if updates.Notes != nil {
		merged.Notes = *updates.Notes
	}
	if updates.Active != nil {
		merged.Active = *updates.Active
	}

	return &merged
}

// checkDocumentFree rejects a document number already registered to a
// different client. Documents are optional, an empty one is always free.
func (s *clientService) checkDocumentFree(ctx context.Context, document, excludeID string) error {
	if document == "" {
		return nil
	}

	existing, err := s.repo.FindByDocument(ctx, document)
	if err != nil {
		if errors.Is(err, clientserrors.ErrNotFound) {
			return nil
		}
		return apperrors.Internal("Failed to check document uniqueness", err)
	}
	if existing.ID == excludeID {
		return nil
	}

	return apperrors.Conflict("A client with this document already exists")
}

func (s *clientService) validate(client *model.Client) error {
	if err := s.validator.Struct(client); err != nil {
		s.cfg.Log.Warn("Client validation failed", "error", err)
		return apperrors.Validation("Client validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}
