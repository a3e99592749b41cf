package service

import (
	"context"
	"errors"
	"sync"

	clientsrepo "fluxor/internal/clients/repository"
	servicesrepo "fluxor/internal/services/repository"
	waitlisterrors "fluxor/internal/waitlist/errors"
	"fluxor/internal/waitlist/repository"
	"fluxor/pkg/config"
	apperrors "fluxor/pkg/errors"
	"fluxor/pkg/model"
	"fluxor/pkg/sanitizer"
	"fluxor/pkg/validation"
)

// Placeholders rendered when a referenced document no longer exists.
// Reads never fail because a join target was deleted.
const (
	PlaceholderClient  = "Client not found"
	PlaceholderService = "Service not found"
)

type WaitlistService interface {
	Create(ctx context.Context, entry *model.WaitlistEntry) error
	GetByID(ctx context.Context, id string) (*model.WaitlistEntry, error)
	GetAll(ctx context.Context, status string, limit int, offset int64) ([]*model.WaitlistEntryExpanded, int64, error)
	Update(ctx context.Context, id string, updates *model.WaitlistEntryUpdate) (*model.WaitlistEntry, error)
	Delete(ctx context.Context, id string) error
}

type waitlistService struct {
	repo         repository.WaitlistRepository
	clientsRepo  clientsrepo.ClientRepository
	servicesRepo servicesrepo.ServiceRepository
	validator    *validation.Validator
	cfg          *config.Config
}

func NewWaitlistService(
	repo repository.WaitlistRepository,
	clientsRepo clientsrepo.ClientRepository,
	servicesRepo servicesrepo.ServiceRepository,
	validator *validation.Validator,
	cfg *config.Config,
) WaitlistService {
	return &waitlistService{
		repo:         repo,
		clientsRepo:  clientsRepo,
		servicesRepo: servicesRepo,
		validator:    validator,
		cfg:          cfg,
	}
}

func (s *waitlistService) Create(ctx context.Context, entry *model.WaitlistEntry) error {
	entry.Notes = sanitizer.TrimAndNormalize(entry.Notes)
	s.applyDefaults(entry)
	if err := s.validate(entry); err != nil {
		return err
	}

	// The referenced client must exist; the queue is staff-curated.
	if _, err := s.clientsRepo.FindByID(ctx, entry.ClientID); err != nil {
		return apperrors.NotFoundWithID("Client", entry.ClientID)
	}
	if _, err := s.servicesRepo.FindByID(ctx, entry.ServiceID); err != nil {
		return apperrors.NotFoundWithID("Service", entry.ServiceID)
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		s.cfg.Log.Error("Failed to create waitlist entry", "error", err)
		return apperrors.Internal("Failed to create waitlist entry", err)
	}

	s.cfg.Log.Info("Waitlist entry created successfully", "id", entry.ID, "priority", entry.Priority)
	return nil
}

func (s *waitlistService) GetByID(ctx context.Context, id string) (*model.WaitlistEntry, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Waitlist entry ID cannot be empty")
	}

	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, waitlisterrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Waitlist entry", id)
		}
		if errors.Is(err, waitlisterrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid waitlist entry ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve waitlist entry", err)
	}

	return entry, nil
}

func (s *waitlistService) GetAll(ctx context.Context, status string, limit int, offset int64) ([]*model.WaitlistEntryExpanded, int64, error) {
	var count int64
	var entries []*model.WaitlistEntry
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, status)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count waitlist entries", "error", errCount)
			errCount = apperrors.Internal("Failed to count waitlist entries", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		entries, errFind = s.repo.FindAll(ctx, status, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list waitlist entries", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve waitlist entries", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	expanded, err := s.expand(ctx, entries)
	if err != nil {
		return nil, 0, err
	}
	return expanded, count, nil
}

func (s *waitlistService) Update(ctx context.Context, id string, updates *model.WaitlistEntryUpdate) (*model.WaitlistEntry, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Struct(updates); err != nil {
		s.cfg.Log.Warn("Waitlist update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.merge(existing, updates)
	if err := s.validate(merged); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, waitlisterrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Waitlist entry", id)
		}
		s.cfg.Log.Error("Failed to update waitlist entry", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update waitlist entry", err)
	}

	s.cfg.Log.Info("Waitlist entry updated successfully", "id", id)
	return merged, nil
}

func (s *waitlistService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Waitlist entry ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, waitlisterrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Waitlist entry", id)
		}
		if errors.Is(err, waitlisterrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid waitlist entry ID format")
		}
		return apperrors.Internal("Failed to delete waitlist entry", err)
	}

	s.cfg.Log.Info("Waitlist entry deleted successfully", "id", id)
	return nil
}

// --- Helpers ---

func (s *waitlistService) applyDefaults(e *model.WaitlistEntry) {
	if e.Status == "" {
		e.Status = model.WaitlistWaiting
	}
	if e.Priority == 0 {
		e.Priority = 1
	}
}

func (s *waitlistService) merge(existing *model.WaitlistEntry, updates *model.WaitlistEntryUpdate) *model.WaitlistEntry {
	merged := *existing

	if updates.ClientID != "" {
		merged.ClientID = updates.ClientID
	}
	if updates.ServiceID != "" {
		merged.ServiceID = updates.ServiceID
	}
	if updates.Priority != nil {
		merged.Priority = *updates.Priority
	}
	if updates.Notes != nil {
		merged.Notes = sanitizer.TrimAndNormalize(*updates.Notes)
	}
	if updates.Status != "" {
		merged.Status = updates.Status
	}

	return &merged
}

func (s *waitlistService) validate(entry *model.WaitlistEntry) error {
	if err := s.validator.Struct(entry); err != nil {
		s.cfg.Log.Warn("Waitlist entry validation failed", "error", err)
		return apperrors.Validation("Waitlist entry validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

// expand joins client and service display fields in two batched lookups.
func (s *waitlistService) expand(ctx context.Context, entries []*model.WaitlistEntry) ([]*model.WaitlistEntryExpanded, error) {
	clientIDs := make([]string, 0, len(entries))
	serviceIDs := make([]string, 0, len(entries))
	for _, e := range entries {
		clientIDs = append(clientIDs, e.ClientID)
		serviceIDs = append(serviceIDs, e.ServiceID)
	}

	clients, err := s.clientsRepo.FindByIDs(ctx, clientIDs)
	if err != nil {
		return nil, apperrors.Internal("Failed to resolve waitlist clients", err)
	}
	services, err := s.servicesRepo.FindByIDs(ctx, serviceIDs)
	if err != nil {
		return nil, apperrors.Internal("Failed to resolve waitlist services", err)
	}

	out := make([]*model.WaitlistEntryExpanded, 0, len(entries))
	for _, e := range entries {
		expanded := &model.WaitlistEntryExpanded{
			WaitlistEntry: *e,
			ClientName:    PlaceholderClient,
			ServiceName:   PlaceholderService,
		}
		if c, ok := clients[e.ClientID]; ok {
			expanded.ClientName = c.Name
			expanded.ClientPhone = c.Phone
		}
		if svc, ok := services[e.ServiceID]; ok {
			expanded.ServiceName = svc.Name
		}
		out = append(out, expanded)
	}
	return out, nil
}
