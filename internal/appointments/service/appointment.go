package service

import (
	"context"
	"errors"
	"sync"
	"time"

	appointmentserrors "fluxor/internal/appointments/errors"
	"fluxor/internal/appointments/repository"
	clientsrepo "fluxor/internal/clients/repository"
	"fluxor/internal/events"
	professionalsrepo "fluxor/internal/professionals/repository"
	servicesrepo "fluxor/internal/services/repository"
	"fluxor/pkg/config"
	apperrors "fluxor/pkg/errors"
	"fluxor/pkg/model"
	"fluxor/pkg/sanitizer"
	"fluxor/pkg/timezone"
	"fluxor/pkg/validation"
)

// Placeholders rendered on the read side when a join target is absent.
// An appointment without a client is a valid anonymous booking; a dangling
// reference means the target was deleted after booking. Neither fails the
// read.
const (
	PlaceholderClientNotInformed   = "Client not informed"
	PlaceholderClientMissing       = "Client not found"
	PlaceholderProfessionalMissing = "Professional not found"
	PlaceholderServiceMissing      = "Service not found"
)

type AppointmentService interface {
	Book(ctx context.Context, req *model.AppointmentRequest, origin string) (*model.Appointment, error)
	GetByID(ctx context.Context, id string) (*model.AppointmentExpanded, error)
	GetAll(ctx context.Context, filter repository.Filter, limit int, offset int64) ([]*model.AppointmentExpanded, int64, error)
	Update(ctx context.Context, id string, updates *model.AppointmentUpdate) (*model.Appointment, error)
	Delete(ctx context.Context, id string) error
	Availability(ctx context.Context, professionalID, date string) ([]string, error)
}

type appointmentService struct {
	repo              repository.AppointmentRepository
	clientsRepo       clientsrepo.ClientRepository
	professionalsRepo professionalsrepo.ProfessionalRepository
	servicesRepo      servicesrepo.ServiceRepository
	validator         *validation.Validator
	normalizer        *timezone.Normalizer
	publisher         *events.Publisher
	cfg               *config.Config
}

func NewAppointmentService(
	repo repository.AppointmentRepository,
	clientsRepo clientsrepo.ClientRepository,
	professionalsRepo professionalsrepo.ProfessionalRepository,
	servicesRepo servicesrepo.ServiceRepository,
	validator *validation.Validator,
	normalizer *timezone.Normalizer,
	publisher *events.Publisher,
	cfg *config.Config,
) AppointmentService {
	return &appointmentService{
		repo:              repo,
		clientsRepo:       clientsRepo,
		professionalsRepo: professionalsRepo,
		servicesRepo:      servicesRepo,
		validator:         validator,
		normalizer:        normalizer,
		publisher:         publisher,
		cfg:               cfg,
	}
}

// Book runs the booking sequence: resolve referents, normalize the
// timestamp, probe the exact slot, then persist. The probe and the insert
// are two separate operations; simultaneous requests for the same slot can
// both pass the probe. The compound index on (professional_id, date_time)
// keeps that window short but does not close it.
func (s *appointmentService) Book(ctx context.Context, req *model.AppointmentRequest, origin string) (*model.Appointment, error) {
	req.Notes = sanitizer.TrimAndNormalize(req.Notes)
	if err := s.validator.Struct(req); err != nil {
		s.cfg.Log.Warn("Appointment validation failed", "error", err)
		return nil, apperrors.Validation("Appointment validation failed", map[string]any{"error": err.Error()})
	}

	dateTime, err := s.normalizer.ParseLocal(req.DateTime)
	if err != nil {
		return nil, apperrors.InvalidInput("Invalid date_time format")
	}
	slot := s.normalizer.Strip(dateTime)

	svc, err := s.servicesRepo.FindByID(ctx, req.ServiceID)
	if err != nil {
		return nil, apperrors.NotFoundWithID("Service", req.ServiceID)
	}
	professional, err := s.professionalsRepo.FindByID(ctx, req.ProfessionalID)
	if err != nil {
		return nil, apperrors.NotFoundWithID("Professional", req.ProfessionalID)
	}

	if origin == model.OriginPublicLink {
		if !svc.Active || !professional.Active {
			return nil, apperrors.InvalidInput("Service or professional is not available for booking")
		}
		if len(svc.AllowedProfessionals) > 0 && !contains(svc.AllowedProfessionals, professional.ID) {
			return nil, apperrors.InvalidInput("Professional does not offer this service")
		}
	}

	if req.ClientID != "" {
		if _, err := s.clientsRepo.FindByID(ctx, req.ClientID); err != nil {
			return nil, apperrors.NotFoundWithID("Client", req.ClientID)
		}
	}

	if err := s.checkSlotFree(ctx, req.ProfessionalID, slot, ""); err != nil {
		return nil, err
	}

	now := s.normalizer.NowLocalStripped()
	appointment := &model.Appointment{
		ClientID:       req.ClientID,
		ProfessionalID: req.ProfessionalID,
		ServiceID:      req.ServiceID,
		DateTime:       slot,
		Duration:       svc.Duration,
		Price:          svc.Price,
		Status:         model.StatusScheduled,
		Notes:          req.Notes,
		Origin:         origin,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, appointment); err != nil {
		s.cfg.Log.Error("Failed to create appointment", "error", err)
		return nil, apperrors.Internal("Failed to create appointment", err)
	}

	s.publisher.PublishAppointment(ctx, events.EventAppointmentCreated, appointment)

	s.cfg.Log.Info("Appointment booked successfully",
		"id", appointment.ID,
		"professional_id", appointment.ProfessionalID,
		"date_time", s.normalizer.FormatISO(appointment.DateTime),
		"origin", origin,
	)
	return appointment, nil
}

func (s *appointmentService) GetByID(ctx context.Context, id string) (*model.AppointmentExpanded, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Appointment ID cannot be empty")
	}

	appointment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, appointmentserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Appointment", id)
		}
		if errors.Is(err, appointmentserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid appointment ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve appointment", err)
	}

	expanded, err := s.expand(ctx, []*model.Appointment{appointment})
	if err != nil {
		return nil, err
	}
	return expanded[0], nil
}

func (s *appointmentService) GetAll(ctx context.Context, filter repository.Filter, limit int, offset int64) ([]*model.AppointmentExpanded, int64, error) {
	var count int64
	var appointments []*model.Appointment
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count appointments", "error", errCount)
			errCount = apperrors.Internal("Failed to count appointments", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		appointments, errFind = s.repo.FindAll(ctx, filter, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list appointments", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve appointments", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	expanded, err := s.expand(ctx, appointments)
	if err != nil {
		return nil, 0, err
	}
	return expanded, count, nil
}

func (s *appointmentService) Update(ctx context.Context, id string, updates *model.AppointmentUpdate) (*model.Appointment, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Appointment ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, appointmentserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Appointment", id)
		}
		if errors.Is(err, appointmentserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid appointment ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve appointment", err)
	}

	if err := s.validator.Struct(updates); err != nil {
		s.cfg.Log.Warn("Appointment update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := *existing
	previousStatus := existing.Status

	if updates.ClientID != "" {
		if _, err := s.clientsRepo.FindByID(ctx, updates.ClientID); err != nil {
			return nil, apperrors.NotFoundWithID("Client", updates.ClientID)
		}
		merged.ClientID = updates.ClientID
	}
	if updates.ProfessionalID != "" {
		if _, err := s.professionalsRepo.FindByID(ctx, updates.ProfessionalID); err != nil {
			return nil, apperrors.NotFoundWithID("Professional", updates.ProfessionalID)
		}
		merged.ProfessionalID = updates.ProfessionalID
	}
	if updates.ServiceID != "" {
		svc, err := s.servicesRepo.FindByID(ctx, updates.ServiceID)
		if err != nil {
			return nil, apperrors.NotFoundWithID("Service", updates.ServiceID)
		}
		merged.ServiceID = svc.ID
		merged.Duration = svc.Duration
		merged.Price = svc.Price
	}
	if updates.DateTime != "" {
		dateTime, err := s.normalizer.ParseLocal(updates.DateTime)
		if err != nil {
			return nil, apperrors.InvalidInput("Invalid date_time format")
		}
		merged.DateTime = s.normalizer.Strip(dateTime)
	}
	if updates.Status != "" {
		merged.Status = updates.Status
	}
	if updates.Notes != nil {
		merged.Notes = sanitizer.TrimAndNormalize(*updates.Notes)
	}

	// Reactivating a canceled or completed appointment re-enters the slot,
	// which may have been taken in the meantime.
	slotMoved := !merged.DateTime.Equal(existing.DateTime) || merged.ProfessionalID != existing.ProfessionalID
	reactivated := !model.IsActiveStatus(previousStatus) && model.IsActiveStatus(merged.Status)
	if (slotMoved || reactivated) && model.IsActiveStatus(merged.Status) {
		if err := s.checkSlotFree(ctx, merged.ProfessionalID, merged.DateTime, id); err != nil {
			return nil, err
		}
	}

	merged.UpdatedAt = s.normalizer.NowLocalStripped()
	if err := s.repo.Update(ctx, id, &merged); err != nil {
		if errors.Is(err, appointmentserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Appointment", id)
		}
		s.cfg.Log.Error("Failed to update appointment", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update appointment", err)
	}

	if merged.Status != previousStatus {
		switch merged.Status {
		case model.StatusCanceled:
			s.publisher.PublishAppointment(ctx, events.EventAppointmentCanceled, &merged)
		case model.StatusCompleted:
			s.publisher.PublishAppointment(ctx, events.EventAppointmentCompleted, &merged)
		}
	}

	s.cfg.Log.Info("Appointment updated successfully", "id", id, "status", merged.Status)
	return &merged, nil
}

func (s *appointmentService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Appointment ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, appointmentserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Appointment", id)
		}
		if errors.Is(err, appointmentserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid appointment ID format")
		}
		return apperrors.Internal("Failed to delete appointment", err)
	}

	s.cfg.Log.Info("Appointment deleted successfully", "id", id)
	return nil
}

// --- Helpers ---

// checkSlotFree probes the exact timestamp. excludeID skips the
// appointment being rescheduled so it does not conflict with itself.
func (s *appointmentService) checkSlotFree(ctx context.Context, professionalID string, slot time.Time, excludeID string) error {
	occupied, err := s.repo.FindActiveAt(ctx, professionalID, slot)
	if err != nil {
		if errors.Is(err, appointmentserrors.ErrNotFound) {
			return nil
		}
		return apperrors.Internal("Failed to check slot availability", err)
	}
	if occupied.ID == excludeID {
		return nil
	}
	return apperrors.Conflict("Time slot is already booked for this professional")
}

// expand joins client, professional and service display names in three
// batched lookups.
func (s *appointmentService) expand(ctx context.Context, appointments []*model.Appointment) ([]*model.AppointmentExpanded, error) {
	clientIDs := make([]string, 0, len(appointments))
	professionalIDs := make([]string, 0, len(appointments))
	serviceIDs := make([]string, 0, len(appointments))
	for _, a := range appointments {
		if a.ClientID != "" {
			clientIDs = append(clientIDs, a.ClientID)
		}
		professionalIDs = append(professionalIDs, a.ProfessionalID)
		serviceIDs = append(serviceIDs, a.ServiceID)
	}

	clients, err := s.clientsRepo.FindByIDs(ctx, clientIDs)
	if err != nil {
		return nil, apperrors.Internal("Failed to resolve appointment clients", err)
	}
	professionals, err := s.professionalsRepo.FindByIDs(ctx, professionalIDs)
	if err != nil {
		return nil, apperrors.Internal("Failed to resolve appointment professionals", err)
	}
	services, err := s.servicesRepo.FindByIDs(ctx, serviceIDs)
	if err != nil {
		return nil, apperrors.Internal("Failed to resolve appointment services", err)
	}

	out := make([]*model.AppointmentExpanded, 0, len(appointments))
	for _, a := range appointments {
		expanded := &model.AppointmentExpanded{
			Appointment:      *a,
			ClientName:       PlaceholderClientNotInformed,
			ProfessionalName: PlaceholderProfessionalMissing,
			ServiceName:      PlaceholderServiceMissing,
		}
		if a.ClientID != "" {
			expanded.ClientName = PlaceholderClientMissing
			if c, ok := clients[a.ClientID]; ok {
				expanded.ClientName = c.Name
			}
		}
		if p, ok := professionals[a.ProfessionalID]; ok {
			expanded.ProfessionalName = p.Name
		}
		if svc, ok := services[a.ServiceID]; ok {
			expanded.ServiceName = svc.Name
		}
		out = append(out, expanded)
	}
	return out, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
