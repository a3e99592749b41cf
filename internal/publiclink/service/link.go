package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	appointmentsrepo "fluxor/internal/appointments/repository"
	clientserrors "fluxor/internal/clients/errors"
	clientsrepo "fluxor/internal/clients/repository"
	publiclinkerrors "fluxor/internal/publiclink/errors"
	"fluxor/internal/publiclink/repository"
	"fluxor/pkg/config"
	apperrors "fluxor/pkg/errors"
	"fluxor/pkg/model"
	"fluxor/pkg/sanitizer"
	"fluxor/pkg/timezone"
)

const tokenBytes = 32

type LinkService interface {
	// IssueOrReuse returns the client's active link, creating one when
	// none exists. Reissuing after deactivation mints a fresh token with
	// a zeroed access counter.
	IssueOrReuse(ctx context.Context, clientID, createdBy string) (*model.BookingLink, string, error)
	Deactivate(ctx context.Context, clientID string) error
	Stats(ctx context.Context, clientID string) (*model.BookingLinkStats, error)
	// Resolve validates a public token, counts the access and loads the
	// linked client. A nil client with no error means the client record
	// was deleted after the link was issued; the public flow degrades to
	// anonymous booking in that case.
	Resolve(ctx context.Context, token string) (*model.BookingLink, *model.Client, error)
	// LookupByDocument finds a registered client by document number and
	// returns their booking link, issuing one when none is active yet.
	LookupByDocument(ctx context.Context, document string) (*model.BookingLink, *model.Client, string, error)
}

type linkService struct {
	repo             repository.BookingLinkRepository
	clientsRepo      clientsrepo.ClientRepository
	appointmentsRepo appointmentsrepo.AppointmentRepository
	normalizer       *timezone.Normalizer
	cfg              *config.Config
}

func NewLinkService(
	repo repository.BookingLinkRepository,
	clientsRepo clientsrepo.ClientRepository,
	appointmentsRepo appointmentsrepo.AppointmentRepository,
	normalizer *timezone.Normalizer,
	cfg *config.Config,
) LinkService {
	return &linkService{
		repo:             repo,
		clientsRepo:      clientsRepo,
		appointmentsRepo: appointmentsRepo,
		normalizer:       normalizer,
		cfg:              cfg,
	}
}

func (s *linkService) IssueOrReuse(ctx context.Context, clientID, createdBy string) (*model.BookingLink, string, error) {
	if clientID == "" {
		return nil, "", apperrors.InvalidInput("Client ID cannot be empty")
	}
	if _, err := s.clientsRepo.FindByID(ctx, clientID); err != nil {
		return nil, "", apperrors.NotFoundWithID("Client", clientID)
	}

	existing, err := s.repo.FindByClient(ctx, clientID)
	if err == nil {
		if existing.Active {
			return existing, s.publicURL(existing.Token), nil
		}
		// One link document per client: drop the revoked one so the
		// replacement starts with a clean counter.
		if err := s.repo.Delete(ctx, clientID); err != nil && !errors.Is(err, publiclinkerrors.ErrNotFound) {
			return nil, "", apperrors.Internal("Failed to replace booking link", err)
		}
	} else if !errors.Is(err, publiclinkerrors.ErrNotFound) {
		return nil, "", apperrors.Internal("Failed to look up booking link", err)
	}

	token, err := newToken()
	if err != nil {
		return nil, "", apperrors.Internal("Failed to generate booking link token", err)
	}

	link := &model.BookingLink{
		ClientID:  clientID,
		Token:     token,
		Active:    true,
		CreatedBy: createdBy,
		CreatedAt: s.normalizer.NowLocalStripped(),
	}
	if err := s.repo.Create(ctx, link); err != nil {
		if errors.Is(err, publiclinkerrors.ErrDuplicate) {
			return nil, "", apperrors.Conflict("A booking link already exists for this client")
		}
		s.cfg.Log.Error("Failed to create booking link", "client_id", clientID, "error", err)
		return nil, "", apperrors.Internal("Failed to create booking link", err)
	}

	s.cfg.Log.Info("Booking link issued", "client_id", clientID)
	return link, s.publicURL(link.Token), nil
}

func (s *linkService) Deactivate(ctx context.Context, clientID string) error {
	if clientID == "" {
		return apperrors.InvalidInput("Client ID cannot be empty")
	}

	if err := s.repo.Deactivate(ctx, clientID); err != nil {
		if errors.Is(err, publiclinkerrors.ErrNotFound) {
			return apperrors.NotFound("Active booking link")
		}
		return apperrors.Internal("Failed to deactivate booking link", err)
	}

	s.cfg.Log.Info("Booking link deactivated", "client_id", clientID)
	return nil
}

func (s *linkService) Stats(ctx context.Context, clientID string) (*model.BookingLinkStats, error) {
	if clientID == "" {
		return nil, apperrors.InvalidInput("Client ID cannot be empty")
	}

	link, err := s.repo.FindByClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, publiclinkerrors.ErrNotFound) {
			return nil, apperrors.NotFound("Booking link")
		}
		return nil, apperrors.Internal("Failed to retrieve booking link", err)
	}

	bookings, err := s.appointmentsRepo.Count(ctx, appointmentsrepo.Filter{
		ClientID: clientID,
		Origin:   model.OriginPublicLink,
	})
	if err != nil {
		return nil, apperrors.Internal("Failed to count link bookings", err)
	}

	return &model.BookingLinkStats{
		ClientID:     link.ClientID,
		Token:        link.Token,
		Active:       link.Active,
		AccessCount:  link.AccessCount,
		BookingsMade: bookings,
		CreatedAt:    link.CreatedAt,
	}, nil
}

func (s *linkService) Resolve(ctx context.Context, token string) (*model.BookingLink, *model.Client, error) {
	if token == "" {
		return nil, nil, apperrors.InvalidInput("Token cannot be empty")
	}

	link, err := s.repo.ConsumeByToken(ctx, token)
	if err != nil {
		if errors.Is(err, publiclinkerrors.ErrNotFound) {
			return nil, nil, apperrors.NotFound("Booking link")
		}
		return nil, nil, apperrors.Internal("Failed to validate booking link", err)
	}

	client, err := s.clientsRepo.FindByID(ctx, link.ClientID)
	if err != nil {
		s.cfg.Log.Warn("Booking link points to a missing client, degrading to anonymous",
			"client_id", link.ClientID,
		)
		return link, nil, nil
	}

	return link, client, nil
}

func (s *linkService) LookupByDocument(ctx context.Context, document string) (*model.BookingLink, *model.Client, string, error) {
	document = sanitizer.DigitsOnly(document)
	if document == "" {
		return nil, nil, "", apperrors.InvalidInput("Document cannot be empty")
	}

	client, err := s.clientsRepo.FindByDocument(ctx, document)
	if err != nil {
		if errors.Is(err, clientserrors.ErrNotFound) {
			return nil, nil, "", apperrors.NotFound("Client")
		}
		return nil, nil, "", apperrors.Internal("Failed to look up client", err)
	}

	link, url, err := s.IssueOrReuse(ctx, client.ID, "")
	if err != nil {
		return nil, nil, "", err
	}
	return link, client, url, nil
}

// --- Helpers ---

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func (s *linkService) publicURL(token string) string {
	return fmt.Sprintf("%s/public/booking/%s", s.cfg.PublicLinkBaseURL, token)
}
