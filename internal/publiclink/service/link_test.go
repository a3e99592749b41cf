package service

import (
	"context"
	"strings"
	"testing"
	"time"

	appointmentsrepo "fluxor/internal/appointments/repository"
	clientserrors "fluxor/internal/clients/errors"
	publiclinkerrors "fluxor/internal/publiclink/errors"
	"fluxor/pkg/config"
	apperrors "fluxor/pkg/errors"
	"fluxor/pkg/logger"
	"fluxor/pkg/model"
	"fluxor/pkg/timezone"
)

const clientID = "ccccccccccccccccccccccc1"

type mockLinkRepository struct {
	byClient map[string]*model.BookingLink
	nextID   int
}

func newMockLinkRepository() *mockLinkRepository {
	return &mockLinkRepository{byClient: map[string]*model.BookingLink{}, nextID: 1}
}

func (m *mockLinkRepository) Create(_ context.Context, link *model.BookingLink) error {
	if _, exists := m.byClient[link.ClientID]; exists {
		return publiclinkerrors.ErrDuplicate
	}
	link.ID = strings.Repeat("d", 23) + string(rune('0'+m.nextID))
	m.nextID++
	stored := *link
	m.byClient[link.ClientID] = &stored
	return nil
}

func (m *mockLinkRepository) FindByClient(_ context.Context, clientID string) (*model.BookingLink, error) {
	l, ok := m.byClient[clientID]
	if !ok {
		return nil, publiclinkerrors.ErrNotFound
	}
	copy := *l
	return &copy, nil
}

func (m *mockLinkRepository) ConsumeByToken(_ context.Context, token string) (*model.BookingLink, error) {
	for _, l := range m.byClient {
		if l.Token == token && l.Active {
			l.AccessCount++
			copy := *l
			return &copy, nil
		}
	}
	return nil, publiclinkerrors.ErrNotFound
}

func (m *mockLinkRepository) Deactivate(_ context.Context, clientID string) error {
	l, ok := m.byClient[clientID]
	if !ok || !l.Active {
		return publiclinkerrors.ErrNotFound
	}
	l.Active = false
	return nil
}

func (m *mockLinkRepository) Delete(_ context.Context, clientID string) error {
	if _, ok := m.byClient[clientID]; !ok {
		return publiclinkerrors.ErrNotFound
	}
	delete(m.byClient, clientID)
	return nil
}

type stubClientRepo struct {
	clients map[string]*model.Client
}

func (s *stubClientRepo) Create(_ context.Context, _ *model.Client) error { return nil }
func (s *stubClientRepo) FindByID(_ context.Context, id string) (*model.Client, error) {
	if c, ok := s.clients[id]; ok {
		return c, nil
	}
	return nil, clientserrors.ErrNotFound
}
func (s *stubClientRepo) FindByIDs(_ context.Context, _ []string) (map[string]*model.Client, error) {
	return nil, nil
}
func (s *stubClientRepo) FindByDocument(_ context.Context, document string) (*model.Client, error) {
	for _, c := range s.clients {
		if c.Document == document {
			return c, nil
		}
	}
	return nil, clientserrors.ErrNotFound
}
func (s *stubClientRepo) FindAll(_ context.Context, _ string, _ int, _ int64) ([]*model.Client, error) {
	return nil, nil
}
func (s *stubClientRepo) Count(_ context.Context, _ string) (int64, error)       { return 0, nil }
func (s *stubClientRepo) Update(_ context.Context, _ string, _ *model.Client) error { return nil }
func (s *stubClientRepo) Delete(_ context.Context, _ string) error               { return nil }

type stubAppointmentCounter struct {
	publicBookings int64
}

func (s *stubAppointmentCounter) Create(_ context.Context, _ *model.Appointment) error { return nil }
func (s *stubAppointmentCounter) FindByID(_ context.Context, _ string) (*model.Appointment, error) {
	return nil, nil
}
func (s *stubAppointmentCounter) FindAll(_ context.Context, _ appointmentsrepo.Filter, _ int, _ int64) ([]*model.Appointment, error) {
	return nil, nil
}
func (s *stubAppointmentCounter) Count(_ context.Context, f appointmentsrepo.Filter) (int64, error) {
	if f.Origin == model.OriginPublicLink {
		return s.publicBookings, nil
	}
	return 0, nil
}
func (s *stubAppointmentCounter) Update(_ context.Context, _ string, _ *model.Appointment) error {
	return nil
}
func (s *stubAppointmentCounter) Delete(_ context.Context, _ string) error { return nil }
func (s *stubAppointmentCounter) FindActiveAt(_ context.Context, _ string, _ time.Time) (*model.Appointment, error) {
	return nil, nil
}
func (s *stubAppointmentCounter) FindActiveBetween(_ context.Context, _ string, _, _ time.Time) ([]*model.Appointment, error) {
	return nil, nil
}

// The clinic zone is fixed at UTC-4 so tests do not depend on tzdata.
var testLocation = time.FixedZone("-04", -4*60*60)

func newTestService(repo *mockLinkRepository, counter *stubAppointmentCounter) LinkService {
	cfg := &config.Config{
		PublicLinkBaseURL: "https://clinic.example.com",
		Log:               logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"}),
	}
	clients := &stubClientRepo{clients: map[string]*model.Client{
		clientID: {ID: clientID, Name: "Maria da Silva", Document: "12345678901"},
	}}
	return NewLinkService(repo, clients, counter, timezone.New(testLocation), cfg)
}

func TestIssueOrReuse_IsIdempotentWhileActive(t *testing.T) {
	repo := newMockLinkRepository()
	svc := newTestService(repo, &stubAppointmentCounter{})

	first, url1, err := svc.IssueOrReuse(context.Background(), clientID, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Token == "" {
		t.Fatal("token should be generated")
	}
	if !strings.HasPrefix(url1, "https://clinic.example.com/public/booking/") {
		t.Errorf("unexpected public URL: %s", url1)
	}

	second, url2, err := svc.IssueOrReuse(context.Background(), clientID, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Token != first.Token {
		t.Error("reissuing an active link should return the same token")
	}
	if url2 != url1 {
		t.Error("public URL should be stable while the link is active")
	}
}

func TestIssueOrReuse_StampsLocalWallClock(t *testing.T) {
	repo := newMockLinkRepository()
	svc := newTestService(repo, &stubAppointmentCounter{})

	link, _, err := svc.IssueOrReuse(context.Background(), clientID, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Storage form: the local wall clock rebound to UTC, not the UTC clock.
	if link.CreatedAt.Location() != time.UTC {
		t.Errorf("expected stripped zone, got %v", link.CreatedAt.Location())
	}
	want := timezone.New(testLocation).NowLocalStripped()
	if diff := want.Sub(link.CreatedAt); diff < -time.Minute || diff > time.Minute {
		t.Errorf("created_at should carry the local wall clock, got %v (now %v)", link.CreatedAt, want)
	}
}

func TestIssueOrReuse_ReissueAfterDeactivationResetsCounter(t *testing.T) {
	repo := newMockLinkRepository()
	svc := newTestService(repo, &stubAppointmentCounter{})

	first, _, err := svc.IssueOrReuse(context.Background(), clientID, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, _, err := svc.Resolve(context.Background(), first.Token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Deactivate(context.Background(), clientID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reissued, _, err := svc.IssueOrReuse(context.Background(), clientID, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reissued.Token == first.Token {
		t.Error("reissue after deactivation should mint a new token")
	}
	if reissued.AccessCount != 0 {
		t.Errorf("reissued link should start with a zero counter, got %d", reissued.AccessCount)
	}
}

func TestResolve_CountsAccessAndRejectsDeactivated(t *testing.T) {
	repo := newMockLinkRepository()
	svc := newTestService(repo, &stubAppointmentCounter{})

	link, _, err := svc.IssueOrReuse(context.Background(), clientID, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, _, err := svc.Resolve(context.Background(), link.Token); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	stats, err := svc.Stats(context.Background(), clientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.AccessCount != 3 {
		t.Errorf("expected 3 accesses, got %d", stats.AccessCount)
	}

	if err := svc.Deactivate(context.Background(), clientID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, _, err = svc.Resolve(context.Background(), link.Token)
	if err == nil {
		t.Fatal("deactivated token should not resolve")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected %s, got %s", apperrors.CodeNotFound, appErr.Code)
	}
}

func TestLookupByDocument_ReturnsExistingLink(t *testing.T) {
	repo := newMockLinkRepository()
	svc := newTestService(repo, &stubAppointmentCounter{})

	link, client, _, err := svc.LookupByDocument(context.Background(), "123.456.789-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.ID != clientID {
		t.Errorf("expected client %s, got %s", clientID, client.ID)
	}
	if link.Token == "" {
		t.Fatal("lookup should issue a link when none exists")
	}

	again, _, _, err := svc.LookupByDocument(context.Background(), "12345678901")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Token != link.Token {
		t.Error("repeat lookup should reuse the active link")
	}

	_, _, _, err = svc.LookupByDocument(context.Background(), "99999999999")
	if err == nil {
		t.Fatal("unknown document should not resolve")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected %s, got %s", apperrors.CodeNotFound, appErr.Code)
	}
}

func TestStats_CountsPublicBookings(t *testing.T) {
	repo := newMockLinkRepository()
	svc := newTestService(repo, &stubAppointmentCounter{publicBookings: 5})

	if _, _, err := svc.IssueOrReuse(context.Background(), clientID, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats, err := svc.Stats(context.Background(), clientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.BookingsMade != 5 {
		t.Errorf("expected 5 public bookings, got %d", stats.BookingsMade)
	}
}
