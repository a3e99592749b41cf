package service

import (
	"context"
	"fmt"
	"testing"

	clientserrors "fluxor/internal/clients/errors"
	serviceserrors "fluxor/internal/services/errors"
	waitlisterrors "fluxor/internal/waitlist/errors"
	"fluxor/pkg/config"
	apperrors "fluxor/pkg/errors"
	"fluxor/pkg/logger"
	"fluxor/pkg/model"
	"fluxor/pkg/validation"
)

const (
	knownClientID  = "aaaaaaaaaaaaaaaaaaaaaaa1"
	knownServiceID = "bbbbbbbbbbbbbbbbbbbbbbb1"
)

type mockWaitlistRepository struct {
	entries map[string]*model.WaitlistEntry
	nextID  int
}

func newMockWaitlistRepository() *mockWaitlistRepository {
	return &mockWaitlistRepository{entries: map[string]*model.WaitlistEntry{}, nextID: 1}
}

func (m *mockWaitlistRepository) Create(_ context.Context, entry *model.WaitlistEntry) error {
	entry.ID = fmt.Sprintf("%024x", m.nextID)
	m.nextID++
	stored := *entry
	m.entries[entry.ID] = &stored
	return nil
}

func (m *mockWaitlistRepository) FindByID(_ context.Context, id string) (*model.WaitlistEntry, error) {
	e, ok := m.entries[id]
	if !ok {
		return nil, waitlisterrors.ErrNotFound
	}
	copy := *e
	return &copy, nil
}

func (m *mockWaitlistRepository) FindAll(_ context.Context, status string, _ int, _ int64) ([]*model.WaitlistEntry, error) {
	var out []*model.WaitlistEntry
	for _, e := range m.entries {
		if status != "" && e.Status != status {
			continue
		}
		copy := *e
		out = append(out, &copy)
	}
	return out, nil
}

func (m *mockWaitlistRepository) Count(_ context.Context, status string) (int64, error) {
	var n int64
	for _, e := range m.entries {
		if status == "" || e.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *mockWaitlistRepository) Update(_ context.Context, id string, entry *model.WaitlistEntry) error {
	if _, ok := m.entries[id]; !ok {
		return waitlisterrors.ErrNotFound
	}
	stored := *entry
	stored.ID = id
	m.entries[id] = &stored
	return nil
}

func (m *mockWaitlistRepository) Delete(_ context.Context, id string) error {
	if _, ok := m.entries[id]; !ok {
		return waitlisterrors.ErrNotFound
	}
	delete(m.entries, id)
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
func (s *stubClientRepo) FindByIDs(_ context.Context, ids []string) (map[string]*model.Client, error) {
	out := map[string]*model.Client{}
	for _, id := range ids {
		if c, ok := s.clients[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}
func (s *stubClientRepo) FindByDocument(_ context.Context, _ string) (*model.Client, error) {
	return nil, clientserrors.ErrNotFound
}
func (s *stubClientRepo) FindAll(_ context.Context, _ string, _ int, _ int64) ([]*model.Client, error) {
	return nil, nil
}
func (s *stubClientRepo) Count(_ context.Context, _ string) (int64, error)           { return 0, nil }
func (s *stubClientRepo) Update(_ context.Context, _ string, _ *model.Client) error { return nil }
func (s *stubClientRepo) Delete(_ context.Context, _ string) error                  { return nil }

type stubServiceRepo struct {
	services map[string]*model.Service
}

func (s *stubServiceRepo) Create(_ context.Context, _ *model.Service) error { return nil }
func (s *stubServiceRepo) FindByID(_ context.Context, id string) (*model.Service, error) {
	if svc, ok := s.services[id]; ok {
		return svc, nil
	}
	return nil, serviceserrors.ErrNotFound
}
func (s *stubServiceRepo) FindByIDs(_ context.Context, ids []string) (map[string]*model.Service, error) {
	out := map[string]*model.Service{}
	for _, id := range ids {
		if svc, ok := s.services[id]; ok {
			out[id] = svc
		}
	}
	return out, nil
}
func (s *stubServiceRepo) FindAll(_ context.Context, _ bool, _ string, _ int, _ int64) ([]*model.Service, error) {
	return nil, nil
}
func (s *stubServiceRepo) Count(_ context.Context, _ bool, _ string) (int64, error) { return 0, nil }
func (s *stubServiceRepo) Update(_ context.Context, _ string, _ *model.Service) error {
	return nil
}
func (s *stubServiceRepo) Delete(_ context.Context, _ string) error { return nil }

func newTestService(repo *mockWaitlistRepository, clients *stubClientRepo, services *stubServiceRepo) WaitlistService {
	cfg := &config.Config{
		Log: logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"}),
	}
	return NewWaitlistService(repo, clients, services, validation.New(), cfg)
}

func newStubs() (*stubClientRepo, *stubServiceRepo) {
	clients := &stubClientRepo{clients: map[string]*model.Client{
		knownClientID: {ID: knownClientID, Name: "Maria da Silva", Phone: "+5592999991234"},
	}}
	services := &stubServiceRepo{services: map[string]*model.Service{
		knownServiceID: {ID: knownServiceID, Name: "Limpeza"},
	}}
	return clients, services
}

func TestCreate_AppliesDefaults(t *testing.T) {
	clients, services := newStubs()
	svc := newTestService(newMockWaitlistRepository(), clients, services)

	entry := &model.WaitlistEntry{
		ClientID:  knownClientID,
		ServiceID: knownServiceID,
		Notes:     "  flexible   schedule ",
	}

	if err := svc.Create(context.Background(), entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if entry.Status != model.WaitlistWaiting {
		t.Errorf("status should default to %s, got %s", model.WaitlistWaiting, entry.Status)
	}
	if entry.Priority != 1 {
		t.Errorf("priority should default to 1, got %d", entry.Priority)
	}
	if entry.Notes != "flexible schedule" {
		t.Errorf("notes should be normalized, got %q", entry.Notes)
	}
}

func TestCreate_RejectsUnknownReferents(t *testing.T) {
	clients, services := newStubs()
	svc := newTestService(newMockWaitlistRepository(), clients, services)

	err := svc.Create(context.Background(), &model.WaitlistEntry{
		ClientID:  "000000000000000000000099",
		ServiceID: knownServiceID,
	})
	if err == nil {
		t.Fatal("expected not found for unknown client")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected %s, got %s", apperrors.CodeNotFound, appErr.Code)
	}

	err = svc.Create(context.Background(), &model.WaitlistEntry{
		ClientID:  knownClientID,
		ServiceID: "000000000000000000000099",
	})
	if err == nil {
		t.Fatal("expected not found for unknown service")
	}
}

func TestGetAll_ExpandsWithPlaceholders(t *testing.T) {
	clients, services := newStubs()
	repo := newMockWaitlistRepository()
	svc := newTestService(repo, clients, services)

	entry := &model.WaitlistEntry{ClientID: knownClientID, ServiceID: knownServiceID}
	if err := svc.Create(context.Background(), entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Deleting the client after enqueueing must not break the listing.
	delete(clients.clients, knownClientID)

	expanded, total, err := svc.GetAll(context.Background(), "", 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(expanded) != 1 {
		t.Fatalf("expected a single entry, got total=%d len=%d", total, len(expanded))
	}

	if expanded[0].ClientName != PlaceholderClient {
		t.Errorf("expected placeholder client name, got %q", expanded[0].ClientName)
	}
	if expanded[0].ServiceName != "Limpeza" {
		t.Errorf("expected resolved service name, got %q", expanded[0].ServiceName)
	}
}

func TestUpdate_StatusTransition(t *testing.T) {
	clients, services := newStubs()
	repo := newMockWaitlistRepository()
	svc := newTestService(repo, clients, services)

	entry := &model.WaitlistEntry{ClientID: knownClientID, ServiceID: knownServiceID}
	if err := svc.Create(context.Background(), entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := svc.Update(context.Background(), entry.ID, &model.WaitlistEntryUpdate{Status: model.WaitlistContacted})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != model.WaitlistContacted {
		t.Errorf("expected status %s, got %s", model.WaitlistContacted, updated.Status)
	}
	if updated.Priority != 1 {
		t.Errorf("priority should be unchanged, got %d", updated.Priority)
	}
}
