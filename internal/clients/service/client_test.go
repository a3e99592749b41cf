package service

import (
	"context"
	"fmt"
	"testing"

	clientserrors "fluxor/internal/clients/errors"
	"fluxor/pkg/config"
	apperrors "fluxor/pkg/errors"
	"fluxor/pkg/logger"
	"fluxor/pkg/model"
	"fluxor/pkg/validation"
)

type mockClientRepository struct {
	clients map[string]*model.Client
	nextID  int
}

func newMockClientRepository() *mockClientRepository {
	return &mockClientRepository{clients: map[string]*model.Client{}, nextID: 1}
}

func (m *mockClientRepository) Create(_ context.Context, client *model.Client) error {
	client.ID = fmt.Sprintf("%024x", m.nextID)
	m.nextID++
	stored := *client
	m.clients[client.ID] = &stored
	return nil
}

func (m *mockClientRepository) FindByID(_ context.Context, id string) (*model.Client, error) {
	if len(id) != 24 {
		return nil, clientserrors.ErrInvalidID
	}
	c, ok := m.clients[id]
	if !ok {
		return nil, clientserrors.ErrNotFound
	}
	copy := *c
	return &copy, nil
}

func (m *mockClientRepository) FindByIDs(_ context.Context, ids []string) (map[string]*model.Client, error) {
	out := map[string]*model.Client{}
	for _, id := range ids {
		if c, ok := m.clients[id]; ok {
			copy := *c
			out[id] = &copy
		}
	}
	return out, nil
}

func (m *mockClientRepository) FindByDocument(_ context.Context, document string) (*model.Client, error) {
	for _, c := range m.clients {
		if c.Document == document {
			copy := *c
			return &copy, nil
		}
	}
	return nil, clientserrors.ErrNotFound
}

func (m *mockClientRepository) FindAll(_ context.Context, _ string, _ int, _ int64) ([]*model.Client, error) {
	var out []*model.Client
	for _, c := range m.clients {
		copy := *c
		out = append(out, &copy)
	}
	return out, nil
}

func (m *mockClientRepository) Count(_ context.Context, _ string) (int64, error) {
	return int64(len(m.clients)), nil
}

func (m *mockClientRepository) Update(_ context.Context, id string, client *model.Client) error {
	if _, ok := m.clients[id]; !ok {
		return clientserrors.ErrNotFound
	}
	stored := *client
	stored.ID = id
	m.clients[id] = &stored
	return nil
}

func (m *mockClientRepository) Delete(_ context.Context, id string) error {
	if len(id) != 24 {
		return clientserrors.ErrInvalidID
	}
	if _, ok := m.clients[id]; !ok {
		return clientserrors.ErrNotFound
	}
	delete(m.clients, id)
	return nil
}

func newTestService(repo *mockClientRepository) ClientService {
	cfg := &config.Config{
		Log: logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"}),
	}
	return NewClientService(repo, validation.New(), cfg)
}

func TestCreate_SanitizesAndDefaults(t *testing.T) {
	repo := newMockClientRepository()
	svc := newTestService(repo)

	client := &model.Client{
		Name:     "  maria   da silva  ",
		Phone:    "(92) 99999-1234",
		Document: "123.456.789-01",
	}

	if err := svc.Create(context.Background(), client); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if client.Name != "maria da silva" {
		t.Errorf("name should have collapsed whitespace, got %q", client.Name)
	}
	if client.Phone != "+5592999991234" {
		t.Errorf("phone should be normalized to E.164, got %q", client.Phone)
	}
	if client.Document != "12345678901" {
		t.Errorf("document should keep digits only, got %q", client.Document)
	}
	if !client.Active {
		t.Error("new clients should be active")
	}
	if client.ID == "" {
		t.Error("id should be assigned on create")
	}
}

func TestCreate_ValidationFailure(t *testing.T) {
	svc := newTestService(newMockClientRepository())

	err := svc.Create(context.Background(), &model.Client{Name: "X", Phone: "123"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected %s, got %s", apperrors.CodeValidation, appErr.Code)
	}
}

func TestCreate_DuplicateDocument(t *testing.T) {
	repo := newMockClientRepository()
	svc := newTestService(repo)

	first := &model.Client{Name: "Maria da Silva", Phone: "+5592999991234", Document: "12345678901"}
	if err := svc.Create(context.Background(), first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := &model.Client{Name: "Joana Souza", Phone: "+5592999995678", Document: "123.456.789-01"}
	err := svc.Create(context.Background(), second)
	if err == nil {
		t.Fatal("expected conflict for duplicate document")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected %s, got %s", apperrors.CodeConflict, appErr.Code)
	}

	// Clients without a document never collide with each other.
	third := &model.Client{Name: "Ana Lima", Phone: "+5592999990000"}
	if err := svc.Create(context.Background(), third); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	svc := newTestService(newMockClientRepository())

	_, err := svc.GetByID(context.Background(), "000000000000000000000099")
	if err == nil {
		t.Fatal("expected not found error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected %s, got %s", apperrors.CodeNotFound, appErr.Code)
	}
}

func TestUpdate_MergesOnlyProvidedFields(t *testing.T) {
	repo := newMockClientRepository()
	svc := newTestService(repo)

	client := &model.Client{Name: "Maria da Silva", Phone: "+5592999991234", Notes: "prefers mornings"}
	if err := svc.Create(context.Background(), client); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	newName := "Maria Souza"
	updated, err := svc.Update(context.Background(), client.ID, &model.ClientUpdate{Name: newName})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if updated.Name != newName {
		t.Errorf("expected name %q, got %q", newName, updated.Name)
	}
	if updated.Phone != "+5592999991234" {
		t.Errorf("phone should be unchanged, got %q", updated.Phone)
	}
	if updated.Notes != "prefers mornings" {
		t.Errorf("notes should be unchanged, got %q", updated.Notes)
	}
}

func TestDelete_InvalidID(t *testing.T) {
	svc := newTestService(newMockClientRepository())

	err := svc.Delete(context.Background(), "nope")
	if err == nil {
		t.Fatal("expected error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected %s, got %s", apperrors.CodeInvalidInput, appErr.Code)
	}
}
