package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	appointmentserrors "fluxor/internal/appointments/errors"
	"fluxor/internal/appointments/repository"
	clientserrors "fluxor/internal/clients/errors"
	"fluxor/internal/events"
	professionalserrors "fluxor/internal/professionals/errors"
	serviceserrors "fluxor/internal/services/errors"
	"fluxor/pkg/config"
	apperrors "fluxor/pkg/errors"
	"fluxor/pkg/logger"
	"fluxor/pkg/model"
	"fluxor/pkg/timezone"
	"fluxor/pkg/validation"
)

// The clinic zone is fixed at UTC-4 so tests do not depend on tzdata.
var testLocation = time.FixedZone("-04", -4*60*60)

type mockAppointmentRepository struct {
	appointments map[string]*model.Appointment
	nextID       int
}

func newMockAppointmentRepository() *mockAppointmentRepository {
	return &mockAppointmentRepository{appointments: map[string]*model.Appointment{}, nextID: 1}
}

func (m *mockAppointmentRepository) Create(_ context.Context, a *model.Appointment) error {
	a.ID = fmt.Sprintf("%024x", m.nextID)
	m.nextID++
	stored := *a
	m.appointments[a.ID] = &stored
	return nil
}

func (m *mockAppointmentRepository) FindByID(_ context.Context, id string) (*model.Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, appointmentserrors.ErrNotFound
	}
	copy := *a
	return &copy, nil
}

func (m *mockAppointmentRepository) FindAll(_ context.Context, filter repository.Filter, _ int, _ int64) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, a := range m.appointments {
		if matches(a, filter) {
			copy := *a
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (m *mockAppointmentRepository) Count(_ context.Context, filter repository.Filter) (int64, error) {
	var n int64
	for _, a := range m.appointments {
		if matches(a, filter) {
			n++
		}
	}
	return n, nil
}

func (m *mockAppointmentRepository) Update(_ context.Context, id string, a *model.Appointment) error {
	if _, ok := m.appointments[id]; !ok {
		return appointmentserrors.ErrNotFound
	}
	stored := *a
	stored.ID = id
	m.appointments[id] = &stored
	return nil
}

func (m *mockAppointmentRepository) Delete(_ context.Context, id string) error {
	if _, ok := m.appointments[id]; !ok {
		return appointmentserrors.ErrNotFound
	}
	delete(m.appointments, id)
	return nil
}

func (m *mockAppointmentRepository) FindActiveAt(_ context.Context, professionalID string, dateTime time.Time) (*model.Appointment, error) {
	for _, a := range m.appointments {
		if a.ProfessionalID == professionalID && a.DateTime.Equal(dateTime) && model.IsActiveStatus(a.Status) {
			copy := *a
			return &copy, nil
		}
	}
	return nil, appointmentserrors.ErrNotFound
}

func (m *mockAppointmentRepository) FindActiveBetween(_ context.Context, professionalID string, from, to time.Time) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, a := range m.appointments {
		if a.ProfessionalID == professionalID && model.IsActiveStatus(a.Status) &&
			!a.DateTime.Before(from) && a.DateTime.Before(to) {
			copy := *a
			out = append(out, &copy)
		}
	}
	return out, nil
}

func matches(a *model.Appointment, f repository.Filter) bool {
	if f.ClientID != "" && a.ClientID != f.ClientID {
		return false
	}
	if f.ProfessionalID != "" && a.ProfessionalID != f.ProfessionalID {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.Origin != "" && a.Origin != f.Origin {
		return false
	}
	if f.From != nil && a.DateTime.Before(*f.From) {
		return false
	}
	if f.To != nil && !a.DateTime.Before(*f.To) {
		return false
	}
	return true
}

type mockClientStore struct {
	clients map[string]*model.Client
}

func (m *mockClientStore) Create(_ context.Context, c *model.Client) error { return nil }
func (m *mockClientStore) FindByID(_ context.Context, id string) (*model.Client, error) {
	if c, ok := m.clients[id]; ok {
		return c, nil
	}
	return nil, clientserrors.ErrNotFound
}
func (m *mockClientStore) FindByIDs(_ context.Context, ids []string) (map[string]*model.Client, error) {
	out := map[string]*model.Client{}
	for _, id := range ids {
		if c, ok := m.clients[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}
func (m *mockClientStore) FindByDocument(_ context.Context, _ string) (*model.Client, error) {
	return nil, clientserrors.ErrNotFound
}
func (m *mockClientStore) FindAll(_ context.Context, _ string, _ int, _ int64) ([]*model.Client, error) {
	return nil, nil
}
func (m *mockClientStore) Count(_ context.Context, _ string) (int64, error) { return 0, nil }
func (m *mockClientStore) Update(_ context.Context, _ string, _ *model.Client) error {
	return nil
}
func (m *mockClientStore) Delete(_ context.Context, _ string) error { return nil }

type mockProfessionalStore struct {
	professionals map[string]*model.Professional
}

func (m *mockProfessionalStore) Create(_ context.Context, _ *model.Professional) error { return nil }
func (m *mockProfessionalStore) FindByID(_ context.Context, id string) (*model.Professional, error) {
	if p, ok := m.professionals[id]; ok {
		return p, nil
	}
	return nil, professionalserrors.ErrNotFound
}
func (m *mockProfessionalStore) FindByIDs(_ context.Context, ids []string) (map[string]*model.Professional, error) {
	out := map[string]*model.Professional{}
	for _, id := range ids {
		if p, ok := m.professionals[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}
func (m *mockProfessionalStore) FindAll(_ context.Context, _ bool, _ int, _ int64) ([]*model.Professional, error) {
	return nil, nil
}
func (m *mockProfessionalStore) Count(_ context.Context, _ bool) (int64, error) { return 0, nil }
func (m *mockProfessionalStore) Update(_ context.Context, _ string, _ *model.Professional) error {
	return nil
}
func (m *mockProfessionalStore) Delete(_ context.Context, _ string) error { return nil }

type mockServiceStore struct {
	services map[string]*model.Service
}

func (m *mockServiceStore) Create(_ context.Context, _ *model.Service) error { return nil }
func (m *mockServiceStore) FindByID(_ context.Context, id string) (*model.Service, error) {
	if s, ok := m.services[id]; ok {
		return s, nil
	}
	return nil, serviceserrors.ErrNotFound
}
func (m *mockServiceStore) FindByIDs(_ context.Context, ids []string) (map[string]*model.Service, error) {
	out := map[string]*model.Service{}
	for _, id := range ids {
		if s, ok := m.services[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}
func (m *mockServiceStore) FindAll(_ context.Context, _ bool, _ string, _ int, _ int64) ([]*model.Service, error) {
	return nil, nil
}
func (m *mockServiceStore) Count(_ context.Context, _ bool, _ string) (int64, error) { return 0, nil }
func (m *mockServiceStore) Update(_ context.Context, _ string, _ *model.Service) error {
	return nil
}
func (m *mockServiceStore) Delete(_ context.Context, _ string) error { return nil }

const (
	profAnaID   = "aaaaaaaaaaaaaaaaaaaaaaa1"
	profBiaID   = "aaaaaaaaaaaaaaaaaaaaaaa2"
	svcCleanID  = "bbbbbbbbbbbbbbbbbbbbbbb1"
	svcLongID   = "bbbbbbbbbbbbbbbbbbbbbbb2"
	svcClosedID = "bbbbbbbbbbbbbbbbbbbbbbb3"
	clientID    = "ccccccccccccccccccccccc1"
)

type fixture struct {
	svc  AppointmentService
	repo *mockAppointmentRepository
}

func newFixture() *fixture {
	repo := newMockAppointmentRepository()
	cfg := &config.Config{
		Log: logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"}),
	}
	clients := &mockClientStore{clients: map[string]*model.Client{
		clientID: {ID: clientID, Name: "Maria da Silva", Phone: "+5592999991234"},
	}}
	professionals := &mockProfessionalStore{professionals: map[string]*model.Professional{
		profAnaID: {ID: profAnaID, Name: "Dra. Ana", Active: true},
		profBiaID: {ID: profBiaID, Name: "Dra. Bia", Active: true},
	}}
	services := &mockServiceStore{services: map[string]*model.Service{
		svcCleanID:  {ID: svcCleanID, Name: "Cleaning", Duration: 30, Price: 100.0, Active: true},
		svcLongID:   {ID: svcLongID, Name: "Evaluation", Duration: 60, Price: 250.0, Active: true, AllowedProfessionals: []string{profAnaID}},
		svcClosedID: {ID: svcClosedID, Name: "Legacy", Duration: 30, Price: 80.0, Active: false},
	}}

	svc := NewAppointmentService(
		repo,
		clients,
		professionals,
		services,
		validation.New(),
		timezone.New(testLocation),
		events.NewPublisher(nil, "", cfg.Log),
		cfg,
	)
	return &fixture{svc: svc, repo: repo}
}

func TestBook_CopiesServiceSnapshotAndDefaults(t *testing.T) {
	f := newFixture()

	appt, err := f.svc.Book(context.Background(), &model.AppointmentRequest{
		ClientID:       clientID,
		ProfessionalID: profAnaID,
		ServiceID:      svcCleanID,
		DateTime:       "2026-09-10T09:00:00",
	}, model.OriginStaff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if appt.Duration != 30 {
		t.Errorf("expected duration copied from service, got %d", appt.Duration)
	}
	if appt.Price != 100.0 {
		t.Errorf("expected price copied from service, got %v", appt.Price)
	}
	if appt.Status != model.StatusScheduled {
		t.Errorf("expected status scheduled, got %q", appt.Status)
	}
	if appt.Origin != model.OriginStaff {
		t.Errorf("expected staff origin, got %q", appt.Origin)
	}

	want := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)
	if !appt.DateTime.Equal(want) {
		t.Errorf("expected stored wall clock %v, got %v", want, appt.DateTime)
	}
}

func TestBook_ZSuffixConvertsToLocalWallClock(t *testing.T) {
	f := newFixture()

	// 13:00 UTC is 09:00 at UTC-4; the stored value is the local clock.
	appt, err := f.svc.Book(context.Background(), &model.AppointmentRequest{
		ProfessionalID: profAnaID,
		ServiceID:      svcCleanID,
		DateTime:       "2026-09-10T13:00:00Z",
	}, model.OriginStaff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)
	if !appt.DateTime.Equal(want) {
		t.Errorf("expected stored wall clock %v, got %v", want, appt.DateTime)
	}
}

// Conflict detection is a probe-then-insert sequence, so two concurrent
// bookings for the same slot can both pass the probe. This test covers the
// sequential guarantee only.
func TestBook_ConflictOnExactSlotSameProfessional(t *testing.T) {
	f := newFixture()

	req := &model.AppointmentRequest{
		ProfessionalID: profAnaID,
		ServiceID:      svcCleanID,
		DateTime:       "2026-09-10T09:00:00",
	}
	if _, err := f.svc.Book(context.Background(), req, model.OriginStaff); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := f.svc.Book(context.Background(), req, model.OriginStaff)
	if err == nil {
		t.Fatal("expected conflict")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected %s, got %s", apperrors.CodeConflict, appErr.Code)
	}

	// The same slot with another professional is free.
	other := &model.AppointmentRequest{
		ProfessionalID: profBiaID,
		ServiceID:      svcCleanID,
		DateTime:       "2026-09-10T09:00:00",
	}
	if _, err := f.svc.Book(context.Background(), other, model.OriginStaff); err != nil {
		t.Errorf("different professional should not conflict: %v", err)
	}
}

func TestBook_PublicChecksCatalogRules(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Book(context.Background(), &model.AppointmentRequest{
		ProfessionalID: profAnaID,
		ServiceID:      svcClosedID,
		DateTime:       "2026-09-10T09:00:00",
	}, model.OriginPublicLink)
	if err == nil {
		t.Fatal("inactive service should be rejected on the public surface")
	}

	_, err = f.svc.Book(context.Background(), &model.AppointmentRequest{
		ProfessionalID: profBiaID,
		ServiceID:      svcLongID,
		DateTime:       "2026-09-10T09:00:00",
	}, model.OriginPublicLink)
	if err == nil {
		t.Fatal("professional outside the allowed list should be rejected")
	}

	// Staff bookings bypass the catalog gate.
	if _, err := f.svc.Book(context.Background(), &model.AppointmentRequest{
		ProfessionalID: profBiaID,
		ServiceID:      svcClosedID,
		DateTime:       "2026-09-10T10:00:00",
	}, model.OriginStaff); err != nil {
		t.Errorf("staff booking should succeed: %v", err)
	}
}

func TestAvailability_FullGridOnEmptyDay(t *testing.T) {
	f := newFixture()

	slots, err := f.svc.Availability(context.Background(), profAnaID, "2026-09-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(slots) != 20 {
		t.Fatalf("expected 20 half-hour slots, got %d", len(slots))
	}
	if slots[0] != "2026-09-10T08:00:00" {
		t.Errorf("expected first slot 08:00, got %s", slots[0])
	}
	if slots[len(slots)-1] != "2026-09-10T17:30:00" {
		t.Errorf("expected last slot 17:30, got %s", slots[len(slots)-1])
	}
	for i := 1; i < len(slots); i++ {
		if slots[i] <= slots[i-1] {
			t.Fatalf("slots not strictly ascending at %d: %s <= %s", i, slots[i], slots[i-1])
		}
	}
}

func TestAvailability_ExcludesOnlyExactStartSlot(t *testing.T) {
	f := newFixture()

	// A 60-minute evaluation at 09:00 blocks only the 09:00 slot; the
	// 09:30 slot stays open because exclusion is by exact start time.
	if _, err := f.svc.Book(context.Background(), &model.AppointmentRequest{
		ProfessionalID: profAnaID,
		ServiceID:      svcLongID,
		DateTime:       "2026-09-10T09:00:00",
	}, model.OriginStaff); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	slots, err := f.svc.Availability(context.Background(), profAnaID, "2026-09-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(slots) != 19 {
		t.Fatalf("expected 19 slots, got %d", len(slots))
	}
	for _, s := range slots {
		if s == "2026-09-10T09:00:00" {
			t.Error("09:00 should be excluded")
		}
	}
	found := false
	for _, s := range slots {
		if s == "2026-09-10T09:30:00" {
			found = true
		}
	}
	if !found {
		t.Error("09:30 should remain available")
	}
}

func TestUpdate_CancelFreesTheSlot(t *testing.T) {
	f := newFixture()

	req := &model.AppointmentRequest{
		ProfessionalID: profAnaID,
		ServiceID:      svcCleanID,
		DateTime:       "2026-09-10T09:00:00",
	}
	appt, err := f.svc.Book(context.Background(), req, model.OriginStaff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.svc.Book(context.Background(), req, model.OriginStaff); err == nil {
		t.Fatal("expected conflict before cancellation")
	}

	if _, err := f.svc.Update(context.Background(), appt.ID, &model.AppointmentUpdate{Status: model.StatusCanceled}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.svc.Book(context.Background(), req, model.OriginStaff); err != nil {
		t.Errorf("canceled slot should be bookable again: %v", err)
	}
}

func TestUpdate_RescheduleProbesNewSlot(t *testing.T) {
	f := newFixture()

	first, err := f.svc.Book(context.Background(), &model.AppointmentRequest{
		ProfessionalID: profAnaID,
		ServiceID:      svcCleanID,
		DateTime:       "2026-09-10T09:00:00",
	}, model.OriginStaff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.Book(context.Background(), &model.AppointmentRequest{
		ProfessionalID: profAnaID,
		ServiceID:      svcCleanID,
		DateTime:       "2026-09-10T10:00:00",
	}, model.OriginStaff); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = f.svc.Update(context.Background(), first.ID, &model.AppointmentUpdate{DateTime: "2026-09-10T10:00:00"})
	if err == nil {
		t.Fatal("reschedule onto an occupied slot should conflict")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected %s, got %s", apperrors.CodeConflict, appErr.Code)
	}

	// Rewriting the same appointment without moving it must not
	// conflict with itself.
	if _, err := f.svc.Update(context.Background(), first.ID, &model.AppointmentUpdate{DateTime: "2026-09-10T09:00:00"}); err != nil {
		t.Errorf("no-op reschedule should succeed: %v", err)
	}
}

func TestUpdate_ReactivationProbesSlot(t *testing.T) {
	f := newFixture()

	req := &model.AppointmentRequest{
		ProfessionalID: profAnaID,
		ServiceID:      svcCleanID,
		DateTime:       "2026-09-10T09:00:00",
	}
	first, err := f.svc.Book(context.Background(), req, model.OriginStaff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.Update(context.Background(), first.ID, &model.AppointmentUpdate{Status: model.StatusCanceled}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The freed slot goes to someone else.
	if _, err := f.svc.Book(context.Background(), req, model.OriginStaff); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = f.svc.Update(context.Background(), first.ID, &model.AppointmentUpdate{Status: model.StatusScheduled})
	if err == nil {
		t.Fatal("reactivating into an occupied slot should conflict")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected %s, got %s", apperrors.CodeConflict, appErr.Code)
	}

	// With the slot free again the same transition succeeds.
	if _, err := f.svc.Update(context.Background(), first.ID, &model.AppointmentUpdate{DateTime: "2026-09-10T11:00:00", Status: model.StatusScheduled}); err != nil {
		t.Errorf("reactivation into a free slot should succeed: %v", err)
	}
}

func TestGetByID_ExpandsNamesWithPlaceholders(t *testing.T) {
	f := newFixture()

	appt, err := f.svc.Book(context.Background(), &model.AppointmentRequest{
		ProfessionalID: profAnaID,
		ServiceID:      svcCleanID,
		DateTime:       "2026-09-10T09:00:00",
	}, model.OriginPublicLink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expanded, err := f.svc.GetByID(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if expanded.ClientName != PlaceholderClientNotInformed {
		t.Errorf("anonymous booking should render %q, got %q", PlaceholderClientNotInformed, expanded.ClientName)
	}
	if expanded.ProfessionalName != "Dra. Ana" {
		t.Errorf("expected professional name, got %q", expanded.ProfessionalName)
	}
	if expanded.ServiceName != "Cleaning" {
		t.Errorf("expected service name, got %q", expanded.ServiceName)
	}
}
