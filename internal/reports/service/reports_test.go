package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"fluxor/internal/reports/repository"
	"fluxor/pkg/config"
	apperrors "fluxor/pkg/errors"
	"fluxor/pkg/logger"
	"fluxor/pkg/model"
	"fluxor/pkg/timezone"
)

type mockReportsRepository struct {
	clients       int64
	professionals int64
	services      int64
	waiting       int64
	byStatus      map[string]int64
	rangeByStatus map[string]int64
	total         int64
	confirmed     int64
	completed     int64
	canceled      int64
	revenue       float64
	avgDuration   float64

	recentClients     []*model.Client
	recentByStatus    map[string][]*model.Appointment
	upcoming          []*model.Appointment
	clientNames       map[string]string
	professionalNames map[string]string
	serviceNames      map[string]string
	buckets           []repository.DailyBucket

	lastFrom         time.Time
	lastTo           time.Time
	lastProfessional string
	lastLimit        int64
}

func (m *mockReportsRepository) CountActiveClients(_ context.Context) (int64, error) {
	return m.clients, nil
}

func (m *mockReportsRepository) CountActiveProfessionals(_ context.Context) (int64, error) {
	return m.professionals, nil
}

func (m *mockReportsRepository) CountActiveServices(_ context.Context) (int64, error) {
	return m.services, nil
}

func (m *mockReportsRepository) CountWaitingEntries(_ context.Context) (int64, error) {
	return m.waiting, nil
}

func (m *mockReportsRepository) CountAppointmentsByStatus(_ context.Context) (map[string]int64, error) {
	return m.byStatus, nil
}

func (m *mockReportsRepository) CountAppointmentsBetween(_ context.Context, from, to time.Time, statuses []string) (int64, error) {
	m.lastFrom, m.lastTo = from, to

	switch {
	case len(statuses) == 0:
		return m.total, nil
	case len(statuses) == 1 && statuses[0] == model.StatusCompleted:
		return m.completed, nil
	case len(statuses) == 1 && statuses[0] == model.StatusCanceled:
		return m.canceled, nil
	default:
		return m.confirmed, nil
	}
}

func (m *mockReportsRepository) RevenueBetween(_ context.Context, from, to time.Time) (float64, error) {
	m.lastFrom, m.lastTo = from, to
	return m.revenue, nil
}

func (m *mockReportsRepository) AvgDurationBetween(_ context.Context, _, _ time.Time) (float64, error) {
	return m.avgDuration, nil
}

func (m *mockReportsRepository) AppointmentsByStatusBetween(_ context.Context, from, to time.Time) (map[string]int64, error) {
	m.lastFrom, m.lastTo = from, to
	return m.rangeByStatus, nil
}

func (m *mockReportsRepository) RecentClients(_ context.Context, _ int64) ([]*model.Client, error) {
	return m.recentClients, nil
}

func (m *mockReportsRepository) RecentAppointments(_ context.Context, status string, _ int64) ([]*model.Appointment, error) {
	return m.recentByStatus[status], nil
}

func (m *mockReportsRepository) UpcomingAppointments(_ context.Context, professionalID string, after time.Time, limit int64) ([]*model.Appointment, error) {
	m.lastFrom = after
	m.lastProfessional = professionalID
	m.lastLimit = limit
	return m.upcoming, nil
}

func (m *mockReportsRepository) ClientNames(_ context.Context, _ []string) (map[string]string, error) {
	return m.clientNames, nil
}

func (m *mockReportsRepository) ProfessionalNames(_ context.Context, _ []string) (map[string]string, error) {
	return m.professionalNames, nil
}

func (m *mockReportsRepository) ServiceNames(_ context.Context, _ []string) (map[string]string, error) {
	return m.serviceNames, nil
}

func (m *mockReportsRepository) DailyActivity(_ context.Context, from, to time.Time, professionalID string) ([]repository.DailyBucket, error) {
	m.lastFrom, m.lastTo = from, to
	m.lastProfessional = professionalID
	return m.buckets, nil
}

// The clinic zone is fixed at UTC-4 so tests do not depend on tzdata.
var testLocation = time.FixedZone("-04", -4*60*60)

func newTestService(repo *mockReportsRepository) ReportsService {
	cfg := &config.Config{
		Log: logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"}),
	}
	return NewReportsService(repo, timezone.New(testLocation), cfg)
}

// localNow mirrors the service's storage-form clock.
func localNow() time.Time {
	return timezone.New(testLocation).NowLocalStripped()
}

func TestDashboard_RatesAreZeroWithoutOutcomes(t *testing.T) {
	repo := &mockReportsRepository{clients: 12, byStatus: map[string]int64{}}
	svc := newTestService(repo)

	dashboard, err := svc.Dashboard(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dashboard.AttendanceRate != 0 || dashboard.NoShowRate != 0 {
		t.Errorf("rates should be 0 with no completed or canceled appointments, got %v / %v",
			dashboard.AttendanceRate, dashboard.NoShowRate)
	}
	if dashboard.Period != PeriodLast7Days {
		t.Errorf("empty period should default to %s, got %s", PeriodLast7Days, dashboard.Period)
	}
	if dashboard.TotalClients != 12 {
		t.Errorf("expected 12 clients, got %d", dashboard.TotalClients)
	}
}

func TestDashboard_RatesSplitCompletedAndCanceled(t *testing.T) {
	repo := &mockReportsRepository{completed: 3, canceled: 1}
	svc := newTestService(repo)

	dashboard, err := svc.Dashboard(context.Background(), PeriodLast30Days)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dashboard.AttendanceRate != 75.0 {
		t.Errorf("expected attendance rate 75.0, got %v", dashboard.AttendanceRate)
	}
	if dashboard.NoShowRate != 25.0 {
		t.Errorf("expected no-show rate 25.0, got %v", dashboard.NoShowRate)
	}
}

func TestDashboard_PeriodWindows(t *testing.T) {
	repo := &mockReportsRepository{}
	svc := newTestService(repo)

	if _, err := svc.Dashboard(context.Background(), PeriodLast30Days); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := int(repo.lastTo.Sub(repo.lastFrom).Hours() / 24); got != 31 {
		t.Errorf("last-30-days window should span 31 days including today, got %d", got)
	}

	if _, err := svc.Dashboard(context.Background(), PeriodThisMonth); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastFrom.Day() != 1 {
		t.Errorf("this-month window should start on day 1, got %d", repo.lastFrom.Day())
	}

	_, err := svc.Dashboard(context.Background(), "yesterday")
	if err == nil {
		t.Fatal("unknown period should be rejected")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected %s, got %s", apperrors.CodeInvalidInput, appErr.Code)
	}
}

func TestSummary_AverageTicket(t *testing.T) {
	repo := &mockReportsRepository{total: 10, confirmed: 7, completed: 4, revenue: 400.0}
	svc := newTestService(repo)

	summary, err := svc.Summary(context.Background(), "2026-08-01", "2026-08-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.TotalAppointments != 10 {
		t.Errorf("expected 10 appointments, got %d", summary.TotalAppointments)
	}
	if summary.ConfirmedAppointments != 7 {
		t.Errorf("expected 7 confirmed appointments, got %d", summary.ConfirmedAppointments)
	}
	if summary.TotalRevenue != 400.0 {
		t.Errorf("expected revenue 400.0, got %v", summary.TotalRevenue)
	}
	if summary.AverageTicket != 100.0 {
		t.Errorf("expected average ticket 100.0, got %v", summary.AverageTicket)
	}
}

func TestSummary_TicketIsZeroWithoutCompletedAppointments(t *testing.T) {
	repo := &mockReportsRepository{total: 2, revenue: 0}
	svc := newTestService(repo)

	summary, err := svc.Summary(context.Background(), "2026-08-01", "2026-08-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.AverageTicket != 0 {
		t.Errorf("average ticket should be 0 with no completed appointments, got %v", summary.AverageTicket)
	}
}

func TestSummary_DateOnlyEndCoversWholeDay(t *testing.T) {
	repo := &mockReportsRepository{}
	svc := newTestService(repo)

	if _, err := svc.Summary(context.Background(), "2026-08-01", "2026-08-31"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantTo := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	if !repo.lastTo.Equal(wantTo) {
		t.Errorf("date-only end bound should extend to %v, got %v", wantTo, repo.lastTo)
	}
}

func TestAppointmentsByPeriod_GroupsByStatus(t *testing.T) {
	repo := &mockReportsRepository{rangeByStatus: map[string]int64{
		model.StatusScheduled: 2,
		model.StatusCanceled:  1,
	}}
	svc := newTestService(repo)

	report, err := svc.AppointmentsByPeriod(context.Background(), "2026-08-01", "2026-08-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Total != 3 {
		t.Errorf("expected total 3, got %d", report.Total)
	}
	if report.ByStatus[model.StatusScheduled] != 2 {
		t.Errorf("expected 2 scheduled, got %d", report.ByStatus[model.StatusScheduled])
	}
	if report.Period.Start != "2026-08-01T00:00:00" {
		t.Errorf("unexpected period start: %s", report.Period.Start)
	}
	if report.Period.End != "2026-09-01T00:00:00" {
		t.Errorf("date-only end should cover the whole day, got %s", report.Period.End)
	}

	if _, err := svc.AppointmentsByPeriod(context.Background(), "", ""); err == nil {
		t.Fatal("missing bounds should be rejected")
	}
}

func TestRevenueByPeriod_CountsCompleted(t *testing.T) {
	repo := &mockReportsRepository{revenue: 400.0, completed: 4}
	svc := newTestService(repo)

	report, err := svc.RevenueByPeriod(context.Background(), "2026-08-01", "2026-08-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.TotalRevenue != 400.0 {
		t.Errorf("expected revenue 400.0, got %v", report.TotalRevenue)
	}
	if report.CompletedAppointments != 4 {
		t.Errorf("expected 4 completed appointments, got %d", report.CompletedAppointments)
	}
}

func TestRecentActivity_OrdersMostRecentFirst(t *testing.T) {
	now := localNow()
	repo := &mockReportsRepository{
		recentClients: []*model.Client{
			{ID: "c9", Name: "Maria da Silva", CreatedAt: now.Add(-2 * time.Hour)},
		},
		recentByStatus: map[string][]*model.Appointment{
			model.StatusConfirmed: {{
				ID:             "a1",
				ClientID:       "c1",
				ProfessionalID: "p1",
				UpdatedAt:      now.Add(-10 * time.Minute),
			}},
			model.StatusCanceled: {{
				ID:        "a2",
				DateTime:  time.Date(2026, 9, 10, 14, 30, 0, 0, time.UTC),
				UpdatedAt: now.Add(-time.Minute),
			}},
		},
		clientNames:       map[string]string{"c1": "Joana Prado"},
		professionalNames: map[string]string{"p1": "Dra. Ana"},
	}
	svc := newTestService(repo)

	activities, err := svc.RecentActivity(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(activities) != 3 {
		t.Fatalf("expected 3 activities, got %d", len(activities))
	}
	if activities[0].Type != model.ActivityAppointmentCanceled {
		t.Errorf("most recent entry should lead, got %s", activities[0].Type)
	}
	if activities[0].Subtitle != "Client not informed - 14:30" {
		t.Errorf("unexpected cancellation subtitle: %s", activities[0].Subtitle)
	}
	if activities[1].Subtitle != "Joana Prado - Dra. Ana" {
		t.Errorf("unexpected confirmation subtitle: %s", activities[1].Subtitle)
	}
	if activities[2].Subtitle != "Maria da Silva" {
		t.Errorf("unexpected client subtitle: %s", activities[2].Subtitle)
	}
	if !strings.HasSuffix(activities[2].When, "h ago") {
		t.Errorf("expected an hour-scale age, got %s", activities[2].When)
	}

	limited, err := svc.RecentActivity(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected the limit to trim the feed, got %d entries", len(limited))
	}
}

func TestUpcomingAppointments_FormatsAgendaRows(t *testing.T) {
	now := localNow()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	repo := &mockReportsRepository{
		upcoming: []*model.Appointment{
			{ID: "a1", ClientID: "c1", ServiceID: "s1", DateTime: today.Add(14*time.Hour + 30*time.Minute), Status: model.StatusScheduled},
			{ID: "a2", ServiceID: "s1", DateTime: today.AddDate(0, 0, 1).Add(9 * time.Hour), Status: model.StatusConfirmed},
			{ID: "a3", ClientID: "c1", ServiceID: "gone", DateTime: today.AddDate(0, 0, 5), Status: model.StatusScheduled},
		},
		clientNames:  map[string]string{"c1": "Maria da Silva"},
		serviceNames: map[string]string{"s1": "Cleaning"},
	}
	svc := newTestService(repo)

	rows, err := svc.UpcomingAppointments(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The dangling service reference is dropped, not rendered.
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].ClientInitials != "MS" {
		t.Errorf("expected initials MS, got %s", rows[0].ClientInitials)
	}
	if rows[0].DateLabel != "Today" || rows[0].Time != "14:30" {
		t.Errorf("unexpected first row: %s %s", rows[0].DateLabel, rows[0].Time)
	}
	if rows[1].ClientName != "Client not informed" || rows[1].ClientInitials != "??" {
		t.Errorf("anonymous booking should use placeholders, got %s / %s", rows[1].ClientName, rows[1].ClientInitials)
	}
	if rows[1].DateLabel != "Tomorrow" {
		t.Errorf("expected Tomorrow, got %s", rows[1].DateLabel)
	}

	if _, err := svc.UpcomingAppointments(context.Background(), "all", 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastProfessional != "" {
		t.Errorf("'all' should not filter by professional, got %q", repo.lastProfessional)
	}
	if repo.lastLimit != 20 {
		t.Errorf("limit should be capped at 20, got %d", repo.lastLimit)
	}
}

func TestChartData_BucketsDailyActivity(t *testing.T) {
	now := localNow()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	repo := &mockReportsRepository{
		buckets: []repository.DailyBucket{
			{Day: today.Format("2006-01-02"), Appointments: 3, Revenue: 150.5},
		},
	}
	svc := newTestService(repo)

	chart, err := svc.ChartData(context.Background(), "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(chart.Labels) != 7 || len(chart.Revenue) != 7 || len(chart.Appointments) != 7 {
		t.Fatalf("default window should have 7 points, got %d/%d/%d",
			len(chart.Labels), len(chart.Revenue), len(chart.Appointments))
	}
	// Today is the last point of the window.
	if chart.Appointments[6] != 3 {
		t.Errorf("expected 3 appointments today, got %d", chart.Appointments[6])
	}
	if chart.Revenue[6] != 150.5 {
		t.Errorf("expected revenue 150.5 today, got %v", chart.Revenue[6])
	}
	if got := int(repo.lastTo.Sub(repo.lastFrom).Hours() / 24); got != 7 {
		t.Errorf("window should span 7 days, got %d", got)
	}

	_, err = svc.ChartData(context.Background(), "yesterday", "")
	if err == nil {
		t.Fatal("unknown period should be rejected")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected %s, got %s", apperrors.CodeInvalidInput, appErr.Code)
	}
}

func TestSummary_RequiresBothBounds(t *testing.T) {
	svc := newTestService(&mockReportsRepository{})

	_, err := svc.Summary(context.Background(), "", "2026-08-31")
	if err == nil {
		t.Fatal("missing start bound should be rejected")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected %s, got %s", apperrors.CodeInvalidInput, appErr.Code)
	}

	_, err = svc.Summary(context.Background(), "2026-08-31", "2026-08-01")
	if err == nil {
		t.Fatal("inverted range should be rejected")
	}
}
