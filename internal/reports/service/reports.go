package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"fluxor/internal/reports/repository"
	"fluxor/pkg/config"
	apperrors "fluxor/pkg/errors"
	"fluxor/pkg/logger"
	"fluxor/pkg/model"
	"fluxor/pkg/timezone"
)

const (
	PeriodLast7Days  = "last-7-days"
	PeriodLast30Days = "last-30-days"
	PeriodThisMonth  = "this-month"
)

// Display fallbacks for the activity feed and the agenda, matching the
// appointment read projections.
const (
	labelClientNotInformed = "Client not informed"
	labelClientMissing     = "Client not found"
	labelProfessional      = "Professional"
)

// Feed sample sizes and limit bounds.
const (
	recentClientSample      = 3
	recentAppointmentSample = 2
	defaultActivityLimit    = 10
	maxActivityLimit        = 50
	defaultUpcomingLimit    = 5
	maxUpcomingLimit        = 20
)

type ReportsService interface {
	Dashboard(ctx context.Context, period string) (*model.Dashboard, error)
	Summary(ctx context.Context, start, end string) (*model.Summary, error)
	AppointmentsByPeriod(ctx context.Context, start, end string) (*model.PeriodBreakdown, error)
	RevenueByPeriod(ctx context.Context, start, end string) (*model.RevenueReport, error)
	RecentActivity(ctx context.Context, limit int) ([]*model.Activity, error)
	UpcomingAppointments(ctx context.Context, professionalID string, limit int) ([]*model.UpcomingAppointment, error)
	ChartData(ctx context.Context, period, professionalID string) (*model.ChartData, error)
}

type reportsService struct {
	repo       repository.ReportsRepository
	normalizer *timezone.Normalizer
	log        *logger.Logger
}

func NewReportsService(repo repository.ReportsRepository, normalizer *timezone.Normalizer, cfg *config.Config) ReportsService {
	return &reportsService{
		repo:       repo,
		normalizer: normalizer,
		log:        cfg.Log,
	}
}

func (s *reportsService) Dashboard(ctx context.Context, period string) (*model.Dashboard, error) {
	start, end, canonical, err := s.resolvePeriod(period)
	if err != nil {
		return nil, err
	}

	dashboard := &model.Dashboard{Period: canonical}

	if dashboard.TotalClients, err = s.repo.CountActiveClients(ctx); err != nil {
		return nil, apperrors.Internal("Failed to count clients", err)
	}
	if dashboard.TotalProfessionals, err = s.repo.CountActiveProfessionals(ctx); err != nil {
		return nil, apperrors.Internal("Failed to count professionals", err)
	}
	if dashboard.TotalServices, err = s.repo.CountActiveServices(ctx); err != nil {
		return nil, apperrors.Internal("Failed to count services", err)
	}
	if dashboard.WaitlistSize, err = s.repo.CountWaitingEntries(ctx); err != nil {
		return nil, apperrors.Internal("Failed to count waitlist entries", err)
	}

	today := s.today()
	if dashboard.AppointmentsToday, err = s.repo.CountAppointmentsBetween(ctx, today, today.AddDate(0, 0, 1), nil); err != nil {
		return nil, apperrors.Internal("Failed to count today's appointments", err)
	}

	if dashboard.AppointmentsByStatus, err = s.repo.CountAppointmentsByStatus(ctx); err != nil {
		return nil, apperrors.Internal("Failed to count appointments by status", err)
	}

	if dashboard.Revenue, err = s.repo.RevenueBetween(ctx, start, end); err != nil {
		return nil, apperrors.Internal("Failed to compute revenue", err)
	}
	dashboard.Revenue = round2(dashboard.Revenue)

	if dashboard.AvgDuration, err = s.repo.AvgDurationBetween(ctx, start, end); err != nil {
		return nil, apperrors.Internal("Failed to compute average duration", err)
	}
	dashboard.AvgDuration = round1(dashboard.AvgDuration)

	completed, err := s.repo.CountAppointmentsBetween(ctx, start, end, []string{model.StatusCompleted})
	if err != nil {
		return nil, apperrors.Internal("Failed to count completed appointments", err)
	}
	canceled, err := s.repo.CountAppointmentsBetween(ctx, start, end, []string{model.StatusCanceled})
	if err != nil {
		return nil, apperrors.Internal("Failed to count canceled appointments", err)
	}
	dashboard.AttendanceRate, dashboard.NoShowRate = rates(completed, canceled)

	return dashboard, nil
}

func (s *reportsService) Summary(ctx context.Context, start, end string) (*model.Summary, error) {
	from, to, err := s.parseRange(start, end)
	if err != nil {
		return nil, err
	}

	summary := &model.Summary{}

	if summary.TotalAppointments, err = s.repo.CountAppointmentsBetween(ctx, from, to, nil); err != nil {
		return nil, apperrors.Internal("Failed to count appointments", err)
	}
	if summary.ConfirmedAppointments, err = s.repo.CountAppointmentsBetween(ctx, from, to, []string{model.StatusConfirmed, model.StatusCompleted}); err != nil {
		return nil, apperrors.Internal("Failed to count confirmed appointments", err)
	}

	revenue, err := s.repo.RevenueBetween(ctx, from, to)
	if err != nil {
		return nil, apperrors.Internal("Failed to compute revenue", err)
	}
	summary.TotalRevenue = round2(revenue)

	completed, err := s.repo.CountAppointmentsBetween(ctx, from, to, []string{model.StatusCompleted})
	if err != nil {
		return nil, apperrors.Internal("Failed to count completed appointments", err)
	}
	if completed > 0 {
		summary.AverageTicket = round2(revenue / float64(completed))
	}

	return summary, nil
}

func (s *reportsService) AppointmentsByPeriod(ctx context.Context, start, end string) (*model.PeriodBreakdown, error) {
	from, to, err := s.parseRange(start, end)
	if err != nil {
		return nil, err
	}

	byStatus, err := s.repo.AppointmentsByStatusBetween(ctx, from, to)
	if err != nil {
		return nil, apperrors.Internal("Failed to group appointments by status", err)
	}

	var total int64
	for _, n := range byStatus {
		total += n
	}

	return &model.PeriodBreakdown{
		Total:    total,
		ByStatus: byStatus,
		Period: model.ReportPeriod{
			Start: s.normalizer.FormatISO(from),
			End:   s.normalizer.FormatISO(to),
		},
	}, nil
}

func (s *reportsService) RevenueByPeriod(ctx context.Context, start, end string) (*model.RevenueReport, error) {
	from, to, err := s.parseRange(start, end)
	if err != nil {
		return nil, err
	}

	revenue, err := s.repo.RevenueBetween(ctx, from, to)
	if err != nil {
		return nil, apperrors.Internal("Failed to compute revenue", err)
	}
	completed, err := s.repo.CountAppointmentsBetween(ctx, from, to, []string{model.StatusCompleted})
	if err != nil {
		return nil, apperrors.Internal("Failed to count completed appointments", err)
	}

	return &model.RevenueReport{
		TotalRevenue:          round2(revenue),
		CompletedAppointments: completed,
		Period: model.ReportPeriod{
			Start: s.normalizer.FormatISO(from),
			End:   s.normalizer.FormatISO(to),
		},
	}, nil
}

// RecentActivity merges the latest registered clients with the latest
// confirmed and canceled appointments into one feed, newest first.
func (s *reportsService) RecentActivity(ctx context.Context, limit int) ([]*model.Activity, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	now := s.normalizer.NowLocalStripped()

	type timedActivity struct {
		at       time.Time
		activity *model.Activity
	}
	var items []timedActivity

	clients, err := s.repo.RecentClients(ctx, recentClientSample)
	if err != nil {
		return nil, apperrors.Internal("Failed to list recent clients", err)
	}
	for _, c := range clients {
		items = append(items, timedActivity{at: c.CreatedAt, activity: &model.Activity{
			ID:       c.ID,
			Type:     model.ActivityNewClient,
			Title:    "New client registered",
			Subtitle: c.Name,
			When:     relativeTime(now.Sub(c.CreatedAt)),
		}})
	}

	confirmed, err := s.repo.RecentAppointments(ctx, model.StatusConfirmed, recentAppointmentSample)
	if err != nil {
		return nil, apperrors.Internal("Failed to list confirmed appointments", err)
	}
	canceled, err := s.repo.RecentAppointments(ctx, model.StatusCanceled, recentAppointmentSample)
	if err != nil {
		return nil, apperrors.Internal("Failed to list canceled appointments", err)
	}

	var clientIDs, professionalIDs []string
	for _, a := range append(append([]*model.Appointment{}, confirmed...), canceled...) {
		if a.ClientID != "" {
			clientIDs = append(clientIDs, a.ClientID)
		}
		professionalIDs = append(professionalIDs, a.ProfessionalID)
	}
	clientNames, err := s.repo.ClientNames(ctx, clientIDs)
	if err != nil {
		return nil, apperrors.Internal("Failed to resolve client names", err)
	}
	professionalNames, err := s.repo.ProfessionalNames(ctx, professionalIDs)
	if err != nil {
		return nil, apperrors.Internal("Failed to resolve professional names", err)
	}

	for _, a := range confirmed {
		professional := labelProfessional
		if name, ok := professionalNames[a.ProfessionalID]; ok {
			professional = name
		}
		items = append(items, timedActivity{at: a.UpdatedAt, activity: &model.Activity{
			ID:       a.ID,
			Type:     model.ActivityAppointmentConfirmed,
			Title:    "Appointment confirmed",
			Subtitle: clientLabel(a.ClientID, clientNames) + " - " + professional,
			When:     relativeTime(now.Sub(a.UpdatedAt)),
		}})
	}
	for _, a := range canceled {
		items = append(items, timedActivity{at: a.UpdatedAt, activity: &model.Activity{
			ID:       a.ID,
			Type:     model.ActivityAppointmentCanceled,
			Title:    "Appointment canceled",
			Subtitle: clientLabel(a.ClientID, clientNames) + " - " + a.DateTime.Format("15:04"),
			When:     relativeTime(now.Sub(a.UpdatedAt)),
		}})
	}

	sort.Slice(items, func(i, j int) bool { return items[i].at.After(items[j].at) })
	if len(items) > limit {
		items = items[:limit]
	}

	out := make([]*model.Activity, len(items))
	for i, item := range items {
		out[i] = item.activity
	}
	return out, nil
}

// UpcomingAppointments is the dashboard agenda: the next scheduled or
// confirmed appointments, display-ready. Rows whose service was deleted
// are dropped; a missing client degrades to a placeholder.
func (s *reportsService) UpcomingAppointments(ctx context.Context, professionalID string, limit int) ([]*model.UpcomingAppointment, error) {
	if limit <= 0 {
		limit = defaultUpcomingLimit
	}
	if limit > maxUpcomingLimit {
		limit = maxUpcomingLimit
	}
	if professionalID == "all" {
		professionalID = ""
	}

	now := s.normalizer.NowLocalStripped()
	appointments, err := s.repo.UpcomingAppointments(ctx, professionalID, now, int64(limit))
	if err != nil {
		return nil, apperrors.Internal("Failed to list upcoming appointments", err)
	}

	var clientIDs, serviceIDs []string
	for _, a := range appointments {
		if a.ClientID != "" {
			clientIDs = append(clientIDs, a.ClientID)
		}
		serviceIDs = append(serviceIDs, a.ServiceID)
	}
	clientNames, err := s.repo.ClientNames(ctx, clientIDs)
	if err != nil {
		return nil, apperrors.Internal("Failed to resolve client names", err)
	}
	serviceNames, err := s.repo.ServiceNames(ctx, serviceIDs)
	if err != nil {
		return nil, apperrors.Internal("Failed to resolve service names", err)
	}

	today := s.today()
	out := make([]*model.UpcomingAppointment, 0, len(appointments))
	for _, a := range appointments {
		serviceName, ok := serviceNames[a.ServiceID]
		if !ok {
			continue
		}

		name, initials := labelClientNotInformed, "??"
		if a.ClientID != "" {
			if n, found := clientNames[a.ClientID]; found {
				name, initials = n, nameInitials(n)
			}
		}

		out = append(out, &model.UpcomingAppointment{
			ID:             a.ID,
			ClientName:     name,
			ClientInitials: initials,
			ServiceName:    serviceName,
			DateTime:       s.normalizer.FormatISO(a.DateTime),
			Time:           a.DateTime.Format("15:04"),
			DateLabel:      dateLabel(a.DateTime, today),
			Status:         a.Status,
		})
	}
	return out, nil
}

// ChartData buckets the period's appointments per day: total count plus
// completed-appointment revenue at current catalog prices.
func (s *reportsService) ChartData(ctx context.Context, period, professionalID string) (*model.ChartData, error) {
	start, end, points, err := s.resolveChartWindow(period)
	if err != nil {
		return nil, err
	}
	if professionalID == "all" {
		professionalID = ""
	}

	buckets, err := s.repo.DailyActivity(ctx, start, end, professionalID)
	if err != nil {
		return nil, apperrors.Internal("Failed to aggregate chart data", err)
	}

	chart := &model.ChartData{
		Labels:       make([]string, points),
		Revenue:      make([]float64, points),
		Appointments: make([]int64, points),
	}
	weekdays := period == "" || period == PeriodLast7Days
	for i := 0; i < points; i++ {
		day := start.AddDate(0, 0, i)
		if weekdays {
			chart.Labels[i] = day.Weekday().String()[:3]
		} else {
			chart.Labels[i] = day.Format("02/01")
		}
	}
	for _, b := range buckets {
		day, parseErr := time.Parse("2006-01-02", b.Day)
		if parseErr != nil {
			continue
		}
		idx := int(day.Sub(start).Hours() / 24)
		if idx < 0 || idx >= points {
			continue
		}
		chart.Appointments[idx] = b.Appointments
		chart.Revenue[idx] = round2(b.Revenue)
	}
	return chart, nil
}

// today is midnight of the current local date in storage form.
func (s *reportsService) today() time.Time {
	now := s.normalizer.NowLocalStripped()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *reportsService) resolvePeriod(period string) (start, end time.Time, canonical string, err error) {
	if period == "" {
		period = PeriodLast7Days
	}

	today := s.today()
	end = today.AddDate(0, 0, 1)

	switch period {
	case PeriodLast7Days:
		start = today.AddDate(0, 0, -7)
	case PeriodLast30Days:
		start = today.AddDate(0, 0, -30)
	case PeriodThisMonth:
		start = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Time{}, time.Time{}, "", apperrors.InvalidInput(
			"Unknown period, expected one of: last-7-days, last-30-days, this-month")
	}

	return start, end, period, nil
}

// parseRange resolves the start/end query bounds of a range report. A
// date-only end bound covers that entire day.
func (s *reportsService) parseRange(start, end string) (time.Time, time.Time, error) {
	from, err := s.parseBound(start, "start")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := s.parseBound(end, "end")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to.Hour() == 0 && to.Minute() == 0 && to.Second() == 0 {
		to = to.AddDate(0, 0, 1)
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, apperrors.InvalidInput("'end' must be after 'start'")
	}
	return from, to, nil
}

// resolveChartWindow sizes the chart so the last point is today: the prior
// 6 or 29 days plus today, or the month so far.
func (s *reportsService) resolveChartWindow(period string) (start, end time.Time, points int, err error) {
	if period == "" {
		period = PeriodLast7Days
	}

	today := s.today()
	end = today.AddDate(0, 0, 1)

	switch period {
	case PeriodLast7Days:
		start, points = today.AddDate(0, 0, -6), 7
	case PeriodLast30Days:
		start, points = today.AddDate(0, 0, -29), 30
	case PeriodThisMonth:
		start = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		points = today.Day()
	default:
		return time.Time{}, time.Time{}, 0, apperrors.InvalidInput(
			"Unknown period, expected one of: last-7-days, last-30-days, this-month")
	}

	return start, end, points, nil
}

func (s *reportsService) parseBound(value, name string) (time.Time, error) {
	if value == "" {
		return time.Time{}, apperrors.InvalidInput("'" + name + "' query parameter is required")
	}
	t, err := s.normalizer.ParseLocal(value)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput("Invalid '" + name + "' timestamp: " + value)
	}
	return s.normalizer.Strip(t), nil
}

func clientLabel(clientID string, names map[string]string) string {
	if clientID == "" {
		return labelClientNotInformed
	}
	if name, ok := names[clientID]; ok {
		return name
	}
	return labelClientMissing
}

// relativeTime renders an age the way the activity feed shows it.
func relativeTime(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// nameInitials derives up to two letters from a display name: first and
// last word, or the first two letters of a single word.
func nameInitials(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "??"
	}
	first := []rune(parts[0])
	if len(parts) == 1 {
		if len(first) < 2 {
			return strings.ToUpper(string(first))
		}
		return strings.ToUpper(string(first[:2]))
	}
	last := []rune(parts[len(parts)-1])
	return strings.ToUpper(string(first[0]) + string(last[0]))
}

func dateLabel(t, today time.Time) string {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch {
	case day.Equal(today):
		return "Today"
	case day.Equal(today.AddDate(0, 0, 1)):
		return "Tomorrow"
	default:
		return t.Format("02/01")
	}
}

// rates converts completed/canceled counts into attendance and no-show
// percentages. Both are 0 when nothing has been completed or canceled.
func rates(completed, canceled int64) (attendance, noShow float64) {
	total := completed + canceled
	if total == 0 {
		return 0, 0
	}
	attendance = round1(float64(completed) / float64(total) * 100)
	noShow = round1(float64(canceled) / float64(total) * 100)
	return attendance, noShow
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
