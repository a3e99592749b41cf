package model

// Dashboard is the staff landing-page aggregate. Rates are percentages
// rounded to one decimal; both are 0 when no completed or canceled
// appointments fall in the period.
type Dashboard struct {
	TotalClients         int64            `json:"total_clients"`
	TotalProfessionals   int64            `json:"total_professionals"`
	TotalServices        int64            `json:"total_services"`
	AppointmentsToday    int64            `json:"appointments_today"`
	AppointmentsByStatus map[string]int64 `json:"appointments_by_status"`
	WaitlistSize         int64            `json:"waitlist_size"`
	Revenue              float64          `json:"revenue"`
	AvgDuration          float64          `json:"avg_duration"`
	AttendanceRate       float64          `json:"attendance_rate"`
	NoShowRate           float64          `json:"no_show_rate"`
	Period               string           `json:"period"`
}

// Summary is the date-range report: volume, revenue and average ticket.
type Summary struct {
	TotalAppointments     int64   `json:"total_appointments"`
	ConfirmedAppointments int64   `json:"confirmed_appointments"`
	TotalRevenue          float64 `json:"total_revenue"`
	AverageTicket         float64 `json:"average_ticket"`
}

// ReportPeriod echoes the resolved bounds of a range report.
type ReportPeriod struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// PeriodBreakdown counts the appointments in a date range per status.
type PeriodBreakdown struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
	Period   ReportPeriod     `json:"period"`
}

// RevenueReport totals completed-appointment revenue in a date range.
type RevenueReport struct {
	TotalRevenue          float64      `json:"total_revenue"`
	CompletedAppointments int64        `json:"completed_appointments"`
	Period                ReportPeriod `json:"period"`
}

const (
	ActivityNewClient            = "new_client"
	ActivityAppointmentConfirmed = "appointment_confirmed"
	ActivityAppointmentCanceled  = "appointment_canceled"
)

// Activity is one entry of the dashboard's recent-activity feed.
type Activity struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	When     string `json:"when"`
}

// UpcomingAppointment is a display-ready row of the dashboard agenda.
type UpcomingAppointment struct {
	ID             string `json:"id"`
	ClientName     string `json:"client_name"`
	ClientInitials string `json:"client_initials"`
	ServiceName    string `json:"service_name"`
	DateTime       string `json:"date_time"`
	Time           string `json:"time"`
	DateLabel      string `json:"date_label"`
	Status         string `json:"status"`
}

// ChartData feeds the revenue-versus-appointments chart: one entry per day
// of the selected period, in order.
type ChartData struct {
	Labels       []string  `json:"labels"`
	Revenue      []float64 `json:"revenue"`
	Appointments []int64   `json:"appointments"`
}
