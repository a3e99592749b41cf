package handler

import (
	"net/http"
	"strconv"

	"fluxor/internal/reports/service"
	apperrors "fluxor/pkg/errors"
	httputil "fluxor/pkg/http"
	"fluxor/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type ReportsHandler struct {
	service service.ReportsService
	log     *logger.Logger
}

func NewReportsHandler(service service.ReportsService, log *logger.Logger) *ReportsHandler {
	return &ReportsHandler{
		service: service,
		log:     log,
	}
}

func (h *ReportsHandler) Dashboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	dashboard, err := h.service.Dashboard(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Dashboard", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, dashboard); err != nil {
		h.log.Error("failed to write success response", "handler", "Dashboard", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReportsHandler) Summary(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	summary, err := h.service.Summary(r.Context(), query.Get("start"), query.Get("end"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Summary", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, summary); err != nil {
		h.log.Error("failed to write success response", "handler", "Summary", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReportsHandler) AppointmentsByPeriod(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	report, err := h.service.AppointmentsByPeriod(r.Context(), query.Get("start"), query.Get("end"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "AppointmentsByPeriod", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, report); err != nil {
		h.log.Error("failed to write success response", "handler", "AppointmentsByPeriod", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReportsHandler) RevenueByPeriod(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	report, err := h.service.RevenueByPeriod(r.Context(), query.Get("start"), query.Get("end"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "RevenueByPeriod", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, report); err != nil {
		h.log.Error("failed to write success response", "handler", "RevenueByPeriod", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReportsHandler) RecentActivity(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, err := limitParam(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "RecentActivity", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	activities, err := h.service.RecentActivity(r.Context(), limit)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "RecentActivity", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, activities); err != nil {
		h.log.Error("failed to write success response", "handler", "RecentActivity", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReportsHandler) UpcomingAppointments(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, err := limitParam(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "UpcomingAppointments", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	upcoming, err := h.service.UpcomingAppointments(r.Context(), r.URL.Query().Get("professional_id"), limit)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "UpcomingAppointments", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, upcoming); err != nil {
		h.log.Error("failed to write success response", "handler", "UpcomingAppointments", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReportsHandler) ChartData(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	chart, err := h.service.ChartData(r.Context(), query.Get("period"), query.Get("professional_id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ChartData", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, chart); err != nil {
		h.log.Error("failed to write success response", "handler", "ChartData", "operation", "WriteSuccess", "error", err)
	}
}

// limitParam reads the optional limit query parameter; 0 lets the service
// apply its default.
func limitParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperrors.InvalidInput("Invalid 'limit' parameter")
	}
	return n, nil
}

func (h *ReportsHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/reports/dashboard", h.Dashboard)
	router.GET("/api/v1/reports/summary", h.Summary)
	router.GET("/api/v1/reports/appointments-by-period", h.AppointmentsByPeriod)
	router.GET("/api/v1/reports/revenue-by-period", h.RevenueByPeriod)
	router.GET("/api/v1/reports/recent-activity", h.RecentActivity)
	router.GET("/api/v1/reports/upcoming-appointments", h.UpcomingAppointments)
	router.GET("/api/v1/reports/chart-data", h.ChartData)
}
