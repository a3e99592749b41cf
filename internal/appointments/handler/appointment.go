package handler

import (
	"encoding/json"
	"net/http"

	"fluxor/internal/appointments/repository"
	"fluxor/internal/appointments/service"
	apperrors "fluxor/pkg/errors"
	httputil "fluxor/pkg/http"
	"fluxor/pkg/logger"
	"fluxor/pkg/model"
	"fluxor/pkg/timezone"

	"github.com/julienschmidt/httprouter"
)

type AppointmentHandler struct {
	service    service.AppointmentService
	normalizer *timezone.Normalizer
	log        *logger.Logger
}

func NewAppointmentHandler(service service.AppointmentService, normalizer *timezone.Normalizer, log *logger.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		service:    service,
		normalizer: normalizer,
		log:        log,
	}
}

type availabilityResponse struct {
	ProfessionalID string   `json:"professional_id"`
	Date           string   `json:"date"`
	AvailableSlots []string `json:"available_slots"`
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.AppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	appointment, err := h.service.Book(r.Context(), &req, model.OriginStaff)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, appointment); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *AppointmentHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	appointment, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, appointment); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	filter, err := h.buildFilter(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	appointments, total, err := h.service.GetAll(r.Context(), filter, limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, appointments, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	var updates model.AppointmentUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Update", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	appointment, err := h.service.Update(r.Context(), id, &updates)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Update", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, appointment); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Delete", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *AppointmentHandler) Availability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	professionalID := query.Get("professional_id")
	date := query.Get("date")

	if professionalID == "" || date == "" {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("Both 'professional_id' and 'date' query parameters are required")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Availability", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	slots, err := h.service.Availability(r.Context(), professionalID, date)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Availability", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, availabilityResponse{
		ProfessionalID: professionalID,
		Date:           date,
		AvailableSlots: slots,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "Availability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) buildFilter(r *http.Request) (repository.Filter, error) {
	query := r.URL.Query()
	filter := repository.Filter{
		ClientID:       query.Get("client_id"),
		ProfessionalID: query.Get("professional_id"),
		ServiceID:      query.Get("service_id"),
		Status:         query.Get("status"),
		Origin:         query.Get("origin"),
	}

	if from := query.Get("from"); from != "" {
		parsed, err := h.normalizer.ParseLocal(from)
		if err != nil {
			return repository.Filter{}, apperrors.InvalidInput("Invalid 'from' timestamp")
		}
		t := h.normalizer.Strip(parsed)
		filter.From = &t
	}
	if to := query.Get("to"); to != "" {
		parsed, err := h.normalizer.ParseLocal(to)
		if err != nil {
			return repository.Filter{}, apperrors.InvalidInput("Invalid 'to' timestamp")
		}
		t := h.normalizer.Strip(parsed)
		filter.To = &t
	}

	return filter, nil
}

func (h *AppointmentHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/appointments", h.Create)
	router.GET("/api/v1/appointments", h.GetAll)
	router.GET("/api/v1/appointments/availability", h.Availability)
	router.GET("/api/v1/appointments/id/:id", h.GetByID)
	router.PUT("/api/v1/appointments/id/:id", h.Update)
	router.DELETE("/api/v1/appointments/id/:id", h.Delete)
}
