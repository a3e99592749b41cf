package handler

import (
	"encoding/json"
	"net/http"

	appointmentssvc "fluxor/internal/appointments/service"
	professionalssvc "fluxor/internal/professionals/service"
	"fluxor/internal/publiclink/service"
	catalogsvc "fluxor/internal/services/service"
	apperrors "fluxor/pkg/errors"
	httputil "fluxor/pkg/http"
	"fluxor/pkg/logger"
	"fluxor/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// PublicHandler serves the unauthenticated self-scheduling surface. Every
// route is scoped by a booking link token; consuming the token counts the
// access.
type PublicHandler struct {
	links         service.LinkService
	appointments  appointmentssvc.AppointmentService
	catalog       catalogsvc.CatalogService
	professionals professionalssvc.ProfessionalService
	log           *logger.Logger
}

func NewPublicHandler(
	links service.LinkService,
	appointments appointmentssvc.AppointmentService,
	catalog catalogsvc.CatalogService,
	professionals professionalssvc.ProfessionalService,
	log *logger.Logger,
) *PublicHandler {
	return &PublicHandler{
		links:         links,
		appointments:  appointments,
		catalog:       catalog,
		professionals: professionals,
		log:           log,
	}
}

type publicLinkInfo struct {
	ClientID   string `json:"client_id,omitempty"`
	ClientName string `json:"client_name,omitempty"`
	Anonymous  bool   `json:"anonymous"`
}

type lookupRequest struct {
	Document string `json:"document"`
}

type lookupResponse struct {
	ClientID   string `json:"client_id"`
	ClientName string `json:"client_name"`
	Token      string `json:"token"`
	URL        string `json:"url"`
}

type publicBookingRequest struct {
	ProfessionalID string `json:"professional_id"`
	ServiceID      string `json:"service_id"`
	DateTime       string `json:"date_time"`
	Notes          string `json:"notes,omitempty"`
}

// Lookup lets a returning client recover their booking link by document
// number without staff involvement.
func (h *PublicHandler) Lookup(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req lookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Lookup", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	link, client, url, err := h.links.LookupByDocument(r.Context(), req.Document)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Lookup", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, lookupResponse{
		ClientID:   client.ID,
		ClientName: client.Name,
		Token:      link.Token,
		URL:        url,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "Lookup", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PublicHandler) Validate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	_, client, err := h.links.Resolve(r.Context(), ps.ByName("token"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Validate", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	info := publicLinkInfo{Anonymous: client == nil}
	if client != nil {
		info.ClientID = client.ID
		info.ClientName = client.Name
	}

	if err := httputil.WriteSuccess(w, info); err != nil {
		h.log.Error("failed to write success response", "handler", "Validate", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PublicHandler) Services(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if _, _, err := h.links.Resolve(r.Context(), ps.ByName("token")); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Services", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Services", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	services, total, err := h.catalog.GetAll(r.Context(), true, r.URL.Query().Get("kind"), limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Services", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, services, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "Services", "operation", "WritePaginated", "error", err)
	}
}

func (h *PublicHandler) Professionals(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if _, _, err := h.links.Resolve(r.Context(), ps.ByName("token")); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Professionals", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Professionals", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	professionals, total, err := h.professionals.GetAll(r.Context(), true, limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Professionals", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	// When a service is selected, honor its allowed-professionals list.
	if serviceID := r.URL.Query().Get("service_id"); serviceID != "" {
		svc, err := h.catalog.GetByID(r.Context(), serviceID)
		if err != nil {
			if writeErr := httputil.WriteError(w, err); writeErr != nil {
				h.log.Error("failed to write error response", "handler", "Professionals", "operation", "WriteError", "error", writeErr)
			}
			return
		}
		if len(svc.AllowedProfessionals) > 0 {
			allowed := make(map[string]bool, len(svc.AllowedProfessionals))
			for _, id := range svc.AllowedProfessionals {
				allowed[id] = true
			}
			filtered := professionals[:0]
			for _, p := range professionals {
				if allowed[p.ID] {
					filtered = append(filtered, p)
				}
			}
			professionals = filtered
			total = int64(len(professionals))
		}
	}

	if err := httputil.WritePaginated(w, professionals, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "Professionals", "operation", "WritePaginated", "error", err)
	}
}

func (h *PublicHandler) Availability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if _, _, err := h.links.Resolve(r.Context(), ps.ByName("token")); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Availability", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	query := r.URL.Query()
	professionalID := query.Get("professional_id")
	date := query.Get("date")
	if professionalID == "" || date == "" {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("Both 'professional_id' and 'date' query parameters are required")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Availability", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	slots, err := h.appointments.Availability(r.Context(), professionalID, date)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Availability", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, map[string]any{
		"professional_id": professionalID,
		"date":            date,
		"available_slots": slots,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "Availability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PublicHandler) Book(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	_, client, err := h.links.Resolve(r.Context(), ps.ByName("token"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Book", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	var req publicBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Book", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	booking := &model.AppointmentRequest{
		ProfessionalID: req.ProfessionalID,
		ServiceID:      req.ServiceID,
		DateTime:       req.DateTime,
		Notes:          req.Notes,
	}
	// The client comes from the link, never from the request body. A
	// missing client record degrades to an anonymous booking.
	if client != nil {
		booking.ClientID = client.ID
	}

	appointment, err := h.appointments.Book(r.Context(), booking, model.OriginPublicLink)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Book", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, appointment); err != nil {
		h.log.Error("failed to write created response", "handler", "Book", "operation", "WriteCreated", "error", err)
	}
}

func (h *PublicHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/public/lookup", h.Lookup)
	router.GET("/public/booking/:token", h.Validate)
	router.GET("/public/booking/:token/services", h.Services)
	router.GET("/public/booking/:token/professionals", h.Professionals)
	router.GET("/public/booking/:token/availability", h.Availability)
	router.POST("/public/booking/:token/appointments", h.Book)
}
