package handler

import (
	"net/http"

	"fluxor/internal/publiclink/service"
	httputil "fluxor/pkg/http"
	"fluxor/pkg/logger"
	"fluxor/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

// LinkHandler is the staff-facing management surface for booking links.
type LinkHandler struct {
	service service.LinkService
	log     *logger.Logger
}

func NewLinkHandler(service service.LinkService, log *logger.Logger) *LinkHandler {
	return &LinkHandler{
		service: service,
		log:     log,
	}
}

type issuedLinkResponse struct {
	ClientID string `json:"client_id"`
	Token    string `json:"token"`
	URL      string `json:"url"`
	Active   bool   `json:"active"`
}

func (h *LinkHandler) Issue(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	clientID := ps.ByName("id")
	createdBy := middleware.AuthenticatedUserID(r.Context())

	link, url, err := h.service.IssueOrReuse(r.Context(), clientID, createdBy)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Issue", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, issuedLinkResponse{
		ClientID: link.ClientID,
		Token:    link.Token,
		URL:      url,
		Active:   link.Active,
	}); err != nil {
		h.log.Error("failed to write created response", "handler", "Issue", "operation", "WriteCreated", "error", err)
	}
}

func (h *LinkHandler) Stats(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	clientID := ps.ByName("id")

	stats, err := h.service.Stats(r.Context(), clientID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Stats", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, stats); err != nil {
		h.log.Error("failed to write success response", "handler", "Stats", "operation", "WriteSuccess", "error", err)
	}
}

func (h *LinkHandler) Deactivate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	clientID := ps.ByName("id")

	if err := h.service.Deactivate(r.Context(), clientID); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Deactivate", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *LinkHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/clients/:id/booking-link", h.Issue)
	router.GET("/api/v1/clients/:id/booking-link", h.Stats)
	router.DELETE("/api/v1/clients/:id/booking-link", h.Deactivate)
}
