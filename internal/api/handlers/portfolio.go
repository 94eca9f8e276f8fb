package handlers

import (
	"net/http"

	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/api/response"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/service"
)

// PortfolioHandler serves the read-only portfolio views of a session.
// These endpoints always answer 200; the body's source field tells whether
// the data is live, cached or empty.
type PortfolioHandler struct {
	sessionService   *service.SessionService
	portfolioService *service.PortfolioService
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(sessionService *service.SessionService, portfolioService *service.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{
		sessionService:   sessionService,
		portfolioService: portfolioService,
	}
}

// Holdings handles GET /api/session/{uuid}/holdings.
func (h *PortfolioHandler) Holdings(w http.ResponseWriter, r *http.Request) {
	sess, ok := lookupSession(w, r, h.sessionService)
	if !ok {
		return
	}
	response.RespondJSON(w, http.StatusOK, h.portfolioService.Holdings(r.Context(), sess))
}

// Positions handles GET /api/session/{uuid}/positions.
func (h *PortfolioHandler) Positions(w http.ResponseWriter, r *http.Request) {
	sess, ok := lookupSession(w, r, h.sessionService)
	if !ok {
		return
	}
	response.RespondJSON(w, http.StatusOK, h.portfolioService.Positions(r.Context(), sess))
}

// Orders handles GET /api/session/{uuid}/orders.
func (h *PortfolioHandler) Orders(w http.ResponseWriter, r *http.Request) {
	sess, ok := lookupSession(w, r, h.sessionService)
	if !ok {
		return
	}
	response.RespondJSON(w, http.StatusOK, h.portfolioService.Orders(r.Context(), sess))
}

// Summary handles GET /api/session/{uuid}/summary.
func (h *PortfolioHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sess, ok := lookupSession(w, r, h.sessionService)
	if !ok {
		return
	}
	response.RespondJSON(w, http.StatusOK, h.portfolioService.Summary(r.Context(), sess))
}
