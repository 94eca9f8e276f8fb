package handlers

import (
	"net/http"

	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/api/request"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/api/response"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/service"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/validation"
)

// SessionHandler handles dashboard session lifecycle requests.
type SessionHandler struct {
	sessionService   *service.SessionService
	portfolioService *service.PortfolioService
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(sessionService *service.SessionService, portfolioService *service.PortfolioService) *SessionHandler {
	return &SessionHandler{
		sessionService:   sessionService,
		portfolioService: portfolioService,
	}
}

// CreateSession opens a session for a broker token. The account's funds
// ledger is loaded, or started with the opening balance.
//
// Endpoint: POST /api/session
// Request Body: CreateSessionRequest (token, accountId)
// Response: 201 Created with model.SessionInfo
// Error: 400 Bad Request if the body is invalid
// Error: 500 Internal Server Error if the ledger cannot be loaded
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateSessionRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateSession(req); err != nil {
		respondServiceError(w, err, "validation failed")
		return
	}

	sess, err := h.sessionService.CreateSession(r.Context(), req.Token, req.AccountID)
	if err != nil {
		respondServiceError(w, err, "failed to create session")
		return
	}

	response.RespondJSON(w, http.StatusCreated, sess.Info())
}

// GetSession returns the session without its token.
//
// Endpoint: GET /api/session/{uuid}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := lookupSession(w, r, h.sessionService)
	if !ok {
		return
	}
	response.RespondJSON(w, http.StatusOK, sess.Info())
}

// EndSession closes the session and drops its cached snapshots. The account
// ledger stays persisted.
//
// Endpoint: DELETE /api/session/{uuid}
// Response: 204 No Content
func (h *SessionHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := lookupSession(w, r, h.sessionService)
	if !ok {
		return
	}

	if err := h.sessionService.EndSession(sess.ID); err != nil {
		respondServiceError(w, err, "failed to end session")
		return
	}
	h.portfolioService.Forget(sess.ID)

	response.RespondJSON(w, http.StatusNoContent, nil)
}
