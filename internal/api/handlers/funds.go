package handlers

import (
	"net/http"

	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/api/request"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/api/response"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/service"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/validation"
)

// FundsHandler handles the funds ledger of a session.
type FundsHandler struct {
	sessionService *service.SessionService
	fundsService   *service.FundsService
}

// NewFundsHandler creates a new FundsHandler
func NewFundsHandler(sessionService *service.SessionService, fundsService *service.FundsService) *FundsHandler {
	return &FundsHandler{
		sessionService: sessionService,
		fundsService:   fundsService,
	}
}

// Overview handles GET requests for the balance, totals, transaction history
// and fund distribution.
//
// Endpoint: GET /api/session/{uuid}/funds
// Response: 200 OK with model.FundsView
func (h *FundsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	sess, ok := lookupSession(w, r, h.sessionService)
	if !ok {
		return
	}
	response.RespondJSON(w, http.StatusOK, h.fundsService.Overview(r.Context(), sess))
}

// AddFunds handles deposits.
//
// Endpoint: POST /api/session/{uuid}/funds/add
// Request Body: AddFundsRequest (amount, paymentMethod)
// Response: 201 Created with the new model.FundsTransaction
// Error: 400 Bad Request if the amount or payment method is invalid
// Error: 500 Internal Server Error if the ledger cannot be persisted
func (h *FundsHandler) AddFunds(w http.ResponseWriter, r *http.Request) {
	sess, ok := lookupSession(w, r, h.sessionService)
	if !ok {
		return
	}

	req, err := parseJSON[request.AddFundsRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateAddFunds(req); err != nil {
		respondServiceError(w, err, "validation failed")
		return
	}

	tx, err := h.fundsService.AddFunds(r.Context(), sess, req.Amount, req.PaymentMethod)
	if err != nil {
		respondServiceError(w, err, "failed to add funds")
		return
	}

	response.RespondJSON(w, http.StatusCreated, tx)
}

// WithdrawFunds handles withdrawals. The transaction is recorded as Pending.
//
// Endpoint: POST /api/session/{uuid}/funds/withdraw
// Request Body: WithdrawFundsRequest (amount)
// Response: 201 Created with the new model.FundsTransaction
// Error: 400 Bad Request if the amount is invalid
// Error: 422 Unprocessable Entity if the amount exceeds the balance
func (h *FundsHandler) WithdrawFunds(w http.ResponseWriter, r *http.Request) {
	sess, ok := lookupSession(w, r, h.sessionService)
	if !ok {
		return
	}

	req, err := parseJSON[request.WithdrawFundsRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	tx, err := h.fundsService.WithdrawFunds(r.Context(), sess, req.Amount)
	if err != nil {
		respondServiceError(w, err, "failed to withdraw funds")
		return
	}

	response.RespondJSON(w, http.StatusCreated, tx)
}
