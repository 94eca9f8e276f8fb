package handlers

import (
	"net/http"
	"strings"

	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/api/request"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/api/response"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/model"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/selection"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/service"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/validation"
)

// SelectionHandler drives the buy/sell panel of a session.
// Every endpoint answers with the resulting model.SelectionView.
type SelectionHandler struct {
	sessionService *service.SessionService
	orderService   *service.OrderService
}

// NewSelectionHandler creates a new SelectionHandler
func NewSelectionHandler(sessionService *service.SessionService, orderService *service.OrderService) *SelectionHandler {
	return &SelectionHandler{
		sessionService: sessionService,
		orderService:   orderService,
	}
}

// Selection handles GET /api/session/{uuid}/selection.
func (h *SelectionHandler) Selection(w http.ResponseWriter, r *http.Request) {
	sess, ok := lookupSession(w, r, h.sessionService)
	if !ok {
		return
	}
	response.RespondJSON(w, http.StatusOK, sess.Selection.Snapshot())
}

// OpenBuy handles POST /api/session/{uuid}/selection/buy. Any open panel is replaced.
func (h *SelectionHandler) OpenBuy(w http.ResponseWriter, r *http.Request) {
	h.open(w, r, (*selection.Controller).OpenBuy)
}

// OpenSell handles POST /api/session/{uuid}/selection/sell. Any open panel is replaced.
func (h *SelectionHandler) OpenSell(w http.ResponseWriter, r *http.Request) {
	h.open(w, r, (*selection.Controller).OpenSell)
}

func (h *SelectionHandler) open(
	w http.ResponseWriter,
	r *http.Request,
	transition func(*selection.Controller, model.Instrument) selection.State,
) {
	sess, ok := lookupSession(w, r, h.sessionService)
	if !ok {
		return
	}

	req, err := parseJSON[request.OpenPanelRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateOpenPanel(req); err != nil {
		respondServiceError(w, err, "validation failed")
		return
	}

	transition(sess.Selection, model.Instrument{Name: strings.TrimSpace(req.Name), Price: req.Price})
	response.RespondJSON(w, http.StatusOK, sess.Selection.Snapshot())
}

// UpdateDraft handles PUT /api/session/{uuid}/selection/draft.
//
// Error: 409 Conflict if no panel is open
func (h *SelectionHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	sess, ok := lookupSession(w, r, h.sessionService)
	if !ok {
		return
	}

	req, err := parseJSON[request.UpdateDraftRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if _, err := sess.Selection.UpdateDraft(req.Qty, req.Price); err != nil {
		respondServiceError(w, err, "failed to update draft")
		return
	}
	response.RespondJSON(w, http.StatusOK, sess.Selection.Snapshot())
}

// Close handles DELETE /api/session/{uuid}/selection. Closing a closed panel is a no-op.
func (h *SelectionHandler) Close(w http.ResponseWriter, r *http.Request) {
	sess, ok := lookupSession(w, r, h.sessionService)
	if !ok {
		return
	}
	sess.Selection.Close()
	response.RespondJSON(w, http.StatusOK, sess.Selection.Snapshot())
}

// Submit places the open panel's draft as an order.
//
// Endpoint: POST /api/session/{uuid}/selection/submit
// Response: 201 Created with model.OrderReceipt
// Error: 409 Conflict if no panel is open or a submission is in flight
func (h *SelectionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sess, ok := lookupSession(w, r, h.sessionService)
	if !ok {
		return
	}

	receipt, err := h.orderService.SubmitDraft(r.Context(), sess)
	if err != nil {
		respondServiceError(w, err, "failed to place order")
		return
	}
	response.RespondJSON(w, http.StatusCreated, receipt)
}
