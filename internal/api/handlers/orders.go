package handlers

import (
	"net/http"
	"strings"

	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/api/request"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/api/response"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/model"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/service"
)

// OrderHandler handles order placement.
type OrderHandler struct {
	sessionService *service.SessionService
	orderService   *service.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(sessionService *service.SessionService, orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{
		sessionService: sessionService,
		orderService:   orderService,
	}
}

// PlaceOrder submits an order to the broker in a single request.
//
// Endpoint: POST /api/session/{uuid}/order
// Request Body: SubmitOrderRequest (name, qty, price, mode)
// Response: 201 Created with model.OrderReceipt
// Error: 400 Bad Request if the order is invalid; nothing is sent to the broker
// Error: 401 Unauthorized if the broker reports the token expired
// Error: 409 Conflict if a submission is already in flight
// Error: 422 Unprocessable Entity with the broker's reason if it refused the order
// Error: 503 Service Unavailable if the broker cannot be reached
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	sess, ok := lookupSession(w, r, h.sessionService)
	if !ok {
		return
	}

	req, err := parseJSON[request.SubmitOrderRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	receipt, err := h.orderService.Submit(r.Context(), sess, model.Order{
		Name:  req.Name,
		Qty:   req.Qty,
		Price: req.Price,
		Mode:  model.OrderMode(strings.ToUpper(strings.TrimSpace(req.Mode))),
	})
	if err != nil {
		respondServiceError(w, err, "failed to place order")
		return
	}

	response.RespondJSON(w, http.StatusCreated, receipt)
}
