package http

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type OrdersHandler struct {
	responder
	timeout time.Duration
	nowFunc func() time.Time
}

func NewOrdersHandler(timeout time.Duration, logger *zap.Logger) *OrdersHandler {
	return &OrdersHandler{
		responder: newResponder(logger),
		timeout:   timeout,
		nowFunc:   time.Now,
	}
}

// POST /api/v1/orders
func (h *OrdersHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	s := sessionFromContext(r.Context())

	var req CreateOrderRequestDTO
	if !h.decodeAndValidate(w, r, nil, &req) {
		return
	}

	o, err := s.PlaceOrder(ctx, req.customerInfo())
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, newOrderResponse(*o, h.nowFunc()))
}

// GET /api/v1/orders/current
func (h *OrdersHandler) CurrentOrder(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())

	o, err := s.CurrentOrder()
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, newOrderResponse(*o, h.nowFunc()))
}

// DELETE /api/v1/orders/current
func (h *OrdersHandler) ClearOrder(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	s.ClearOrder()
	w.WriteHeader(http.StatusNoContent)
}
