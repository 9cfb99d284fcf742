package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/acai_cart/internal/cart"
	"github.com/fjod/acai_cart/internal/catalog"
	"github.com/fjod/acai_cart/internal/domain"
	"github.com/fjod/acai_cart/internal/order"
	"github.com/fjod/acai_cart/internal/session"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

var (
	errUnknownVariation  = errors.New("variation is not offered for this product")
	errUnknownComplement = errors.New("complement is not offered for this product")
	errLineNotFound      = errors.New("cart line not found")
)

// responder writes JSON responses and logs the failures it cannot report
// to the client.
type responder struct {
	logger *zap.Logger
}

func newResponder(logger *zap.Logger) responder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return responder{logger: logger}
}

func (rs responder) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		rs.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (rs responder) respondError(w http.ResponseWriter, status int, code, message string) {
	rs.respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleError maps domain errors to HTTP statuses.
func (rs responder) handleError(w http.ResponseWriter, err error) {
	var ve *order.ValidationError
	switch {
	case errors.As(err, &ve):
		rs.respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:  "customer info is incomplete",
			Code:   "invalid_customer_info",
			Fields: ve.Fields,
		})
	case errors.Is(err, catalog.ErrProductNotFound):
		rs.respondError(w, http.StatusNotFound, "product_not_found", "product not found")
	case errors.Is(err, errLineNotFound):
		rs.respondError(w, http.StatusNotFound, "line_not_found", err.Error())
	case errors.Is(err, session.ErrNoActiveOrder):
		rs.respondError(w, http.StatusNotFound, "no_active_order", "there is no active order")
	case errors.Is(err, errUnknownVariation):
		rs.respondError(w, http.StatusUnprocessableEntity, "unknown_variation", err.Error())
	case errors.Is(err, errUnknownComplement):
		rs.respondError(w, http.StatusUnprocessableEntity, "unknown_complement", err.Error())
	case errors.Is(err, cart.ErrNegativePrice), errors.Is(err, domain.ErrInvalidPrice):
		rs.respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "item price is invalid",
			Code:    "invalid_price",
			Details: err.Error(),
		})
	case errors.Is(err, order.ErrEmptyCart):
		rs.respondError(w, http.StatusUnprocessableEntity, "empty_cart", err.Error())
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		rs.respondError(w, http.StatusServiceUnavailable, "service_unavailable", "catalog is temporarily unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		rs.respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		rs.logger.Error("unhandled request error", zap.Error(err))
		rs.respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
