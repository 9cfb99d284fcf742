package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/fjod/acai_cart/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type CartHandler struct {
	responder
	catalog  ProductCatalog
	validate *validator.Validate
	timeout  time.Duration
}

func NewCartHandler(catalog ProductCatalog, validate *validator.Validate, timeout time.Duration, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		responder: newResponder(logger),
		catalog:   catalog,
		validate:  validate,
		timeout:   timeout,
	}
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	h.respondJSON(w, http.StatusOK, newCartResponse(s.Cart, s.Location()))
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	s := sessionFromContext(r.Context())

	var req AddItemRequestDTO
	if !h.decode(w, r, &req) {
		return
	}

	product, err := h.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	var variation *domain.Variation
	if req.VariationID != "" {
		v, ok := product.FindVariation(req.VariationID)
		if !ok {
			h.handleError(w, fmt.Errorf("%w: %s", errUnknownVariation, req.VariationID))
			return
		}
		variation = v
	}

	complements := make([]domain.Complement, 0, len(req.ComplementIDs))
	for _, id := range req.ComplementIDs {
		c, ok := product.FindComplement(id)
		if !ok {
			h.handleError(w, fmt.Errorf("%w: %s", errUnknownComplement, id))
			return
		}
		complements = append(complements, c)
	}

	line, err := s.Cart.AddToCart(product, variation, complements)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, CartLineDTO{Key: line.Key(), CartItem: line})
}

// PUT /api/v1/cart/items/{product_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())

	var req UpdateQuantityRequestDTO
	if !h.decode(w, r, &req) {
		return
	}

	s.Cart.UpdateQuantity(chi.URLParam(r, "product_id"), *req.Quantity)
	h.respondJSON(w, http.StatusOK, newCartResponse(s.Cart, s.Location()))
}

// DELETE /api/v1/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	s.Cart.RemoveFromCart(chi.URLParam(r, "product_id"))
	h.respondJSON(w, http.StatusOK, newCartResponse(s.Cart, s.Location()))
}

// PUT /api/v1/cart/lines/{key}
func (h *CartHandler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())

	key, err := lineKey(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_line_key", err.Error())
		return
	}

	var req UpdateQuantityRequestDTO
	if !h.decode(w, r, &req) {
		return
	}

	if !s.Cart.UpdateLineQuantity(key, *req.Quantity) {
		h.handleError(w, fmt.Errorf("%w: %s", errLineNotFound, key))
		return
	}
	h.respondJSON(w, http.StatusOK, newCartResponse(s.Cart, s.Location()))
}

// DELETE /api/v1/cart/lines/{key}
func (h *CartHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())

	key, err := lineKey(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_line_key", err.Error())
		return
	}

	if !s.Cart.RemoveLine(key) {
		h.handleError(w, fmt.Errorf("%w: %s", errLineNotFound, key))
		return
	}
	h.respondJSON(w, http.StatusOK, newCartResponse(s.Cart, s.Location()))
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	s.Cart.Clear()
	h.respondJSON(w, http.StatusOK, newCartResponse(s.Cart, s.Location()))
}

// POST /api/v1/cart/toggle
func (h *CartHandler) ToggleCart(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	s.Cart.Toggle()
	h.respondJSON(w, http.StatusOK, newCartResponse(s.Cart, s.Location()))
}

// PUT /api/v1/location
func (h *CartHandler) SetLocation(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())

	var req LocationRequestDTO
	if !h.decode(w, r, &req) {
		return
	}

	s.SetLocation(domain.Location{State: req.State, City: req.City})
	h.respondJSON(w, http.StatusOK, s.Location())
}

func (h *CartHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	return h.decodeAndValidate(w, r, h.validate, dst)
}

func (rs responder) decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		rs.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	if validate == nil {
		return true
	}

	if err := validate.Struct(dst); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			rs.respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return false
		}
		rs.respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "request validation failed",
			Code:   "validation_failed",
			Fields: validationErrorsToMap(ve),
		})
		return false
	}
	return true
}

func validationErrorsToMap(ve validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(ve))
	for _, fe := range ve {
		out[fe.Field()] = fe.Tag()
	}
	return out
}

func lineKey(r *http.Request) (string, error) {
	return url.PathUnescape(chi.URLParam(r, "key"))
}
