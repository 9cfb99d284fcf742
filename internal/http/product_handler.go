package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/acai_cart/internal/domain"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProductCatalog serves the products that are for sale.
type ProductCatalog interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
}

type ProductHandler struct {
	responder
	catalog ProductCatalog
	timeout time.Duration
}

func NewProductHandler(catalog ProductCatalog, timeout time.Duration, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		responder: newResponder(logger),
		catalog:   catalog,
		timeout:   timeout,
	}
}

// GET /api/v1/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.ListProducts(ctx)
	if err != nil {
		h.handleError(w, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}

	h.respondJSON(w, http.StatusOK, products)
}

// GET /api/v1/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, err := h.catalog.GetProduct(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, product)
}
