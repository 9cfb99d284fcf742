package catalog

import (
	"context"
	"errors"

	"github.com/fjod/acai_cart/internal/domain"
)

var ErrProductNotFound = errors.New("product not found")

// Source is where products come from. Implementations return only products
// that are available for sale.
type Source interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
}
