package cart

import (
	"fmt"

	"github.com/fjod/acai_cart/internal/domain"
)

var ErrNegativePrice = fmt.Errorf("%w: negative unit price", domain.ErrInvalidPrice)
