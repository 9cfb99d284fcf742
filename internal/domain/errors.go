package domain

import "errors"

var (
	ErrInvalidProduct = errors.New("invalid product")
	ErrInvalidPrice   = errors.New("invalid price")
)
