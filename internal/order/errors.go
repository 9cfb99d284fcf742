package order

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrEmptyCart              = errors.New("cart is empty, nothing to checkout")
	ErrIncompleteCustomerInfo = errors.New("customer info is incomplete")
)

// ValidationError lists the customer info fields that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return ErrIncompleteCustomerInfo.Error() + ": " + strings.Join(names, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrIncompleteCustomerInfo
}
