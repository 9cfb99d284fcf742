package session

import (
	"context"
	"errors"

	"github.com/fjod/acai_cart/internal/domain"
)

// Namespace prefixes every persisted session key.
const Namespace = "acai-kija-store"

var (
	ErrStateNotFound = errors.New("session state not found")
	// ErrCorruptState is returned by Load when the stored value cannot be decoded.
	ErrCorruptState = errors.New("session state corrupt")
)

// State is the persisted part of a session. The current order is not part of
// it: it lives only as long as the session is in memory.
type State struct {
	CartItems    []domain.CartItem    `json:"cart_items"`
	UserLocation *domain.Location     `json:"user_location,omitempty"`
	CustomerInfo *domain.CustomerInfo `json:"customer_info,omitempty"`
}

// StateStore is the durable key-value storage for session state.
type StateStore interface {
	Load(ctx context.Context, sessionID string) (*State, error)
	Save(ctx context.Context, sessionID string, state *State) error
	Delete(ctx context.Context, sessionID string) error
}
