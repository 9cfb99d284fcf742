package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fjod/acai_cart/internal/cart"
	"github.com/fjod/acai_cart/internal/domain"
	"go.uber.org/zap"
)

var ErrNoActiveOrder = errors.New("no active order")

const sideEffectTimeout = 5 * time.Second

// Session is the storefront state of one client: its cart, location, last
// customer info and the order placed most recently.
type Session struct {
	ID   string
	Cart *cart.Store

	mu        sync.RWMutex
	location  *domain.Location
	customer  *domain.CustomerInfo
	order     *domain.Order
	stopWatch context.CancelFunc
	lastSeen  time.Time

	deps   *Registry
	saveMu sync.Mutex
	saves  sync.WaitGroup
	logger *zap.Logger
}

func newSession(id string, deps *Registry, state *State) *Session {
	s := &Session{
		ID:       id,
		deps:     deps,
		lastSeen: deps.nowFunc(),
		logger:   deps.logger.With(zap.String("session_id", id)),
	}
	s.Cart = cart.NewStore(s, s.logger)

	if state != nil {
		s.Cart.Restore(state.CartItems)
		s.location = state.UserLocation
		s.customer = state.CustomerInfo
	}
	return s
}

// SaveCart persists the session with the given cart lines. It is the
// cart.Saver of the session cart.
func (s *Session) SaveCart(ctx context.Context, items []domain.CartItem) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	return s.save(ctx, items)
}

// saveCurrent persists the session with the lines the cart holds once the
// save lock is taken, so it never writes lines older than a save it waited on.
func (s *Session) saveCurrent(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	return s.save(ctx, s.Cart.Items())
}

// save must be called with s.saveMu held.
func (s *Session) save(ctx context.Context, items []domain.CartItem) error {
	s.mu.RLock()
	state := &State{
		CartItems:    items,
		UserLocation: s.location,
		CustomerInfo: s.customer,
	}
	s.mu.RUnlock()

	return s.deps.store.Save(ctx, s.ID, state)
}

func (s *Session) Location() *domain.Location {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.location == nil {
		return nil
	}
	l := *s.location
	return &l
}

func (s *Session) SetLocation(l domain.Location) {
	s.mu.Lock()
	s.location = &l
	s.mu.Unlock()
	s.persist()
}

// CustomerInfo is the info used by the last checkout, if any.
func (s *Session) CustomerInfo() *domain.CustomerInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.customer == nil {
		return nil
	}
	c := *s.customer
	return &c
}

// PlaceOrder builds an order from the cart. On success it becomes the current
// order, gets archived and announced, and its status starts being watched.
func (s *Session) PlaceOrder(ctx context.Context, info domain.CustomerInfo) (*domain.Order, error) {
	o, err := s.deps.builder.CreateOrder(ctx, s.Cart, info)
	if err != nil {
		return nil, err
	}

	watchCtx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	if s.stopWatch != nil {
		s.stopWatch()
	}
	customer := o.CustomerInfo
	s.customer = &customer
	s.order = o
	s.stopWatch = cancel
	s.mu.Unlock()

	s.persist()
	s.afterOrderCreated(o.Clone())

	watched := o.Clone()
	s.deps.watchers.Add(1)
	go func() {
		defer s.deps.watchers.Done()
		s.deps.simulator.Watch(watchCtx, &watched, func(status domain.OrderStatus) {
			s.statusChanged(watched.ID, status)
		})
	}()

	s.logger.Info("order placed",
		zap.String("order_id", o.ID),
		zap.String("total", o.Total.StringFixed(2)),
		zap.String("payment_method", o.CustomerInfo.PaymentMethod.String()),
		zap.Int("lines", len(o.Items)))

	out := o.Clone()
	return &out, nil
}

// CurrentOrder returns a copy of the current order with its status derived
// from the clock.
func (s *Session) CurrentOrder() (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.order == nil {
		return nil, ErrNoActiveOrder
	}
	o := s.order.Clone()
	o.Status = s.deps.simulator.Status(o)
	return &o, nil
}

// ClearOrder forgets the current order and stops watching it.
func (s *Session) ClearOrder() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopWatch != nil {
		s.stopWatch()
		s.stopWatch = nil
	}
	s.order = nil
}

// Wait blocks until pending saves of the session and its cart are done.
func (s *Session) Wait() {
	s.Cart.Wait()
	s.saves.Wait()
}

func (s *Session) statusChanged(orderID string, status domain.OrderStatus) {
	s.mu.Lock()
	if s.order == nil || s.order.ID != orderID {
		s.mu.Unlock()
		return
	}
	s.order.Status = status
	o := s.order.Clone()
	s.mu.Unlock()

	s.logger.Info("order status changed", zap.String("order_id", orderID), zap.String("status", status.String()))

	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()
	if s.deps.archive != nil {
		if err := s.deps.archive.UpdateStatus(ctx, orderID, status); err != nil {
			s.logger.Warn("archive status update failed", zap.String("order_id", orderID), zap.Error(err))
		}
	}
	if s.deps.publisher != nil {
		if err := s.deps.publisher.PublishStatusChanged(ctx, o); err != nil {
			s.logger.Warn("publish status change failed", zap.String("order_id", orderID), zap.Error(err))
		}
	}
}

func (s *Session) afterOrderCreated(o domain.Order) {
	if s.deps.archive != nil {
		s.saves.Add(1)
		go func() {
			defer s.saves.Done()
			ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
			defer cancel()
			if err := s.deps.archive.RecordOrder(ctx, o); err != nil {
				s.logger.Warn("archive order failed", zap.String("order_id", o.ID), zap.Error(err))
			}
		}()
	}

	if s.deps.publisher != nil {
		s.saves.Add(1)
		go func() {
			defer s.saves.Done()
			ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
			defer cancel()
			if err := s.deps.publisher.PublishOrderCreated(ctx, o); err != nil {
				s.logger.Warn("publish order created failed", zap.String("order_id", o.ID), zap.Error(err))
			}
		}()
	}
}

// persist saves the whole session state in the background.
func (s *Session) persist() {
	s.saves.Add(1)
	go func() {
		defer s.saves.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()
		if err := s.saveCurrent(ctx); err != nil {
			s.logger.Warn("session save failed", zap.Error(err))
		}
	}()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}
