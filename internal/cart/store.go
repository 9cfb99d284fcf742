package cart

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/acai_cart/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultSaveTimeout = 2 * time.Second

// Saver persists the cart lines after every mutation.
type Saver interface {
	SaveCart(ctx context.Context, items []domain.CartItem) error
}

// Store holds the cart lines of one session. Every method is safe for
// concurrent use; a mutation and its merge lookup happen under one lock.
type Store struct {
	mu    sync.Mutex
	items []domain.CartItem
	open  bool

	saver       Saver
	saveTimeout time.Duration
	logger      *zap.Logger

	// version orders fire-and-forget saves: a save older than the last
	// written one is dropped.
	saveMu       sync.Mutex
	version      uint64
	savedVersion uint64
	pending      sync.WaitGroup
}

func NewStore(saver Saver, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		saver:       saver,
		saveTimeout: defaultSaveTimeout,
		logger:      logger,
	}
}

// Restore replaces the lines with previously persisted ones without saving
// them back. Totals are recomputed and lines with a non-positive quantity are
// dropped.
func (s *Store) Restore(items []domain.CartItem) {
	restored := make([]domain.CartItem, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		item = item.Clone()
		item.Recompute()
		restored = append(restored, item)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = restored
}

// AddToCart adds one unit of the product with the given options. A line with
// the same merge key gets its quantity incremented, otherwise a new line with
// quantity 1 is appended. Repeated complement ids count once.
func (s *Store) AddToCart(product domain.Product, variation *domain.Variation, complements []domain.Complement) (domain.CartItem, error) {
	complements = domain.UniqueComplements(complements)
	if err := checkPrices(product, variation, complements); err != nil {
		return domain.CartItem{}, err
	}

	key := domain.LineKey(product.ID, variation, complements)

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].Key() == key {
			s.items[i].Quantity++
			s.items[i].Recompute()
			line := s.items[i].Clone()
			s.changed()
			return line, nil
		}
	}

	item := domain.CartItem{
		Product:             product,
		Quantity:            1,
		SelectedVariation:   variation,
		SelectedComplements: complements,
	}
	item = item.Clone()
	item.Recompute()
	s.items = append(s.items, item)
	s.changed()

	return item.Clone(), nil
}

// RemoveFromCart drops every line of the product, whatever its variation and
// complements.
func (s *Store) RemoveFromCart(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeWhere(func(item domain.CartItem) bool { return item.Product.ID == productID })
}

// RemoveLine drops the single line with the given merge key.
func (s *Store) RemoveLine(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeWhere(func(item domain.CartItem) bool { return item.Key() == key })
}

// UpdateQuantity sets the quantity of every line of the product. A quantity
// of zero or less removes them.
func (s *Store) UpdateQuantity(productID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	match := func(item domain.CartItem) bool { return item.Product.ID == productID }
	if quantity <= 0 {
		s.removeWhere(match)
		return
	}
	s.setQuantityWhere(match, quantity)
}

// UpdateLineQuantity is UpdateQuantity for a single merge key.
func (s *Store) UpdateLineQuantity(key string, quantity int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	match := func(item domain.CartItem) bool { return item.Key() == key }
	if quantity <= 0 {
		return s.removeWhere(match)
	}
	return s.setQuantityWhere(match, quantity)
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.changed()
}

// Toggle flips the cart panel visibility and returns the new state.
func (s *Store) Toggle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = !s.open
	return s.open
}

func (s *Store) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Items returns a copy of the cart lines.
func (s *Store) Items() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

// Total is the sum of every line total.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return total(s.items)
}

// ItemsCount is the sum of the quantities, not the number of lines.
func (s *Store) ItemsCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, item := range s.items {
		count += item.Quantity
	}
	return count
}

// Checkout hands a copy of the lines and their total to fn while holding the
// cart lock. When fn succeeds the cart is emptied and the panel closed; when
// it fails the cart is left untouched. fn must not call back into s.
func (s *Store) Checkout(fn func(items []domain.CartItem, subtotal decimal.Decimal) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(cloneItems(s.items), total(s.items)); err != nil {
		return err
	}

	s.items = nil
	s.open = false
	s.changed()
	return nil
}

// Wait blocks until in-flight saves have finished.
func (s *Store) Wait() {
	s.pending.Wait()
}

func (s *Store) removeWhere(match func(domain.CartItem) bool) bool {
	kept := s.items[:0]
	removed := false
	for _, item := range s.items {
		if match(item) {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	s.items = kept
	if removed {
		s.changed()
	}
	return removed
}

func (s *Store) setQuantityWhere(match func(domain.CartItem) bool, quantity int) bool {
	found := false
	for i := range s.items {
		if match(s.items[i]) {
			s.items[i].Quantity = quantity
			s.items[i].Recompute()
			found = true
		}
	}
	if found {
		s.changed()
	}
	return found
}

// changed schedules a save of the current lines. Must be called with s.mu held.
func (s *Store) changed() {
	if s.saver == nil {
		return
	}
	s.version++
	version := s.version
	snapshot := cloneItems(s.items)

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		s.save(version, snapshot)
	}()
}

func (s *Store) save(version uint64, items []domain.CartItem) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if version < s.savedVersion {
		return // a newer snapshot is already stored
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
	defer cancel()
	if err := s.saver.SaveCart(ctx, items); err != nil {
		s.logger.Warn("cart save failed", zap.Uint64("version", version), zap.Error(err))
		return
	}
	s.savedVersion = version
}

func checkPrices(product domain.Product, variation *domain.Variation, complements []domain.Complement) error {
	if product.Price.IsNegative() {
		return ErrNegativePrice
	}
	for _, c := range complements {
		if c.PriceDelta.IsNegative() {
			return ErrNegativePrice
		}
	}
	if domain.UnitPrice(product, variation, complements).IsNegative() {
		return ErrNegativePrice
	}
	return nil
}

func total(items []domain.CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.TotalPrice)
	}
	return sum
}

func cloneItems(items []domain.CartItem) []domain.CartItem {
	out := make([]domain.CartItem, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}
