package catalog

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fjod/acai_cart/internal/domain"
	"github.com/fjod/acai_cart/pkg/circuitbreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const DefaultCacheTTL = time.Minute

// Service fronts a Source with a short-lived cache of the product list.
// Concurrent misses share one fetch, and a failing source is cut off by a
// circuit breaker. When the source is down a stale list is served if one
// was ever loaded.
type Service struct {
	source Source
	list   *circuitbreaker.Breaker[[]domain.Product]
	one    *circuitbreaker.Breaker[domain.Product]
	sfg    singleflight.Group

	ttl      time.Duration
	mu       sync.RWMutex
	cached   []domain.Product
	cachedAt time.Time
	nowFunc  func() time.Time
	logger   *zap.Logger
}

func NewService(source Source, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Service{
		source: source,
		list:   circuitbreaker.New[[]domain.Product](circuitbreaker.Settings{Name: "catalog-list"}, logger),
		one: circuitbreaker.New[domain.Product](circuitbreaker.Settings{
			Name: "catalog-get",
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrProductNotFound)
			},
		}, logger),
		ttl:     ttl,
		nowFunc: time.Now,
		logger:  logger,
	}
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if products, ok := s.fresh(); ok {
		return products, nil
	}

	v, err, _ := s.sfg.Do("products", func() (interface{}, error) {
		return s.list.Execute(func() ([]domain.Product, error) {
			return s.source.ListProducts(ctx)
		})
	})
	if err != nil {
		if stale, ok := s.stale(); ok {
			s.logger.Warn("catalog unavailable, serving cached products", zap.Error(err))
			return stale, nil
		}
		return nil, err
	}

	products := v.([]domain.Product)
	s.mu.Lock()
	s.cached = products
	s.cachedAt = s.nowFunc()
	s.mu.Unlock()

	return append([]domain.Product(nil), products...), nil
}

// GetProduct looks the product up in the cached list first and goes to the
// source otherwise.
func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	if products, ok := s.fresh(); ok {
		for _, p := range products {
			if p.ID == id {
				return p, nil
			}
		}
	}

	v, err, _ := s.sfg.Do("product:"+id, func() (interface{}, error) {
		return s.one.Execute(func() (domain.Product, error) {
			return s.source.GetProduct(ctx, id)
		})
	})
	if err != nil {
		return domain.Product{}, err
	}
	return v.(domain.Product), nil
}

func (s *Service) fresh() ([]domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cached == nil || s.nowFunc().Sub(s.cachedAt) >= s.ttl {
		return nil, false
	}
	return append([]domain.Product(nil), s.cached...), true
}

func (s *Service) stale() ([]domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cached == nil {
		return nil, false
	}
	return append([]domain.Product(nil), s.cached...), true
}
