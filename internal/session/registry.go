package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fjod/acai_cart/internal/domain"
	"github.com/fjod/acai_cart/internal/order"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// OrderArchive records placed orders for the back office.
type OrderArchive interface {
	RecordOrder(ctx context.Context, o domain.Order) error
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error
}

// EventPublisher pushes order events to the realtime channel.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, o domain.Order) error
	PublishStatusChanged(ctx context.Context, o domain.Order) error
}

const (
	// DefaultIdleTimeout is how long an untouched session stays in memory.
	DefaultIdleTimeout = 24 * time.Hour

	// SweepInterval is how often idle sessions are evicted
	SweepInterval = 5 * time.Minute
)

type Options struct {
	Store       StateStore
	Builder     *order.Builder
	Simulator   *order.Simulator
	Archive     OrderArchive
	Publisher   EventPublisher
	IdleTimeout time.Duration
	Logger      *zap.Logger
}

// Registry owns the in-memory sessions and restores them from the state
// store on first access.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	sfg      singleflight.Group // one restore per session id

	store       StateStore
	builder     *order.Builder
	simulator   *order.Simulator
	archive     OrderArchive
	publisher   EventPublisher
	idleTimeout time.Duration
	nowFunc     func() time.Time
	logger      *zap.Logger

	watchers    sync.WaitGroup
	stopSweep   chan struct{}
	sweepDone   sync.WaitGroup
	closeSweeps sync.Once
}

func NewRegistry(opts Options) *Registry {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Builder == nil {
		opts.Builder = order.NewBuilder()
	}
	if opts.Simulator == nil {
		opts.Simulator = order.NewSimulator(order.DefaultTick)
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}

	return &Registry{
		sessions:    make(map[string]*Session),
		store:       opts.Store,
		builder:     opts.Builder,
		simulator:   opts.Simulator,
		archive:     opts.Archive,
		publisher:   opts.Publisher,
		idleTimeout: opts.IdleTimeout,
		nowFunc:     time.Now,
		logger:      opts.Logger,
		stopSweep:   make(chan struct{}),
	}
}

// Get returns the session with the given id, restoring its persisted state
// the first time it is seen. A state that cannot be loaded is logged and the
// session starts empty; a corrupt one is also deleted.
func (r *Registry) Get(ctx context.Context, id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		s.touch(r.nowFunc())
		return s, nil
	}

	v, err, _ := r.sfg.Do(id, func() (interface{}, error) {
		r.mu.RLock()
		existing, ok := r.sessions[id]
		r.mu.RUnlock()
		if ok {
			return existing, nil
		}

		state, err := r.store.Load(ctx, id)
		if err != nil && !errors.Is(err, ErrStateNotFound) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.logger.Warn("session state load failed, starting empty", zap.String("session_id", id), zap.Error(err))
			if errors.Is(err, ErrCorruptState) {
				if err := r.store.Delete(ctx, id); err != nil {
					r.logger.Warn("corrupt session state delete failed", zap.String("session_id", id), zap.Error(err))
				}
			}
		}

		restored := newSession(id, r, state)
		r.mu.Lock()
		r.sessions[id] = restored
		r.mu.Unlock()
		return restored, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Session), nil
}

// Len is the number of sessions held in memory.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Run evicts idle sessions until Close is called.
func (r *Registry) Run() {
	r.sweepDone.Add(1)
	defer r.sweepDone.Done()

	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.evictIdle()
		case <-r.stopSweep:
			return
		}
	}
}

func (r *Registry) evictIdle() {
	cutoff := r.nowFunc().Add(-r.idleTimeout)

	r.mu.Lock()
	var evicted []*Session
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			evicted = append(evicted, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range evicted {
		s.ClearOrder()
	}
	if len(evicted) > 0 {
		r.logger.Info("evicted idle sessions", zap.Int("count", len(evicted)))
	}
}

// Close stops the sweeper and every order watch, then waits for pending
// saves to finish.
func (r *Registry) Close() {
	r.closeSweeps.Do(func() { close(r.stopSweep) })
	r.sweepDone.Wait()

	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	for _, s := range sessions {
		s.ClearOrder()
	}
	r.watchers.Wait()
	for _, s := range sessions {
		s.Wait()
	}
}
