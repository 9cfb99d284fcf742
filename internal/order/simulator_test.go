package order

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/acai_cart/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// steppingClock advances by step on every read.
type steppingClock struct {
	start time.Time
	step  time.Duration
	reads atomic.Int64
}

func (c *steppingClock) now() time.Time {
	n := c.reads.Add(1) - 1
	return c.start.Add(time.Duration(n) * c.step)
}

type recorder struct {
	m        sync.RWMutex
	statuses []domain.OrderStatus
}

func (r *recorder) record(s domain.OrderStatus) {
	r.m.Lock()
	defer r.m.Unlock()
	r.statuses = append(r.statuses, s)
}

func (r *recorder) get() []domain.OrderStatus {
	r.m.RLock()
	defer r.m.RUnlock()
	return append([]domain.OrderStatus(nil), r.statuses...)
}

func TestWatch_ReportsEachTransitionOnce(t *testing.T) {
	clock := &steppingClock{start: fixedNow, step: 5 * time.Minute}
	sut := NewSimulator(time.Millisecond)
	sut.nowFunc = clock.now

	order := &domain.Order{CreatedAt: fixedNow, Status: domain.OrderStatusReceived}
	rec := &recorder{}

	done := make(chan struct{})
	go func() {
		sut.Watch(context.Background(), order, rec.record)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watch did not stop after delivery")
	}

	assert.Equal(t, []domain.OrderStatus{
		domain.OrderStatusPreparing,
		domain.OrderStatusOutForDelivery,
		domain.OrderStatusDelivered,
	}, rec.get())
}

func TestWatch_LateCheckJumpsToDelivered(t *testing.T) {
	clock := &steppingClock{start: fixedNow.Add(2 * time.Hour)}
	sut := NewSimulator(time.Hour)
	sut.nowFunc = clock.now

	order := &domain.Order{CreatedAt: fixedNow, Status: domain.OrderStatusReceived}
	rec := &recorder{}

	sut.Watch(context.Background(), order, rec.record)

	assert.Equal(t, []domain.OrderStatus{domain.OrderStatusDelivered}, rec.get())
}

func TestWatch_NilOrderIsInert(t *testing.T) {
	sut := NewSimulator(time.Millisecond)
	called := false

	sut.Watch(context.Background(), nil, func(domain.OrderStatus) { called = true })

	assert.False(t, called)
}

func TestWatch_StopsOnCancel(t *testing.T) {
	sut := NewSimulator(time.Millisecond)
	sut.nowFunc = func() time.Time { return fixedNow }

	order := &domain.Order{CreatedAt: fixedNow, Status: domain.OrderStatusReceived}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		sut.Watch(ctx, order, nil)
		close(done)
	}()
	cancel()

	require.Eventually(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, 100*time.Millisecond, 5*time.Millisecond, "watch kept running after cancel")
}

func TestStatus_DerivedFromCreation(t *testing.T) {
	sut := NewSimulator(0)
	sut.nowFunc = func() time.Time { return fixedNow.Add(26 * time.Minute) }

	status := sut.Status(domain.Order{CreatedAt: fixedNow, Status: domain.OrderStatusReceived})
	assert.Equal(t, domain.OrderStatusOutForDelivery, status)
	assert.Equal(t, DefaultTick, sut.tick)
}
