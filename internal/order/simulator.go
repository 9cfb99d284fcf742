package order

import (
	"context"
	"time"

	"github.com/fjod/acai_cart/internal/domain"
)

// DefaultTick is how often the simulator looks at the clock.
const DefaultTick = time.Minute

// Simulator advances the displayed status of an order with wall-clock time.
// It is a display aid only: the status is always derived from the order
// creation time, so restarting a watch never loses or repeats progress.
type Simulator struct {
	tick    time.Duration
	nowFunc func() time.Time
}

func NewSimulator(tick time.Duration) *Simulator {
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Simulator{
		tick:    tick,
		nowFunc: time.Now,
	}
}

// Status is the status of o at the current time.
func (s *Simulator) Status(o domain.Order) domain.OrderStatus {
	return o.StatusAt(s.nowFunc())
}

// Watch calls onChange every time the derived status of o moves past the
// last reported one, starting from o.Status. It returns when the order is
// delivered or ctx is done. A nil order returns immediately.
func (s *Simulator) Watch(ctx context.Context, o *domain.Order, onChange func(domain.OrderStatus)) {
	if o == nil {
		return
	}

	last := o.Status
	check := func() bool {
		current := o.StatusAt(s.nowFunc())
		if current.Rank() > last.Rank() {
			last = current
			if onChange != nil {
				onChange(current)
			}
		}
		return last.IsTerminal()
	}

	if check() {
		return
	}

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if check() {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
