package domain

import "time"

type OrderStatus string

const (
	OrderStatusReceived       OrderStatus = "received"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusOutForDelivery OrderStatus = "out-for-delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
)

const (
	PreparingAfter      = 10 * time.Minute
	OutForDeliveryAfter = 25 * time.Minute
	// DeliveryWindow drives both the estimated delivery time and the last
	// status threshold.
	DeliveryWindow = 35 * time.Minute
)

// StatusStep is one entry of the order timeline.
type StatusStep struct {
	Status OrderStatus   `json:"status"`
	After  time.Duration `json:"-"`
}

// Timeline lists the statuses in lifecycle order with the elapsed time at
// which each one is reached.
var Timeline = []StatusStep{
	{Status: OrderStatusReceived, After: 0},
	{Status: OrderStatusPreparing, After: PreparingAfter},
	{Status: OrderStatusOutForDelivery, After: OutForDeliveryAfter},
	{Status: OrderStatusDelivered, After: DeliveryWindow},
}

// StatusAfter returns the status reached once elapsed time has passed since
// the order was created. Thresholds are checked from the last one down, so a
// late check lands directly on the right status.
func StatusAfter(elapsed time.Duration) OrderStatus {
	for i := len(Timeline) - 1; i > 0; i-- {
		if elapsed >= Timeline[i].After {
			return Timeline[i].Status
		}
	}
	return OrderStatusReceived
}

// StatusAt derives the status of an order created at createdAt as seen at now.
func StatusAt(createdAt, now time.Time) OrderStatus {
	return StatusAfter(now.Sub(createdAt))
}

// Rank is the position of s in the lifecycle, -1 for unknown statuses.
func (s OrderStatus) Rank() int {
	for i, step := range Timeline {
		if step.Status == s {
			return i
		}
	}
	return -1
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}
