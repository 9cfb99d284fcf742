package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusAfter_Thresholds(t *testing.T) {
	tests := []struct {
		elapsed time.Duration
		want    OrderStatus
	}{
		{-time.Minute, OrderStatusReceived},
		{0, OrderStatusReceived},
		{9*time.Minute + 59*time.Second, OrderStatusReceived},
		{10 * time.Minute, OrderStatusPreparing},
		{24 * time.Minute, OrderStatusPreparing},
		{25 * time.Minute, OrderStatusOutForDelivery},
		{34 * time.Minute, OrderStatusOutForDelivery},
		{35 * time.Minute, OrderStatusDelivered},
		{3 * time.Hour, OrderStatusDelivered},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusAfter(tt.elapsed), "elapsed %v", tt.elapsed)
	}
}

func TestStatusAfter_NeverRegresses(t *testing.T) {
	prev := StatusAfter(0)
	for elapsed := time.Duration(0); elapsed <= time.Hour; elapsed += 15 * time.Second {
		cur := StatusAfter(elapsed)
		assert.GreaterOrEqual(t, cur.Rank(), prev.Rank(), "status regressed at %v", elapsed)
		assert.NotEqual(t, -1, cur.Rank())
		prev = cur
	}
	assert.True(t, prev.IsTerminal())
}

func TestStatusAt_LateCheckJumpsToDelivered(t *testing.T) {
	created := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	order := Order{CreatedAt: created, Status: OrderStatusReceived}

	assert.Equal(t, OrderStatusDelivered, order.StatusAt(created.Add(50*time.Minute)))
}

func TestRank_Unknown(t *testing.T) {
	assert.Equal(t, -1, OrderStatus("lost").Rank())
	assert.Equal(t, 0, OrderStatusReceived.Rank())
	assert.Equal(t, 3, OrderStatusDelivered.Rank())
}
