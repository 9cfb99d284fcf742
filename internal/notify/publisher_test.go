package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fjod/acai_cart/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	m        sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.m.Lock()
	defer f.m.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.m.Lock()
	defer f.m.Unlock()
	f.closed = true
	return nil
}

func testOrder() domain.Order {
	return domain.Order{
		ID:       "order-1",
		Subtotal: decimal.RequireFromString("40.50"),
		Discount: decimal.RequireFromString("2.02"),
		Total:    decimal.RequireFromString("38.48"),
		Status:   domain.OrderStatusReceived,
		CustomerInfo: domain.CustomerInfo{
			Name:          "Ana",
			PaymentMethod: domain.PaymentMethodPix,
		},
	}
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestPublishOrderCreated(t *testing.T) {
	w := &fakeWriter{}
	p := NewKafkaPublisher(w)
	fixed := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	p.nowFunc = func() time.Time { return fixed }

	require.NoError(t, p.PublishOrderCreated(context.Background(), testOrder()))

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, "order-1", string(msg.Key))
	assert.Equal(t, EventOrderCreated, header(msg, "event_type"))

	var event OrderEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, EventOrderCreated, event.Type)
	assert.Equal(t, "38.48", event.Total)
	assert.True(t, fixed.Equal(event.OccurredAt))
	require.NotNil(t, event.Order)
	assert.Equal(t, domain.PaymentMethodPix, event.Order.CustomerInfo.PaymentMethod)
}

func TestPublishStatusChanged(t *testing.T) {
	w := &fakeWriter{}
	p := NewKafkaPublisher(w)
	o := testOrder()
	o.Status = domain.OrderStatusOutForDelivery

	require.NoError(t, p.PublishStatusChanged(context.Background(), o))

	require.Len(t, w.messages, 1)
	assert.Equal(t, EventOrderStatusChanged, header(w.messages[0], "event_type"))

	var event OrderEvent
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &event))
	assert.Equal(t, domain.OrderStatusOutForDelivery, event.Status)
	assert.Nil(t, event.Order)
}

func TestPublish_WriterError(t *testing.T) {
	boom := errors.New("broker unreachable")
	p := NewKafkaPublisher(&fakeWriter{err: boom})

	err := p.PublishOrderCreated(context.Background(), testOrder())
	assert.ErrorIs(t, err, boom)
}

func TestClose(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, NewKafkaPublisher(w).Close())
	assert.True(t, w.closed)
}
