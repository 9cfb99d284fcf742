package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fjod/acai_cart/internal/domain"
	"github.com/segmentio/kafka-go"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// MessageWriter is the part of kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrderEvent is the payload of every order message. Order is only set on
// order.created.
type OrderEvent struct {
	Type       string             `json:"event_type"`
	OrderID    string             `json:"order_id"`
	Status     domain.OrderStatus `json:"status"`
	Total      string             `json:"total"`
	OccurredAt time.Time          `json:"occurred_at"`
	Order      *domain.Order      `json:"order,omitempty"`
}

// KafkaPublisher sends order events keyed by order id, so every event of an
// order lands on the same partition in order.
type KafkaPublisher struct {
	writer  MessageWriter
	nowFunc func() time.Time
}

func NewKafkaWriter(topic string, brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           10 * time.Second,
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaPublisher(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w, nowFunc: time.Now}
}

func (p *KafkaPublisher) PublishOrderCreated(ctx context.Context, o domain.Order) error {
	event := p.event(EventOrderCreated, o)
	event.Order = &o
	return p.publish(ctx, event)
}

func (p *KafkaPublisher) PublishStatusChanged(ctx context.Context, o domain.Order) error {
	return p.publish(ctx, p.event(EventOrderStatusChanged, o))
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func (p *KafkaPublisher) event(eventType string, o domain.Order) OrderEvent {
	return OrderEvent{
		Type:       eventType,
		OrderID:    o.ID,
		Status:     o.Status,
		Total:      o.Total.StringFixed(2),
		OccurredAt: p.nowFunc().UTC(),
	}
}

func (p *KafkaPublisher) publish(ctx context.Context, event OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s event: %w", event.Type, err)
	}
	return nil
}
