// Package events hands checked-out carts to downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/lineitem"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const (
	CheckoutTopic       = "checkout-outbox"
	EventCartCheckedOut = "cart_checked_out"
)

// CartCheckedOut is the payload written for every checkout.
type CartCheckedOut struct {
	CheckoutID   string          `json:"checkout_id"`
	SessionID    string          `json:"session_id"`
	Items        []lineitem.Item `json:"items"`
	Quantity     int             `json:"quantity"`
	Total        float64         `json:"total"`
	CheckedOutAt time.Time       `json:"checked_out_at"`
}

// Sink receives checked-out carts of any session.
type Sink interface {
	PublishCheckout(ctx context.Context, sessionID string, snapshot cart.Snapshot) error
	Close() error
}

// For binds sink to one session so it can be passed to cart.Store.Checkout.
func For(sink Sink, sessionID string) cart.CheckoutPublisher {
	return cart.PublisherFunc(func(ctx context.Context, s cart.Snapshot) error {
		return sink.PublishCheckout(ctx, sessionID, s)
	})
}

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes CartCheckedOut events to Kafka, keyed by session id so a
// session's checkouts stay ordered.
type Publisher struct {
	writer MessageWriter
	log    logrus.FieldLogger
}

// NewKafkaPublisher returns a Publisher writing to CheckoutTopic on brokers.
func NewKafkaPublisher(log logrus.FieldLogger, brokers ...string) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  CheckoutTopic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return NewPublisher(w, log)
}

func NewPublisher(w MessageWriter, log logrus.FieldLogger) *Publisher {
	return &Publisher{writer: w, log: log}
}

func (p *Publisher) PublishCheckout(ctx context.Context, sessionID string, s cart.Snapshot) error {
	payload, err := json.Marshal(NewCartCheckedOut(sessionID, s))
	if err != nil {
		return fmt.Errorf("failed to marshal checkout payload: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(sessionID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventCartCheckedOut)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish checkout %s: %w", s.CheckoutID, err)
	}
	p.log.WithFields(logrus.Fields{
		"session":     sessionID,
		"checkout_id": s.CheckoutID,
	}).Info("checkout published")
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// NewCartCheckedOut builds the event payload for a session's snapshot.
func NewCartCheckedOut(sessionID string, s cart.Snapshot) CartCheckedOut {
	return CartCheckedOut{
		CheckoutID:   s.CheckoutID,
		SessionID:    sessionID,
		Items:        s.Items,
		Quantity:     s.Quantity,
		Total:        s.Total,
		CheckedOutAt: s.CheckedOutAt,
	}
}
