package orders

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/fjod/go_cart/storefront/internal/events"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// GroupID is the consumer group the order history reads checkouts with.
const GroupID = "storefront-orders"

// MessageReader is the part of *kafka.Reader the consumer uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer feeds checkout events from Kafka into a History.
type Consumer struct {
	history *History
	reader  MessageReader
	log     logrus.FieldLogger
}

func NewKafkaConsumer(history *History, log logrus.FieldLogger, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    events.CheckoutTopic,
		GroupID:  GroupID,
		MaxBytes: 10e6, // 10MB
	})
	return NewConsumer(history, reader, log)
}

func NewConsumer(history *History, reader MessageReader, log logrus.FieldLogger) *Consumer {
	return &Consumer{history: history, reader: reader, log: log}
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return
		}
		c.log.WithError(err).Error("error reading message")
		return
	}

	if t := eventType(m); t != "" && t != events.EventCartCheckedOut {
		c.log.WithField("event_type", t).Debug("skipping event")
		return
	}

	var ev events.CartCheckedOut
	if err := json.Unmarshal(m.Value, &ev); err != nil {
		c.log.WithError(err).Error("error parsing message")
		return
	}

	if _, err := c.history.Record(ctx, ev); err != nil {
		if errors.Is(err, ErrDuplicateCheckout) {
			c.log.WithField("checkout_id", ev.CheckoutID).Debug("order already exists, skipping")
			return
		}
		c.log.WithError(err).WithField("checkout_id", ev.CheckoutID).Error("failed to create order")
	}
}

func eventType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return ""
}
