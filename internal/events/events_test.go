package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/lineitem"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type mockWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msgs...)
	return nil
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

func snapshot() cart.Snapshot {
	return cart.Snapshot{
		CheckoutID:   "chk-1",
		Items:        []lineitem.Item{{ItemID: "a", ProductID: "1", Quantity: 2, DiscountedUnitPrice: 5, LineTotal: 10}},
		Quantity:     2,
		Total:        10,
		CheckedOutAt: time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestPublishCheckout_WritesKeyedMessage(t *testing.T) {
	w := &mockWriter{}
	p := NewPublisher(w, quietLogger())

	require.NoError(t, p.PublishCheckout(context.Background(), "sess-1", snapshot()))

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, "sess-1", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, EventCartCheckedOut, string(msg.Headers[0].Value))

	var ev CartCheckedOut
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	assert.Equal(t, "chk-1", ev.CheckoutID)
	assert.Equal(t, "sess-1", ev.SessionID)
	assert.Equal(t, 10.0, ev.Total)
	require.Len(t, ev.Items, 1)
	assert.Equal(t, "1", ev.Items[0].ProductID)
}

func TestPublishCheckout_WriterError(t *testing.T) {
	errKafka := errors.New("leader not available")
	p := NewPublisher(&mockWriter{err: errKafka}, quietLogger())

	err := p.PublishCheckout(context.Background(), "sess-1", snapshot())
	require.ErrorIs(t, err, errKafka)
	assert.ErrorContains(t, err, "chk-1")
}

func TestPublisher_Close(t *testing.T) {
	w := &mockWriter{}
	require.NoError(t, NewPublisher(w, quietLogger()).Close())
	assert.True(t, w.closed)
}

func TestFor_BindsSession(t *testing.T) {
	w := &mockWriter{}
	pub := For(NewPublisher(w, quietLogger()), "sess-9")

	require.NoError(t, pub.PublishCheckout(context.Background(), snapshot()))
	require.Len(t, w.messages, 1)
	assert.Equal(t, "sess-9", string(w.messages[0].Key))
}
