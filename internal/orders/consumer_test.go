package orders

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/blob"
	"github.com/fjod/go_cart/storefront/internal/events"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanReader struct {
	msgs   chan kafka.Message
	closed bool
}

func (r *chanReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *chanReader) Close() error {
	r.closed = true
	return nil
}

func message(t *testing.T, eventType string, ev events.CartCheckedOut) kafka.Message {
	t.Helper()
	payload, err := json.Marshal(ev)
	require.NoError(t, err)
	return kafka.Message{
		Key:     []byte(ev.SessionID),
		Value:   payload,
		Headers: []kafka.Header{{Key: "event_type", Value: []byte(eventType)}},
	}
}

func TestConsumer_RecordsCheckouts(t *testing.T) {
	h := NewHistory(blob.NewMemory(), quietLogger())
	reader := &chanReader{msgs: make(chan kafka.Message, 4)}
	c := NewConsumer(h, reader, quietLogger())

	ev := events.NewCartCheckedOut("s1", snapshot("c1"))
	reader.msgs <- message(t, events.EventCartCheckedOut, ev)
	reader.msgs <- message(t, events.EventCartCheckedOut, ev)
	reader.msgs <- message(t, "something_else", events.NewCartCheckedOut("s1", snapshot("c2")))
	reader.msgs <- kafka.Message{Value: []byte("garbage")}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(reader.msgs) == 0 }, time.Second, 10*time.Millisecond)
	cancel()
	<-done
	require.NoError(t, c.Close())
	assert.True(t, reader.closed)

	list, err := h.List(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "c1", list[0].CheckoutID)
}
