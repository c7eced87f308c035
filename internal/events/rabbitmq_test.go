package events

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	e := New(TypePaymentSucceeded, map[string]interface{}{"order_id": 1})
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, TypePaymentSucceeded, e.Type)
	assert.WithinDuration(t, time.Now(), e.OccurredAt, time.Second)

	other := New(TypePaymentSucceeded, nil)
	assert.NotEqual(t, e.ID, other.ID)
}

func TestRabbitPublisher_Publish(t *testing.T) {
	url := os.Getenv("TEST_AMQP_URL")
	if url == "" {
		t.Skip("TEST_AMQP_URL not set, skipping RabbitMQ integration test")
	}
	conn, ch, err := SetupConn(url)
	if err != nil {
		t.Skip("RabbitMQ not available, skipping integration test")
	}
	defer conn.Close()
	defer ch.Close()

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, "payment.*", ExchangeName, false, nil))
	msgs, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)

	pub := NewRabbitPublisher(ch)
	sent := New(TypePaymentFailed, map[string]interface{}{"order_id": float64(9)})
	require.NoError(t, pub.Publish(context.Background(), sent))

	select {
	case msg := <-msgs:
		var got Event
		require.NoError(t, json.Unmarshal(msg.Body, &got))
		assert.Equal(t, sent.ID, got.ID)
		assert.Equal(t, TypePaymentFailed, msg.RoutingKey)
		assert.Equal(t, float64(9), got.Payload["order_id"])
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}
