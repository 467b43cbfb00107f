package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func startHub(t *testing.T) (*Hub, func()) {
	t.Helper()
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- hub.Run(ctx) }()

	return hub, func() {
		cancel()
		require.NoError(t, <-errCh)
	}
}

func recv(t *testing.T, conn *Connection) Message {
	t.Helper()
	select {
	case data, ok := <-conn.Send:
		require.True(t, ok, "connection closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func closed(conn *Connection) bool {
	for {
		select {
		case _, ok := <-conn.Send:
			if !ok {
				return true
			}
		case <-time.After(2 * time.Second):
			return false
		}
	}
}

func TestHub_RoutesByClassroom(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub, stop := startHub(t)

	a1 := &Connection{ClassroomID: "A", Send: make(chan []byte, 8)}
	a2 := &Connection{ClassroomID: "A", Send: make(chan []byte, 8)}
	b1 := &Connection{ClassroomID: "B", Send: make(chan []byte, 8)}
	for _, c := range []*Connection{a1, a2, b1} {
		require.True(t, hub.Register(c))
	}

	hub.BroadcastToClassroom("A", "context_update", map[string]string{"topic": "chemistry"})
	for _, c := range []*Connection{a1, a2} {
		msg := recv(t, c)
		assert.Equal(t, "context_update", msg.Type)
		assert.JSONEq(t, `{"topic":"chemistry"}`, string(msg.Payload))
	}

	hub.SendTo(a1, "error", map[string]string{"message": "bad"})
	assert.Equal(t, "error", recv(t, a1).Type)

	hub.Unregister(a1)
	assert.True(t, closed(a1))

	hub.BroadcastToClassroom("B", "suggestions_update", []string{})
	assert.Equal(t, "suggestions_update", recv(t, b1).Type)

	hub.DisconnectClassroom("A")
	assert.True(t, closed(a2))

	stop()
	assert.True(t, closed(b1), "shutdown closes remaining clients")
	assert.Empty(t, a2.Send)
}

func TestHub_StoppedHubDoesNotBlock(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub, stop := startHub(t)
	stop()

	conn := &Connection{ClassroomID: "A", Send: make(chan []byte, 1)}
	assert.False(t, hub.Register(conn))
	hub.Unregister(conn)
	hub.DisconnectClassroom("A")
	for i := 0; i < 300; i++ {
		hub.BroadcastToClassroom("A", "context_update", nil)
	}
}
