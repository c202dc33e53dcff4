package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"literature-search-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func TestHubSendReachesOnlyTargetUser(t *testing.T) {
	hub, _ := startHub(t)
	alice, bob := uuid.New(), uuid.New()

	a1 := &Client{Hub: hub, UserID: alice, Send: make(chan []byte, 4)}
	a2 := &Client{Hub: hub, UserID: alice, Send: make(chan []byte, 4)}
	b1 := &Client{Hub: hub, UserID: bob, Send: make(chan []byte, 4)}
	for _, c := range []*Client{a1, a2, b1} {
		require.True(t, hub.Register(c))
	}
	require.Eventually(t, func() bool { return hub.ConnectedClients(alice) == 2 }, time.Second, 5*time.Millisecond)

	hub.Send(alice, "stage_completed", map[string]string{"stage": "results"})

	for _, c := range []*Client{a1, a2} {
		select {
		case raw := <-c.Send:
			var msg Message
			require.NoError(t, json.Unmarshal(raw, &msg))
			assert.Equal(t, "stage_completed", msg.Type)
		case <-time.After(time.Second):
			t.Fatal("message not delivered")
		}
	}
	assert.Len(t, b1.Send, 0)
}

func TestHubDropsClientWithFullBuffer(t *testing.T) {
	hub, _ := startHub(t)
	user := uuid.New()
	slow := &Client{Hub: hub, UserID: user, Send: make(chan []byte, 1)}
	require.True(t, hub.Register(slow))
	require.Eventually(t, func() bool { return hub.ConnectedClients(user) == 1 }, time.Second, 5*time.Millisecond)

	hub.Send(user, "a", nil)
	hub.Send(user, "b", nil)

	require.Eventually(t, func() bool { return hub.ConnectedClients(user) == 0 }, time.Second, 5*time.Millisecond)

	// Double unregister is harmless.
	hub.Unregister(slow)
	_, ok := <-slow.Send
	assert.True(t, ok, "buffered message is still readable")
	_, ok = <-slow.Send
	assert.False(t, ok, "channel closed by the hub")
}

func TestHubStopsCleanly(t *testing.T) {
	hub, cancel := startHub(t)
	c := &Client{Hub: hub, UserID: uuid.New(), Send: make(chan []byte, 1)}
	require.True(t, hub.Register(c))

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-c.Send:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
	assert.False(t, hub.Register(&Client{Hub: hub, UserID: uuid.New(), Send: make(chan []byte)}))
}
