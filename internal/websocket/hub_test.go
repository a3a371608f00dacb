package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case msg, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		var ev Event
		require.NoError(t, json.Unmarshal(msg, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
		return Event{}
	}
}

func TestHub_PublishReachesEverySessionOfAddressedUsers(t *testing.T) {
	hub := startHub(t)
	phone := NewClient(hub, nil, 1)
	laptop := NewClient(hub, nil, 1)
	other := NewClient(hub, nil, 2)
	hub.Register(phone)
	hub.Register(laptop)
	hub.Register(other)
	require.Eventually(t, func() bool { return hub.IsUserOnline(1) && hub.IsUserOnline(2) }, time.Second, 5*time.Millisecond)

	hub.Publish(Event{Type: EventCartUpdated}, 1)

	assert.Equal(t, EventCartUpdated, receive(t, phone).Type)
	assert.Equal(t, EventCartUpdated, receive(t, laptop).Type)
	select {
	case <-other.Send:
		t.Fatal("user 2 should not receive user 1's event")
	case <-time.After(50 * time.Millisecond):
	}

	hub.Publish(Event{Type: EventStockChanged, ProductID: 9, Quantity: 0}, 1, 2)
	ev := receive(t, other)
	assert.Equal(t, EventStockChanged, ev.Type)
	assert.Equal(t, uint(9), ev.ProductID)
}

func TestHub_UnregisterClosesOnce(t *testing.T) {
	hub := startHub(t)
	c := NewClient(hub, nil, 5)
	hub.Register(c)
	require.Eventually(t, func() bool { return hub.IsUserOnline(5) }, time.Second, 5*time.Millisecond)

	hub.Unregister(c)
	hub.Unregister(c)
	require.Eventually(t, func() bool { return !hub.IsUserOnline(5) }, time.Second, 5*time.Millisecond)

	_, ok := <-c.Send
	assert.False(t, ok)
}

func TestHub_TypedPublishers(t *testing.T) {
	hub := startHub(t)
	c := NewClient(hub, nil, 5)
	hub.Register(c)
	require.Eventually(t, func() bool { return hub.IsUserOnline(5) }, time.Second, 5*time.Millisecond)

	hub.PublishStockChanged(3, 2, []uint{5})
	ev := receive(t, c)
	assert.Equal(t, Event{Type: EventStockChanged, ProductID: 3, Quantity: 2}, ev)

	hub.PublishCartUpdated(5)
	assert.Equal(t, EventCartUpdated, receive(t, c).Type)

	hub.PublishStockChanged(3, 2, nil)
	select {
	case <-c.Send:
		t.Fatal("no users addressed")
	case <-time.After(50 * time.Millisecond):
	}
}
