package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	b := NewBroadcaster()

	first := make(chan string, 1)
	second := make(chan string, 1)
	b.Register(first)
	b.Register(second)
	assert.Equal(t, 2, b.Count())

	b.Broadcast("queue updated")

	assert.Equal(t, "queue updated", <-first)
	assert.Equal(t, "queue updated", <-second)
}

func TestUnregisterClosesChannel(t *testing.T) {
	b := NewBroadcaster()

	client := make(chan string, 1)
	b.Register(client)
	b.Unregister(client)
	assert.Equal(t, 0, b.Count())

	_, open := <-client
	assert.False(t, open)

	// Unregistering twice is a no-op
	b.Unregister(client)
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	b := NewBroadcaster()

	// Unbuffered channel with no reader blocks the send
	slow := make(chan string)
	fast := make(chan string, 2)
	b.Register(slow)
	b.Register(fast)

	b.Broadcast("first")
	assert.Equal(t, 1, b.Count())

	b.Broadcast("second")
	require.Equal(t, "first", <-fast)
	require.Equal(t, "second", <-fast)
}
