package notifications

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := NewHub()

	a, err := hub.Register(1, nil)
	require.NoError(t, err)
	b, err := hub.Register(1, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, hub.Connections(1))

	hub.Unregister(a)
	hub.Unregister(a)
	assert.Equal(t, 1, hub.Connections(1))

	_, open := <-a.Send
	assert.False(t, open)

	hub.Unregister(b)
	assert.Zero(t, hub.Connections(1))
}

func TestHub_PerUserLimit(t *testing.T) {
	hub := NewHub()
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(3, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(3, nil)
	assert.ErrorIs(t, err, ErrUserConnLimit)

	_, err = hub.Register(4, nil)
	assert.NoError(t, err)
}

func TestHub_BroadcastDropsWhenFull(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(5, nil)
	require.NoError(t, err)

	for i := 0; i < sendBuffer+10; i++ {
		hub.Broadcast(5, "event")
	}
	assert.Len(t, c.Send, sendBuffer)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(9, nil)
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))
	_, open := <-c.Send
	assert.False(t, open)

	hub.Unregister(c)
	_, err = hub.Register(9, nil)
	assert.ErrorIs(t, err, ErrServerConnLimit)
}
