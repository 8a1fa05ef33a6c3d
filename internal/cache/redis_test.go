package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/sellotec/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := NewRedisClient(mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func TestPresenceLifecycle(t *testing.T) {
	client, mr := newTestClient(t)
	userID := uuid.New()

	// Unknown users read as offline.
	online, err := client.IsOnline(userID)
	require.NoError(t, err)
	assert.False(t, online)

	require.NoError(t, client.SetUserOnline(userID))
	online, err = client.IsOnline(userID)
	require.NoError(t, err)
	assert.True(t, online)

	// A dead connection stops refreshing the key; past the TTL the user
	// reads as offline again.
	mr.FastForward(presenceTTL + time.Second)
	online, err = client.IsOnline(userID)
	require.NoError(t, err)
	assert.False(t, online)
}

func TestSetUserOffline(t *testing.T) {
	client, _ := newTestClient(t)
	userID := uuid.New()

	require.NoError(t, client.SetUserOnline(userID))
	require.NoError(t, client.SetUserOffline(userID))

	presence, err := client.GetUserPresence(userID)
	require.NoError(t, err)
	assert.Equal(t, "offline", presence.Status)
}

func TestPublishSubscribeMessages(t *testing.T) {
	client, _ := newTestClient(t)

	sub := client.SubscribeToMessages()
	defer sub.Close()

	// Wait for the subscription to be confirmed before publishing, or the
	// event can slip past an unregistered subscriber.
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)
	ch := sub.Channel()

	msg := models.WSMessage{
		Event:   models.EventMessageNew,
		Payload: map[string]string{"content": "hola"},
	}
	require.NoError(t, client.PublishMessage(msg))

	select {
	case got := <-ch:
		var decoded models.WSMessage
		require.NoError(t, json.Unmarshal([]byte(got.Payload), &decoded))
		assert.Equal(t, models.EventMessageNew, decoded.Event)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published message")
	}
}

func TestPublishSubscribeBlocks(t *testing.T) {
	client, _ := newTestClient(t)

	sub := client.SubscribeToBlocks()
	defer sub.Close()

	_, err := sub.Receive(context.Background())
	require.NoError(t, err)
	ch := sub.Channel()

	userID := uuid.New()
	require.NoError(t, client.PublishBlock(models.BlockUpdate{
		UserID:    userID,
		Blocked:   true,
		ChangedAt: time.Now(),
	}))

	select {
	case got := <-ch:
		var decoded models.WSMessage
		require.NoError(t, json.Unmarshal([]byte(got.Payload), &decoded))
		assert.Equal(t, models.EventBlockUpdate, decoded.Event)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for block update")
	}
}

func TestAllowAction_BurstThenLimited(t *testing.T) {
	client, _ := newTestClient(t)
	userID := uuid.New()

	burst := 3
	for i := 0; i < burst; i++ {
		ok, err := client.AllowAction(userID, "send", 1, burst)
		require.NoError(t, err)
		assert.True(t, ok, "request %d within burst should pass", i)
	}

	ok, err := client.AllowAction(userID, "send", 1, burst)
	require.NoError(t, err)
	assert.False(t, ok, "request past the burst should be limited")
}
