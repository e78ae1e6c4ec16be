package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_RegisterAndBroadcast(t *testing.T) {
	hub := NewHub()

	client, err := hub.Register(1, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, hub.ConnectionCount())

	hub.Broadcast(1, `{"type":"post_created"}`)

	select {
	case msg := <-client.Send:
		assert.JSONEq(t, `{"type":"post_created"}`, string(msg))
	default:
		t.Fatal("expected a queued message for the registered client")
	}

	hub.UnregisterClient(client)
	assert.Equal(t, 0, hub.ConnectionCount())
}

func TestHub_BroadcastAll_ReachesAnonymousClients(t *testing.T) {
	hub := NewHub()

	authed, err := hub.Register(7, nil)
	require.NoError(t, err)
	anon, err := hub.Register(0, nil)
	require.NoError(t, err)

	hub.BroadcastAll("hello")

	for _, c := range []*Client{authed, anon} {
		select {
		case msg := <-c.Send:
			assert.Equal(t, "hello", string(msg))
		default:
			t.Fatalf("client %d did not receive the broadcast", c.UserID)
		}
	}
}

func TestHub_PerUserConnectionLimit(t *testing.T) {
	hub := NewHub()

	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(1, nil)
		require.NoError(t, err)
	}

	_, err := hub.Register(1, nil)
	assert.EqualError(t, err, "user connection limit reached")
}

func TestNotifier_PublishFeedEvent_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	notifier := NewNotifier(rdb)
	hub := NewHub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, hub.StartWiring(ctx, notifier))

	client, err := hub.Register(0, nil)
	require.NoError(t, err)

	// PSubscribe needs a moment to attach before the publish.
	time.Sleep(50 * time.Millisecond)

	event := FeedEvent{Type: EventPostCreated, PostID: 3, ActorID: 1, Actor: "alice", Title: "hello"}
	require.NoError(t, notifier.PublishFeedEvent(ctx, event))

	select {
	case msg := <-client.Send:
		var got FeedEvent
		require.NoError(t, json.Unmarshal(msg, &got))
		assert.Equal(t, EventPostCreated, got.Type)
		assert.EqualValues(t, 3, got.PostID)
		assert.Equal(t, "alice", got.Actor)
		assert.False(t, got.Timestamp.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("feed event was not delivered to the hub client")
	}
}

func TestNotifier_NilClientIsNoOp(t *testing.T) {
	notifier := NewNotifier(nil)
	assert.NoError(t, notifier.PublishFeedEvent(context.Background(), FeedEvent{Type: EventPostDeleted}))
	assert.NoError(t, notifier.PublishUser(context.Background(), 1, "x"))
	assert.NoError(t, notifier.StartSubscriber(context.Background(), nil))
}
