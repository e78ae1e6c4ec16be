// Package notifications provides real-time delivery of feed events over Redis
// pub/sub and websockets.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"
	"strconv"
	"time"

	"inkwell/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Feed event types pushed to connected clients.
const (
	EventPostCreated    = "post_created"
	EventPostUpdated    = "post_updated"
	EventPostDeleted    = "post_deleted"
	EventCommentCreated = "comment_created"
	EventCommentDeleted = "comment_deleted"
)

// FeedEvent is the wire format of a realtime feed event.
type FeedEvent struct {
	Type      string    `json:"type"`
	PostID    uint      `json:"post_id"`
	ActorID   uint      `json:"actor_id"`
	Actor     string    `json:"actor"`
	Title     string    `json:"title,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier provides helpers to publish feed events into Redis channels.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishFeedEvent broadcasts a feed event to every connected client.
// Publishing is best-effort: a nil Redis client is a no-op.
func (n *Notifier) PublishFeedEvent(ctx context.Context, event FeedEvent) error {
	if n.rdb == nil {
		return nil
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal feed event: %w", err)
	}
	observability.FeedEventsPublished.WithLabelValues(event.Type).Inc()
	return n.rdb.Publish(ctx, "feed:broadcast", string(payload)).Err()
}

// PublishUser sends a payload to a single user's channel, e.g. telling a post
// author someone commented.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// StartSubscriber subscribes to the feed broadcast and per-user channels and
// calls onMessage for each incoming message.
func (n *Notifier) StartSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, "feed:user:*", "feed:broadcast")
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in feed subscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return "feed:user:" + strconv.FormatUint(uint64(userID), 10)
}
