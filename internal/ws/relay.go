package ws

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"messaging-service/internal/logger"
)

const (
	relayChannelPrefix = "chat:user:"
	presenceKey        = "chat:presence"
	presenceTimeout    = 500 * time.Millisecond
)

// RedisRelay fans frames out across instances: Route publishes to the user's
// channel and Run delivers every published frame to this instance's hub.
// While the subscription is down, or a publish fails, frames go straight to
// the local hub.
type RedisRelay struct {
	rdb        *redis.Client
	hub        *Hub
	subscribed atomic.Bool

	retryInitial time.Duration
	retryMax     time.Duration
}

// NewRedisRelay wires the relay into hub so presence follows local connections.
func NewRedisRelay(rdb *redis.Client, hub *Hub) *RedisRelay {
	r := &RedisRelay{
		rdb:          rdb,
		hub:          hub,
		retryInitial: 500 * time.Millisecond,
		retryMax:     30 * time.Second,
	}
	hub.SetPresenceHook(r.trackPresence)
	return r
}

func relayChannel(userID int64) string {
	return relayChannelPrefix + strconv.FormatInt(userID, 10)
}

// Subscribed reports whether Run currently holds the pattern subscription.
func (r *RedisRelay) Subscribed() bool {
	return r.subscribed.Load()
}

func (r *RedisRelay) Route(ctx context.Context, userID int64, payload []byte) error {
	if !r.subscribed.Load() {
		return r.hub.Deliver(userID, payload)
	}

	// Presence written while redis was unreachable can be missing, so local
	// connections always count.
	if r.hub.ConnectionCount(userID) == 0 {
		online, err := r.rdb.HGet(ctx, presenceKey, strconv.FormatInt(userID, 10)).Int64()
		if errors.Is(err, redis.Nil) || (err == nil && online <= 0) {
			return ErrNoLiveConnection
		}
	}

	if err := r.rdb.Publish(ctx, relayChannel(userID), payload).Err(); err != nil {
		logger.Warn("redis relay publish failed user_id=%d, delivering locally: %v", userID, err)
		if localErr := r.hub.Deliver(userID, payload); localErr != nil {
			return fmt.Errorf("publish: %v; local: %w", err, localErr)
		}
	}
	return nil
}

// Run subscribes to all user channels until ctx is cancelled, resubscribing
// with exponential backoff whenever the subscription cannot be held.
func (r *RedisRelay) Run(ctx context.Context) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.retryInitial
	b.MaxInterval = r.retryMax
	b.MaxElapsedTime = 0

	for {
		held, err := r.subscribe(ctx)
		r.subscribed.Store(false)
		if ctx.Err() != nil {
			return
		}
		if held {
			b.Reset()
		}

		wait := b.NextBackOff()
		logger.Warn("redis relay subscription lost, retrying in %s: %v", wait, err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// subscribe reports whether the subscription was established before it ended.
func (r *RedisRelay) subscribe(ctx context.Context) (bool, error) {
	pubsub := r.rdb.PSubscribe(ctx, relayChannelPrefix+"*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return false, err
	}
	r.subscribed.Store(true)
	logger.Info("redis relay subscribed pattern=%s*", relayChannelPrefix)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return true, ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return true, errors.New("subscription channel closed")
			}
			userID, err := strconv.ParseInt(strings.TrimPrefix(msg.Channel, relayChannelPrefix), 10, 64)
			if err != nil {
				logger.Warn("redis relay ignoring channel %s", msg.Channel)
				continue
			}
			if err := r.hub.Deliver(userID, []byte(msg.Payload)); err != nil && !errors.Is(err, ErrNoLiveConnection) {
				logger.Warn("redis relay delivery failed user_id=%d: %v", userID, err)
			}
		}
	}
}

// trackPresence counts, per user, the instances holding at least one connection.
func (r *RedisRelay) trackPresence(userID int64, online bool) {
	ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
	defer cancel()

	field := strconv.FormatInt(userID, 10)
	delta := int64(1)
	if !online {
		delta = -1
	}
	count, err := r.rdb.HIncrBy(ctx, presenceKey, field, delta).Result()
	if err != nil {
		logger.Warn("presence update failed user_id=%d online=%t: %v", userID, online, err)
		return
	}
	if count <= 0 {
		if err := r.rdb.HDel(ctx, presenceKey, field).Err(); err != nil {
			logger.Warn("presence cleanup failed user_id=%d: %v", userID, err)
		}
	}
}
