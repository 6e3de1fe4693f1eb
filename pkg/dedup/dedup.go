// Package dedup provides a short-lived first-delivery check for webhook
// events. Payment providers retry webhooks; the SetNX key is a fast path to
// drop obvious duplicates, while the database remains the source of truth
// for idempotency.
package dedup

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const eventTTL = 24 * time.Hour

type Deduper struct {
	client *redis.Client
}

func NewDeduper(client *redis.Client) *Deduper {
	return &Deduper{client: client}
}

// FirstDelivery reports whether this event id has not been seen before.
// On Redis failure it returns the error; callers should treat that as
// "maybe first" and fall through to the idempotent database path.
func (d *Deduper) FirstDelivery(ctx context.Context, eventID string) (bool, error) {
	key := "webhook_event:" + eventID
	return d.client.SetNX(ctx, key, 1, eventTTL).Result()
}

// NewClient creates a Redis client and verifies connectivity.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}
