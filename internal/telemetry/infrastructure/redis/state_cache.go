package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	telemetry "telematics-cloud/internal/telemetry/domain"
)

const defaultStateTTL = 5 * time.Minute

// StateCache keeps a short-lived latest-known-state hash per vehicle so the
// dashboard surface can read live positions without hitting Postgres.
type StateCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Option configures the cache.
type Option func(*StateCache)

// WithTTL overrides the state expiry.
func WithTTL(ttl time.Duration) Option {
	return func(c *StateCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// NewStateCache connects to Redis and verifies the connection.
func NewStateCache(ctx context.Context, addr, password string, db int, opts ...Option) (*StateCache, error) {
	if addr == "" {
		return nil, errors.New("state cache: empty addr")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("state cache: connect: %w", err)
	}
	cache := &StateCache{client: client, ttl: defaultStateTTL}
	for _, opt := range opts {
		opt(cache)
	}
	return cache, nil
}

// Close releases the underlying client.
func (c *StateCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Update writes the latest-known state for a vehicle with a TTL.
func (c *StateCache) Update(ctx context.Context, identifier string, event *telemetry.Event) error {
	if c == nil || c.client == nil {
		return errors.New("state cache: nil client")
	}
	if identifier == "" || event == nil {
		return errors.New("state cache: invalid arguments")
	}

	state := map[string]any{
		"vehicle_identifier": identifier,
		"event_id":           event.ID,
		"ts":                 event.Timestamp.Unix(),
		"event_type":         event.EventType,
	}
	if event.Position != nil {
		state["lat"] = event.Position.Latitude
		state["lon"] = event.Position.Longitude
	}
	if event.Speed != nil {
		state["speed_kmh"] = *event.Speed
	}
	if event.FuelLevel != nil {
		state["fuel_pct"] = *event.FuelLevel
	}
	if event.CoolantTemp != nil {
		state["coolant_temp_c"] = *event.CoolantTemp
	}

	key := stateKey(identifier)
	pipe := c.client.Pipeline()
	pipe.HSet(ctx, key, state)
	pipe.Expire(ctx, key, c.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func stateKey(identifier string) string {
	return "vehicle:" + identifier + ":state"
}
