package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/roombooking/config"
	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockTimeout is returned when a slot lock could not be taken before the context deadline.
var ErrLockTimeout = errors.New("cache: slot lock not acquired")

const lockRetryInterval = 25 * time.Millisecond

type RedisCache struct {
	client     redis.UniversalClient
	catalogTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, catalogTTL time.Duration) *RedisCache {
	return NewRedisCacheWithClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		catalogTTL,
	)
}

func NewRedisCacheWithClient(client redis.UniversalClient, catalogTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, catalogTTL: catalogTTL}
}

// GetTimeSlots returns nil, nil on a cache miss.
func (c *RedisCache) GetTimeSlots(ctx context.Context) ([]domain.TimeSlot, error) {
	var slots []domain.TimeSlot
	ok, err := c.getJSON(ctx, timeSlotsKey(), &slots)
	if err != nil || !ok {
		return nil, err
	}
	return slots, nil
}

func (c *RedisCache) SetTimeSlots(ctx context.Context, slots []domain.TimeSlot) error {
	return c.setJSON(ctx, timeSlotsKey(), slots)
}

// GetMonitorings returns nil, nil on a cache miss.
func (c *RedisCache) GetMonitorings(ctx context.Context) ([]domain.Monitoring, error) {
	var monitorings []domain.Monitoring
	ok, err := c.getJSON(ctx, monitoringsKey(), &monitorings)
	if err != nil || !ok {
		return nil, err
	}
	return monitorings, nil
}

func (c *RedisCache) SetMonitorings(ctx context.Context, monitorings []domain.Monitoring) error {
	return c.setJSON(ctx, monitoringsKey(), monitorings)
}

// AcquireSlotLock takes the lock for a room and date, retrying until it succeeds
// or ctx is done. The returned token must be passed to ReleaseSlotLock.
func (c *RedisCache) AcquireSlotLock(ctx context.Context, roomID, date string, ttl time.Duration) (string, error) {
	key := slotLockKey(roomID, date)
	token := uuid.NewString()
	for {
		ok, err := c.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return "", fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
			}
			return "", err
		}
		if ok {
			return token, nil
		}
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
		case <-time.After(lockRetryInterval):
		}
	}
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// ReleaseSlotLock deletes the lock only if it is still held with token.
func (c *RedisCache) ReleaseSlotLock(ctx context.Context, roomID, date, token string) error {
	return releaseScript.Run(ctx, c.client, []string{slotLockKey(roomID, date)}, token).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) setJSON(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, c.catalogTTL).Err()
}

func timeSlotsKey() string {
	return "cache:catalog:time_slots"
}

func monitoringsKey() string {
	return "cache:catalog:monitorings"
}

func slotLockKey(roomID, date string) string {
	return fmt.Sprintf("lock:room:%s:date:%s", roomID, date)
}
