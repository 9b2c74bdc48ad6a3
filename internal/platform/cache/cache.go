// Package cache keeps computed availability in redis so the public
// availability and calendar endpoints do not hit postgres on every request.
// Writers invalidate; readers repopulate on miss.
//
// Every clinic has a version counter that Invalidate bumps. A reader takes
// the version before loading from the store and passes it to Set, which
// drops the write when an invalidation happened in between. Without it a
// list computed before a booking committed could be stored after the
// booking's invalidation and served for a full TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/moutazmahmoud/clinic-pwa/internal/domain/availability"
)

const keyPrefix = "availability"

// Availability is the slot cache used by the scheduling and appointment
// services.
type Availability interface {
	Get(ctx context.Context, clinicID uuid.UUID, date availability.Date) ([]availability.TimeOfDay, bool, error)
	// Version is read before loading the data later passed to Set.
	Version(ctx context.Context, clinicID uuid.UUID) (int64, error)
	// Set stores slots unless the clinic was invalidated after version
	// was read.
	Set(ctx context.Context, clinicID uuid.UUID, date availability.Date, version int64, slots []availability.TimeOfDay) error
	// Invalidate drops the given dates, or every date of the clinic when
	// none are given.
	Invalidate(ctx context.Context, clinicID uuid.UUID, dates ...availability.Date) error
}

// NewRedisClient parses a redis:// URL and checks the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Redis{client: client, ttl: ttl}
}

func key(clinicID uuid.UUID, date availability.Date) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, clinicID, date)
}

// versionKey sits outside the clinic's date pattern so a full invalidation
// does not delete it.
func versionKey(clinicID uuid.UUID) string {
	return fmt.Sprintf("%s-version:%s", keyPrefix, clinicID)
}

// KEYS[1] version, KEYS[2] entry; ARGV[1] expected version, ARGV[2] value,
// ARGV[3] ttl in ms.
var setIfCurrent = redis.NewScript(`
local cur = redis.call('GET', KEYS[1]) or '0'
if cur ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

func (r *Redis) Get(ctx context.Context, clinicID uuid.UUID, date availability.Date) ([]availability.TimeOfDay, bool, error) {
	data, err := r.client.Get(ctx, key(clinicID, date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	var slots []availability.TimeOfDay
	if err := json.Unmarshal(data, &slots); err != nil {
		// A bad entry is treated as a miss and overwritten by the caller.
		return nil, false, nil
	}
	return slots, true, nil
}

func (r *Redis) Version(ctx context.Context, clinicID uuid.UUID) (int64, error) {
	v, err := r.client.Get(ctx, versionKey(clinicID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache version: %w", err)
	}
	return v, nil
}

func (r *Redis) Set(ctx context.Context, clinicID uuid.UUID, date availability.Date, version int64, slots []availability.TimeOfDay) error {
	if slots == nil {
		slots = []availability.TimeOfDay{}
	}
	data, err := json.Marshal(slots)
	if err != nil {
		return err
	}
	keys := []string{versionKey(clinicID), key(clinicID, date)}
	if err := setIfCurrent.Run(ctx, r.client, keys, version, data, r.ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context, clinicID uuid.UUID, dates ...availability.Date) error {
	// Bump first so that a reader loading right now cannot store its result.
	if err := r.client.Incr(ctx, versionKey(clinicID)).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	if len(dates) > 0 {
		keys := make([]string, len(dates))
		for i, d := range dates {
			keys[i] = key(clinicID, d)
		}
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("cache invalidate: %w", err)
		}
		return nil
	}

	pattern := fmt.Sprintf("%s:%s:*", keyPrefix, clinicID)
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("cache scan: %w", err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache invalidate: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Noop is used when REDIS_URL is not configured: every read misses.
type Noop struct{}

func (Noop) Get(context.Context, uuid.UUID, availability.Date) ([]availability.TimeOfDay, bool, error) {
	return nil, false, nil
}

func (Noop) Version(context.Context, uuid.UUID) (int64, error) { return 0, nil }

func (Noop) Set(context.Context, uuid.UUID, availability.Date, int64, []availability.TimeOfDay) error {
	return nil
}

func (Noop) Invalidate(context.Context, uuid.UUID, ...availability.Date) error { return nil }
