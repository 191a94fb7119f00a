package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"origen/pkg/platform/sentinel"
)

// RedisCache is a TTL-bound read-through cache in front of the official
// providers. The TTL doubles as the PII retention bound for registry data.
type RedisCache struct {
	client goredis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisCache(client goredis.Cmdable, ttl time.Duration, logger *slog.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func curpKey(curp string) string { return "registry:curp:" + curp }
func rfcKey(rfc string) string   { return "registry:rfc:" + rfc }

func (c *RedisCache) FindCURP(ctx context.Context, curp string) (*CURPRecord, error) {
	var record CURPRecord
	if err := c.find(ctx, curpKey(curp), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *RedisCache) SaveCURP(ctx context.Context, record *CURPRecord) error {
	return c.save(ctx, curpKey(record.CURP), record)
}

func (c *RedisCache) FindRFC(ctx context.Context, rfc string) (*RFCRecord, error) {
	var record RFCRecord
	if err := c.find(ctx, rfcKey(rfc), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *RedisCache) SaveRFC(ctx context.Context, record *RFCRecord) error {
	return c.save(ctx, rfcKey(record.RFC), record)
}

func (c *RedisCache) find(ctx context.Context, key string, out any) error {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("registry cache get: %w", err)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("registry cache decode: %w", err)
	}
	return nil
}

func (c *RedisCache) save(ctx context.Context, key string, record any) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("registry cache encode: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("registry cache set: %w", err)
	}
	return nil
}
