package rfstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-redis/redis/v8"
)

// RedisDriver is the document-database-flavored Driver implementation
// (spec.md §4.1), using the same "TABLE|key" hash-per-record convention the
// teacher's sonic device tables use (internal/testutil/redis.go), here
// keyed by the storage-assigned id instead of a device-native key.
type RedisDriver struct {
	client *redis.Client
}

// NewRedisDriver wraps an existing go-redis client.
func NewRedisDriver(client *redis.Client) *RedisDriver {
	return &RedisDriver{client: client}
}

// NewRedisDriverAt dials a Redis instance at addr and wraps it, for callers
// (cmd/rfserver) that only have an address, not an already-built client.
func NewRedisDriverAt(addr string) (*RedisDriver, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("rfstore: connecting to redis at %s: %w", addr, err)
	}
	return NewRedisDriver(client), nil
}

func redisKey(table string, id int64) string {
	return fmt.Sprintf("%s|%d", table, id)
}

func seqKey(table string) string {
	return table + "|_seq"
}

func (d *RedisDriver) Scan(ctx context.Context, table string, filter map[string]string) ([]StoredRecord, error) {
	prefix := table + "|"
	var out []StoredRecord
	var cursor uint64
	for {
		keys, next, err := d.client.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("rfstore: scanning %s: %w", table, err)
		}
		for _, key := range keys {
			idStr := strings.TrimPrefix(key, prefix)
			if idStr == "_seq" {
				continue
			}
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil {
				continue
			}
			fields, err := d.client.HGetAll(ctx, key).Result()
			if err != nil {
				return nil, fmt.Errorf("rfstore: reading %s: %w", key, err)
			}
			if matches(fields, filter) {
				out = append(out, StoredRecord{ID: id, Fields: fields})
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return out, nil
}

func (d *RedisDriver) Insert(ctx context.Context, table string, fields map[string]string) (int64, error) {
	id, err := d.client.Incr(ctx, seqKey(table)).Result()
	if err != nil {
		return 0, fmt.Errorf("rfstore: allocating id in %s: %w", table, err)
	}
	if err := d.writeHash(ctx, redisKey(table, id), fields); err != nil {
		return 0, err
	}
	return id, nil
}

func (d *RedisDriver) Update(ctx context.Context, table string, id int64, fields map[string]string) error {
	key := redisKey(table, id)
	if err := d.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("rfstore: clearing %s before update: %w", key, err)
	}
	return d.writeHash(ctx, key, fields)
}

func (d *RedisDriver) Delete(ctx context.Context, table string, id int64) error {
	if err := d.client.Del(ctx, redisKey(table, id)).Err(); err != nil {
		return fmt.Errorf("rfstore: deleting %s: %w", redisKey(table, id), err)
	}
	return nil
}

func (d *RedisDriver) writeHash(ctx context.Context, key string, fields map[string]string) error {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	if len(args) == 0 {
		return nil
	}
	if err := d.client.HSet(ctx, key, args...).Err(); err != nil {
		return fmt.Errorf("rfstore: writing %s: %w", key, err)
	}
	return nil
}
