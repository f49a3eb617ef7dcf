//go:build integration

package rftestutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisAddr returns the address of the test Redis instance, overridable via
// RFSERVER_TEST_REDIS_ADDR, defaulting to the conventional local instance.
func RedisAddr() string {
	if addr := os.Getenv("RFSERVER_TEST_REDIS_ADDR"); addr != "" {
		return addr
	}
	return "127.0.0.1:6379"
}

// SkipIfNoRedis skips the test unless the test Redis instance is reachable.
func SkipIfNoRedis(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client := redis.NewClient(&redis.Options{Addr: RedisAddr()})
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("test Redis not reachable at %s: %v", RedisAddr(), err)
	}
}

// FlushTestDB clears every key under the rfserver table prefixes, leaving
// other databases on a shared instance untouched.
func FlushTestDB(t *testing.T) {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: RedisAddr()})
	defer client.Close()

	ctx := context.Background()
	for _, prefix := range []string{"RFTABLE*", "RFISL*"} {
		keys, err := client.Keys(ctx, prefix).Result()
		if err != nil {
			t.Fatalf("listing keys %s: %v", prefix, err)
		}
		if len(keys) > 0 {
			if err := client.Del(ctx, keys...).Err(); err != nil {
				t.Fatalf("deleting keys %s: %v", prefix, err)
			}
		}
	}
}
