package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"tripconsole/internal/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	pickerPageKeyFmt = "picker:%s:%s"
	presetKeyFmt     = "preset:%s:%s"

	PickerPageTTL = 2 * time.Minute
	PresetTTL     = 30 * time.Minute
)

var client *redis.Client

// Init connects to Redis. On failure the client stays nil and every cache
// call degrades to a miss.
func Init(addr, password string, db int) error {
	c := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		client = nil
		return err
	}
	client = c
	return nil
}

func Close() {
	if client != nil {
		client.Close()
		client = nil
	}
}

func Enabled() bool { return client != nil }

// Fingerprint hashes the parts of a picker query (filters, page, operator
// unit) into a short cache key segment.
func Fingerprint(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// GetPickerPage returns a cached list page for a picker query.
func GetPickerPage(ctx context.Context, kind, fingerprint string) ([]byte, bool) {
	return get(ctx, "picker", fmt.Sprintf(pickerPageKeyFmt, kind, fingerprint))
}

func CachePickerPage(ctx context.Context, kind, fingerprint string, data []byte) {
	set(ctx, fmt.Sprintf(pickerPageKeyFmt, kind, fingerprint), data, PickerPageTTL)
}

func GetPreset(ctx context.Context, userID, picker string) ([]byte, bool) {
	return get(ctx, "preset", fmt.Sprintf(presetKeyFmt, userID, picker))
}

func CachePreset(ctx context.Context, userID, picker string, data []byte) {
	set(ctx, fmt.Sprintf(presetKeyFmt, userID, picker), data, PresetTTL)
}

func InvalidatePreset(ctx context.Context, userID, picker string) {
	if client == nil {
		return
	}
	client.Del(ctx, fmt.Sprintf(presetKeyFmt, userID, picker))
}

func get(ctx context.Context, cacheName, key string) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		metrics.CacheLookups.WithLabelValues(cacheName, "miss").Inc()
		return nil, false
	}
	metrics.CacheLookups.WithLabelValues(cacheName, "hit").Inc()
	return data, true
}

func set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if client == nil {
		return
	}
	client.Set(ctx, key, data, ttl)
}
