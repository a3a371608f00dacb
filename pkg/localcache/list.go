package localcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/thriftshop/storefront/pkg/logger"
)

const (
	// GuestCartKey holds the cart shadow as a JSON array of lines.
	GuestCartKey = "cart"
	// TokenKey holds the raw bearer token.
	TokenKey = "authToken"

	RecentlyViewedBase  = "recentlyViewed"
	SizePreferencesBase = "sizePreferences"
)

// ScopedKey scopes base to a user, or to the guest when userID is empty.
func ScopedKey(base, userID string) string {
	if userID == "" {
		return base + ":guest"
	}
	return base + ":user:" + userID
}

// LoadList decodes the JSON array stored under key. A missing key yields an
// empty list. A value that does not decode is deleted and also yields an
// empty list; only backend failures are returned as errors.
func LoadList[T any](ctx context.Context, kv KV, key string) ([]T, error) {
	raw, err := kv.Get(ctx, key)
	if errors.Is(err, ErrMiss) {
		return []T{}, nil
	}
	if err != nil {
		return []T{}, fmt.Errorf("load %s: %w", key, err)
	}

	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		logger.Warn("Discarding malformed cached list", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		if derr := kv.Delete(ctx, key); derr != nil {
			return []T{}, fmt.Errorf("discard %s: %w", key, derr)
		}
		return []T{}, nil
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// SaveList writes items as a JSON array. An empty list removes the key so
// that "nothing stored" and "stored empty list" cannot be told apart.
func SaveList[T any](ctx context.Context, kv KV, key string, items []T) error {
	if len(items) == 0 {
		if err := kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("clear %s: %w", key, err)
		}
		return nil
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// LoadMap decodes a JSON object stored under key with the same discard rules
// as LoadList.
func LoadMap[V any](ctx context.Context, kv KV, key string) (map[string]V, error) {
	raw, err := kv.Get(ctx, key)
	if errors.Is(err, ErrMiss) {
		return map[string]V{}, nil
	}
	if err != nil {
		return map[string]V{}, fmt.Errorf("load %s: %w", key, err)
	}
	var m map[string]V
	if err := json.Unmarshal([]byte(raw), &m); err != nil || m == nil {
		if derr := kv.Delete(ctx, key); derr != nil {
			return map[string]V{}, fmt.Errorf("discard %s: %w", key, derr)
		}
		return map[string]V{}, nil
	}
	return m, nil
}

// SaveMap writes m as a JSON object, removing the key when m is empty.
func SaveMap[V any](ctx context.Context, kv KV, key string, m map[string]V) error {
	if len(m) == 0 {
		return kv.Delete(ctx, key)
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return kv.Set(ctx, key, string(raw))
}

// LoadToken returns the stored bearer token or "" when none is stored.
func LoadToken(ctx context.Context, kv KV) (string, error) {
	tok, err := kv.Get(ctx, TokenKey)
	if errors.Is(err, ErrMiss) {
		return "", nil
	}
	return tok, err
}

func SaveToken(ctx context.Context, kv KV, token string) error {
	if token == "" {
		return kv.Delete(ctx, TokenKey)
	}
	return kv.Set(ctx, TokenKey, token)
}
