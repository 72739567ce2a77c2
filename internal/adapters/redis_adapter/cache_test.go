package redis_a_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redis_a "github.com/fungusmycelium/gestion-be/internal/adapters/redis_adapter"
	"github.com/fungusmycelium/gestion-be/internal/core/ports"
	"github.com/fungusmycelium/gestion-be/test/helpers"
)

func newTestCache(t *testing.T) (*miniredis.Miniredis, ports.CacheRepository) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, redis_a.NewCache(client, 5*time.Minute, helpers.TestLogger())
}

func TestCache_SetAndGet(t *testing.T) {
	ctx := context.Background()
	_, cache := newTestCache(t)

	tests := []struct {
		name  string
		key   string
		value interface{}
	}{
		{
			name:  "stores_and_retrieves_string",
			key:   "test:string",
			value: "test value",
		},
		{
			name: "stores_and_retrieves_struct",
			key:  "test:struct",
			value: struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			}{ID: "123", Name: "Test"},
		},
		{
			name:  "stores_and_retrieves_slice",
			key:   "test:slice",
			value: []string{"item1", "item2", "item3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cache.Set(ctx, tt.key, tt.value)
			require.NoError(t, err)

			switch want := tt.value.(type) {
			case string:
				var got string
				require.NoError(t, cache.Get(ctx, tt.key, &got))
				assert.Equal(t, want, got)
			case []string:
				var got []string
				require.NoError(t, cache.Get(ctx, tt.key, &got))
				assert.Equal(t, want, got)
			default:
				var raw json.RawMessage
				require.NoError(t, cache.Get(ctx, tt.key, &raw))
				expectedJSON, _ := json.Marshal(tt.value)
				assert.JSONEq(t, string(expectedJSON), string(raw))
			}
		})
	}
}

func TestCache_SetWithTTL(t *testing.T) {
	ctx := context.Background()
	mr, cache := newTestCache(t)

	err := cache.SetWithTTL(ctx, "ttl:test", "value", 100*time.Millisecond)
	require.NoError(t, err)

	var result string
	err = cache.Get(ctx, "ttl:test", &result)
	require.NoError(t, err)
	assert.Equal(t, "value", result)

	mr.FastForward(200 * time.Millisecond)

	err = cache.Get(ctx, "ttl:test", &result)
	assert.Equal(t, redis_a.ErrCacheMiss, err)
}

func TestCache_Delete(t *testing.T) {
	ctx := context.Background()
	_, cache := newTestCache(t)

	keys := []string{"del:1", "del:2", "del:3"}
	for _, key := range keys {
		require.NoError(t, cache.Set(ctx, key, "value"))
	}

	require.NoError(t, cache.Delete(ctx, keys...))

	for _, key := range keys {
		var result string
		err := cache.Get(ctx, key, &result)
		assert.Equal(t, redis_a.ErrCacheMiss, err)
	}
}

func TestCache_DeletePattern(t *testing.T) {
	ctx := context.Background()
	_, cache := newTestCache(t)

	keysToDelete := []string{"dash:monthly", "dash:daily", "dash:top"}
	keysToKeep := []string{"export:sales", "other:1"}

	for _, key := range append(keysToDelete, keysToKeep...) {
		require.NoError(t, cache.Set(ctx, key, "value"))
	}

	require.NoError(t, cache.DeletePattern(ctx, "dash:*"))

	for _, key := range keysToDelete {
		var result string
		err := cache.Get(ctx, key, &result)
		assert.Equal(t, redis_a.ErrCacheMiss, err, "key should be invalidated: %s", key)
	}

	for _, key := range keysToKeep {
		var result string
		require.NoError(t, cache.Get(ctx, key, &result))
		assert.Equal(t, "value", result)
	}
}

func TestCache_GetOrSet(t *testing.T) {
	ctx := context.Background()
	_, cache := newTestCache(t)

	fetchCount := 0
	fetchFunc := func() (interface{}, error) {
		fetchCount++
		return "fetched value", nil
	}

	var result1 string
	err := cache.GetOrSet(ctx, "getorset:test", &result1, fetchFunc, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "fetched value", result1)
	assert.Equal(t, 1, fetchCount)

	var result2 string
	err = cache.GetOrSet(ctx, "getorset:test", &result2, fetchFunc, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "fetched value", result2)
	assert.Equal(t, 1, fetchCount) // served from cache
}

func TestInvalidateDocumentCaches(t *testing.T) {
	ctx := context.Background()
	_, cache := newTestCache(t)

	keys := map[string]string{
		"dash:summary:2025-07":  "dashboard data",
		"projection:3":          "projection rows",
		"analysis:latest":       "narrative",
		"docs:sale:page1":       "documents list",
		"export:sales-2025.csv": "should survive",
	}

	for key, value := range keys {
		require.NoError(t, cache.Set(ctx, key, value))
	}

	redis_a.InvalidateDocumentCaches(ctx, cache, helpers.TestLogger())

	invalidated := []string{"dash:summary:2025-07", "projection:3", "analysis:latest", "docs:sale:page1"}
	for _, key := range invalidated {
		var result string
		err := cache.Get(ctx, key, &result)
		assert.Equal(t, redis_a.ErrCacheMiss, err, "key should be invalidated: %s", key)
	}

	var kept string
	require.NoError(t, cache.Get(ctx, "export:sales-2025.csv", &kept))
	assert.Equal(t, "should survive", kept)
}

func TestCache_BuildKey(t *testing.T) {
	tests := []struct {
		name     string
		prefix   redis_a.CacheKeyPrefix
		parts    []string
		expected string
	}{
		{
			name:     "dashboard_key",
			prefix:   redis_a.PrefixDashboard,
			parts:    []string{"summary", "2025-07"},
			expected: "dash:summary:2025-07",
		},
		{
			name:     "single_part",
			prefix:   redis_a.PrefixProjection,
			parts:    []string{"6"},
			expected: "projection:6",
		},
		{
			name:     "no_parts",
			prefix:   redis_a.PrefixAnalysis,
			parts:    []string{},
			expected: "analysis",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := redis_a.BuildKey(tt.prefix, tt.parts...)
			assert.Equal(t, tt.expected, result)
		})
	}
}
