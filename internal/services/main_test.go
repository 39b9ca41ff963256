package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"wayfarer/internal/docstore"
	"wayfarer/internal/pkg/caching"

	"github.com/samber/do"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

// memCache is an in-process caching.Cache with the same encode/miss
// semantics as the redis-backed one.
type memCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{items: map[string][]byte{}}
}

func (c *memCache) Get(ctx context.Context, key string, target any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.items[key]
	if !ok {
		return caching.ErrCacheMiss
	}
	return msgpack.Unmarshal(b, target)
}

func (c *memCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	b, err := msgpack.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = b
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

// newTestContainer wires the services against the in-memory store and cache.
func newTestContainer(t *testing.T) (*do.Injector, *docstore.Memory) {
	t.Helper()

	store := docstore.NewMemory()
	cache := newMemCache()

	injector := do.New()
	do.ProvideValue[docstore.Store](injector, store)
	do.ProvideValue[caching.Cache](injector, cache)
	do.ProvideValue[caching.ReadOnlyCache](injector, cache)

	do.Provide(injector, func(i *do.Injector) (*NotificationState, error) {
		return NewNotificationState(injector)
	})
	do.Provide(injector, func(i *do.Injector) (*ServiceBadge, error) {
		return NewServiceBadge(injector)
	})
	do.Provide(injector, func(i *do.Injector) (*ServiceJourney, error) {
		return NewServiceJourney(injector)
	})
	do.Provide(injector, func(i *do.Injector) (*ServiceMigration, error) {
		return NewServiceMigration(injector)
	})

	return injector, store
}

func invokeBadge(t *testing.T, injector *do.Injector) *ServiceBadge {
	t.Helper()
	service, err := do.Invoke[*ServiceBadge](injector)
	require.NoError(t, err)
	return service
}

func invokeJourney(t *testing.T, injector *do.Injector) *ServiceJourney {
	t.Helper()
	service, err := do.Invoke[*ServiceJourney](injector)
	require.NoError(t, err)
	return service
}

func invokeMigration(t *testing.T, injector *do.Injector) *ServiceMigration {
	t.Helper()
	service, err := do.Invoke[*ServiceMigration](injector)
	require.NoError(t, err)
	return service
}
