package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
	err  error
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, false, m.err
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.data, key)
	return nil
}

func TestTieredL2HitBackfillsL1(t *testing.T) {
	l1, l2 := newMemStore(), newMemStore()
	c := NewTieredCache(l1, l2, 15*time.Second, nil)
	ctx := context.Background()

	l2.data["k"] = []byte("v")

	val, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "v", string(val))
	assert.Equal(t, []byte("v"), l1.data["k"])
	assert.Equal(t, 15*time.Second, l1.ttls["k"])
}

func TestTieredSetCapsL1TTL(t *testing.T) {
	l1, l2 := newMemStore(), newMemStore()
	c := NewTieredCache(l1, l2, 15*time.Second, nil)

	require.NoError(t, c.Set(context.Background(), "k", []byte("v"), time.Minute))
	assert.Equal(t, 15*time.Second, l1.ttls["k"])
	assert.Equal(t, time.Minute, l2.ttls["k"])
}

func TestTieredDeleteClearsBothTiers(t *testing.T) {
	l1, l2 := newMemStore(), newMemStore()
	c := NewTieredCache(l1, l2, time.Second, nil)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))

	_, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestTieredL2FailureIsAMiss(t *testing.T) {
	l1, l2 := newMemStore(), newMemStore()
	l2.err = errors.New("redis down")
	c := NewTieredCache(l1, l2, time.Second, nil)

	_, found, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestTieredWithoutL2(t *testing.T) {
	l1 := newMemStore()
	c := NewTieredCache(l1, nil, time.Second, nil)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	val, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "v", string(val))
	require.NoError(t, c.Delete(ctx, "k"))
}

func TestJSONHelpers(t *testing.T) {
	s := newMemStore()
	ctx := context.Background()

	type item struct {
		Name string `json:"name"`
	}

	var out []item
	found, err := GetJSON(ctx, s, "missing", &out)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, SetJSON(ctx, s, "items", []item{{Name: "a"}, {Name: "b"}}, time.Minute))
	found, err = GetJSON(ctx, s, "items", &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []item{{Name: "a"}, {Name: "b"}}, out)

	s.data["broken"] = []byte("{")
	_, err = GetJSON(ctx, s, "broken", &out)
	require.Error(t, err)
}

func TestLocalCacheRoundTrip(t *testing.T) {
	l, err := NewLocalCache(1 << 20)
	require.NoError(t, err)
	defer l.Close()
	ctx := context.Background()

	require.NoError(t, l.Set(ctx, "k", []byte("value"), time.Minute))
	l.Wait()

	val, found, err := l.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "value", string(val))

	require.NoError(t, l.Delete(ctx, "k"))
	_, found, _ = l.Get(ctx, "k")
	assert.False(t, found)
}
