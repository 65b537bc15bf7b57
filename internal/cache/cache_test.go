package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type room struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

func TestRememberCallsLoaderOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute)
	calls := 0
	load := func(context.Context) ([]room, error) {
		calls++
		return []room{{ID: 1, Name: "VIP"}}, nil
	}

	first, err := Remember(ctx, s, RoomsKey, time.Minute, load)
	require.NoError(t, err)
	second, err := Remember(ctx, s, RoomsKey, time.Minute, load)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestForgetInvalidates(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute)
	calls := 0
	load := func(context.Context) (int, error) { calls++; return calls, nil }

	_, _ = Remember(ctx, s, RoomsKey, time.Minute, load)
	require.NoError(t, Forget(ctx, s, RoomsKey))
	v, err := Remember(ctx, s, RoomsKey, time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestRememberDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute)
	boom := errors.New("db down")

	_, err := Remember(ctx, s, "k", time.Minute, func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Minute)
	require.NoError(t, s.Set(ctx, "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)
	_, ok, _ := s.Get(ctx, "k")
	assert.False(t, ok)
}
