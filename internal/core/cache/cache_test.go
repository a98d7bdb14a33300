package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counts struct {
	Total int64 `json:"total"`
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestGetOrLoadJSONCachesValue(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	var loads atomic.Int32
	load := func(context.Context) (*counts, error) {
		loads.Add(1)
		return &counts{Total: 3}, nil
	}

	got, err := GetOrLoadJSON(c, ctx, "categories", time.Minute, load)
	require.NoError(t, err)
	assert.EqualValues(t, 3, got.Total)

	got, err = GetOrLoadJSON(c, ctx, "categories", time.Minute, load)
	require.NoError(t, err)
	assert.EqualValues(t, 3, got.Total)
	assert.EqualValues(t, 1, loads.Load())
	assert.True(t, mr.Exists("categories"))
	assert.Equal(t, time.Minute, mr.TTL("categories"))
}

func TestInvalidateForcesReload(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	n := int64(0)
	load := func(context.Context) (*counts, error) {
		n++
		return &counts{Total: n}, nil
	}

	first, err := GetOrLoadJSON(c, ctx, "k", time.Minute, load)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, "k", "missing"))
	second, err := GetOrLoadJSON(c, ctx, "k", time.Minute, load)
	require.NoError(t, err)

	assert.EqualValues(t, 1, first.Total)
	assert.EqualValues(t, 2, second.Total)
	require.NoError(t, c.Invalidate(ctx))
}

func TestGetOrLoadErrorNotCached(t *testing.T) {
	c, mr := newTestCache(t)
	boom := errors.New("db down")
	_, err := c.GetOrLoad(context.Background(), "k", time.Minute, func(context.Context) ([]byte, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("k"))
}

func TestGetOrLoadFallsBackWhenRedisDown(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()
	b, err := c.GetOrLoad(context.Background(), "k", time.Minute, func(context.Context) ([]byte, error) {
		return []byte(`{"total":1}`), nil
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":1}`, string(b))
}

func TestGetOrLoadConcurrentCallers(t *testing.T) {
	c, _ := newTestCache(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := c.GetOrLoad(context.Background(), "hot", time.Minute, func(context.Context) ([]byte, error) {
				return []byte("v"), nil
			})
			assert.NoError(t, err)
			assert.Equal(t, "v", string(b))
		}()
	}
	wg.Wait()
}

func TestGetOrLoadJSONReplacesUndecodableEntry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, mr.Set("k", `{"total":"three"}`))

	got, err := GetOrLoadJSON(c, ctx, "k", time.Minute, func(context.Context) (*counts, error) {
		return &counts{Total: 3}, nil
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, got.Total)

	raw, err := mr.Get("k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":3}`, raw)
}
