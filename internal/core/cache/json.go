package cache

import (
	"context"
	"encoding/json"
	"time"
)

// GetOrLoadJSON 值以 JSON 存储；load 返回 nil 时缓存 "null"。
// 缓存内容解不开（比如结构体改过字段类型）时删掉重新回源
func GetOrLoadJSON[T any](
	c *Cache,
	ctx context.Context,
	key string,
	ttl time.Duration,
	load func(ctx context.Context) (*T, error),
) (*T, error) {
	fill := func(ctx context.Context) ([]byte, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	}
	b, err := c.GetOrLoad(ctx, key, ttl, fill)
	if err != nil {
		return nil, err
	}
	if out, err := decode[T](b); err == nil {
		return out, nil
	}
	if err := c.Invalidate(ctx, key); err != nil {
		return nil, err
	}
	if b, err = c.GetOrLoad(ctx, key, ttl, fill); err != nil {
		return nil, err
	}
	return decode[T](b)
}

func decode[T any](b []byte) (*T, error) {
	if string(b) == "null" {
		return nil, nil
	}
	out := new(T)
	if err := json.Unmarshal(b, out); err != nil {
		return nil, err
	}
	return out, nil
}
