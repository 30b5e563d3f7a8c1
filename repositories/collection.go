// Package repositories 는 db.Store 위에 도메인별 타입 저장소를 제공한다.
// 모든 문서는 JSON 으로 인코딩된다.
package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"viral-recipes/db"
)

// collection 은 하나의 컬렉션에 대한 타입 지정 접근자다.
type collection[T any] struct {
	store db.Store
	name  string
}

func newCollection[T any](store db.Store, name string) collection[T] {
	return collection[T]{store: store, name: name}
}

func (c collection[T]) put(ctx context.Context, key string, v T) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", c.name, key, err)
	}
	return c.store.Put(ctx, c.name, key, b)
}

func (c collection[T]) get(ctx context.Context, key string) (T, error) {
	var v T
	b, err := c.store.Get(ctx, c.name, key)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return v, fmt.Errorf("decode %s/%s: %w", c.name, key, err)
	}
	return v, nil
}

// all 은 키 오름차순으로 모든 문서를 디코딩한다.
func (c collection[T]) all(ctx context.Context) ([]T, error) {
	entries, err := c.store.List(ctx, c.name)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(entries))
	for _, e := range entries {
		var v T
		if err := json.Unmarshal(e.Value, &v); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", c.name, e.Key, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (c collection[T]) keys(ctx context.Context) ([]string, error) {
	entries, err := c.store.List(ctx, c.name)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	return keys, nil
}

func (c collection[T]) delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.store.Delete(ctx, c.name, keys...)
}
