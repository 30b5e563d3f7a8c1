// Package db 는 저장소 백엔드(memory, MongoDB, SQLite)를 하나의 키-값 인터페이스로 감싼다.
// 값은 repositories 가 JSON 으로 인코딩한 문서다.
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"viral-recipes/config"
)

var ErrNotFound = errors.New("not found")

// Entry 는 컬렉션 안의 문서 하나다.
type Entry struct {
	Key   string
	Value []byte
}

// Store 는 컬렉션 단위 키-값 저장소다. List 는 키 오름차순으로 반환한다.
type Store interface {
	Get(ctx context.Context, collection, key string) ([]byte, error)
	Put(ctx context.Context, collection, key string, value []byte) error
	Exists(ctx context.Context, collection, key string) (bool, error)
	Delete(ctx context.Context, collection string, keys ...string) error
	List(ctx context.Context, collection string) ([]Entry, error)
	Close(ctx context.Context) error
}

// Open 은 설정의 driver 에 맞는 Store 를 연다.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "mongo", "mongodb":
		return OpenMongo(ctx, cfg.MongoURI, cfg.MongoDBName)
	case "sqlite":
		return OpenSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func notFound(collection, key string) error {
	return fmt.Errorf("%s/%s: %w", collection, key, ErrNotFound)
}
