package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

const kvTable = "kv"

// SQLiteStore 는 (collection, key) 를 기본 키로 하는 단일 테이블 Store 다.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite 는 dbPath 의 데이터베이스를 열고 테이블을 만든다.
// 파일 DB 는 WAL 모드로, ":memory:" 는 공유 캐시 단일 커넥션으로 연다.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		collection TEXT NOT NULL,
		key TEXT NOT NULL,
		value BLOB NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (collection, key)
	);
	CREATE INDEX IF NOT EXISTS idx_kv_updated ON kv(collection, updated_at DESC);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, collection, key string) ([]byte, error) {
	query, args, err := sq.Select("value").From(kvTable).
		Where(sq.Eq{"collection": collection, "key": key}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var value []byte
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(collection, key)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, key, err)
	}
	return value, nil
}

func (s *SQLiteStore) Put(ctx context.Context, collection, key string, value []byte) error {
	query, args, err := sq.Insert(kvTable).
		Columns("collection", "key", "value", "updated_at").
		Values(collection, key, value, time.Now().UTC()).
		Suffix("ON CONFLICT(collection, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("put %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *SQLiteStore) Exists(ctx context.Context, collection, key string) (bool, error) {
	query, args, err := sq.Select("COUNT(1)").From(kvTable).
		Where(sq.Eq{"collection": collection, "key": key}).
		ToSql()
	if err != nil {
		return false, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("exists %s/%s: %w", collection, key, err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, collection string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	// sq.Eq 에 슬라이스를 주면 IN (...) 으로 바뀐다.
	query, args, err := sq.Delete(kvTable).
		Where(sq.Eq{"collection": collection, "key": keys}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete from %s: %w", collection, err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, collection string) ([]Entry, error) {
	query, args, err := sq.Select("key", "value").From(kvTable).
		Where(sq.Eq{"collection": collection}).
		OrderBy("key ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Value); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close(ctx context.Context) error {
	return s.db.Close()
}
