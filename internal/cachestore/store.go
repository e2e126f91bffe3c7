// Package cachestore 把网关的翻译缓存持久化到 sqlite，重启后用于预热 FIFO 缓存。
package cachestore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nerdneilsfield/kiosk-translate/pkg/translation"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS translations (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	target     TEXT NOT NULL,
	source     TEXT NOT NULL,
	mime_type  TEXT NOT NULL,
	text       TEXT NOT NULL,
	value      TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	UNIQUE (target, source, mime_type, text)
);`

// pragmas 每个连接上执行的 pragma
var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 10000",
	"PRAGMA synchronous = NORMAL",
}

// Store sqlite 缓存存储
type Store struct {
	db   *sql.DB
	path string
}

// Open 打开（必要时创建）缓存数据库
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("cachestore: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cachestore: open: %w", err)
	}
	// 单连接：sqlite 只有一个写者，:memory: 也需要共享同一连接
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("cachestore: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cachestore: exec schema: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("cachestore: ping: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path 返回数据库路径
func (s *Store) Path() string {
	return s.path
}

// Load 按插入顺序返回最新的 limit 条缓存，limit <= 0 表示全部
func (s *Store) Load(ctx context.Context, limit int) ([]translation.CacheEntry, error) {
	query := `SELECT target, source, mime_type, text, value FROM (
		SELECT seq, target, source, mime_type, text, value FROM translations ORDER BY seq DESC LIMIT ?
	) ORDER BY seq ASC`
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("cachestore: load: %w", err)
	}
	defer rows.Close()

	var entries []translation.CacheEntry
	for rows.Next() {
		var e translation.CacheEntry
		if err := rows.Scan(&e.Key.Target, &e.Key.Source, &e.Key.MimeType, &e.Key.Text, &e.Value); err != nil {
			return nil, fmt.Errorf("cachestore: scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cachestore: load: %w", err)
	}
	return entries, nil
}

// Save 写入缓存条目；已存在的键只更新译文，保持原有顺序
func (s *Store) Save(ctx context.Context, entries []translation.CacheEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO translations (target, source, mime_type, text, value, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (target, source, mime_type, text) DO UPDATE SET value = excluded.value`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		now := time.Now().Unix()
		for _, e := range entries {
			if _, err := stmt.ExecContext(ctx, e.Key.Target, e.Key.Source, e.Key.MimeType, e.Key.Text, e.Value, now); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete 删除被淘汰的缓存键
func (s *Store) Delete(ctx context.Context, keys []translation.CacheKey) error {
	if len(keys) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `DELETE FROM translations WHERE target = ? AND source = ? AND mime_type = ? AND text = ?`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, k := range keys {
			if _, err := stmt.ExecContext(ctx, k.Target, k.Source, k.MimeType, k.Text); err != nil {
				return err
			}
		}
		return nil
	})
}

// Count 返回存储的条目数
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM translations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("cachestore: count: %w", err)
	}
	return n, nil
}

// Close 关闭数据库
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cachestore: begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("cachestore: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cachestore: commit: %w", err)
	}
	return nil
}
