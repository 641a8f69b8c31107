package model

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS "groups" (
    group_id INTEGER PRIMARY KEY,
    title TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    group_id INTEGER NOT NULL,
    message_id INTEGER NOT NULL,
    text TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS statistics (
    entry_id TEXT PRIMARY KEY,
    group_id INTEGER NOT NULL,
    message_id INTEGER NOT NULL,
    sum REAL NOT NULL,
    percentage REAL NOT NULL,
    calc_sum REAL NOT NULL,
    course REAL,
    is_paid INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_group_created ON messages(group_id, created_at);
CREATE INDEX IF NOT EXISTS idx_statistics_group_created ON statistics(group_id, created_at);
CREATE INDEX IF NOT EXISTS idx_statistics_group_message ON statistics(group_id, message_id);
`

// MustOpen opens the sqlite database at path and applies the schema.
func MustOpen(path string) sqlx.SqlConn {
	conn, err := Open(context.Background(), path)
	if err != nil {
		panic(err)
	}
	return conn
}

func Open(ctx context.Context, path string) (sqlx.SqlConn, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	conn := sqlx.NewSqlConn(driverName, path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if _, err := conn.ExecCtx(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return conn, nil
}
