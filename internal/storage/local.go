package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

const conversationsKey = "conversations"

// LocalStore is the per-device durability backstop: a single SQLite file with
// one key-value table holding the serialized conversation list under a fixed
// key. It carries no timeout discipline; if it fails the environment is
// broken, not degraded.
type LocalStore struct {
	db  *sql.DB
	sql sq.StatementBuilderType
}

func OpenLocal(ctx context.Context, path string) (*LocalStore, error) {
	if path == "" {
		return nil, fmt.Errorf("local store path is empty")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	db.SetMaxOpenConns(1)

	const schema = `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init local schema: %w", err)
	}

	return &LocalStore{
		db:  db,
		sql: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}, nil
}

func (s *LocalStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ReadAll returns the locally stored conversation list, empty when nothing
// has been written yet.
func (s *LocalStore) ReadAll(ctx context.Context) ([]Conversation, error) {
	q := s.sql.Select("value").From("kv").Where(sq.Eq{"key": conversationsKey})
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build local read query: %w", err)
	}

	var value string
	if err := s.db.QueryRowContext(ctx, sqlStr, args...).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []Conversation{}, nil
		}
		return nil, fmt.Errorf("read local conversations: %w", err)
	}

	var out []Conversation
	if err := json.Unmarshal([]byte(value), &out); err != nil {
		return nil, fmt.Errorf("parse local conversations: %w", err)
	}
	if out == nil {
		out = []Conversation{}
	}
	return out, nil
}

// WriteAll replaces the stored list wholesale. Read-modify-write sequences
// built on top of it are not atomic; the single-writer turn model keeps that
// window acceptable.
func (s *LocalStore) WriteAll(ctx context.Context, conversations []Conversation) error {
	if conversations == nil {
		conversations = []Conversation{}
	}
	value, err := json.Marshal(conversations)
	if err != nil {
		return fmt.Errorf("marshal local conversations: %w", err)
	}

	q := s.sql.Insert("kv").
		Columns("key", "value").
		Values(conversationsKey, string(value)).
		Suffix("ON CONFLICT(key) DO UPDATE SET value=excluded.value")

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build local write query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("write local conversations: %w", err)
	}
	return nil
}
