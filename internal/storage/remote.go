package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

var ErrNotFound = errors.New("not found")

// Bounds for the two timed remote operations. Whichever settles first wins;
// a late completion on the abandoned side is harmless because fallback writes
// are overwritten by the next authoritative remote read.
const (
	configReadTimeout = 5 * time.Second
	historyTimeout    = 3 * time.Second
)

// RemoteStore is the shared Postgres-backed store holding configuration
// values and conversation rows. Whether it exists at all is decided once at
// startup: callers receive either a working *RemoteStore or nil, never a
// store that re-detects availability at call time.
type RemoteStore struct {
	db     *sql.DB
	sql    sq.StatementBuilderType
	logger zerolog.Logger
}

// OpenRemote opens the remote store from its URL and access key. A failed
// migration is logged and tolerated: per-operation errors then drive callers
// onto their local fallback paths instead of crashing the process.
func OpenRemote(ctx context.Context, storeURL, accessKey string, autoMigrate bool, migrationsDir string, logger zerolog.Logger) (*RemoteStore, error) {
	dsn, err := buildDSN(storeURL, accessKey)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open remote store: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if autoMigrate {
		if migrationsDir == "" {
			migrationsDir = "migrations"
		}
		if err := goose.SetDialect("postgres"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set goose dialect: %w", err)
		}
		if err := goose.Up(db, migrationsDir); err != nil {
			logger.Warn().Err(err).Msg("remote migrations failed, operations will fall back to local store")
		}
	}

	return &RemoteStore{
		db:     db,
		sql:    sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		logger: logger,
	}, nil
}

func buildDSN(storeURL, accessKey string) (string, error) {
	u, err := url.Parse(storeURL)
	if err != nil {
		return "", fmt.Errorf("parse remote store url: %w", err)
	}
	user := "postgres"
	if u.User != nil && u.User.Username() != "" {
		user = u.User.Username()
	}
	u.User = url.UserPassword(user, accessKey)
	return u.String(), nil
}

func (s *RemoteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ReadConfig returns the value stored under key in app_config, bounded by
// the configuration read timeout. A missing row, a transport error and a
// timeout all surface as an error; callers treat the three alike.
func (s *RemoteStore) ReadConfig(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, configReadTimeout)
	defer cancel()

	q := s.sql.Select("value").From("app_config").Where(sq.Eq{"key": key})
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return "", fmt.Errorf("build config query: %w", err)
	}

	var value string
	if err := s.db.QueryRowContext(ctx, sqlStr, args...).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("read config %q: %w", key, err)
	}
	return value, nil
}

// UpsertConversation replaces-or-inserts the row keyed by the conversation
// identifier. The full transcript is serialized into the content column;
// updated_at is bumped on every write so listing stays recency-ordered.
func (s *RemoteStore) UpsertConversation(ctx context.Context, conv Conversation) error {
	content, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}

	q := s.sql.Insert("conversations").
		Columns("id", "title", "content", "updated_at").
		Values(conv.ID, conv.Title, string(content), time.Now().UTC()).
		Suffix("ON CONFLICT(id) DO UPDATE SET title=excluded.title, content=excluded.content, updated_at=excluded.updated_at")

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build conversation upsert query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("upsert conversation: %w", err)
	}
	return nil
}

// ListConversations returns all conversation rows, most recently updated
// first, bounded by the history timeout. Rows whose content no longer parses
// are skipped rather than failing the whole listing.
func (s *RemoteStore) ListConversations(ctx context.Context) ([]Conversation, error) {
	ctx, cancel := context.WithTimeout(ctx, historyTimeout)
	defer cancel()

	q := s.sql.Select("content").From("conversations").OrderBy("updated_at DESC")
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list conversations query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	out := make([]Conversation, 0)
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("scan conversation row: %w", err)
		}
		var conv Conversation
		if err := json.Unmarshal([]byte(content), &conv); err != nil {
			s.logger.Warn().Err(err).Msg("skipping malformed conversation row")
			continue
		}
		out = append(out, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversation rows: %w", err)
	}
	return out, nil
}

// DeleteConversation removes the row keyed by id. No timeout guard; callers
// issue it best-effort and ignore the result.
func (s *RemoteStore) DeleteConversation(ctx context.Context, id string) error {
	q := s.sql.Delete("conversations").Where(sq.Eq{"id": id})
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete conversation query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}
