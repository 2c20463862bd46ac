// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside the Go binary as a single
// file. No separate database server to install, configure, or manage.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which needs a C compiler and makes
// cross-compilation painful. modernc.org/sqlite is a pure Go translation of
// the SQLite C code — works everywhere Go works.
//
// The store is an in-process single-writer structure. Nothing here locks
// across processes: running two server processes against the same database
// file is not a supported deployment.
package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool. Per-entity repositories are reached
// through the accessor methods (Users, Tweets, ...) — each shares this
// single pool, so exactly one store exists per process.
type DB struct {
	conn   *sql.DB
	logger *slog.Logger
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/microblog.db" → file-based, persistent
//   - ":memory:"          → in-memory, great for tests
//
// Startup never fails on a broken database file: if the file can't be
// opened, we fall back to an in-memory store with a loud warning rather
// than refusing to start. Write errors after startup are NOT swallowed —
// they propagate to the caller (a failed persist must never look like
// success).
func New(dbPath string, logger *slog.Logger) (*DB, error) {
	conn, err := open(dbPath)
	if err != nil {
		if dbPath == ":memory:" {
			return nil, err
		}
		logger.Warn("falling back to in-memory database — data will NOT be persisted",
			slog.String("path", dbPath),
			slog.String("error", err.Error()),
		)
		conn, err = open(":memory:")
		if err != nil {
			return nil, err
		}
	}

	db := &DB{conn: conn, logger: logger}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

func open(dbPath string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// One connection: SQLite allows a single writer anyway, and with
	// ":memory:" every new pooled connection would otherwise get its own
	// empty database.
	conn.SetMaxOpenConns(1)

	// Force an immediate connection — a bad path or permissions issue
	// should surface now, not on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. We depend on them for
	// the tweet → likes/replies cascade.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	return conn, nil
}

// Close closes the connection pool. Call it on shutdown so the WAL is
// checkpointed and the file lock released.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Users returns the user repository view of this store.
func (db *DB) Users() *UserDB { return &UserDB{db: db} }

// Tweets returns the tweet repository view of this store.
func (db *DB) Tweets() *TweetDB { return &TweetDB{db: db} }

// Likes returns the like repository view of this store.
func (db *DB) Likes() *LikeDB { return &LikeDB{db: db} }

// Replies returns the reply repository view of this store.
func (db *DB) Replies() *ReplyDB { return &ReplyDB{db: db} }

// Follows returns the follow repository view of this store.
func (db *DB) Follows() *FollowDB { return &FollowDB{db: db} }

// migrate creates the schema. CREATE TABLE IF NOT EXISTS is idempotent,
// so running it on every startup is safe.
//
// Column names are snake_case; the cascade rules mirror the data model:
// deleting a user removes their tweets, likes, replies, and follow edges;
// deleting a tweet removes its likes and replies.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			github_id     INTEGER UNIQUE,
			avatar_url    TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL,
			updated_at    DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS tweets (
			id         TEXT PRIMARY KEY,
			content    TEXT NOT NULL,
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_tweets_created_at ON tweets(created_at);
		CREATE INDEX IF NOT EXISTS idx_tweets_user_id    ON tweets(user_id);

		CREATE TABLE IF NOT EXISTS likes (
			id         TEXT PRIMARY KEY,
			tweet_id   TEXT NOT NULL REFERENCES tweets(id) ON DELETE CASCADE,
			user_id    TEXT NOT NULL REFERENCES users(id)  ON DELETE CASCADE,
			created_at DATETIME NOT NULL,
			UNIQUE(tweet_id, user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_likes_user_id ON likes(user_id);

		CREATE TABLE IF NOT EXISTS replies (
			id         TEXT PRIMARY KEY,
			content    TEXT NOT NULL,
			tweet_id   TEXT NOT NULL REFERENCES tweets(id) ON DELETE CASCADE,
			user_id    TEXT NOT NULL REFERENCES users(id)  ON DELETE CASCADE,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_replies_tweet_id ON replies(tweet_id);

		CREATE TABLE IF NOT EXISTS follows (
			follower_id  TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			following_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at   DATETIME NOT NULL,
			PRIMARY KEY (follower_id, following_id),
			CHECK (follower_id <> following_id)
		);
		CREATE INDEX IF NOT EXISTS idx_follows_following ON follows(following_id);
	`)
	if err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure on the given table.column. The pure-Go driver doesn't expose a
// typed error for this, so we match the message — it is stable:
// "UNIQUE constraint failed: users.email".
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") && strings.Contains(msg, strings.ToLower(column))
}
