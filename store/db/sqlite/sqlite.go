package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	// Import the pure-Go SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/finchbot/finch/internal/profile"
	"github.com/finchbot/finch/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a SQLite database for the given profile.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	// WAL keeps readers unblocked while the backfill runner writes
	// embeddings; busy_timeout covers the residual write contention.
	db, err := sql.Open("sqlite", profile.DSN+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", profile.DSN)
	}

	// modernc sqlite serializes writes internally; a single connection
	// avoids SQLITE_BUSY churn without limiting read throughput in WAL.
	db.SetMaxOpenConns(1)

	driver := DB{
		db:      db,
		profile: profile,
	}

	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Migrate creates the schema if it does not exist yet.
func (d *DB) Migrate(ctx context.Context) error {
	stmt := `
		CREATE TABLE IF NOT EXISTS chat_message (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			uid TEXT NOT NULL UNIQUE,
			channel_id TEXT NOT NULL,
			guild_id TEXT,
			author_id TEXT NOT NULL,
			author_name TEXT NOT NULL DEFAULT '',
			is_bot INTEGER NOT NULL DEFAULT 0,
			content TEXT NOT NULL,
			embedding BLOB,
			created_ts BIGINT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_chat_message_channel_created ON chat_message (channel_id, created_ts);

		CREATE TABLE IF NOT EXISTS knowledge_entry (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			uid TEXT NOT NULL UNIQUE,
			guild_id TEXT NOT NULL,
			content TEXT NOT NULL,
			tags TEXT NOT NULL DEFAULT '[]',
			embedding BLOB,
			created_ts BIGINT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_knowledge_entry_guild ON knowledge_entry (guild_id);

		CREATE TABLE IF NOT EXISTS user_memory (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			uid TEXT NOT NULL UNIQUE,
			user_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			provenance TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			embedding BLOB,
			created_ts BIGINT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_user_memory_user ON user_memory (user_id);
	`
	if _, err := d.db.ExecContext(ctx, stmt); err != nil {
		return errors.Wrap(err, "failed to migrate schema")
	}
	return nil
}
