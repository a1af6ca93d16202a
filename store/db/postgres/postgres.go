package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/finchbot/finch/internal/profile"
	"github.com/finchbot/finch/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a PostgreSQL database for the given profile. Embeddings are
// stored in pgvector columns; search still goes through the generic
// brute-force scan so both backends rank identically.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	db, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", profile.DSN)
	}

	// Single-user bot: a small pool keeps resource usage low while
	// staying responsive.
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(2 * time.Hour)
	db.SetConnMaxIdleTime(15 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return &DB{
		db:      db,
		profile: profile,
	}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Migrate creates the schema if it does not exist yet.
func (d *DB) Migrate(ctx context.Context) error {
	dimensions := d.profile.AIEmbeddingDimensions
	if dimensions <= 0 {
		dimensions = 384
	}

	stmt := fmt.Sprintf(`
		CREATE EXTENSION IF NOT EXISTS vector;

		CREATE TABLE IF NOT EXISTS chat_message (
			id BIGSERIAL PRIMARY KEY,
			uid TEXT NOT NULL UNIQUE,
			channel_id TEXT NOT NULL,
			guild_id TEXT,
			author_id TEXT NOT NULL,
			author_name TEXT NOT NULL DEFAULT '',
			is_bot BOOLEAN NOT NULL DEFAULT FALSE,
			content TEXT NOT NULL,
			embedding vector(%d),
			created_ts BIGINT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_chat_message_channel_created ON chat_message (channel_id, created_ts);

		CREATE TABLE IF NOT EXISTS knowledge_entry (
			id BIGSERIAL PRIMARY KEY,
			uid TEXT NOT NULL UNIQUE,
			guild_id TEXT NOT NULL,
			content TEXT NOT NULL,
			tags TEXT[] NOT NULL DEFAULT '{}',
			embedding vector(%d),
			created_ts BIGINT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_knowledge_entry_guild ON knowledge_entry (guild_id);

		CREATE TABLE IF NOT EXISTS user_memory (
			id BIGSERIAL PRIMARY KEY,
			uid TEXT NOT NULL UNIQUE,
			user_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			provenance TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			embedding vector(%d),
			created_ts BIGINT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_user_memory_user ON user_memory (user_id);
	`, dimensions, dimensions, dimensions)

	if _, err := d.db.ExecContext(ctx, stmt); err != nil {
		return errors.Wrap(err, "failed to migrate schema")
	}
	return nil
}
