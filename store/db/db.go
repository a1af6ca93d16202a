package db

import (
	"github.com/pkg/errors"

	"github.com/finchbot/finch/internal/profile"
	"github.com/finchbot/finch/store"
	"github.com/finchbot/finch/store/db/postgres"
	"github.com/finchbot/finch/store/db/sqlite"
)

// SQLite is the reference backend: embeddings live in BLOB columns and
// similarity search is a brute-force scan in Go. PostgreSQL stores
// embeddings in pgvector columns but goes through the same scan path, so
// both backends share identical search semantics.

// NewDBDriver creates a new db driver based on profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q: only 'sqlite' and 'postgres' are supported", profile.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
