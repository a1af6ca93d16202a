package test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/finchbot/finch/internal/profile"
	"github.com/finchbot/finch/store"
	"github.com/finchbot/finch/store/db/sqlite"
)

// NewTestingStore creates a store backed by a fresh SQLite database in a
// temporary directory.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()

	p := &profile.Profile{
		Mode:                  "dev",
		Driver:                "sqlite",
		DSN:                   filepath.Join(t.TempDir(), "finch_test.db"),
		AIEmbeddingDimensions: 4,
	}

	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)

	ts := store.New(driver, p)
	require.NoError(t, ts.Migrate(ctx))
	t.Cleanup(func() {
		_ = ts.Close()
	})
	return ts
}
