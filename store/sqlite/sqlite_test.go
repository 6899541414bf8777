package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shift-payroll/jobs"
	"github.com/warp/shift-payroll/store"
	"github.com/warp/shift-payroll/store/sqlite"
	"github.com/warp/shift-payroll/store/storetest"
)

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := sqlite.New(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestSQLiteStore_Reopen(t *testing.T) {
	// GIVEN: A database file with a saved configuration
	path := filepath.Join(t.TempDir(), "payroll.db")
	s, err := sqlite.New(path)
	require.NoError(t, err)
	_, err = store.EnsureConfig(context.Background(), s, jobs.Default())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// WHEN: It is opened again
	s, err = sqlite.New(path)
	require.NoError(t, err)
	defer s.Close()

	// THEN: Migration is idempotent and the configuration survives
	cfg, err := s.LoadConfig(context.Background())
	require.NoError(t, err)
	assert.Len(t, cfg.Jobs, 3)
}
