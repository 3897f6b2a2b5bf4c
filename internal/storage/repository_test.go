package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vegledger/internal/core"
	"vegledger/internal/store"
)

func newTestRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "vegledger.db")
	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func TestSQLiteRepository_LoadMissingSlot(t *testing.T) {
	repo, _ := newTestRepo(t)

	payload, found, err := repo.Load(context.Background(), core.SlotCustomers)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, payload)
}

func TestSQLiteRepository_SaveOverwritesAndBumpsVersion(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, core.SlotSalesRecords, []byte(`[]`)))
	require.NoError(t, repo.Save(ctx, core.SlotSalesRecords, []byte(`[{"id":"s1"}]`)))

	payload, found, err := repo.Load(ctx, core.SlotSalesRecords)
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `[{"id":"s1"}]`, string(payload))

	info, err := repo.Info(ctx, core.SlotSalesRecords)
	require.NoError(t, err)
	assert.Equal(t, int64(2), info.Version)
	assert.False(t, info.UpdatedAt.IsZero())
}

func TestSQLiteRepository_SurvivesReopen(t *testing.T) {
	repo, path := newTestRepo(t)
	ctx := context.Background()

	customers := []core.Customer{{ID: "c1", Name: "A", Phone: "1234567890"}}
	require.NoError(t, store.SaveSlot(ctx, repo, core.SlotCustomers, customers))
	require.NoError(t, repo.Close())

	reopened, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := store.LoadSlot(ctx, reopened, core.SlotCustomers, core.DefaultCustomers())
	require.NoError(t, err)
	assert.Equal(t, customers, got)
}
